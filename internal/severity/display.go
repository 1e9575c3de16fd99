package severity

import (
	"fmt"
	"math"
	"strconv"
)

// Display range for stored and rendered severities.
const (
	DisplayMin = 0.1
	DisplayMax = 1.0
)

// ClampDisplay maps any score onto the display range [0.1, 1.0], rounded to
// two decimals. Zero, negative and NaN inputs read as 0.1.
func ClampDisplay(score float64) float64 {
	if math.IsNaN(score) {
		return DisplayMin
	}
	rounded := math.Round(score*100) / 100
	return math.Max(DisplayMin, math.Min(DisplayMax, rounded))
}

// Band is a coarse severity grade.
type Band string

const (
	BandLow    Band = "low"
	BandMedium Band = "medium"
	BandHigh   Band = "high"
)

// BandFor classifies a severity into low (<0.4), medium (<0.7) or high.
func BandFor(severity float64) Band {
	switch {
	case severity >= 0.7:
		return BandHigh
	case severity >= 0.4:
		return BandMedium
	default:
		return BandLow
	}
}

// ColorFor returns a hex colour for the severity, interpolated between the
// green, yellow, orange and red anchors.
func ColorFor(severity float64) string {
	s := clampUnit(severity)
	first, last := colorAnchors[0], colorAnchors[len(colorAnchors)-1]
	if s <= first.at {
		return first.hex
	}
	if s >= last.at {
		return last.hex
	}

	for i := 0; i < len(colorAnchors)-1; i++ {
		a, b := colorAnchors[i], colorAnchors[i+1]
		if s < a.at || s > b.at {
			continue
		}
		t := 1.0
		if b.at != a.at {
			t = (s - a.at) / (b.at - a.at)
		}
		return lerpHex(a.hex, b.hex, t)
	}
	return last.hex
}

func lerpHex(from, to string, t float64) string {
	ar, ag, ab := parseHex(from)
	br, bg, bb := parseHex(to)
	mix := func(x, y int) int {
		return x + int(float64(y-x)*t)
	}
	return fmt.Sprintf("#%02X%02X%02X", mix(ar, br), mix(ag, bg), mix(ab, bb))
}

func parseHex(h string) (int, int, int) {
	if len(h) == 7 && h[0] == '#' {
		h = h[1:]
	}
	channel := func(i int) int {
		v, err := strconv.ParseUint(h[i:i+2], 16, 8)
		if err != nil {
			return 0
		}
		return int(v)
	}
	if len(h) != 6 {
		return 0, 0, 0
	}
	return channel(0), channel(2), channel(4)
}
