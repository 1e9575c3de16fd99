package severity

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"

	"github.com/corona10/goimagehash"
	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

const (
	// RedPercentForMax is the blood-like pixel percentage that maps to 1.0.
	RedPercentForMax = 12.0

	// analysisEdge bounds the side of the image sampled for pixel statistics.
	analysisEdge = 256
)

var errNotImage = errors.New("response is not an image")

// ImageAnalysis is the outcome of fetching and inspecting one image.
// Score is 0 whenever Err is set.
type ImageAnalysis struct {
	Score float64
	Hash  *goimagehash.ImageHash
	Err   error
}

// AnalyzeImage downloads the image at imageURL and scores its share of
// blood-like red pixels. Failures are reported in the result, never returned.
func (s *Scorer) AnalyzeImage(ctx context.Context, imageURL string) ImageAnalysis {
	data, err := s.download(ctx, imageURL)
	if err != nil {
		s.debug("image download failed", "url", imageURL, "error", err)
		return ImageAnalysis{Err: err}
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		s.debug("image decode failed", "url", imageURL, "error", err)
		return ImageAnalysis{Err: fmt.Errorf("decode image: %w", err)}
	}

	analysis := ImageAnalysis{Score: ScoreImage(img)}
	if hash, hErr := goimagehash.DifferenceHash(img); hErr == nil {
		analysis.Hash = hash
	}

	if s.cache != nil {
		s.cache.Set(ctx, imageURL, analysis.Score)
	}
	return analysis
}

// ScoreImageFromURL returns the image score for imageURL, or 0 on any fetch
// or decode failure. Scores are served from the cache when one is configured.
func (s *Scorer) ScoreImageFromURL(ctx context.Context, imageURL string) float64 {
	if strings.TrimSpace(imageURL) == "" {
		return 0
	}
	if s.cache != nil {
		if score, ok := s.cache.Get(ctx, imageURL); ok {
			return score
		}
	}
	return s.AnalyzeImage(ctx, imageURL).Score
}

// ScoreImage maps the percentage of blood-like pixels in img to [0,1].
func ScoreImage(img image.Image) float64 {
	pct := RedPixelPercent(img)
	return clampUnit(pct / RedPercentForMax)
}

// RedPixelPercent returns the percentage of pixels that are bright red
// (fresh blood) or dark red (dried blood, pools). Large images are
// downscaled first.
func RedPixelPercent(img image.Image) float64 {
	if img == nil {
		return 0
	}
	bounds := img.Bounds()
	if bounds.Dx() > analysisEdge || bounds.Dy() > analysisEdge {
		img = resize.Thumbnail(analysisEdge, analysisEdge, img, resize.Bilinear)
		bounds = img.Bounds()
	}

	total := bounds.Dx() * bounds.Dy()
	if total <= 0 {
		return 0
	}

	count := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			if isBloodRed(int(c.R), int(c.G), int(c.B)) {
				count++
			}
		}
	}

	return float64(count) / float64(total) * 100
}

func isBloodRed(r, g, b int) bool {
	if r > 140 && g < 110 && b < 110 {
		return true
	}
	return r > 70 && g < 55 && b < 55 && r > g && r > b
}

func (s *Scorer) download(ctx context.Context, imageURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image returned %s", resp.Status)
	}

	ct := resp.Header.Get("Content-Type")
	if idx := strings.IndexByte(ct, ';'); idx >= 0 {
		ct = strings.TrimSpace(ct[:idx])
	}
	if ct != "" && !strings.HasPrefix(ct, "image/") && ct != "application/octet-stream" {
		return nil, fmt.Errorf("%w: %s", errNotImage, ct)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return data, nil
}
