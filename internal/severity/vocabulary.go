package severity

// keywordWeights maps graphic-content terms to their contribution. Terms are
// matched case-insensitively at the start of a word, inflected endings
// included, and each contributes at most once.
var keywordWeights = map[string]float64{
	"beheading":     0.9,
	"beheaded":      0.9,
	"decapitated":   0.9,
	"dismembered":   0.85,
	"mutilated":     0.8,
	"gore":          0.7,
	"gory":          0.65,
	"massacre":      0.6,
	"corpse":        0.55,
	"dead body":     0.55,
	"bodies":        0.4,
	"blood":         0.4,
	"bloody":        0.45,
	"graphic":       0.35,
	"execution":     0.5,
	"murder":        0.45,
	"killed":        0.35,
	"stabbing":      0.45,
	"stabbed":       0.45,
	"shooting":      0.35,
	"shot dead":     0.5,
	"shot":          0.2,
	"explosion":     0.3,
	"bombing":       0.4,
	"fatal":         0.3,
	"accident":      0.2,
	"crash":         0.2,
	"injured":       0.2,
	"wounded":       0.25,
	"injury":        0.15,
	"violence":      0.2,
	"violent":       0.2,
	"brutal":        0.3,
	"disturbing":    0.3,
	"torture":       0.6,
	"severed":       0.6,
	"carnage":       0.6,
	"autopsy":       0.4,

	"viewer discretion": 0.35,
}

// falsePositiveExclusions suppress a keyword when any of the listed phrases
// appears in the same text.
var falsePositiveExclusions = map[string][]string{
	"shot":      {"photo shoot", "screenshot", "snapshot", "shot glass", "booster shot", "flu shot", "mug shot", "long shot"},
	"shooting":  {"photo shooting", "shooting star", "shooting guard", "film shooting"},
	"blood":     {"blood drive", "blood donation", "blood pressure", "blood test", "blood sugar", "blood moon", "bloodline"},
	"crash":     {"market crash", "stock crash", "app crash", "crash course", "system crash"},
	"graphic":   {"graphic design", "graphics card", "infographic", "graphic novel"},
	"explosion": {"population explosion", "explosion of color", "flavor explosion"},
	"killed":    {"killed it", "killed the game"},
	"execution": {"code execution", "execution time", "trade execution"},
	"bodies":    {"celestial bodies", "governing bodies", "car bodies"},
	"massacre":  {"box office massacre"},
	"gore":      {"al gore", "gore-tex"},
}

// fictionIndicators mark staged, fictional or fake content.
var fictionIndicators = []string{
	"movie", "film", "trailer", "tv series", "episode", "fiction", "fictional",
	"prop", "props", "special effects", "sfx", "makeup tutorial", "halloween",
	"costume", "cosplay", "video game", "gameplay", "fake", "hoax", "satire",
	"prank", "horror film", "horror movie", "scene from",
}

// realContentWeights boost content that claims to be real footage. Only the
// strongest matching phrase applies.
var realContentWeights = map[string]float64{
	"real footage":     0.25,
	"actual footage":   0.25,
	"cctv":             0.2,
	"bodycam":          0.2,
	"body cam":         0.2,
	"dashcam":          0.15,
	"caught on camera": 0.15,
	"eyewitness":       0.1,
	"documentary":      0.1,
	"leaked video":     0.2,
}

// colorAnchors map severity to a display colour; linear interpolation in between.
var colorAnchors = []struct {
	at  float64
	hex string
}{
	{0.0, "#2E7D32"},
	{0.4, "#F9A825"},
	{0.7, "#EF6C00"},
	{1.0, "#B71C1C"},
}
