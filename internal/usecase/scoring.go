package usecase

// ScoringConfig carries the thresholds shared by scans and verification.
type ScoringConfig struct {
	// AutoLogSeverityMin gates the audit log.
	AutoLogSeverityMin float64
	// GoreVerifyThreshold decides the gore flag.
	GoreVerifyThreshold float64
	// AlertSeverityMin selects items for the notifier digest.
	AlertSeverityMin     float64
	IncludeArticleImages bool
	ScoreThumbnails      bool
}

// DefaultScoring returns the stock thresholds.
func DefaultScoring() ScoringConfig {
	return ScoringConfig{
		AutoLogSeverityMin:   0.5,
		GoreVerifyThreshold:  0.6,
		AlertSeverityMin:     0.8,
		IncludeArticleImages: true,
		ScoreThumbnails:      true,
	}
}

func (c ScoringConfig) shouldLog(severity float64) bool {
	return severity >= c.AutoLogSeverityMin
}

func (c ScoringConfig) goreFlag(severity float64) bool {
	return severity >= c.GoreVerifyThreshold
}
