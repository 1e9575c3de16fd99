package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"GoreScanner/internal/provider"
)

const (
	configPathEnv     = "GORE_SCANNER_CONFIG"
	newsAPIKeyEnv     = "NEWSAPI_KEY"
	databaseDSNEnv    = "DATABASE_DSN"
	redisAddrEnv      = "REDIS_ADDR"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
	logLevelEnv       = "LOG_LEVEL"
)

// Provider names as used in configuration.
const (
	ProviderNews      = provider.News
	ProviderDDGImages = provider.DDGImages
	ProviderDDGVideos = provider.DDGVideos
	ProviderDDGText   = provider.DDGText
	ProviderRSS       = provider.RSS
)

// Config holds high-level settings required across the application.
type Config struct {
	Scoring       ScoringConfig      `yaml:"scoring"`
	Providers     ProvidersConfig    `yaml:"providers"`
	Storage       StorageConfig      `yaml:"storage"`
	Audit         AuditConfig        `yaml:"audit"`
	Cache         CacheConfig        `yaml:"cache"`
	Verify        VerifyConfig       `yaml:"verify"`
	HTTP          HTTPConfig         `yaml:"http"`
	Watch         WatchConfig        `yaml:"watch"`
	Notifications NotificationConfig `yaml:"notifications"`
	Logging       LoggingConfig      `yaml:"logging"`
}

// ScoringConfig holds the severity thresholds.
type ScoringConfig struct {
	AutoLogSeverityMin   float64 `yaml:"autoLogSeverityMin"`
	GoreVerifyThreshold  float64 `yaml:"goreVerifyThreshold"`
	AlertSeverityMin     float64 `yaml:"alertSeverityMin"`
	IncludeArticleImages bool    `yaml:"includeArticleImages"`
	ScoreThumbnails      bool    `yaml:"scoreThumbnails"`
}

// ProvidersConfig groups settings for search providers.
type ProvidersConfig struct {
	MaxResults   int              `yaml:"maxResults"`
	FetchTimeout time.Duration    `yaml:"fetchTimeout"`
	Default      []string         `yaml:"default"`
	News         NewsConfig       `yaml:"news"`
	DuckDuckGo   DuckDuckGoConfig `yaml:"duckduckgo"`
	RSS          RSSConfig        `yaml:"rss"`
}

// NewsConfig configures NewsAPI.
type NewsConfig struct {
	Enabled bool   `yaml:"enabled"`
	APIKey  string `yaml:"apiKey"`
	BaseURL string `yaml:"baseUrl"`
}

// DuckDuckGoConfig configures the three DuckDuckGo searches.
type DuckDuckGoConfig struct {
	ImagesEnabled bool   `yaml:"imagesEnabled"`
	VideosEnabled bool   `yaml:"videosEnabled"`
	TextEnabled   bool   `yaml:"textEnabled"`
	BaseURL       string `yaml:"baseUrl"`
	HTMLURL       string `yaml:"htmlUrl"`
}

// RSSConfig configures the RSS news search.
type RSSConfig struct {
	Enabled   bool   `yaml:"enabled"`
	SearchURL string `yaml:"searchUrl"`
}

// StorageConfig selects the item store. postgres:// DSNs use Postgres,
// anything else is a SQLite file path.
type StorageConfig struct {
	DSN string `yaml:"dsn"`
}

// AuditConfig locates the daily CSV logs.
type AuditConfig struct {
	Dir string `yaml:"dir"`
}

// CacheConfig configures the image score cache. An empty RedisAddr keeps
// the cache in memory.
type CacheConfig struct {
	RedisAddr string        `yaml:"redisAddr"`
	TTL       time.Duration `yaml:"ttl"`
}

// VerifyConfig tunes the verify pass.
type VerifyConfig struct {
	Render      bool `yaml:"render"`
	Concurrency int  `yaml:"concurrency"`
}

// HTTPConfig configures the API server.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// WatchConfig lists queries re-scanned on an interval.
type WatchConfig struct {
	Interval time.Duration `yaml:"interval"`
	Queries  []string      `yaml:"queries"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// LoggingConfig sets the slog level and output format (text or json).
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := Default()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else if merged, err := mergeYAML(cfg, raw); err != nil {
			log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
		} else {
			cfg = merged
		}
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		log.Printf("config: %v (falling back to defaults for invalid values)", err)
		cfg.repair()
	}

	return cfg
}

// mergeYAML decodes raw over base; keys absent from the file keep their
// base values.
func mergeYAML(base Config, raw []byte) (Config, error) {
	merged := base
	merged.Providers.Default = append([]string(nil), base.Providers.Default...)
	merged.Watch.Queries = append([]string(nil), base.Watch.Queries...)
	if err := yaml.Unmarshal(raw, &merged); err != nil {
		return base, err
	}
	return merged, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(newsAPIKeyEnv); v != "" {
		c.Providers.News.APIKey = v
	}

	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Storage.DSN = v
	}

	if v := os.Getenv(redisAddrEnv); v != "" {
		c.Cache.RedisAddr = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

// Validate reports out-of-range values.
func (c Config) Validate() error {
	var errs []error
	for name, v := range map[string]float64{
		"scoring.autoLogSeverityMin":  c.Scoring.AutoLogSeverityMin,
		"scoring.goreVerifyThreshold": c.Scoring.GoreVerifyThreshold,
		"scoring.alertSeverityMin":    c.Scoring.AlertSeverityMin,
	} {
		if v < 0 || v > 1 {
			errs = append(errs, fmt.Errorf("%s must be within [0,1], got %v", name, v))
		}
	}
	if c.Providers.MaxResults <= 0 {
		errs = append(errs, fmt.Errorf("providers.maxResults must be positive, got %d", c.Providers.MaxResults))
	}
	if c.Providers.FetchTimeout <= 0 {
		errs = append(errs, fmt.Errorf("providers.fetchTimeout must be positive, got %s", c.Providers.FetchTimeout))
	}
	for _, name := range c.Providers.Default {
		if !knownProvider(name) {
			errs = append(errs, fmt.Errorf("providers.default: unknown provider %q", name))
		}
	}
	return errors.Join(errs...)
}

// repair resets invalid values to defaults.
func (c *Config) repair() {
	def := Default()
	fix := func(v *float64, d float64) {
		if *v < 0 || *v > 1 {
			*v = d
		}
	}
	fix(&c.Scoring.AutoLogSeverityMin, def.Scoring.AutoLogSeverityMin)
	fix(&c.Scoring.GoreVerifyThreshold, def.Scoring.GoreVerifyThreshold)
	fix(&c.Scoring.AlertSeverityMin, def.Scoring.AlertSeverityMin)
	if c.Providers.MaxResults <= 0 {
		c.Providers.MaxResults = def.Providers.MaxResults
	}
	if c.Providers.FetchTimeout <= 0 {
		c.Providers.FetchTimeout = def.Providers.FetchTimeout
	}
	known := c.Providers.Default[:0]
	for _, name := range c.Providers.Default {
		if knownProvider(name) {
			known = append(known, name)
		}
	}
	c.Providers.Default = known
}

func knownProvider(name string) bool {
	switch name {
	case ProviderNews, ProviderDDGImages, ProviderDDGVideos, ProviderDDGText, ProviderRSS:
		return true
	}
	return false
}

// Enabled reports whether the named provider is switched on.
func (p ProvidersConfig) Enabled(name string) bool {
	switch name {
	case ProviderNews:
		return p.News.Enabled
	case ProviderDDGImages:
		return p.DuckDuckGo.ImagesEnabled
	case ProviderDDGVideos:
		return p.DuckDuckGo.VideosEnabled
	case ProviderDDGText:
		return p.DuckDuckGo.TextEnabled
	case ProviderRSS:
		return p.RSS.Enabled
	}
	return false
}

// EnabledDefaults filters the default provider set by the enable flags.
func (p ProvidersConfig) EnabledDefaults() []string {
	out := make([]string, 0, len(p.Default))
	for _, name := range p.Default {
		if p.Enabled(name) {
			out = append(out, name)
		}
	}
	return out
}

func (p *ProvidersConfig) setEnabled(name string, on bool) bool {
	switch name {
	case ProviderNews:
		p.News.Enabled = on
	case ProviderDDGImages:
		p.DuckDuckGo.ImagesEnabled = on
	case ProviderDDGVideos:
		p.DuckDuckGo.VideosEnabled = on
	case ProviderDDGText:
		p.DuckDuckGo.TextEnabled = on
	case ProviderRSS:
		p.RSS.Enabled = on
	default:
		return false
	}
	return true
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Scoring: ScoringConfig{
			AutoLogSeverityMin:   0.5,
			GoreVerifyThreshold:  0.6,
			AlertSeverityMin:     0.8,
			IncludeArticleImages: true,
			ScoreThumbnails:      true,
		},
		Providers: ProvidersConfig{
			MaxResults:   50,
			FetchTimeout: 8 * time.Second,
			Default:      []string{ProviderNews, ProviderDDGImages, ProviderDDGVideos, ProviderDDGText},
			News:         NewsConfig{Enabled: true},
			DuckDuckGo: DuckDuckGoConfig{
				ImagesEnabled: true,
				VideosEnabled: true,
				TextEnabled:   true,
			},
			RSS: RSSConfig{Enabled: true},
		},
		Storage: StorageConfig{DSN: "gorescanner.db"},
		Audit:   AuditConfig{Dir: "gore_logs"},
		Cache:   CacheConfig{TTL: 24 * time.Hour},
		Verify:  VerifyConfig{Concurrency: 4},
		HTTP:    HTTPConfig{Addr: ":8080"},
		Watch:   WatchConfig{Interval: time.Hour},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
