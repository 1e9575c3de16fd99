package config

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Keys of the persisted settings that override the file configuration.
const (
	SettingNewsAPIKey          = "newsapi.key"
	SettingAutoLogSeverityMin  = "scoring.autoLogSeverityMin"
	SettingGoreVerifyThreshold = "scoring.goreVerifyThreshold"
	SettingMaxResults          = "providers.maxResults"
	SettingDefaultProviders    = "providers.default"
	settingEnabledPrefix       = "providers.enabled."
)

// EnabledKey returns the settings key for a provider toggle.
func EnabledKey(provider string) string {
	return settingEnabledPrefix + provider
}

// SettingKeys lists every key accepted by ApplySettings.
func SettingKeys() []string {
	keys := []string{
		SettingNewsAPIKey,
		SettingAutoLogSeverityMin,
		SettingGoreVerifyThreshold,
		SettingMaxResults,
		SettingDefaultProviders,
	}
	for _, name := range []string{ProviderNews, ProviderDDGImages, ProviderDDGVideos, ProviderDDGText, ProviderRSS} {
		keys = append(keys, EnabledKey(name))
	}
	sort.Strings(keys)
	return keys
}

// ApplySettings overlays persisted key/value settings. Invalid entries are
// skipped and reported together; valid ones still apply.
func (c *Config) ApplySettings(settings map[string]string) error {
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []error
	for _, key := range keys {
		if err := c.applySetting(key, settings[key]); err != nil {
			errs = append(errs, fmt.Errorf("setting %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

// ValidateSetting checks a single key/value pair without keeping it.
func ValidateSetting(key, value string) error {
	cfg := Default()
	return cfg.applySetting(key, value)
}

func (c *Config) applySetting(key, value string) error {
	value = strings.TrimSpace(value)
	switch key {
	case SettingNewsAPIKey:
		c.Providers.News.APIKey = value
	case SettingAutoLogSeverityMin:
		v, err := parseUnit(value)
		if err != nil {
			return err
		}
		c.Scoring.AutoLogSeverityMin = v
	case SettingGoreVerifyThreshold:
		v, err := parseUnit(value)
		if err != nil {
			return err
		}
		c.Scoring.GoreVerifyThreshold = v
	case SettingMaxResults:
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("expected positive integer, got %q", value)
		}
		c.Providers.MaxResults = n
	case SettingDefaultProviders:
		names := splitList(value)
		for _, name := range names {
			if !knownProvider(name) {
				return fmt.Errorf("unknown provider %q", name)
			}
		}
		c.Providers.Default = names
	default:
		name, ok := strings.CutPrefix(key, settingEnabledPrefix)
		if !ok {
			return errors.New("unknown key")
		}
		on, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("expected boolean, got %q", value)
		}
		if !c.Providers.setEnabled(name, on) {
			return fmt.Errorf("unknown provider %q", name)
		}
	}
	return nil
}

func parseUnit(value string) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil || v < 0 || v > 1 {
		return 0, fmt.Errorf("expected number within [0,1], got %q", value)
	}
	return v, nil
}
