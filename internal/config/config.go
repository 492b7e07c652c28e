// Package config loads and validates draftwatch's process-wide
// configuration (spec §3) using viper, with hot-reload support for the
// Supervisor's configuration hot-apply (§4.10).
package config

import (
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// FeaturePolicy is one feature's enable/trigger settings.
type FeaturePolicy struct {
	Enabled bool   `mapstructure:"enabled"`
	Trigger string `mapstructure:"trigger"` // "hover" | "pick" | "lock_in"
}

// BuildGuidePolicy extends FeaturePolicy with the in-game re-trigger flag.
type BuildGuidePolicy struct {
	FeaturePolicy `mapstructure:",squash"`
	OpenInGame    bool `mapstructure:"open_in_game"`
}

// Features mirrors the `features` block of the §3 schema, plus the
// analytics base URL the Trigger Engine needs to build URLs.
type Features struct {
	Matchup       FeaturePolicy    `mapstructure:"matchup"`
	MyCounters    FeaturePolicy    `mapstructure:"my_counters"`
	EnemyCounters FeaturePolicy    `mapstructure:"enemy_counters"`
	BuildGuide    BuildGuidePolicy `mapstructure:"build_guide"`
	BaseURL       string           `mapstructure:"-"`
}

// Transport mirrors the `transport` block.
type Transport struct {
	RetryIntervalMs int `mapstructure:"retry_interval_ms"`
	MaxRetries      int `mapstructure:"max_retries"`
}

// Dispatch mirrors the `dispatch` block.
type Dispatch struct {
	DelayMs int `mapstructure:"delay_ms"`
}

// Champions controls optional CDN refresh (Open Question 3 resolution:
// refresh cadence is left to configuration; unset means no background
// refresh, embedded data stays authoritative).
type Champions struct {
	RefreshIntervalMs int    `mapstructure:"refresh_interval_ms"`
	CDNBaseURL        string `mapstructure:"cdn_base_url"`
}

// Analytics mirrors the `analytics` block.
type Analytics struct {
	BaseURL string `mapstructure:"base_url"`
}

// Config is the fully-validated, typed configuration document.
type Config struct {
	Features  featuresDoc `mapstructure:"features"`
	Analytics Analytics   `mapstructure:"analytics"`
	Dispatch  Dispatch    `mapstructure:"dispatch"`
	Transport Transport   `mapstructure:"transport"`
	Champions Champions   `mapstructure:"champions"`
}

type featuresDoc struct {
	Matchup       FeaturePolicy    `mapstructure:"matchup"`
	MyCounters    FeaturePolicy    `mapstructure:"my_counters"`
	EnemyCounters FeaturePolicy    `mapstructure:"enemy_counters"`
	BuildGuide    BuildGuidePolicy `mapstructure:"build_guide"`
}

// AsFeatures flattens Config into the Features view the Trigger Engine
// consumes (it needs the base URL alongside the per-feature policies).
func (c Config) AsFeatures() Features {
	return Features{
		Matchup:       c.Features.Matchup,
		MyCounters:    c.Features.MyCounters,
		EnemyCounters: c.Features.EnemyCounters,
		BuildGuide:    c.Features.BuildGuide,
		BaseURL:       c.Analytics.BaseURL,
	}
}

// DispatchDelay returns the configured dispatch delay, clamped to the
// 0..10000ms range the schema promises.
func (c Config) DispatchDelay() time.Duration {
	ms := c.Dispatch.DelayMs
	if ms < 0 {
		ms = 0
	}
	if ms > 10000 {
		ms = 10000
	}
	return time.Duration(ms) * time.Millisecond
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("features.matchup.enabled", true)
	v.SetDefault("features.matchup.trigger", "pick")
	v.SetDefault("features.my_counters.enabled", true)
	v.SetDefault("features.my_counters.trigger", "hover")
	v.SetDefault("features.enemy_counters.enabled", true)
	v.SetDefault("features.enemy_counters.trigger", "pick")
	v.SetDefault("features.build_guide.enabled", true)
	v.SetDefault("features.build_guide.trigger", "lock_in")
	v.SetDefault("features.build_guide.open_in_game", true)
	v.SetDefault("analytics.base_url", "https://lolanalytics.example.com")
	v.SetDefault("dispatch.delay_ms", 1500)
	v.SetDefault("transport.retry_interval_ms", 2000)
	v.SetDefault("transport.max_retries", 0) // 0 = unbounded
	v.SetDefault("champions.refresh_interval_ms", 0)
	v.SetDefault("champions.cdn_base_url", "https://ddragon.leagueoflegends.com")
}

// Load reads path (a JSON file) into a validated Config. A missing or
// malformed file is not fatal: Load logs at warn level and returns the
// all-defaults Config, matching §7's Config error kind ("fail load, fall
// back to defaults").
func Load(path string, log zerolog.Logger) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	setDefaults(v)

	var cfg Config
	if err := v.ReadInConfig(); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("config: falling back to defaults")
		if decodeErr := v.Unmarshal(&cfg); decodeErr != nil {
			return Config{}, fmt.Errorf("config: decode defaults: %w", decodeErr)
		}
		return cfg, nil
	}

	if err := v.Unmarshal(&cfg); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("config: malformed document, falling back to defaults")
		v2 := viper.New()
		setDefaults(v2)
		if decodeErr := v2.Unmarshal(&cfg); decodeErr != nil {
			return Config{}, fmt.Errorf("config: decode defaults: %w", decodeErr)
		}
		return cfg, nil
	}

	if err := Validate(cfg); err != nil {
		log.Warn().Err(err).Msg("config: failed validation, falling back to defaults")
		v2 := viper.New()
		setDefaults(v2)
		var fallback Config
		if decodeErr := v2.Unmarshal(&fallback); decodeErr != nil {
			return Config{}, fmt.Errorf("config: decode defaults: %w", decodeErr)
		}
		return fallback, nil
	}

	return cfg, nil
}

// Validate checks the structural and range constraints the schema promises.
func Validate(cfg Config) error {
	if cfg.Dispatch.DelayMs < 0 || cfg.Dispatch.DelayMs > 10000 {
		return fmt.Errorf("dispatch.delay_ms must be in 0..10000, got %d", cfg.Dispatch.DelayMs)
	}
	if cfg.Analytics.BaseURL == "" {
		return fmt.Errorf("analytics.base_url must not be empty")
	}
	for name, trigger := range map[string]string{
		"matchup":        cfg.Features.Matchup.Trigger,
		"my_counters":    cfg.Features.MyCounters.Trigger,
		"enemy_counters": cfg.Features.EnemyCounters.Trigger,
		"build_guide":    cfg.Features.BuildGuide.Trigger,
	} {
		switch trigger {
		case "hover", "pick", "lock_in":
		default:
			return fmt.Errorf("features.%s.trigger invalid: %q", name, trigger)
		}
	}
	return nil
}

// Watch installs a hot-reload callback: whenever path changes on disk, the
// file is re-loaded and (if it passes Validate) onChange is invoked with
// the new Config. Invalid reloads are logged and ignored, leaving the
// previous Config in effect.
func Watch(path string, log zerolog.Logger, onChange func(Config)) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	setDefaults(v)

	v.OnConfigChange(func(_ fsnotify.Event) {
		var cfg Config
		if err := v.ReadInConfig(); err != nil {
			log.Warn().Err(err).Msg("config: hot-reload read failed, keeping prior config")
			return
		}
		if err := v.Unmarshal(&cfg); err != nil {
			log.Warn().Err(err).Msg("config: hot-reload decode failed, keeping prior config")
			return
		}
		if err := Validate(cfg); err != nil {
			log.Warn().Err(err).Msg("config: hot-reload validation failed, keeping prior config")
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
}
