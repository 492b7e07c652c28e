package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestLoadValidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"features": {
			"matchup": {"enabled": true, "trigger": "pick"},
			"my_counters": {"enabled": true, "trigger": "hover"},
			"enemy_counters": {"enabled": false, "trigger": "pick"},
			"build_guide": {"enabled": true, "trigger": "lock_in", "open_in_game": true}
		},
		"analytics": {"base_url": "https://example.test"},
		"dispatch": {"delay_ms": 500},
		"transport": {"retry_interval_ms": 1000, "max_retries": 5}
	}`), 0o600))

	cfg, err := Load(path, zerolog.Nop())
	require.NoError(t, err)
	require.True(t, cfg.Features.Matchup.Enabled)
	require.Equal(t, "pick", cfg.Features.Matchup.Trigger)
	require.False(t, cfg.Features.EnemyCounters.Enabled)
	require.True(t, cfg.Features.BuildGuide.OpenInGame)
	require.Equal(t, "https://example.test", cfg.Analytics.BaseURL)
	require.Equal(t, 500, cfg.Dispatch.DelayMs)
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"), zerolog.Nop())
	require.NoError(t, err)
	require.True(t, cfg.Features.Matchup.Enabled)
	require.NotEmpty(t, cfg.Analytics.BaseURL)
}

func TestLoadMalformedFileFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not valid json`), 0o600))

	cfg, err := Load(path, zerolog.Nop())
	require.NoError(t, err)
	require.True(t, cfg.Features.Matchup.Enabled)
}

func TestValidateRejectsOutOfRangeDelay(t *testing.T) {
	cfg := Config{Analytics: Analytics{BaseURL: "https://x"}}
	cfg.Dispatch.DelayMs = 20000
	cfg.Features.Matchup.Trigger = "pick"
	cfg.Features.MyCounters.Trigger = "hover"
	cfg.Features.EnemyCounters.Trigger = "pick"
	cfg.Features.BuildGuide.Trigger = "lock_in"

	err := Validate(cfg)
	require.Error(t, err)
}

func TestValidateRejectsUnknownTrigger(t *testing.T) {
	cfg := Config{Analytics: Analytics{BaseURL: "https://x"}}
	cfg.Features.Matchup.Trigger = "blink-and-youll-miss-it"
	cfg.Features.MyCounters.Trigger = "hover"
	cfg.Features.EnemyCounters.Trigger = "pick"
	cfg.Features.BuildGuide.Trigger = "lock_in"

	err := Validate(cfg)
	require.Error(t, err)
}

func TestDispatchDelayClamps(t *testing.T) {
	cfg := Config{}
	cfg.Dispatch.DelayMs = -50
	require.Equal(t, int64(0), cfg.DispatchDelay().Milliseconds())

	cfg.Dispatch.DelayMs = 50000
	require.Equal(t, int64(10000), cfg.DispatchDelay().Milliseconds())
}
