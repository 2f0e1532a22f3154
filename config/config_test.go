package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 4, cfg.Captions.MaxWordsPerWindow)
	assert.Equal(t, 5.0, cfg.Captions.MaxWindowDurationSec)
	assert.Equal(t, 1080, cfg.Video.Width)
	assert.Equal(t, 1920, cfg.Video.Height)
	assert.Equal(t, 0.1, cfg.Video.DurationToleranceSec)
	assert.Equal(t, 150.0, cfg.Transcription.WordsPerMinute)
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
reddit:
  subreddits: [nosleep]
  time_filter: month
captions:
  max_words_per_window: 5
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"nosleep"}, cfg.Reddit.Subreddits)
	assert.Equal(t, "month", cfg.Reddit.TimeFilter)
	assert.Equal(t, 5, cfg.Captions.MaxWordsPerWindow)
	// Unset fields pick up defaults.
	assert.Equal(t, 5.0, cfg.Captions.MaxWindowDurationSec)
	assert.Equal(t, "libx264", cfg.Video.Codec)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad time filter", func(c *Config) { c.Reddit.TimeFilter = "decade" }},
		{"min over max length", func(c *Config) { c.Reddit.MinLength = 9000 }},
		{"non-english voice", func(c *Config) { c.Narration.Voice = "fr-FR-HenriNeural" }},
		{"zero words per window", func(c *Config) { c.Captions.MaxWordsPerWindow = -1 }},
		{"negative window duration", func(c *Config) { c.Captions.MaxWindowDurationSec = -2 }},
		{"crossfade beyond window", func(c *Config) { c.Captions.CrossfadeSec = 10 }},
		{"zero fps", func(c *Config) { c.Video.FPS = -30 }},
		{"zero tolerance", func(c *Config) { c.Video.DurationToleranceSec = -0.1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
