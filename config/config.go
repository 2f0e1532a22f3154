package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Reddit        RedditConfig        `yaml:"reddit"`
	Simplify      SimplifyConfig      `yaml:"simplify"`
	Narration     NarrationConfig     `yaml:"narration"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	Captions      CaptionsConfig      `yaml:"captions"`
	Video         VideoConfig         `yaml:"video"`
	Library       LibraryConfig       `yaml:"library"`
	Paths         PathsConfig         `yaml:"paths"`
}

type RedditConfig struct {
	Subreddits        []string `yaml:"subreddits"`
	PostsPerSubreddit int      `yaml:"posts_per_subreddit"`
	TimeFilter        string   `yaml:"time_filter"`
	MinScore          int      `yaml:"min_score"`
	MinLength         int      `yaml:"min_length"`
	MaxLength         int      `yaml:"max_length"`
	UserAgent         string   `yaml:"user_agent"`
}

type SimplifyConfig struct {
	GroqModel      string  `yaml:"groq_model"`
	Temperature    float64 `yaml:"temperature"`
	MaxTokens      int     `yaml:"max_tokens"`
	PromptTemplate string  `yaml:"prompt_template"`
}

type NarrationConfig struct {
	Voice      string `yaml:"voice"`
	SpeechRate string `yaml:"speech_rate"`
}

type TranscriptionConfig struct {
	WhisperModel     string  `yaml:"whisper_model"`
	Language         string  `yaml:"language"`
	FallbackEstimate bool    `yaml:"fallback_estimate"`
	WordsPerMinute   float64 `yaml:"words_per_minute"`
}

type CaptionsConfig struct {
	MaxWordsPerWindow      int     `yaml:"max_words_per_window"`
	MaxWindowDurationSec   float64 `yaml:"max_window_duration_sec"`
	QuickWordsPerWindow    int     `yaml:"quick_words_per_window"`
	QuickWindowDurationSec float64 `yaml:"quick_window_duration_sec"`
	CrossfadeSec           float64 `yaml:"crossfade_sec"`
	Font                   string  `yaml:"font"`
	FontSize               int     `yaml:"font_size"`
	Color                  string  `yaml:"color"`
	HighlightColor         string  `yaml:"highlight_color"`
	StrokeColor            string  `yaml:"stroke_color"`
	StrokeWidth            float64 `yaml:"stroke_width"`
	MarginBottom           int     `yaml:"margin_bottom"`
}

type VideoConfig struct {
	Width                int     `yaml:"width"`
	Height               int     `yaml:"height"`
	FPS                  int     `yaml:"fps"`
	Codec                string  `yaml:"codec"`
	AudioCodec           string  `yaml:"audio_codec"`
	Bitrate              string  `yaml:"bitrate"`
	DurationToleranceSec float64 `yaml:"duration_tolerance_sec"`
}

type LibraryConfig struct {
	SearchQueries  []string `yaml:"search_queries"`
	MaxResults     int      `yaml:"max_results"`
	MinDurationSec int      `yaml:"min_duration_sec"`
	MaxDurationSec int      `yaml:"max_duration_sec"`
}

type PathsConfig struct {
	Stories     string `yaml:"stories"`
	Audio       string `yaml:"audio"`
	Transcripts string `yaml:"transcripts"`
	Clips       string `yaml:"clips"`
	Output      string `yaml:"output"`
	Cache       string `yaml:"cache"`
}

// Load reads config.yaml and returns a validated Config struct
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

// Default returns the built-in configuration, used when no config.yaml exists
// and as the base for tests.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if len(c.Reddit.Subreddits) == 0 {
		c.Reddit.Subreddits = []string{"tifu", "AmItheAsshole", "relationships", "confession"}
	}
	if c.Reddit.PostsPerSubreddit == 0 {
		c.Reddit.PostsPerSubreddit = 25
	}
	if c.Reddit.TimeFilter == "" {
		c.Reddit.TimeFilter = "week"
	}
	if c.Reddit.MinScore == 0 {
		c.Reddit.MinScore = 100
	}
	if c.Reddit.MinLength == 0 {
		c.Reddit.MinLength = 500
	}
	if c.Reddit.MaxLength == 0 {
		c.Reddit.MaxLength = 5000
	}
	if c.Reddit.UserAgent == "" {
		c.Reddit.UserAgent = "story-shorts-pipeline:v1.0"
	}
	if c.Simplify.GroqModel == "" {
		c.Simplify.GroqModel = "llama-3.1-8b-instant"
	}
	if c.Simplify.Temperature == 0 {
		c.Simplify.Temperature = 0.4
	}
	if c.Simplify.MaxTokens == 0 {
		c.Simplify.MaxTokens = 2048
	}
	if c.Simplify.PromptTemplate == "" {
		c.Simplify.PromptTemplate = "Rewrite the following story in plain spoken English for a voiceover. Keep it first-person, keep every plot point, remove links and formatting. Respond with the rewritten story only.\n\n%s"
	}
	if c.Narration.Voice == "" {
		c.Narration.Voice = "en-US-ChristopherNeural"
	}
	if c.Narration.SpeechRate == "" {
		c.Narration.SpeechRate = "+0%"
	}
	if c.Transcription.WhisperModel == "" {
		c.Transcription.WhisperModel = "base"
	}
	if c.Transcription.Language == "" {
		c.Transcription.Language = "en"
	}
	if c.Transcription.WordsPerMinute == 0 {
		c.Transcription.WordsPerMinute = 150
	}
	if c.Captions.MaxWordsPerWindow == 0 {
		c.Captions.MaxWordsPerWindow = 4
	}
	if c.Captions.MaxWindowDurationSec == 0 {
		c.Captions.MaxWindowDurationSec = 5.0
	}
	if c.Captions.QuickWordsPerWindow == 0 {
		c.Captions.QuickWordsPerWindow = 8
	}
	if c.Captions.QuickWindowDurationSec == 0 {
		c.Captions.QuickWindowDurationSec = 8.0
	}
	if c.Captions.CrossfadeSec == 0 {
		c.Captions.CrossfadeSec = 0.08
	}
	if c.Captions.Font == "" {
		c.Captions.Font = "Arial"
	}
	if c.Captions.FontSize == 0 {
		c.Captions.FontSize = 60
	}
	if c.Captions.Color == "" {
		c.Captions.Color = "white"
	}
	if c.Captions.HighlightColor == "" {
		c.Captions.HighlightColor = "yellow"
	}
	if c.Captions.StrokeColor == "" {
		c.Captions.StrokeColor = "black"
	}
	if c.Captions.StrokeWidth == 0 {
		c.Captions.StrokeWidth = 3
	}
	if c.Captions.MarginBottom == 0 {
		c.Captions.MarginBottom = 80
	}
	if c.Video.Width == 0 {
		c.Video.Width = 1080
	}
	if c.Video.Height == 0 {
		c.Video.Height = 1920
	}
	if c.Video.FPS == 0 {
		c.Video.FPS = 30
	}
	if c.Video.Codec == "" {
		c.Video.Codec = "libx264"
	}
	if c.Video.AudioCodec == "" {
		c.Video.AudioCodec = "aac"
	}
	if c.Video.Bitrate == "" {
		c.Video.Bitrate = "8M"
	}
	if c.Video.DurationToleranceSec == 0 {
		c.Video.DurationToleranceSec = 0.1
	}
	if len(c.Library.SearchQueries) == 0 {
		c.Library.SearchQueries = []string{
			"minecraft parkour gameplay no commentary",
			"minecraft satisfying gameplay no commentary",
			"minecraft building timelapse no music",
		}
	}
	if c.Library.MaxResults == 0 {
		c.Library.MaxResults = 10
	}
	if c.Library.MinDurationSec == 0 {
		c.Library.MinDurationSec = 60
	}
	if c.Library.MaxDurationSec == 0 {
		c.Library.MaxDurationSec = 600
	}
	if c.Paths.Stories == "" {
		c.Paths.Stories = "data/stories"
	}
	if c.Paths.Audio == "" {
		c.Paths.Audio = "data/audio"
	}
	if c.Paths.Transcripts == "" {
		c.Paths.Transcripts = "data/transcripts"
	}
	if c.Paths.Clips == "" {
		c.Paths.Clips = "data/clips"
	}
	if c.Paths.Output == "" {
		c.Paths.Output = "data/output"
	}
	if c.Paths.Cache == "" {
		c.Paths.Cache = "data/cache"
	}
}

var validTimeFilters = map[string]bool{
	"hour": true, "day": true, "week": true, "month": true, "year": true, "all": true,
}

// Validate checks every enumerated option once at startup so stage handlers
// never have to re-check configuration mid-pipeline.
func (c *Config) Validate() error {
	if !validTimeFilters[c.Reddit.TimeFilter] {
		return fmt.Errorf("reddit.time_filter: unknown value %q", c.Reddit.TimeFilter)
	}
	if c.Reddit.MinLength > c.Reddit.MaxLength {
		return fmt.Errorf("reddit.min_length %d exceeds max_length %d", c.Reddit.MinLength, c.Reddit.MaxLength)
	}
	if !strings.HasPrefix(c.Narration.Voice, "en-") {
		return fmt.Errorf("narration.voice: unsupported voice %q", c.Narration.Voice)
	}
	if c.Captions.MaxWordsPerWindow < 1 || c.Captions.QuickWordsPerWindow < 1 {
		return fmt.Errorf("captions: words per window must be at least 1")
	}
	if c.Captions.MaxWindowDurationSec <= 0 || c.Captions.QuickWindowDurationSec <= 0 {
		return fmt.Errorf("captions: window duration must be positive")
	}
	if c.Captions.CrossfadeSec < 0 || c.Captions.CrossfadeSec > c.Captions.MaxWindowDurationSec {
		return fmt.Errorf("captions.crossfade_sec: %.3f out of range", c.Captions.CrossfadeSec)
	}
	if c.Video.Width <= 0 || c.Video.Height <= 0 || c.Video.FPS <= 0 {
		return fmt.Errorf("video: width, height and fps must be positive")
	}
	if c.Video.DurationToleranceSec <= 0 {
		return fmt.Errorf("video.duration_tolerance_sec must be positive")
	}
	return nil
}
