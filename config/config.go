package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Canvas   CanvasConfig   `yaml:"canvas"`
	Captions CaptionsConfig `yaml:"captions"`
	Footage  FootageConfig  `yaml:"footage"`
	Timeline TimelineConfig `yaml:"timeline"`
	Topic    TopicConfig    `yaml:"topic"`
	Content  ContentConfig  `yaml:"content"`
	Audio    AudioConfig    `yaml:"audio"`
	Render   RenderConfig   `yaml:"render"`
	Metadata MetadataConfig `yaml:"metadata"`
	Upload   UploadConfig   `yaml:"upload"`
	Archive  ArchiveConfig  `yaml:"archive"`
	Paths    PathsConfig    `yaml:"paths"`
}

// CanvasConfig is the fixed output frame
type CanvasConfig struct {
	Width    int    `yaml:"width"`
	Height   int    `yaml:"height"`
	PadColor string `yaml:"pad_color"`
}

type CaptionsConfig struct {
	TitleWindowSec float64 `yaml:"title_window_sec"`
	CrossfadeSec   float64 `yaml:"crossfade_sec"`
	SideMarginPx   int     `yaml:"side_margin_px"`
	Font           string  `yaml:"font"`
	TitleFontSize  int     `yaml:"title_font_size"`
	FactFontSize   int     `yaml:"fact_font_size"`
	Color          string  `yaml:"color"`
	StrokeColor    string  `yaml:"stroke_color"`
	StrokeWidth    int     `yaml:"stroke_width"`
	UppercaseFacts bool    `yaml:"uppercase_facts"`
}

// Selection policies for picking among acceptable footage candidates
const (
	SelectFirst  = "first"
	SelectRandom = "random"
)

type FootageConfig struct {
	Queries           []string      `yaml:"queries"`
	FallbackURI       string        `yaml:"fallback_uri"`
	MinWidth          int           `yaml:"min_width"`
	AcceptedQualities []string      `yaml:"accepted_qualities"`
	PerQueryTimeout   time.Duration `yaml:"per_query_timeout"`
	DownloadTimeout   time.Duration `yaml:"download_timeout"`
	SelectionPolicy   string        `yaml:"selection_policy"`
	PerPage           int           `yaml:"per_page"`
	Orientation       string        `yaml:"orientation"`
	CatalogBaseURL    string        `yaml:"catalog_base_url"`
}

type TimelineConfig struct {
	LoopMarginSec float64 `yaml:"loop_margin_sec"`
}

type TopicConfig struct {
	Enabled    bool     `yaml:"enabled"`
	Subreddits []string `yaml:"subreddits"`
	MinScore   int      `yaml:"min_score"`
	Default    string   `yaml:"default"`
}

type ContentConfig struct {
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	Temperature float64       `yaml:"temperature"`
	TopP        float64       `yaml:"top_p"`
	FactCount   int           `yaml:"fact_count"`
	Timeout     time.Duration `yaml:"timeout"`
}

type AudioConfig struct {
	Voice        string `yaml:"voice"`
	OutputFormat string `yaml:"output_format"`
	MaxAttempts  int    `yaml:"max_attempts"`
}

type RenderConfig struct {
	FPS          int    `yaml:"fps"`
	VideoCodec   string `yaml:"video_codec"`
	AudioCodec   string `yaml:"audio_codec"`
	AudioBitrate string `yaml:"audio_bitrate"`
	Preset       string `yaml:"preset"`
	Threads      int    `yaml:"threads"`
}

type MetadataConfig struct {
	TitleMaxChars     int      `yaml:"title_max_chars"`
	Hashtags          []string `yaml:"hashtags"`
	Tags              []string `yaml:"tags"`
	YouTubeCategoryID string   `yaml:"youtube_category_id"`
}

type UploadConfig struct {
	Enabled           bool   `yaml:"enabled"`
	Visibility        string `yaml:"visibility"`
	Schedule          bool   `yaml:"schedule"` // publish on the next Tuesday or Friday, 2PM New York time
	NotifySubscribers bool   `yaml:"notify_subscribers"`
	MadeForKids       bool   `yaml:"made_for_kids"`
	DefaultLanguage   string `yaml:"default_language"`
}

type ArchiveConfig struct {
	Bucket       string `yaml:"bucket"`
	Prefix       string `yaml:"prefix"`
	Region       string `yaml:"region"`
	Profile      string `yaml:"profile"`
	UsePathStyle bool   `yaml:"use_path_style"`
}

type PathsConfig struct {
	Output        string `yaml:"output"`
	UsedTopicsLog string `yaml:"used_topics_log"`
	Logs          string `yaml:"logs"`
}

// Load reads config.yaml, fills defaults and validates the result
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML bytes into a validated Config
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration the original short was produced with
func Default() *Config {
	cfg := &Config{
		Footage: FootageConfig{
			Queries: []string{
				"calm abstract background",
				"zen particles",
				"slow ocean waves",
				"relaxing nature timelapse",
			},
			FallbackURI:       "https://player.vimeo.com/external/403466766.hd.mp4?s=20d6f9c5d6696a22c9d867bc7a880d0e7d91e38a&profile_id=175",
			AcceptedQualities: []string{"standard", "high"},
		},
		Topic: TopicConfig{
			Default: "extremely surprising but real psychology facts that make people say wow",
		},
		Metadata: MetadataConfig{
			Hashtags: []string{"#psychology", "#facts", "#mindblown", "#shorts", "#psychologyfacts"},
		},
		Upload: UploadConfig{Visibility: "private"},
	}
	cfg.Captions.UppercaseFacts = true
	// zero is meaningful for these, so they are only set here and never
	// refilled after the YAML is decoded
	cfg.Captions.CrossfadeSec = 0.6
	cfg.Timeline.LoopMarginSec = 10
	cfg.Content.Temperature = 1.1
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Canvas.Width <= 0 {
		c.Canvas.Width = 1080
	}
	if c.Canvas.Height <= 0 {
		c.Canvas.Height = 1920
	}
	if c.Canvas.PadColor == "" {
		c.Canvas.PadColor = "black"
	}
	if c.Captions.TitleWindowSec <= 0 {
		c.Captions.TitleWindowSec = 5
	}
	if c.Captions.SideMarginPx <= 0 {
		c.Captions.SideMarginPx = 80
	}
	if c.Captions.Font == "" {
		c.Captions.Font = "Arial-Bold"
	}
	if c.Captions.TitleFontSize <= 0 {
		c.Captions.TitleFontSize = 90
	}
	if c.Captions.FactFontSize <= 0 {
		c.Captions.FactFontSize = 68
	}
	if c.Captions.Color == "" {
		c.Captions.Color = "white"
	}
	if c.Captions.StrokeColor == "" {
		c.Captions.StrokeColor = "black"
	}
	if c.Captions.StrokeWidth <= 0 {
		c.Captions.StrokeWidth = 5
	}
	if c.Footage.MinWidth <= 0 {
		c.Footage.MinWidth = 720
	}
	if c.Footage.PerQueryTimeout <= 0 {
		c.Footage.PerQueryTimeout = 15 * time.Second
	}
	if c.Footage.DownloadTimeout <= 0 {
		c.Footage.DownloadTimeout = 2 * time.Minute
	}
	if c.Footage.SelectionPolicy == "" {
		c.Footage.SelectionPolicy = SelectFirst
	}
	if c.Footage.PerPage <= 0 {
		c.Footage.PerPage = 30
	}
	if c.Footage.Orientation == "" {
		c.Footage.Orientation = "portrait"
	}
	if c.Footage.CatalogBaseURL == "" {
		c.Footage.CatalogBaseURL = "https://api.pexels.com"
	}
	if c.Content.BaseURL == "" {
		c.Content.BaseURL = "https://api.groq.com/openai/v1"
	}
	if c.Content.Model == "" {
		c.Content.Model = "llama-3.3-70b-versatile"
	}
	if c.Content.TopP <= 0 {
		c.Content.TopP = 0.95
	}
	if c.Content.FactCount <= 0 {
		c.Content.FactCount = 5
	}
	if c.Content.Timeout <= 0 {
		c.Content.Timeout = 60 * time.Second
	}
	if c.Audio.Voice == "" {
		c.Audio.Voice = "en-US-GuyNeural"
	}
	if c.Audio.OutputFormat == "" {
		c.Audio.OutputFormat = "mp3"
	}
	if c.Audio.MaxAttempts <= 0 {
		c.Audio.MaxAttempts = 3
	}
	if c.Render.FPS <= 0 {
		c.Render.FPS = 30
	}
	if c.Render.VideoCodec == "" {
		c.Render.VideoCodec = "libx264"
	}
	if c.Render.AudioCodec == "" {
		c.Render.AudioCodec = "aac"
	}
	if c.Render.AudioBitrate == "" {
		c.Render.AudioBitrate = "192k"
	}
	if c.Render.Preset == "" {
		c.Render.Preset = "ultrafast"
	}
	if c.Render.Threads <= 0 {
		c.Render.Threads = 8
	}
	if c.Metadata.TitleMaxChars <= 0 {
		c.Metadata.TitleMaxChars = 100
	}
	if c.Metadata.YouTubeCategoryID == "" {
		c.Metadata.YouTubeCategoryID = "27"
	}
	if c.Upload.DefaultLanguage == "" {
		c.Upload.DefaultLanguage = "en"
	}
	if c.Archive.Prefix == "" {
		c.Archive.Prefix = "shorts"
	}
	if c.Paths.Output == "" {
		c.Paths.Output = "output"
	}
	if c.Paths.UsedTopicsLog == "" {
		c.Paths.UsedTopicsLog = "logs/used_topics.json"
	}
	if c.Paths.Logs == "" {
		c.Paths.Logs = "logs"
	}
}

// Validate rejects configurations the engine cannot honour
func (c *Config) Validate() error {
	if len(c.Footage.Queries) == 0 {
		return fmt.Errorf("footage.queries must not be empty")
	}
	if c.Footage.FallbackURI == "" {
		return fmt.Errorf("footage.fallback_uri must be set")
	}
	switch c.Footage.SelectionPolicy {
	case SelectFirst, SelectRandom:
	default:
		return fmt.Errorf("footage.selection_policy %q: want %q or %q", c.Footage.SelectionPolicy, SelectFirst, SelectRandom)
	}
	if c.Captions.CrossfadeSec < 0 {
		return fmt.Errorf("captions.crossfade_sec %v must not be negative", c.Captions.CrossfadeSec)
	}
	if c.Timeline.LoopMarginSec < 0 {
		return fmt.Errorf("timeline.loop_margin_sec %v must not be negative", c.Timeline.LoopMarginSec)
	}
	if c.Content.Temperature < 0 {
		return fmt.Errorf("content.temperature %v must not be negative", c.Content.Temperature)
	}
	if 2*c.Captions.SideMarginPx >= c.Canvas.Width {
		return fmt.Errorf("captions.side_margin_px %d leaves no safe area on a %dpx canvas", c.Captions.SideMarginPx, c.Canvas.Width)
	}
	return nil
}
