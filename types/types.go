package types

import (
	"errors"
	"fmt"
	"strings"
)

// Fatal run errors. Every stage wraps one of these so callers can use errors.Is.
var (
	ErrFootageUnavailable       = errors.New("footage unavailable")
	ErrInvalidScheduleConfig    = errors.New("invalid schedule config")
	ErrTimelineDurationMismatch = errors.New("timeline duration mismatch")
	ErrContentPayloadInvalid    = errors.New("content payload invalid")
	ErrInvalidGeometry          = errors.New("invalid geometry")
)

// QualityTag is the catalog's coarse quality label for a footage file
type QualityTag string

const (
	QualityLow      QualityTag = "low"
	QualityStandard QualityTag = "standard"
	QualityHigh     QualityTag = "high"
)

// SearchQuery is one free-text term sent to the footage catalog
type SearchQuery string

// MediaAsset is the background footage resolved for one run
type MediaAsset struct {
	SourceURI   string     `json:"source_uri"`
	LocalPath   string     `json:"local_path"`
	Width       int        `json:"width"`
	Height      int        `json:"height"`
	Quality     QualityTag `json:"quality"`
	DurationSec float64    `json:"duration_sec"`
	Fallback    bool       `json:"fallback"`
}

// GeometryMode is how a source frame is fitted into the canvas
type GeometryMode string

const (
	GeometryCrop  GeometryMode = "crop"
	GeometryPad   GeometryMode = "pad"
	GeometryScale GeometryMode = "scale"
)

// Rect is an integer pixel rectangle
type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// PadMargins are the side bars added to a narrow source before scaling
type PadMargins struct {
	Left  int    `json:"left"`
	Right int    `json:"right"`
	Color string `json:"color"`
}

// GeometryPlan maps a source frame onto the target canvas
type GeometryPlan struct {
	Mode         GeometryMode `json:"mode"`
	SourceWidth  int          `json:"source_width"`
	SourceHeight int          `json:"source_height"`
	TargetWidth  int          `json:"target_width"`
	TargetHeight int          `json:"target_height"`
	Crop         *Rect        `json:"crop,omitempty"`
	Pad          *PadMargins  `json:"pad,omitempty"`
}

// CaptionKind distinguishes the title window from fact windows
type CaptionKind string

const (
	CaptionTitle CaptionKind = "title"
	CaptionFact  CaptionKind = "fact"
)

// CaptionWindow is one timed text overlay
type CaptionWindow struct {
	Kind        CaptionKind `json:"kind"`
	Text        string      `json:"text"`
	Lines       []string    `json:"lines,omitempty"`
	StartSec    float64     `json:"start_sec"`
	DurationSec float64     `json:"duration_sec"`
	FadeInSec   float64     `json:"fade_in_sec"`
	FadeOutSec  float64     `json:"fade_out_sec"`
}

// EndSec is the exclusive end of the window
func (w CaptionWindow) EndSec() float64 {
	return w.StartSec + w.DurationSec
}

// AudioHandle points at the synthesized narration
type AudioHandle struct {
	Path        string  `json:"path"`
	DurationSec float64 `json:"duration_sec"`
}

// BackgroundTrack is the looped, trimmed and framed footage
type BackgroundTrack struct {
	Asset        MediaAsset   `json:"asset"`
	Plan         GeometryPlan `json:"plan"`
	LoopCount    int          `json:"loop_count"` // whole plays of the source
	LoopedSec    float64      `json:"looped_sec"`
	TrimStartSec float64      `json:"trim_start_sec"`
	TrimEndSec   float64      `json:"trim_end_sec"`
}

// Timeline is everything the renderer needs for one short
type Timeline struct {
	RunID            string          `json:"run_id"`
	TotalDurationSec float64         `json:"total_duration_sec"`
	Background       BackgroundTrack `json:"background"`
	Audio            AudioHandle     `json:"audio"`
	Captions         []CaptionWindow `json:"captions"`
	SafeArea         Rect            `json:"safe_area"`
}

// ContentPayload is the structured text returned by the generative-text service
type ContentPayload struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Narration   string   `json:"narration"`
	Facts       []string `json:"facts"`
}

// Topic is an optional subject hint for content generation
type Topic struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Source    string `json:"source"`
	SourceURL string `json:"source_url"`
	Score     int    `json:"score"`
}

// VideoMetadata holds all YouTube upload metadata
type VideoMetadata struct {
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Tags             []string `json:"tags"`
	CategoryID       string   `json:"category_id"`
	Visibility       string   `json:"visibility"`
	ScheduledTimeUTC string   `json:"scheduled_time_utc"`
}

// PipelineState tracks the full state of one pipeline run
type PipelineState struct {
	RunID       string          `json:"run_id"`
	StartedAt   string          `json:"started_at"`
	CompletedAt string          `json:"completed_at"`
	Topic       *Topic          `json:"topic,omitempty"`
	Content     *ContentPayload `json:"content"`
	AudioFile   string          `json:"audio_file"`
	TimelineRef string          `json:"timeline_file"`
	VideoFile   string          `json:"video_file"`
	Metadata    *VideoMetadata  `json:"metadata"`
	YouTubeURL  string          `json:"youtube_url"`
	YouTubeID   string          `json:"youtube_id"`
	ArchiveKeys []string        `json:"archive_keys,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// Validate checks the payload shape the generative-text service promises
func (p ContentPayload) Validate(factCount int) error {
	switch {
	case strings.TrimSpace(p.Title) == "":
		return fmt.Errorf("%w: missing title", ErrContentPayloadInvalid)
	case strings.TrimSpace(p.Description) == "":
		return fmt.Errorf("%w: missing description", ErrContentPayloadInvalid)
	case strings.TrimSpace(p.Narration) == "":
		return fmt.Errorf("%w: missing narration", ErrContentPayloadInvalid)
	case len(p.Facts) != factCount:
		return fmt.Errorf("%w: got %d facts, want %d", ErrContentPayloadInvalid, len(p.Facts), factCount)
	}
	for i, f := range p.Facts {
		if strings.TrimSpace(f) == "" {
			return fmt.Errorf("%w: fact %d is empty", ErrContentPayloadInvalid, i+1)
		}
	}
	return nil
}
