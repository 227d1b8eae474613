package timeline

import (
	"errors"
	"testing"

	"github.com/Jdelg140/psychology-facts-bot/05_geometry"
	"github.com/Jdelg140/psychology-facts-bot/06_captions"
	"github.com/Jdelg140/psychology-facts-bot/config"
	"github.com/Jdelg140/psychology-facts-bot/types"
)

var sampleFacts = []string{
	"Your brain treats social rejection like physical pain",
	"People remember unfinished tasks better than finished ones",
	"Chewing gum can reduce anxiety",
	"We are more honest in the morning",
	"Smiling can trick your brain into feeling happier",
}

func mustPlan(t *testing.T, w, h int) types.GeometryPlan {
	t.Helper()
	plan, err := geometry.PlanGeometry(w, h, 1080, 1920)
	if err != nil {
		t.Fatalf("PlanGeometry(%d, %d): %v", w, h, err)
	}
	return plan
}

func mustSchedule(t *testing.T, total float64) []types.CaptionWindow {
	t.Helper()
	w, err := captions.Schedule("Mind Blowing Facts", sampleFacts, total, 5, 0.6)
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	return w
}

func TestComposeLoopsShortSource(t *testing.T) {
	c := NewCompositor(config.Default())
	asset := types.MediaAsset{SourceURI: "https://cdn/a.mp4", Width: 1920, Height: 1080, DurationSec: 20}

	tl, err := c.Compose("run-1", asset, mustPlan(t, 1920, 1080), mustSchedule(t, 65), 65, types.AudioHandle{Path: "narration.mp3", DurationSec: 65})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	bg := tl.Background
	if bg.LoopCount != 4 || bg.LoopedSec != 80 {
		t.Fatalf("loops = %d (%vs), want 4 (80s)", bg.LoopCount, bg.LoopedSec)
	}
	if bg.TrimStartSec != 0 || bg.TrimEndSec != 65.0 || tl.TotalDurationSec != 65.0 {
		t.Fatalf("trim = [%v, %v], total %v", bg.TrimStartSec, bg.TrimEndSec, tl.TotalDurationSec)
	}
	if bg.Plan.Mode != types.GeometryCrop {
		t.Fatalf("mode = %s, want crop", bg.Plan.Mode)
	}
	if tl.Audio.Path != "narration.mp3" {
		t.Fatalf("audio not attached: %+v", tl.Audio)
	}
	if tl.SafeArea != (types.Rect{X: 80, Y: 0, W: 920, H: 1920}) {
		t.Fatalf("safe area = %+v", tl.SafeArea)
	}
}

func TestComposeSortsAndWrapsCaptions(t *testing.T) {
	c := NewCompositor(config.Default())
	windows := mustSchedule(t, 42.7)
	// reversed input must come out in start order
	reversed := make([]types.CaptionWindow, len(windows))
	for i, w := range windows {
		reversed[len(windows)-1-i] = w
	}
	asset := types.MediaAsset{Width: 1080, Height: 1920, DurationSec: 30}

	tl, err := c.Compose("run-2", asset, mustPlan(t, 1080, 1920), reversed, 42.7, types.AudioHandle{})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if reversed[0].Kind != types.CaptionFact {
		t.Fatal("input slice was reordered in place")
	}
	for i := 1; i < len(tl.Captions); i++ {
		if tl.Captions[i].StartSec < tl.Captions[i-1].StartSec {
			t.Fatalf("captions out of order at %d", i)
		}
	}
	if tl.Captions[0].Kind != types.CaptionTitle {
		t.Fatalf("first caption is %s", tl.Captions[0].Kind)
	}

	limit := captions.MaxCharsPerLine(tl.SafeArea.W, config.Default().Captions.FactFontSize)
	for _, w := range tl.Captions {
		if len(w.Lines) == 0 {
			t.Fatalf("caption %q not wrapped", w.Text)
		}
		if w.Kind != types.CaptionFact {
			continue
		}
		for _, line := range w.Lines {
			if len([]rune(line)) > limit {
				t.Fatalf("line %q exceeds %d chars", line, limit)
			}
		}
	}
}

func TestComposeMismatch(t *testing.T) {
	c := NewCompositor(config.Default())
	good := mustSchedule(t, 65)
	plan := mustPlan(t, 1080, 1920)

	tests := []struct {
		name    string
		asset   types.MediaAsset
		plan    types.GeometryPlan
		windows []types.CaptionWindow
		total   float64
		want    error
	}{
		{"unknown source duration", types.MediaAsset{Width: 1080, Height: 1920}, plan, good, 65, types.ErrTimelineDurationMismatch},
		{"captions end early", types.MediaAsset{Width: 1080, Height: 1920, DurationSec: 20}, plan, good, 70, types.ErrTimelineDurationMismatch},
		{"captions overrun", types.MediaAsset{Width: 1080, Height: 1920, DurationSec: 20}, plan, good, 60, types.ErrTimelineDurationMismatch},
		{"zero total", types.MediaAsset{Width: 1080, Height: 1920, DurationSec: 20}, plan, good, 0, types.ErrTimelineDurationMismatch},
		{"no captions", types.MediaAsset{Width: 1080, Height: 1920, DurationSec: 20}, plan, nil, 65, types.ErrTimelineDurationMismatch},
		{"wrong canvas", types.MediaAsset{Width: 1080, Height: 1920, DurationSec: 20}, types.GeometryPlan{
			Mode: types.GeometryScale, SourceWidth: 720, SourceHeight: 1280, TargetWidth: 720, TargetHeight: 1280,
		}, good, 65, types.ErrInvalidGeometry},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Compose("run", tt.asset, tt.plan, tt.windows, tt.total, types.AudioHandle{})
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLoopCount(t *testing.T) {
	tests := []struct {
		src, total, margin float64
		want               int
	}{
		{20, 65, 10, 4},
		{75, 65, 10, 1},
		{74.9, 65, 10, 2},
		{0.1, 0.3, 0, 3},
		{30, 65, 0, 3},
		{100, 5, -1, 1},
	}
	for _, tt := range tests {
		got, err := LoopCount(tt.src, tt.total, tt.margin)
		if err != nil {
			t.Fatalf("LoopCount(%v, %v, %v): %v", tt.src, tt.total, tt.margin, err)
		}
		if got != tt.want {
			t.Errorf("LoopCount(%v, %v, %v) = %d, want %d", tt.src, tt.total, tt.margin, got, tt.want)
		}
		if float64(got)*tt.src < tt.total {
			t.Errorf("LoopCount(%v, %v, %v) does not cover total", tt.src, tt.total, tt.margin)
		}
	}
}
