package timeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/Jdelg140/psychology-facts-bot/config"
	"github.com/Jdelg140/psychology-facts-bot/types"
)

type stubResolver struct {
	asset *types.MediaAsset
	err   error
	calls atomic.Int32
	dir   string
}

func (s *stubResolver) Resolve(ctx context.Context, queries []types.SearchQuery, fallbackURI, dir string) (*types.MediaAsset, error) {
	s.calls.Add(1)
	s.dir = dir
	if s.err != nil {
		return nil, s.err
	}
	return s.asset, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func samplePayload() types.ContentPayload {
	return types.ContentPayload{
		Title:       "5 Psychology Facts That Will Blow Your Mind",
		Description: "Facts about the human mind.",
		Narration:   "Here are five facts about your brain.",
		Facts:       append([]string(nil), sampleFacts...),
	}
}

func TestProduce(t *testing.T) {
	res := &stubResolver{asset: &types.MediaAsset{
		SourceURI: "https://cdn/a.mp4", LocalPath: "/tmp/run/background.mp4",
		Width: 1280, Height: 720, Quality: types.QualityHigh, DurationSec: 20,
	}}
	e := NewEngine(config.Default(), res, "run-1", "/tmp/run", quietLogger())

	tl, err := e.Produce(context.Background(), 65, samplePayload(), types.AudioHandle{Path: "narration.mp3", DurationSec: 65})
	if err != nil {
		t.Fatalf("Produce: %v", err)
	}
	if tl.TotalDurationSec != 65 {
		t.Fatalf("total = %v", tl.TotalDurationSec)
	}
	if len(tl.Captions) != 6 {
		t.Fatalf("captions = %d, want 6", len(tl.Captions))
	}
	if tl.Captions[1].Text != "YOUR BRAIN TREATS SOCIAL REJECTION LIKE PHYSICAL PAIN" {
		t.Fatalf("fact text = %q", tl.Captions[1].Text)
	}
	if tl.Background.Plan.Mode != types.GeometryCrop || tl.Background.LoopCount != 4 {
		t.Fatalf("background = %+v", tl.Background)
	}
	if res.dir != "/tmp/run" {
		t.Fatalf("footage dir = %q", res.dir)
	}
}

func TestProduceInvalidPayload(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*types.ContentPayload)
	}{
		{"four facts", func(p *types.ContentPayload) { p.Facts = p.Facts[:4] }},
		{"six facts", func(p *types.ContentPayload) { p.Facts = append(p.Facts, "extra") }},
		{"blank fact", func(p *types.ContentPayload) { p.Facts[2] = "  " }},
		{"no title", func(p *types.ContentPayload) { p.Title = "" }},
		{"no narration", func(p *types.ContentPayload) { p.Narration = "" }},
		{"no description", func(p *types.ContentPayload) { p.Description = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := &stubResolver{asset: &types.MediaAsset{Width: 1080, Height: 1920, DurationSec: 20}}
			e := NewEngine(config.Default(), res, "run", t.TempDir(), quietLogger())
			p := samplePayload()
			tt.mutate(&p)

			_, err := e.Produce(context.Background(), 65, p, types.AudioHandle{})
			if !errors.Is(err, types.ErrContentPayloadInvalid) {
				t.Fatalf("got %v, want ErrContentPayloadInvalid", err)
			}
			if res.calls.Load() != 0 {
				t.Fatal("footage resolved for an invalid payload")
			}
		})
	}
}

func TestProducePropagatesErrors(t *testing.T) {
	t.Run("footage unavailable", func(t *testing.T) {
		res := &stubResolver{err: types.ErrFootageUnavailable}
		e := NewEngine(config.Default(), res, "run", t.TempDir(), quietLogger())
		_, err := e.Produce(context.Background(), 65, samplePayload(), types.AudioHandle{})
		if !errors.Is(err, types.ErrFootageUnavailable) {
			t.Fatalf("got %v", err)
		}
	})

	t.Run("narration shorter than title", func(t *testing.T) {
		res := &stubResolver{asset: &types.MediaAsset{Width: 1080, Height: 1920, DurationSec: 20}}
		e := NewEngine(config.Default(), res, "run", t.TempDir(), quietLogger())
		_, err := e.Produce(context.Background(), 4, samplePayload(), types.AudioHandle{})
		if !errors.Is(err, types.ErrInvalidScheduleConfig) {
			t.Fatalf("got %v", err)
		}
	})

	t.Run("source without dimensions", func(t *testing.T) {
		res := &stubResolver{asset: &types.MediaAsset{DurationSec: 20}}
		e := NewEngine(config.Default(), res, "run", t.TempDir(), quietLogger())
		_, err := e.Produce(context.Background(), 65, samplePayload(), types.AudioHandle{})
		if !errors.Is(err, types.ErrInvalidGeometry) {
			t.Fatalf("got %v", err)
		}
	})
}
