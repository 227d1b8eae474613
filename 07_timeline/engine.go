package timeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Jdelg140/psychology-facts-bot/05_geometry"
	"github.com/Jdelg140/psychology-facts-bot/06_captions"
	"github.com/Jdelg140/psychology-facts-bot/config"
	"github.com/Jdelg140/psychology-facts-bot/types"

	"golang.org/x/sync/errgroup"
)

// FootageResolver finds and downloads the background clip for a run
type FootageResolver interface {
	Resolve(ctx context.Context, queries []types.SearchQuery, fallbackURI, dir string) (*types.MediaAsset, error)
}

// Engine turns a narration duration and a content payload into a Timeline
type Engine struct {
	runID       string
	runDir      string
	queries     []types.SearchQuery
	fallbackURI string
	factCount   int

	resolver   FootageResolver
	normalizer *geometry.Normalizer
	scheduler  *captions.Scheduler
	compositor *Compositor
	logger     *slog.Logger
}

// NewEngine wires the timeline components for a single run. Footage lands in runDir.
func NewEngine(cfg *config.Config, resolver FootageResolver, runID, runDir string, logger *slog.Logger) *Engine {
	queries := make([]types.SearchQuery, len(cfg.Footage.Queries))
	for i, q := range cfg.Footage.Queries {
		queries[i] = types.SearchQuery(q)
	}
	return &Engine{
		runID:       runID,
		runDir:      runDir,
		queries:     queries,
		fallbackURI: cfg.Footage.FallbackURI,
		factCount:   cfg.Content.FactCount,
		resolver:    resolver,
		normalizer:  geometry.New(cfg),
		scheduler:   captions.New(cfg),
		compositor:  NewCompositor(cfg),
		logger:      logger.With("stage", "timeline"),
	}
}

// Produce builds the Timeline for one short. The narration duration drives
// every other length. Footage resolution and caption scheduling share nothing
// and run side by side; the first failure cancels the other.
func (e *Engine) Produce(ctx context.Context, narrationSec float64, payload types.ContentPayload, audio types.AudioHandle) (*types.Timeline, error) {
	if err := payload.Validate(e.factCount); err != nil {
		return nil, err
	}

	// written by one goroutine each, read only after g.Wait()
	var (
		asset   *types.MediaAsset
		plan    types.GeometryPlan
		windows []types.CaptionWindow
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a, err := e.resolver.Resolve(gctx, e.queries, e.fallbackURI, e.runDir)
		if err != nil {
			return err
		}
		p, err := e.normalizer.Plan(a.Width, a.Height)
		if err != nil {
			return fmt.Errorf("frame %s: %w", a.LocalPath, err)
		}
		e.logger.Info("footage ready", "uri", a.SourceURI, "fallback", a.Fallback,
			"size", fmt.Sprintf("%dx%d", a.Width, a.Height), "duration", a.DurationSec, "mode", p.Mode)
		asset, plan = a, p
		return nil
	})

	g.Go(func() error {
		w, err := e.scheduler.Schedule(payload.Title, payload.Facts, narrationSec)
		if err != nil {
			return err
		}
		e.logger.Info("captions scheduled", "windows", len(w), "total", narrationSec)
		windows = w
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	tl, err := e.compositor.Compose(e.runID, *asset, plan, windows, narrationSec, audio)
	if err != nil {
		return nil, err
	}
	e.logger.Info("timeline composed", "loops", tl.Background.LoopCount, "looped", tl.Background.LoopedSec, "total", tl.TotalDurationSec)
	return tl, nil
}
