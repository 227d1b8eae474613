package footage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"time"

	"github.com/Jdelg140/psychology-facts-bot/config"
	"github.com/Jdelg140/psychology-facts-bot/media"
	"github.com/Jdelg140/psychology-facts-bot/types"
)

// backgroundFile is the single asset a run downloads
const backgroundFile = "background.mp4"

// Resolver acquires one usable background clip per run
type Resolver struct {
	catalog         Catalog
	prober          media.Prober
	httpClient      *http.Client
	minWidth        int
	accepted        map[types.QualityTag]bool
	policy          string
	perQueryTimeout time.Duration
	downloadTimeout time.Duration
	rng             *rand.Rand
	logger          *slog.Logger
}

// NewResolver creates a Resolver over catalog using the footage settings in cfg
func NewResolver(cfg *config.Config, catalog Catalog, prober media.Prober, logger *slog.Logger) *Resolver {
	return &Resolver{
		catalog:         catalog,
		prober:          prober,
		httpClient:      &http.Client{},
		minWidth:        cfg.Footage.MinWidth,
		accepted:        acceptedSet(cfg.Footage.AcceptedQualities),
		policy:          cfg.Footage.SelectionPolicy,
		perQueryTimeout: cfg.Footage.PerQueryTimeout,
		downloadTimeout: cfg.Footage.DownloadTimeout,
		rng:             rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:          logger.With("stage", "footage"),
	}
}

// Resolve walks queries in order and downloads the first acceptable clip
// into dir. A failing query is logged and skipped; only when every query
// comes up empty is fallbackURI used. Failing to fetch the fallback is the
// one fatal outcome and wraps types.ErrFootageUnavailable.
func (r *Resolver) Resolve(ctx context.Context, queries []types.SearchQuery, fallbackURI, dir string) (*types.MediaAsset, error) {
	for i, q := range queries {
		cand, ok, err := r.searchOne(ctx, q)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			r.logger.Warn("catalog query failed", "query", q, "index", i, "err", err)
			continue
		}
		if !ok {
			r.logger.Info("no acceptable footage", "query", q, "index", i)
			continue
		}

		r.logger.Info("picked footage", "query", q, "width", cand.Width, "height", cand.Height, "quality", cand.Quality)
		asset, err := r.fetch(ctx, cand, dir, false)
		if err == nil {
			return asset, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.logger.Warn("footage download failed, using fallback", "uri", truncate(cand.URI, 80), "err", err)
		break
	}

	r.logger.Info("using fallback footage", "uri", truncate(fallbackURI, 80))
	asset, err := r.fetch(ctx, Candidate{URI: fallbackURI}, dir, true)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: fallback %s: %v", types.ErrFootageUnavailable, truncate(fallbackURI, 80), err)
	}
	return asset, nil
}

// searchOne issues exactly one catalog request bounded by the per-query timeout
func (r *Resolver) searchOne(ctx context.Context, q types.SearchQuery) (Candidate, bool, error) {
	qctx, cancel := context.WithTimeout(ctx, r.perQueryTimeout)
	defer cancel()

	cands, err := r.catalog.Search(qctx, q)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return Candidate{}, false, fmt.Errorf("timed out after %s: %w", r.perQueryTimeout, err)
		}
		return Candidate{}, false, err
	}

	ok := filterCandidates(cands, r.minWidth, r.accepted)
	if len(ok) == 0 {
		return Candidate{}, false, nil
	}
	return pick(ok, r.policy, r.rng), true, nil
}

// fetch downloads the candidate and fills in whatever the catalog did not report
func (r *Resolver) fetch(ctx context.Context, cand Candidate, dir string, fallback bool) (*types.MediaAsset, error) {
	path, err := r.download(ctx, cand.URI, dir, backgroundFile)
	if err != nil {
		return nil, err
	}

	asset := &types.MediaAsset{
		SourceURI:   cand.URI,
		LocalPath:   path,
		Width:       cand.Width,
		Height:      cand.Height,
		Quality:     cand.Quality,
		DurationSec: cand.DurationSec,
		Fallback:    fallback,
	}
	if asset.Quality == "" {
		asset.Quality = types.QualityStandard
	}

	info, err := r.prober.Probe(ctx, path)
	if err != nil {
		if asset.Width <= 0 || asset.Height <= 0 {
			return nil, fmt.Errorf("probe %s: %w", path, err)
		}
		r.logger.Warn("probe failed, trusting catalog metadata", "path", path, "err", err)
		return asset, nil
	}
	if info.Width > 0 && info.Height > 0 {
		asset.Width, asset.Height = info.Width, info.Height
	}
	if info.DurationSec > 0 {
		asset.DurationSec = info.DurationSec
	}
	return asset, nil
}
