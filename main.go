package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Jdelg140/psychology-facts-bot/01_topic"
	"github.com/Jdelg140/psychology-facts-bot/02_content"
	"github.com/Jdelg140/psychology-facts-bot/03_audio"
	"github.com/Jdelg140/psychology-facts-bot/04_footage"
	"github.com/Jdelg140/psychology-facts-bot/06_captions"
	"github.com/Jdelg140/psychology-facts-bot/07_timeline"
	"github.com/Jdelg140/psychology-facts-bot/08_render"
	"github.com/Jdelg140/psychology-facts-bot/09_metadata"
	"github.com/Jdelg140/psychology-facts-bot/10_upload"
	"github.com/Jdelg140/psychology-facts-bot/11_archive"
	"github.com/Jdelg140/psychology-facts-bot/config"
	"github.com/Jdelg140/psychology-facts-bot/media"
	"github.com/Jdelg140/psychology-facts-bot/types"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
)

func main() {
	// .env is for local runs; CI injects secrets directly
	_ = godotenv.Load()

	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelDebug,
		TimeFormat: "15:04:05",
	}))
	slog.SetDefault(logger)

	cfgPath := "config.yaml"
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "path", cfgPath, "err", err)
		os.Exit(1)
	}

	for _, dir := range []string{cfg.Paths.Output, cfg.Paths.Logs} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Error("failed to create dir", "dir", dir, "err", err)
			os.Exit(1)
		}
	}

	runID := uuid.NewString()[:8]
	runDir := filepath.Join(cfg.Paths.Output, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		logger.Error("failed to create run dir", "err", err)
		os.Exit(1)
	}
	logger = logger.With("run", runID)
	logger.Info("psychology shorts pipeline starting", "output", runDir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	state := &types.PipelineState{
		RunID:     runID,
		StartedAt: time.Now().UTC().Format(time.RFC3339),
	}

	err = run(ctx, cfg, runDir, state, logger)
	stop()

	state.CompletedAt = time.Now().UTC().Format(time.RFC3339)
	if err != nil {
		state.Error = err.Error()
	}
	saveState(state, runDir, logger)
	if err != nil {
		logger.Error("pipeline failed", "err", err)
		os.Exit(1)
	}
	logger.Info("pipeline complete", "video", state.VideoFile, "youtube", state.YouTubeURL)
}

func run(ctx context.Context, cfg *config.Config, runDir string, state *types.PipelineState, logger *slog.Logger) error {
	prober := media.FFProbe{}

	// ━━━ STAGE 1: Topic ━━━
	var source topic.Source
	if cfg.Topic.Enabled {
		rs, err := topic.NewRedditSource(os.Getenv("REDDIT_USER_AGENT"))
		if err != nil {
			logger.Warn("reddit unavailable, using default topic", "err", err)
		} else {
			source = rs
		}
	}
	hint := topic.New(cfg, source, logger).Run(ctx)
	state.Topic = hint

	// ━━━ STAGE 2: Content ━━━
	apiKey := os.Getenv("GROQ_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("CONTENT_API_KEY")
	}
	if apiKey == "" {
		return fmt.Errorf("stage 2 content: GROQ_API_KEY or CONTENT_API_KEY not set")
	}
	payload, err := content.New(cfg, apiKey, logger).Run(ctx, hint.Title)
	if err != nil {
		return fmt.Errorf("stage 2 content: %w", err)
	}
	state.Content = payload
	saveJSON(filepath.Join(runDir, "content.json"), payload, logger)

	// ━━━ STAGE 3: Audio ━━━
	narration, err := audio.New(cfg, os.Getenv("TTS_COMMAND"), prober, logger).Run(ctx, payload.Narration, runDir)
	if err != nil {
		return fmt.Errorf("stage 3 audio: %w", err)
	}
	state.AudioFile = narration.Path

	// ━━━ STAGE 4-7: Footage, framing, captions, timeline ━━━
	pexelsKey := os.Getenv("PEXELS_API_KEY")
	if pexelsKey == "" {
		logger.Warn("PEXELS_API_KEY not set, catalog searches will fail and fall back")
	}
	resolver := footage.NewResolver(cfg, footage.NewPexelsCatalog(cfg, pexelsKey), prober, logger)
	engine := timeline.NewEngine(cfg, resolver, state.RunID, runDir, logger)
	tl, err := engine.Produce(ctx, narration.DurationSec, *payload, *narration)
	if err != nil {
		return fmt.Errorf("stage 4-7 timeline: %w", err)
	}
	timelineFile := filepath.Join(runDir, "timeline.json")
	saveJSON(timelineFile, tl, logger)
	state.TimelineRef = timelineFile

	srtFile := filepath.Join(runDir, "captions.srt")
	if err := captions.WriteSRT(tl.Captions, srtFile); err != nil {
		logger.Warn("could not write caption sidecar", "err", err)
	} else if err := captions.ValidateSRT(srtFile); err != nil {
		logger.Warn("caption sidecar invalid", "err", err)
	}

	// ━━━ STAGE 8: Render ━━━
	finalVideo, err := render.New(cfg, logger).Run(ctx, tl, runDir)
	if err != nil {
		return fmt.Errorf("stage 8 render: %w", err)
	}
	state.VideoFile = finalVideo

	// ━━━ STAGE 9: Metadata ━━━
	mb := metadata.New(cfg, logger)
	meta := mb.Build(payload, time.Now())
	if err := mb.Save(meta, runDir); err != nil {
		return fmt.Errorf("stage 9 metadata: %w", err)
	}
	state.Metadata = meta

	// ━━━ STAGE 10: Upload ━━━
	if cfg.Upload.Enabled {
		videoID, videoURL, err := upload.New(cfg, upload.CredentialsFromEnv(), logger).Run(ctx, finalVideo, meta)
		if err != nil {
			return fmt.Errorf("stage 10 upload: %w", err)
		}
		state.YouTubeID = videoID
		state.YouTubeURL = videoURL
		if _, err := upload.LogUpload(videoID, videoURL, finalVideo, cfg.Paths.Logs, meta, time.Now()); err != nil {
			logger.Warn("could not save upload log", "err", err)
		}
	} else {
		logger.Info("upload disabled, video kept locally", "file", finalVideo)
	}

	// ━━━ STAGE 11: Archive ━━━
	if cfg.Archive.Bucket != "" {
		store, err := archive.NewS3Store(ctx, cfg.Archive)
		if err != nil {
			return fmt.Errorf("stage 11 archive: %w", err)
		}
		files := []string{finalVideo, timelineFile, filepath.Join(runDir, "metadata.json"), filepath.Join(runDir, "metadata.txt")}
		keys, err := archive.New(cfg, store, logger).Run(ctx, state.RunID, files)
		state.ArchiveKeys = keys
		if err != nil {
			return fmt.Errorf("stage 11 archive: %w", err)
		}
	}
	return nil
}

func saveState(state *types.PipelineState, dir string, logger *slog.Logger) {
	saveJSON(filepath.Join(dir, "pipeline_state.json"), state, logger)
}

func saveJSON(path string, v interface{}, logger *slog.Logger) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		logger.Warn("could not marshal JSON", "path", path, "err", err)
		return
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		logger.Warn("could not save file", "path", path, "err", err)
	}
}
