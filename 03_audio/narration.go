package audio

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/Jdelg140/psychology-facts-bot/config"
	"github.com/Jdelg140/psychology-facts-bot/media"
	"github.com/Jdelg140/psychology-facts-bot/types"
)

// runFunc executes one TTS command
type runFunc func(ctx context.Context, name string, args ...string) error

// Generator turns narration text into a voice track
type Generator struct {
	ttsCmd      string
	voice       string
	format      string
	maxAttempts int
	backoff     time.Duration
	prober      media.Prober
	run         runFunc
	logger      *slog.Logger
}

// New creates a Generator. ttsCmd is the TTS_COMMAND override; empty means edge-tts.
func New(cfg *config.Config, ttsCmd string, prober media.Prober, logger *slog.Logger) *Generator {
	return &Generator{
		ttsCmd:      strings.TrimSpace(ttsCmd),
		voice:       cfg.Audio.Voice,
		format:      cfg.Audio.OutputFormat,
		maxAttempts: cfg.Audio.MaxAttempts,
		backoff:     2 * time.Second,
		prober:      prober,
		run:         execRun,
		logger:      logger.With("stage", "audio"),
	}
}

// Run synthesises narration into dir and measures the result. The measured
// duration drives the whole timeline, so a file that cannot be probed is an error.
func (g *Generator) Run(ctx context.Context, narration, dir string) (*types.AudioHandle, error) {
	if strings.TrimSpace(narration) == "" {
		return nil, fmt.Errorf("%w: empty narration", types.ErrContentPayloadInvalid)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create audio dir: %w", err)
	}

	outFile := filepath.Join(dir, "narration."+g.format)
	name, args, err := g.command(narration, outFile)
	if err != nil {
		return nil, err
	}

	g.logger.Info("synthesising narration", "engine", name, "words", len(strings.Fields(narration)))
	if err := g.withRetry(ctx, func() error { return g.run(ctx, name, args...) }); err != nil {
		return nil, fmt.Errorf("tts failed: %w", err)
	}

	info, err := g.prober.Probe(ctx, outFile)
	if err != nil {
		return nil, fmt.Errorf("measure narration: %w", err)
	}
	if info.DurationSec <= 0 {
		return nil, fmt.Errorf("narration %s has no measurable duration", outFile)
	}

	g.logger.Info("narration ready", "file", outFile, "duration", info.DurationSec)
	return &types.AudioHandle{Path: outFile, DurationSec: info.DurationSec}, nil
}

// command picks the TTS invocation: TTS_COMMAND if set, otherwise edge-tts
func (g *Generator) command(text, outFile string) (string, []string, error) {
	switch {
	case g.ttsCmd == "" || g.ttsCmd == "edge-tts":
		if g.ttsCmd == "" {
			if _, err := exec.LookPath("edge-tts"); err != nil {
				return "", nil, fmt.Errorf("no TTS engine found. Set TTS_COMMAND in .env or install edge-tts: pip install edge-tts")
			}
		}
		return "edge-tts", []string{"--voice", g.voice, "--text", text, "--write-media", outFile}, nil
	case strings.HasSuffix(g.ttsCmd, ".py"):
		return "python3", []string{g.ttsCmd, "--text", text, "--output", outFile}, nil
	default:
		return g.ttsCmd, []string{"--text", text, "--output", outFile}, nil
	}
}

func (g *Generator) withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == g.maxAttempts {
			break
		}
		g.logger.Warn("TTS attempt failed, retrying", "attempt", attempt, "err", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * g.backoff):
		}
	}
	return err
}

func execRun(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
