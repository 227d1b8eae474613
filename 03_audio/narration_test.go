package audio

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/Jdelg140/psychology-facts-bot/config"
	"github.com/Jdelg140/psychology-facts-bot/media"
)

type fixedProber struct {
	info media.Info
	err  error
}

func (p fixedProber) Probe(ctx context.Context, path string) (media.Info, error) {
	return p.info, p.err
}

func newTestGenerator(ttsCmd string, prober media.Prober) *Generator {
	g := New(config.Default(), ttsCmd, prober, slog.New(slog.NewTextHandler(io.Discard, nil)))
	g.backoff = 0
	return g
}

func TestRunRetriesThenSucceeds(t *testing.T) {
	g := newTestGenerator("/usr/local/bin/say-it", fixedProber{info: media.Info{DurationSec: 61.4, HasAudio: true}})
	attempts := 0
	var gotName string
	var gotArgs []string
	g.run = func(ctx context.Context, name string, args ...string) error {
		attempts++
		gotName, gotArgs = name, args
		if attempts < 3 {
			return errors.New("exit status 1")
		}
		return os.WriteFile(args[len(args)-1], []byte("mp3"), 0644)
	}

	h, err := g.Run(context.Background(), "Your brain is lying to you.", t.TempDir())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("attempts = %d", attempts)
	}
	if gotName != "/usr/local/bin/say-it" || gotArgs[0] != "--text" || gotArgs[2] != "--output" {
		t.Fatalf("command = %s %v", gotName, gotArgs)
	}
	if h.DurationSec != 61.4 || h.Path != gotArgs[3] {
		t.Fatalf("handle = %+v", h)
	}
}

func TestRunGivesUp(t *testing.T) {
	g := newTestGenerator("tts", fixedProber{info: media.Info{DurationSec: 10}})
	attempts := 0
	g.run = func(ctx context.Context, name string, args ...string) error {
		attempts++
		return errors.New("boom")
	}
	if _, err := g.Run(context.Background(), "hello", t.TempDir()); err == nil {
		t.Fatal("expected error")
	}
	if attempts != g.maxAttempts {
		t.Fatalf("attempts = %d, want %d", attempts, g.maxAttempts)
	}
}

func TestRunRejectsUnmeasurableAudio(t *testing.T) {
	g := newTestGenerator("tts", fixedProber{info: media.Info{}})
	g.run = func(ctx context.Context, name string, args ...string) error { return nil }
	if _, err := g.Run(context.Background(), "hello", t.TempDir()); err == nil {
		t.Fatal("expected error for zero duration")
	}
}

func TestCommandSelection(t *testing.T) {
	tests := []struct {
		ttsCmd   string
		wantName string
		wantArg0 string
	}{
		{"edge-tts", "edge-tts", "--voice"},
		{"scripts/tts.py", "python3", "scripts/tts.py"},
		{"piper-wrap", "piper-wrap", "--text"},
	}
	for _, tt := range tests {
		t.Run(tt.ttsCmd, func(t *testing.T) {
			g := newTestGenerator(tt.ttsCmd, fixedProber{})
			name, args, err := g.command("hi", "out.mp3")
			if err != nil {
				t.Fatalf("command: %v", err)
			}
			if name != tt.wantName || args[0] != tt.wantArg0 {
				t.Fatalf("got %s %v", name, args)
			}
		})
	}
}
