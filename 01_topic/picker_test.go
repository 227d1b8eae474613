package topic

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Jdelg140/psychology-facts-bot/config"
	"github.com/Jdelg140/psychology-facts-bot/types"
)

type fakeSource struct {
	topics map[string][]types.Topic
	errs   map[string]error
}

func (f fakeSource) Hot(ctx context.Context, community string) ([]types.Topic, error) {
	if err := f.errs[community]; err != nil {
		return nil, err
	}
	return f.topics[community], nil
}

func testPicker(t *testing.T, src Source) (*Picker, string) {
	t.Helper()
	cfg := config.Default()
	cfg.Topic.Enabled = true
	cfg.Topic.Subreddits = []string{"psychology", "Psychologyfacts"}
	cfg.Topic.MinScore = 100
	cfg.Paths.UsedTopicsLog = filepath.Join(t.TempDir(), "logs", "used_topics.json")
	return New(cfg, src, slog.New(slog.NewTextHandler(io.Discard, nil))), cfg.Paths.UsedTopicsLog
}

func TestPickerRanksAndDedups(t *testing.T) {
	src := fakeSource{
		errs: map[string]error{"Psychologyfacts": errors.New("HTTP 503")},
		topics: map[string][]types.Topic{
			"psychology": {
				{ID: "reddit_a", Title: "Cat pictures", Score: 450},
				{ID: "reddit_b", Title: "Study: sleep changes memory", Score: 300},
				{ID: "reddit_c", Title: "Low score brain post", Score: 20},
			},
		},
	}
	p, logPath := testPicker(t, src)

	first := p.Run(context.Background())
	if first.ID != "reddit_b" {
		t.Fatalf("first pick = %s, want keyword-boosted reddit_b", first.ID)
	}
	second := p.Run(context.Background())
	if second.ID != "reddit_a" {
		t.Fatalf("second pick = %s, want reddit_a", second.ID)
	}
	third := p.Run(context.Background())
	if third.Source != "default" || !strings.HasPrefix(third.ID, "default_") {
		t.Fatalf("expected default topic once candidates are used, got %+v", third)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("used log: %v", err)
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		t.Fatalf("parse used log: %v", err)
	}
	if len(ids) != 2 || ids[0] != "reddit_a" || ids[1] != "reddit_b" {
		t.Fatalf("used log = %v", ids)
	}

	// a fresh picker reads the log back
	again, _ := testPicker(t, src)
	again.usedPath = logPath
	again.used = loadUsedTopics(logPath)
	if got := again.Run(context.Background()); got.Source != "default" {
		t.Fatalf("used topics were not persisted, got %+v", got)
	}
}

func TestPickerDisabled(t *testing.T) {
	cfg := config.Default()
	p := New(cfg, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	got := p.Run(context.Background())
	if got.Title != cfg.Topic.Default || got.Source != "default" {
		t.Fatalf("got %+v", got)
	}
}
