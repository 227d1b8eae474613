package topic

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Jdelg140/psychology-facts-bot/config"
	"github.com/Jdelg140/psychology-facts-bot/types"

	"github.com/google/uuid"
)

// hookKeywords boost a topic's score when present
var hookKeywords = []string{
	"brain", "memory", "study", "research", "bias", "habit",
	"sleep", "anxiety", "dream", "emotion", "personality", "behavior",
	"fear", "love", "happiness", "social", "mind", "effect",
}

// Source lists candidate topics from one community
type Source interface {
	Hot(ctx context.Context, community string) ([]types.Topic, error)
}

// Picker chooses a topic hint for the content prompt
type Picker struct {
	source       Source
	enabled      bool
	communities  []string
	minScore     int
	defaultTopic string
	usedPath     string
	used         map[string]bool
	logger       *slog.Logger
}

// New creates a Picker. source may be nil when topic seeding is disabled.
func New(cfg *config.Config, source Source, logger *slog.Logger) *Picker {
	return &Picker{
		source:       source,
		enabled:      cfg.Topic.Enabled && source != nil,
		communities:  cfg.Topic.Subreddits,
		minScore:     cfg.Topic.MinScore,
		defaultTopic: cfg.Topic.Default,
		usedPath:     cfg.Paths.UsedTopicsLog,
		used:         loadUsedTopics(cfg.Paths.UsedTopicsLog),
		logger:       logger.With("stage", "topic"),
	}
}

// Run returns the best unused topic, or the configured default. It never fails:
// a missing topic only makes the prompt less specific.
func (p *Picker) Run(ctx context.Context) *types.Topic {
	if !p.enabled {
		return p.fallback()
	}

	var candidates []types.Topic
	for _, c := range p.communities {
		topics, err := p.source.Hot(ctx, c)
		if err != nil {
			p.logger.Warn("topic source failed", "community", c, "err", err)
			continue
		}
		for _, t := range topics {
			if t.Score >= p.minScore && strings.TrimSpace(t.Title) != "" {
				candidates = append(candidates, t)
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return rank(candidates[i]) > rank(candidates[j])
	})

	for i := range candidates {
		t := candidates[i]
		if p.used[t.ID] {
			continue
		}
		p.logger.Info("selected topic", "title", t.Title, "score", t.Score, "source", t.Source)
		if err := p.markUsed(t.ID); err != nil {
			p.logger.Warn("could not record used topic", "err", err)
		}
		return &t
	}

	p.logger.Info("no fresh topic found, using default")
	return p.fallback()
}

func (p *Picker) fallback() *types.Topic {
	return &types.Topic{
		ID:     "default_" + uuid.NewString(),
		Title:  p.defaultTopic,
		Source: "default",
	}
}

// rank is the post score plus a bonus per hook keyword in the title
func rank(t types.Topic) int {
	title := strings.ToLower(t.Title)
	bonus := 0
	for _, kw := range hookKeywords {
		if strings.Contains(title, kw) {
			bonus += 100
		}
	}
	return t.Score + bonus
}

// --- Used topics dedup log ---
func loadUsedTopics(path string) map[string]bool {
	used := make(map[string]bool)
	data, err := os.ReadFile(path)
	if err != nil {
		return used
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return used
	}
	for _, id := range ids {
		used[id] = true
	}
	return used
}

func (p *Picker) markUsed(id string) error {
	p.used[id] = true
	ids := make([]string, 0, len(p.used))
	for id := range p.used {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	data, err := json.MarshalIndent(ids, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p.usedPath), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(p.usedPath, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", p.usedPath, err)
	}
	return nil
}
