package metadata

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Jdelg140/psychology-facts-bot/config"
	"github.com/Jdelg140/psychology-facts-bot/types"
)

// maxTags is the most tags we send with an upload
const maxTags = 30

// Builder derives upload metadata from the generated content
type Builder struct {
	titleMax   int
	hashtags   []string
	tags       []string
	categoryID string
	visibility string
	schedule   bool
	logger     *slog.Logger
}

// New creates a Builder from the metadata and upload settings in cfg
func New(cfg *config.Config, logger *slog.Logger) *Builder {
	return &Builder{
		titleMax:   cfg.Metadata.TitleMaxChars,
		hashtags:   cfg.Metadata.Hashtags,
		tags:       cfg.Metadata.Tags,
		categoryID: cfg.Metadata.YouTubeCategoryID,
		visibility: cfg.Upload.Visibility,
		schedule:   cfg.Upload.Schedule,
		logger:     logger.With("stage", "metadata"),
	}
}

// Build assembles title, description and tags for payload. now anchors the
// publish schedule when one is configured.
func (b *Builder) Build(payload *types.ContentPayload, now time.Time) *types.VideoMetadata {
	meta := &types.VideoMetadata{
		Title:       truncateTitle(payload.Title, b.titleMax),
		Description: b.description(payload.Description),
		Tags:        b.tagList(),
		CategoryID:  b.categoryID,
		Visibility:  b.visibility,
	}
	if b.schedule {
		meta.ScheduledTimeUTC = nextUploadTime(now)
	}
	b.logger.Info("metadata ready", "title", meta.Title, "tags", len(meta.Tags), "scheduled", meta.ScheduledTimeUTC)
	return meta
}

// Save writes metadata.json and the plain-text metadata.txt into dir
func (b *Builder) Save(meta *types.VideoMetadata, dir string) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "metadata.json"), data, 0644); err != nil {
		return fmt.Errorf("write metadata.json: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Title: %s\n", meta.Title))
	sb.WriteString(fmt.Sprintf("Description: %s\n", meta.Description))
	sb.WriteString(strings.Join(b.hashtags, " "))
	if err := os.WriteFile(filepath.Join(dir, "metadata.txt"), []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("write metadata.txt: %w", err)
	}
	return nil
}

// description appends whichever configured hashtags the model left out
func (b *Builder) description(desc string) string {
	desc = strings.TrimSpace(desc)
	lower := strings.ToLower(desc)
	var missing []string
	for _, h := range b.hashtags {
		if !strings.Contains(lower, strings.ToLower(h)) {
			missing = append(missing, h)
		}
	}
	if len(missing) == 0 {
		return desc
	}
	return desc + "\n\n" + strings.Join(missing, " ")
}

// tagList merges configured tags with the hashtags, deduplicated
func (b *Builder) tagList() []string {
	seen := make(map[string]bool)
	var tags []string
	add := func(t string) {
		t = strings.TrimSpace(strings.TrimPrefix(t, "#"))
		if t == "" || seen[strings.ToLower(t)] || len(tags) >= maxTags {
			return
		}
		seen[strings.ToLower(t)] = true
		tags = append(tags, t)
	}
	for _, t := range b.tags {
		add(t)
	}
	for _, h := range b.hashtags {
		add(h)
	}
	return tags
}

func truncateTitle(title string, max int) string {
	title = strings.TrimSpace(title)
	if max <= 3 || utf8.RuneCountInString(title) <= max {
		return title
	}
	runes := []rune(title)
	return strings.TrimSpace(string(runes[:max-3])) + "..."
}

// nextUploadTime returns the next Tuesday or Friday at 2PM New York time, in UTC
func nextUploadTime(now time.Time) string {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		loc = time.FixedZone("EST", -5*60*60)
	}
	local := now.In(loc)

	for i := 1; i <= 7; i++ {
		candidate := local.AddDate(0, 0, i)
		wd := candidate.Weekday()
		if wd == time.Tuesday || wd == time.Friday {
			upload := time.Date(candidate.Year(), candidate.Month(), candidate.Day(), 14, 0, 0, 0, loc)
			return upload.UTC().Format(time.RFC3339)
		}
	}
	return now.UTC().Add(48 * time.Hour).Format(time.RFC3339)
}
