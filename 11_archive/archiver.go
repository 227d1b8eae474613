package archive

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/Jdelg140/psychology-facts-bot/config"
)

// ObjectStore is the slice of an object store the archiver needs
type ObjectStore interface {
	Put(ctx context.Context, bucket, key string, body io.Reader, contentType string) error
}

// Archiver copies a run's artifacts into object storage
type Archiver struct {
	store  ObjectStore
	bucket string
	prefix string
	logger *slog.Logger
}

// New creates an Archiver writing under prefix in the configured bucket
func New(cfg *config.Config, store ObjectStore, logger *slog.Logger) *Archiver {
	return &Archiver{
		store:  store,
		bucket: cfg.Archive.Bucket,
		prefix: strings.Trim(cfg.Archive.Prefix, "/"),
		logger: logger.With("stage", "archive"),
	}
}

// Run uploads files to <prefix>/<runID>/<name> and returns the keys written.
// It stops at the first failure.
func (a *Archiver) Run(ctx context.Context, runID string, files []string) ([]string, error) {
	var keys []string
	for _, f := range files {
		key := path.Join(a.prefix, runID, filepath.Base(f))
		if err := a.put(ctx, f, key); err != nil {
			return keys, fmt.Errorf("archive %s: %w", filepath.Base(f), err)
		}
		a.logger.Info("archived", "bucket", a.bucket, "key", key)
		keys = append(keys, key)
	}
	return keys, nil
}

func (a *Archiver) put(ctx context.Context, file, key string) error {
	fh, err := os.Open(file)
	if err != nil {
		return err
	}
	defer fh.Close()
	return a.store.Put(ctx, a.bucket, key, fh, contentType(file))
}

func contentType(file string) string {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".mp4":
		return "video/mp4"
	case ".mp3":
		return "audio/mpeg"
	case ".json":
		return "application/json"
	case ".txt", ".srt":
		return "text/plain; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}
