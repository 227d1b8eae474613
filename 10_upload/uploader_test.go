package upload

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/Jdelg140/psychology-facts-bot/config"
	"github.com/Jdelg140/psychology-facts-bot/types"
)

func testUploader(creds Credentials) *Uploader {
	return New(config.Default(), creds, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestBuildVideo(t *testing.T) {
	u := testUploader(Credentials{})
	tests := []struct {
		name        string
		meta        types.VideoMetadata
		wantPrivacy string
		wantPublish string
	}{
		{"private", types.VideoMetadata{Visibility: "private", ScheduledTimeUTC: "2026-10-16T18:00:00Z"}, "private", ""},
		{"public now", types.VideoMetadata{Visibility: "public"}, "public", ""},
		{"public scheduled", types.VideoMetadata{Visibility: "public", ScheduledTimeUTC: "2026-10-16T18:00:00Z"}, "private", "2026-10-16T18:00:00Z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.meta.Title = "Title"
			v := u.buildVideo(&tt.meta)
			if v.Status.PrivacyStatus != tt.wantPrivacy || v.Status.PublishAt != tt.wantPublish {
				t.Fatalf("status = %+v", v.Status)
			}
			if v.Snippet.Title != "Title" || v.Snippet.DefaultLanguage != "en" {
				t.Fatalf("snippet = %+v", v.Snippet)
			}
		})
	}
}

func TestRunWithoutCredentials(t *testing.T) {
	u := testUploader(Credentials{ClientID: "id"})
	if _, _, err := u.Run(context.Background(), "missing.mp4", &types.VideoMetadata{}); err == nil {
		t.Fatal("expected auth error")
	}
}

func TestLogUpload(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 10, 19, 12, 30, 0, 0, time.UTC)
	path, err := LogUpload("abc", "https://www.youtube.com/shorts/abc", "final.mp4", dir, &types.VideoMetadata{Title: "T"}, now)
	if err != nil {
		t.Fatalf("LogUpload: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var entry map[string]string
	if err := json.Unmarshal(data, &entry); err != nil {
		t.Fatal(err)
	}
	if entry["video_id"] != "abc" || entry["uploaded_at"] != "2026-10-19T12:30:00Z" {
		t.Fatalf("entry = %v", entry)
	}
}
