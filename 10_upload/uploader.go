package upload

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Jdelg140/psychology-facts-bot/config"
	"github.com/Jdelg140/psychology-facts-bot/types"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// Credentials are the OAuth values for the channel owner
type Credentials struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// CredentialsFromEnv reads YOUTUBE_CLIENT_ID, YOUTUBE_CLIENT_SECRET and YOUTUBE_REFRESH_TOKEN
func CredentialsFromEnv() Credentials {
	return Credentials{
		ClientID:     os.Getenv("YOUTUBE_CLIENT_ID"),
		ClientSecret: os.Getenv("YOUTUBE_CLIENT_SECRET"),
		RefreshToken: os.Getenv("YOUTUBE_REFRESH_TOKEN"),
	}
}

// Uploader publishes the finished short via the YouTube Data API v3
type Uploader struct {
	upload config.UploadConfig
	creds  Credentials
	logger *slog.Logger
}

// New creates an Uploader
func New(cfg *config.Config, creds Credentials, logger *slog.Logger) *Uploader {
	return &Uploader{upload: cfg.Upload, creds: creds, logger: logger.With("stage", "upload")}
}

// Run uploads videoFile and returns the video ID and watch URL
func (u *Uploader) Run(ctx context.Context, videoFile string, meta *types.VideoMetadata) (string, string, error) {
	u.logger.Info("authenticating with YouTube API")

	ts, err := u.tokenSource(ctx)
	if err != nil {
		return "", "", fmt.Errorf("youtube auth: %w", err)
	}
	svc, err := youtube.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return "", "", fmt.Errorf("youtube service: %w", err)
	}

	f, err := os.Open(videoFile)
	if err != nil {
		return "", "", fmt.Errorf("open video file: %w", err)
	}
	defer f.Close()

	if fi, err := f.Stat(); err == nil {
		u.logger.Info("uploading", "title", meta.Title, "size_mb", float64(fi.Size())/1024/1024)
	}

	video := u.buildVideo(meta)
	if video.Status.PublishAt != "" {
		u.logger.Info("scheduled", "publish_at", video.Status.PublishAt)
	}

	call := svc.Videos.Insert([]string{"snippet", "status"}, video).
		NotifySubscribers(u.upload.NotifySubscribers).
		Media(f).
		Context(ctx)
	uploaded, err := call.Do()
	if err != nil {
		return "", "", fmt.Errorf("youtube upload: %w", err)
	}

	videoURL := fmt.Sprintf("https://www.youtube.com/shorts/%s", uploaded.Id)
	u.logger.Info("uploaded", "id", uploaded.Id, "url", videoURL)
	return uploaded.Id, videoURL, nil
}

func (u *Uploader) buildVideo(meta *types.VideoMetadata) *youtube.Video {
	snippet := &youtube.VideoSnippet{
		Title:                meta.Title,
		Description:          meta.Description,
		Tags:                 meta.Tags,
		CategoryId:           meta.CategoryID,
		DefaultLanguage:      u.upload.DefaultLanguage,
		DefaultAudioLanguage: u.upload.DefaultLanguage,
	}

	status := &youtube.VideoStatus{
		PrivacyStatus:           meta.Visibility,
		SelfDeclaredMadeForKids: u.upload.MadeForKids,
		ForceSendFields:         []string{"SelfDeclaredMadeForKids"},
	}

	// a publish time only takes effect on a private video
	if meta.ScheduledTimeUTC != "" && meta.Visibility == "public" {
		status.PrivacyStatus = "private"
		status.PublishAt = meta.ScheduledTimeUTC
	}

	return &youtube.Video{Snippet: snippet, Status: status}
}

func (u *Uploader) tokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	c := u.creds
	if c.ClientID == "" || c.ClientSecret == "" || c.RefreshToken == "" {
		return nil, fmt.Errorf("YOUTUBE_CLIENT_ID, YOUTUBE_CLIENT_SECRET, or YOUTUBE_REFRESH_TOKEN not set")
	}

	conf := &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{youtube.YoutubeUploadScope, youtube.YoutubeScope},
	}
	token := &oauth2.Token{
		RefreshToken: c.RefreshToken,
		Expiry:       time.Now().Add(-time.Hour), // force refresh
	}
	return conf.TokenSource(ctx, token), nil
}

// LogUpload saves the upload result next to the run's other artifacts
func LogUpload(videoID, videoURL, videoFile, dir string, meta *types.VideoMetadata, now time.Time) (string, error) {
	entry := map[string]interface{}{
		"video_id":      videoID,
		"video_url":     videoURL,
		"title":         meta.Title,
		"scheduled_utc": meta.ScheduledTimeUTC,
		"uploaded_at":   now.UTC().Format(time.RFC3339),
		"video_file":    videoFile,
	}

	logFile := filepath.Join(dir, fmt.Sprintf("upload_%s.json", now.Format("20060102_150405")))
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(logFile, data, 0644); err != nil {
		return "", err
	}
	return logFile, nil
}
