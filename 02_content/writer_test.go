package content

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Jdelg140/psychology-facts-bot/config"
	"github.com/Jdelg140/psychology-facts-bot/types"

	"github.com/openai/openai-go/option"
)

const goodReply = `{
  "title": "5 Psychology Facts That Will Shock You",
  "description": "Daily mind-blowing psychology facts",
  "narration": "Did you know your brain lies to you every day? Here are five facts.",
  "facts": [" Fact one ", "Fact two", "Fact three", "Fact four", "Fact five"]
}`

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"plain", goodReply, false},
		{"json fence", "```json\n" + goodReply + "\n```", false},
		{"bare fence", "```\n" + goodReply + "\n```", false},
		{"not json", "Sure! Here are some facts", true},
		{"four facts", `{"title":"t","description":"d","narration":"n","facts":["a","b","c","d"]}`, true},
		{"missing narration", `{"title":"t","description":"d","facts":["a","b","c","d","e"]}`, true},
		{"blank fact", `{"title":"t","description":"d","narration":"n","facts":["a","b"," ","d","e"]}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Parse(tt.raw, 5)
			if tt.wantErr {
				if !errors.Is(err, types.ErrContentPayloadInvalid) {
					t.Fatalf("got %v, want ErrContentPayloadInvalid", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if p.Facts[0] != "Fact one" {
				t.Fatalf("fact not trimmed: %q", p.Facts[0])
			}
		})
	}
}

func TestRun(t *testing.T) {
	var gotModel, gotAuth, gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		gotAuth = r.Header.Get("Authorization")
		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		gotModel = body.Model
		if len(body.Messages) == 2 {
			gotPrompt = body.Messages[1].Content
		}

		reply, _ := json.Marshal(goodReply)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"c1","object":"chat.completion","created":1,"model":"m","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":`+string(reply)+`}}]}`)
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Content.BaseURL = srv.URL
	w := New(cfg, "test-key", slog.New(slog.NewTextHandler(io.Discard, nil)), option.WithMaxRetries(0))

	p, err := w.Run(context.Background(), "memory tricks")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
	if gotModel != cfg.Content.Model {
		t.Fatalf("model = %q", gotModel)
	}
	if !strings.Contains(gotPrompt, "Topic: memory tricks") {
		t.Fatalf("user prompt = %q", gotPrompt)
	}
	if len(p.Facts) != 5 || p.Title == "" {
		t.Fatalf("payload = %+v", p)
	}
}
