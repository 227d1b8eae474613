package content

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Jdelg140/psychology-facts-bot/config"
	"github.com/Jdelg140/psychology-facts-bot/types"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

const systemPrompt = `You write viral 60-second psychology-facts YouTube Shorts.

You MUST respond with ONLY a valid JSON object, no markdown and no explanation, with this exact structure:

{
  "title": "5 Psychology Facts That Will Shock You",
  "description": "Daily mind-blowing psychology facts...",
  "narration": "The exact script to be spoken out loud",
  "facts": ["Fact 1", "Fact 2", "Fact 3", "Fact 4", "Fact 5"]
}

Rules:
- "narration": strong hook, the surprising real psychology facts with short explanations, 130-160 words total, ending with: Which fact shocked you the most? Comment below and subscribe for more!
- "facts": short and punchy, max 18 words each, in the same order as the narration.
- Facts must be real, well-established findings. No made-up statistics.`

// Writer generates the title, narration and on-screen facts for one short
type Writer struct {
	client    openai.Client
	model     string
	temp      float64
	topP      float64
	factCount int
	logger    *slog.Logger
}

// New creates a Writer that talks to any OpenAI-compatible chat endpoint
func New(cfg *config.Config, apiKey string, logger *slog.Logger, opts ...option.RequestOption) *Writer {
	clientOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithRequestTimeout(cfg.Content.Timeout),
	}
	if strings.TrimSpace(cfg.Content.BaseURL) != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.Content.BaseURL))
	}
	clientOpts = append(clientOpts, opts...)

	return &Writer{
		client:    openai.NewClient(clientOpts...),
		model:     cfg.Content.Model,
		temp:      cfg.Content.Temperature,
		topP:      cfg.Content.TopP,
		factCount: cfg.Content.FactCount,
		logger:    logger.With("stage", "content"),
	}
}

// Run asks the model for a payload about topic and checks its shape
func (w *Writer) Run(ctx context.Context, topic string) (*types.ContentPayload, error) {
	w.logger.Info("generating content", "model", w.model, "topic", topic)

	resp, err := w.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(buildUserPrompt(topic, w.factCount)),
		},
		Model:       w.model,
		Temperature: openai.Float(w.temp),
		TopP:        openai.Float(w.topP),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{Type: "json_object"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("content request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: model returned no choices", types.ErrContentPayloadInvalid)
	}

	payload, err := Parse(resp.Choices[0].Message.Content, w.factCount)
	if err != nil {
		return nil, err
	}
	w.logger.Info("content ready", "title", payload.Title, "narration_words", len(strings.Fields(payload.Narration)))
	return payload, nil
}

// Parse decodes a model reply into a payload, tolerating markdown fences
func Parse(raw string, factCount int) (*types.ContentPayload, error) {
	content := cleanJSON(raw)

	var p types.ContentPayload
	if err := json.Unmarshal([]byte(content), &p); err != nil {
		return nil, fmt.Errorf("%w: %v (raw: %s)", types.ErrContentPayloadInvalid, err, content[:min(200, len(content))])
	}
	p.Title = strings.TrimSpace(p.Title)
	p.Description = strings.TrimSpace(p.Description)
	p.Narration = strings.TrimSpace(p.Narration)
	for i := range p.Facts {
		p.Facts[i] = strings.TrimSpace(p.Facts[i])
	}
	if err := p.Validate(factCount); err != nil {
		return nil, err
	}
	return &p, nil
}

func buildUserPrompt(topic string, factCount int) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Create one psychology-facts Short with exactly %d facts.\n\n", factCount))
	sb.WriteString(fmt.Sprintf("Topic: %s\n\n", topic))
	sb.WriteString("Respond ONLY with valid JSON. No markdown. No explanation.")
	return sb.String()
}

// cleanJSON strips markdown fences if the model wraps its reply in ```json ... ```
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
