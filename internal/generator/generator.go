package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"ai-podcaster/internal/models"
	"ai-podcaster/internal/pipeline"
)

const (
	defaultAPIURL  = "https://api.openai.com/v1/chat/completions"
	defaultModel   = "gpt-4o-mini"
	defaultTimeout = 60 * time.Second

	// One retry with a fixed backoff, and only on timeouts. Refusals
	// and empty output are never retried.
	retryBackoff = 2 * time.Second
)

// Client generates episode scripts through the OpenAI chat completions
// API.
type Client struct {
	apiKey     string
	apiURL     string
	model      string
	timeout    time.Duration
	httpClient *http.Client
}

// New returns a generator client. apiURL and timeout fall back to the
// production endpoint and a 60s bound when zero.
func New(apiKey, apiURL string, timeout time.Duration) *Client {
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		apiKey:     apiKey,
		apiURL:     apiURL,
		model:      defaultModel,
		timeout:    timeout,
		httpClient: &http.Client{},
	}
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		FinishReason string `json:"finish_reason"`
		Message      struct {
			Content string `json:"content"`
			Refusal string `json:"refusal"`
		} `json:"message"`
	} `json:"choices"`
}

// scriptPayload is the JSON contract the prompts instruct the model to
// follow.
type scriptPayload struct {
	Title    string `json:"title"`
	Summary  string `json:"summary"`
	Segments []struct {
		Speaker       string `json:"speaker"`
		Text          string `json:"text"`
		PauseAfterSec int    `json:"pause_after_sec"`
	} `json:"segments"`
}

// Generate produces a script for the request. Single-speaker intents
// always come back with exactly one speaker tag, dialogue with at least
// two distinct ones.
func (c *Client) Generate(ctx context.Context, intent models.Intent, message, language string) (*models.Script, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, pipeline.Failf(pipeline.ErrGenerationEmpty, "empty message")
	}
	if !models.SupportedLanguages[language] {
		return nil, pipeline.Failf(pipeline.ErrUnsupportedLanguage, "unsupported language %q", language)
	}

	content, err := c.complete(ctx, systemPrompt(intent, language), message)
	if err != nil && pipeline.KindOf(err) == pipeline.ErrGenerationTimeout {
		log.Printf("generator: %s call timed out, retrying once", intent)
		select {
		case <-time.After(retryBackoff):
		case <-ctx.Done():
			return nil, pipeline.Wrap(pipeline.ErrGenerationTimeout, ctx.Err())
		}
		content, err = c.complete(ctx, systemPrompt(intent, language), message)
	}
	if err != nil {
		return nil, err
	}

	script, err := parseScript(content)
	if err != nil {
		return nil, err
	}
	return shapeScript(script, intent)
}

// complete runs a single bounded chat completion call.
func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature:    0.7,
		MaxTokens:      2000,
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return "", pipeline.Wrap(pipeline.ErrGenerationTimeout, err)
		}
		return "", pipeline.Failf(pipeline.ErrGenerationEmpty, "chat completion call failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", pipeline.Failf(pipeline.ErrGenerationEmpty, "failed to read chat response: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusBadRequest && strings.Contains(string(respBody), "content_policy") {
			return "", pipeline.Failf(pipeline.ErrGenerationRefused, "content policy rejection: %s", respBody)
		}
		return "", pipeline.Failf(pipeline.ErrGenerationEmpty, "chat completion returned status %d: %s", resp.StatusCode, respBody)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", pipeline.Failf(pipeline.ErrGenerationEmpty, "failed to unmarshal chat response: %v", err)
	}
	if len(parsed.Choices) == 0 {
		return "", pipeline.Failf(pipeline.ErrGenerationEmpty, "chat completion returned no choices")
	}
	choice := parsed.Choices[0]
	if choice.Message.Refusal != "" || choice.FinishReason == "content_filter" {
		return "", pipeline.Failf(pipeline.ErrGenerationRefused, "model refused: %s", choice.Message.Refusal)
	}
	if strings.TrimSpace(choice.Message.Content) == "" {
		return "", pipeline.Failf(pipeline.ErrGenerationEmpty, "chat completion returned empty content")
	}
	return choice.Message.Content, nil
}

func parseScript(content string) (*models.Script, error) {
	// Models occasionally fence the JSON despite the response format.
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var payload scriptPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, pipeline.Failf(pipeline.ErrGenerationEmpty, "model returned invalid script JSON: %v", err)
	}

	script := &models.Script{
		Title:   strings.TrimSpace(payload.Title),
		Summary: strings.TrimSpace(payload.Summary),
	}
	for _, seg := range payload.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		speaker := strings.TrimSpace(seg.Speaker)
		if speaker == "" {
			speaker = "host"
		}
		script.Segments = append(script.Segments, models.Segment{
			Speaker:       speaker,
			Text:          text,
			PauseAfterSec: seg.PauseAfterSec,
		})
	}
	if len(script.Segments) == 0 {
		return nil, pipeline.Failf(pipeline.ErrGenerationEmpty, "model returned no usable segments")
	}
	if script.Title == "" {
		script.Title = "Generated episode"
	}
	return script, nil
}

// shapeScript enforces the per-intent speaker invariant: dialogue needs
// at least two distinct speakers, everything else exactly one.
func shapeScript(script *models.Script, intent models.Intent) (*models.Script, error) {
	if intent == models.IntentDialogue {
		if len(script.Speakers()) < 2 {
			return nil, pipeline.Failf(pipeline.ErrGenerationEmpty, "dialogue script came back with fewer than two speakers")
		}
		return script, nil
	}
	for i := range script.Segments {
		script.Segments[i].Speaker = "host"
	}
	return script, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
