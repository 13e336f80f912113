package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"reelforge/internal/services"
	"reelforge/internal/services/apiclient"
)

const defaultHTTPTimeout = 120 * time.Second

// modelAliases expands the short names accepted in ai.text.model.
var modelAliases = map[string]string{
	"auto":     "openrouter/auto",
	"deepseek": "deepseek/deepseek-r1",
}

// Config captures the runtime settings required to talk to the LLM.
type Config struct {
	APIKey            string
	BaseURL           string
	Model             string
	Referer           string
	Title             string
	TimeoutSeconds    int
	RequestsPerSecond float64
}

// Client wraps the OpenRouter chat completion API.
type Client struct {
	cfg  Config
	http *apiclient.Client
}

// NewClient constructs an LLM client using the supplied configuration.
// Transport options (retries, sleeper, HTTP client) pass through to apiclient.
func NewClient(cfg Config, opts ...apiclient.Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	cfg = Config{
		APIKey:            strings.TrimSpace(cfg.APIKey),
		BaseURL:           strings.TrimSpace(cfg.BaseURL),
		Model:             resolveModel(cfg.Model),
		Referer:           strings.TrimSpace(cfg.Referer),
		Title:             strings.TrimSpace(cfg.Title),
		TimeoutSeconds:    cfg.TimeoutSeconds,
		RequestsPerSecond: cfg.RequestsPerSecond,
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://openrouter.ai/api/v1/chat/completions"
	}
	opts = append([]apiclient.Option{apiclient.WithRateLimit(cfg.RequestsPerSecond)}, opts...)
	return &Client{cfg: cfg, http: apiclient.New("openrouter", timeout, opts...)}
}

// Model returns the resolved model identifier.
func (c *Client) Model() string {
	return c.cfg.Model
}

func resolveModel(model string) string {
	model = strings.TrimSpace(model)
	if alias, ok := modelAliases[model]; ok {
		return alias
	}
	return model
}

type emptyContentError struct {
	Op           string
	FinishReason string
	Refusal      string
	Snippet      string
}

func (e *emptyContentError) Error() string {
	return fmt.Sprintf(
		"%s: empty content (finish_reason=%q, refusal=%q, response_snippet=%s)",
		e.Op,
		e.FinishReason,
		e.Refusal,
		e.Snippet,
	)
}

// Retryable lets the transport try again; models occasionally return an
// empty choice.
func (e *emptyContentError) Retryable() bool { return true }

// Complete sends prompt as a single user message and returns the reply text.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", services.Wrap(services.ErrValidation, "", "llm complete", "prompt required", nil)
	}
	if c.cfg.APIKey == "" {
		return "", services.Wrap(services.ErrConfiguration, "", "llm complete", "api key required", nil)
	}
	payload := chatCompletionRequest{
		Model:    c.cfg.Model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	}
	content, err := c.completionContent(ctx, payload, "llm complete")
	if err != nil {
		return "", services.Wrap(apiclient.Marker(err), "", "llm complete", c.cfg.Model, err)
	}
	return content, nil
}

// HealthCheck issues a fast ping to verify the API key and model are usable.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.cfg.APIKey == "" {
		return errors.New("llm health: api key required")
	}
	payload := chatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: "You must respond with JSON only."},
			{Role: "user", Content: "Respond with {\"ok\":true}"},
		},
		ResponseFormat: map[string]string{"type": "json_object"},
	}
	content, err := c.completionContent(ctx, payload, "llm health")
	if err != nil {
		return err
	}
	var parsed struct {
		OK bool `json:"ok"`
	}
	if err := DecodeLLMJSON(content, &parsed); err != nil {
		return fmt.Errorf("llm health: parse payload: %w", err)
	}
	if !parsed.OK {
		return errors.New("llm health: unexpected response")
	}
	return nil
}

type chatCompletionRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatCompletionMessage `json:"message"`
		// Some providers mistakenly return the streaming schema (delta) even when
		// stream=false, so tolerate it as a fallback.
		Delta chatCompletionMessage `json:"delta"`
		// Legacy "text" field (completion-style responses).
		Text         string `json:"text"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type chatCompletionMessage struct {
	Content   string     `json:"content"`
	ToolCalls []toolCall `json:"tool_calls"`
	Refusal   string     `json:"refusal"`
}

type toolCall struct {
	Function struct {
		Arguments string `json:"arguments"`
	} `json:"function"`
}

func (c *Client) completionContent(ctx context.Context, payload chatCompletionRequest, op string) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%s: encode body: %w", op, err)
	}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	header.Set("Content-Type", "application/json")
	if c.cfg.Referer != "" {
		header.Set("HTTP-Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		header.Set("X-Title", c.cfg.Title)
	}

	var content string
	err = c.http.Retry(ctx, op, func(ctx context.Context) error {
		resp, err := c.http.Send(ctx, apiclient.Request{Method: http.MethodPost, URL: c.cfg.BaseURL, Header: header, Body: body})
		if err != nil {
			return err
		}
		var completion chatCompletionResponse
		if err := json.Unmarshal(resp.Body, &completion); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		if completion.Error != nil {
			return fmt.Errorf("api error: %s", strings.TrimSpace(completion.Error.Message))
		}
		text, finishReason := extractCompletionPayload(completion)
		if text == "" {
			if len(completion.Choices) == 0 {
				return fmt.Errorf("%s: empty choices", op)
			}
			return &emptyContentError{
				Op:           op,
				FinishReason: finishReason,
				Refusal:      extractCompletionRefusal(completion),
				Snippet:      summarizePayloadSnippet(string(resp.Body)),
			}
		}
		content = text
		return nil
	})
	return content, err
}

func extractCompletionPayload(completion chatCompletionResponse) (string, string) {
	var finishReason string
	for _, choice := range completion.Choices {
		if finishReason == "" {
			finishReason = strings.TrimSpace(choice.FinishReason)
		}
		if content := firstNonEmpty(
			choice.Message.Content,
			choice.Delta.Content,
			choice.Text,
		); content != "" {
			return content, finishReason
		}
		for _, call := range append(choice.Message.ToolCalls, choice.Delta.ToolCalls...) {
			if args := strings.TrimSpace(call.Function.Arguments); args != "" {
				return args, finishReason
			}
		}
	}
	return "", finishReason
}

func extractCompletionRefusal(completion chatCompletionResponse) string {
	for _, choice := range completion.Choices {
		if refusal := firstNonEmpty(choice.Message.Refusal, choice.Delta.Refusal); refusal != "" {
			return refusal
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// DecodeLLMJSON decodes JSON from an LLM response, handling common formatting quirks.
func DecodeLLMJSON(content string, target any) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return errors.New("empty payload")
	}

	directErr := json.Unmarshal([]byte(trimmed), target)
	if directErr == nil {
		return nil
	}

	// Try sanitizing (strip code fences, extract JSON object/array)
	sanitized := sanitizeJSONPayload(trimmed)
	if sanitized == "" || sanitized == trimmed {
		return fmt.Errorf("%w (payload snippet: %s)", directErr, summarizePayloadSnippet(trimmed))
	}

	sanitizedErr := json.Unmarshal([]byte(sanitized), target)
	if sanitizedErr == nil {
		return nil
	}
	return fmt.Errorf("%w (sanitized payload snippet: %s)", sanitizedErr, summarizePayloadSnippet(sanitized))
}

// sanitizeJSONPayload strips fences and prose around the outermost array or
// object. Arrays win when they open first, since idea lists are arrays.
func sanitizeJSONPayload(content string) string {
	trimmed := strings.TrimSpace(stripCodeFenceBlock(content))
	if trimmed == "" {
		return ""
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		return trimmed
	}
	open, closer := "{", "}"
	if arr := strings.Index(trimmed, "["); arr >= 0 {
		if obj := strings.Index(trimmed, "{"); obj < 0 || arr < obj {
			open, closer = "[", "]"
		}
	}
	if start := strings.Index(trimmed, open); start >= 0 {
		if end := strings.LastIndex(trimmed, closer); end > start {
			return strings.TrimSpace(trimmed[start : end+1])
		}
	}
	return trimmed
}

func stripCodeFenceBlock(content string) string {
	trimmed := strings.TrimSpace(content)
	if start := strings.Index(trimmed, "```"); start > 0 {
		trimmed = trimmed[start:]
	}
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	body := trimmed[3:]
	body = strings.TrimLeft(body, " \t\r\n")
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = body[4:]
		body = strings.TrimLeft(body, " \t\r\n")
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}

func summarizePayloadSnippet(content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "<empty>"
	}
	replacer := strings.NewReplacer("\r", " ", "\n", " ", "\t", " ")
	clean := replacer.Replace(trimmed)
	clean = strings.Join(strings.Fields(clean), " ")
	const limit = 160
	runes := []rune(clean)
	if len(runes) > limit {
		clean = string(runes[:limit]) + "..."
	}
	return clean
}
