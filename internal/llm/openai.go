package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/nugget/research-assistant/internal/httpkit"
)

// OpenAIConfig configures an [OpenAIClient]. Zero values are replaced
// with the defaults below.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature *float64 // nil selects the default; 0 is honoured
	Timeout     time.Duration
}

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "gpt-4o-mini"
	defaultMaxTokens     = 400
	defaultTemperature   = 0.2
	defaultTimeout       = 60 * time.Second
)

// OpenAIClient calls an OpenAI-compatible chat-completions endpoint.
type OpenAIClient struct {
	cfg        OpenAIConfig
	httpClient *http.Client
	logger     *slog.Logger
}

// NewOpenAIClient creates a client. An empty API key is allowed; such a
// client reports Available() == false and never touches the network.
func NewOpenAIClient(cfg OpenAIConfig, logger *slog.Logger) *OpenAIClient {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOpenAIBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = defaultOpenAIModel
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	temperature := defaultTemperature
	if cfg.Temperature != nil {
		temperature = *cfg.Temperature
	}
	cfg.Temperature = &temperature
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}

	// Completions can take a while before the first header arrives.
	t := httpkit.NewTransport()
	t.ResponseHeaderTimeout = cfg.Timeout

	return &OpenAIClient{
		cfg:    cfg,
		logger: logger.With("provider", "openai", "model", cfg.Model),
		httpClient: httpkit.NewClient(
			httpkit.WithTimeout(cfg.Timeout),
			httpkit.WithTransport(t),
		),
	}
}

// OpenAI request/response types

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
	Usage   struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// chatChoice carries both the chat shape and the legacy completions
// "text" field; some compatible servers still answer with the latter.
type chatChoice struct {
	Message *chatMessage `json:"message"`
	Text    string       `json:"text"`
}

// Available reports whether an API key is configured.
func (c *OpenAIClient) Available() bool {
	return c.cfg.APIKey != ""
}

// Complete sends one chat-completion request. Every failure is logged
// and reported as ok=false; no error escapes.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, bool) {
	if !c.Available() {
		return "", false
	}

	body, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: *c.cfg.Temperature,
	})
	if err != nil {
		c.logger.Warn("marshal request failed", "error", err)
		return "", false
	}

	c.logger.Log(ctx, LevelTrace, "request payload", "json", string(body))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		c.logger.Warn("create request failed", "error", err)
		return "", false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request failed", "error", err)
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errBody := httpkit.ReadErrorBody(resp.Body, 4096)
		c.logger.Warn("API error", "status", resp.StatusCode, "body", errBody)
		return "", false
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		c.logger.Warn("decode response failed", "error", err)
		return "", false
	}

	text := firstChoiceText(cr)
	c.logger.Debug("completion received",
		"duration", time.Since(start),
		"input_tokens", cr.Usage.PromptTokens,
		"output_tokens", cr.Usage.CompletionTokens,
		"chars", len(text),
	)
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	return text, true
}

// firstChoiceText returns choices[0].message.content, falling back to
// choices[0].text.
func firstChoiceText(cr chatResponse) string {
	if len(cr.Choices) == 0 {
		return ""
	}
	ch := cr.Choices[0]
	if ch.Message != nil && ch.Message.Content != "" {
		return ch.Message.Content
	}
	return ch.Text
}
