package textgen

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/valyala/bytebufferpool"

	"github.com/riskibarqy/match-tracker/internal/domain/match"
	"github.com/riskibarqy/match-tracker/internal/platform/logging"
)

const (
	defaultBaseURL     = "https://api.anthropic.com"
	defaultModel       = "claude-3-5-sonnet-20241022"
	defaultMaxTokens   = 1000
	defaultTemperature = 0.7
	defaultTimeout     = 30 * time.Second
	apiVersion         = "2023-06-01"

	systemPrompt = "You are an experienced football journalist. Write a concise, " +
		"engaging summary of the recent match results you are given. Lead with the " +
		"most notable results and surprises, keep it to two or three short paragraphs, " +
		"and do not invent fixtures that are not in the data."
)

type ClientConfig struct {
	HTTPClient  *http.Client
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	Logger      *logging.Logger
}

// Client generates the match-day narrative through the Anthropic
// Messages API. One blocking call per generation, bounded by the HTTP
// client timeout; no retries, callers treat failure as "keep the
// previous summary".
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
	logger      *logging.Logger
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = defaultTimeout
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = defaultTemperature
	}

	return &Client{
		httpClient:  httpClient,
		baseURL:     baseURL,
		apiKey:      strings.TrimSpace(cfg.APIKey),
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		logger:      logger,
	}
}

func (c *Client) GenerateSummary(ctx context.Context, records []match.Match) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("textgen api key is not configured")
	}
	if len(records) == 0 {
		return "", fmt.Errorf("no match records to summarize")
	}

	prompt, err := buildUserPrompt(records)
	if err != nil {
		return "", err
	}

	payload := messagesRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		System:      systemPrompt,
		Messages: []message{
			{Role: "user", Content: prompt},
		},
	}
	encoded, err := sonic.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal messages request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("create messages request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request text generation: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read messages response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.WarnContext(ctx, "text generation non-200",
			"status_code", resp.StatusCode,
		)
		return "", fmt.Errorf("text generation failed with status %d", resp.StatusCode)
	}

	var decoded messagesResponse
	if err := sonic.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("unmarshal messages response: %w", err)
	}

	text := decoded.text()
	if text == "" {
		return "", fmt.Errorf("text generation returned no content")
	}
	return text, nil
}

// buildUserPrompt assembles the instruction plus the match data as a
// JSON block. Prompt sizes vary a lot between match days, so the
// scratch buffer comes from a pool.
func buildUserPrompt(records []match.Match) (string, error) {
	data, err := sonic.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("marshal match records: %w", err)
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString("Here are the latest match results as JSON:\n\n")
	_, _ = buf.Write(data)
	_, _ = buf.WriteString("\n\nWrite the summary now.")
	return buf.String(), nil
}

type messagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	System      string    `json:"system"`
	Messages    []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func (r messagesResponse) text() string {
	var parts []string
	for _, block := range r.Content {
		if block.Type == "text" && block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}
