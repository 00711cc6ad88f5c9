package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode"

	"NewsDigest/internal/config"
	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
)

const (
	// minSummarizeRunes is the floor below which content is stored without
	// a summary instead of being sent to the API.
	minSummarizeRunes = 100
	// maxContentRunes bounds the article text sent per request.
	maxContentRunes = 12000

	maxTokens   = 500
	temperature = 0.2
)

const systemPrompt = `You are a factual summarization assistant. Given a news article, produce a concise, neutral summary.
Output format: 3 to 5 bullet points, or one short paragraph. Be factual only; do not add opinion or speculation.`

const userPromptFormat = `Summarize this news article in a neutral, factual way (3–5 bullet points or one short paragraph):

Title: %s

Content:
%s`

// Summarizer implements ports.Summarizer backed by OpenAI-compatible APIs.
type Summarizer struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
	retryPause time.Duration
}

var _ ports.Summarizer = (*Summarizer)(nil)

// NewSummarizer builds a summarizer from configuration.
func NewSummarizer(cfg config.SummarizerConfig, logger *slog.Logger) *Summarizer {
	return &Summarizer{
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:     logger,
		retryPause: 2 * time.Second,
	}
}

// Summarize produces a neutral factual summary of the article text. Content
// shorter than 100 runes is not summarized and an empty summary is returned.
// Failed requests are retried once before giving up.
func (s *Summarizer) Summarize(ctx context.Context, title, content string) (string, error) {
	if s == nil {
		return "", domain.WrapErr(domain.ErrSummarization, errors.New("summarizer is nil"))
	}
	if s.apiKey == "" || s.endpoint == "" || s.model == "" {
		return "", domain.WrapErr(domain.ErrSummarization, errors.New("summarizer misconfigured"))
	}

	content = strings.TrimSpace(content)
	if len([]rune(content)) < minSummarizeRunes {
		s.debug("content too short to summarize", "runes", len([]rune(content)))
		return "", nil
	}

	if title == "" {
		title = "Untitled"
	}
	prompt := fmt.Sprintf(userPromptFormat, title, truncateAtWord(content, maxContentRunes))

	var summary string
	var err error
	for attempt := 0; ; attempt++ {
		summary, err = s.complete(ctx, prompt)
		if err == nil || attempt >= 1 || ctx.Err() != nil {
			break
		}
		s.debug("summarization attempt failed, retrying", "error", err)
		select {
		case <-ctx.Done():
			return "", domain.WrapErr(domain.ErrSummarization, ctx.Err())
		case <-time.After(s.retryPause):
		}
	}
	if err != nil {
		return "", domain.WrapErr(domain.ErrSummarization, err)
	}

	return summary, nil
}

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
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (s *Summarizer) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("chat api error %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("chat response has no choices")
	}

	summary := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if summary == "" {
		return "", errors.New("chat response is empty")
	}
	return summary, nil
}

func (s *Summarizer) debug(msg string, args ...any) {
	if s.logger == nil {
		return
	}
	s.logger.Debug(msg, args...)
}

// truncateAtWord cuts text to at most max runes, dropping any trailing
// partial word, and appends an ellipsis.
func truncateAtWord(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	cut := string(runes[:max])
	if idx := strings.LastIndexFunc(cut, unicode.IsSpace); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimRightFunc(cut, unicode.IsSpace) + "…"
}
