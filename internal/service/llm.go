package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pageza/foodflow/backend/config"
)

const (
	defaultMaxTokens   = 2000
	defaultTemperature = 0.7
)

// Message represents a message in the chat
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is an OpenAI-compatible chat completion request
type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

// ChatCompleter returns the assistant text for a conversation
type ChatCompleter interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// LLMService talks to an OpenAI-compatible chat completion endpoint (Groq by default)
type LLMService struct {
	apiKey string
	apiURL string
	model  string
	client *http.Client
}

// NewLLMService creates a new LLMService from configuration. A missing API key
// is not an error here; Complete reports ErrLLMNotConfigured so callers fall back.
func NewLLMService(cfg *config.Config) *LLMService {
	return &LLMService{
		apiKey: cfg.LLMAPIKey,
		apiURL: cfg.LLMAPIURL,
		model:  cfg.LLMModel,
		client: &http.Client{Timeout: cfg.LLMTimeout},
	}
}

// Complete sends messages and returns choices[0].message.content
func (s *LLMService) Complete(ctx context.Context, messages []Message) (string, error) {
	if s.apiKey == "" {
		return "", ErrLLMNotConfigured
	}

	reqBody := Request{
		Model:       s.model,
		Messages:    messages,
		MaxTokens:   defaultMaxTokens,
		Temperature: defaultTemperature,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.apiKey))

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, truncate(string(body), 500))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(result.Choices) == 0 || strings.TrimSpace(result.Choices[0].Message.Content) == "" {
		return "", ErrEmptyCompletion
	}

	return result.Choices[0].Message.Content, nil
}

// ExtractJSON decodes the JSON document embedded in an assistant reply.
// Markdown fences are stripped first; when the remaining text still does not
// parse, the outermost {...} span is tried.
func ExtractJSON(content string, v interface{}) error {
	text := stripFences(content)

	err := json.Unmarshal([]byte(text), v)
	if err == nil {
		return nil
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return fmt.Errorf("failed to parse LLM JSON: %w", err)
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), v); err != nil {
		return fmt.Errorf("failed to parse LLM JSON: %w", err)
	}
	return nil
}

func stripFences(content string) string {
	text := strings.TrimSpace(content)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```JSON")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
