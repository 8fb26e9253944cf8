package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Defaults target a local OpenAI-compatible server (Jan, Ollama, and
// friends), which typically ignores the API key.
const (
	DefaultBaseURL = "http://localhost:1337/v1"
	DefaultAPIKey  = "not-needed"
	DefaultModel   = "deepseek-r1-distill-qwen-7b"
)

// Client is the generation surface the rest of the system consumes.
// Implementations must be safe for concurrent use.
type Client interface {
	// Generate produces prose for a prompt, optionally under a system
	// prompt. Reasoning spans are stripped from the result.
	Generate(ctx context.Context, prompt, system string) (string, error)

	// Summarize produces a concise summary of a story segment,
	// preserving plot events, character decisions, and tone.
	Summarize(ctx context.Context, text string) (string, error)
}

// Config configures a ChatClient. Zero values fall back to the local
// server defaults above.
type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	HTTPClient *http.Client
}

// ChatClient talks to an OpenAI-compatible chat completions endpoint.
type ChatClient struct {
	cfg Config
}

// NewChatClient builds a client, filling config defaults.
func NewChatClient(cfg Config) *ChatClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.APIKey == "" {
		cfg.APIKey = DefaultAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	return &ChatClient{cfg: cfg}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chat runs one non-streaming completion and returns the raw assistant
// message content.
func (c *ChatClient) chat(ctx context.Context, messages []chatMessage) (string, error) {
	requestBody, err := json.Marshal(map[string]any{
		"model":    c.cfg.Model,
		"messages": messages,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(requestBody))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	// Key material goes only into the Authorization header, never into
	// errors or logs.
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	res, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, err := io.ReadAll(io.LimitReader(res.Body, 4096))
		if err != nil {
			return "", fmt.Errorf("read chat error body: %w", err)
		}
		return "", fmt.Errorf("chat request status %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(payload.Choices) == 0 {
		return "", fmt.Errorf("chat response missing choices")
	}
	return payload.Choices[0].Message.Content, nil
}

// Generate implements Client.
func (c *ChatClient) Generate(ctx context.Context, prompt, system string) (string, error) {
	var messages []chatMessage
	if system != "" {
		messages = append(messages, chatMessage{Role: "system", Content: system})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	content, err := c.chat(ctx, messages)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(StripThink(content)), nil
}

// summarizeSystemPrompt steers the model toward compression that keeps
// the story replayable from the summary alone.
const summarizeSystemPrompt = "You are a story summarizer. Create a concise summary that preserves:\n" +
	"- Key plot events and their sequence\n" +
	"- Character actions and decisions\n" +
	"- Important revelations or changes\n" +
	"- Emotional beats and tone\n\n" +
	"Be brief but complete. Use past tense."

// Summarize implements Client.
func (c *ChatClient) Summarize(ctx context.Context, text string) (string, error) {
	messages := []chatMessage{
		{Role: "system", Content: summarizeSystemPrompt},
		{Role: "user", Content: "Summarize this story segment:\n\n" + text},
	}

	content, err := c.chat(ctx, messages)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(StripThink(content)), nil
}
