package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"science-mentor-go/internal/config"
)

// claudeProvider 调用 Anthropic Messages API。
type claudeProvider struct {
	cfg    config.ProviderConfig
	apiKey string
	client *http.Client
}

func newClaudeProvider(cfg config.ProviderConfig) *claudeProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.anthropic.com"
	}
	if cfg.Model == "" {
		cfg.Model = "claude-3-5-haiku-20241022"
	}
	return &claudeProvider{
		cfg:    cfg,
		apiKey: os.Getenv("ANTHROPIC_API_KEY"),
		client: newHTTPClient(),
	}
}

func (p *claudeProvider) Name() string { return "claude" }

func (p *claudeProvider) Available() bool { return p.apiKey != "" }

type claudeRequest struct {
	Model     string    `json:"model"`
	System    string    `json:"system"`
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"max_tokens"`
}

type claudeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Generate 调用 /v1/messages。system 消息走独立字段，历史只保留 user/assistant。
func (p *claudeProvider) Generate(ctx context.Context, question, kbContext string, history []Message) (string, error) {
	messages := make([]Message, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, Message{Role: "user", Content: buildUserPrompt(question, kbContext)})

	reqBody := claudeRequest{
		Model:     p.cfg.Model,
		System:    systemPrompt,
		Messages:  messages,
		MaxTokens: 2048,
	}
	raw, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal claude request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.cfg.BaseURL+"/v1/messages", bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("failed to create claude request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call claude api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("claude api returned non-200 status: %s, body: %s", resp.Status, string(body))
	}

	var message claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&message); err != nil {
		return "", fmt.Errorf("failed to decode claude response: %w", err)
	}
	for _, block := range message.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("claude returned no text content")
}
