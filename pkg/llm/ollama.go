package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"science-mentor-go/internal/config"
)

// ollamaProvider 调用本地 Ollama 服务，无需 API Key。
type ollamaProvider struct {
	cfg    config.ProviderConfig
	client *http.Client
}

func newOllamaProvider(cfg config.ProviderConfig) *ollamaProvider {
	if cfg.Model == "" {
		cfg.Model = "llama3"
	}
	return &ollamaProvider{cfg: cfg, client: newHTTPClient()}
}

func (p *ollamaProvider) Name() string { return "ollama" }

// Available 只要求配置了服务地址，连通性在调用时才体现。
func (p *ollamaProvider) Available() bool { return p.cfg.BaseURL != "" }

type ollamaChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type ollamaChatResponse struct {
	Message Message `json:"message"`
	Done    bool    `json:"done"`
}

// Generate 以非流式方式调用 /api/chat。
func (p *ollamaProvider) Generate(ctx context.Context, question, kbContext string, history []Message) (string, error) {
	resp, err := p.post(ctx, composeMessages(question, kbContext, history), false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama api returned non-200 status: %s, body: %s", resp.Status, string(body))
	}

	var chat ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return "", fmt.Errorf("failed to decode ollama response: %w", err)
	}
	return chat.Message.Content, nil
}

// GenerateStream 以 NDJSON 流式方式调用 /api/chat 并逐块回调。
func (p *ollamaProvider) GenerateStream(ctx context.Context, question, kbContext string, history []Message, emit func(chunk string) error) error {
	resp, err := p.post(ctx, composeMessages(question, kbContext, history), true)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("ollama api returned non-200 status: %s, body: %s", resp.Status, string(body))
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var chunk ollamaChatResponse
		if err := json.Unmarshal(scanner.Bytes(), &chunk); err != nil {
			continue
		}
		if chunk.Message.Content != "" {
			if err := emit(chunk.Message.Content); err != nil {
				return err
			}
		}
		if chunk.Done {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read from stream: %w", err)
	}
	return nil
}

func (p *ollamaProvider) post(ctx context.Context, messages []Message, stream bool) (*http.Response, error) {
	reqBody := ollamaChatRequest{Model: p.cfg.Model, Messages: messages, Stream: stream}
	raw, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.cfg.BaseURL+"/api/chat", bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call ollama api: %w", err)
	}
	return resp, nil
}
