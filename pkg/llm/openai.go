package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"science-mentor-go/internal/config"
)

// openaiProvider 调用 OpenAI 兼容的 chat/completions 接口。
type openaiProvider struct {
	cfg    config.ProviderConfig
	apiKey string
	client *http.Client
}

func newOpenAIProvider(cfg config.ProviderConfig) *openaiProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	return &openaiProvider{
		cfg:    cfg,
		apiKey: os.Getenv("OPENAI_API_KEY"),
		client: newHTTPClient(),
	}
}

func (p *openaiProvider) Name() string { return "openai" }

func (p *openaiProvider) Available() bool { return p.apiKey != "" }

type openaiChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream,omitempty"`
}

type openaiChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type openaiStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Generate 以非流式方式调用 chat/completions。
func (p *openaiProvider) Generate(ctx context.Context, question, kbContext string, history []Message) (string, error) {
	reqBody := openaiChatRequest{
		Model:    p.cfg.Model,
		Messages: composeMessages(question, kbContext, history),
	}

	resp, err := p.post(ctx, reqBody)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("openai api returned non-200 status: %s, body: %s", resp.Status, string(body))
	}

	var chat openaiChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return "", fmt.Errorf("failed to decode openai response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	return chat.Choices[0].Message.Content, nil
}

// GenerateStream 以 SSE 流式方式调用 chat/completions 并逐块回调。
func (p *openaiProvider) GenerateStream(ctx context.Context, question, kbContext string, history []Message, emit func(chunk string) error) error {
	reqBody := openaiChatRequest{
		Model:    p.cfg.Model,
		Messages: composeMessages(question, kbContext, history),
		Stream:   true,
	}

	resp, err := p.post(ctx, reqBody)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("openai api returned non-200 status: %s, body: %s", resp.Status, string(body))
	}

	reader := bufio.NewReader(resp.Body)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("failed to read from stream: %w", err)
		}

		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if strings.TrimSpace(data) == "[DONE]" {
			break
		}

		var chunk openaiStreamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue
		}
		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
			if err := emit(chunk.Choices[0].Delta.Content); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *openaiProvider) post(ctx context.Context, reqBody openaiChatRequest) (*http.Response, error) {
	raw, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.cfg.BaseURL+"/chat/completions", bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call openai api: %w", err)
	}
	return resp, nil
}
