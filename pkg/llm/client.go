// Package llm 提供与多个大语言模型提供商交互的客户端。
package llm

import (
	"context"
	"net/http"
	"time"
)

// Message 表示一条角色消息。
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Provider defines the interface for an LLM provider.
type Provider interface {
	// Name 返回提供商标识，用于标注 assistant 消息的来源。
	Name() string
	// Available 报告提供商是否已配置可用（通常取决于 API Key）。
	Available() bool
	// Generate 基于问题、知识库上下文与历史消息生成一条完整回答。
	Generate(ctx context.Context, question, kbContext string, history []Message) (string, error)
}

// StreamingProvider is implemented by providers that can stream chunks.
type StreamingProvider interface {
	Provider
	// GenerateStream 以分块回调的方式流式生成回答。
	GenerateStream(ctx context.Context, question, kbContext string, history []Message, emit func(chunk string) error) error
}

// newHTTPClient 统一各提供商的出站超时。
func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 120 * time.Second}
}
