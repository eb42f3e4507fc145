package llm

import (
	"fmt"
	"sort"
	"strings"

	"science-mentor-go/internal/config"
)

// Factory 管理所有已注册的 LLM 提供商。
type Factory struct {
	providers   map[string]Provider
	defaultName string
}

// NewFactory 按配置注册四个提供商。可用性由各自的凭证决定。
func NewFactory(cfg config.LLMConfig) *Factory {
	defaultName := strings.ToLower(cfg.DefaultProvider)
	if defaultName == "" {
		defaultName = "openai"
	}
	return &Factory{
		providers: map[string]Provider{
			"openai": newOpenAIProvider(cfg.OpenAI),
			"claude": newClaudeProvider(cfg.Claude),
			"gemini": newGeminiProvider(cfg.Gemini),
			"ollama": newOllamaProvider(cfg.Ollama),
		},
		defaultName: defaultName,
	}
}

// Get 按名称返回提供商，name 为空时返回默认提供商。
// 未注册或未配置的提供商返回错误。
func (f *Factory) Get(name string) (Provider, error) {
	if name == "" {
		name = f.defaultName
	}
	name = strings.ToLower(name)

	provider, ok := f.providers[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", name)
	}
	if !provider.Available() {
		return nil, fmt.Errorf("provider '%s' is not configured or available", name)
	}
	return provider, nil
}

// Available 返回当前已配置可用的提供商名称。
func (f *Factory) Available() []string {
	var names []string
	for name, provider := range f.providers {
		if provider.Available() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// All 返回全部已注册的提供商名称。
func (f *Factory) All() []string {
	names := make([]string, 0, len(f.providers))
	for name := range f.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Default 返回默认提供商名称；若默认提供商不可用，
// 退回第一个可用的提供商，一个都没有时返回空字符串。
func (f *Factory) Default() string {
	if provider, ok := f.providers[f.defaultName]; ok && provider.Available() {
		return f.defaultName
	}
	available := f.Available()
	if len(available) > 0 {
		return available[0]
	}
	return ""
}
