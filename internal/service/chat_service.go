package service

import (
	"context"
	"fmt"
	"strings"

	"science-mentor-go/internal/model"
	"science-mentor-go/internal/repository"
	"science-mentor-go/pkg/llm"
	"science-mentor-go/pkg/log"
)

// filterProvider 标注被学科过滤器拦截后记录的 assistant 消息来源。
const filterProvider = "filter"

// guidedTriggers 命中任意一个短语即进入引导模式。
var guidedTriggers = []string{
	"step by step", "hint", "stuck", "don't understand", "guide me",
}

// guidedInstruction 在引导模式下附加到问题末尾，要求模型用苏格拉底式提问推进。
const guidedInstruction = "\n\n[GUIDED MODE: Do not give the full answer directly. " +
	"Break the problem into small steps, ask the student one checking question at a time, " +
	"and wait for their response before moving on.]"

// AskRequest 是一次提问的输入。
type AskRequest struct {
	SessionID  string
	Question   string
	Provider   string
	GuidedMode bool
}

// AskResult 是一次非流式提问的输出。
type AskResult struct {
	Answer    string
	Provider  string
	SessionID string
	Filtered  bool
}

// ChatService 承载提问的完整处理链路：校验、过滤、上下文组装、生成与落库。
type ChatService interface {
	Ask(ctx context.Context, req AskRequest) (*AskResult, error)
	// AskStream 以回调分块输出回答。emit 返回错误时中止生成。
	AskStream(ctx context.Context, req AskRequest, emit func(chunk string) error) (*AskResult, error)
}

type chatService struct {
	sessions     repository.SessionRepository
	messages     repository.MessageRepository
	filter       *SubjectFilter
	knowledge    *KnowledgeService
	factory      *llm.Factory
	contextPairs int
}

// NewChatService 创建聊天服务。
func NewChatService(
	sessions repository.SessionRepository,
	messages repository.MessageRepository,
	filter *SubjectFilter,
	knowledge *KnowledgeService,
	factory *llm.Factory,
	contextPairs int,
) ChatService {
	if contextPairs <= 0 {
		contextPairs = 5
	}
	return &chatService{
		sessions:     sessions,
		messages:     messages,
		filter:       filter,
		knowledge:    knowledge,
		factory:      factory,
		contextPairs: contextPairs,
	}
}

// askContext 是一次提问在生成之前收集到的全部状态。
type askContext struct {
	firstMessage bool
	guided       bool
	subject      string
	history      []llm.Message
	kbContext    string
}

// prepare 做生成前的公共步骤：存在性校验、首条消息判定、引导模式判定、
// 学科读取与历史窗口组装。
func (s *chatService) prepare(ctx context.Context, req AskRequest) (*askContext, error) {
	exists, err := s.sessions.Exists(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrSessionNotFound
	}

	recent, err := s.messages.Recent(ctx, req.SessionID, 1)
	if err != nil {
		return nil, err
	}

	subject, err := s.sessions.GetSubject(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	history, err := s.messages.ContextWindow(ctx, req.SessionID, s.contextPairs)
	if err != nil {
		return nil, err
	}
	llmHistory := make([]llm.Message, 0, len(history))
	for _, m := range history {
		llmHistory = append(llmHistory, llm.Message{Role: m.Role, Content: m.Content})
	}

	return &askContext{
		firstMessage: len(recent) == 0,
		guided:       req.GuidedMode || hasGuidedTrigger(req.Question),
		subject:      subject,
		history:      llmHistory,
		kbContext:    s.knowledge.RelevantContext(req.Question),
	}, nil
}

// recordUserTurn 在生成开始前落库用户消息，并在首条消息时用问题
// 设置会话标题。生成失败时学生的提问依然留在历史里。
func (s *chatService) recordUserTurn(ctx context.Context, req AskRequest, ac *askContext) {
	if _, err := s.messages.Append(ctx, req.SessionID, model.RoleUser, req.Question, ""); err != nil {
		log.Errorf("append user message failed: %v", err)
	}
	if ac.firstMessage {
		if err := s.sessions.UpdateTitle(ctx, req.SessionID, req.Question); err != nil {
			log.Errorf("update session title failed: %v", err)
		}
	}
}

// recordAnswer 落库带提供商标注的回答。
func (s *chatService) recordAnswer(ctx context.Context, sessionID, answer, provider string) {
	if _, err := s.messages.Append(ctx, sessionID, model.RoleAssistant, answer, provider); err != nil {
		log.Errorf("append assistant message failed: %v", err)
	}
}

// Ask 处理一次非流式提问。
func (s *chatService) Ask(ctx context.Context, req AskRequest) (*AskResult, error) {
	ac, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	if ok, message := s.filter.ValidateScope(req.Question, ac.subject, ac.guided); !ok {
		s.recordUserTurn(ctx, req, ac)
		s.recordAnswer(ctx, req.SessionID, message, filterProvider)
		return &AskResult{Answer: message, Provider: filterProvider, SessionID: req.SessionID, Filtered: true}, nil
	}

	provider, err := s.factory.Get(req.Provider)
	if err != nil {
		return nil, err
	}

	question := req.Question
	if ac.guided {
		question += guidedInstruction
	}

	// 先落库提问再生成：生成失败不应吞掉学生的这一轮
	s.recordUserTurn(ctx, req, ac)

	answer, err := provider.Generate(ctx, question, ac.kbContext, ac.history)
	if err != nil {
		return nil, fmt.Errorf("generate answer failed: %w", err)
	}

	s.recordAnswer(ctx, req.SessionID, answer, provider.Name())
	return &AskResult{Answer: answer, Provider: provider.Name(), SessionID: req.SessionID}, nil
}

// AskStream 处理一次流式提问。被过滤的回答与不支持流式的提供商
// 退化为单块输出。
func (s *chatService) AskStream(ctx context.Context, req AskRequest, emit func(chunk string) error) (*AskResult, error) {
	ac, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	if ok, message := s.filter.ValidateScope(req.Question, ac.subject, ac.guided); !ok {
		s.recordUserTurn(ctx, req, ac)
		s.recordAnswer(ctx, req.SessionID, message, filterProvider)
		if err := emit(message); err != nil {
			return nil, err
		}
		return &AskResult{Answer: message, Provider: filterProvider, SessionID: req.SessionID, Filtered: true}, nil
	}

	provider, err := s.factory.Get(req.Provider)
	if err != nil {
		return nil, err
	}

	question := req.Question
	if ac.guided {
		question += guidedInstruction
	}

	s.recordUserTurn(ctx, req, ac)

	var full strings.Builder
	if streamer, ok := provider.(llm.StreamingProvider); ok {
		err = streamer.GenerateStream(ctx, question, ac.kbContext, ac.history, func(chunk string) error {
			full.WriteString(chunk)
			return emit(chunk)
		})
	} else {
		var answer string
		answer, err = provider.Generate(ctx, question, ac.kbContext, ac.history)
		if err == nil {
			full.WriteString(answer)
			err = emit(answer)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("stream answer failed: %w", err)
	}

	answer := full.String()
	s.recordAnswer(ctx, req.SessionID, answer, provider.Name())
	return &AskResult{Answer: answer, Provider: provider.Name(), SessionID: req.SessionID}, nil
}

func hasGuidedTrigger(question string) bool {
	lower := strings.ToLower(question)
	for _, trigger := range guidedTriggers {
		if strings.Contains(lower, trigger) {
			return true
		}
	}
	return false
}
