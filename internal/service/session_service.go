package service

import (
	"context"
	"fmt"

	"science-mentor-go/internal/model"
	"science-mentor-go/internal/repository"
)

const (
	defaultSessionListLimit = 50
	defaultMessageLimit     = 100
)

// SessionService 提供会话级别的操作。
type SessionService interface {
	CreateSession(ctx context.Context, subject string) (string, error)
	ListSessions(ctx context.Context) ([]model.Session, error)
	SessionMessages(ctx context.Context, sessionID string) ([]model.Message, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

type sessionService struct {
	sessions repository.SessionRepository
	messages repository.MessageRepository
}

// NewSessionService 创建会话服务。
func NewSessionService(sessions repository.SessionRepository, messages repository.MessageRepository) SessionService {
	return &sessionService{sessions: sessions, messages: messages}
}

// CreateSession 新建会话，可以在元数据中预设科目。
func (s *sessionService) CreateSession(ctx context.Context, subject string) (string, error) {
	metadata := map[string]interface{}{}
	if subject != "" {
		metadata["subject"] = subject
	}
	id, err := s.sessions.Create(ctx, metadata)
	if err != nil {
		return "", fmt.Errorf("create session failed: %w", err)
	}
	return id, nil
}

// ListSessions 返回最近更新的会话列表。
func (s *sessionService) ListSessions(ctx context.Context) ([]model.Session, error) {
	return s.sessions.List(ctx, defaultSessionListLimit)
}

// SessionMessages 返回会话内按时间升序的消息。会话不存在时返回 ErrSessionNotFound。
func (s *sessionService) SessionMessages(ctx context.Context, sessionID string) ([]model.Message, error) {
	exists, err := s.sessions.Exists(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrSessionNotFound
	}
	return s.messages.Recent(ctx, sessionID, defaultMessageLimit)
}

// DeleteSession 删除会话及其消息。会话不存在时返回 ErrSessionNotFound。
func (s *sessionService) DeleteSession(ctx context.Context, sessionID string) error {
	deleted, err := s.sessions.Delete(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("delete session failed: %w", err)
	}
	if !deleted {
		return ErrSessionNotFound
	}
	return nil
}
