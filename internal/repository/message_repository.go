package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"science-mentor-go/internal/model"
)

// MessageRepository 接口定义了只追加消息日志的持久化操作。
type MessageRepository interface {
	// Append 插入一条消息并在同一事务内推进所属会话的 updated_at。
	// 调用方必须先通过 SessionRepository.Exists 确认会话存在。
	Append(ctx context.Context, sessionID, role, content, provider string) (uint, error)
	// Recent 返回最近 limit 条消息，按时间正序（旧在前）排列。
	Recent(ctx context.Context, sessionID string, limit int) ([]model.Message, error)
	// ContextWindow 返回最近 pairLimit*2 条消息的 {role, content} 视图，
	// 按时间正序排列，用于喂给下游生成器的有界上下文。
	ContextWindow(ctx context.Context, sessionID string, pairLimit int) ([]model.ChatMessage, error)
}

// messageRepository 是 MessageRepository 接口的 GORM 实现。
type messageRepository struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewMessageRepository 创建一个新的 MessageRepository 实例。
func NewMessageRepository(db *gorm.DB, queryTimeout time.Duration) MessageRepository {
	return &messageRepository{db: db, timeout: queryTimeout}
}

// Append 插入消息行并更新会话时间戳，两者作为一个逻辑操作原子提交。
func (r *messageRepository) Append(ctx context.Context, sessionID, role, content, provider string) (uint, error) {
	ctx, cancel := opContext(ctx, r.timeout)
	defer cancel()

	message := model.Message{
		SessionID: sessionID,
		Role:      role,
		Content:   content,
	}
	if provider != "" {
		message.Provider = &provider
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&message).Error; err != nil {
			return err
		}
		return tx.Model(&model.Session{}).
			Where("id = ?", sessionID).
			UpdateColumn("updated_at", time.Now()).Error
	})
	if err != nil {
		return 0, fmt.Errorf("failed to append message: %w", err)
	}
	return message.ID, nil
}

// Recent 先按 created_at、id 倒序取最近 limit 条，再反转为时间正序返回，
// 调用方无论传什么 limit 都能看到真实的时间顺序。
func (r *messageRepository) Recent(ctx context.Context, sessionID string, limit int) ([]model.Message, error) {
	ctx, cancel := opContext(ctx, r.timeout)
	defer cancel()

	var messages []model.Message
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// ContextWindow 取最近 pairLimit 轮对话并投影成 LLM 消息格式。
func (r *messageRepository) ContextWindow(ctx context.Context, sessionID string, pairLimit int) ([]model.ChatMessage, error) {
	messages, err := r.Recent(ctx, sessionID, pairLimit*2)
	if err != nil {
		return nil, err
	}

	window := make([]model.ChatMessage, 0, len(messages))
	for _, m := range messages {
		window = append(window, model.ChatMessage{Role: m.Role, Content: m.Content})
	}
	return window, nil
}
