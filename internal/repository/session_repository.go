package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"science-mentor-go/internal/model"
	"science-mentor-go/pkg/log"
)

const (
	// 标题截断长度与空标题占位符，来自会话目录的展示约定。
	titleMaxRunes = 50
	defaultTitle  = "New Chat"
)

// SessionRepository 接口定义了会话目录与元数据文档的持久化操作。
//
// 元数据按键更新是读出-修改-写回，读与写之间没有版本校验，
// 假定同一会话同一时刻只有一个写入方。
type SessionRepository interface {
	// Create 分配一个新的会话 ID 并插入记录，metadata 可以为 nil。
	Create(ctx context.Context, metadata map[string]interface{}) (string, error)
	// Exists 是其他操作使用会话 ID 前的存在性检查。
	Exists(ctx context.Context, id string) (bool, error)
	// List 按最近更新时间倒序返回至多 limit 个会话。
	List(ctx context.Context, limit int) ([]model.Session, error)
	// UpdateTitle 将标题截断到 50 个字符后写入，空标题写入占位符。
	UpdateTitle(ctx context.Context, id, title string) error
	// Delete 删除会话及其全部消息。会话不存在时返回 false 且无任何副作用。
	Delete(ctx context.Context, id string) (bool, error)
	// GetMetadata 返回完整元数据文档，缺失或无法解析时返回空文档。
	GetMetadata(ctx context.Context, id string) (map[string]interface{}, error)
	// GetSubject 返回 metadata.subject，未设置时为空字符串。
	GetSubject(ctx context.Context, id string) (string, error)
	// UpdateMetadataKey 更新文档中的单个键（浅替换）并推进 updated_at。
	// 会话不存在时返回 false。
	UpdateMetadataKey(ctx context.Context, id, key string, value interface{}) (bool, error)
}

// sessionRepository 是 SessionRepository 接口的 GORM 实现。
type sessionRepository struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewSessionRepository 创建一个新的 SessionRepository 实例。
func NewSessionRepository(db *gorm.DB, queryTimeout time.Duration) SessionRepository {
	return &sessionRepository{db: db, timeout: queryTimeout}
}

// Create 在数据库中插入一条新的会话记录并返回其 ID。
func (r *sessionRepository) Create(ctx context.Context, metadata map[string]interface{}) (string, error) {
	ctx, cancel := opContext(ctx, r.timeout)
	defer cancel()

	session := model.Session{ID: uuid.NewString()}
	if len(metadata) > 0 {
		raw, err := json.Marshal(metadata)
		if err != nil {
			return "", fmt.Errorf("failed to marshal session metadata: %w", err)
		}
		session.Metadata = datatypes.JSON(raw)
	}

	if err := r.db.WithContext(ctx).Create(&session).Error; err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	return session.ID, nil
}

// Exists 检查给定 ID 的会话是否存在。
func (r *sessionRepository) Exists(ctx context.Context, id string) (bool, error) {
	ctx, cancel := opContext(ctx, r.timeout)
	defer cancel()

	var count int64
	err := r.db.WithContext(ctx).Model(&model.Session{}).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check session existence: %w", err)
	}
	return count > 0, nil
}

// List 按 updated_at 倒序检索最近的会话。
func (r *sessionRepository) List(ctx context.Context, limit int) ([]model.Session, error) {
	ctx, cancel := opContext(ctx, r.timeout)
	defer cancel()

	var sessions []model.Session
	err := r.db.WithContext(ctx).
		Order("updated_at DESC").
		Limit(limit).
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// UpdateTitle 更新会话标题。标题写入不推进 updated_at。
func (r *sessionRepository) UpdateTitle(ctx context.Context, id, title string) error {
	ctx, cancel := opContext(ctx, r.timeout)
	defer cancel()

	title = normalizeTitle(title)
	err := r.db.WithContext(ctx).Model(&model.Session{}).
		Where("id = ?", id).
		UpdateColumn("title", title).Error
	if err != nil {
		return fmt.Errorf("failed to update session title: %w", err)
	}
	return nil
}

// Delete 在一个事务里先删消息再删会话行。
func (r *sessionRepository) Delete(ctx context.Context, id string) (bool, error) {
	ctx, cancel := opContext(ctx, r.timeout)
	defer cancel()

	deleted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Session{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return nil
		}
		if err := tx.Where("session_id = ?", id).Delete(&model.Message{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id = ?", id).Delete(&model.Session{}).Error; err != nil {
			return err
		}
		deleted = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete session: %w", err)
	}
	return deleted, nil
}

// GetMetadata 读取完整元数据文档。会话不存在、文档为空或解析失败时
// 一律返回空文档，保证读路径不因坏数据而不可用。
func (r *sessionRepository) GetMetadata(ctx context.Context, id string) (map[string]interface{}, error) {
	ctx, cancel := opContext(ctx, r.timeout)
	defer cancel()

	raw, found, err := r.loadMetadata(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return map[string]interface{}{}, nil
	}
	return parseMetadata(raw, id), nil
}

// GetSubject 是 metadata.subject 的便捷投影。
func (r *sessionRepository) GetSubject(ctx context.Context, id string) (string, error) {
	metadata, err := r.GetMetadata(ctx, id)
	if err != nil {
		return "", err
	}
	subject, _ := metadata["subject"].(string)
	return subject, nil
}

// UpdateMetadataKey 读出当前文档、替换单个键、整体写回并推进 updated_at。
func (r *sessionRepository) UpdateMetadataKey(ctx context.Context, id, key string, value interface{}) (bool, error) {
	ctx, cancel := opContext(ctx, r.timeout)
	defer cancel()

	raw, found, err := r.loadMetadata(ctx, id)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}

	metadata := parseMetadata(raw, id)
	metadata[key] = value

	updated, err := json.Marshal(metadata)
	if err != nil {
		return false, fmt.Errorf("failed to marshal session metadata: %w", err)
	}

	err = r.db.WithContext(ctx).Model(&model.Session{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"metadata":   datatypes.JSON(updated),
			"updated_at": time.Now(),
		}).Error
	if err != nil {
		return false, fmt.Errorf("failed to update session metadata: %w", err)
	}
	return true, nil
}

// loadMetadata 读取原始元数据列，found 表明会话行是否存在。
func (r *sessionRepository) loadMetadata(ctx context.Context, id string) (datatypes.JSON, bool, error) {
	var session model.Session
	err := r.db.WithContext(ctx).Select("id", "metadata").Where("id = ?", id).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load session metadata: %w", err)
	}
	return session.Metadata, true, nil
}

// parseMetadata 宽容地解析元数据文档：坏数据降级为空文档而不是报错。
func parseMetadata(raw datatypes.JSON, id string) map[string]interface{} {
	if len(raw) == 0 {
		return map[string]interface{}{}
	}
	var metadata map[string]interface{}
	if err := json.Unmarshal(raw, &metadata); err != nil {
		log.Warnf("会话 %s 的元数据无法解析，按空文档处理: %v", id, err)
		return map[string]interface{}{}
	}
	if metadata == nil {
		return map[string]interface{}{}
	}
	return metadata
}

func normalizeTitle(title string) string {
	if title == "" {
		return defaultTitle
	}
	runes := []rune(title)
	if len(runes) > titleMaxRunes {
		return string(runes[:titleMaxRunes])
	}
	return title
}
