package model

import "time"

// 消息角色。
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message 代表会话中的一条消息。消息只追加，单条消息不存在更新或删除操作，
// 只会随会话删除被整体级联清理。
type Message struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID string    `gorm:"type:varchar(36);not null;index:idx_messages_session,priority:1" json:"sessionId"`
	Role      string    `gorm:"type:varchar(16);not null" json:"role"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Provider  *string   `gorm:"type:varchar(32)" json:"provider"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_messages_session,priority:2" json:"createdAt"`

	Session Session `gorm:"foreignKey:SessionID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Message) TableName() string {
	return "messages"
}

// ChatMessage 是提供给 LLM 上下文窗口的精简消息视图，去除了 provider 与时间戳。
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
