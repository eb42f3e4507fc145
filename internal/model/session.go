// Package model 包含了应用的数据模型定义。
package model

import (
	"time"

	"gorm.io/datatypes"
)

// Session 代表一个独立的会话线程，携带消息历史与元数据文档。
// Metadata 是一个开放的 JSON 对象，保留键 subject（创建时写入，约定不可变）
// 与 quiz（测验状态，见 quiz.go）。
type Session struct {
	ID        string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	Title     string         `gorm:"type:varchar(50)" json:"title"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	Metadata  datatypes.JSON `json:"metadata"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Session) TableName() string {
	return "sessions"
}
