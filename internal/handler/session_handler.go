package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"science-mentor-go/internal/service"
	"science-mentor-go/pkg/log"
)

// SessionHandler 结构体定义了会话相关的处理器。
type SessionHandler struct {
	sessionService service.SessionService
}

// NewSessionHandler 创建一个新的 SessionHandler 实例。
func NewSessionHandler(sessionService service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

type createSessionRequest struct {
	Subject string `json:"subject"`
}

// metadataDocument 把元数据列还原成 JSON 对象，空列或坏数据降级为空文档。
func metadataDocument(raw datatypes.JSON) map[string]interface{} {
	if len(raw) == 0 {
		return map[string]interface{}{}
	}
	var metadata map[string]interface{}
	if err := json.Unmarshal(raw, &metadata); err != nil || metadata == nil {
		return map[string]interface{}{}
	}
	return metadata
}

// CreateSession 处理 POST /sessions。
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req createSessionRequest
	// body 可以为空，subject 是可选项
	_ = c.ShouldBindJSON(&req)

	id, err := h.sessionService.CreateSession(c.Request.Context(), req.Subject)
	if err != nil {
		log.Errorf("[SessionHandler] 创建会话失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}

	log.Infof("[SessionHandler] 创建会话成功, session_id: %s, subject: %s", id, req.Subject)
	c.JSON(http.StatusOK, gin.H{"session_id": id, "subject": req.Subject})
}

// ListSessions 处理 GET /sessions。
func (h *SessionHandler) ListSessions(c *gin.Context) {
	sessions, err := h.sessionService.ListSessions(c.Request.Context())
	if err != nil {
		log.Errorf("[SessionHandler] 查询会话列表失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list sessions"})
		return
	}

	items := make([]gin.H, 0, len(sessions))
	for _, s := range sessions {
		items = append(items, gin.H{
			"id":         s.ID,
			"title":      s.Title,
			"created_at": s.CreatedAt,
			"updated_at": s.UpdatedAt,
			"metadata":   metadataDocument(s.Metadata),
		})
	}
	c.JSON(http.StatusOK, gin.H{"sessions": items})
}

// SessionMessages 处理 GET /sessions/:id/messages。
func (h *SessionHandler) SessionMessages(c *gin.Context) {
	sessionID := c.Param("id")

	messages, err := h.sessionService.SessionMessages(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		log.Errorf("[SessionHandler] 查询会话消息失败, session_id: %s, error: %v", sessionID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	items := make([]gin.H, 0, len(messages))
	for _, m := range messages {
		item := gin.H{
			"role":       m.Role,
			"content":    m.Content,
			"created_at": m.CreatedAt,
		}
		if m.Provider != nil {
			item["provider"] = *m.Provider
		}
		items = append(items, item)
	}
	c.JSON(http.StatusOK, gin.H{"session_id": sessionID, "messages": items})
}

// DeleteSession 处理 DELETE /sessions/:id。
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	sessionID := c.Param("id")

	if err := h.sessionService.DeleteSession(c.Request.Context(), sessionID); err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		log.Errorf("[SessionHandler] 删除会话失败, session_id: %s, error: %v", sessionID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete session"})
		return
	}

	log.Infof("[SessionHandler] 删除会话成功, session_id: %s", sessionID)
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
