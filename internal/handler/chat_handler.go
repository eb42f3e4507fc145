package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"science-mentor-go/internal/service"
	"science-mentor-go/pkg/log"
)

// ChatHandler 结构体定义了提问相关的处理器。
type ChatHandler struct {
	chatService service.ChatService
}

// NewChatHandler 创建一个新的 ChatHandler 实例。
func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

type askRequest struct {
	Question   string `json:"question" binding:"required"`
	SessionID  string `json:"session_id" binding:"required"`
	Provider   string `json:"provider"`
	GuidedMode bool   `json:"guided_mode"`
}

// Ask 处理 POST /ask。
func (h *ChatHandler) Ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question and session_id are required"})
		return
	}

	result, err := h.chatService.Ask(c.Request.Context(), service.AskRequest{
		SessionID:  req.SessionID,
		Question:   req.Question,
		Provider:   req.Provider,
		GuidedMode: req.GuidedMode,
	})
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		log.Errorf("[ChatHandler] 回答生成失败, session_id: %s, error: %v", req.SessionID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate answer"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"answer":     result.Answer,
		"provider":   result.Provider,
		"session_id": result.SessionID,
	})
}

// AskStream 处理 POST /ask/stream，以 SSE 分块推送回答。
// 每个事件是一行 data: {"text": "...", "done": false}，结束时推送 done: true。
func (h *ChatHandler) AskStream(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question and session_id are required"})
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)

	emit := func(chunk string) error {
		payload, err := json.Marshal(gin.H{"text": chunk, "done": false})
		if err != nil {
			return err
		}
		if _, err := c.Writer.Write(append(append([]byte("data: "), payload...), '\n', '\n')); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	result, err := h.chatService.AskStream(c.Request.Context(), service.AskRequest{
		SessionID:  req.SessionID,
		Question:   req.Question,
		Provider:   req.Provider,
		GuidedMode: req.GuidedMode,
	}, emit)
	if err != nil {
		// 响应头已经发出，只能在流里报告错误
		log.Errorf("[ChatHandler] 流式回答失败, session_id: %s, error: %v", req.SessionID, err)
		payload, _ := json.Marshal(gin.H{"error": "failed to generate answer", "done": true})
		c.Writer.Write(append(append([]byte("data: "), payload...), '\n', '\n'))
		flusher.Flush()
		return
	}

	payload, _ := json.Marshal(gin.H{"text": "", "done": true, "provider": result.Provider})
	c.Writer.Write(append(append([]byte("data: "), payload...), '\n', '\n'))
	flusher.Flush()
}
