package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"science-mentor-go/internal/service"
	"science-mentor-go/pkg/llm"
)

// SystemHandler 提供健康检查、提供商列表与主题列表接口。
type SystemHandler struct {
	factory   *llm.Factory
	knowledge *service.KnowledgeService
}

// NewSystemHandler 创建一个新的 SystemHandler 实例。
func NewSystemHandler(factory *llm.Factory, knowledge *service.KnowledgeService) *SystemHandler {
	return &SystemHandler{factory: factory, knowledge: knowledge}
}

// Health 处理 GET /health。
func (h *SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "SCIENCEMENTOR"})
}

// Providers 处理 GET /providers。
func (h *SystemHandler) Providers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"available": h.factory.Available(),
		"all":       h.factory.All(),
		"default":   h.factory.Default(),
	})
}

// Topics 处理 GET /topics。
func (h *SystemHandler) Topics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"topics": h.knowledge.Topics()})
}
