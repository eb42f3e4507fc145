package handler

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"science-mentor-go/pkg/log"
	"science-mentor-go/pkg/tika"
)

const (
	// maxUploadBytes 限制上传文件体积
	maxUploadBytes = 5 << 20
	// maxExtractedChars 限制提取文本注入提问时的长度
	maxExtractedChars = 10000
	truncationMarker  = "\n\n[... document truncated ...]"
)

// ExtractHandler 结构体定义了文档文本提取的处理器。
type ExtractHandler struct {
	tikaClient *tika.Client
}

// NewExtractHandler 创建一个新的 ExtractHandler 实例。
func NewExtractHandler(tikaClient *tika.Client) *ExtractHandler {
	return &ExtractHandler{tikaClient: tikaClient}
}

// Extract 处理 POST /files/extract：接收上传文件并用 Tika 提取纯文本。
func (h *ExtractHandler) Extract(c *gin.Context) {
	if !h.tikaClient.Configured() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "document extraction is not configured"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if fileHeader.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file exceeds the 5MB limit"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		log.Errorf("[ExtractHandler] 打开上传文件失败, file: %s, error: %v", fileHeader.Filename, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read uploaded file"})
		return
	}
	defer file.Close()

	text, err := h.tikaClient.ExtractText(c.Request.Context(), file, fileHeader.Filename)
	if err != nil {
		log.Errorf("[ExtractHandler] 文本提取失败, file: %s, error: %v", fileHeader.Filename, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to extract text"})
		return
	}

	truncated := false
	if len(text) > maxExtractedChars {
		text = truncateAtWordBoundary(text, maxExtractedChars) + truncationMarker
		truncated = true
	}

	log.Infof("[ExtractHandler] 文本提取成功, file: %s, chars: %d, truncated: %v",
		fileHeader.Filename, len(text), truncated)
	c.JSON(http.StatusOK, gin.H{
		"file_name": fileHeader.Filename,
		"text":      text,
		"truncated": truncated,
	})
}

// truncateAtWordBoundary 在 limit 之前最近的空白处截断，避免把单词拦腰切断。
// 截断点落在多字节字符中间时先退到字符边界。
func truncateAtWordBoundary(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	for limit > 0 && !utf8.RuneStart(text[limit]) {
		limit--
	}
	cut := text[:limit]
	if idx := strings.LastIndexAny(cut, " \t\n"); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " \t\n")
}
