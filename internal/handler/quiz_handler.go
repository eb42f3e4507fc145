package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"science-mentor-go/internal/service"
	"science-mentor-go/pkg/log"
)

// QuizHandler 结构体定义了测验相关的处理器。
type QuizHandler struct {
	quizService  service.QuizService
	numQuestions int
	difficulty   string
}

// NewQuizHandler 创建一个新的 QuizHandler 实例。
// numQuestions 与 difficulty 是请求未指定时的默认值。
func NewQuizHandler(quizService service.QuizService, numQuestions int, difficulty string) *QuizHandler {
	if numQuestions <= 0 {
		numQuestions = 5
	}
	if difficulty == "" {
		difficulty = "medium"
	}
	return &QuizHandler{quizService: quizService, numQuestions: numQuestions, difficulty: difficulty}
}

type quizStartRequest struct {
	SessionID    string `json:"session_id" binding:"required"`
	Subject      string `json:"subject"`
	Topic        string `json:"topic"`
	Difficulty   string `json:"difficulty"`
	NumQuestions int    `json:"num_questions"`
	Provider     string `json:"provider"`
}

// Start 处理 POST /quiz/start：生成题目并在会话上开启测验。
func (h *QuizHandler) Start(c *gin.Context) {
	var req quizStartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required"})
		return
	}
	if req.NumQuestions <= 0 {
		req.NumQuestions = h.numQuestions
	}
	if req.Difficulty == "" {
		req.Difficulty = h.difficulty
	}

	// 先校验会话与学科，再花钱做题目生成
	if err := h.quizService.EnsureStartable(c.Request.Context(), req.SessionID); err != nil {
		h.writeQuizError(c, req.SessionID, err)
		return
	}

	questions, err := h.quizService.GenerateQuestions(
		c.Request.Context(), req.Provider, req.Subject, req.Topic, req.Difficulty, req.NumQuestions)
	if err != nil {
		log.Errorf("[QuizHandler] 生成题目失败, session_id: %s, error: %v", req.SessionID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate quiz questions"})
		return
	}

	question, err := h.quizService.Start(c.Request.Context(), req.SessionID, questions)
	if err != nil {
		h.writeQuizError(c, req.SessionID, err)
		return
	}

	log.Infof("[QuizHandler] 测验开始, session_id: %s, questions: %d", req.SessionID, question.Total)
	c.JSON(http.StatusOK, gin.H{"question": question, "total": question.Total})
}

type quizSubmitRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Selected  *int   `json:"selected" binding:"required"`
}

// Submit 处理 POST /quiz/submit：判定当前题的作答。
func (h *QuizHandler) Submit(c *gin.Context) {
	var req quizSubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id and selected are required"})
		return
	}

	result, err := h.quizService.Submit(c.Request.Context(), req.SessionID, *req.Selected)
	if err != nil {
		h.writeQuizError(c, req.SessionID, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type quizNextRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

// Next 处理 POST /quiz/next：推进到下一题或结束测验。
func (h *QuizHandler) Next(c *gin.Context) {
	var req quizNextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required"})
		return
	}

	result, err := h.quizService.Advance(c.Request.Context(), req.SessionID)
	if err != nil {
		h.writeQuizError(c, req.SessionID, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// writeQuizError 把测验服务的哨兵错误翻译为 HTTP 状态码。
func (h *QuizHandler) writeQuizError(c *gin.Context, sessionID string, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
	case errors.Is(err, service.ErrNoSubject):
		c.JSON(http.StatusBadRequest, gin.H{"error": "session has no subject selected"})
	case errors.Is(err, service.ErrNoActiveQuiz):
		c.JSON(http.StatusBadRequest, gin.H{"error": "no active quiz in this session"})
	case errors.Is(err, service.ErrQuizFinished):
		c.JSON(http.StatusBadRequest, gin.H{"error": "quiz already finished"})
	default:
		log.Errorf("[QuizHandler] 测验操作失败, session_id: %s, error: %v", sessionID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "quiz operation failed"})
	}
}
