package handler

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"science-mentor-go/internal/config"
	"science-mentor-go/internal/repository"
	"science-mentor-go/internal/service"
	"science-mentor-go/pkg/database"
	"science-mentor-go/pkg/llm"
)

func newQuizRouter(t *testing.T) (*gin.Engine, repository.SessionRepository) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Open(config.DatabaseConfig{
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	sessions := repository.NewSessionRepository(db, 0)
	quiz := service.NewQuizService(sessions, llm.NewFactory(config.LLMConfig{}))
	handler := NewQuizHandler(quiz, 5, "medium")

	r := gin.New()
	r.POST("/quiz/start", handler.Start)
	return r, sessions
}

func TestQuizStartUnknownSessionReturns404(t *testing.T) {
	r, _ := newQuizRouter(t)

	// 前置条件失败要在题目生成之前就返回
	w, body := doJSON(t, r, http.MethodPost, "/quiz/start", map[string]string{
		"session_id": "no-such-session",
		"subject":    "Biology",
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d (%s)", w.Code, w.Body.String())
	}
	if body["error"] != "session not found" {
		t.Fatalf("unexpected error payload: %v", body)
	}
}

func TestQuizStartWithoutSubjectReturns400(t *testing.T) {
	r, sessions := newQuizRouter(t)

	id, err := sessions.Create(context.Background(), nil)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	w, body := doJSON(t, r, http.MethodPost, "/quiz/start", map[string]string{
		"session_id": id,
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d (%s)", w.Code, w.Body.String())
	}
	if body["error"] == nil {
		t.Fatalf("expected an error payload, got %v", body)
	}
}
