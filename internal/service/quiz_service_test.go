package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"science-mentor-go/internal/config"
	"science-mentor-go/internal/model"
	"science-mentor-go/internal/repository"
	"science-mentor-go/pkg/database"
	"science-mentor-go/pkg/llm"

	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	return db
}

func newQuizFixture(t *testing.T, subject string) (QuizService, repository.SessionRepository, string) {
	t.Helper()
	db := newTestDB(t)
	sessions := repository.NewSessionRepository(db, 0)
	quiz := NewQuizService(sessions, llm.NewFactory(config.LLMConfig{}))

	metadata := map[string]interface{}{}
	if subject != "" {
		metadata["subject"] = subject
	}
	id, err := sessions.Create(context.Background(), metadata)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return quiz, sessions, id
}

func sampleQuestions() []model.QuizQuestion {
	return []model.QuizQuestion{
		{Question: "Which organelle carries out photosynthesis?", Options: []string{"Nucleus", "Chloroplast", "Mitochondria", "Ribosome"}, CorrectIndex: 1, Explanation: "Chloroplasts contain chlorophyll.", Subject: "Biology"},
		{Question: "What is the product of aerobic respiration?", Options: []string{"Lactic acid", "Ethanol", "Carbon dioxide and water", "Glucose"}, CorrectIndex: 2, Explanation: "Glucose is fully oxidised.", Subject: "Biology"},
		{Question: "Which molecule stores genetic information?", Options: []string{"ATP", "DNA", "Starch", "Lipid"}, CorrectIndex: 1, Explanation: "DNA carries the genetic code.", Subject: "Biology"},
	}
}

func TestQuizFullFlow(t *testing.T) {
	quiz, _, id := newQuizFixture(t, "Biology")
	ctx := context.Background()

	first, err := quiz.Start(ctx, id, sampleQuestions())
	if err != nil {
		t.Fatalf("start quiz: %v", err)
	}
	if first.Index != 0 || first.Total != 3 {
		t.Fatalf("expected first question 0/3, got %d/%d", first.Index, first.Total)
	}

	// 第 1 题答对
	result, err := quiz.Submit(ctx, id, 1)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !result.IsCorrect || result.Score != 1 {
		t.Fatalf("expected correct answer with score 1, got %+v", result)
	}
	if result.CorrectIndex != 1 || result.Explanation == "" {
		t.Fatalf("result should reveal answer and explanation, got %+v", result)
	}

	next, err := quiz.Advance(ctx, id)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if next.Completed || next.Question == nil || next.Question.Index != 1 {
		t.Fatalf("expected question 1, got %+v", next)
	}

	// 第 2 题答错，分数不变
	result, err = quiz.Submit(ctx, id, 0)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.IsCorrect || result.Score != 1 {
		t.Fatalf("expected wrong answer with score still 1, got %+v", result)
	}

	if _, err = quiz.Advance(ctx, id); err != nil {
		t.Fatalf("advance: %v", err)
	}

	// 第 3 题答对
	result, err = quiz.Submit(ctx, id, 1)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !result.IsCorrect || result.Score != 2 {
		t.Fatalf("expected score 2, got %+v", result)
	}

	// 越过最后一题结束测验
	summary, err := quiz.Advance(ctx, id)
	if err != nil {
		t.Fatalf("final advance: %v", err)
	}
	if !summary.Completed || summary.Score != 2 || summary.Total != 3 {
		t.Fatalf("expected completed summary 2/3, got %+v", summary)
	}

	// 完成后不再接受作答，但继续推进始终返回同一份摘要
	if _, err = quiz.Submit(ctx, id, 0); !errors.Is(err, ErrNoActiveQuiz) {
		t.Fatalf("expected ErrNoActiveQuiz after completion, got %v", err)
	}
	again, err := quiz.Advance(ctx, id)
	if err != nil {
		t.Fatalf("advance on completed quiz: %v", err)
	}
	if !again.Completed || again.Score != 2 || again.Total != 3 {
		t.Fatalf("expected the completed summary again, got %+v", again)
	}
}

func TestQuizStartRequiresSubject(t *testing.T) {
	quiz, _, id := newQuizFixture(t, "")

	if _, err := quiz.Start(context.Background(), id, sampleQuestions()); !errors.Is(err, ErrNoSubject) {
		t.Fatalf("expected ErrNoSubject, got %v", err)
	}
}

func TestQuizOperationsWithoutState(t *testing.T) {
	quiz, _, id := newQuizFixture(t, "Physics")
	ctx := context.Background()

	if _, err := quiz.Submit(ctx, id, 0); !errors.Is(err, ErrNoActiveQuiz) {
		t.Fatalf("expected ErrNoActiveQuiz, got %v", err)
	}
	if _, err := quiz.Advance(ctx, id); !errors.Is(err, ErrNoActiveQuiz) {
		t.Fatalf("expected ErrNoActiveQuiz, got %v", err)
	}
	if _, err := quiz.Submit(ctx, "no-such-session", 0); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestQuizRestartReplacesState(t *testing.T) {
	quiz, _, id := newQuizFixture(t, "Biology")
	ctx := context.Background()

	if _, err := quiz.Start(ctx, id, sampleQuestions()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := quiz.Submit(ctx, id, 1); err != nil {
		t.Fatalf("submit: %v", err)
	}

	// 重新开始覆盖旧状态，分数归零
	first, err := quiz.Start(ctx, id, sampleQuestions())
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if first.Index != 0 {
		t.Fatalf("expected restart at question 0, got %d", first.Index)
	}
	result, err := quiz.Submit(ctx, id, 1)
	if err != nil {
		t.Fatalf("submit after restart: %v", err)
	}
	if result.Score != 1 {
		t.Fatalf("expected fresh score 1, got %d", result.Score)
	}
}

func TestQuizDuplicateSubmissionCountsAgain(t *testing.T) {
	quiz, _, id := newQuizFixture(t, "Biology")
	ctx := context.Background()

	if _, err := quiz.Start(ctx, id, sampleQuestions()); err != nil {
		t.Fatalf("start: %v", err)
	}
	quiz.Submit(ctx, id, 1)
	result, err := quiz.Submit(ctx, id, 1)
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	// 同一题重复提交不去重，每次都计入分数与答题历史
	if result.Score != 2 {
		t.Fatalf("expected duplicate submission to count again, score=%d", result.Score)
	}
}

func TestParseQuizQuestions(t *testing.T) {
	fenced := "```json\n[{\"question\": \"Q1?\", \"options\": [\"a\", \"b\", \"c\", \"d\"], \"correct_index\": 0, \"explanation\": \"because\", \"subject\": \"Physics\"}]\n```"
	questions, err := parseQuizQuestions(fenced)
	if err != nil {
		t.Fatalf("parse fenced output: %v", err)
	}
	if len(questions) != 1 || questions[0].Question != "Q1?" {
		t.Fatalf("unexpected parse result: %+v", questions)
	}

	prose := "Here are your questions:\n[{\"question\": \"Q1?\", \"options\": [\"a\", \"b\"], \"correct_index\": 1, \"explanation\": \"x\", \"subject\": \"Chemistry\"}]\nGood luck!"
	questions, err = parseQuizQuestions(prose)
	if err != nil {
		t.Fatalf("parse output with surrounding prose: %v", err)
	}
	if questions[0].CorrectIndex != 1 {
		t.Fatalf("unexpected parse result: %+v", questions)
	}

	for _, bad := range []string{"no json here", "[]", "[{\"options\": [\"a\"]}]"} {
		if _, err := parseQuizQuestions(bad); err == nil {
			t.Fatalf("expected parse error for %q", bad)
		}
	}
}
