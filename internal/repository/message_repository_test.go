package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"science-mentor-go/internal/model"
)

func TestRecentReturnsOldestFirstWithinLimit(t *testing.T) {
	db := newTestDB(t)
	sessions := NewSessionRepository(db, 0)
	messages := NewMessageRepository(db, 0)
	ctx := context.Background()

	id, _ := sessions.Create(ctx, nil)
	for i := 0; i < 5; i++ {
		if _, err := messages.Append(ctx, id, model.RoleUser, fmt.Sprintf("question %d", i), ""); err != nil {
			t.Fatalf("append message %d: %v", i, err)
		}
	}

	recent, err := messages.Recent(ctx, id, 3)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(recent))
	}
	// 窗口取最近 3 条，但呈现顺序是旧在前
	want := []string{"question 2", "question 3", "question 4"}
	for i, m := range recent {
		if m.Content != want[i] {
			t.Fatalf("position %d: expected %q, got %q", i, want[i], m.Content)
		}
	}
}

func TestAppendRecordsProviderOnlyForAssistant(t *testing.T) {
	db := newTestDB(t)
	sessions := NewSessionRepository(db, 0)
	messages := NewMessageRepository(db, 0)
	ctx := context.Background()

	id, _ := sessions.Create(ctx, nil)
	messages.Append(ctx, id, model.RoleUser, "What is an atom?", "")
	messages.Append(ctx, id, model.RoleAssistant, "An atom is...", "gemini")

	recent, err := messages.Recent(ctx, id, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(recent))
	}
	if recent[0].Provider != nil {
		t.Fatalf("user message should have no provider, got %v", *recent[0].Provider)
	}
	if recent[1].Provider == nil || *recent[1].Provider != "gemini" {
		t.Fatalf("assistant message should carry its provider, got %v", recent[1].Provider)
	}
}

func TestContextWindowBoundsHistoryPairs(t *testing.T) {
	db := newTestDB(t)
	sessions := NewSessionRepository(db, 0)
	messages := NewMessageRepository(db, 0)
	ctx := context.Background()

	id, _ := sessions.Create(ctx, nil)
	for i := 0; i < 4; i++ {
		messages.Append(ctx, id, model.RoleUser, fmt.Sprintf("q%d", i), "")
		messages.Append(ctx, id, model.RoleAssistant, fmt.Sprintf("a%d", i), "openai")
	}

	window, err := messages.ContextWindow(ctx, id, 2)
	if err != nil {
		t.Fatalf("context window: %v", err)
	}
	if len(window) != 4 {
		t.Fatalf("expected 4 messages (2 pairs), got %d", len(window))
	}
	if window[0].Content != "q2" || window[3].Content != "a3" {
		t.Fatalf("unexpected window contents: %+v", window)
	}
	if window[0].Role != model.RoleUser || window[1].Role != model.RoleAssistant {
		t.Fatalf("unexpected roles in window: %+v", window)
	}
}

func TestAppendAdvancesSessionUpdatedAt(t *testing.T) {
	db := newTestDB(t)
	sessions := NewSessionRepository(db, 0)
	messages := NewMessageRepository(db, 0)
	ctx := context.Background()

	id, _ := sessions.Create(ctx, nil)
	var before model.Session
	if err := db.First(&before, "id = ?", id).Error; err != nil {
		t.Fatalf("load session: %v", err)
	}

	time.Sleep(10 * time.Millisecond)
	if _, err := messages.Append(ctx, id, model.RoleUser, "hello", ""); err != nil {
		t.Fatalf("append: %v", err)
	}

	var after model.Session
	if err := db.First(&after, "id = ?", id).Error; err != nil {
		t.Fatalf("load session: %v", err)
	}
	if !after.UpdatedAt.After(before.UpdatedAt) {
		t.Fatalf("expected updated_at to advance: before=%v after=%v", before.UpdatedAt, after.UpdatedAt)
	}
}
