package repository

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"science-mentor-go/internal/config"
	"science-mentor-go/internal/model"
	"science-mentor-go/pkg/database"

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

func TestSessionCreateExistsAndSubject(t *testing.T) {
	db := newTestDB(t)
	repo := NewSessionRepository(db, 0)
	ctx := context.Background()

	id, err := repo.Create(ctx, map[string]interface{}{"subject": "Biology"})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if id == "" {
		t.Fatal("expected a non-empty session id")
	}

	exists, err := repo.Exists(ctx, id)
	if err != nil || !exists {
		t.Fatalf("expected session %s to exist, got exists=%v err=%v", id, exists, err)
	}
	exists, err = repo.Exists(ctx, "no-such-session")
	if err != nil || exists {
		t.Fatalf("expected unknown session to not exist, got exists=%v err=%v", exists, err)
	}

	subject, err := repo.GetSubject(ctx, id)
	if err != nil {
		t.Fatalf("get subject: %v", err)
	}
	if subject != "Biology" {
		t.Fatalf("expected subject Biology, got %q", subject)
	}

	// 没有设置 subject 的会话返回空字符串
	plain, err := repo.Create(ctx, nil)
	if err != nil {
		t.Fatalf("create session without metadata: %v", err)
	}
	subject, err = repo.GetSubject(ctx, plain)
	if err != nil {
		t.Fatalf("get subject: %v", err)
	}
	if subject != "" {
		t.Fatalf("expected empty subject, got %q", subject)
	}
}

func TestSessionListOrdersByRecentActivity(t *testing.T) {
	db := newTestDB(t)
	repo := NewSessionRepository(db, 0)
	ctx := context.Background()

	first, _ := repo.Create(ctx, nil)
	time.Sleep(10 * time.Millisecond)
	second, _ := repo.Create(ctx, nil)
	time.Sleep(10 * time.Millisecond)

	// 元数据写入推进 updated_at，第一个会话应排到最前
	if _, err := repo.UpdateMetadataKey(ctx, first, "subject", "Physics"); err != nil {
		t.Fatalf("update metadata: %v", err)
	}

	sessions, err := repo.List(ctx, 10)
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	if sessions[0].ID != first || sessions[1].ID != second {
		t.Fatalf("expected order [%s %s], got [%s %s]", first, second, sessions[0].ID, sessions[1].ID)
	}
}

func TestUpdateTitleNormalization(t *testing.T) {
	db := newTestDB(t)
	repo := NewSessionRepository(db, 0)
	ctx := context.Background()

	id, _ := repo.Create(ctx, nil)

	long := strings.Repeat("a", 64)
	if err := repo.UpdateTitle(ctx, id, long); err != nil {
		t.Fatalf("update title: %v", err)
	}
	var session model.Session
	if err := db.First(&session, "id = ?", id).Error; err != nil {
		t.Fatalf("load session: %v", err)
	}
	if len([]rune(session.Title)) != 50 {
		t.Fatalf("expected title truncated to 50 runes, got %d", len([]rune(session.Title)))
	}

	if err := repo.UpdateTitle(ctx, id, ""); err != nil {
		t.Fatalf("update title: %v", err)
	}
	if err := db.First(&session, "id = ?", id).Error; err != nil {
		t.Fatalf("load session: %v", err)
	}
	if session.Title != "New Chat" {
		t.Fatalf("expected placeholder title, got %q", session.Title)
	}
}

func TestDeleteRemovesSessionAndMessages(t *testing.T) {
	db := newTestDB(t)
	sessions := NewSessionRepository(db, 0)
	messages := NewMessageRepository(db, 0)
	ctx := context.Background()

	id, _ := sessions.Create(ctx, nil)
	if _, err := messages.Append(ctx, id, model.RoleUser, "What is osmosis?", ""); err != nil {
		t.Fatalf("append message: %v", err)
	}
	if _, err := messages.Append(ctx, id, model.RoleAssistant, "Osmosis is...", "openai"); err != nil {
		t.Fatalf("append message: %v", err)
	}

	deleted, err := sessions.Delete(ctx, id)
	if err != nil || !deleted {
		t.Fatalf("expected delete to succeed, got deleted=%v err=%v", deleted, err)
	}

	exists, _ := sessions.Exists(ctx, id)
	if exists {
		t.Fatal("session should be gone after delete")
	}
	var count int64
	db.Model(&model.Message{}).Where("session_id = ?", id).Count(&count)
	if count != 0 {
		t.Fatalf("expected 0 orphan messages, got %d", count)
	}

	// 再次删除同一会话不是错误，只是报告没有删到东西
	deleted, err = sessions.Delete(ctx, id)
	if err != nil || deleted {
		t.Fatalf("expected second delete to be a no-op, got deleted=%v err=%v", deleted, err)
	}
}

func TestUpdateMetadataKeyPreservesOtherKeys(t *testing.T) {
	db := newTestDB(t)
	repo := NewSessionRepository(db, 0)
	ctx := context.Background()

	id, _ := repo.Create(ctx, map[string]interface{}{"subject": "Chemistry"})

	found, err := repo.UpdateMetadataKey(ctx, id, "quiz", map[string]interface{}{"score": 2})
	if err != nil || !found {
		t.Fatalf("update metadata: found=%v err=%v", found, err)
	}

	metadata, err := repo.GetMetadata(ctx, id)
	if err != nil {
		t.Fatalf("get metadata: %v", err)
	}
	if metadata["subject"] != "Chemistry" {
		t.Fatalf("subject key was lost, metadata: %v", metadata)
	}
	if metadata["quiz"] == nil {
		t.Fatalf("quiz key missing, metadata: %v", metadata)
	}

	found, err = repo.UpdateMetadataKey(ctx, "no-such-session", "quiz", 1)
	if err != nil {
		t.Fatalf("update metadata on missing session: %v", err)
	}
	if found {
		t.Fatal("expected found=false for a missing session")
	}
}

func TestGetMetadataToleratesCorruptDocument(t *testing.T) {
	db := newTestDB(t)
	repo := NewSessionRepository(db, 0)
	ctx := context.Background()

	id, _ := repo.Create(ctx, map[string]interface{}{"subject": "Physics"})
	if err := db.Exec("UPDATE sessions SET metadata = ? WHERE id = ?", "{not json", id).Error; err != nil {
		t.Fatalf("corrupt metadata: %v", err)
	}

	metadata, err := repo.GetMetadata(ctx, id)
	if err != nil {
		t.Fatalf("expected corrupt metadata to degrade, got error: %v", err)
	}
	if len(metadata) != 0 {
		t.Fatalf("expected empty document, got %v", metadata)
	}
}
