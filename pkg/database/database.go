// Package database 负责选择并初始化会话存储后端。
//
// 后端在进程启动时一次性选定：DATABASE_URL 配置为可识别的 PostgreSQL
// 连接串时使用网络后端，否则（包括 PostgreSQL 启动时不可达）回退到
// 嵌入式 SQLite 单文件库，两种后端对上层语义完全一致。
package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"science-mentor-go/internal/config"
	"science-mentor-go/internal/model"
	"science-mentor-go/pkg/log"
)

var (
	mu sync.Mutex
	db *gorm.DB
)

// Init 按配置建立全局数据库连接并确保 schema 存在。重复调用是无害的。
func Init(cfg config.DatabaseConfig) error {
	mu.Lock()
	defer mu.Unlock()
	if db != nil {
		return nil
	}

	conn, err := Open(cfg)
	if err != nil {
		return err
	}
	db = conn
	return nil
}

// Get 返回全局数据库连接，首次调用时按 config.Conf 惰性初始化。
func Get() (*gorm.DB, error) {
	mu.Lock()
	defer mu.Unlock()
	if db == nil {
		conn, err := Open(config.Conf.Database)
		if err != nil {
			return nil, err
		}
		db = conn
	}
	return db, nil
}

// Reset 关闭并清空全局连接，供测试在用例之间隔离状态。
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	if db == nil {
		return
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	db = nil
}

// Open 建立一个独立的数据库连接（不触碰全局状态），并幂等地确保 schema。
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	conn, err := openBackend(cfg)
	if err != nil {
		return nil, err
	}

	ensureSchema(conn)

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return conn, nil
}

// openBackend 选择后端：PostgreSQL URL 优先，失败时降级为 SQLite 并记录警告。
func openBackend(cfg config.DatabaseConfig) (*gorm.DB, error) {
	if isPostgresURL(cfg.URL) {
		conn, err := gorm.Open(postgres.Open(cfg.URL), &gorm.Config{})
		if err == nil {
			log.Info("PostgreSQL database connected successfully")
			return conn, nil
		}
		// 非致命降级：网络后端不可用时退回嵌入式库
		log.Warnf("PostgreSQL 连接失败，回退到 SQLite: %v", err)
	}

	path := cfg.SQLitePath
	if path == "" {
		path = "data/chat_history.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
		}
	}
	conn, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	log.Infof("SQLite database opened at %s", path)
	return conn, nil
}

// ensureSchema 幂等地创建 sessions / messages 表及缺失的列与索引。
// 对已打过补丁的库，迁移语句的失败只记录日志，不会中断启动。
func ensureSchema(conn *gorm.DB) {
	if err := conn.AutoMigrate(&model.Session{}, &model.Message{}); err != nil {
		log.Warnf("schema migration error (ignored): %v", err)
	}
}

func isPostgresURL(url string) bool {
	return strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://")
}
