// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"science-mentor-go/internal/config"
	"science-mentor-go/internal/handler"
	"science-mentor-go/internal/middleware"
	"science-mentor-go/internal/repository"
	"science-mentor-go/internal/service"
	"science-mentor-go/pkg/database"
	"science-mentor-go/pkg/llm"
	"science-mentor-go/pkg/log"
	"science-mentor-go/pkg/tika"
)

func main() {
	// 1. 加载 .env（不存在时忽略），再初始化配置
	_ = godotenv.Load()
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库（PostgreSQL 不可用时自动回退 SQLite）
	if err := database.Init(cfg.Database); err != nil {
		log.Fatalf("数据库初始化失败: %v", err)
	}
	db, err := database.Get()
	if err != nil {
		log.Fatalf("数据库不可用: %v", err)
	}

	// 4. 初始化 Repository
	sessionRepo := repository.NewSessionRepository(db, cfg.Database.QueryTimeout)
	messageRepo := repository.NewMessageRepository(db, cfg.Database.QueryTimeout)

	// 5. 初始化 Service (依赖注入)
	factory := llm.NewFactory(cfg.LLM)
	tikaClient := tika.NewClient(cfg.Tika)
	subjectFilter := service.NewSubjectFilter()
	knowledgeService := service.NewKnowledgeService(cfg.Knowledge.Path)
	sessionService := service.NewSessionService(sessionRepo, messageRepo)
	chatService := service.NewChatService(sessionRepo, messageRepo, subjectFilter, knowledgeService, factory, cfg.Chat.ContextPairs)
	quizService := service.NewQuizService(sessionRepo, factory)

	// 6. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	// 添加我们自定义的日志中间件和 Gin 的 Recovery 中间件
	r.Use(middleware.RequestLogger(), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	// 7. 注册路由
	systemHandler := handler.NewSystemHandler(factory, knowledgeService)
	sessionHandler := handler.NewSessionHandler(sessionService)
	chatHandler := handler.NewChatHandler(chatService)
	quizHandler := handler.NewQuizHandler(quizService, cfg.Quiz.NumQuestions, cfg.Quiz.Difficulty)
	extractHandler := handler.NewExtractHandler(tikaClient)

	r.GET("/health", systemHandler.Health)
	r.GET("/providers", systemHandler.Providers)
	r.GET("/topics", systemHandler.Topics)

	sessions := r.Group("/sessions")
	{
		sessions.POST("", sessionHandler.CreateSession)
		sessions.GET("", sessionHandler.ListSessions)
		sessions.GET("/:id/messages", sessionHandler.SessionMessages)
		sessions.DELETE("/:id", sessionHandler.DeleteSession)
	}

	r.POST("/ask", chatHandler.Ask)
	r.POST("/ask/stream", chatHandler.AskStream)

	quiz := r.Group("/quiz")
	{
		quiz.POST("/start", quizHandler.Start)
		quiz.POST("/submit", quizHandler.Submit)
		quiz.POST("/next", quizHandler.Next)
	}

	r.POST("/files/extract", extractHandler.Extract)

	// 8. 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	// 设置一个5秒的超时上下文
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 关闭 HTTP 服务器
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}
	database.Reset()
	log.Info("服务已退出")
}
