// Package main is the application entry point.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"doc-chat-go/internal/config"
	"doc-chat-go/internal/handler"
	"doc-chat-go/internal/middleware"
	"doc-chat-go/internal/model"
	"doc-chat-go/internal/pipeline"
	"doc-chat-go/internal/repository"
	"doc-chat-go/internal/service"
	"doc-chat-go/pkg/database"
	"doc-chat-go/pkg/embedding"
	"doc-chat-go/pkg/kafka"
	"doc-chat-go/pkg/llm"
	"doc-chat-go/pkg/log"
	"doc-chat-go/pkg/storage"
	"doc-chat-go/pkg/tika"
	"doc-chat-go/pkg/token"

	"github.com/gin-gonic/gin"
)

func main() {
	configPath := flag.String("config", "./configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync()
	log.Info("logger initialized")

	db, err := database.NewMySQL(cfg.Database.MySQL.DSN)
	if err != nil {
		log.Fatalf("failed to connect to MySQL: %v", err)
	}
	if err := db.AutoMigrate(
		&model.User{},
		&model.Document{},
		&model.Conversation{},
		&model.ConversationDocument{},
		&model.Message{},
	); err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}

	redisClient, err := database.NewRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	if err != nil {
		log.Warnf("redis unavailable, history cache disabled: %v", err)
		redisClient = nil
	}

	blobStore, err := storage.NewClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to connect to MinIO: %v", err)
	}

	producer := kafka.NewProducer(cfg.Kafka)
	defer producer.Close()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	messageRepo := repository.NewMessageRepository(db, redisClient)

	// Clients and services.
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpireHours, cfg.JWT.RefreshTokenExpireDays)
	tikaClient := tika.NewClient(cfg.Tika)
	embeddingClient := embedding.NewClient(cfg.Embedding)
	llmClient := llm.NewClient(cfg.LLM)
	indexBuilder := pipeline.NewBuilder(embeddingClient)

	guard := service.NewAccessGuard(conversationRepo)
	userService := service.NewUserService(userRepo, jwtManager)
	documentService := service.NewDocumentService(cfg, documentRepo, conversationRepo, guard, tikaClient, indexBuilder, blobStore, producer)
	retrievalService := service.NewRetrievalService(cfg, conversationRepo, embeddingClient)
	historyService := service.NewHistoryService(cfg, messageRepo)
	chatService := service.NewChatService(cfg, guard, historyService, retrievalService, messageRepo, llmClient)
	conversationService := service.NewConversationService(conversationRepo, messageRepo, guard)

	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())

	userHandler := handler.NewUserHandler(userService)
	uploadHandler := handler.NewUploadHandler(documentService)
	conversationHandler := handler.NewConversationHandler(conversationService)
	chatHandler := handler.NewChatHandler(chatService, jwtManager)

	api := r.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", userHandler.Register)
			auth.POST("/login", userHandler.Login)
			auth.POST("/refresh", userHandler.Refresh)
		}

		users := api.Group("/users")
		users.Use(middleware.RequireAuth(jwtManager))
		{
			users.GET("/me", userHandler.Profile)
		}

		// Document and conversation routes serve anonymous callers too;
		// the access guard decides per conversation.
		documents := api.Group("/documents")
		documents.Use(middleware.OptionalAuth(jwtManager))
		{
			documents.POST("", uploadHandler.Upload)
		}

		conversations := api.Group("/conversations")
		conversations.Use(middleware.OptionalAuth(jwtManager))
		{
			conversations.GET("", conversationHandler.List)
			conversations.GET("/:id/documents", uploadHandler.ListDocuments)
			conversations.GET("/:id/messages", conversationHandler.ListMessages)
		}
	}
	// WebSocket chat carries its token in the query string.
	r.GET("/api/v1/ws/chat/:id", chatHandler.Handle)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %s", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutdown signal received, stopping server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server shutdown failed: %v", err)
	}
	log.Info("server stopped")
}
