package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"messenger/internal/assistant"
	"messenger/internal/auth"
	"messenger/internal/chat"
	"messenger/internal/db"
	"messenger/internal/handlers"
	"messenger/internal/middleware"
	"messenger/internal/observability"
	"messenger/internal/presence"
	"messenger/internal/rabbitmq"
	"messenger/internal/repositories"
	"messenger/internal/telemetry"
	"messenger/internal/ws"
)

func main() {
	database, err := db.Connect()
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	shutdownTracing := observability.InitTracing(context.Background(), "messenger", getEnv("OTLP_ENDPOINT", ""))
	defer func() {
		_ = shutdownTracing(context.Background())
	}()

	publisher := rabbitmq.NewPublisher(getEnv("AMQP_URL", ""), getEnv("AMQP_EXCHANGE", "messenger.events"))
	defer publisher.Close()
	observability.SetPublisher(publisher)

	auditEmitter := telemetry.NewAuditEmitter(publisher, "audit.messenger", "messenger", getEnv("ENV", "dev"))

	tokenTTL := 720 * time.Hour
	if hours, err := strconv.Atoi(getEnv("TOKEN_TTL_HOURS", "")); err == nil && hours > 0 {
		tokenTTL = time.Duration(hours) * time.Hour
	}
	tokens := auth.NewTokenService(getEnv("JWT_SECRET", "jwt-secret-string"), tokenTTL)
	hasher := auth.NewPasswordHasher(0)
	googleProvider := auth.NewGoogleProvider(getEnv("GOOGLE_CLIENT_ID", ""), getEnv("GOOGLE_TOKENINFO_URL", ""))
	gemini := assistant.NewGeminiClient(getEnv("GEMINI_API_KEY", ""), getEnv("GEMINI_API_URL", ""))

	userRepo := repositories.NewUserRepo(database)
	chatRepo := repositories.NewChatRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	reactionRepo := repositories.NewReactionRepo(database)
	noteRepo := repositories.NewNoteRepo(database)

	router := ws.NewRouter(chatRepo)
	tracker := presence.NewTracker(userRepo, chatRepo, router)
	ingest := chat.NewIngest(chatRepo, messageRepo, userRepo, router)

	authHandler := handlers.NewAuthHandler(userRepo, tokens, hasher, googleProvider, auditEmitter)
	userHandler := handlers.NewUserHandler(userRepo)
	chatHandler := handlers.NewChatHandler(chatRepo, messageRepo, reactionRepo, userRepo, ingest)
	noteHandler := handlers.NewNoteHandler(noteRepo)
	assistantHandler := handlers.NewAssistantHandler(userRepo, gemini)
	socketHandler := ws.NewSocketHandler(router, tokens, tracker, ingest)

	engine := gin.Default()

	// middlewares
	engine.Use(gin.Recovery())
	engine.Use(observability.HTTPMetricsMiddleware())
	engine.Use(otelgin.Middleware("messenger"))

	authMiddleware := middleware.AuthMiddleware(tokens)

	engine.POST("/api/auth/register", authHandler.Register)
	engine.POST("/api/auth/login", authHandler.Login)
	engine.POST("/api/auth/google", authHandler.GoogleSignIn)
	engine.GET("/api/auth/me", authMiddleware, authHandler.Me)
	engine.PUT("/api/auth/profile", authMiddleware, authHandler.UpdateProfile)

	engine.GET("/api/users/search", authMiddleware, userHandler.Search)

	engine.GET("/api/chats", authMiddleware, chatHandler.ListChats)
	engine.POST("/api/chats", authMiddleware, chatHandler.CreateChat)
	engine.GET("/api/chats/:chat_id/messages", authMiddleware, chatHandler.GetChatMessages)
	engine.POST("/api/chats/:chat_id/messages", authMiddleware, chatHandler.PostChatMessage)
	engine.POST("/api/chats/:chat_id/messages/:message_id/reactions", authMiddleware, chatHandler.AddReaction)
	engine.DELETE("/api/chats/:chat_id/messages/:message_id/reactions", authMiddleware, chatHandler.RemoveReaction)

	engine.GET("/api/notes", authMiddleware, noteHandler.ListNotes)
	engine.POST("/api/notes", authMiddleware, noteHandler.CreateNote)
	engine.PUT("/api/notes/:note_id", authMiddleware, noteHandler.UpdateNote)
	engine.DELETE("/api/notes/:note_id", authMiddleware, noteHandler.DeleteNote)

	engine.POST("/api/ai/chat", authMiddleware, assistantHandler.Chat)

	engine.GET("/ws", socketHandler.Handle)

	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.RegisterDebugRoutes(engine, auditEmitter, getEnv("DEBUG_ROUTES", "") == "true")

	port := getEnv("PORT", "8080")
	if err := engine.Run(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
