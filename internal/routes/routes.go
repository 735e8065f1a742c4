package routes

import (
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/roomly-app/MessagingBack/internal/config"
	"github.com/roomly-app/MessagingBack/internal/handlers"
	"github.com/roomly-app/MessagingBack/internal/middleware"
	"github.com/roomly-app/MessagingBack/internal/repository"
	"github.com/roomly-app/MessagingBack/internal/services"
	chatws "github.com/roomly-app/MessagingBack/internal/websocket"
)

func RegisterRoutes(
	app *fiber.App,
	cfg *config.Config,
	db *pgxpool.Pool,
	redisClient *redis.Client,
	logger zerolog.Logger,
) error {
	conversationRepo := repository.NewConversationRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	hub := chatws.NewHub(logger)
	chatService := services.NewChatService(conversationRepo, messageRepo, hub, logger)
	chatHandler := handlers.NewChatHandler(chatService, hub, cfg.JWTSecret)
	healthHandler := handlers.NewHealthHandler(db, redisClient)

	app.Get("/health", healthHandler.Health)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	protected := app.Group("",
		middleware.RateLimit(redisClient, cfg.RateLimitMax, cfg.RateLimitWindow, logger),
		middleware.AuthRequired(cfg.JWTSecret),
	)

	conversations := protected.Group("/conversations")
	conversations.Get("", chatHandler.ListConversations)
	conversations.Post("", chatHandler.CreateConversation)
	conversations.Get("/:id", chatHandler.GetConversation)
	conversations.Get("/:id/messages", chatHandler.GetMessages)
	conversations.Post("/:id/messages", chatHandler.SendMessage)
	conversations.Patch("/:id/read", chatHandler.MarkConversationRead)

	protected.Patch("/messages/:id/status", chatHandler.UpdateMessageStatus)

	// The socket authenticates through its own middleware so browser clients
	// can pass the token as a query parameter.
	app.Use("/ws/chat/:roomId", chatHandler.WebSocketAuth)
	app.Get("/ws/chat/:roomId", websocket.New(chatHandler.HandleWebSocket))

	return registerDocsRoutes(app, cfg)
}
