package main

import (
	"context"
	"log"

	"github.com/HiroshigeAoki/slack-game-master/internal/cache"
	"github.com/HiroshigeAoki/slack-game-master/internal/config"
	"github.com/HiroshigeAoki/slack-game-master/internal/database"
	"github.com/HiroshigeAoki/slack-game-master/internal/events"
	"github.com/HiroshigeAoki/slack-game-master/internal/handlers"
	"github.com/HiroshigeAoki/slack-game-master/internal/middleware"
	"github.com/HiroshigeAoki/slack-game-master/internal/services"
	"github.com/HiroshigeAoki/slack-game-master/internal/slackbridge"
	"github.com/HiroshigeAoki/slack-game-master/internal/store"
	"github.com/HiroshigeAoki/slack-game-master/internal/ws"

	_ "github.com/HiroshigeAoki/slack-game-master/docs"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/slack-go/slack"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Game Master API
// @version         1.0
// @description     API for the Slack deception game: Slack entry points plus a staff dashboard
// @host            localhost:8080
// @BasePath        /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Enter "Bearer {token}"

func main() {
	cfg := config.Load()

	db := database.Connect(cfg)
	database.AutoMigrate(db)

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer asynqClient.Close()

	slackAPI := slack.New(cfg.SlackBotToken)
	userCache := cache.NewUserCache(redisClient, 0)
	bridge := slackbridge.New(slackAPI, userCache)

	sessionStore := store.NewGormStore(db)
	gameService := services.NewGameService(sessionStore, cfg.StaffUserIDs)
	authService := services.NewStaffAuthService(db, cfg.JWTSecret)

	hub := ws.NewHub()
	go events.Subscribe(context.Background(), redisClient, func(ev events.Event) {
		hub.Broadcast(ev.ChannelID, ws.WSMessage{Type: ev.Type, Data: ev.Session})
	})

	slashHandler := handlers.NewSlashHandler(gameService, bridge, asynqClient)
	interactionHandler := handlers.NewInteractionHandler(gameService, asynqClient)
	authHandler := handlers.NewAuthHandler(authService)
	adminHandler := handlers.NewAdminHandler(gameService)
	wsHandler := handlers.NewWSHandler(hub)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/ws/monitor/:channel_id", wsHandler.HandleWebSocket)

	slackGroup := r.Group("/slack")
	slackGroup.Use(middleware.SlackSignature(cfg.SlackSigningSecret))
	{
		slackGroup.POST("/commands", slashHandler.HandleCommand)
		slackGroup.POST("/interactions", interactionHandler.HandleInteraction)
	}

	api := r.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		sessions := api.Group("/sessions")
		sessions.Use(middleware.JWTAuth(authService))
		{
			sessions.GET("", adminHandler.ListSessions)
			sessions.GET("/:channel_id", adminHandler.GetSession)
			sessions.POST("/:channel_id/undo", adminHandler.UndoDone)
		}
	}

	log.Printf("server starting on :%s", cfg.ServerPort)
	if err := r.Run(":" + cfg.ServerPort); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
