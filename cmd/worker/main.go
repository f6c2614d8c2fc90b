package main

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/HiroshigeAoki/slack-game-master/internal/alert"
	"github.com/HiroshigeAoki/slack-game-master/internal/cache"
	"github.com/HiroshigeAoki/slack-game-master/internal/config"
	"github.com/HiroshigeAoki/slack-game-master/internal/database"
	"github.com/HiroshigeAoki/slack-game-master/internal/events"
	"github.com/HiroshigeAoki/slack-game-master/internal/services"
	"github.com/HiroshigeAoki/slack-game-master/internal/sheets"
	"github.com/HiroshigeAoki/slack-game-master/internal/slackbridge"
	"github.com/HiroshigeAoki/slack-game-master/internal/store"
	"github.com/HiroshigeAoki/slack-game-master/internal/tasks"
	"github.com/HiroshigeAoki/slack-game-master/internal/transcript"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/slack-go/slack"
)

func main() {
	cfg := config.Load()

	db := database.Connect(cfg)
	database.AutoMigrate(db)

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})

	slackAPI := slack.New(cfg.SlackBotToken)
	userCache := cache.NewUserCache(redisClient, 0)
	bridge := slackbridge.New(slackAPI, userCache)

	sheetsClient, err := sheets.New(context.Background(), cfg.GoogleCredentialsFile, cfg.MasterSheetID, cfg.DialogueSheetID)
	if err != nil {
		log.Fatalf("failed to create sheets client: %v", err)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatalf("bad timezone %q: %v", cfg.Timezone, err)
	}

	sessionStore := store.NewGormStore(db)
	gameService := services.NewGameService(sessionStore, cfg.StaffUserIDs)
	completion := services.NewCompletionCoordinator(sessionStore, cfg.StaffUserIDs)
	collector := transcript.NewCollector(bridge, loc)
	publisher := events.NewPublisher(redisClient)
	notifier := alert.NewNotifier(bridge, cfg.SlackErrorChannel)

	handler := tasks.NewHandler(gameService, completion, bridge, sheetsClient, collector, publisher, cfg.StaffEmails)

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		asynq.Config{
			Concurrency: 10,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Printf("[Worker] task %s failed: %v", task.Type(), err)
				var p struct {
					ChannelID string `json:"channel_id"`
				}
				_ = json.Unmarshal(task.Payload(), &p)
				notifier.TaskFailed(ctx, task.Type(), p.ChannelID, err)
			}),
		},
	)

	mux := asynq.NewServeMux()
	handler.Register(mux)

	log.Println("worker starting")
	if err := srv.Run(mux); err != nil {
		log.Fatalf("failed to start worker: %v", err)
	}
}
