package events

import (
	"context"
	"encoding/json"
	"log"

	"github.com/HiroshigeAoki/slack-game-master/internal/models"

	"github.com/redis/go-redis/v9"
)

// Redis channel carrying game lifecycle events from the worker to the
// API server's live monitor.
const channel = "game:events"

// Event types published over the game channel.
const (
	TypeSessionCreated = "session_created"
	TypeGameStarted    = "game_started"
	TypeJudged         = "judged"
	TypeAnnotationDone = "annotation_done"
	TypeGameComplete   = "game_complete"
)

type Event struct {
	Type      string              `json:"type"`
	ChannelID string              `json:"channel_id"`
	Session   *models.GameSession `json:"session,omitempty"`
}

// Publisher fans game events out over Redis. The worker holds one; the
// server subscribes and feeds its websocket hub.
type Publisher struct {
	client *redis.Client
}

func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

// Publish is best-effort: a monitoring gap must never fail a game task.
func (p *Publisher) Publish(ctx context.Context, ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Printf("[Events] marshal %s: %v", ev.Type, err)
		return
	}
	if err := p.client.Publish(ctx, channel, payload).Err(); err != nil {
		log.Printf("[Events] publish %s: %v", ev.Type, err)
	}
}

// Subscribe delivers events to fn until ctx is cancelled.
func Subscribe(ctx context.Context, client *redis.Client, fn func(Event)) {
	sub := client.Subscribe(ctx, channel)
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Channel():
			if !ok {
				return
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Printf("[Events] decode: %v", err)
				continue
			}
			fn(ev)
		}
	}
}
