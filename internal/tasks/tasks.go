package tasks

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// Task type names. Everything a slash command or button press triggers
// runs in the worker; the HTTP handlers only validate and enqueue.
const (
	TypeInvitePlayers  = "game:invite_players"
	TypeStart          = "game:start"
	TypeSaveMessages   = "game:save_messages"
	TypeOpenWorksheet  = "game:open_worksheet"
	TypeAnnotationDone = "game:annotation_done"
)

// ExecTimeout bounds a single task run. The slowest task (transcript
// export with worksheet formatting) comfortably fits.
const ExecTimeout = 5 * time.Minute

// Dispatcher is what the HTTP handlers need from the asynq client.
type Dispatcher interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type InvitePayload struct {
	ChannelID   string `json:"channel_id"`
	ChannelName string `json:"channel_name"`
	UserID      string `json:"user_id"`
}

type StartPayload struct {
	ChannelID string `json:"channel_id"`
	UserID    string `json:"user_id"`
}

type SaveMessagesPayload struct {
	ChannelID string `json:"channel_id"`
	UserID    string `json:"user_id"`
	Judge     string `json:"judge"`
	Reason    string `json:"reason"`
}

// InteractionPayload covers the two annotation buttons.
type InteractionPayload struct {
	ChannelID string `json:"channel_id"`
	UserID    string `json:"user_id"`
}

func NewInvitePlayersTask(p InvitePayload) *asynq.Task {
	return newTask(TypeInvitePlayers, p)
}

func NewStartTask(p StartPayload) *asynq.Task {
	return newTask(TypeStart, p)
}

func NewSaveMessagesTask(p SaveMessagesPayload) *asynq.Task {
	return newTask(TypeSaveMessages, p)
}

func NewOpenWorksheetTask(p InteractionPayload) *asynq.Task {
	return newTask(TypeOpenWorksheet, p)
}

func NewAnnotationDoneTask(p InteractionPayload) *asynq.Task {
	return newTask(TypeAnnotationDone, p)
}

func newTask(typ string, payload interface{}) *asynq.Task {
	b, err := json.Marshal(payload)
	if err != nil {
		// Payloads are plain structs of strings; this cannot fail.
		panic(fmt.Sprintf("marshal %s payload: %v", typ, err))
	}
	return asynq.NewTask(typ, b)
}

// Submit enqueues with the standard options. Tasks are not retried:
// every handler talks to Slack, and a retry would repeat visible
// messages.
func Submit(d Dispatcher, task *asynq.Task) error {
	_, err := d.Enqueue(task, asynq.Timeout(ExecTimeout), asynq.MaxRetry(0))
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", task.Type(), err)
	}
	return nil
}
