package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/HiroshigeAoki/slack-game-master/internal/messages"
	"github.com/HiroshigeAoki/slack-game-master/internal/services"
	"github.com/HiroshigeAoki/slack-game-master/internal/tasks"

	"github.com/gin-gonic/gin"
	"github.com/slack-go/slack"
)

// InteractionHandler receives modal submissions and block actions.
// Slack expects an immediate 200; everything beyond validation runs in
// the worker.
type InteractionHandler struct {
	game       *services.GameService
	dispatcher tasks.Dispatcher
}

func NewInteractionHandler(game *services.GameService, dispatcher tasks.Dispatcher) *InteractionHandler {
	return &InteractionHandler{game: game, dispatcher: dispatcher}
}

// HandleInteraction godoc
// @Summary      Slack interactivity endpoint
// @Description  Receives reason modal submissions and annotation button presses
// @Tags         slack
// @Accept       x-www-form-urlencoded
// @Success      200
// @Router       /slack/interactions [post]
func (h *InteractionHandler) HandleInteraction(c *gin.Context) {
	var payload slack.InteractionCallback
	if err := json.Unmarshal([]byte(c.PostForm("payload")), &payload); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "cannot parse payload"})
		return
	}

	switch payload.Type {
	case slack.InteractionTypeViewSubmission:
		h.viewSubmission(c, payload)
	case slack.InteractionTypeBlockActions:
		h.blockActions(c, payload)
	default:
		c.Status(http.StatusOK)
	}
}

func (h *InteractionHandler) viewSubmission(c *gin.Context, payload slack.InteractionCallback) {
	if payload.View.CallbackID != messages.CallbackJudgeReason {
		c.Status(http.StatusOK)
		return
	}

	meta, err := messages.DecodeModalMetadata(payload.View.PrivateMetadata)
	if err != nil {
		log.Printf("[Interaction] decode metadata: %v", err)
		c.Status(http.StatusOK)
		return
	}
	reason := payload.View.State.Values[messages.ReasonBlockID][messages.ReasonActionID].Value

	task := tasks.NewSaveMessagesTask(tasks.SaveMessagesPayload{
		ChannelID: meta.ChannelID,
		UserID:    payload.User.ID,
		Judge:     meta.Judge,
		Reason:    reason,
	})
	if err := tasks.Submit(h.dispatcher, task); err != nil {
		log.Printf("[Interaction] enqueue: %v", err)
	}
	c.Status(http.StatusOK)
}

func (h *InteractionHandler) blockActions(c *gin.Context, payload slack.InteractionCallback) {
	channelID := payload.Container.ChannelID
	userID := payload.User.ID

	for _, action := range payload.ActionCallback.BlockActions {
		switch action.ActionID {
		case messages.ActionOpenSpreadsheet:
			// The button itself opens the URL; this callback only decides
			// whether to follow up with the done prompt.
			if err := h.game.ValidateWorksheetOpen(channelID, userID); err != nil {
				if _, ok := services.AsGuardRejection(err); !ok {
					log.Printf("[Interaction] validate open: %v", err)
				}
				continue
			}
			task := tasks.NewOpenWorksheetTask(tasks.InteractionPayload{ChannelID: channelID, UserID: userID})
			if err := tasks.Submit(h.dispatcher, task); err != nil {
				log.Printf("[Interaction] enqueue: %v", err)
			}
		case messages.ActionAnnotationDone:
			task := tasks.NewAnnotationDoneTask(tasks.InteractionPayload{ChannelID: channelID, UserID: userID})
			if err := tasks.Submit(h.dispatcher, task); err != nil {
				log.Printf("[Interaction] enqueue: %v", err)
			}
		}
	}
	c.Status(http.StatusOK)
}
