package handlers

import (
	"log"
	"net/http"

	"github.com/HiroshigeAoki/slack-game-master/internal/messages"
	"github.com/HiroshigeAoki/slack-game-master/internal/models"
	"github.com/HiroshigeAoki/slack-game-master/internal/services"
	"github.com/HiroshigeAoki/slack-game-master/internal/slackbridge"
	"github.com/HiroshigeAoki/slack-game-master/internal/tasks"

	"github.com/gin-gonic/gin"
	"github.com/slack-go/slack"
)

// SlashHandler receives the four slash commands. It validates fast,
// answers within Slack's three second deadline, and pushes the real work
// onto the task queue. A plain-text response body renders as an
// ephemeral message to the invoker.
type SlashHandler struct {
	game       *services.GameService
	bridge     *slackbridge.Client
	dispatcher tasks.Dispatcher
}

func NewSlashHandler(game *services.GameService, bridge *slackbridge.Client, dispatcher tasks.Dispatcher) *SlashHandler {
	return &SlashHandler{game: game, bridge: bridge, dispatcher: dispatcher}
}

// HandleCommand godoc
// @Summary      Slack slash command endpoint
// @Description  Receives /invite_players, /start, /lie and /trust from Slack
// @Tags         slack
// @Accept       x-www-form-urlencoded
// @Success      200
// @Router       /slack/commands [post]
func (h *SlashHandler) HandleCommand(c *gin.Context) {
	cmd, err := slack.SlashCommandParse(c.Request)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "cannot parse command"})
		return
	}

	switch cmd.Command {
	case "/invite_players":
		h.invitePlayers(c, cmd)
	case "/start":
		h.start(c, cmd)
	case "/lie":
		h.judge(c, cmd, models.JudgeLie)
	case "/trust":
		h.judge(c, cmd, models.JudgeTrust)
	default:
		c.String(http.StatusOK, "Unknown command %s.", cmd.Command)
	}
}

func (h *SlashHandler) invitePlayers(c *gin.Context, cmd slack.SlashCommand) {
	if !h.respondToRejection(c, h.game.ValidateInvite(cmd.UserID)) {
		return
	}

	task := tasks.NewInvitePlayersTask(tasks.InvitePayload{
		ChannelID:   cmd.ChannelID,
		ChannelName: cmd.ChannelName,
		UserID:      cmd.UserID,
	})
	if err := tasks.Submit(h.dispatcher, task); err != nil {
		log.Printf("[Slash] enqueue: %v", err)
		c.String(http.StatusOK, "Something went wrong, please try again.")
		return
	}
	c.String(http.StatusOK, messages.CommandReceipt(cmd.UserID, cmd.Command))
}

func (h *SlashHandler) start(c *gin.Context, cmd slack.SlashCommand) {
	if !h.respondToRejection(c, h.game.ValidateStart(cmd.ChannelID, cmd.UserID)) {
		return
	}

	task := tasks.NewStartTask(tasks.StartPayload{
		ChannelID: cmd.ChannelID,
		UserID:    cmd.UserID,
	})
	if err := tasks.Submit(h.dispatcher, task); err != nil {
		log.Printf("[Slash] enqueue: %v", err)
		c.String(http.StatusOK, "Something went wrong, please try again.")
		return
	}
	c.String(http.StatusOK, messages.CommandReceipt(cmd.UserID, cmd.Command))
}

// judge opens the reason modal; the verdict is only committed once the
// modal is submitted, so /lie followed by closing the modal changes
// nothing.
func (h *SlashHandler) judge(c *gin.Context, cmd slack.SlashCommand, verdict string) {
	if !h.respondToRejection(c, h.game.ValidateJudge(cmd.ChannelID, cmd.UserID)) {
		return
	}

	modal := messages.AskReasonModal(cmd.ChannelID, verdict)
	if err := h.bridge.OpenView(c.Request.Context(), cmd.TriggerID, modal); err != nil {
		log.Printf("[Slash] open modal: %v", err)
		c.String(http.StatusOK, "Could not open the reason form, please try again.")
		return
	}
	c.String(http.StatusOK, "")
}

// respondToRejection writes a guard rejection back as the command
// response. Returns false when the request must not proceed.
func (h *SlashHandler) respondToRejection(c *gin.Context, err error) bool {
	if err == nil {
		return true
	}
	if gr, ok := services.AsGuardRejection(err); ok {
		c.String(http.StatusOK, gr.Reason)
		return false
	}
	log.Printf("[Slash] validate: %v", err)
	c.String(http.StatusOK, "Something went wrong, please try again.")
	return false
}
