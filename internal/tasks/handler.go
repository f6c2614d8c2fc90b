package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/HiroshigeAoki/slack-game-master/internal/events"
	"github.com/HiroshigeAoki/slack-game-master/internal/messages"
	"github.com/HiroshigeAoki/slack-game-master/internal/models"
	"github.com/HiroshigeAoki/slack-game-master/internal/services"
	"github.com/HiroshigeAoki/slack-game-master/internal/sheets"
	"github.com/HiroshigeAoki/slack-game-master/internal/transcript"

	"github.com/hibiken/asynq"
	"github.com/slack-go/slack"
)

// Bridge is the slice of the Slack client the task handlers use.
type Bridge interface {
	PostBlocks(ctx context.Context, channelID string, blocks []slack.Block) error
	PostText(ctx context.Context, channelID, text string) error
	PostEphemeralBlocks(ctx context.Context, channelID, userID string, blocks []slack.Block) error
	PostEphemeralText(ctx context.Context, channelID, userID, text string) error
	SendDM(ctx context.Context, userID string, blocks []slack.Block) error
	UserIDByEmail(ctx context.Context, email string) (string, error)
	ChannelIDs(ctx context.Context) ([]string, error)
	ChannelMembers(ctx context.Context, channelID string) ([]string, error)
	InviteToChannel(ctx context.Context, channelID string, userIDs ...string) error
}

// Workbook is the slice of the spreadsheet client the task handlers use.
type Workbook interface {
	MasterRowByChannelName(ctx context.Context, channelName string) (*sheets.MasterRow, error)
	CaseByID(ctx context.Context, caseID int) (string, error)
	WriteJudge(ctx context.Context, rowIndex int, judge, reason string) error
	MarkFinished(ctx context.Context, rowIndex int) error
	SaveDialogue(ctx context.Context, session *models.GameSession, rows []transcript.Row, staffEmails []string) (string, error)
}

type Transcripts interface {
	Collect(ctx context.Context, session *models.GameSession) ([]transcript.Row, error)
}

type Publisher interface {
	Publish(ctx context.Context, ev events.Event)
}

// Handler executes the game tasks in the worker process. Guard
// rejections discovered here (the authoritative re-check after the
// handler-side one) go back to the user as an ephemeral message and the
// task still succeeds; only infrastructure failures bubble up to the
// error handler.
type Handler struct {
	game        *services.GameService
	completion  *services.CompletionCoordinator
	bridge      Bridge
	sheets      Workbook
	transcripts Transcripts
	publisher   Publisher
	staffEmails []string
}

func NewHandler(
	game *services.GameService,
	completion *services.CompletionCoordinator,
	bridge Bridge,
	workbook Workbook,
	transcripts Transcripts,
	publisher Publisher,
	staffEmails []string,
) *Handler {
	return &Handler{
		game:        game,
		completion:  completion,
		bridge:      bridge,
		sheets:      workbook,
		transcripts: transcripts,
		publisher:   publisher,
		staffEmails: staffEmails,
	}
}

func (h *Handler) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeInvitePlayers, h.HandleInvitePlayers)
	mux.HandleFunc(TypeStart, h.HandleStart)
	mux.HandleFunc(TypeSaveMessages, h.HandleSaveMessages)
	mux.HandleFunc(TypeOpenWorksheet, h.HandleOpenWorksheet)
	mux.HandleFunc(TypeAnnotationDone, h.HandleAnnotationDone)
}

// reject posts a guard rejection ephemerally and swallows it. Returns
// true when err was a rejection.
func (h *Handler) reject(ctx context.Context, channelID, userID string, err error) bool {
	gr, ok := services.AsGuardRejection(err)
	if !ok {
		return false
	}
	if postErr := h.bridge.PostEphemeralText(ctx, channelID, userID, gr.Reason); postErr != nil {
		log.Printf("[Tasks] post rejection: %v", postErr)
	}
	return true
}

// HandleInvitePlayers looks the channel up in the master sheet, installs
// the session record, and invites the two players.
func (h *Handler) HandleInvitePlayers(ctx context.Context, t *asynq.Task) error {
	var p InvitePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}

	// The bot must be able to see the channel before it can invite
	// anyone into it; a miss here is a setup mistake escalated to staff.
	channels, err := h.bridge.ChannelIDs(ctx)
	if err != nil {
		return err
	}
	visible := false
	for _, id := range channels {
		if id == p.ChannelID {
			visible = true
			break
		}
	}
	if !visible {
		return fmt.Errorf("channel <#%s> is not visible to the bot; add the bot to the channel and retry", p.ChannelID)
	}

	row, err := h.sheets.MasterRowByChannelName(ctx, p.ChannelName)
	if err != nil {
		return err
	}

	customerID, err := h.bridge.UserIDByEmail(ctx, row.CustomerEmail)
	if err != nil {
		return err
	}
	salesID, err := h.bridge.UserIDByEmail(ctx, row.SalesEmail)
	if err != nil {
		return err
	}

	session := &models.GameSession{
		ChannelID:      p.ChannelID,
		ChannelName:    p.ChannelName,
		CustomerEmail:  row.CustomerEmail,
		SalesEmail:     row.SalesEmail,
		CustomerID:     customerID,
		SalesID:        salesID,
		CaseID:         row.CaseID,
		IsLiar:         row.IsLiar,
		MasterRowIndex: row.RowIndex,
	}
	if err := h.game.CreateSession(p.UserID, session); err != nil {
		if h.reject(ctx, p.ChannelID, p.UserID, err) {
			return nil
		}
		return err
	}

	members, err := h.bridge.ChannelMembers(ctx, p.ChannelID)
	if err != nil {
		return err
	}
	present := make(map[string]bool, len(members))
	for _, m := range members {
		present[m] = true
	}
	var missing []string
	for _, id := range []string{customerID, salesID} {
		if !present[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		if err := h.bridge.InviteToChannel(ctx, p.ChannelID, missing...); err != nil {
			return err
		}
	}

	if err := h.bridge.PostText(ctx, p.ChannelID,
		fmt.Sprintf("Players invited: customer <@%s>, sales <@%s>. Staff can start the game with `/start`.", customerID, salesID)); err != nil {
		return err
	}

	h.publisher.Publish(ctx, events.Event{Type: events.TypeSessionCreated, ChannelID: p.ChannelID, Session: session})
	return nil
}

// HandleStart posts the channel briefing and DMs each player their role
// instructions, the sales rep's including the scammer assignment.
func (h *Handler) HandleStart(ctx context.Context, t *asynq.Task) error {
	var p StartPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}

	session, err := h.game.Start(p.ChannelID, p.UserID)
	if err != nil {
		if h.reject(ctx, p.ChannelID, p.UserID, err) {
			return nil
		}
		return err
	}

	caseURL, err := h.sheets.CaseByID(ctx, session.CaseID)
	if err != nil {
		return err
	}

	if err := h.bridge.PostBlocks(ctx, p.ChannelID, messages.StartBlocks(session.CustomerID, session.SalesID)); err != nil {
		return err
	}
	if err := h.bridge.SendDM(ctx, session.CustomerID,
		messages.RoleInstructionBlocks(p.ChannelID, caseURL, session.IsLiar, models.RoleCustomer)); err != nil {
		return err
	}
	if err := h.bridge.SendDM(ctx, session.SalesID,
		messages.RoleInstructionBlocks(p.ChannelID, caseURL, session.IsLiar, models.RoleSales)); err != nil {
		return err
	}

	h.publisher.Publish(ctx, events.Event{Type: events.TypeGameStarted, ChannelID: p.ChannelID, Session: session})
	return nil
}

// HandleSaveMessages records the verdict, exports the transcript to a
// fresh worksheet, and asks the annotators to get to work.
func (h *Handler) HandleSaveMessages(ctx context.Context, t *asynq.Task) error {
	var p SaveMessagesPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}

	session, err := h.game.Judge(p.ChannelID, p.UserID, p.Judge, p.Reason)
	if err != nil {
		if h.reject(ctx, p.ChannelID, p.UserID, err) {
			return nil
		}
		return err
	}

	if err := h.bridge.PostText(ctx, p.ChannelID, messages.JudgeReceipt(session.CustomerID)); err != nil {
		return err
	}

	rows, err := h.transcripts.Collect(ctx, session)
	if err != nil {
		return err
	}
	worksheetURL, err := h.sheets.SaveDialogue(ctx, session, rows, h.staffEmails)
	if err != nil {
		return err
	}
	if err := h.game.SetWorksheetURL(p.ChannelID, worksheetURL); err != nil {
		return err
	}

	if err := h.bridge.PostEphemeralBlocks(ctx, p.ChannelID, session.CustomerID,
		messages.AskAnnotationBlocks(worksheetURL, models.RoleCustomer)); err != nil {
		return err
	}
	if session.IsLiar {
		if err := h.bridge.PostEphemeralBlocks(ctx, p.ChannelID, session.SalesID,
			messages.AskAnnotationBlocks(worksheetURL, models.RoleSales)); err != nil {
			return err
		}
	}

	if err := h.sheets.WriteJudge(ctx, session.MasterRowIndex, p.Judge, p.Reason); err != nil {
		return err
	}

	h.publisher.Publish(ctx, events.Event{Type: events.TypeJudged, ChannelID: p.ChannelID, Session: session})
	return nil
}

// HandleOpenWorksheet shows the done button after a player opens their
// worksheet. Staff clicks are skipped silently; the button is visible to
// them in channel but means nothing.
func (h *Handler) HandleOpenWorksheet(ctx context.Context, t *asynq.Task) error {
	var p InteractionPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}

	if h.game.IsStaff(p.UserID) {
		return nil
	}
	if err := h.game.ValidateWorksheetOpen(p.ChannelID, p.UserID); err != nil {
		if h.reject(ctx, p.ChannelID, p.UserID, err) {
			return nil
		}
		return err
	}

	return h.bridge.PostEphemeralBlocks(ctx, p.ChannelID, p.UserID, messages.OpenWorksheetPromptBlocks(p.UserID))
}

// HandleAnnotationDone feeds one done signal into the completion
// coordinator and, on the finishing signal, announces the result and
// closes out the ledger row.
func (h *Handler) HandleAnnotationDone(ctx context.Context, t *asynq.Task) error {
	var p InteractionPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}

	res, err := h.completion.Complete(p.ChannelID, p.UserID)
	if err != nil {
		if h.reject(ctx, p.ChannelID, p.UserID, err) {
			return nil
		}
		return err
	}
	if res.AlreadyDone {
		return nil
	}

	if err := h.bridge.PostEphemeralText(ctx, p.ChannelID, p.UserID, messages.ThankYouForAnnotation(p.UserID)); err != nil {
		return err
	}
	h.publisher.Publish(ctx, events.Event{Type: events.TypeAnnotationDone, ChannelID: p.ChannelID, Session: res.Session})

	if !res.Finished {
		return nil
	}

	session := res.Session
	if err := h.bridge.PostBlocks(ctx, p.ChannelID,
		messages.FinalResultBlocks(session.CustomerID, session.SalesID, session.IsLiar, session.Judge)); err != nil {
		return err
	}
	if err := h.sheets.MarkFinished(ctx, session.MasterRowIndex); err != nil {
		return err
	}

	h.publisher.Publish(ctx, events.Event{Type: events.TypeGameComplete, ChannelID: p.ChannelID, Session: session})
	return nil
}
