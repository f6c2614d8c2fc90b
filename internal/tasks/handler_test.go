package tasks

import (
	"context"
	"strings"
	"testing"

	"github.com/HiroshigeAoki/slack-game-master/internal/events"
	"github.com/HiroshigeAoki/slack-game-master/internal/models"
	"github.com/HiroshigeAoki/slack-game-master/internal/services"
	"github.com/HiroshigeAoki/slack-game-master/internal/sheets"
	"github.com/HiroshigeAoki/slack-game-master/internal/store"
	"github.com/HiroshigeAoki/slack-game-master/internal/transcript"

	"github.com/slack-go/slack"
)

const (
	staffID     = "U_STAFF"
	customerID  = "U_CUSTOMER"
	salesID     = "U_SALES"
	channelID   = "C_GAME"
	channelName = "game-1"
)

type blockPost struct {
	channelID string
	blocks    []slack.Block
}

type fakeBridge struct {
	channelIDs []string
	members    []string
	userIDs    map[string]string

	texts      map[string][]string
	blockPosts []blockPost
	ephemerals map[string][]string
	dms        map[string]int
	invited    []string
}

func newFakeBridge() *fakeBridge {
	return &fakeBridge{
		channelIDs: []string{channelID},
		userIDs: map[string]string{
			"customer@example.com": customerID,
			"sales@example.com":    salesID,
		},
		texts:      map[string][]string{},
		ephemerals: map[string][]string{},
		dms:        map[string]int{},
	}
}

func (b *fakeBridge) PostBlocks(_ context.Context, channelID string, blocks []slack.Block) error {
	b.blockPosts = append(b.blockPosts, blockPost{channelID: channelID, blocks: blocks})
	return nil
}

func (b *fakeBridge) PostText(_ context.Context, channelID, text string) error {
	b.texts[channelID] = append(b.texts[channelID], text)
	return nil
}

func (b *fakeBridge) PostEphemeralBlocks(_ context.Context, channelID, userID string, _ []slack.Block) error {
	b.ephemerals[userID] = append(b.ephemerals[userID], "[blocks]")
	return nil
}

func (b *fakeBridge) PostEphemeralText(_ context.Context, _, userID, text string) error {
	b.ephemerals[userID] = append(b.ephemerals[userID], text)
	return nil
}

func (b *fakeBridge) SendDM(_ context.Context, userID string, _ []slack.Block) error {
	b.dms[userID]++
	return nil
}

func (b *fakeBridge) UserIDByEmail(_ context.Context, email string) (string, error) {
	return b.userIDs[email], nil
}

func (b *fakeBridge) ChannelIDs(_ context.Context) ([]string, error) {
	return b.channelIDs, nil
}

func (b *fakeBridge) ChannelMembers(_ context.Context, _ string) ([]string, error) {
	return b.members, nil
}

func (b *fakeBridge) InviteToChannel(_ context.Context, _ string, userIDs ...string) error {
	b.invited = append(b.invited, userIDs...)
	return nil
}

type fakeWorkbook struct {
	row *sheets.MasterRow

	judgeWrites  int
	markFinished int
	worksheetURL string
}

func (w *fakeWorkbook) MasterRowByChannelName(_ context.Context, _ string) (*sheets.MasterRow, error) {
	return w.row, nil
}

func (w *fakeWorkbook) CaseByID(_ context.Context, _ int) (string, error) {
	return "https://example.com/case", nil
}

func (w *fakeWorkbook) WriteJudge(_ context.Context, _ int, _, _ string) error {
	w.judgeWrites++
	return nil
}

func (w *fakeWorkbook) MarkFinished(_ context.Context, _ int) error {
	w.markFinished++
	return nil
}

func (w *fakeWorkbook) SaveDialogue(_ context.Context, _ *models.GameSession, _ []transcript.Row, _ []string) (string, error) {
	w.worksheetURL = "https://example.com/sheet"
	return w.worksheetURL, nil
}

type fakeTranscripts struct{}

func (fakeTranscripts) Collect(_ context.Context, _ *models.GameSession) ([]transcript.Row, error) {
	return nil, nil
}

type fakePublisher struct {
	published []string
}

func (p *fakePublisher) Publish(_ context.Context, ev events.Event) {
	p.published = append(p.published, ev.Type)
}

func newTestHandler(isLiar bool) (*Handler, *fakeBridge, *fakeWorkbook, store.Store) {
	st := store.NewMemoryStore()
	game := services.NewGameService(st, []string{staffID})
	completion := services.NewCompletionCoordinator(st, []string{staffID})
	bridge := newFakeBridge()
	workbook := &fakeWorkbook{
		row: &sheets.MasterRow{
			CustomerEmail: "customer@example.com",
			SalesEmail:    "sales@example.com",
			CaseID:        3,
			IsLiar:        isLiar,
			RowIndex:      7,
		},
	}
	h := NewHandler(game, completion, bridge, workbook, fakeTranscripts{}, &fakePublisher{}, nil)
	return h, bridge, workbook, st
}

func invitePayload() *InvitePayload {
	return &InvitePayload{ChannelID: channelID, ChannelName: channelName, UserID: staffID}
}

func TestHandleInvitePlayersUnknownChannel(t *testing.T) {
	t.Parallel()
	h, bridge, _, st := newTestHandler(true)
	bridge.channelIDs = []string{"C_OTHER"}

	err := h.HandleInvitePlayers(context.Background(), NewInvitePlayersTask(*invitePayload()))
	if err == nil {
		t.Fatalf("HandleInvitePlayers() = nil, want error for invisible channel")
	}
	if !strings.Contains(err.Error(), channelID) {
		t.Fatalf("error = %q, want mention of channel %s", err, channelID)
	}

	session, _ := st.Get(channelID)
	if session != nil {
		t.Fatalf("session created for invisible channel: %+v", session)
	}
}

func TestHandleInvitePlayersCreatesSessionAndInvites(t *testing.T) {
	t.Parallel()
	h, bridge, _, st := newTestHandler(true)
	bridge.members = []string{staffID, customerID} // sales not yet in the channel

	if err := h.HandleInvitePlayers(context.Background(), NewInvitePlayersTask(*invitePayload())); err != nil {
		t.Fatalf("HandleInvitePlayers() error = %v", err)
	}

	session, _ := st.Get(channelID)
	if session == nil {
		t.Fatalf("no session created")
	}
	if session.CustomerID != customerID || session.SalesID != salesID || !session.IsLiar {
		t.Fatalf("session = %+v, want resolved players from the master row", session)
	}
	if len(bridge.invited) != 1 || bridge.invited[0] != salesID {
		t.Fatalf("invited = %v, want only the missing sales rep", bridge.invited)
	}
}

// Staff pressing the open-spreadsheet button is a silent no-op; the one
// staff check lives here in the worker, the validator only knows roles.
func TestHandleOpenWorksheetSkipsStaffSilently(t *testing.T) {
	t.Parallel()
	h, bridge, _, _ := newTestHandler(true)

	if err := h.HandleOpenWorksheet(context.Background(), NewOpenWorksheetTask(InteractionPayload{ChannelID: channelID, UserID: staffID})); err != nil {
		t.Fatalf("HandleOpenWorksheet() error = %v", err)
	}
	if len(bridge.ephemerals[staffID]) != 0 {
		t.Fatalf("staff received %v, want nothing", bridge.ephemerals[staffID])
	}
}

// One full round, liar caught: setup through both annotation signals, with
// the winner announcement fired once, on the finishing signal only.
func TestFullRoundLiarCaughtAnnouncesCustomerWin(t *testing.T) {
	t.Parallel()
	h, bridge, workbook, st := newTestHandler(true)
	ctx := context.Background()

	if err := h.HandleInvitePlayers(ctx, NewInvitePlayersTask(*invitePayload())); err != nil {
		t.Fatalf("HandleInvitePlayers() error = %v", err)
	}
	if err := h.HandleStart(ctx, NewStartTask(StartPayload{ChannelID: channelID, UserID: staffID})); err != nil {
		t.Fatalf("HandleStart() error = %v", err)
	}
	if bridge.dms[customerID] != 1 || bridge.dms[salesID] != 1 {
		t.Fatalf("role DMs = %v, want one per player", bridge.dms)
	}

	err := h.HandleSaveMessages(ctx, NewSaveMessagesTask(SaveMessagesPayload{
		ChannelID: channelID, UserID: customerID, Judge: models.JudgeLie, Reason: "numbers did not add up",
	}))
	if err != nil {
		t.Fatalf("HandleSaveMessages() error = %v", err)
	}
	if workbook.judgeWrites != 1 {
		t.Fatalf("judge ledger writes = %d, want 1", workbook.judgeWrites)
	}

	announcements := func() []string {
		var out []string
		for _, post := range bridge.blockPosts {
			for _, block := range post.blocks {
				if section, ok := block.(*slack.SectionBlock); ok && strings.Contains(section.Text.Text, "Results are in") {
					out = append(out, section.Text.Text)
				}
			}
		}
		return out
	}

	if err := h.HandleAnnotationDone(ctx, NewAnnotationDoneTask(InteractionPayload{ChannelID: channelID, UserID: customerID})); err != nil {
		t.Fatalf("first HandleAnnotationDone() error = %v", err)
	}
	if got := announcements(); len(got) != 0 {
		t.Fatalf("announcement after first signal: %q", got)
	}

	if err := h.HandleAnnotationDone(ctx, NewAnnotationDoneTask(InteractionPayload{ChannelID: channelID, UserID: salesID})); err != nil {
		t.Fatalf("second HandleAnnotationDone() error = %v", err)
	}

	got := announcements()
	if len(got) != 1 {
		t.Fatalf("announcements = %d, want exactly 1", len(got))
	}
	if !strings.Contains(got[0], "<@"+customerID+"> wins") {
		t.Fatalf("announcement = %q, want the customer rewarded", got[0])
	}
	if workbook.markFinished != 1 {
		t.Fatalf("ledger finished marks = %d, want 1", workbook.markFinished)
	}

	session, _ := st.Get(channelID)
	if session.State() != models.StateComplete {
		t.Fatalf("State() = %q, want %q", session.State(), models.StateComplete)
	}
}
