package services

import (
	"testing"

	"github.com/HiroshigeAoki/slack-game-master/internal/models"
	"github.com/HiroshigeAoki/slack-game-master/internal/store"
)

const (
	staffID    = "U_STAFF"
	customerID = "U_CUSTOMER"
	salesID    = "U_SALES"
	channelID  = "C_GAME"
)

func newTestGame(t *testing.T, isLiar bool) (*GameService, store.Store) {
	t.Helper()
	st := store.NewMemoryStore()
	svc := NewGameService(st, []string{staffID})
	err := svc.CreateSession(staffID, &models.GameSession{
		ChannelID:  channelID,
		CustomerID: customerID,
		SalesID:    salesID,
		IsLiar:     isLiar,
	})
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	return svc, st
}

func wantRejection(t *testing.T, err error) *GuardRejection {
	t.Helper()
	if err == nil {
		t.Fatalf("error = nil, want guard rejection")
	}
	gr, ok := AsGuardRejection(err)
	if !ok {
		t.Fatalf("error = %v, want guard rejection", err)
	}
	return gr
}

func TestCreateSessionStaffOnly(t *testing.T) {
	t.Parallel()
	st := store.NewMemoryStore()
	svc := NewGameService(st, []string{staffID})

	err := svc.CreateSession(customerID, &models.GameSession{ChannelID: channelID})
	wantRejection(t, err)

	session, _ := st.Get(channelID)
	if session != nil {
		t.Fatalf("session created despite rejection")
	}
}

func TestCreateSessionReplacesPriorRound(t *testing.T) {
	t.Parallel()
	svc, st := newTestGame(t, true)

	if _, err := svc.Start(channelID, staffID); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if _, err := svc.Judge(channelID, customerID, models.JudgeLie, "felt off"); err != nil {
		t.Fatalf("Judge() error = %v", err)
	}

	err := svc.CreateSession(staffID, &models.GameSession{
		ChannelID:  channelID,
		CustomerID: customerID,
		SalesID:    salesID,
		IsLiar:     false,
	})
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	session, _ := st.Get(channelID)
	if session.IsStarted || session.Judge != models.JudgeNone {
		t.Fatalf("new round inherited old state: %+v", session)
	}
	if session.State() != models.StateCreated {
		t.Fatalf("State() = %q, want %q", session.State(), models.StateCreated)
	}
}

func TestStartRequiresSession(t *testing.T) {
	t.Parallel()
	st := store.NewMemoryStore()
	svc := NewGameService(st, []string{staffID})

	_, err := svc.Start(channelID, staffID)
	wantRejection(t, err)

	if err := svc.ValidateStart(channelID, staffID); err == nil {
		t.Fatalf("ValidateStart() = nil, want rejection")
	}
}

func TestStartStaffOnly(t *testing.T) {
	t.Parallel()
	svc, _ := newTestGame(t, true)

	if _, err := svc.Start(channelID, customerID); err == nil {
		t.Fatalf("Start() by player = nil, want rejection")
	}
	if _, err := svc.Start(channelID, staffID); err != nil {
		t.Fatalf("Start() by staff error = %v", err)
	}
}

func TestJudgeGuards(t *testing.T) {
	t.Parallel()
	svc, _ := newTestGame(t, true)

	// Not started yet.
	if _, err := svc.Judge(channelID, customerID, models.JudgeLie, "r"); err == nil {
		t.Fatalf("Judge() before start = nil, want rejection")
	}

	if _, err := svc.Start(channelID, staffID); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// Only the customer judges.
	if _, err := svc.Judge(channelID, salesID, models.JudgeLie, "r"); err == nil {
		t.Fatalf("Judge() by sales = nil, want rejection")
	}
	if _, err := svc.Judge(channelID, staffID, models.JudgeLie, "r"); err == nil {
		t.Fatalf("Judge() by staff = nil, want rejection")
	}

	session, err := svc.Judge(channelID, customerID, models.JudgeLie, "evasive answers")
	if err != nil {
		t.Fatalf("Judge() error = %v", err)
	}
	if session.Judge != models.JudgeLie || session.Reason != "evasive answers" {
		t.Fatalf("judge = (%q, %q), want recorded verdict", session.Judge, session.Reason)
	}
	if session.State() != models.StateJudged {
		t.Fatalf("State() = %q, want %q", session.State(), models.StateJudged)
	}

	// Write-once.
	if _, err := svc.Judge(channelID, customerID, models.JudgeTrust, "changed my mind"); err == nil {
		t.Fatalf("second Judge() = nil, want rejection")
	}
}

func TestJudgeSeedsHonestSales(t *testing.T) {
	t.Parallel()
	svc, _ := newTestGame(t, false)

	if _, err := svc.Start(channelID, staffID); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	session, err := svc.Judge(channelID, customerID, models.JudgeTrust, "seemed genuine")
	if err != nil {
		t.Fatalf("Judge() error = %v", err)
	}

	if !session.SalesDone {
		t.Fatalf("SalesDone = false, want seeded for honest sales")
	}
	if session.CustomerDone {
		t.Fatalf("CustomerDone = true, want false")
	}
	// Seeding alone must not complete the session.
	if session.State() != models.StateJudged {
		t.Fatalf("State() = %q, want %q", session.State(), models.StateJudged)
	}
}

func TestJudgeDoesNotSeedLiarSales(t *testing.T) {
	t.Parallel()
	svc, _ := newTestGame(t, true)

	if _, err := svc.Start(channelID, staffID); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	session, err := svc.Judge(channelID, customerID, models.JudgeLie, "caught a contradiction")
	if err != nil {
		t.Fatalf("Judge() error = %v", err)
	}
	if session.SalesDone {
		t.Fatalf("SalesDone = true for lying sales, want false")
	}
}

func TestValidateWorksheetOpen(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		isLiar bool
		userID string
		wantOK bool
	}{
		{"customer always annotates", true, customerID, true},
		{"customer annotates honest round", false, customerID, true},
		{"lying sales annotates", true, salesID, true},
		{"honest sales does not", false, salesID, false},
		{"staff never", true, staffID, false},
		{"outsider never", true, "U_OUTSIDER", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc, _ := newTestGame(t, tt.isLiar)
			err := svc.ValidateWorksheetOpen(channelID, tt.userID)
			if tt.wantOK && err != nil {
				t.Fatalf("ValidateWorksheetOpen() error = %v, want nil", err)
			}
			if !tt.wantOK {
				wantRejection(t, err)
			}
		})
	}
}

func TestUndoReopensDone(t *testing.T) {
	t.Parallel()
	svc, st := newTestGame(t, true)

	if _, err := st.SetDone(channelID, models.RoleCustomer); err != nil {
		t.Fatalf("SetDone() error = %v", err)
	}
	if err := svc.Undo(channelID, models.RoleCustomer); err != nil {
		t.Fatalf("Undo() error = %v", err)
	}

	session, _ := st.Get(channelID)
	if session.CustomerDone {
		t.Fatalf("CustomerDone = true after undo")
	}

	if err := svc.Undo(channelID, models.Role("referee")); err == nil {
		t.Fatalf("Undo() with unknown role = nil, want rejection")
	}
}
