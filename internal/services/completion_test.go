package services

import (
	"sync"
	"testing"

	"github.com/HiroshigeAoki/slack-game-master/internal/models"
	"github.com/HiroshigeAoki/slack-game-master/internal/store"
)

func newJudgedGame(t *testing.T, isLiar bool) (*GameService, *CompletionCoordinator, store.Store) {
	t.Helper()
	svc, st := newTestGame(t, isLiar)
	coord := NewCompletionCoordinator(st, []string{staffID})

	if _, err := svc.Start(channelID, staffID); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if _, err := svc.Judge(channelID, customerID, models.JudgeLie, "could not verify the product"); err != nil {
		t.Fatalf("Judge() error = %v", err)
	}
	return svc, coord, st
}

func TestCompleteRequiresJudge(t *testing.T) {
	t.Parallel()
	_, st := newTestGame(t, true)
	coord := NewCompletionCoordinator(st, []string{staffID})

	_, err := coord.Complete(channelID, customerID)
	wantRejection(t, err)
}

func TestCompleteRequiresSession(t *testing.T) {
	t.Parallel()
	st := store.NewMemoryStore()
	coord := NewCompletionCoordinator(st, []string{staffID})

	_, err := coord.Complete("C_NOWHERE", customerID)
	wantRejection(t, err)
}

func TestCompleteRejectsStaffAndOutsiders(t *testing.T) {
	t.Parallel()
	_, coord, _ := newJudgedGame(t, true)

	if _, err := coord.Complete(channelID, staffID); err == nil {
		t.Fatalf("Complete() by staff = nil, want rejection")
	}
	if _, err := coord.Complete(channelID, "U_OUTSIDER"); err == nil {
		t.Fatalf("Complete() by outsider = nil, want rejection")
	}
}

// With a lying sales rep both roles must signal; the second signal, in
// either order, finishes the session.
func TestCompleteLiarNeedsBothRoles(t *testing.T) {
	t.Parallel()

	orders := map[string][2]string{
		"customer first": {customerID, salesID},
		"sales first":    {salesID, customerID},
	}

	for name, order := range orders {
		order := order
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, coord, st := newJudgedGame(t, true)

			first, err := coord.Complete(channelID, order[0])
			if err != nil {
				t.Fatalf("first Complete() error = %v", err)
			}
			if first.Finished {
				t.Fatalf("first signal Finished = true, want false")
			}

			second, err := coord.Complete(channelID, order[1])
			if err != nil {
				t.Fatalf("second Complete() error = %v", err)
			}
			if !second.Finished {
				t.Fatalf("second signal Finished = false, want true")
			}

			session, _ := st.Get(channelID)
			if session.State() != models.StateComplete {
				t.Fatalf("State() = %q, want %q", session.State(), models.StateComplete)
			}
		})
	}
}

// With an honest sales rep the customer's signal alone finishes the
// session; the sales done flag was seeded at judge time.
func TestCompleteHonestSalesCustomerAlone(t *testing.T) {
	t.Parallel()
	_, coord, _ := newJudgedGame(t, false)

	res, err := coord.Complete(channelID, customerID)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if !res.Finished {
		t.Fatalf("Finished = false, want true for honest round")
	}
	if res.Session.State() != models.StateComplete {
		t.Fatalf("State() = %q, want %q", res.Session.State(), models.StateComplete)
	}
}

func TestCompleteRepeatIsSilent(t *testing.T) {
	t.Parallel()
	_, coord, _ := newJudgedGame(t, true)

	if _, err := coord.Complete(channelID, customerID); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	res, err := coord.Complete(channelID, customerID)
	if err != nil {
		t.Fatalf("repeat Complete() error = %v", err)
	}
	if !res.AlreadyDone {
		t.Fatalf("AlreadyDone = false, want true")
	}
	if res.Finished {
		t.Fatalf("repeat signal Finished = true, want false")
	}
}

// Undo after the honest-sales seed must not strand the session: the
// coordinator re-seeds on the next signal.
func TestCompleteReseedsAfterUndo(t *testing.T) {
	t.Parallel()
	svc, coord, _ := newJudgedGame(t, false)

	if err := svc.Undo(channelID, models.RoleSales); err != nil {
		t.Fatalf("Undo() error = %v", err)
	}

	res, err := coord.Complete(channelID, customerID)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if !res.Finished {
		t.Fatalf("Finished = false after undo, want re-seeded completion")
	}
}

// Exactly one of two simultaneous signals reports Finished.
func TestCompleteConcurrentExactlyOnce(t *testing.T) {
	t.Parallel()

	for i := 0; i < 100; i++ {
		_, coord, _ := newJudgedGame(t, true)

		var wg sync.WaitGroup
		results := make([]*CompletionResult, 2)
		for j, userID := range []string{customerID, salesID} {
			wg.Add(1)
			go func(j int, userID string) {
				defer wg.Done()
				res, err := coord.Complete(channelID, userID)
				if err != nil {
					t.Errorf("Complete(%s) error = %v", userID, err)
					return
				}
				results[j] = res
			}(j, userID)
		}
		wg.Wait()

		finished := 0
		for _, res := range results {
			if res != nil && res.Finished {
				finished++
			}
		}
		if finished != 1 {
			t.Fatalf("iteration %d: Finished reported %d times, want exactly 1", i, finished)
		}
	}
}
