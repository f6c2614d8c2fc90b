package services

import (
	"github.com/HiroshigeAoki/slack-game-master/internal/models"
	"github.com/HiroshigeAoki/slack-game-master/internal/store"
)

// CompletionCoordinator tracks the two roles' independent annotation-done
// signals and decides when the session is complete. The final announcement
// must fire exactly once even when both roles press the button at the same
// moment; that hinges on store.SetDone reporting, atomically with its own
// update, whether this call transitioned the flag and what both flags were
// at that instant.
type CompletionCoordinator struct {
	store store.Store
	staff map[string]bool
}

func NewCompletionCoordinator(st store.Store, staffIDs []string) *CompletionCoordinator {
	staff := make(map[string]bool, len(staffIDs))
	for _, id := range staffIDs {
		staff[id] = true
	}
	return &CompletionCoordinator{store: st, staff: staff}
}

// CompletionResult is the outcome of one annotation-done signal.
type CompletionResult struct {
	Session *models.GameSession
	Role    models.Role
	// AlreadyDone: the role had signalled before; silent no-op.
	AlreadyDone bool
	// Finished: this signal completed the conjunction; the caller must
	// announce the result and mark the ledger. True on exactly one
	// invocation per session.
	Finished bool
}

func (c *CompletionCoordinator) Complete(channelID, invokerID string) (*CompletionResult, error) {
	session, err := c.store.Get(channelID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, rejectf("<@%s> no game has been set up in this channel.", invokerID)
	}
	if session.Judge == models.JudgeNone {
		return nil, rejectf("<@%s> the customer <@%s> has not judged yet, so the game is not finished. Complete annotation after the game ends.", invokerID, session.CustomerID)
	}
	if c.staff[invokerID] {
		return nil, rejectf("<@%s> staff cannot complete annotation.", invokerID)
	}

	role := session.RoleOf(invokerID)
	if role == models.RoleNone {
		return nil, rejectf("<@%s> you are not a participant of this game.", invokerID)
	}

	// Re-seed the honest sales exemption. Normally done at judge time;
	// repeating it here keeps the invariant after an administrative undo.
	if !session.IsLiar {
		if _, err := c.store.SetDone(channelID, models.RoleSales); err != nil {
			return nil, err
		}
	}

	res, err := c.store.SetDone(channelID, role)
	if err != nil {
		return nil, err
	}
	if !res.Changed {
		return &CompletionResult{Session: session, Role: role, AlreadyDone: true}, nil
	}

	finished := res.CustomerDone && res.SalesDone

	session, err = c.store.Get(channelID)
	if err != nil {
		return nil, err
	}
	return &CompletionResult{Session: session, Role: role, Finished: finished}, nil
}
