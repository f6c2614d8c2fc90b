package store

import (
	"fmt"

	"github.com/HiroshigeAoki/slack-game-master/internal/models"
)

// Store is the persistence boundary for game sessions. Every mutation is a
// single-statement update so a concurrent reader never observes a record
// with some fields from one transition and some from another.
type Store interface {
	// Put atomically replaces the record for session.ChannelID. The prior
	// record, if any, is deleted in the same transaction so stale fields
	// cannot leak through a reconfiguration.
	Put(session *models.GameSession) error

	// Get returns (nil, nil) when no record exists for the channel.
	Get(channelID string) (*models.GameSession, error)

	List() ([]models.GameSession, error)

	SetStarted(channelID string) error

	// SetJudge records the verdict and reason only if no verdict has been
	// recorded yet. Returns false when the session was already judged.
	SetJudge(channelID, judge, reason string) (bool, error)

	SetWorksheetURL(channelID, url string) error

	// SetDone flips the role's done flag if it is not already set. The
	// returned DoneResult reflects the row as of the update itself, which
	// is what makes the two-role fan-in race-safe: exactly one caller can
	// see Changed with both flags true.
	SetDone(channelID string, role models.Role) (DoneResult, error)

	// ClearDone is the administrative undo for a done flag.
	ClearDone(channelID string, role models.Role) error
}

// DoneResult is the outcome of a SetDone call.
type DoneResult struct {
	Changed      bool // this call transitioned the flag false -> true
	CustomerDone bool
	SalesDone    bool
}

// StorageError wraps a persistence failure. It aborts the current
// operation and is escalated to operators; it is never shown to players.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func doneColumn(role models.Role) string {
	if role == models.RoleCustomer {
		return "customer_done"
	}
	return "sales_done"
}
