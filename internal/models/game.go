package models

import "time"

// GameSession is one round of the deception game, keyed by the Slack
// channel the round is played in. Running /invite_players again on the
// same channel replaces the record wholesale.
type GameSession struct {
	ChannelID      string    `gorm:"primaryKey;size:255" json:"channel_id"`
	ChannelName    string    `gorm:"size:255" json:"channel_name"`
	CustomerEmail  string    `gorm:"size:255" json:"customer_email"`
	SalesEmail     string    `gorm:"size:255" json:"sales_email"`
	CustomerID     string    `gorm:"size:255;index" json:"customer_id"`
	SalesID        string    `gorm:"size:255;index" json:"sales_id"`
	CaseID         int       `json:"case_id"`
	IsLiar         bool      `gorm:"not null" json:"is_liar"`
	MasterRowIndex int       `json:"master_row_index"`
	IsStarted      bool      `gorm:"not null;default:false" json:"is_started"`
	Judge          string    `gorm:"size:20;not null;default:''" json:"judge"`
	Reason         string    `gorm:"type:text" json:"reason"`
	WorksheetURL   string    `gorm:"size:512" json:"worksheet_url"`
	CustomerDone   bool      `gorm:"not null;default:false" json:"customer_done"`
	SalesDone      bool      `gorm:"not null;default:false" json:"sales_done"`
	CreatedAt      time.Time `json:"created_at"`
}

const (
	JudgeNone  = ""
	JudgeLie   = "lie"
	JudgeTrust = "trust"
)

// Role is a per-session participant assignment. Staff are never a Role.
type Role string

const (
	RoleNone     Role = ""
	RoleCustomer Role = "customer"
	RoleSales    Role = "sales"
)

const (
	StateCreated  = "created"
	StateStarted  = "started"
	StateJudged   = "judged"
	StateComplete = "complete"
)

// RoleOf resolves a Slack user ID to their assignment in this session.
func (g *GameSession) RoleOf(userID string) Role {
	switch userID {
	case g.CustomerID:
		return RoleCustomer
	case g.SalesID:
		return RoleSales
	}
	return RoleNone
}

// DoneFor reports whether the given role has completed annotation.
func (g *GameSession) DoneFor(role Role) bool {
	if role == RoleCustomer {
		return g.CustomerDone
	}
	return g.SalesDone
}

// State derives the lifecycle state from the record. The "unset" state is
// represented by the record not existing at all.
func (g *GameSession) State() string {
	switch {
	case g.CustomerDone && g.SalesDone:
		return StateComplete
	case g.Judge != JudgeNone:
		return StateJudged
	case g.IsStarted:
		return StateStarted
	}
	return StateCreated
}
