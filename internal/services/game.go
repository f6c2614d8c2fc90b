package services

import (
	"github.com/HiroshigeAoki/slack-game-master/internal/models"
	"github.com/HiroshigeAoki/slack-game-master/internal/store"
)

// GameService is the session state machine. Guards return GuardRejection
// with the text shown to the invoking user; transitions mutate through the
// store one field at a time.
//
// The Validate* methods run synchronously in the HTTP handler before a
// task is enqueued, so users get instant feedback. The mutating methods
// re-check authoritatively in the worker.
type GameService struct {
	store store.Store
	staff map[string]bool
}

func NewGameService(st store.Store, staffIDs []string) *GameService {
	staff := make(map[string]bool, len(staffIDs))
	for _, id := range staffIDs {
		staff[id] = true
	}
	return &GameService{store: st, staff: staff}
}

func (s *GameService) IsStaff(userID string) bool {
	return s.staff[userID]
}

func (s *GameService) Get(channelID string) (*models.GameSession, error) {
	return s.store.Get(channelID)
}

func (s *GameService) List() ([]models.GameSession, error) {
	return s.store.List()
}

// ValidateInvite guards /invite_players. An existing session is not a
// violation: re-inviting resets the channel for a new round.
func (s *GameService) ValidateInvite(userID string) error {
	if !s.IsStaff(userID) {
		return rejectf("<@%s> this command is staff-only.", userID)
	}
	return nil
}

// ValidateStart guards /start. A missing session is an explicit rejection,
// not a silent no-op.
func (s *GameService) ValidateStart(channelID, userID string) error {
	if !s.IsStaff(userID) {
		return rejectf("<@%s> this command is staff-only.", userID)
	}
	session, err := s.store.Get(channelID)
	if err != nil {
		return err
	}
	if session == nil {
		return rejectf("<@%s> no game has been set up in this channel. Run `/invite_players` first.", userID)
	}
	return nil
}

// ValidateJudge guards /lie and /trust: only the customer of a started,
// not-yet-judged session may enter a verdict.
func (s *GameService) ValidateJudge(channelID, userID string) error {
	session, err := s.store.Get(channelID)
	if err != nil {
		return err
	}
	if session == nil {
		return rejectf("<@%s> the game has not started yet.", userID)
	}
	if session.CustomerID != userID {
		return rejectf("<@%s> only the customer <@%s> can judge.", userID, session.CustomerID)
	}
	if !session.IsStarted {
		return rejectf("<@%s> the game has not started yet.", userID)
	}
	if session.Judge != models.JudgeNone {
		return rejectf("<@%s> a verdict has already been recorded for this game.", userID)
	}
	return nil
}

// ValidateWorksheetOpen guards the open-spreadsheet button. The customer
// always annotates; the sales rep only when playing the liar. Staff are
// never a participant, so they land in the non-participant rejection; the
// worker skips their clicks silently before ever calling this.
func (s *GameService) ValidateWorksheetOpen(channelID, userID string) error {
	session, err := s.store.Get(channelID)
	if err != nil {
		return err
	}
	if session == nil {
		return rejectf("<@%s> no game has been set up in this channel.", userID)
	}
	switch session.RoleOf(userID) {
	case models.RoleCustomer:
		return nil
	case models.RoleSales:
		if session.IsLiar {
			return nil
		}
		return rejectf("<@%s> the sales role has nothing to annotate in this round.", userID)
	}
	return rejectf("<@%s> you are not a participant of this game.", userID)
}

// CreateSession installs a fresh session record for the channel,
// replacing any prior round.
func (s *GameService) CreateSession(invokerID string, session *models.GameSession) error {
	if !s.IsStaff(invokerID) {
		return rejectf("<@%s> this command is staff-only.", invokerID)
	}
	return s.store.Put(session)
}

// Start moves CREATED -> STARTED.
func (s *GameService) Start(channelID, invokerID string) (*models.GameSession, error) {
	if !s.IsStaff(invokerID) {
		return nil, rejectf("<@%s> this command is staff-only.", invokerID)
	}
	session, err := s.store.Get(channelID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, rejectf("<@%s> no game has been set up in this channel. Run `/invite_players` first.", invokerID)
	}
	if err := s.store.SetStarted(channelID); err != nil {
		return nil, err
	}
	session.IsStarted = true
	return session, nil
}

// Judge moves STARTED -> JUDGED. The write-once property is enforced by
// the conditional store update, not by the read above it, so two racing
// verdicts cannot both land. When the sales rep is honest their done flag
// is seeded immediately: a customer-only completion then finishes the
// session.
func (s *GameService) Judge(channelID, invokerID, verdict, reason string) (*models.GameSession, error) {
	if verdict != models.JudgeLie && verdict != models.JudgeTrust {
		return nil, rejectf("unknown verdict %q.", verdict)
	}

	session, err := s.store.Get(channelID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, rejectf("<@%s> the game has not started yet.", invokerID)
	}
	if session.CustomerID != invokerID {
		return nil, rejectf("<@%s> only the customer <@%s> can judge.", invokerID, session.CustomerID)
	}
	if !session.IsStarted {
		return nil, rejectf("<@%s> the game has not started yet.", invokerID)
	}

	ok, err := s.store.SetJudge(channelID, verdict, reason)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, rejectf("<@%s> a verdict has already been recorded for this game.", invokerID)
	}

	if !session.IsLiar {
		// Cannot complete the session here: no done flag can be set
		// before the judge is, so the conjunction stays false.
		if _, err := s.store.SetDone(channelID, models.RoleSales); err != nil {
			return nil, err
		}
	}

	return s.store.Get(channelID)
}

// Undo clears a role's done flag. Administrative correction only; never
// part of the game flow.
func (s *GameService) Undo(channelID string, role models.Role) error {
	if role != models.RoleCustomer && role != models.RoleSales {
		return rejectf("unknown role %q.", role)
	}
	return s.store.ClearDone(channelID, role)
}

// SetWorksheetURL records the exported worksheet for the session.
func (s *GameService) SetWorksheetURL(channelID, url string) error {
	return s.store.SetWorksheetURL(channelID, url)
}
