package store

import (
	"sort"
	"sync"

	"github.com/HiroshigeAoki/slack-game-master/internal/models"
)

// MemoryStore is an in-process Store with the same atomicity guarantees as
// the Postgres driver, provided by a single mutex. Used in tests and local
// development without a database.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*models.GameSession
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*models.GameSession)}
}

func (s *MemoryStore) Put(session *models.GameSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *session
	s.sessions[session.ChannelID] = &cp
	return nil
}

func (s *MemoryStore) Get(channelID string) (*models.GameSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[channelID]
	if !ok {
		return nil, nil
	}
	cp := *session
	return &cp, nil
}

func (s *MemoryStore) List() ([]models.GameSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.GameSession, 0, len(s.sessions))
	for _, session := range s.sessions {
		out = append(out, *session)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) SetStarted(channelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[channelID]; ok {
		session.IsStarted = true
	}
	return nil
}

func (s *MemoryStore) SetJudge(channelID, judge, reason string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[channelID]
	if !ok || session.Judge != models.JudgeNone {
		return false, nil
	}
	session.Judge = judge
	session.Reason = reason
	return true, nil
}

func (s *MemoryStore) SetWorksheetURL(channelID, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[channelID]; ok {
		session.WorksheetURL = url
	}
	return nil
}

func (s *MemoryStore) SetDone(channelID string, role models.Role) (DoneResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[channelID]
	if !ok {
		return DoneResult{}, nil
	}

	changed := false
	if role == models.RoleCustomer && !session.CustomerDone {
		session.CustomerDone = true
		changed = true
	}
	if role == models.RoleSales && !session.SalesDone {
		session.SalesDone = true
		changed = true
	}

	return DoneResult{
		Changed:      changed,
		CustomerDone: session.CustomerDone,
		SalesDone:    session.SalesDone,
	}, nil
}

func (s *MemoryStore) ClearDone(channelID string, role models.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[channelID]
	if !ok {
		return nil
	}
	if role == models.RoleCustomer {
		session.CustomerDone = false
	} else {
		session.SalesDone = false
	}
	return nil
}
