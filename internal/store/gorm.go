package store

import (
	"errors"

	"github.com/HiroshigeAoki/slack-game-master/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore is the Postgres-backed Store used in production.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Put(session *models.GameSession) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("channel_id = ?", session.ChannelID).
			Delete(&models.GameSession{}).Error; err != nil {
			return err
		}
		return tx.Create(session).Error
	})
	if err != nil {
		return &StorageError{Op: "put", Err: err}
	}
	return nil
}

func (s *GormStore) Get(channelID string) (*models.GameSession, error) {
	var session models.GameSession
	err := s.db.Where("channel_id = ?", channelID).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &StorageError{Op: "get", Err: err}
	}
	return &session, nil
}

func (s *GormStore) List() ([]models.GameSession, error) {
	var sessions []models.GameSession
	if err := s.db.Order("created_at DESC").Find(&sessions).Error; err != nil {
		return nil, &StorageError{Op: "list", Err: err}
	}
	return sessions, nil
}

func (s *GormStore) SetStarted(channelID string) error {
	res := s.db.Model(&models.GameSession{}).
		Where("channel_id = ?", channelID).
		Update("is_started", true)
	if res.Error != nil {
		return &StorageError{Op: "set started", Err: res.Error}
	}
	return nil
}

func (s *GormStore) SetJudge(channelID, judge, reason string) (bool, error) {
	res := s.db.Model(&models.GameSession{}).
		Where("channel_id = ? AND judge = ''", channelID).
		Updates(map[string]interface{}{"judge": judge, "reason": reason})
	if res.Error != nil {
		return false, &StorageError{Op: "set judge", Err: res.Error}
	}
	return res.RowsAffected == 1, nil
}

func (s *GormStore) SetWorksheetURL(channelID, url string) error {
	res := s.db.Model(&models.GameSession{}).
		Where("channel_id = ?", channelID).
		Update("worksheet_url", url)
	if res.Error != nil {
		return &StorageError{Op: "set worksheet url", Err: res.Error}
	}
	return nil
}

// SetDone relies on the row lock taken by the conditional UPDATE: the two
// roles' updates serialize on the row, and RETURNING reads the flags under
// that same lock, so the conjunction each caller sees is authoritative for
// its own transition.
func (s *GormStore) SetDone(channelID string, role models.Role) (DoneResult, error) {
	col := doneColumn(role)

	var rows []models.GameSession
	res := s.db.Model(&rows).
		Clauses(clause.Returning{Columns: []clause.Column{
			{Name: "customer_done"},
			{Name: "sales_done"},
		}}).
		Where("channel_id = ? AND "+col+" = ?", channelID, false).
		Update(col, true)
	if res.Error != nil {
		return DoneResult{}, &StorageError{Op: "set done", Err: res.Error}
	}

	if res.RowsAffected == 1 && len(rows) == 1 {
		return DoneResult{
			Changed:      true,
			CustomerDone: rows[0].CustomerDone,
			SalesDone:    rows[0].SalesDone,
		}, nil
	}

	// Flag was already set (or the record vanished); report current flags
	// without claiming the transition.
	session, err := s.Get(channelID)
	if err != nil {
		return DoneResult{}, err
	}
	if session == nil {
		return DoneResult{}, nil
	}
	return DoneResult{
		CustomerDone: session.CustomerDone,
		SalesDone:    session.SalesDone,
	}, nil
}

func (s *GormStore) ClearDone(channelID string, role models.Role) error {
	res := s.db.Model(&models.GameSession{}).
		Where("channel_id = ?", channelID).
		Update(doneColumn(role), false)
	if res.Error != nil {
		return &StorageError{Op: "clear done", Err: res.Error}
	}
	return nil
}
