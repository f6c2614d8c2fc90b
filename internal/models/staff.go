package models

import "time"

// StaffAccount is a dashboard login for game operators. Staff identity on
// the Slack side is a static user-ID set from config; these accounts only
// gate the monitoring/admin API.
type StaffAccount struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:100;uniqueIndex;not null" json:"username"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
