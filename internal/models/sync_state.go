package models

import (
	"time"

	"gorm.io/datatypes"
)

// SyncState tracks per-source sync provenance.
type SyncState struct {
	Source        string         `gorm:"primaryKey;type:varchar(50)" json:"source"`
	LastSuccessAt *time.Time     `gorm:"type:timestamptz" json:"last_success_at,omitempty"`
	LastAttemptAt *time.Time     `gorm:"type:timestamptz" json:"last_attempt_at,omitempty"`
	LastError     *string        `gorm:"type:text" json:"last_error,omitempty"`
	LastCount     int            `json:"last_count"`
	StatsJSON     datatypes.JSON `gorm:"type:jsonb" json:"stats,omitempty"`
}

func (SyncState) TableName() string {
	return "sync_state"
}
