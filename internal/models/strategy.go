package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Strategy is a user-composed, ordered sequence of opportunities. The trust
// score is recomputed and persisted whenever Steps changes, never at read time.
type Strategy struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`

	Steps               datatypes.JSON `gorm:"type:jsonb;not null" json:"steps"`
	TrustScoreCached    int            `gorm:"not null" json:"trust_score_cached"`
	StepsTrustBreakdown datatypes.JSON `gorm:"type:jsonb;not null" json:"steps_trust_breakdown"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime" json:"updated_at"`
}

func (Strategy) TableName() string {
	return "strategies"
}

func (s *Strategy) StepSlugs() []string {
	if s == nil || len(s.Steps) == 0 {
		return nil
	}
	var steps []string
	if err := json.Unmarshal(s.Steps, &steps); err != nil {
		return nil
	}
	return steps
}

func EncodeSteps(steps []string) datatypes.JSON {
	raw, err := json.Marshal(steps)
	if err != nil {
		return datatypes.JSON([]byte("[]"))
	}
	return datatypes.JSON(raw)
}

func EncodeBreakdown(breakdown []int) datatypes.JSON {
	raw, err := json.Marshal(breakdown)
	if err != nil {
		return datatypes.JSON([]byte("[]"))
	}
	return datatypes.JSON(raw)
}
