package models

import (
	"time"

	"harambee/internal/uuid"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GoalProgressSnapshot is a point-in-time capture of a goal's progress.
// Snapshots are immutable and accumulate; no Base embed.
type GoalProgressSnapshot struct {
	ID                 string          `gorm:"type:uuid;primaryKey" json:"id"`
	GoalID             string          `gorm:"type:uuid;not null;index" json:"goal_id"`
	CurrentAmount      decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"current_amount"`
	PledgedAmount      decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"pledged_amount"`
	TargetAmount       decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"target_amount"`
	ProgressPercentage float64         `gorm:"not null" json:"progress_percentage"`
	CapturedAt         time.Time       `gorm:"not null;index" json:"captured_at"`

	Goal *Goal `gorm:"foreignKey:GoalID" json:"-"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (s *GoalProgressSnapshot) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New()
	}
	return nil
}
