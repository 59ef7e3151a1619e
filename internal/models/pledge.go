package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Pledge is a promise by a member to contribute an amount by a due date.
type Pledge struct {
	Base
	MemberID    string          `gorm:"type:uuid;not null;index" json:"member_id"`
	GroupID     *string         `gorm:"type:uuid;index" json:"group_id,omitempty"`
	GoalID      string          `gorm:"type:uuid;not null;index" json:"goal_id"`
	Amount      decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	PledgeDate  time.Time       `gorm:"not null" json:"pledge_date"`
	DueDate     time.Time       `gorm:"not null;index" json:"due_date"`
	Status      PledgeStatus    `gorm:"not null;default:'PENDING';index" json:"status"`
	PaidAt      *time.Time      `json:"paid_at,omitempty"`
	CancelledAt *time.Time      `json:"cancelled_at,omitempty"`
	RemindedFor *time.Time      `json:"reminded_for,omitempty"`
	Description string          `json:"description"`
	CreatedByID string          `gorm:"type:uuid" json:"created_by_id"`

	Member *Member `gorm:"foreignKey:MemberID" json:"-"`
	Group  *Group  `gorm:"foreignKey:GroupID" json:"-"`
	Goal   *Goal   `gorm:"foreignKey:GoalID" json:"-"`
}
