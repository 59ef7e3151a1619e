package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// GoalStatus represents the lifecycle state of a fundraising goal
type GoalStatus string

const (
	GoalStatusActive    GoalStatus = "active"
	GoalStatusCompleted GoalStatus = "completed"
)

// Goal is a fundraising target (also called a project). Its target is split
// further into optional per-group and per-member targets.
type Goal struct {
	Base
	Name         string          `gorm:"not null;uniqueIndex" json:"name"`
	Description  string          `json:"description"`
	TargetAmount decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"target_amount"`
	StartDate    *time.Time      `json:"start_date,omitempty"`
	EndDate      *time.Time      `json:"end_date,omitempty"`
	Status       GoalStatus      `gorm:"not null;default:'active'" json:"status"`
	IsActive     bool            `gorm:"default:true" json:"is_active"`
	CreatedByID  string          `gorm:"type:uuid" json:"created_by_id"`
}

// TableName overrides the default table name.
func (Goal) TableName() string {
	return "fundraising_goals"
}
