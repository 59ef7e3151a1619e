package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Contribution is money actually given toward a goal. Only completed
// contributions count toward progress.
type Contribution struct {
	Base
	MemberID         string             `gorm:"type:uuid;not null;index" json:"member_id"`
	GoalID           string             `gorm:"type:uuid;not null;index" json:"goal_id"`
	GroupID          *string            `gorm:"type:uuid;index" json:"group_id,omitempty"`
	PledgeID         *string            `gorm:"type:uuid;uniqueIndex" json:"pledge_id,omitempty"`
	Amount           decimal.Decimal    `gorm:"type:decimal(14,2);not null" json:"amount"`
	Status           ContributionStatus `gorm:"not null;default:'completed';index" json:"status"`
	PledgeDate       *time.Time         `json:"pledge_date,omitempty"`
	ContributionDate *time.Time         `gorm:"index" json:"contribution_date,omitempty"`
	PaymentMethod    string             `json:"payment_method"`
	Reference        string             `json:"reference"`
	Description      string             `json:"description"`
	CreatedByID      string             `gorm:"type:uuid" json:"created_by_id"`

	Member *Member `gorm:"foreignKey:MemberID" json:"-"`
	Goal   *Goal   `gorm:"foreignKey:GoalID" json:"-"`
	Group  *Group  `gorm:"foreignKey:GroupID" json:"-"`
	// A fulfilled pledge may be deleted; its contribution stays and loses the link.
	Pledge *Pledge `gorm:"foreignKey:PledgeID;constraint:OnDelete:SET NULL" json:"-"`
}

// IsRealized reports whether the contribution counts toward progress.
func (c *Contribution) IsRealized() bool {
	return c.Status.IsRealized() && c.ContributionDate != nil
}
