package models

import "github.com/shopspring/decimal"

// GoalGroupTarget allocates part of a goal's target to a group.
type GoalGroupTarget struct {
	Base
	GoalID       string          `gorm:"type:uuid;not null;uniqueIndex:idx_goal_group_target" json:"goal_id"`
	GroupID      string          `gorm:"type:uuid;not null;uniqueIndex:idx_goal_group_target;index" json:"group_id"`
	TargetAmount decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"target_amount"`
	CreatedByID  string          `gorm:"type:uuid" json:"created_by_id"`

	Goal  *Goal  `gorm:"foreignKey:GoalID;constraint:OnDelete:CASCADE" json:"-"`
	Group *Group `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE" json:"-"`
}

// GoalMemberTarget allocates part of a goal's target to a member regardless of group.
type GoalMemberTarget struct {
	Base
	GoalID       string          `gorm:"type:uuid;not null;uniqueIndex:idx_goal_member_target" json:"goal_id"`
	MemberID     string          `gorm:"type:uuid;not null;uniqueIndex:idx_goal_member_target;index" json:"member_id"`
	TargetAmount decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"target_amount"`
	CreatedByID  string          `gorm:"type:uuid" json:"created_by_id"`

	Goal   *Goal   `gorm:"foreignKey:GoalID;constraint:OnDelete:CASCADE" json:"-"`
	Member *Member `gorm:"foreignKey:MemberID;constraint:OnDelete:CASCADE" json:"-"`
}

// GoalGroupMemberTarget allocates part of a group's target to one of its members.
type GoalGroupMemberTarget struct {
	Base
	GoalID       string          `gorm:"type:uuid;not null;uniqueIndex:idx_goal_group_member_target" json:"goal_id"`
	GroupID      string          `gorm:"type:uuid;not null;uniqueIndex:idx_goal_group_member_target" json:"group_id"`
	MemberID     string          `gorm:"type:uuid;not null;uniqueIndex:idx_goal_group_member_target;index" json:"member_id"`
	TargetAmount decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"target_amount"`
	CreatedByID  string          `gorm:"type:uuid" json:"created_by_id"`

	Goal   *Goal   `gorm:"foreignKey:GoalID;constraint:OnDelete:CASCADE" json:"-"`
	Group  *Group  `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE" json:"-"`
	Member *Member `gorm:"foreignKey:MemberID;constraint:OnDelete:CASCADE" json:"-"`
}
