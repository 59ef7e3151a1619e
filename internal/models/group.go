package models

import "time"

// Group is a named set of members, optionally scoped to a single goal.
type Group struct {
	Base
	Name        string  `gorm:"not null;uniqueIndex" json:"name"`
	Description string  `json:"description"`
	GoalID      *string `gorm:"type:uuid;index" json:"goal_id,omitempty"`
	CreatedByID string  `gorm:"type:uuid" json:"created_by_id"`

	Goal *Goal `gorm:"foreignKey:GoalID" json:"-"`
}

// GroupMember is a row of the group membership join table.
type GroupMember struct {
	GroupID  string    `gorm:"type:uuid;primaryKey" json:"group_id"`
	MemberID string    `gorm:"type:uuid;primaryKey;index" json:"member_id"`
	JoinedAt time.Time `gorm:"not null" json:"joined_at"`

	Group  *Group  `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE" json:"-"`
	Member *Member `gorm:"foreignKey:MemberID;constraint:OnDelete:CASCADE" json:"-"`
}
