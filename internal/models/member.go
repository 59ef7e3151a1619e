package models

import "gorm.io/datatypes"

// MemberCodeLength is the number of digits in a generated member code.
const MemberCodeLength = 6

// Member is an individual who pledges and contributes toward goals.
type Member struct {
	Base
	FullName    string                      `gorm:"not null;index" json:"full_name"`
	Phone       string                      `gorm:"not null;uniqueIndex" json:"phone"`
	Email       *string                     `json:"email,omitempty"`
	Aliases     datatypes.JSONSlice[string] `json:"aliases"`
	MemberCode  string                      `gorm:"size:6;not null;uniqueIndex" json:"member_code"`
	IsActive    bool                        `gorm:"default:true" json:"is_active"`
	CreatedByID string                      `gorm:"type:uuid" json:"created_by_id"`
}
