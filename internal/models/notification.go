package models

import (
	"time"

	"gorm.io/datatypes"
)

// NotificationStatus is the delivery outcome of a notification.
type NotificationStatus string

const (
	NotificationStatusSent   NotificationStatus = "sent"
	NotificationStatusFailed NotificationStatus = "failed"
)

// Notification records one delivery attempt of a rendered notification intent.
type Notification struct {
	Base
	MemberID string             `gorm:"type:uuid;not null;index" json:"member_id"`
	Kind     string             `gorm:"not null;index" json:"kind"`
	Phone    string             `json:"phone"`
	Message  string             `json:"message"`
	Params   datatypes.JSONMap  `json:"params"`
	Status   NotificationStatus `gorm:"not null" json:"status"`
	Attempts int                `gorm:"not null;default:0" json:"attempts"`
	Error    string             `json:"error,omitempty"`
	SentAt   *time.Time         `json:"sent_at,omitempty"`
}
