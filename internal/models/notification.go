package models

import (
	"time"
)

// NotificationKind categorizes in-app notifications
type NotificationKind string

const (
	NotifySessionBooked    NotificationKind = "session_booked"
	NotifySessionCancelled NotificationKind = "session_cancelled"
	NotifySessionStatus    NotificationKind = "session_status"
	NotifyGeneral          NotificationKind = "general"
)

// Notification represents an in-app notification row for one recipient
type Notification struct {
	BaseModel
	RecipientID string           `gorm:"size:36;index" json:"recipientId"`
	Kind        NotificationKind `gorm:"size:30;default:'general'" json:"kind"`
	Title       string           `gorm:"size:255" json:"title"`
	Body        string           `gorm:"type:text" json:"body"`
	SessionID   *string          `gorm:"size:36;index" json:"sessionId,omitempty"`
	IsRead      bool             `gorm:"default:false" json:"isRead"`
	ReadAt      *time.Time       `json:"readAt,omitempty"`

	// Relations
	Recipient User `gorm:"foreignKey:RecipientID" json:"-"`
}
