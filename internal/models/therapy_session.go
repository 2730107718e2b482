package models

import (
	"time"
)

// SessionStatus represents the status of a therapy session
type SessionStatus string

const (
	SessionRequested SessionStatus = "REQUESTED"
	SessionApproved  SessionStatus = "APPROVED"
	SessionScheduled SessionStatus = "SCHEDULED"
	SessionCompleted SessionStatus = "COMPLETED"
	SessionCancelled SessionStatus = "CANCELLED"
	SessionDeclined  SessionStatus = "DECLINED"
)

// MeetingType represents how a session is delivered
type MeetingType string

const (
	MeetingInPerson MeetingType = "IN_PERSON"
	MeetingOnline   MeetingType = "ONLINE"
	MeetingHybrid   MeetingType = "HYBRID"
)

// TherapySession represents a booked therapy session. ScheduledAt is an
// absolute UTC instant matching the claimed slot's date + start time;
// Duration is fixed at 45 minutes.
type TherapySession struct {
	BaseModel
	PatientID       string        `gorm:"size:36;index" json:"patientId"`
	TherapistID     string        `gorm:"size:36;index" json:"therapistId"`
	ScheduledAt     time.Time     `gorm:"not null" json:"scheduledAt"`
	Duration        int           `gorm:"not null;default:45" json:"duration"`
	Status          SessionStatus `gorm:"size:20;default:'SCHEDULED'" json:"status"`
	Type            string        `gorm:"size:100;default:'Individual'" json:"type"`
	SessionType     MeetingType   `gorm:"size:20;default:'IN_PERSON'" json:"sessionType"`
	BookedRate      float64       `gorm:"not null;default:0" json:"bookedRate"`
	MeetingLink     *string       `gorm:"size:512" json:"meetingLink,omitempty"`
	CalendarEventID *string       `gorm:"size:255" json:"calendarEventId,omitempty"`
	Notes           string        `gorm:"type:text" json:"notes,omitempty"`

	// Relations
	Patient   User `gorm:"foreignKey:PatientID" json:"-"`
	Therapist User `gorm:"foreignKey:TherapistID" json:"-"`
}
