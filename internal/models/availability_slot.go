package models

import (
	"time"
)

// AvailabilitySlot is a single bookable 45-minute window for one therapist
// on one date. Date carries midnight UTC; StartTime is a 24-hour "HH:MM"
// string. The unique index guarantees at most one slot per therapist per
// instant.
type AvailabilitySlot struct {
	BaseModel
	TherapistID string    `gorm:"size:36;index;uniqueIndex:idx_slot_instant;not null" json:"therapistId"`
	Date        time.Time `gorm:"uniqueIndex:idx_slot_instant;not null" json:"date"`
	StartTime   string    `gorm:"size:5;uniqueIndex:idx_slot_instant;not null" json:"startTime"`
	IsBooked    bool      `gorm:"default:false" json:"isBooked"`
	IsFree      bool      `gorm:"default:false" json:"isFree"`

	Therapist User `gorm:"foreignKey:TherapistID" json:"-"`
}
