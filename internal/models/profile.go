package models

// TherapistProfile holds the practice-facing details of a therapist user.
type TherapistProfile struct {
	BaseModel
	UserID      string  `gorm:"size:36;uniqueIndex" json:"userId"`
	Specialty   string  `gorm:"size:100" json:"specialty,omitempty"`
	Bio         string  `gorm:"type:text" json:"bio,omitempty"`
	SessionRate float64 `gorm:"not null;default:0" json:"sessionRate"`
	IsAccepting bool    `gorm:"default:true" json:"isAccepting"`
	LicenseNo   string  `gorm:"size:50" json:"licenseNo,omitempty"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

// PatientProfile links a patient user to their guardian and primary therapist.
// PrimaryTherapistID is nil until the first booking assigns one.
type PatientProfile struct {
	BaseModel
	UserID             string  `gorm:"size:36;uniqueIndex" json:"userId"`
	GuardianID         *string `gorm:"size:36;index" json:"guardianId,omitempty"`
	PrimaryTherapistID *string `gorm:"size:36;index" json:"primaryTherapistId,omitempty"`
	EmergencyContact   string  `gorm:"size:100" json:"emergencyContact,omitempty"`
	MedicalNotes       string  `gorm:"type:text" json:"medicalNotes,omitempty"`

	User     User  `gorm:"foreignKey:UserID" json:"-"`
	Guardian *User `gorm:"foreignKey:GuardianID" json:"-"`
}
