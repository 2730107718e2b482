package models

import (
	"time"
)

// RefreshToken is a stored, revocable refresh credential. Tokens are
// rotated on use: the presented row is revoked and a replacement is
// inserted, so a replayed token no longer matches anything live.
type RefreshToken struct {
	BaseModel
	UserID    string    `gorm:"size:36;index" json:"userId"`
	Token     string    `gorm:"type:text;not null" json:"-"`
	ExpiresAt time.Time `json:"expiresAt"`
	IsRevoked bool      `gorm:"default:false" json:"isRevoked"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}
