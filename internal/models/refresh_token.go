package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RefreshToken struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Token      string    `gorm:"type:varchar(512);uniqueIndex;not null" json:"-"`
	IsValid    bool      `gorm:"not null;default:true" json:"isValid"`
	ExpiresAt  time.Time `gorm:"not null;index" json:"expiresAt"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index" json:"userId"`
	User       *User     `gorm:"foreignKey:UserID" json:"-"`
	DeviceInfo string    `gorm:"type:varchar(255)" json:"deviceInfo,omitempty"`
	IPAddress  string    `gorm:"type:varchar(64)" json:"ipAddress,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (t *RefreshToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// Expired reports whether the token is past its expiry at the given time
func (t *RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
