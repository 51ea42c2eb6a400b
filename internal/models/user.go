package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username     string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"` // Never expose password hash in JSON
	FirstName    string    `gorm:"type:varchar(50)" json:"firstName,omitempty"`
	LastName     string    `gorm:"type:varchar(50)" json:"lastName,omitempty"`

	RoleID uuid.UUID `gorm:"type:uuid;not null;index" json:"roleId"`
	Role   *Role     `gorm:"foreignKey:RoleID" json:"role,omitempty"`

	// Profile
	Bio         string                      `gorm:"type:text" json:"bio,omitempty"`
	Skills      datatypes.JSONSlice[string] `json:"skills"`
	Experience  string                      `gorm:"type:text" json:"experience,omitempty"`
	HourlyRate  *float64                    `gorm:"type:decimal(10,2)" json:"hourlyRate,omitempty"`
	Portfolio   string                      `gorm:"type:text" json:"portfolio,omitempty"`
	Location    string                      `gorm:"type:varchar(100)" json:"location,omitempty"`
	PhoneNumber string                      `gorm:"type:varchar(30)" json:"phoneNumber,omitempty"`
	Languages   datatypes.JSONSlice[string] `json:"languages"`

	Rating            float64 `gorm:"type:decimal(3,2);not null;default:0" json:"rating"`
	CompletedProjects int     `gorm:"not null;default:0" json:"completedProjects"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// RoleName returns the role name, empty when the role was not preloaded
func (u *User) RoleName() RoleName {
	if u.Role == nil {
		return ""
	}
	return u.Role.Name
}
