package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RoleName string

const (
	RoleClient     RoleName = "client"
	RoleFreelancer RoleName = "freelancer"
	RoleAdmin      RoleName = "admin"
)

// Valid reports whether the name is one of the fixed role names
func (n RoleName) Valid() bool {
	switch n {
	case RoleClient, RoleFreelancer, RoleAdmin:
		return true
	}
	return false
}

// Role carries no list of its users. Users reference it through role_id.
type Role struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        RoleName  `gorm:"type:varchar(20);uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:varchar(255)" json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (r *Role) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// DefaultRoleDescriptions is what the seeder and lazy role creation write.
var DefaultRoleDescriptions = map[RoleName]string{
	RoleClient:     "Posts projects and hires freelancers",
	RoleFreelancer: "Submits proposals and delivers projects",
	RoleAdmin:      "Platform administrator",
}
