package testutil

import (
	"testing"

	"github.com/Baaaki/freelance-market/internal/models"
	"github.com/Baaaki/freelance-market/internal/policy"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ActorFor builds the policy actor of a fixture user
func ActorFor(user *models.User) policy.Actor {
	return policy.Actor{UserID: user.ID, Role: user.RoleName()}
}

// Ptr returns a pointer to v
func Ptr[T any](v T) *T {
	return &v
}

// ReloadProject reads the project straight from the database
func ReloadProject(t *testing.T, db *gorm.DB, id uuid.UUID) *models.Project {
	t.Helper()

	var project models.Project
	if err := db.First(&project, "id = ?", id).Error; err != nil {
		t.Fatalf("Failed to reload project %s: %v", id, err)
	}
	return &project
}

// ReloadProposal reads the proposal straight from the database
func ReloadProposal(t *testing.T, db *gorm.DB, id uuid.UUID) *models.Proposal {
	t.Helper()

	var proposal models.Proposal
	if err := db.First(&proposal, "id = ?", id).Error; err != nil {
		t.Fatalf("Failed to reload proposal %s: %v", id, err)
	}
	return &proposal
}

// ReloadUser reads the user straight from the database
func ReloadUser(t *testing.T, db *gorm.DB, id uuid.UUID) *models.User {
	t.Helper()

	var user models.User
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		t.Fatalf("Failed to reload user %s: %v", id, err)
	}
	return &user
}
