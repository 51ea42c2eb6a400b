package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/Baaaki/freelance-market/internal/models"
	"github.com/Baaaki/freelance-market/internal/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DefaultPassword is the plain-text password of every fixture user
const DefaultPassword = "password123"

// CreateRole returns the named role, creating it on first use
func CreateRole(t *testing.T, db *gorm.DB, name models.RoleName) *models.Role {
	t.Helper()

	role := models.Role{Name: name, Description: models.DefaultRoleDescriptions[name]}
	if err := db.Where(models.Role{Name: name}).FirstOrCreate(&role).Error; err != nil {
		t.Fatalf("Failed to create role %s: %v", name, err)
	}
	return &role
}

// CreateUser creates a user with DefaultPassword and the given role.
// The email is derived from the username.
func CreateUser(t *testing.T, db *gorm.DB, username string, role models.RoleName) *models.User {
	t.Helper()

	hash, err := utils.HashPassword(DefaultPassword)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	r := CreateRole(t, db, role)
	user := &models.User{
		Username:     username,
		Email:        fmt.Sprintf("%s@example.com", username),
		PasswordHash: hash,
		RoleID:       r.ID,
	}
	if err := db.Omit("Role").Create(user).Error; err != nil {
		t.Fatalf("Failed to create user %s: %v", username, err)
	}
	user.Role = r
	return user
}

// ProjectOption tweaks a fixture project before it is stored
type ProjectOption func(*models.Project)

func WithStatus(status models.ProjectStatus) ProjectOption {
	return func(p *models.Project) { p.Status = status }
}

func WithBudget(budget float64) ProjectOption {
	return func(p *models.Project) { p.Budget = budget }
}

func WithCategory(category models.ProjectCategory) ProjectOption {
	return func(p *models.Project) { p.Category = category }
}

func WithDeadline(deadline time.Time) ProjectOption {
	return func(p *models.Project) { p.Deadline = deadline }
}

func WithFreelancer(freelancer *models.User) ProjectOption {
	return func(p *models.Project) { p.AssignedFreelancerID = &freelancer.ID }
}

// CreateProject creates an open web development project owned by client
func CreateProject(t *testing.T, db *gorm.DB, client *models.User, opts ...ProjectOption) *models.Project {
	t.Helper()

	project := &models.Project{
		Title:          "Build a landing page",
		Description:    "A responsive landing page for a product launch",
		Status:         models.ProjectOpen,
		Category:       models.CategoryWebDevelopment,
		Budget:         1000,
		Deadline:       time.Now().Add(30 * 24 * time.Hour).UTC().Truncate(time.Second),
		RequiredSkills: datatypes.JSONSlice[string]{"html", "css"},
		ClientID:       client.ID,
	}
	for _, opt := range opts {
		opt(project)
	}

	if err := db.Omit("Client", "AssignedFreelancer").Create(project).Error; err != nil {
		t.Fatalf("Failed to create project: %v", err)
	}
	return project
}

// CreateProposal creates a pending proposal by freelancer on project
func CreateProposal(t *testing.T, db *gorm.DB, project *models.Project, freelancer *models.User) *models.Proposal {
	t.Helper()

	proposal := &models.Proposal{
		ProjectID:    project.ID,
		FreelancerID: freelancer.ID,
		BidAmount:    800,
		DeliveryTime: 14,
		CoverLetter:  "I have built many landing pages like this one.",
		Status:       models.ProposalPending,
	}
	if err := db.Omit("Project", "Freelancer").Create(proposal).Error; err != nil {
		t.Fatalf("Failed to create proposal: %v", err)
	}
	return proposal
}
