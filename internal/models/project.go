package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ProjectStatus string

const (
	ProjectOpen       ProjectStatus = "open"
	ProjectInProgress ProjectStatus = "in_progress"
	ProjectCompleted  ProjectStatus = "completed"
	ProjectCancelled  ProjectStatus = "cancelled"
)

type ProjectCategory string

const (
	CategoryWebDevelopment    ProjectCategory = "web_development"
	CategoryMobileDevelopment ProjectCategory = "mobile_development"
	CategoryUIUXDesign        ProjectCategory = "ui_ux_design"
	CategoryGraphicDesign     ProjectCategory = "graphic_design"
	CategoryContentWriting    ProjectCategory = "content_writing"
	CategoryDigitalMarketing  ProjectCategory = "digital_marketing"
	CategorySEO               ProjectCategory = "seo"
	CategoryDataScience       ProjectCategory = "data_science"
	CategoryBlockchain        ProjectCategory = "blockchain"
	CategoryOther             ProjectCategory = "other"
)

type Project struct {
	ID             uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	Title          string                      `gorm:"type:varchar(100);not null" json:"title"`
	Description    string                      `gorm:"type:text;not null" json:"description"`
	Status         ProjectStatus               `gorm:"type:varchar(20);not null;default:'open';index" json:"status"`
	Category       ProjectCategory             `gorm:"type:varchar(30);not null;index" json:"category"`
	Budget         float64                     `gorm:"type:decimal(10,2);not null" json:"budget"`
	Deadline       time.Time                   `gorm:"not null" json:"deadline"`
	RequiredSkills datatypes.JSONSlice[string] `json:"requiredSkills"`
	Attachments    datatypes.JSONSlice[string] `json:"attachments"`

	ClientID             uuid.UUID  `gorm:"type:uuid;not null;index" json:"clientId"`
	Client               *User      `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	AssignedFreelancerID *uuid.UUID `gorm:"type:uuid;index" json:"assignedFreelancerId"`
	AssignedFreelancer   *User      `gorm:"foreignKey:AssignedFreelancerID" json:"assignedFreelancer,omitempty"`

	IsCompleted        bool       `gorm:"not null;default:false" json:"isCompleted"`
	CompletedAt        *time.Time `json:"completedAt"`
	CompletionNotes    string     `gorm:"type:text" json:"completionNotes,omitempty"`
	CancellationReason string     `gorm:"type:text" json:"cancellationReason,omitempty"`
	CancelledAt        *time.Time `json:"cancelledAt"`

	// Written by the client about the freelancer
	FreelancerRating *float64 `gorm:"type:decimal(2,1)" json:"freelancerRating"`
	FreelancerReview string   `gorm:"type:text" json:"freelancerReview,omitempty"`
	// Written by the freelancer about the client
	ClientRating *float64 `gorm:"type:decimal(2,1)" json:"clientRating"`
	ClientReview string   `gorm:"type:text" json:"clientReview,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// IsOwnedBy reports whether userID is the project's client
func (p *Project) IsOwnedBy(userID uuid.UUID) bool {
	return p.ClientID == userID
}

// IsAssignedTo reports whether userID is the assigned freelancer
func (p *Project) IsAssignedTo(userID uuid.UUID) bool {
	return p.AssignedFreelancerID != nil && *p.AssignedFreelancerID == userID
}

var projectCategories = []ProjectCategory{
	CategoryWebDevelopment, CategoryMobileDevelopment, CategoryUIUXDesign,
	CategoryGraphicDesign, CategoryContentWriting, CategoryDigitalMarketing,
	CategorySEO, CategoryDataScience, CategoryBlockchain, CategoryOther,
}

// Valid reports whether c is a known category
func (c ProjectCategory) Valid() bool {
	for _, known := range projectCategories {
		if c == known {
			return true
		}
	}
	return false
}
