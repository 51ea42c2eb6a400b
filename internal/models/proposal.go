package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ProposalStatus string

const (
	ProposalPending   ProposalStatus = "pending"
	ProposalAccepted  ProposalStatus = "accepted"
	ProposalRejected  ProposalStatus = "rejected"
	ProposalWithdrawn ProposalStatus = "withdrawn"
)

// Proposal belongs to a project. The project holds no list of proposals;
// they are looked up by project_id.
type Proposal struct {
	ID           uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID    uuid.UUID                   `gorm:"type:uuid;not null;uniqueIndex:idx_proposal_project_freelancer" json:"projectId"`
	Project      *Project                    `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"project,omitempty"`
	FreelancerID uuid.UUID                   `gorm:"type:uuid;not null;uniqueIndex:idx_proposal_project_freelancer;index" json:"freelancerId"`
	Freelancer   *User                       `gorm:"foreignKey:FreelancerID" json:"freelancer,omitempty"`
	BidAmount    float64                     `gorm:"type:decimal(10,2);not null" json:"bidAmount"`
	DeliveryTime int                         `gorm:"not null" json:"deliveryTime"` // days
	CoverLetter  string                      `gorm:"type:text;not null" json:"coverLetter"`
	Status       ProposalStatus              `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Attachments  datatypes.JSONSlice[string] `json:"attachments"`
	ClientNote   string                      `gorm:"type:text" json:"clientNote,omitempty"`
	IsAccepted   bool                        `gorm:"not null;default:false" json:"isAccepted"`
	CreatedAt    time.Time                   `gorm:"index" json:"createdAt"`
	UpdatedAt    time.Time                   `json:"updatedAt"`
}

func (p *Proposal) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
