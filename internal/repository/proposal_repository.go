package repository

import (
	"context"

	"github.com/Baaaki/freelance-market/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProposalRepository struct {
	db *gorm.DB
}

func NewProposalRepository(db *gorm.DB) *ProposalRepository {
	return &ProposalRepository{db: db}
}

func (r *ProposalRepository) WithTx(tx *gorm.DB) *ProposalRepository {
	return &ProposalRepository{db: tx}
}

func (r *ProposalRepository) Create(ctx context.Context, proposal *models.Proposal) error {
	return translateError(r.db.WithContext(ctx).Omit(clause.Associations).Create(proposal).Error)
}

func (r *ProposalRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Proposal, error) {
	var proposal models.Proposal
	err := r.db.WithContext(ctx).
		Preload("Project").
		Preload("Freelancer").
		Where("id = ?", id).
		First(&proposal).Error
	return notFoundAsNil(&proposal, err)
}

// GetByPair finds the freelancer's proposal on a project, if any
func (r *ProposalRepository) GetByPair(ctx context.Context, projectID, freelancerID uuid.UUID) (*models.Proposal, error) {
	var proposal models.Proposal
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND freelancer_id = ?", projectID, freelancerID).
		First(&proposal).Error
	return notFoundAsNil(&proposal, err)
}

func (r *ProposalRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Proposal, error) {
	var proposals []*models.Proposal
	err := r.db.WithContext(ctx).
		Preload("Freelancer").
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&proposals).Error
	return proposals, err
}

func (r *ProposalRepository) ListByFreelancer(ctx context.Context, freelancerID uuid.UUID) ([]*models.Proposal, error) {
	var proposals []*models.Proposal
	err := r.db.WithContext(ctx).
		Preload("Project").
		Where("freelancer_id = ?", freelancerID).
		Order("created_at DESC").
		Find(&proposals).Error
	return proposals, err
}

// Save writes every column of the proposal, never its associations
func (r *ProposalRepository) Save(ctx context.Context, proposal *models.Proposal) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(proposal).Error
}

// RejectPending rejects every pending proposal on the project except the
// given one (uuid.Nil excludes nothing) and returns the ids it touched.
func (r *ProposalRepository) RejectPending(ctx context.Context, projectID, exceptID uuid.UUID, note string) ([]uuid.UUID, error) {
	return r.reject(ctx, projectID, exceptID, note, models.ProposalPending)
}

// RejectSiblings rejects every other proposal on the project that is not
// rejected yet, withdrawn ones included.
func (r *ProposalRepository) RejectSiblings(ctx context.Context, projectID, exceptID uuid.UUID, note string) ([]uuid.UUID, error) {
	return r.reject(ctx, projectID, exceptID, note, models.ProposalPending, models.ProposalWithdrawn)
}

func (r *ProposalRepository) reject(ctx context.Context, projectID, exceptID uuid.UUID, note string, from ...models.ProposalStatus) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	q := r.db.WithContext(ctx).Model(&models.Proposal{}).
		Where("project_id = ? AND status IN ?", projectID, from)
	if exceptID != uuid.Nil {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	err := r.db.WithContext(ctx).Model(&models.Proposal{}).
		Where("id IN ?", ids).
		Updates(map[string]any{
			"status":      models.ProposalRejected,
			"client_note": note,
			"is_accepted": false,
		}).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// FreelancerIDs resolves the owners of the given proposals
func (r *ProposalRepository) FreelancerIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var freelancers []uuid.UUID
	err := r.db.WithContext(ctx).Model(&models.Proposal{}).
		Where("id IN ?", ids).
		Pluck("freelancer_id", &freelancers).Error
	return freelancers, err
}
