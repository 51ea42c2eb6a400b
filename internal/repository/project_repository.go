package repository

import (
	"context"
	"time"

	"github.com/Baaaki/freelance-market/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProjectFilter narrows project listings. Zero values mean "no filter".
type ProjectFilter struct {
	Status    models.ProjectStatus
	Category  models.ProjectCategory
	MinBudget *float64
	MaxBudget *float64
	StartDate *time.Time // deadline >= StartDate
	EndDate   *time.Time // deadline <= EndDate
}

type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) WithTx(tx *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: tx}
}

// withParticipants preloads client and freelancer without their roles
func withParticipants(db *gorm.DB) *gorm.DB {
	return db.Preload("Client").Preload("AssignedFreelancer")
}

func (r *ProjectRepository) Create(ctx context.Context, project *models.Project) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(project).Error
}

func (r *ProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var project models.Project
	err := r.db.WithContext(ctx).Scopes(withParticipants).Where("id = ?", id).First(&project).Error
	return notFoundAsNil(&project, err)
}

// GetByIDForUpdate reads the row inside a transaction, locking it on
// databases that support row locks.
func (r *ProjectRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var project models.Project
	q := r.db.WithContext(ctx)
	if q.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	err := q.Where("id = ?", id).First(&project).Error
	return notFoundAsNil(&project, err)
}

// List returns one page of projects, newest first, plus the total match count
func (r *ProjectRepository) List(ctx context.Context, f ProjectFilter, page, limit int) ([]*models.Project, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Project{})

	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.MinBudget != nil {
		q = q.Where("budget >= ?", *f.MinBudget)
	}
	if f.MaxBudget != nil {
		q = q.Where("budget <= ?", *f.MaxBudget)
	}
	if f.StartDate != nil {
		q = q.Where("deadline >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		q = q.Where("deadline <= ?", *f.EndDate)
	}

	// New session so Count and Find each start from the filtered statement
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var projects []*models.Project
	err := q.Scopes(withParticipants).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&projects).Error
	if err != nil {
		return nil, 0, err
	}

	return projects, total, nil
}

func (r *ProjectRepository) ListByClient(ctx context.Context, clientID uuid.UUID) ([]*models.Project, error) {
	var projects []*models.Project
	err := r.db.WithContext(ctx).Scopes(withParticipants).
		Where("client_id = ?", clientID).
		Order("created_at DESC").
		Find(&projects).Error
	return projects, err
}

func (r *ProjectRepository) ListByFreelancer(ctx context.Context, freelancerID uuid.UUID) ([]*models.Project, error) {
	var projects []*models.Project
	err := r.db.WithContext(ctx).Scopes(withParticipants).
		Where("assigned_freelancer_id = ?", freelancerID).
		Order("created_at DESC").
		Find(&projects).Error
	return projects, err
}

// Save writes every column of the project, never its associations
func (r *ProjectRepository) Save(ctx context.Context, project *models.Project) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(project).Error
}

// Delete removes the project together with its proposals
func (r *ProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&models.Proposal{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Project{}, "id = ?", id).Error
	})
}

type ratingAggregate struct {
	Total float64
	Count int64
}

// ReceivedRatings sums every rating written about the user, both as a
// freelancer (by clients) and as a client (by freelancers).
func (r *ProjectRepository) ReceivedRatings(ctx context.Context, userID uuid.UUID) (total float64, count int64, err error) {
	var asFreelancer, asClient ratingAggregate

	err = r.db.WithContext(ctx).Model(&models.Project{}).
		Select("COALESCE(SUM(freelancer_rating), 0) AS total, COUNT(freelancer_rating) AS count").
		Where("assigned_freelancer_id = ?", userID).
		Scan(&asFreelancer).Error
	if err != nil {
		return 0, 0, err
	}

	err = r.db.WithContext(ctx).Model(&models.Project{}).
		Select("COALESCE(SUM(client_rating), 0) AS total, COUNT(client_rating) AS count").
		Where("client_id = ?", userID).
		Scan(&asClient).Error
	if err != nil {
		return 0, 0, err
	}

	return asFreelancer.Total + asClient.Total, asFreelancer.Count + asClient.Count, nil
}
