package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/Baaaki/freelance-market/internal/apperror"
	"github.com/Baaaki/freelance-market/internal/broker"
	"github.com/Baaaki/freelance-market/internal/models"
	"github.com/Baaaki/freelance-market/internal/policy"
	"github.com/Baaaki/freelance-market/internal/repository"
	"github.com/Baaaki/freelance-market/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 50

	noteProjectCancelled = "Project was cancelled"
)

type ProjectService struct {
	db           *gorm.DB
	projectRepo  *repository.ProjectRepository
	proposalRepo *repository.ProposalRepository
	userRepo     *repository.UserRepository
	notifier     EventNotifier
}

func NewProjectService(
	db *gorm.DB,
	projectRepo *repository.ProjectRepository,
	proposalRepo *repository.ProposalRepository,
	userRepo *repository.UserRepository,
	notifier EventNotifier,
) *ProjectService {
	return &ProjectService{
		db:           db,
		projectRepo:  projectRepo,
		proposalRepo: proposalRepo,
		userRepo:     userRepo,
		notifier:     notifier,
	}
}

type CreateProjectInput struct {
	Title          string
	Description    string
	Category       models.ProjectCategory
	Budget         float64
	Deadline       time.Time
	RequiredSkills []string
	Attachments    []string
}

// UpdateProjectInput holds the fields to change; nil means unchanged
type UpdateProjectInput struct {
	Title          *string
	Description    *string
	Category       *models.ProjectCategory
	Budget         *float64
	Deadline       *time.Time
	RequiredSkills *[]string
	Attachments    *[]string
}

type CompleteProjectInput struct {
	CompletionNotes  string
	FreelancerRating float64
	FreelancerReview string
}

type RateProjectInput struct {
	Rating float64
	Review string
}

type ListProjectsQuery struct {
	Page   int
	Limit  int
	Filter repository.ProjectFilter
}

type Pagination struct {
	Total           int64 `json:"total"`
	TotalPages      int   `json:"totalPages"`
	CurrentPage     int   `json:"currentPage"`
	Limit           int   `json:"limit"`
	HasNextPage     bool  `json:"hasNextPage"`
	HasPreviousPage bool  `json:"hasPreviousPage"`
}

type ProjectPage struct {
	Projects   []*models.Project `json:"projects"`
	Pagination Pagination        `json:"pagination"`
}

func (s *ProjectService) Create(ctx context.Context, actor policy.Actor, in CreateProjectInput) (*models.Project, error) {
	if err := policy.Authorize(actor, policy.ProjectCreate, policy.Subject{}); err != nil {
		return nil, err
	}
	if !in.Category.Valid() {
		return nil, apperror.BadRequest("Invalid project category")
	}
	if in.Budget < 0 {
		return nil, apperror.BadRequest("Budget must be a positive number")
	}

	project := &models.Project{
		Title:          in.Title,
		Description:    in.Description,
		Status:         models.ProjectOpen,
		Category:       in.Category,
		Budget:         in.Budget,
		Deadline:       in.Deadline,
		RequiredSkills: in.RequiredSkills,
		Attachments:    in.Attachments,
		ClientID:       actor.UserID,
	}

	if err := s.projectRepo.Create(ctx, project); err != nil {
		logger.Log.Error("Failed to create project", zap.String("client_id", actor.UserID.String()), zap.Error(err))
		return nil, apperror.Internal(err)
	}

	logger.Log.Info("Project created",
		zap.String("project_id", project.ID.String()),
		zap.String("client_id", actor.UserID.String()),
		zap.String("category", string(project.Category)),
	)
	return s.Get(ctx, project.ID)
}

func (s *ProjectService) Get(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	project, err := s.projectRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if project == nil {
		return nil, apperror.NotFound("Project not found")
	}
	return project, nil
}

func (s *ProjectService) List(ctx context.Context, q ListProjectsQuery) (*ProjectPage, error) {
	if q.Page == 0 {
		q.Page = 1
	}
	if q.Limit == 0 {
		q.Limit = DefaultPageSize
	}
	if q.Page < 1 {
		return nil, apperror.BadRequest("Page must be at least 1")
	}
	if q.Limit < 1 || q.Limit > MaxPageSize {
		return nil, apperror.BadRequest("Limit must be between 1 and 50")
	}

	projects, total, err := s.projectRepo.List(ctx, q.Filter, q.Page, q.Limit)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	totalPages := int(math.Ceil(float64(total) / float64(q.Limit)))
	return &ProjectPage{
		Projects: projects,
		Pagination: Pagination{
			Total:           total,
			TotalPages:      totalPages,
			CurrentPage:     q.Page,
			Limit:           q.Limit,
			HasNextPage:     q.Page < totalPages,
			HasPreviousPage: q.Page > 1,
		},
	}, nil
}

// ListMine returns the projects a client owns or a freelancer is assigned to
func (s *ProjectService) ListMine(ctx context.Context, actor policy.Actor) ([]*models.Project, error) {
	var (
		projects []*models.Project
		err      error
	)
	switch actor.Role {
	case models.RoleClient:
		projects, err = s.projectRepo.ListByClient(ctx, actor.UserID)
	case models.RoleFreelancer:
		projects, err = s.projectRepo.ListByFreelancer(ctx, actor.UserID)
	default:
		return []*models.Project{}, nil
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return projects, nil
}

func (s *ProjectService) Update(ctx context.Context, actor policy.Actor, id uuid.UUID, in UpdateProjectInput) (*models.Project, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		projects := s.projectRepo.WithTx(tx)

		project, err := s.loadForUpdate(ctx, projects, actor, policy.ProjectUpdate, id)
		if err != nil {
			return err
		}

		switch project.Status {
		case models.ProjectOpen:
			if err := applyFullUpdate(project, in); err != nil {
				return err
			}
		case models.ProjectInProgress:
			// Scope is fixed once work started; other fields are ignored
			if in.Description != nil {
				project.Description = *in.Description
			}
			if in.Attachments != nil {
				project.Attachments = *in.Attachments
			}
		default:
			return apperror.BadRequest("Completed or cancelled projects cannot be updated")
		}

		return projects.Save(ctx, project)
	})
	if err != nil {
		return nil, wrapInternal(err)
	}

	logger.Log.Info("Project updated", zap.String("project_id", id.String()))
	return s.Get(ctx, id)
}

func applyFullUpdate(p *models.Project, in UpdateProjectInput) error {
	if in.Title != nil {
		p.Title = *in.Title
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Category != nil {
		if !in.Category.Valid() {
			return apperror.BadRequest("Invalid project category")
		}
		p.Category = *in.Category
	}
	if in.Budget != nil {
		if *in.Budget < 0 {
			return apperror.BadRequest("Budget must be a positive number")
		}
		p.Budget = *in.Budget
	}
	if in.Deadline != nil {
		p.Deadline = *in.Deadline
	}
	if in.RequiredSkills != nil {
		p.RequiredSkills = *in.RequiredSkills
	}
	if in.Attachments != nil {
		p.Attachments = *in.Attachments
	}
	return nil
}

// Delete removes an open project with its proposals. The status is checked
// on the locked row so a concurrent accept cannot slip in between.
func (s *ProjectService) Delete(ctx context.Context, actor policy.Actor, id uuid.UUID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		projects := s.projectRepo.WithTx(tx)

		project, err := s.loadForUpdate(ctx, projects, actor, policy.ProjectDelete, id)
		if err != nil {
			return err
		}
		if project.Status != models.ProjectOpen {
			return apperror.Forbidden("Only open projects can be deleted")
		}
		return projects.Delete(ctx, id)
	})
	if err != nil {
		return wrapInternal(err)
	}

	logger.Log.Info("Project deleted",
		zap.String("project_id", id.String()),
		zap.String("client_id", actor.UserID.String()),
	)
	return nil
}

// AssignFreelancer moves an open project to in_progress. The freelancer must
// hold the freelancer role and have a pending proposal on this project.
func (s *ProjectService) AssignFreelancer(ctx context.Context, actor policy.Actor, projectID, freelancerID uuid.UUID) (*models.Project, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		projects := s.projectRepo.WithTx(tx)

		project, err := s.loadForUpdate(ctx, projects, actor, policy.ProjectAssign, projectID)
		if err != nil {
			return err
		}
		if project.Status != models.ProjectOpen {
			return apperror.BadRequest("Freelancers can only be assigned to open projects")
		}

		freelancer, err := s.userRepo.WithTx(tx).GetUserByID(ctx, freelancerID)
		if err != nil {
			return err
		}
		if freelancer == nil {
			return apperror.NotFound("Freelancer not found")
		}
		if freelancer.RoleName() != models.RoleFreelancer {
			return apperror.BadRequest("User is not a freelancer")
		}

		proposal, err := s.proposalRepo.WithTx(tx).GetByPair(ctx, projectID, freelancerID)
		if err != nil {
			return err
		}
		if proposal == nil || proposal.Status != models.ProposalPending {
			return apperror.BadRequest("Freelancer has no pending proposal for this project")
		}

		project.AssignedFreelancerID = &freelancerID
		project.Status = models.ProjectInProgress
		return projects.Save(ctx, project)
	})
	if err != nil {
		return nil, wrapInternal(err)
	}

	logger.Log.Info("Freelancer assigned",
		zap.String("project_id", projectID.String()),
		zap.String("freelancer_id", freelancerID.String()),
	)
	notifyAll(ctx, s.notifier, newEvent(broker.EventProjectAssigned, projectID, nil, actor.UserID, freelancerID))
	return s.Get(ctx, projectID)
}

func (s *ProjectService) Complete(ctx context.Context, actor policy.Actor, projectID uuid.UUID, in CompleteProjectInput) (*models.Project, error) {
	if err := validateRating(in.FreelancerRating); err != nil {
		return nil, err
	}

	var freelancerID uuid.UUID
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		projects := s.projectRepo.WithTx(tx)
		users := s.userRepo.WithTx(tx)

		project, err := s.loadForUpdate(ctx, projects, actor, policy.ProjectComplete, projectID)
		if err != nil {
			return err
		}
		if project.Status != models.ProjectInProgress || project.AssignedFreelancerID == nil {
			return apperror.BadRequest("Only in-progress projects can be completed")
		}
		freelancerID = *project.AssignedFreelancerID

		now := time.Now()
		rating := in.FreelancerRating
		project.Status = models.ProjectCompleted
		project.IsCompleted = true
		project.CompletedAt = &now
		project.CompletionNotes = in.CompletionNotes
		project.FreelancerRating = &rating
		project.FreelancerReview = in.FreelancerReview
		if err := projects.Save(ctx, project); err != nil {
			return err
		}

		if err := users.IncrementCompletedProjects(ctx, freelancerID); err != nil {
			return err
		}
		return recomputeRating(ctx, projects, users, freelancerID)
	})
	if err != nil {
		return nil, wrapInternal(err)
	}

	logger.Log.Info("Project completed",
		zap.String("project_id", projectID.String()),
		zap.String("freelancer_id", freelancerID.String()),
		zap.Float64("rating", in.FreelancerRating),
	)
	notifyAll(ctx, s.notifier, newEvent(broker.EventProjectCompleted, projectID, nil, actor.UserID, freelancerID))
	return s.Get(ctx, projectID)
}

// Cancel closes an open or in-progress project and rejects its pending proposals
func (s *ProjectService) Cancel(ctx context.Context, actor policy.Actor, projectID uuid.UUID, reason string) (*models.Project, error) {
	var recipients []uuid.UUID
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		projects := s.projectRepo.WithTx(tx)
		proposals := s.proposalRepo.WithTx(tx)

		project, err := s.loadForUpdate(ctx, projects, actor, policy.ProjectCancel, projectID)
		if err != nil {
			return err
		}
		if project.Status != models.ProjectOpen && project.Status != models.ProjectInProgress {
			return apperror.BadRequest("Only open or in-progress projects can be cancelled")
		}

		now := time.Now()
		project.Status = models.ProjectCancelled
		project.CancellationReason = reason
		project.CancelledAt = &now
		if err := projects.Save(ctx, project); err != nil {
			return err
		}

		rejected, err := proposals.RejectPending(ctx, projectID, uuid.Nil, noteProjectCancelled)
		if err != nil {
			return err
		}
		recipients, err = proposals.FreelancerIDs(ctx, rejected)
		if err != nil {
			return err
		}
		if project.AssignedFreelancerID != nil {
			recipients = append(recipients, *project.AssignedFreelancerID)
		}
		return nil
	})
	if err != nil {
		return nil, wrapInternal(err)
	}

	logger.Log.Info("Project cancelled",
		zap.String("project_id", projectID.String()),
		zap.String("reason", reason),
	)
	notifyAll(ctx, s.notifier, newEvent(broker.EventProjectCancelled, projectID, nil, actor.UserID, recipients...))
	return s.Get(ctx, projectID)
}

// Rate fills the caller's rating slot on a completed project. The client
// rates the freelancer, the assigned freelancer rates the client, and each
// slot can be written once.
func (s *ProjectService) Rate(ctx context.Context, actor policy.Actor, projectID uuid.UUID, in RateProjectInput) (*models.Project, error) {
	if err := validateRating(in.Rating); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		projects := s.projectRepo.WithTx(tx)

		project, err := s.loadForUpdate(ctx, projects, actor, policy.ProjectRate, projectID)
		if err != nil {
			return err
		}
		if project.Status != models.ProjectCompleted {
			return apperror.BadRequest("Only completed projects can be rated")
		}

		rating := in.Rating
		var rated uuid.UUID
		if project.IsOwnedBy(actor.UserID) {
			if project.FreelancerRating != nil {
				return apperror.BadRequest("You have already rated this project")
			}
			project.FreelancerRating = &rating
			project.FreelancerReview = in.Review
			rated = *project.AssignedFreelancerID
		} else {
			if project.ClientRating != nil {
				return apperror.BadRequest("You have already rated this project")
			}
			project.ClientRating = &rating
			project.ClientReview = in.Review
			rated = project.ClientID
		}

		if err := projects.Save(ctx, project); err != nil {
			return err
		}
		return recomputeRating(ctx, projects, s.userRepo.WithTx(tx), rated)
	})
	if err != nil {
		return nil, wrapInternal(err)
	}

	logger.Log.Info("Project rated",
		zap.String("project_id", projectID.String()),
		zap.String("rater_id", actor.UserID.String()),
		zap.Float64("rating", in.Rating),
	)
	return s.Get(ctx, projectID)
}

// loadForUpdate reads the project inside tx and checks the action's policy
func (s *ProjectService) loadForUpdate(ctx context.Context, projects *repository.ProjectRepository, actor policy.Actor, action policy.Action, id uuid.UUID) (*models.Project, error) {
	project, err := projects.GetByIDForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, apperror.NotFound("Project not found")
	}
	if err := policy.Authorize(actor, action, policy.Subject{Project: project}); err != nil {
		logger.Log.Warn("Project action denied",
			zap.String("action", string(action)),
			zap.String("project_id", id.String()),
			zap.String("user_id", actor.UserID.String()),
		)
		return nil, err
	}
	return project, nil
}

// recomputeRating sets the user's rating to the average of every rating
// written about them
func recomputeRating(ctx context.Context, projects *repository.ProjectRepository, users *repository.UserRepository, userID uuid.UUID) error {
	total, count, err := projects.ReceivedRatings(ctx, userID)
	if err != nil {
		return err
	}
	if count == 0 {
		return nil
	}
	avg := math.Round(total/float64(count)*100) / 100
	return users.SetRating(ctx, userID, avg)
}

func validateRating(r float64) error {
	if r < 0 || r > 5 {
		return apperror.BadRequest("Rating must be between 0 and 5")
	}
	return nil
}

// wrapInternal keeps taxonomy errors and hides everything else
func wrapInternal(err error) error {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return err
	}
	logger.Log.Error("Unexpected storage error", zap.Error(err))
	return apperror.Internal(err)
}
