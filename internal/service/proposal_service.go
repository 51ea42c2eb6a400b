package service

import (
	"context"

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

const noteAnotherAccepted = "Another proposal was accepted"

type ProposalService struct {
	db           *gorm.DB
	proposalRepo *repository.ProposalRepository
	projectRepo  *repository.ProjectRepository
	notifier     EventNotifier
}

func NewProposalService(
	db *gorm.DB,
	proposalRepo *repository.ProposalRepository,
	projectRepo *repository.ProjectRepository,
	notifier EventNotifier,
) *ProposalService {
	return &ProposalService{
		db:           db,
		proposalRepo: proposalRepo,
		projectRepo:  projectRepo,
		notifier:     notifier,
	}
}

type CreateProposalInput struct {
	ProjectID    uuid.UUID
	BidAmount    float64
	DeliveryTime int
	CoverLetter  string
	Attachments  []string
}

// UpdateProposalInput holds the editable fields. Status, IsAccepted,
// ProjectID and FreelancerID are only read to reject requests that try to
// set them.
type UpdateProposalInput struct {
	BidAmount    *float64
	DeliveryTime *int
	CoverLetter  *string
	Attachments  *[]string

	Status       *string
	IsAccepted   *bool
	ProjectID    *string
	FreelancerID *string
}

func (s *ProposalService) Create(ctx context.Context, actor policy.Actor, in CreateProposalInput) (*models.Proposal, error) {
	if err := policy.Authorize(actor, policy.ProposalCreate, policy.Subject{}); err != nil {
		return nil, err
	}

	project, err := s.projectRepo.GetByID(ctx, in.ProjectID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if project == nil {
		return nil, apperror.NotFound("Project not found")
	}
	if project.Status != models.ProjectOpen {
		return nil, apperror.BadRequest("Project is not accepting proposals")
	}

	existing, err := s.proposalRepo.GetByPair(ctx, in.ProjectID, actor.UserID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if existing != nil {
		return nil, apperror.BadRequest("You have already submitted a proposal for this project")
	}

	proposal := &models.Proposal{
		ProjectID:    in.ProjectID,
		FreelancerID: actor.UserID,
		BidAmount:    in.BidAmount,
		DeliveryTime: in.DeliveryTime,
		CoverLetter:  in.CoverLetter,
		Status:       models.ProposalPending,
		Attachments:  in.Attachments,
	}
	if err := s.proposalRepo.Create(ctx, proposal); err != nil {
		// Lost a race against a concurrent submission for the same pair
		if apperror.Is(err, apperror.KindConflict) {
			return nil, apperror.BadRequest("You have already submitted a proposal for this project")
		}
		return nil, apperror.Internal(err)
	}

	logger.Log.Info("Proposal submitted",
		zap.String("proposal_id", proposal.ID.String()),
		zap.String("project_id", in.ProjectID.String()),
		zap.String("freelancer_id", actor.UserID.String()),
		zap.Float64("bid_amount", in.BidAmount),
	)
	notifyAll(ctx, s.notifier,
		newEvent(broker.EventProposalSubmitted, project.ID, &proposal.ID, actor.UserID, project.ClientID))

	return s.get(ctx, proposal.ID)
}

func (s *ProposalService) Update(ctx context.Context, actor policy.Actor, id uuid.UUID, in UpdateProposalInput) (*models.Proposal, error) {
	if in.Status != nil || in.IsAccepted != nil || in.ProjectID != nil || in.FreelancerID != nil {
		return nil, apperror.BadRequest("Status, acceptance, project and freelancer cannot be changed directly")
	}

	proposal, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.ProposalUpdate, policy.Subject{Proposal: proposal}); err != nil {
		return nil, err
	}
	if proposal.Status == models.ProposalAccepted {
		return nil, apperror.BadRequest("Accepted proposals cannot be updated")
	}

	if in.BidAmount != nil {
		proposal.BidAmount = *in.BidAmount
	}
	if in.DeliveryTime != nil {
		proposal.DeliveryTime = *in.DeliveryTime
	}
	if in.CoverLetter != nil {
		proposal.CoverLetter = *in.CoverLetter
	}
	if in.Attachments != nil {
		proposal.Attachments = *in.Attachments
	}

	if err := s.proposalRepo.Save(ctx, proposal); err != nil {
		return nil, apperror.Internal(err)
	}

	logger.Log.Info("Proposal updated", zap.String("proposal_id", id.String()))
	return s.get(ctx, id)
}

// Accept accepts the proposal, assigns its freelancer to the project and
// rejects every other proposal on that project, all in one transaction.
func (s *ProposalService) Accept(ctx context.Context, actor policy.Actor, id uuid.UUID, clientNote string) (*models.Proposal, error) {
	var (
		projectID    uuid.UUID
		freelancerID uuid.UUID
		rejectedIDs  []uuid.UUID
		rejectedTo   []uuid.UUID
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		proposals := s.proposalRepo.WithTx(tx)
		projects := s.projectRepo.WithTx(tx)

		proposal, err := proposals.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if proposal == nil {
			return apperror.NotFound("Proposal not found")
		}

		project, err := projects.GetByIDForUpdate(ctx, proposal.ProjectID)
		if err != nil {
			return err
		}
		if project == nil {
			return apperror.NotFound("Project not found")
		}

		subject := policy.Subject{Project: project, Proposal: proposal}
		if err := policy.Authorize(actor, policy.ProposalAccept, subject); err != nil {
			return err
		}
		if project.Status != models.ProjectOpen {
			return apperror.BadRequest("Project is no longer open")
		}
		if proposal.Status != models.ProposalPending {
			return apperror.BadRequest("Only pending proposals can be accepted")
		}

		proposal.Status = models.ProposalAccepted
		proposal.IsAccepted = true
		if clientNote != "" {
			proposal.ClientNote = clientNote
		}
		if err := proposals.Save(ctx, proposal); err != nil {
			return err
		}

		project.AssignedFreelancerID = &proposal.FreelancerID
		project.Status = models.ProjectInProgress
		if err := projects.Save(ctx, project); err != nil {
			return err
		}

		rejectedIDs, err = proposals.RejectSiblings(ctx, project.ID, proposal.ID, noteAnotherAccepted)
		if err != nil {
			return err
		}
		rejectedTo, err = proposals.FreelancerIDs(ctx, rejectedIDs)
		if err != nil {
			return err
		}

		projectID = project.ID
		freelancerID = proposal.FreelancerID
		return nil
	})
	if err != nil {
		return nil, wrapInternal(err)
	}

	logger.Log.Info("Proposal accepted",
		zap.String("proposal_id", id.String()),
		zap.String("project_id", projectID.String()),
		zap.String("freelancer_id", freelancerID.String()),
		zap.Int("siblings_rejected", len(rejectedIDs)),
	)

	events := []broker.Event{
		newEvent(broker.EventProposalAccepted, projectID, &id, actor.UserID, freelancerID),
		newEvent(broker.EventProjectAssigned, projectID, nil, actor.UserID, freelancerID),
	}
	if len(rejectedTo) > 0 {
		events = append(events, newEvent(broker.EventProposalRejected, projectID, nil, actor.UserID, rejectedTo...))
	}
	notifyAll(ctx, s.notifier, events...)

	return s.get(ctx, id)
}

func (s *ProposalService) Reject(ctx context.Context, actor policy.Actor, id uuid.UUID, clientNote string) (*models.Proposal, error) {
	proposal, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	subject := policy.Subject{Project: proposal.Project, Proposal: proposal}
	if err := policy.Authorize(actor, policy.ProposalReject, subject); err != nil {
		return nil, err
	}
	if proposal.Status != models.ProposalPending {
		return nil, apperror.BadRequest("Only pending proposals can be rejected")
	}

	proposal.Status = models.ProposalRejected
	proposal.IsAccepted = false
	if clientNote != "" {
		proposal.ClientNote = clientNote
	}
	if err := s.proposalRepo.Save(ctx, proposal); err != nil {
		return nil, apperror.Internal(err)
	}

	logger.Log.Info("Proposal rejected", zap.String("proposal_id", id.String()))
	notifyAll(ctx, s.notifier,
		newEvent(broker.EventProposalRejected, proposal.ProjectID, &id, actor.UserID, proposal.FreelancerID))

	return s.get(ctx, id)
}

func (s *ProposalService) Withdraw(ctx context.Context, actor policy.Actor, id uuid.UUID) (*models.Proposal, error) {
	proposal, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.ProposalWithdraw, policy.Subject{Proposal: proposal}); err != nil {
		return nil, err
	}
	switch proposal.Status {
	case models.ProposalAccepted:
		return nil, apperror.BadRequest("Accepted proposals cannot be withdrawn")
	case models.ProposalPending:
	default:
		return nil, apperror.BadRequest("Only pending proposals can be withdrawn")
	}

	proposal.Status = models.ProposalWithdrawn
	if err := s.proposalRepo.Save(ctx, proposal); err != nil {
		return nil, apperror.Internal(err)
	}

	logger.Log.Info("Proposal withdrawn", zap.String("proposal_id", id.String()))
	if proposal.Project != nil {
		notifyAll(ctx, s.notifier,
			newEvent(broker.EventProposalWithdrawn, proposal.ProjectID, &id, actor.UserID, proposal.Project.ClientID))
	}

	return s.get(ctx, id)
}

// ListForProject returns the proposals on a project to its owner
func (s *ProposalService) ListForProject(ctx context.Context, actor policy.Actor, projectID uuid.UUID) ([]*models.Proposal, error) {
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if project == nil {
		return nil, apperror.NotFound("Project not found")
	}
	if err := policy.Authorize(actor, policy.ProjectListProposals, policy.Subject{Project: project}); err != nil {
		return nil, err
	}

	proposals, err := s.proposalRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return proposals, nil
}

func (s *ProposalService) ListMine(ctx context.Context, actor policy.Actor) ([]*models.Proposal, error) {
	if err := policy.Authorize(actor, policy.ProposalListMine, policy.Subject{}); err != nil {
		return nil, err
	}

	proposals, err := s.proposalRepo.ListByFreelancer(ctx, actor.UserID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return proposals, nil
}

func (s *ProposalService) get(ctx context.Context, id uuid.UUID) (*models.Proposal, error) {
	proposal, err := s.proposalRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if proposal == nil {
		return nil, apperror.NotFound("Proposal not found")
	}
	return proposal, nil
}
