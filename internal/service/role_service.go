package service

import (
	"context"

	"github.com/Baaaki/freelance-market/internal/apperror"
	"github.com/Baaaki/freelance-market/internal/models"
	"github.com/Baaaki/freelance-market/internal/policy"
	"github.com/Baaaki/freelance-market/internal/repository"
	"github.com/Baaaki/freelance-market/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type RoleService struct {
	roleRepo *repository.RoleRepository
}

func NewRoleService(roleRepo *repository.RoleRepository) *RoleService {
	return &RoleService{roleRepo: roleRepo}
}

// List hides the admin role from everyone but admins
func (s *RoleService) List(ctx context.Context, actor policy.Actor) ([]*models.Role, error) {
	roles, err := s.roleRepo.List(ctx, actor.Role == models.RoleAdmin)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return roles, nil
}

func (s *RoleService) Get(ctx context.Context, actor policy.Actor, id uuid.UUID) (*models.Role, error) {
	role, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if role.Name == models.RoleAdmin && actor.Role != models.RoleAdmin {
		return nil, apperror.Forbidden("Access denied")
	}
	return role, nil
}

func (s *RoleService) Create(ctx context.Context, actor policy.Actor, name models.RoleName, description string) (*models.Role, error) {
	if err := policy.Authorize(actor, policy.RoleCreate, policy.Subject{}); err != nil {
		return nil, err
	}
	if !name.Valid() {
		return nil, apperror.BadRequest("Role name must be client, freelancer or admin")
	}
	if name == models.RoleAdmin {
		return nil, apperror.Forbidden("The admin role cannot be created")
	}

	existing, err := s.roleRepo.GetByName(ctx, name)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if existing != nil {
		return nil, apperror.BadRequest("Role already exists")
	}

	role := &models.Role{Name: name, Description: description}
	if err := s.roleRepo.Create(ctx, role); err != nil {
		if apperror.Is(err, apperror.KindConflict) {
			return nil, apperror.BadRequest("Role already exists")
		}
		return nil, apperror.Internal(err)
	}

	logger.Log.Info("Role created",
		zap.String("role", string(name)),
		zap.String("admin_id", actor.UserID.String()),
	)
	return role, nil
}

// Update changes the description only; role names are fixed
func (s *RoleService) Update(ctx context.Context, actor policy.Actor, id uuid.UUID, description string) (*models.Role, error) {
	if err := policy.Authorize(actor, policy.RoleUpdate, policy.Subject{}); err != nil {
		return nil, err
	}

	role, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if role.Name == models.RoleAdmin {
		return nil, apperror.Forbidden("The admin role cannot be modified")
	}

	if err := s.roleRepo.UpdateDescription(ctx, id, description); err != nil {
		return nil, apperror.Internal(err)
	}

	logger.Log.Info("Role updated", zap.String("role", string(role.Name)))
	return s.get(ctx, id)
}

func (s *RoleService) Delete(ctx context.Context, actor policy.Actor, id uuid.UUID) error {
	if err := policy.Authorize(actor, policy.RoleDelete, policy.Subject{}); err != nil {
		return err
	}

	role, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	switch role.Name {
	case models.RoleAdmin:
		return apperror.Forbidden("The admin role cannot be deleted")
	case models.RoleClient, models.RoleFreelancer:
		return apperror.Forbidden("Default roles cannot be deleted")
	}

	if err := s.roleRepo.Delete(ctx, id); err != nil {
		return apperror.Internal(err)
	}

	logger.Log.Info("Role deleted", zap.String("role", string(role.Name)))
	return nil
}

func (s *RoleService) get(ctx context.Context, id uuid.UUID) (*models.Role, error) {
	role, err := s.roleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if role == nil {
		return nil, apperror.NotFound("Role not found")
	}
	return role, nil
}
