package service

import (
	"context"
	"strings"

	"github.com/Baaaki/freelance-market/internal/apperror"
	"github.com/Baaaki/freelance-market/internal/models"
	"github.com/Baaaki/freelance-market/internal/policy"
	"github.com/Baaaki/freelance-market/internal/repository"
	"github.com/Baaaki/freelance-market/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type UserService struct {
	db        *gorm.DB
	userRepo  *repository.UserRepository
	roleRepo  *repository.RoleRepository
	tokenRepo *repository.RefreshTokenRepository
}

func NewUserService(
	db *gorm.DB,
	userRepo *repository.UserRepository,
	roleRepo *repository.RoleRepository,
	tokenRepo *repository.RefreshTokenRepository,
) *UserService {
	return &UserService{
		db:        db,
		userRepo:  userRepo,
		roleRepo:  roleRepo,
		tokenRepo: tokenRepo,
	}
}

// ProfileInput is the self-service profile; nil fields stay unchanged.
// Identity, role, rating and counters are not part of it.
type ProfileInput struct {
	FirstName   *string
	LastName    *string
	Bio         *string
	Skills      *[]string
	Experience  *string
	HourlyRate  *float64
	Portfolio   *string
	Location    *string
	PhoneNumber *string
	Languages   *[]string
}

func (in ProfileInput) columns() map[string]any {
	fields := map[string]any{}
	for col, v := range map[string]*string{
		"first_name":   in.FirstName,
		"last_name":    in.LastName,
		"bio":          in.Bio,
		"experience":   in.Experience,
		"portfolio":    in.Portfolio,
		"location":     in.Location,
		"phone_number": in.PhoneNumber,
	} {
		if v != nil {
			fields[col] = *v
		}
	}
	if in.HourlyRate != nil {
		fields["hourly_rate"] = *in.HourlyRate
	}
	if in.Skills != nil {
		fields["skills"] = datatypes.JSONSlice[string](*in.Skills)
	}
	if in.Languages != nil {
		fields["languages"] = datatypes.JSONSlice[string](*in.Languages)
	}
	return fields
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, id)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if user == nil {
		return nil, apperror.NotFound("User not found")
	}
	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, in ProfileInput) (*models.User, error) {
	if in.HourlyRate != nil && *in.HourlyRate < 0 {
		return nil, apperror.BadRequest("Hourly rate must be a positive number")
	}
	if _, err := s.Get(ctx, userID); err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateProfile(ctx, userID, in.columns()); err != nil {
		logger.Log.Error("Failed to update profile", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, apperror.Internal(err)
	}

	logger.Log.Info("Profile updated", zap.String("user_id", userID.String()))
	return s.Get(ctx, userID)
}

// List returns users, optionally filtered by role name and by skills.
// A user matches the skill filter when they have every requested skill
// (case-insensitive).
func (s *UserService) List(ctx context.Context, role models.RoleName, skills []string) ([]*models.User, error) {
	var roleID *uuid.UUID
	if role != "" {
		if !role.Valid() {
			return nil, apperror.BadRequest("Invalid role filter")
		}
		r, err := s.roleRepo.GetByName(ctx, role)
		if err != nil {
			return nil, apperror.Internal(err)
		}
		if r == nil {
			return []*models.User{}, nil
		}
		roleID = &r.ID
	}

	users, err := s.userRepo.ListUsers(ctx, roleID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if len(skills) == 0 {
		return users, nil
	}

	filtered := make([]*models.User, 0, len(users))
	for _, u := range users {
		if hasAllSkills(u.Skills, skills) {
			filtered = append(filtered, u)
		}
	}
	return filtered, nil
}

func hasAllSkills(have, want []string) bool {
	set := make(map[string]struct{}, len(have))
	for _, s := range have {
		set[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
	}
	for _, s := range want {
		if _, ok := set[strings.ToLower(strings.TrimSpace(s))]; !ok {
			return false
		}
	}
	return true
}

// Delete soft-deletes a user and revokes their sessions. Projects and
// proposals keep referencing the user.
func (s *UserService) Delete(ctx context.Context, actor policy.Actor, id uuid.UUID) error {
	if err := policy.Authorize(actor, policy.UserDelete, policy.Subject{}); err != nil {
		return err
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.tokenRepo.WithTx(tx).InvalidateAllForUser(ctx, id); err != nil {
			return err
		}
		return s.userRepo.WithTx(tx).SoftDeleteUser(ctx, id)
	})
	if err != nil {
		return apperror.Internal(err)
	}

	logger.Log.Info("User deleted",
		zap.String("user_id", id.String()),
		zap.String("admin_id", actor.UserID.String()),
	)
	return nil
}
