package repository

import (
	"context"

	"github.com/Baaaki/freelance-market/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *UserRepository) WithTx(tx *gorm.DB) *UserRepository {
	return &UserRepository{db: tx}
}

func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	return translateError(r.db.WithContext(ctx).Create(user).Error)
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	// GORM automatically excludes soft-deleted users
	err := r.db.WithContext(ctx).Preload("Role").Where("email = ?", email).First(&user).Error
	return notFoundAsNil(&user, err)
}

func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Preload("Role").Where("username = ?", username).First(&user).Error
	return notFoundAsNil(&user, err)
}

// GetUserByIdentifier resolves a login identifier against email OR username
func (r *UserRepository) GetUserByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Preload("Role").
		Where("email = ? OR username = ?", identifier, identifier).
		First(&user).Error
	return notFoundAsNil(&user, err)
}

func (r *UserRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Preload("Role").Where("id = ?", id).First(&user).Error
	return notFoundAsNil(&user, err)
}

// ListUsers returns active users, optionally restricted to one role
func (r *UserRepository) ListUsers(ctx context.Context, roleID *uuid.UUID) ([]*models.User, error) {
	var users []*models.User
	q := r.db.WithContext(ctx).Preload("Role").Order("created_at DESC")
	if roleID != nil {
		q = q.Where("role_id = ?", *roleID)
	}
	if err := q.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateProfile writes the given columns only
func (r *UserRepository) UpdateProfile(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields).Error
}

// IncrementCompletedProjects bumps the counter atomically in the database
func (r *UserRepository) IncrementCompletedProjects(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("completed_projects", gorm.Expr("completed_projects + ?", 1)).Error
}

func (r *UserRepository) SetRating(ctx context.Context, id uuid.UUID, rating float64) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("rating", rating).Error
}

// SoftDeleteUser marks a user as deleted (sets DeletedAt)
func (r *UserRepository) SoftDeleteUser(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id).Error
}
