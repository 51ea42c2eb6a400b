package repository

import (
	"context"

	"github.com/Baaaki/freelance-market/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RoleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) WithTx(tx *gorm.DB) *RoleRepository {
	return &RoleRepository{db: tx}
}

func (r *RoleRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Role, error) {
	var role models.Role
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&role).Error
	return notFoundAsNil(&role, err)
}

func (r *RoleRepository) GetByName(ctx context.Context, name models.RoleName) (*models.Role, error) {
	var role models.Role
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&role).Error
	return notFoundAsNil(&role, err)
}

// List returns all roles ordered by name. The admin role is left out
// unless includeAdmin is set.
func (r *RoleRepository) List(ctx context.Context, includeAdmin bool) ([]*models.Role, error) {
	var roles []*models.Role
	q := r.db.WithContext(ctx).Order("name ASC")
	if !includeAdmin {
		q = q.Where("name <> ?", models.RoleAdmin)
	}
	if err := q.Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *RoleRepository) Create(ctx context.Context, role *models.Role) error {
	return translateError(r.db.WithContext(ctx).Create(role).Error)
}

func (r *RoleRepository) UpdateDescription(ctx context.Context, id uuid.UUID, description string) error {
	return r.db.WithContext(ctx).Model(&models.Role{}).Where("id = ?", id).Update("description", description).Error
}

func (r *RoleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Role{}, "id = ?", id).Error
}

// FindOrCreate returns the named role, inserting it with its default
// description when absent. Concurrent callers converge on the same row.
func (r *RoleRepository) FindOrCreate(ctx context.Context, name models.RoleName) (*models.Role, error) {
	role := &models.Role{Name: name, Description: models.DefaultRoleDescriptions[name]}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(role).Error
	if err != nil {
		return nil, err
	}
	return r.GetByName(ctx, name)
}
