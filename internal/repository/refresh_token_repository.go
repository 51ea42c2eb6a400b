package repository

import (
	"context"
	"time"

	"github.com/Baaaki/freelance-market/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RefreshTokenRepository struct {
	db *gorm.DB
}

func NewRefreshTokenRepository(db *gorm.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

func (r *RefreshTokenRepository) WithTx(tx *gorm.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: tx}
}

func (r *RefreshTokenRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	return translateError(r.db.WithContext(ctx).Create(token).Error)
}

func (r *RefreshTokenRepository) GetByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	var rt models.RefreshToken
	err := r.db.WithContext(ctx).Where("token = ?", token).First(&rt).Error
	return notFoundAsNil(&rt, err)
}

// Invalidate flips a still-valid token to invalid and reports how many rows
// changed. Zero means the token was unknown or already used.
func (r *RefreshTokenRepository) Invalidate(ctx context.Context, token string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.RefreshToken{}).
		Where("token = ? AND is_valid = ?", token, true).
		Update("is_valid", false)
	return res.RowsAffected, res.Error
}

// InvalidateAllForUser signs a user out of every device
func (r *RefreshTokenRepository) InvalidateAllForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.RefreshToken{}).
		Where("user_id = ? AND is_valid = ?", userID, true).
		Update("is_valid", false)
	return res.RowsAffected, res.Error
}

// DeleteExpired removes rows whose expiry is before now
func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at < ?", now).Delete(&models.RefreshToken{})
	return res.RowsAffected, res.Error
}
