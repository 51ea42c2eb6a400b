package service

import (
	"context"
	"time"

	"github.com/Baaaki/freelance-market/internal/repository"
	"github.com/Baaaki/freelance-market/pkg/logger"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// TokenSweeper periodically deletes expired refresh-token rows
type TokenSweeper struct {
	repo *repository.RefreshTokenRepository
	cron *cron.Cron
	now  func() time.Time
}

// NewTokenSweeper schedules the sweep with a cron expression such as "@every 1h"
// or "0 3 * * *".
func NewTokenSweeper(repo *repository.RefreshTokenRepository, schedule string) (*TokenSweeper, error) {
	s := &TokenSweeper{
		repo: repo,
		cron: cron.New(),
		now:  time.Now,
	}

	if _, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		_, _ = s.Sweep(ctx)
	}); err != nil {
		return nil, err
	}

	return s, nil
}

// Sweep deletes every refresh token that expired before now
func (s *TokenSweeper) Sweep(ctx context.Context) (int64, error) {
	start := time.Now()

	deleted, err := s.repo.DeleteExpired(ctx, s.now())
	if err != nil {
		logger.Log.Error("Expired token sweep failed", zap.Error(err))
		return 0, err
	}

	logger.Log.Info("Expired token sweep finished",
		zap.Int64("deleted", deleted),
		zap.Duration("duration", time.Since(start)),
	)
	return deleted, nil
}

func (s *TokenSweeper) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for a running sweep to finish
func (s *TokenSweeper) Stop() {
	<-s.cron.Stop().Done()
}
