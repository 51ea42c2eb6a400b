package service_test

import (
	"time"

	"github.com/Baaaki/freelance-market/internal/models"
	"github.com/Baaaki/freelance-market/internal/service"
)

func (s *ServiceTestSuite) TestTokenSweeper_DeletesOnlyExpired() {
	alice := s.user("alice", models.RoleFreelancer)
	rows := []*models.RefreshToken{
		{Token: "expired-1", IsValid: true, ExpiresAt: time.Now().Add(-2 * time.Hour), UserID: alice.ID},
		{Token: "expired-2", IsValid: false, ExpiresAt: time.Now().Add(-time.Minute), UserID: alice.ID},
		{Token: "live", IsValid: true, ExpiresAt: time.Now().Add(time.Hour), UserID: alice.ID},
	}
	for _, row := range rows {
		s.Require().NoError(s.db.Omit("User").Create(row).Error)
	}

	sweeper, err := service.NewTokenSweeper(s.tokenRepo, "@every 1h")
	s.Require().NoError(err)

	deleted, err := sweeper.Sweep(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(2), deleted)

	var remaining []models.RefreshToken
	s.Require().NoError(s.db.Find(&remaining).Error)
	s.Require().Len(remaining, 1)
	s.Equal("live", remaining[0].Token)
}

func (s *ServiceTestSuite) TestTokenSweeper_StartStop() {
	sweeper, err := service.NewTokenSweeper(s.tokenRepo, "@every 1h")
	s.Require().NoError(err)

	sweeper.Start()
	sweeper.Stop()
}

func (s *ServiceTestSuite) TestTokenSweeper_InvalidSchedule() {
	_, err := service.NewTokenSweeper(s.tokenRepo, "whenever")
	s.Error(err)
}
