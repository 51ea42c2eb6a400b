package service_test

import (
	"time"

	"github.com/Baaaki/freelance-market/internal/apperror"
	"github.com/Baaaki/freelance-market/internal/models"
	"github.com/Baaaki/freelance-market/internal/service"
	"github.com/Baaaki/freelance-market/internal/testutil"
)

func (s *ServiceTestSuite) register(username, email string, role models.RoleName) (*models.User, error) {
	return s.auth.Register(s.ctx, service.RegisterInput{
		Username: username,
		Email:    email,
		Password: "password123",
		Role:     role,
	})
}

func (s *ServiceTestSuite) TestRegister_CreatesRoleLazily() {
	user, err := s.register("alice", "alice@example.com", models.RoleFreelancer)

	s.Require().NoError(err)
	s.Equal(models.RoleFreelancer, user.RoleName())
	s.NotEqual("password123", user.PasswordHash)

	var count int64
	s.db.Model(&models.Role{}).Where("name = ?", models.RoleFreelancer).Count(&count)
	s.Equal(int64(1), count)
}

func (s *ServiceTestSuite) TestRegister_Conflicts() {
	_, err := s.register("alice", "alice@example.com", models.RoleFreelancer)
	s.Require().NoError(err)

	_, err = s.register("other", "alice@example.com", models.RoleClient)
	s.requireKind(err, apperror.KindConflict)
	s.Contains(err.Error(), "email")

	_, err = s.register("alice", "other@example.com", models.RoleClient)
	s.requireKind(err, apperror.KindConflict)
	s.Contains(err.Error(), "username")
}

func (s *ServiceTestSuite) TestRegister_Validation() {
	testCases := []struct {
		name string
		in   service.RegisterInput
	}{
		{"admin role", service.RegisterInput{Username: "root", Email: "root@example.com", Password: "password123", Role: models.RoleAdmin}},
		{"short username", service.RegisterInput{Username: "ab", Email: "ab@example.com", Password: "password123", Role: models.RoleClient}},
		{"bad email", service.RegisterInput{Username: "abc", Email: "abc", Password: "password123", Role: models.RoleClient}},
		{"short password", service.RegisterInput{Username: "abc", Email: "abc@example.com", Password: "123", Role: models.RoleClient}},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			_, err := s.auth.Register(s.ctx, tc.in)
			s.requireKind(err, apperror.KindBadRequest)
		})
	}
}

func (s *ServiceTestSuite) TestLogin_IdentifierAndFailures() {
	alice := s.user("alice", models.RoleFreelancer)
	client := service.ClientContext{UserAgent: "test-agent", IP: "10.0.0.1"}

	pair, err := s.auth.Login(s.ctx, "alice@example.com", testutil.DefaultPassword, client)
	s.Require().NoError(err)
	s.Equal(alice.ID, pair.User.ID)
	s.Equal(int64(900), pair.ExpiresIn)

	claims, err := s.auth.VerifyAccessToken(pair.AccessToken)
	s.Require().NoError(err)
	s.Equal(alice.ID, claims.UserID)
	s.Equal("alice", claims.Username)
	s.Equal(models.RoleFreelancer, claims.Role)

	stored, err := s.tokenRepo.GetByToken(s.ctx, pair.RefreshToken)
	s.Require().NoError(err)
	s.Require().NotNil(stored)
	s.True(stored.IsValid)
	s.Equal("test-agent", stored.DeviceInfo)
	s.Equal("10.0.0.1", stored.IPAddress)

	_, err = s.auth.Login(s.ctx, "alice", testutil.DefaultPassword, client)
	s.NoError(err)

	_, wrongPassword := s.auth.Login(s.ctx, "alice", "nope", client)
	_, unknownUser := s.auth.Login(s.ctx, "ghost", "nope", client)
	s.requireKind(wrongPassword, apperror.KindUnauthorized)
	s.requireKind(unknownUser, apperror.KindUnauthorized)
	s.Equal(wrongPassword.Error(), unknownUser.Error())
}

func (s *ServiceTestSuite) TestRefresh_RotatesOnce() {
	s.user("alice", models.RoleFreelancer)
	first, err := s.auth.Login(s.ctx, "alice", testutil.DefaultPassword, service.ClientContext{UserAgent: "phone", IP: "10.0.0.2"})
	s.Require().NoError(err)

	second, err := s.auth.Refresh(s.ctx, first.RefreshToken)
	s.Require().NoError(err)
	s.NotEqual(first.RefreshToken, second.RefreshToken)

	_, err = s.auth.Refresh(s.ctx, first.RefreshToken)
	s.requireKind(err, apperror.KindUnauthorized)

	stored, err := s.tokenRepo.GetByToken(s.ctx, second.RefreshToken)
	s.Require().NoError(err)
	s.Equal("phone", stored.DeviceInfo)
	s.Equal("10.0.0.2", stored.IPAddress)
}

func (s *ServiceTestSuite) TestRefresh_ExpiredAndUnknown() {
	alice := s.user("alice", models.RoleFreelancer)
	stale := &models.RefreshToken{
		Token:     "stale-token",
		IsValid:   true,
		ExpiresAt: time.Now().Add(-time.Hour),
		UserID:    alice.ID,
	}
	s.Require().NoError(s.db.Omit("User").Create(stale).Error)

	_, err := s.auth.Refresh(s.ctx, "stale-token")
	s.requireKind(err, apperror.KindUnauthorized)
	s.Contains(err.Error(), "expired")

	_, err = s.auth.Refresh(s.ctx, "never-issued")
	s.requireKind(err, apperror.KindUnauthorized)
}

func (s *ServiceTestSuite) TestLogoutAndLogoutAll() {
	alice := s.user("alice", models.RoleFreelancer)
	first, err := s.auth.Login(s.ctx, "alice", testutil.DefaultPassword, service.ClientContext{})
	s.Require().NoError(err)
	second, err := s.auth.Login(s.ctx, "alice", testutil.DefaultPassword, service.ClientContext{})
	s.Require().NoError(err)

	s.Require().NoError(s.auth.Logout(s.ctx, first.RefreshToken))
	s.NoError(s.auth.Logout(s.ctx, first.RefreshToken), "logout is idempotent")

	_, err = s.auth.Refresh(s.ctx, first.RefreshToken)
	s.requireKind(err, apperror.KindUnauthorized)

	revoked, err := s.auth.LogoutAll(s.ctx, alice.ID)
	s.Require().NoError(err)
	s.Equal(int64(1), revoked)

	_, err = s.auth.Refresh(s.ctx, second.RefreshToken)
	s.requireKind(err, apperror.KindUnauthorized)
}

func (s *ServiceTestSuite) TestVerifyAccessToken_Garbage() {
	_, err := s.auth.VerifyAccessToken("not-a-jwt")
	s.requireKind(err, apperror.KindUnauthorized)
}
