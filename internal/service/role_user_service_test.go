package service_test

import (
	"github.com/Baaaki/freelance-market/internal/apperror"
	"github.com/Baaaki/freelance-market/internal/models"
	"github.com/Baaaki/freelance-market/internal/service"
	"github.com/Baaaki/freelance-market/internal/testutil"
)

func (s *ServiceTestSuite) TestRoles_Visibility() {
	client := s.user("acme", models.RoleClient)
	admin := s.user("root", models.RoleAdmin)
	s.user("alice", models.RoleFreelancer)
	adminRole := testutil.CreateRole(s.T(), s.db, models.RoleAdmin)

	roles, err := s.roles.List(s.ctx, testutil.ActorFor(client))
	s.Require().NoError(err)
	s.Len(roles, 2)
	for _, r := range roles {
		s.NotEqual(models.RoleAdmin, r.Name)
	}

	roles, err = s.roles.List(s.ctx, testutil.ActorFor(admin))
	s.Require().NoError(err)
	s.Len(roles, 3)

	_, err = s.roles.Get(s.ctx, testutil.ActorFor(client), adminRole.ID)
	s.requireKind(err, apperror.KindForbidden)
}

func (s *ServiceTestSuite) TestRoles_Mutations() {
	admin := s.user("root", models.RoleAdmin)
	client := s.user("acme", models.RoleClient)
	adminActor := testutil.ActorFor(admin)
	clientRole := testutil.CreateRole(s.T(), s.db, models.RoleClient)
	adminRole := testutil.CreateRole(s.T(), s.db, models.RoleAdmin)

	_, err := s.roles.Create(s.ctx, testutil.ActorFor(client), models.RoleFreelancer, "")
	s.requireKind(err, apperror.KindForbidden)

	_, err = s.roles.Create(s.ctx, adminActor, models.RoleAdmin, "")
	s.requireKind(err, apperror.KindForbidden)

	_, err = s.roles.Create(s.ctx, adminActor, "moderator", "")
	s.requireKind(err, apperror.KindBadRequest)

	_, err = s.roles.Create(s.ctx, adminActor, models.RoleClient, "")
	s.requireKind(err, apperror.KindBadRequest)

	created, err := s.roles.Create(s.ctx, adminActor, models.RoleFreelancer, "Sells services")
	s.Require().NoError(err)
	s.Equal("Sells services", created.Description)

	updated, err := s.roles.Update(s.ctx, adminActor, clientRole.ID, "Buys services")
	s.Require().NoError(err)
	s.Equal("Buys services", updated.Description)

	_, err = s.roles.Update(s.ctx, adminActor, adminRole.ID, "root")
	s.requireKind(err, apperror.KindForbidden)

	s.requireKind(s.roles.Delete(s.ctx, adminActor, adminRole.ID), apperror.KindForbidden)
	s.requireKind(s.roles.Delete(s.ctx, adminActor, clientRole.ID), apperror.KindForbidden)
	s.requireKind(s.roles.Delete(s.ctx, adminActor, created.ID), apperror.KindForbidden)
}

func (s *ServiceTestSuite) TestUsers_ProfileAndListing() {
	alice := s.user("alice", models.RoleFreelancer)
	bob := s.user("bob", models.RoleFreelancer)
	s.user("acme", models.RoleClient)

	updated, err := s.users.UpdateProfile(s.ctx, alice.ID, service.ProfileInput{
		Bio:        testutil.Ptr("Go developer"),
		Skills:     testutil.Ptr([]string{"Go", "Kubernetes"}),
		HourlyRate: testutil.Ptr(95.0),
		Languages:  testutil.Ptr([]string{"English"}),
	})
	s.Require().NoError(err)
	s.Equal("Go developer", updated.Bio)
	s.Equal([]string{"Go", "Kubernetes"}, []string(updated.Skills))
	s.Require().NotNil(updated.HourlyRate)
	s.Equal(95.0, *updated.HourlyRate)

	_, err = s.users.UpdateProfile(s.ctx, bob.ID, service.ProfileInput{Skills: testutil.Ptr([]string{"go"})})
	s.Require().NoError(err)

	_, err = s.users.UpdateProfile(s.ctx, bob.ID, service.ProfileInput{HourlyRate: testutil.Ptr(-1.0)})
	s.requireKind(err, apperror.KindBadRequest)

	freelancers, err := s.users.List(s.ctx, models.RoleFreelancer, nil)
	s.Require().NoError(err)
	s.Len(freelancers, 2)

	matched, err := s.users.List(s.ctx, models.RoleFreelancer, []string{"GO", "kubernetes"})
	s.Require().NoError(err)
	s.Require().Len(matched, 1)
	s.Equal(alice.ID, matched[0].ID)

	everyone, err := s.users.List(s.ctx, "", nil)
	s.Require().NoError(err)
	s.Len(everyone, 3)

	_, err = s.users.List(s.ctx, "superuser", nil)
	s.requireKind(err, apperror.KindBadRequest)
}

func (s *ServiceTestSuite) TestUsers_DeleteRevokesSessions() {
	alice := s.user("alice", models.RoleFreelancer)
	admin := s.user("root", models.RoleAdmin)
	pair, err := s.auth.Login(s.ctx, "alice", testutil.DefaultPassword, service.ClientContext{})
	s.Require().NoError(err)

	err = s.users.Delete(s.ctx, testutil.ActorFor(alice), admin.ID)
	s.requireKind(err, apperror.KindForbidden)

	s.Require().NoError(s.users.Delete(s.ctx, testutil.ActorFor(admin), alice.ID))

	_, err = s.users.Get(s.ctx, alice.ID)
	s.requireKind(err, apperror.KindNotFound)

	_, err = s.auth.Refresh(s.ctx, pair.RefreshToken)
	s.requireKind(err, apperror.KindUnauthorized)

	_, err = s.auth.Login(s.ctx, "alice", testutil.DefaultPassword, service.ClientContext{})
	s.requireKind(err, apperror.KindUnauthorized)
}
