package handler_test

import (
	"net/http"

	"github.com/Baaaki/freelance-market/internal/models"
)

func roleNames(resp map[string]any) []string {
	var names []string
	for _, r := range resp["data"].([]any) {
		names = append(names, r.(map[string]any)["name"].(string))
	}
	return names
}

func (s *APITestSuite) TestRoles_AdminHiddenFromNonAdmins() {
	_, clientToken := s.user("acme", models.RoleClient)
	_, adminToken := s.user("root", models.RoleAdmin)
	s.user("alice", models.RoleFreelancer)

	w, resp := s.do(http.MethodGet, "/api/roles", nil, clientToken)
	s.Require().Equal(http.StatusOK, w.Code)
	s.NotContains(roleNames(resp), "admin")
	s.Contains(roleNames(resp), "client")

	w, resp = s.do(http.MethodGet, "/api/roles", nil, adminToken)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(roleNames(resp), "admin")
}

func (s *APITestSuite) TestRoles_WritesAreAdminOnly() {
	_, clientToken := s.user("acme", models.RoleClient)
	_, adminToken := s.user("root", models.RoleAdmin)

	w, _ := s.do(http.MethodPost, "/api/roles", map[string]string{"name": "freelancer"}, clientToken)
	s.Equal(http.StatusForbidden, w.Code)

	w, _ = s.do(http.MethodPost, "/api/roles", map[string]string{"name": "admin"}, adminToken)
	s.Equal(http.StatusForbidden, w.Code)

	w, resp := s.do(http.MethodPost, "/api/roles", map[string]string{"name": "client"}, adminToken)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("Role already exists", resp["message"])
}

func (s *APITestSuite) TestUsers_ProfileAndSkillFilter() {
	_, aliceToken := s.user("alice", models.RoleFreelancer)
	_, bobToken := s.user("bob", models.RoleFreelancer)
	s.user("acme", models.RoleClient)

	w, resp := s.do(http.MethodPut, "/api/users/me/profile", map[string]any{
		"bio":        "Backend engineer",
		"skills":     []string{"Go", "PostgreSQL"},
		"hourlyRate": 80,
	}, aliceToken)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Equal("Backend engineer", data(resp)["bio"])

	w, _ = s.do(http.MethodPut, "/api/users/me/profile", map[string]any{"skills": []string{"React"}}, bobToken)
	s.Require().Equal(http.StatusOK, w.Code)

	w, resp = s.do(http.MethodGet, "/api/users/freelancers?skills=go,postgresql", nil, bobToken)
	s.Require().Equal(http.StatusOK, w.Code)
	users := resp["data"].([]any)
	s.Require().Len(users, 1)
	s.Equal("alice", users[0].(map[string]any)["username"])

	w, resp = s.do(http.MethodGet, "/api/users/clients", nil, bobToken)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Len(resp["data"], 1)

	w, _ = s.do(http.MethodPut, "/api/users/me/profile", map[string]any{"hourlyRate": -5}, aliceToken)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *APITestSuite) TestUsers_DeleteIsAdminOnly() {
	alice, aliceToken := s.user("alice", models.RoleFreelancer)
	_, adminToken := s.user("root", models.RoleAdmin)

	w, _ := s.do(http.MethodDelete, "/api/users/"+alice.ID.String(), nil, aliceToken)
	s.Equal(http.StatusForbidden, w.Code)

	w, _ = s.do(http.MethodDelete, "/api/users/"+alice.ID.String(), nil, adminToken)
	s.Require().Equal(http.StatusOK, w.Code)

	w, _ = s.do(http.MethodGet, "/api/users/"+alice.ID.String(), nil, adminToken)
	s.Equal(http.StatusNotFound, w.Code)
}
