package handler_test

import (
	"fmt"
	"net/http"

	"github.com/Baaaki/freelance-market/internal/models"
	"github.com/Baaaki/freelance-market/internal/testutil"
)

func newProjectBody() map[string]any {
	return map[string]any{
		"title":          "Mobile banking app",
		"description":    "Build the first release of a mobile banking app",
		"category":       "mobile_development",
		"budget":         5000,
		"deadline":       "2030-06-30",
		"requiredSkills": []string{"flutter", "dart"},
	}
}

func (s *APITestSuite) TestProjectLifecycle() {
	_, clientToken := s.user("acme", models.RoleClient)
	alice, aliceToken := s.user("alice", models.RoleFreelancer)
	_, bobToken := s.user("bob", models.RoleFreelancer)

	w, resp := s.do(http.MethodPost, "/api/projects", newProjectBody(), clientToken)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	projectID := data(resp)["id"].(string)
	s.Equal("open", data(resp)["status"])

	proposal := func(token string) string {
		w, resp := s.do(http.MethodPost, "/api/proposals", map[string]any{
			"projectId":    projectID,
			"bidAmount":    4500,
			"deliveryTime": 30,
			"coverLetter":  "Shipped three banking apps last year.",
		}, token)
		s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
		return data(resp)["id"].(string)
	}
	aliceProposal := proposal(aliceToken)
	bobProposal := proposal(bobToken)

	w, resp = s.do(http.MethodPost, "/api/proposals/"+aliceProposal+"/accept", map[string]string{"clientNote": "Welcome aboard"}, clientToken)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Equal("accepted", data(resp)["status"])
	s.Equal(true, data(resp)["isAccepted"])

	w, resp = s.do(http.MethodGet, "/api/projects/"+projectID, nil, "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal("in_progress", data(resp)["status"])
	s.Equal(alice.ID.String(), data(resp)["assignedFreelancerId"])

	w, resp = s.do(http.MethodGet, "/api/proposals/project/"+projectID, nil, clientToken)
	s.Require().Equal(http.StatusOK, w.Code)
	for _, p := range resp["data"].([]any) {
		p := p.(map[string]any)
		if p["id"] == bobProposal {
			s.Equal("rejected", p["status"])
			s.Equal("Another proposal was accepted", p["clientNote"])
		}
	}

	w, resp = s.do(http.MethodPost, "/api/projects/"+projectID+"/complete", map[string]any{
		"completionNotes":  "Delivered on time",
		"freelancerRating": 5,
		"freelancerReview": "Excellent",
	}, clientToken)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Equal("completed", data(resp)["status"])
	s.Equal(true, data(resp)["isCompleted"])

	w, _ = s.do(http.MethodPost, "/api/projects/"+projectID+"/rate", map[string]any{"rating": 4, "review": "Clear brief"}, aliceToken)
	s.Equal(http.StatusOK, w.Code, w.Body.String())

	w, resp = s.do(http.MethodPost, "/api/projects/"+projectID+"/rate", map[string]any{"rating": 1}, aliceToken)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("You have already rated this project", resp["message"])

	w, resp = s.do(http.MethodGet, "/api/users/me", nil, aliceToken)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(float64(1), data(resp)["completedProjects"])
	s.Equal(float64(5), data(resp)["rating"])
}

func (s *APITestSuite) TestCreateProject_FreelancerForbidden() {
	_, token := s.user("alice", models.RoleFreelancer)

	w, resp := s.do(http.MethodPost, "/api/projects", newProjectBody(), token)

	s.Equal(http.StatusForbidden, w.Code)
	s.Equal(false, resp["success"])
}

func (s *APITestSuite) TestCreateProject_Validation() {
	_, token := s.user("acme", models.RoleClient)

	body := newProjectBody()
	body["category"] = "knitting"
	w, resp := s.do(http.MethodPost, "/api/projects", body, token)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("Validation failed", resp["message"])

	body = newProjectBody()
	body["deadline"] = "next tuesday"
	w, resp = s.do(http.MethodPost, "/api/projects", body, token)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("deadline must be a valid date", resp["message"])
}

func (s *APITestSuite) TestListProjects_Pagination() {
	client := testutil.CreateUser(s.T(), s.testDB.DB, "acme", models.RoleClient)
	for i := 0; i < 12; i++ {
		testutil.CreateProject(s.T(), s.testDB.DB, client, testutil.WithBudget(float64(100*(i+1))))
	}

	w, resp := s.do(http.MethodGet, "/api/projects?page=2&limit=5", nil, "")
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	d := data(resp)
	s.Len(d["projects"], 5)
	pagination := d["pagination"].(map[string]any)
	s.Equal(float64(12), pagination["total"])
	s.Equal(float64(3), pagination["totalPages"])
	s.Equal(float64(2), pagination["currentPage"])
	s.Equal(true, pagination["hasNextPage"])
	s.Equal(true, pagination["hasPreviousPage"])

	w, resp = s.do(http.MethodGet, "/api/projects?minBudget=1000", nil, "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(float64(3), data(resp)["pagination"].(map[string]any)["total"])
}

func (s *APITestSuite) TestListProjects_InvalidQuery() {
	testCases := []string{
		"/api/projects?limit=51",
		"/api/projects?page=-1",
		"/api/projects?status=archived",
		"/api/projects?category=knitting",
		"/api/projects?startDate=yesterday",
	}

	for _, path := range testCases {
		s.Run(path, func() {
			w, resp := s.do(http.MethodGet, path, nil, "")
			s.Equal(http.StatusBadRequest, w.Code)
			s.Equal(false, resp["success"])
		})
	}
}

func (s *APITestSuite) TestGetProject_NotFoundAndBadID() {
	w, resp := s.do(http.MethodGet, "/api/projects/8f7c3c52-2b7e-4a7f-9e52-2d9a8c7f0a11", nil, "")
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("Project not found", resp["message"])

	w, _ = s.do(http.MethodGet, "/api/projects/not-a-uuid", nil, "")
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *APITestSuite) TestDeleteProject_OnlyWhileOpen() {
	client, token := s.user("acme", models.RoleClient)
	freelancer := testutil.CreateUser(s.T(), s.testDB.DB, "alice", models.RoleFreelancer)
	running := testutil.CreateProject(s.T(), s.testDB.DB, client,
		testutil.WithStatus(models.ProjectInProgress), testutil.WithFreelancer(freelancer))
	open := testutil.CreateProject(s.T(), s.testDB.DB, client)

	w, resp := s.do(http.MethodDelete, "/api/projects/"+running.ID.String(), nil, token)
	s.Equal(http.StatusForbidden, w.Code)
	s.Equal("Only open projects can be deleted", resp["message"])

	w, _ = s.do(http.MethodDelete, "/api/projects/"+open.ID.String(), nil, token)
	s.Equal(http.StatusOK, w.Code)
}

func (s *APITestSuite) TestAssign_RequiresPendingProposal() {
	client, token := s.user("acme", models.RoleClient)
	freelancer := testutil.CreateUser(s.T(), s.testDB.DB, "alice", models.RoleFreelancer)
	project := testutil.CreateProject(s.T(), s.testDB.DB, client)
	path := fmt.Sprintf("/api/projects/%s/assign", project.ID)

	w, _ := s.do(http.MethodPost, path, map[string]string{"freelancerId": freelancer.ID.String()}, token)
	s.Equal(http.StatusBadRequest, w.Code)

	testutil.CreateProposal(s.T(), s.testDB.DB, project, freelancer)

	w, resp := s.do(http.MethodPost, path, map[string]string{"freelancerId": freelancer.ID.String()}, token)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Equal("in_progress", data(resp)["status"])
}

func (s *APITestSuite) TestProposal_DuplicateAndWrongRole() {
	client, clientToken := s.user("acme", models.RoleClient)
	_, token := s.user("alice", models.RoleFreelancer)
	project := testutil.CreateProject(s.T(), s.testDB.DB, client)

	body := map[string]any{
		"projectId":    project.ID.String(),
		"bidAmount":    900,
		"deliveryTime": 10,
		"coverLetter":  "Happy to help with this.",
	}

	w, _ := s.do(http.MethodPost, "/api/proposals", body, token)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	w, _ = s.do(http.MethodPost, "/api/proposals", body, token)
	s.Equal(http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodPost, "/api/proposals", body, clientToken)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *APITestSuite) TestProposal_UpdateRejectsStatusChange() {
	client := testutil.CreateUser(s.T(), s.testDB.DB, "acme", models.RoleClient)
	freelancer, token := s.user("alice", models.RoleFreelancer)
	project := testutil.CreateProject(s.T(), s.testDB.DB, client)
	proposal := testutil.CreateProposal(s.T(), s.testDB.DB, project, freelancer)
	path := "/api/proposals/" + proposal.ID.String()

	w, _ := s.do(http.MethodPut, path, map[string]any{"status": "accepted"}, token)
	s.Equal(http.StatusBadRequest, w.Code)

	w, resp := s.do(http.MethodPut, path, map[string]any{"bidAmount": 650}, token)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Equal(float64(650), data(resp)["bidAmount"])
}

func (s *APITestSuite) TestMyProposals_FreelancersOnly() {
	_, clientToken := s.user("acme", models.RoleClient)

	w, _ := s.do(http.MethodGet, "/api/proposals/my-proposals", nil, clientToken)

	s.Equal(http.StatusForbidden, w.Code)
}
