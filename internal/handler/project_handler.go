package handler

import (
	"net/http"

	"github.com/Baaaki/freelance-market/internal/models"
	"github.com/Baaaki/freelance-market/internal/repository"
	"github.com/Baaaki/freelance-market/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ProjectHandler struct {
	projectService *service.ProjectService
}

func NewProjectHandler(projectService *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

type CreateProjectRequest struct {
	Title          string   `json:"title" binding:"required,max=100"`
	Description    string   `json:"description" binding:"required,max=2000"`
	Category       string   `json:"category" binding:"required,project_category"`
	Budget         *float64 `json:"budget" binding:"required,gte=0"`
	Deadline       string   `json:"deadline" binding:"required"`
	RequiredSkills []string `json:"requiredSkills" binding:"required,min=1,dive,required"`
	Attachments    []string `json:"attachments"`
}

type UpdateProjectRequest struct {
	Title          *string   `json:"title" binding:"omitempty,max=100"`
	Description    *string   `json:"description" binding:"omitempty,max=2000"`
	Category       *string   `json:"category" binding:"omitempty,project_category"`
	Budget         *float64  `json:"budget" binding:"omitempty,gte=0"`
	Deadline       *string   `json:"deadline"`
	RequiredSkills *[]string `json:"requiredSkills" binding:"omitempty,min=1"`
	Attachments    *[]string `json:"attachments"`
}

type ListProjectsRequest struct {
	Page      int      `form:"page" binding:"omitempty,min=1"`
	Limit     int      `form:"limit" binding:"omitempty,min=1,max=50"`
	Status    string   `form:"status" binding:"omitempty,oneof=open in_progress completed cancelled"`
	Category  string   `form:"category" binding:"omitempty,project_category"`
	MinBudget *float64 `form:"minBudget" binding:"omitempty,gte=0"`
	MaxBudget *float64 `form:"maxBudget" binding:"omitempty,gte=0"`
	StartDate string   `form:"startDate"`
	EndDate   string   `form:"endDate"`
}

type AssignFreelancerRequest struct {
	FreelancerID string `json:"freelancerId" binding:"required,uuid"`
}

type CompleteProjectRequest struct {
	CompletionNotes  string   `json:"completionNotes" binding:"required,max=2000"`
	FreelancerRating *float64 `json:"freelancerRating" binding:"required,gte=0,lte=5"`
	FreelancerReview string   `json:"freelancerReview" binding:"required,max=2000"`
}

type CancelProjectRequest struct {
	CancellationReason string `json:"cancellationReason" binding:"required,max=1000"`
}

type RateProjectRequest struct {
	Rating *float64 `json:"rating" binding:"required,gte=0,lte=5"`
	Review string   `json:"review" binding:"max=2000"`
}

// GET /api/projects
func (h *ProjectHandler) List(c *gin.Context) {
	var req ListProjectsRequest
	if !bindQuery(c, &req) {
		return
	}

	startDate, err := parseOptionalDate("startDate", req.StartDate)
	if err != nil {
		_ = c.Error(err)
		return
	}
	endDate, err := parseOptionalDate("endDate", req.EndDate)
	if err != nil {
		_ = c.Error(err)
		return
	}

	page, err := h.projectService.List(c.Request.Context(), service.ListProjectsQuery{
		Page:  req.Page,
		Limit: req.Limit,
		Filter: repository.ProjectFilter{
			Status:    models.ProjectStatus(req.Status),
			Category:  models.ProjectCategory(req.Category),
			MinBudget: req.MinBudget,
			MaxBudget: req.MaxBudget,
			StartDate: startDate,
			EndDate:   endDate,
		},
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	respond(c, http.StatusOK, "Projects retrieved successfully", page)
}

// GET /api/projects/my-projects
func (h *ProjectHandler) ListMine(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	projects, err := h.projectService.ListMine(c.Request.Context(), actor)
	if err != nil {
		_ = c.Error(err)
		return
	}

	respond(c, http.StatusOK, "Projects retrieved successfully", projects)
}

// GET /api/projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	project, err := h.projectService.Get(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	respond(c, http.StatusOK, "Project retrieved successfully", project)
}

// POST /api/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req CreateProjectRequest
	if !bindJSON(c, &req) {
		return
	}

	deadline, err := parseDate("deadline", req.Deadline)
	if err != nil {
		_ = c.Error(err)
		return
	}

	project, err := h.projectService.Create(c.Request.Context(), actor, service.CreateProjectInput{
		Title:          req.Title,
		Description:    req.Description,
		Category:       models.ProjectCategory(req.Category),
		Budget:         *req.Budget,
		Deadline:       deadline,
		RequiredSkills: req.RequiredSkills,
		Attachments:    req.Attachments,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	respond(c, http.StatusCreated, "Project created successfully", project)
}

// PUT /api/projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req UpdateProjectRequest
	if !bindJSON(c, &req) {
		return
	}

	in := service.UpdateProjectInput{
		Title:          req.Title,
		Description:    req.Description,
		Budget:         req.Budget,
		RequiredSkills: req.RequiredSkills,
		Attachments:    req.Attachments,
	}
	if req.Category != nil {
		category := models.ProjectCategory(*req.Category)
		in.Category = &category
	}
	if req.Deadline != nil {
		deadline, err := parseDate("deadline", *req.Deadline)
		if err != nil {
			_ = c.Error(err)
			return
		}
		in.Deadline = &deadline
	}

	project, err := h.projectService.Update(c.Request.Context(), actor, id, in)
	if err != nil {
		_ = c.Error(err)
		return
	}

	respond(c, http.StatusOK, "Project updated successfully", project)
}

// DELETE /api/projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	if err := h.projectService.Delete(c.Request.Context(), actor, id); err != nil {
		_ = c.Error(err)
		return
	}

	respond(c, http.StatusOK, "Project deleted successfully", nil)
}

// POST /api/projects/:id/assign
func (h *ProjectHandler) Assign(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req AssignFreelancerRequest
	if !bindJSON(c, &req) {
		return
	}

	project, err := h.projectService.AssignFreelancer(c.Request.Context(), actor, id, uuid.MustParse(req.FreelancerID))
	if err != nil {
		_ = c.Error(err)
		return
	}

	respond(c, http.StatusOK, "Freelancer assigned successfully", project)
}

// POST /api/projects/:id/complete
func (h *ProjectHandler) Complete(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req CompleteProjectRequest
	if !bindJSON(c, &req) {
		return
	}

	project, err := h.projectService.Complete(c.Request.Context(), actor, id, service.CompleteProjectInput{
		CompletionNotes:  req.CompletionNotes,
		FreelancerRating: *req.FreelancerRating,
		FreelancerReview: req.FreelancerReview,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	respond(c, http.StatusOK, "Project completed successfully", project)
}

// POST /api/projects/:id/cancel
func (h *ProjectHandler) Cancel(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req CancelProjectRequest
	if !bindJSON(c, &req) {
		return
	}

	project, err := h.projectService.Cancel(c.Request.Context(), actor, id, req.CancellationReason)
	if err != nil {
		_ = c.Error(err)
		return
	}

	respond(c, http.StatusOK, "Project cancelled successfully", project)
}

// POST /api/projects/:id/rate
func (h *ProjectHandler) Rate(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req RateProjectRequest
	if !bindJSON(c, &req) {
		return
	}

	project, err := h.projectService.Rate(c.Request.Context(), actor, id, service.RateProjectInput{
		Rating: *req.Rating,
		Review: req.Review,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	respond(c, http.StatusOK, "Rating submitted successfully", project)
}
