package handler

import (
	"net/http"
	"strings"

	"github.com/Baaaki/freelance-market/internal/models"
	"github.com/Baaaki/freelance-market/internal/service"
	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

type UpdateProfileRequest struct {
	FirstName   *string   `json:"firstName" binding:"omitempty,max=50"`
	LastName    *string   `json:"lastName" binding:"omitempty,max=50"`
	Bio         *string   `json:"bio" binding:"omitempty,max=1000"`
	Skills      *[]string `json:"skills" binding:"omitempty,dive,required"`
	Experience  *string   `json:"experience" binding:"omitempty,max=2000"`
	HourlyRate  *float64  `json:"hourlyRate" binding:"omitempty,gte=0"`
	Portfolio   *string   `json:"portfolio" binding:"omitempty,max=255"`
	Location    *string   `json:"location" binding:"omitempty,max=100"`
	PhoneNumber *string   `json:"phoneNumber" binding:"omitempty,max=20"`
	Languages   *[]string `json:"languages" binding:"omitempty,dive,required"`
}

type ListUsersRequest struct {
	Role   string `form:"role" binding:"omitempty,oneof=client freelancer admin"`
	Skills string `form:"skills"`
}

// GET /api/users/me
func (h *UserHandler) Me(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	user, err := h.userService.Get(c.Request.Context(), actor.UserID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	respond(c, http.StatusOK, "User retrieved successfully", user)
}

// PUT /api/users/me/profile
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), actor.UserID, service.ProfileInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Bio:         req.Bio,
		Skills:      req.Skills,
		Experience:  req.Experience,
		HourlyRate:  req.HourlyRate,
		Portfolio:   req.Portfolio,
		Location:    req.Location,
		PhoneNumber: req.PhoneNumber,
		Languages:   req.Languages,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	respond(c, http.StatusOK, "Profile updated successfully", user)
}

// GET /api/users?role=freelancer&skills=go,react
func (h *UserHandler) List(c *gin.Context) {
	var req ListUsersRequest
	if !bindQuery(c, &req) {
		return
	}
	h.list(c, models.RoleName(req.Role), req.Skills)
}

// GET /api/users/freelancers
func (h *UserHandler) ListFreelancers(c *gin.Context) {
	h.list(c, models.RoleFreelancer, c.Query("skills"))
}

// GET /api/users/clients
func (h *UserHandler) ListClients(c *gin.Context) {
	h.list(c, models.RoleClient, "")
}

func (h *UserHandler) list(c *gin.Context, role models.RoleName, skills string) {
	users, err := h.userService.List(c.Request.Context(), role, splitList(skills))
	if err != nil {
		_ = c.Error(err)
		return
	}

	respond(c, http.StatusOK, "Users retrieved successfully", users)
}

// GET /api/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	user, err := h.userService.Get(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	respond(c, http.StatusOK, "User retrieved successfully", user)
}

// DELETE /api/users/:id (admin)
func (h *UserHandler) Delete(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	if err := h.userService.Delete(c.Request.Context(), actor, id); err != nil {
		_ = c.Error(err)
		return
	}

	respond(c, http.StatusOK, "User deleted successfully", nil)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
