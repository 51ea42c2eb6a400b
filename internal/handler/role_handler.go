package handler

import (
	"net/http"

	"github.com/Baaaki/freelance-market/internal/models"
	"github.com/Baaaki/freelance-market/internal/service"
	"github.com/gin-gonic/gin"
)

type RoleHandler struct {
	roleService *service.RoleService
}

func NewRoleHandler(roleService *service.RoleService) *RoleHandler {
	return &RoleHandler{roleService: roleService}
}

type CreateRoleRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description" binding:"max=255"`
}

type UpdateRoleRequest struct {
	Description string `json:"description" binding:"required,max=255"`
}

// GET /api/roles
func (h *RoleHandler) List(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	roles, err := h.roleService.List(c.Request.Context(), actor)
	if err != nil {
		_ = c.Error(err)
		return
	}

	respond(c, http.StatusOK, "Roles retrieved successfully", roles)
}

// GET /api/roles/:id
func (h *RoleHandler) Get(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	role, err := h.roleService.Get(c.Request.Context(), actor, id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	respond(c, http.StatusOK, "Role retrieved successfully", role)
}

// POST /api/roles (admin)
func (h *RoleHandler) Create(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req CreateRoleRequest
	if !bindJSON(c, &req) {
		return
	}

	role, err := h.roleService.Create(c.Request.Context(), actor, models.RoleName(req.Name), req.Description)
	if err != nil {
		_ = c.Error(err)
		return
	}

	respond(c, http.StatusCreated, "Role created successfully", role)
}

// PUT /api/roles/:id (admin)
func (h *RoleHandler) Update(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req UpdateRoleRequest
	if !bindJSON(c, &req) {
		return
	}

	role, err := h.roleService.Update(c.Request.Context(), actor, id, req.Description)
	if err != nil {
		_ = c.Error(err)
		return
	}

	respond(c, http.StatusOK, "Role updated successfully", role)
}

// DELETE /api/roles/:id (admin)
func (h *RoleHandler) Delete(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	if err := h.roleService.Delete(c.Request.Context(), actor, id); err != nil {
		_ = c.Error(err)
		return
	}

	respond(c, http.StatusOK, "Role deleted successfully", nil)
}
