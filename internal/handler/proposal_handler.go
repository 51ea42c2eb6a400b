package handler

import (
	"net/http"

	"github.com/Baaaki/freelance-market/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ProposalHandler struct {
	proposalService *service.ProposalService
}

func NewProposalHandler(proposalService *service.ProposalService) *ProposalHandler {
	return &ProposalHandler{proposalService: proposalService}
}

type CreateProposalRequest struct {
	ProjectID    string   `json:"projectId" binding:"required,uuid"`
	BidAmount    *float64 `json:"bidAmount" binding:"required,gt=0"`
	DeliveryTime *int     `json:"deliveryTime" binding:"required,min=1"`
	CoverLetter  string   `json:"coverLetter" binding:"required,max=5000"`
	Attachments  []string `json:"attachments"`
}

// UpdateProposalRequest also captures the fields a freelancer may not
// change, so the service can reject the attempt instead of ignoring it
type UpdateProposalRequest struct {
	BidAmount    *float64  `json:"bidAmount" binding:"omitempty,gt=0"`
	DeliveryTime *int      `json:"deliveryTime" binding:"omitempty,min=1"`
	CoverLetter  *string   `json:"coverLetter" binding:"omitempty,max=5000"`
	Attachments  *[]string `json:"attachments"`

	Status       *string `json:"status"`
	IsAccepted   *bool   `json:"isAccepted"`
	ProjectID    *string `json:"projectId"`
	FreelancerID *string `json:"freelancerId"`
}

type ClientNoteRequest struct {
	ClientNote string `json:"clientNote" binding:"max=1000"`
}

// POST /api/proposals
func (h *ProposalHandler) Create(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req CreateProposalRequest
	if !bindJSON(c, &req) {
		return
	}

	proposal, err := h.proposalService.Create(c.Request.Context(), actor, service.CreateProposalInput{
		ProjectID:    uuid.MustParse(req.ProjectID),
		BidAmount:    *req.BidAmount,
		DeliveryTime: *req.DeliveryTime,
		CoverLetter:  req.CoverLetter,
		Attachments:  req.Attachments,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	respond(c, http.StatusCreated, "Proposal submitted successfully", proposal)
}

// GET /api/proposals/my-proposals
func (h *ProposalHandler) ListMine(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	proposals, err := h.proposalService.ListMine(c.Request.Context(), actor)
	if err != nil {
		_ = c.Error(err)
		return
	}

	respond(c, http.StatusOK, "Proposals retrieved successfully", proposals)
}

// GET /api/proposals/project/:projectId
func (h *ProposalHandler) ListForProject(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	projectID, ok := paramUUID(c, "projectId")
	if !ok {
		return
	}

	proposals, err := h.proposalService.ListForProject(c.Request.Context(), actor, projectID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	respond(c, http.StatusOK, "Proposals retrieved successfully", proposals)
}

// PUT /api/proposals/:id
func (h *ProposalHandler) Update(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req UpdateProposalRequest
	if !bindJSON(c, &req) {
		return
	}

	proposal, err := h.proposalService.Update(c.Request.Context(), actor, id, service.UpdateProposalInput{
		BidAmount:    req.BidAmount,
		DeliveryTime: req.DeliveryTime,
		CoverLetter:  req.CoverLetter,
		Attachments:  req.Attachments,
		Status:       req.Status,
		IsAccepted:   req.IsAccepted,
		ProjectID:    req.ProjectID,
		FreelancerID: req.FreelancerID,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	respond(c, http.StatusOK, "Proposal updated successfully", proposal)
}

// POST /api/proposals/:id/accept
func (h *ProposalHandler) Accept(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req ClientNoteRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	proposal, err := h.proposalService.Accept(c.Request.Context(), actor, id, req.ClientNote)
	if err != nil {
		_ = c.Error(err)
		return
	}

	respond(c, http.StatusOK, "Proposal accepted successfully", proposal)
}

// POST /api/proposals/:id/reject
func (h *ProposalHandler) Reject(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req ClientNoteRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	proposal, err := h.proposalService.Reject(c.Request.Context(), actor, id, req.ClientNote)
	if err != nil {
		_ = c.Error(err)
		return
	}

	respond(c, http.StatusOK, "Proposal rejected successfully", proposal)
}

// POST /api/proposals/:id/withdraw
func (h *ProposalHandler) Withdraw(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	proposal, err := h.proposalService.Withdraw(c.Request.Context(), actor, id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	respond(c, http.StatusOK, "Proposal withdrawn successfully", proposal)
}
