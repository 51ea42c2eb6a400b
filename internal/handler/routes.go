package handler

import (
	"github.com/Baaaki/freelance-market/internal/middleware"
	"github.com/Baaaki/freelance-market/internal/models"
	"github.com/gin-gonic/gin"
)

// Handlers groups every HTTP handler the API mounts
type Handlers struct {
	Auth      *AuthHandler
	Project   *ProjectHandler
	Proposal  *ProposalHandler
	Role      *RoleHandler
	User      *UserHandler
	WebSocket *WebSocketHandler // optional
}

// RegisterRoutes mounts the API under the given group
func RegisterRoutes(api *gin.RouterGroup, h Handlers, verifier middleware.TokenVerifier) {
	authRequired := middleware.AuthMiddleware(verifier)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	auth := api.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh-token", h.Auth.RefreshToken)
		auth.POST("/logout", h.Auth.Logout)
		auth.POST("/logout-all", authRequired, h.Auth.LogoutAll)
	}

	projects := api.Group("/projects")
	{
		projects.GET("", h.Project.List)
		projects.GET("/my-projects", authRequired, h.Project.ListMine)
		projects.GET("/:id", h.Project.Get)
		projects.POST("", authRequired, h.Project.Create)
		projects.PUT("/:id", authRequired, h.Project.Update)
		projects.DELETE("/:id", authRequired, h.Project.Delete)
		projects.POST("/:id/assign", authRequired, h.Project.Assign)
		projects.POST("/:id/complete", authRequired, h.Project.Complete)
		projects.POST("/:id/cancel", authRequired, h.Project.Cancel)
		projects.POST("/:id/rate", authRequired, h.Project.Rate)
	}

	proposals := api.Group("/proposals", authRequired)
	{
		proposals.POST("", h.Proposal.Create)
		proposals.GET("/my-proposals", h.Proposal.ListMine)
		proposals.GET("/project/:projectId", h.Proposal.ListForProject)
		proposals.PUT("/:id", h.Proposal.Update)
		proposals.POST("/:id/accept", h.Proposal.Accept)
		proposals.POST("/:id/reject", h.Proposal.Reject)
		proposals.POST("/:id/withdraw", h.Proposal.Withdraw)
	}

	roles := api.Group("/roles", authRequired)
	{
		roles.GET("", h.Role.List)
		roles.GET("/:id", h.Role.Get)
		roles.POST("", adminOnly, h.Role.Create)
		roles.PUT("/:id", adminOnly, h.Role.Update)
		roles.DELETE("/:id", adminOnly, h.Role.Delete)
	}

	users := api.Group("/users", authRequired)
	{
		users.GET("/me", h.User.Me)
		users.PUT("/me/profile", h.User.UpdateProfile)
		users.GET("", h.User.List)
		users.GET("/freelancers", h.User.ListFreelancers)
		users.GET("/clients", h.User.ListClients)
		users.GET("/:id", h.User.Get)
		users.DELETE("/:id", adminOnly, h.User.Delete)
	}

	if h.WebSocket != nil {
		api.GET("/ws", authRequired, h.WebSocket.HandleWebSocket)
	}
}
