package middleware

import (
	"strings"

	"github.com/Baaaki/freelance-market/internal/apperror"
	"github.com/Baaaki/freelance-market/internal/models"
	"github.com/Baaaki/freelance-market/internal/policy"
	"github.com/Baaaki/freelance-market/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Context keys set by AuthMiddleware
const (
	ContextUserID = "user_id"
	ContextRole   = "user_role"
	ContextClaims = "claims"
)

// TokenVerifier turns a bearer token into claims or an Unauthorized error
type TokenVerifier interface {
	VerifyAccessToken(token string) (*utils.AccessClaims, error)
}

func AuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Get Authorization header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, apperror.Unauthorized("Authorization header required"))
			return
		}

		// 2. Extract token from "Bearer <token>"
		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || tokenString == "" {
			abortWithError(c, apperror.Unauthorized("Invalid authorization format. Use: Bearer <token>"))
			return
		}

		// 3. Validate token
		claims, err := verifier.VerifyAccessToken(tokenString)
		if err != nil {
			abortWithError(c, err)
			return
		}

		// 4. Add claims to context
		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextRole, claims.Role)
		c.Set(ContextClaims, claims)

		c.Next()
	}
}

// RequireRoles lets the request through only for the listed roles
func RequireRoles(roles ...models.RoleName) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := CurrentActor(c)
		if !ok {
			abortWithError(c, apperror.Unauthorized("Authentication required"))
			return
		}
		for _, r := range roles {
			if actor.Role == r {
				c.Next()
				return
			}
		}
		abortWithError(c, apperror.Forbidden("Access denied"))
	}
}

// CurrentActor returns the authenticated caller
func CurrentActor(c *gin.Context) (policy.Actor, bool) {
	id, ok := c.Get(ContextUserID)
	if !ok {
		return policy.Actor{}, false
	}
	userID, ok := id.(uuid.UUID)
	if !ok {
		return policy.Actor{}, false
	}
	role, _ := c.Get(ContextRole)
	roleName, _ := role.(models.RoleName)
	return policy.Actor{UserID: userID, Role: roleName}, true
}

// CurrentClaims returns the verified access-token claims
func CurrentClaims(c *gin.Context) (*utils.AccessClaims, bool) {
	v, ok := c.Get(ContextClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*utils.AccessClaims)
	return claims, ok
}

func abortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
