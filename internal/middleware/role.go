package middleware

import (
	"net/http"

	"quizplatform/internal/domain"
	"quizplatform/internal/modules/auth"
	"quizplatform/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// RequireRole ensures that the authenticated user has the specified role.
// It must run after BearerAuth.
func RequireRole(requiredRole domain.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := auth.Identity(c)
		if !ok {
			response.Abort(c, http.StatusUnauthorized, auth.ErrMissingBearer.Code, auth.ErrMissingBearer.Message)
			return
		}

		if ident.Role != requiredRole {
			response.Abort(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
			return
		}

		c.Next()
	}
}

// AdminOnly middleware requires admin role
func AdminOnly() gin.HandlerFunc {
	return RequireRole(domain.RoleAdmin)
}
