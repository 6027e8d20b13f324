package middleware

import (
	"context"
	"net/http"

	"quizplatform/internal/domain"
	"quizplatform/internal/modules/auth"
	"quizplatform/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Authenticator is implemented by *auth.Service.
type Authenticator interface {
	Authenticate(ctx context.Context, bearer string) (*domain.AuthenticatedUser, error)
}

// BearerAuth validates the bearer access token, checks the owner's account state
// and stores the resulting identity on the request.
func BearerAuth(authn Authenticator, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		bearer, ok := auth.BearerToken(c)
		if !ok {
			response.Abort(c, http.StatusUnauthorized, auth.ErrMissingBearer.Code, auth.ErrMissingBearer.Message)
			return
		}

		ident, err := authn.Authenticate(c.Request.Context(), bearer)
		if err != nil {
			status, code, message, known := auth.Classify(err)
			if !known {
				log.Error("authenticate request failed", zap.Error(err))
				_ = c.Error(err)
			}
			response.Abort(c, status, code, message)
			return
		}

		auth.SetIdentity(c, ident)
		c.Next()
	}
}
