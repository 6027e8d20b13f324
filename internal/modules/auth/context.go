package auth

import (
	"strings"

	"quizplatform/internal/domain"

	"github.com/gin-gonic/gin"
)

const identityKey = "auth.identity"

// SetIdentity stores the authenticated user on the request.
func SetIdentity(c *gin.Context, ident *domain.AuthenticatedUser) {
	c.Set(identityKey, ident)
}

// Identity returns the user stored by the auth gate.
func Identity(c *gin.Context) (*domain.AuthenticatedUser, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	ident, ok := v.(*domain.AuthenticatedUser)
	return ident, ok && ident != nil
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	scheme, tok, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	tok = strings.TrimSpace(tok)
	return tok, tok != ""
}
