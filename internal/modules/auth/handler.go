package auth

import (
	"net/http"
	"strconv"

	"quizplatform/internal/pkg/response"
	"quizplatform/internal/pkg/validator"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler serves the /auth endpoints.
type Handler struct {
	service *Service
	log     *zap.Logger
}

func NewHandler(service *Service, log *zap.Logger) *Handler {
	return &Handler{service: service, log: log}
}

func (h *Handler) RegisterPublicRoutes(v1 *gin.RouterGroup) {
	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/login", h.Login)
		authGroup.POST("/refresh", h.Refresh)
		authGroup.POST("/logout", h.Logout)
	}
}

// RegisterProtectedRoutes expects protected to run the auth gate. limited adds
// the per-token rate limit on mutating routes.
func (h *Handler) RegisterProtectedRoutes(protected *gin.RouterGroup, limited gin.HandlerFunc) {
	me := protected.Group("/auth")
	{
		me.GET("/me", h.GetMe)
		me.PATCH("/me", limited, h.UpdateMe)
	}
}

func (h *Handler) RegisterAdminRoutes(admin *gin.RouterGroup) {
	admin.POST("/users/:id/revoke-tokens", h.RevokeUserTokens)
}

// Login exchanges email and password for a token pair.
// @Router /auth/login [POST]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	result, err := h.service.Login(c.Request.Context(), req, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"user":               toUserPublic(result.User),
		"access_token":       result.Pair.AccessToken,
		"refresh_token":      result.Pair.RefreshToken,
		"token_type":         "Bearer",
		"access_expires_at":  result.Pair.AccessExpiresAt,
		"refresh_expires_at": result.Pair.RefreshExpiresAt,
	})
}

// Refresh rotates a refresh token.
// @Router /auth/refresh [POST]
func (h *Handler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if !bindAndValidate(c, &req) {
		return
	}

	result, err := h.service.Refresh(c.Request.Context(), req.RefreshToken, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		h.writeError(c, err)
		return
	}

	pair := toTokenPairResponse(result.Pair)
	response.Success(c, http.StatusOK, gin.H{
		"access_token":       pair.AccessToken,
		"refresh_token":      pair.RefreshToken,
		"token_type":         pair.TokenType,
		"access_expires_at":  pair.AccessExpiresAt,
		"refresh_expires_at": pair.RefreshExpiresAt,
	})
}

// Logout revokes the presented session. It answers 204 even for unknown or
// already revoked tokens so clients can retry freely.
// @Router /auth/logout [POST]
func (h *Handler) Logout(c *gin.Context) {
	var req LogoutRequest
	if c.Request.ContentLength != 0 {
		// A malformed body still logs out the bearer.
		_ = c.ShouldBindJSON(&req)
	}
	bearer, _ := BearerToken(c)

	if err := h.service.Logout(c.Request.Context(), req, bearer, c.ClientIP(), c.Request.UserAgent()); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Router /auth/me [GET]
func (h *Handler) GetMe(c *gin.Context) {
	ident, ok := Identity(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, ErrMissingBearer.Code, ErrMissingBearer.Message)
		return
	}

	user, err := h.service.CurrentUser(c.Request.Context(), ident)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": toUserPublic(user)})
}

// @Router /auth/me [PATCH]
func (h *Handler) UpdateMe(c *gin.Context) {
	ident, ok := Identity(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, ErrMissingBearer.Code, ErrMissingBearer.Message)
		return
	}

	var req UpdateProfileRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.service.UpdateProfile(c.Request.Context(), ident, req, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": toUserPublic(user)})
}

// RevokeUserTokens logs a user out everywhere. Admin only.
// @Router /admin/users/{id}/revoke-tokens [POST]
func (h *Handler) RevokeUserTokens(c *gin.Context) {
	ident, ok := Identity(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, ErrMissingBearer.Code, ErrMissingBearer.Message)
		return
	}

	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || userID <= 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid user id")
		return
	}

	if _, err := h.service.RevokeUserTokens(c.Request.Context(), ident, userID); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	status, code, message, known := Classify(err)
	if !known {
		h.log.Error("auth request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		_ = c.Error(err)
	}
	response.Error(c, status, code, message)
}

func bindAndValidate(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return false
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body", errs)
		return false
	}
	return true
}
