package offlinesync

import (
	"errors"
	"net/http"

	"quizplatform/internal/modules/auth"
	"quizplatform/internal/pkg/response"
	"quizplatform/internal/pkg/validator"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service *Service
	log     *zap.Logger
}

func NewHandler(service *Service, log *zap.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// RegisterRoutes expects protected to run the auth gate; limited is the per-token rate limit.
func (h *Handler) RegisterRoutes(protected *gin.RouterGroup, limited gin.HandlerFunc) {
	protected.POST("/me/attempts/offline-sync", limited, h.Sync)
}

// Sync accepts a batch of offline attempts and reports a status per item.
// @Router /me/attempts/offline-sync [POST]
func (h *Handler) Sync(c *gin.Context) {
	ident, ok := auth.Identity(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, auth.ErrMissingBearer.Code, auth.ErrMissingBearer.Message)
		return
	}

	var req SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body", errs)
		return
	}

	results, err := h.service.Submit(c.Request.Context(), ident, req.Attempts)
	if err != nil {
		if errors.Is(err, ErrBatchTooLarge) {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
			return
		}
		h.log.Error("offline sync failed", zap.Int64("user_id", ident.UserID), zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"results": results})
}
