package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"quizplatform/internal/metrics"
	"quizplatform/internal/modules/auth"
	"quizplatform/internal/pkg/response"
	"quizplatform/internal/ratelimit"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Limiter is implemented by *ratelimit.Limiter.
type Limiter interface {
	Allow(ctx context.Context, action, key string, limit int, window time.Duration) error
}

// RateLimit counts requests per token and client IP. It must run after BearerAuth.
// When Redis is unreachable requests are let through and the outage is logged.
func RateLimit(limiter Limiter, action string, limit int, window time.Duration, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := auth.Identity(c)
		if !ok {
			response.Abort(c, http.StatusUnauthorized, auth.ErrMissingBearer.Code, auth.ErrMissingBearer.Message)
			return
		}

		key := ident.TokenID + "|" + c.ClientIP()
		err := limiter.Allow(c.Request.Context(), action, key, limit, window)
		switch {
		case err == nil:
		case errors.Is(err, ratelimit.ErrRateLimited):
			metrics.RateLimited.WithLabelValues(action).Inc()
			c.Header("Retry-After", retryAfter(window))
			response.Abort(c, http.StatusTooManyRequests, auth.ErrRateLimited.Code, auth.ErrRateLimited.Message)
			return
		default:
			log.Warn("rate limiter unavailable, allowing request",
				zap.String("action", action),
				zap.Error(err),
			)
		}

		c.Next()
	}
}

func retryAfter(window time.Duration) string {
	secs := int(window / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
