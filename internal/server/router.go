// Package server wires repositories, services and handlers into the HTTP router.
package server

import (
	"net/http"

	"quizplatform/internal/config"
	"quizplatform/internal/middleware"
	"quizplatform/internal/modules/auth"
	"quizplatform/internal/modules/offlinesync"
	"quizplatform/internal/modules/token"
	"quizplatform/internal/pkg/logger"
	"quizplatform/internal/pkg/response"
	"quizplatform/internal/ratelimit"
	"quizplatform/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const apiRateAction = "api"

type Deps struct {
	DB     *gorm.DB
	Redis  redis.UniversalClient
	Config *config.Config
	Log    *zap.Logger
}

// Services builds the token and auth services on top of deps. The operator CLI
// uses it without the router.
func Services(d Deps) (*token.Service, *auth.Service) {
	tokens := token.NewService(
		repository.NewTokenRepository(d.DB),
		token.Config{
			AccessTTL:  d.Config.AccessTTL,
			RefreshTTL: d.Config.RefreshTTL,
			Pepper:     d.Config.TokenHashPepper,
		},
		logger.WithComponent(d.Log, "token"),
	)

	authService := auth.NewService(
		repository.NewUserRepository(d.DB),
		tokens,
		repository.NewAuditRepository(d.DB),
		ratelimit.New(d.Redis),
		auth.Config{
			LoginLimit:  d.Config.LoginRateLimit,
			LoginWindow: d.Config.LoginRateWindow,
		},
		logger.WithComponent(d.Log, "auth"),
	)
	return tokens, authService
}

func NewRouter(d Deps) *gin.Engine {
	_, authService := Services(d)

	syncService := offlinesync.NewService(
		repository.NewOfflineSyncRepository(d.DB),
		repository.NewAttemptRepository(d.DB),
		d.Config.OfflineSyncMaxBatch,
		logger.WithComponent(d.Log, "offlinesync"),
	)

	authHandler := auth.NewHandler(authService, d.Log)
	syncHandler := offlinesync.NewHandler(syncService, d.Log)

	r := gin.New()
	r.Use(middleware.ErrorLogger(d.Log))
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(d.Config.CORSAllowedOrigins))

	r.GET("/healthz", healthz(d))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiLimit := middleware.RateLimit(
		ratelimit.New(d.Redis),
		apiRateAction,
		d.Config.APIRateLimit,
		d.Config.APIRateWindow,
		d.Log,
	)

	v1 := r.Group("/api/v1")
	{
		authHandler.RegisterPublicRoutes(v1)

		protected := v1.Group("")
		protected.Use(middleware.BearerAuth(authService, d.Log))
		{
			authHandler.RegisterProtectedRoutes(protected, apiLimit)
			syncHandler.RegisterRoutes(protected, apiLimit)
		}

		admin := v1.Group("/admin")
		admin.Use(middleware.BearerAuth(authService, d.Log), middleware.AdminOnly())
		{
			authHandler.RegisterAdminRoutes(admin)
		}
	}

	return r
}

func healthz(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := d.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			d.Log.Warn("health check: database unreachable", zap.Error(err))
			response.Error(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "database unreachable")
			return
		}

		redisStatus := "ok"
		if err := d.Redis.Ping(c.Request.Context()).Err(); err != nil {
			redisStatus = "unavailable"
		}
		response.Success(c, http.StatusOK, gin.H{"database": "ok", "redis": redisStatus})
	}
}
