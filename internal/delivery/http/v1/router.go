package v1

import (
	"net/http"
	"time"

	"merchandiser-backend/config"
	"merchandiser-backend/internal/delivery/http/middleware"
	"merchandiser-backend/internal/delivery/http/response"
	"merchandiser-backend/internal/domain"
	"merchandiser-backend/internal/usecase"

	"github.com/gin-gonic/gin"
)

type RouterDeps struct {
	MerchandiserUC domain.MerchandiserUsecase
	FavoriteUC     domain.FavoriteUsecase
	ReviewUC       domain.ReviewUsecase
	HealthUC       usecase.HealthUsecase
	Users          domain.UserRepository // resolves token subjects to roles
	Metrics        *middleware.Metrics
	Config         *config.Config
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	// Global Middlewares
	r.Use(middleware.CORSMiddleware(deps.Config.FrontendURL)) // CORS must be first!
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.Use(middleware.RequestID())
	r.Use(middleware.SecurityHeadersMiddleware())
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware())
	}
	r.Use(middleware.ErrorHandler())

	v1 := r.Group("/v1")

	v1.GET("/health", func(c *gin.Context) {
		status, healthy := deps.HealthUC.Check(c.Request.Context())
		if !healthy {
			response.Error(c, http.StatusServiceUnavailable, "System degraded", status)
			return
		}
		response.Success(c, http.StatusOK, "System operational", status)
	})
	if deps.Metrics != nil {
		v1.GET("/metrics", deps.Metrics.Handler())
	}

	searchLimit := middleware.RateLimitMiddleware(middleware.SearchRateLimitConfig(
		deps.Config.RateLimitSearchThreshold,
		time.Duration(deps.Config.RateLimitWindowSeconds)*time.Second,
	))
	exportLimit := middleware.RateLimitMiddleware(middleware.ExportRateLimitConfig())
	staffOnly := middleware.RequireRole(domain.RoleAkzente, domain.RoleAdmin)

	// Public routes; a valid token still identifies the viewer.
	public := v1.Group("")
	public.Use(middleware.OptionalAuthMiddleware(deps.Config.JWTSecret, deps.Users))
	public.Use(middleware.GlobalRateLimitMiddleware())

	// Protected routes
	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(deps.Config.JWTSecret, deps.Users))
	protected.Use(middleware.GlobalRateLimitMiddleware())
	{
		NewMerchandiserHandler(public, protected, deps.MerchandiserUC, deps.FavoriteUC, searchLimit, exportLimit, staffOnly)
		NewReviewHandler(public, protected, deps.ReviewUC)
	}

	return r
}
