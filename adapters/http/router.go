package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khoahotran/folio/internal/application/service"
	identityUC "github.com/khoahotran/folio/internal/application/usecase/identity"
	"github.com/khoahotran/folio/pkg/logger"
)

type RouterConfig struct {
	Logger      logger.Logger
	Verifier    service.IdentityVerifier
	ResolveUser *identityUC.ResolveUserUseCase
	CORSOrigins []string
	RateLimiter *RateLimiter
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler

	Portfolio *PortfolioHandler
	Public    *PublicHandler
	Upload    *UploadHandler
	Preview   *PreviewHandler
	Identity  *IdentityHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		RequestIDMiddleware(),
		RequestLogger(cfg.Logger),
		CORSMiddleware(cfg.CORSOrigins),
		ErrorMiddleware(cfg.Logger),
	)

	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics))
	}

	limit := func(scope string) gin.HandlerFunc {
		if cfg.RateLimiter == nil {
			return func(c *gin.Context) { c.Next() }
		}
		return cfg.RateLimiter.Middleware(scope)
	}

	authMiddleware := AuthMiddleware(cfg.Verifier, cfg.ResolveUser, cfg.Logger)

	api := router.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "UP"}) })
		api.POST("/webhooks/identity", cfg.Identity.Webhook)

		public := api.Group("/p")
		{
			public.GET("/:slug", cfg.Public.GetPortfolio)
			public.GET("/:slug/resume", cfg.Public.DownloadResume)
		}

		private := api.Group("/")
		private.Use(authMiddleware)
		{
			private.GET("/me", cfg.Identity.Me)

			portfolio := private.Group("/portfolio")
			{
				portfolio.GET("", cfg.Portfolio.GetMine)
				portfolio.POST("", cfg.Portfolio.Create)
				portfolio.DELETE("", cfg.Portfolio.Delete)
				portfolio.GET("/export", cfg.Portfolio.Export)
				portfolio.GET("/slug-availability", limit("slug-availability"), cfg.Portfolio.CheckSlug)

				portfolio.PUT("/profile", cfg.Portfolio.UpdateProfile)
				portfolio.PUT("/experience", cfg.Portfolio.UpdateExperience)
				portfolio.PUT("/projects", cfg.Portfolio.UpdateProjects)
				portfolio.PUT("/certifications", cfg.Portfolio.UpdateCertifications)
				portfolio.PUT("/avatar", cfg.Portfolio.UpdateAvatar)
				portfolio.PUT("/resume", cfg.Portfolio.UpdateResume)
				portfolio.PUT("/theme", cfg.Portfolio.UpdateTheme)
				portfolio.PUT("/visibility", cfg.Portfolio.UpdateSectionVisibility)
				portfolio.PUT("/hidden-items", cfg.Portfolio.UpdateHiddenItems)
				portfolio.POST("/publish", cfg.Portfolio.TogglePublish)
			}

			private.POST("/uploads/:kind", cfg.Upload.Upload)
			private.POST("/link-preview", limit("link-preview"), cfg.Preview.FetchPreview)
		}
	}

	return router
}
