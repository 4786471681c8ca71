package handlers

import (
	"net/http"

	"github.com/CorrelAid/contact_form_guard/metrics"
	"github.com/CorrelAid/contact_form_guard/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	AllowedHosts       []string
	RateLimitPerMinute float64
	RateLimitIPLookups []string
	StaticDir          string
}

// NewRouter mounts the contact routes, health check and metrics.
func NewRouter(h *Contact, m *metrics.Metrics, logger *zap.Logger, opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(logger), m.HTTPMetrics())
	// Set a lower memory limit for multipart forms (default is 32 MiB)
	router.MaxMultipartMemory = 1 << 20

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(m.Handler()))
	if opts.StaticDir != "" {
		router.Static("/static", opts.StaticDir)
	}

	site := router.Group("/", middleware.DomainWhitelistMiddleware(opts.AllowedHosts, logger))
	site.GET("/", func(c *gin.Context) { c.Redirect(http.StatusFound, "/contact") })
	site.GET("/contact", h.Show)

	submit := []gin.HandlerFunc{}
	if opts.RateLimitPerMinute > 0 {
		submit = append(submit, middleware.RateLimitMiddleware(middleware.RateLimit{
			PerMinute: opts.RateLimitPerMinute,
			IPLookups: opts.RateLimitIPLookups,
			Logger:    logger,
		}))
	}
	submit = append(submit, h.Submit)
	site.POST("/contact", submit...)

	return router
}
