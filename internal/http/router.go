package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dailydevq/internal/metrics"
	"dailydevq/internal/service"
)

const serviceVersion = "1.0.0"

// RouterOptions agrupa lo que el router necesita ademas de los handlers.
type RouterOptions struct {
	AllowedOrigins []string
	JWT            *service.JWTService
	Metrics        metrics.Recorder
	// MetricsHandler se monta en /metrics cuando no es nil.
	MetricsHandler http.Handler
}

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	opts RouterOptions,
	subH *SubscribeHandler,
	authH *AuthHandler,
) *gin.Engine {
	if opts.Metrics == nil {
		opts.Metrics = metrics.Nop{}
	}
	r := gin.New()

	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), corsMiddleware(opts.AllowedOrigins), metricsMiddleware(opts.Metrics))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"service": "DailyDevQ API", "version": serviceVersion, "status": "running"})
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "dailydevq-backend"})
	})
	if opts.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(opts.MetricsHandler))
	}

	v1 := r.Group("/api/v1")
	v1.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	subscribe := v1.Group("/subscribe")
	subscribe.POST("/email", subH.Subscribe)
	subscribe.POST("", subH.Subscribe)
	subscribe.DELETE("/unsubscribe", subH.Unsubscribe)
	subscribe.GET("/status/:email", subH.Status)
	v1.DELETE("/unsubscribe", subH.Unsubscribe)

	auth := v1.Group("/auth")
	auth.POST("/google", authH.GoogleLogin)
	auth.GET("/me", JWTAuthMiddleware(opts.JWT), authH.Me)

	return r
}
