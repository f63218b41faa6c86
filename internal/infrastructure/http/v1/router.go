package v1

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jaennil/guide_helper/backend/pyramid/internal/infrastructure/http/v1/handler"
	"github.com/jaennil/guide_helper/backend/pyramid/pkg/logger"
	"github.com/jaennil/guide_helper/backend/pyramid/pkg/telemetry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterOptions struct {
	TelemetryEnabled bool
	ServiceName      string
	// RequestTimeout bounds one on-demand computation; zero disables it.
	RequestTimeout time.Duration
}

func NewRouter(handler *handler.Handler, l logger.Logger, opts RouterOptions) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())

	if opts.TelemetryEnabled {
		r.Use(telemetry.GinMiddleware(opts.ServiceName))
	}

	r.Use(ginZapLogger(l))

	api := r.Group("/api")
	v1 := api.Group("/v1")

	v1.GET("/healthz", handler.Healthz)
	v1.GET("/scope", handler.Scope)
	v1.GET("/tile/:layer/:zoom/:plane/:tile", requestTimeout(opts.RequestTimeout), handler.Tile)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

// requestTimeout derives the request context so that a disconnect or a slow
// fan-out cancels the computation.
func requestTimeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func ginZapLogger(l logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("logger", l)

		start := time.Now()

		c.Next()

		latency := time.Since(start)

		l.Info("request",
			"status", c.Writer.Status(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"ip", c.ClientIP(),
			"latency", latency,
			"size", c.Writer.Size(),
			"tile_source", c.Writer.Header().Get("X-Tile-Source"),
		)
	}
}
