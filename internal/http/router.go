// Package httpapi wires the HTTP transport (Gin) to the purchase-gated
// handlers and the cross-cutting middleware: tracing, correlation IDs,
// logging/redaction, panic recovery, metrics, rate limiting, CORS, security
// headers and compression.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Handlers are built by the caller and injected; the router owns no
//     provider clients
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "github.com/tbourn/fdd-analyzer-backend/docs" // swagger spec registration
	"github.com/tbourn/fdd-analyzer-backend/internal/config"
	"github.com/tbourn/fdd-analyzer-backend/internal/http/handlers"
	"github.com/tbourn/fdd-analyzer-backend/internal/http/middleware"
)

// maxBodyBytes caps request bodies. Analyze text is truncated to 50,000
// runes, which fits with room to spare.
const maxBodyBytes = 1 << 20

var (
	corsMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	corsHeaders = []string{"Origin", "Content-Type", "Accept", "X-Request-ID"}
	corsExpose  = []string{"X-Request-ID", "Content-Length"}
)

// RegisterRoutes attaches all middleware and endpoints to r and mounts the
// API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: request-scoped logger + access line (RedactingLogger adds a
//     header dump when LOG_HEADERS is set)
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Rate limiter (per IP and route)
//  8. CORS and security headers
//  9. Gzip
func RegisterRoutes(r *gin.Engine, cfg config.Config, h *handlers.Handlers) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	if cfg.LogHeaders {
		r.Use(middleware.RedactingLogger(middleware.RedactOptions{MaskHeaders: []string{"X-Api-Key"}}))
	}
	r.Use(middleware.Recovery())
	r.Use(limitBody(maxBodyBytes))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByIPAndRoute())
	r.Use(rl.Handler())

	subscribePath := joinPath(cfg.APIBasePath, "/subscribe")
	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins, subscribePath))

	// Responses are per-buyer; never let an intermediary cache them.
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      true,
		EnablePolicy: true,
	}))

	if cfg.GzipEnabled {
		// promhttp negotiates its own compression
		r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))
	}

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "Route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "Method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		// Purchase
		api.POST("/create-checkout", h.CreateCheckout)
		api.POST("/create-checkout-engine", h.CreateCheckoutEngine)
		api.GET("/verify-session", h.VerifySession)
		api.POST("/complete-session", h.CompleteSession)

		// Paid tools
		api.POST("/analyze", h.Analyze)
		api.POST("/negotiate", h.Negotiate)

		// Mailing list
		api.POST("/subscribe", h.Subscribe)
	}
}

// corsMiddleware applies the site CORS policy everywhere except the
// subscribe endpoint, which is embedded by lead-magnet pages on other
// domains and accepts any origin. With no configured origins every route
// is open.
func corsMiddleware(origins []string, publicPath string) gin.HandlerFunc {
	public := cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     corsMethods,
		AllowHeaders:     corsHeaders,
		ExposeHeaders:    corsExpose,
		AllowCredentials: false, // must remain false with AllowAllOrigins
		MaxAge:           12 * time.Hour,
	})
	if len(origins) == 0 {
		return func(c *gin.Context) {
			// ACAO even without an Origin header, for curl and health probes
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			public(c)
			c.Next()
		}
	}

	site := cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     corsMethods,
		AllowHeaders:     corsHeaders,
		ExposeHeaders:    corsExpose,
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	})
	return func(c *gin.Context) {
		if c.Request.URL.Path == publicPath {
			public(c)
		} else {
			site(c)
		}
		c.Next()
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}

func joinPath(base, p string) string {
	if base == "" || base == "/" {
		return p
	}
	return base + p
}
