package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/pactorhq/pactor/internal/dbpool"
	"github.com/pactorhq/pactor/internal/middleware"
	"github.com/pactorhq/pactor/internal/ws"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Log         *logrus.Logger
	Pool        *dbpool.Pool
	Hub         *ws.Hub
	Contracts   ContractService
	Workflow    WorkflowService
	Versions    VersionService
	Audit       AuditService
	ActorLookup middleware.ActorLookup
	CORSOrigins []string
	Version     string
}

// Router-level limits.
const (
	maxBodySize = 10 << 20 // 10 MB
	rateLimit   = 100      // requests per second per IP
	rateBurst   = 200      // token bucket burst size
)

// setupMiddleware configures all middleware on the Gin engine.
func setupMiddleware(ctx context.Context, r *gin.Engine, deps *RouterDeps) {
	r.SetTrustedProxies(nil) //nolint:errcheck // nil always succeeds.
	r.Use(middleware.RequestID(deps.Log))
	r.Use(ginLogger(deps.Log))
	r.Use(gin.Recovery())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.MaxBodySize(maxBodySize))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     deps.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		MaxAge:           1 * time.Hour,
		AllowCredentials: false,
	}))
	r.Use(middleware.NewRateLimiter(ctx, rateLimit, rateBurst).Handler())
	r.Use(middleware.PrometheusMiddleware())

	// Metrics endpoint (unauthenticated, like health).
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// registerRoutes sets up all API route handlers on the given router group.
func registerRoutes(ctx context.Context, api *gin.RouterGroup, deps *RouterDeps) {
	log := deps.Log

	health := NewHealthHandler(deps.Pool, deps.Hub, log, deps.Version)
	contracts := NewContractHandler(deps.Contracts, log)
	wf := NewWorkflowHandler(deps.Workflow, log)
	versions := NewVersionHandler(deps.Versions, log)
	audit := NewAuditHandler(deps.Audit, log)
	stats := NewStatsHandler(deps.Pool, log)

	// Health and readiness are unauthenticated.
	api.GET("/health", health.Liveness)
	api.GET("/ready", health.Readiness)

	// All other API routes require authentication.
	bfGuard := middleware.NewBruteForceGuard(ctx, log)
	api.Use(middleware.BruteForceMiddleware(bfGuard))
	api.Use(middleware.AuthMiddleware(middleware.NewCachedActorLookup(ctx, deps.ActorLookup), log, bfGuard))

	// Contracts.
	api.GET("/contracts", contracts.List)
	api.POST("/contracts", contracts.Create)
	api.GET("/contracts/:id", contracts.Get)
	api.PUT("/contracts/:id", contracts.Update)

	// Workflow actions.
	api.POST("/contracts/:id/submit", wf.Submit)
	api.POST("/contracts/:id/approve", wf.Approve)
	api.POST("/contracts/:id/reject", wf.Reject)
	api.POST("/contracts/:id/request-revision", wf.RequestRevision)
	api.POST("/contracts/:id/escalate", wf.Escalate)
	api.POST("/contracts/:id/escalate-legal-head", wf.EscalateToLegalHead)
	api.POST("/contracts/:id/return", wf.ReturnToManager)
	api.POST("/contracts/:id/send", wf.Send)
	api.POST("/contracts/:id/upload-signed", wf.UploadSigned)
	api.POST("/contracts/:id/activate", wf.Activate)
	api.POST("/contracts/:id/terminate", wf.Terminate)
	api.POST("/contracts/:id/expire", wf.Expire)
	api.GET("/contracts/:id/approvals", wf.ListApprovals)

	// Version history and changelog.
	api.GET("/contracts/:id/versions", versions.List)
	api.GET("/contracts/:id/versions/:seq", versions.Get)
	api.GET("/contracts/:id/versions/:seq/changelog", versions.Changelog)
	api.GET("/contracts/:id/compare", versions.Compare)

	// Audit.
	api.GET("/audit", audit.Query)
	api.DELETE("/audit", audit.Purge)

	// Stats.
	api.GET("/stats", stats.GetStats)

	// WebSocket endpoint.
	api.GET("/ws", wsHandler(ctx, log, deps.Hub, deps.CORSOrigins, deps.ActorLookup))
}

// NewRouter creates and configures the Gin engine with all middleware and routes.
func NewRouter(ctx context.Context, deps *RouterDeps) http.Handler {
	r := gin.New()
	setupMiddleware(ctx, r, deps)
	registerRoutes(ctx, r.Group("/api/v1"), deps)

	return r
}
