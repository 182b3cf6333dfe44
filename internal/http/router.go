// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, player identity, logging/redaction, panic
// recovery, metrics, CORS, security headers, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/tbourn/go-narrator-backend/docs" // swagger spec registration
	"github.com/tbourn/go-narrator-backend/internal/config"
	"github.com/tbourn/go-narrator-backend/internal/domain"
	"github.com/tbourn/go-narrator-backend/internal/events"
	"github.com/tbourn/go-narrator-backend/internal/http/handlers"
	"github.com/tbourn/go-narrator-backend/internal/http/middleware"
	"github.com/tbourn/go-narrator-backend/internal/llm"
	"github.com/tbourn/go-narrator-backend/internal/lock"
	"github.com/tbourn/go-narrator-backend/internal/repo"
	"github.com/tbourn/go-narrator-backend/internal/services"
)

// sessionRepoShim adapts the repository free functions to the
// services.SessionRepo interface expected by the SessionService.
type sessionRepoShim struct{}

// GetGame proxies repo.GetGame.
func (sessionRepoShim) GetGame(ctx context.Context, db *gorm.DB, id string) (*domain.Game, error) {
	return repo.GetGame(ctx, db, id)
}

// ListActiveScenes proxies repo.ListActiveScenes.
func (sessionRepoShim) ListActiveScenes(ctx context.Context, db *gorm.DB, gameID string) ([]domain.Scene, error) {
	return repo.ListActiveScenes(ctx, db, gameID)
}

// FindResumableSession proxies repo.FindResumableSession.
func (sessionRepoShim) FindResumableSession(ctx context.Context, db *gorm.DB, playerID, gameID string) (*domain.Session, error) {
	return repo.FindResumableSession(ctx, db, playerID, gameID)
}

// CreateSession proxies repo.CreateSession.
func (sessionRepoShim) CreateSession(ctx context.Context, db *gorm.DB, s *domain.Session) error {
	return repo.CreateSession(ctx, db, s)
}

// GetSession proxies repo.GetSession.
func (sessionRepoShim) GetSession(ctx context.Context, db *gorm.DB, id, playerID string) (*domain.Session, error) {
	return repo.GetSession(ctx, db, id, playerID)
}

// UpdateSessionStatus proxies repo.UpdateSessionStatus.
func (sessionRepoShim) UpdateSessionStatus(ctx context.Context, db *gorm.DB, id, playerID, status string) error {
	return repo.UpdateSessionStatus(ctx, db, id, playerID, status)
}

// CountSessions proxies repo.CountSessions (pagination support).
func (sessionRepoShim) CountSessions(ctx context.Context, db *gorm.DB, playerID string) (int64, error) {
	return repo.CountSessions(ctx, db, playerID)
}

// ListSessionsPage proxies repo.ListSessionsPage (pagination support).
func (sessionRepoShim) ListSessionsPage(ctx context.Context, db *gorm.DB, playerID string, offset, limit int) ([]domain.Session, error) {
	return repo.ListSessionsPage(ctx, db, playerID, offset, limit)
}

// Deps carries the runtime collaborators built by the binary. Nil fields get
// in-process defaults: local locks, the default provider registry, no audio,
// and a hub only when the stream is enabled.
type Deps struct {
	Locker lock.Locker
	LLMs   *llm.Registry
	Hub    *events.Hub
	Audio  services.AudioSynthesizer
	Log    zerolog.Logger
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), idempotency and rate
// limiting, CORS and security headers, health and metrics endpoints, and then
// mounts the versioned public API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. PlayerIdentity: resolve X-Player-ID once
//  4. RedactingLogger: structured logs with PII scrubbing
//  5. Recovery: capture panics after logger
//  6. Body size limiter
//  7. Metrics
//  8. Idempotency validator (before rate limiter to allow bypass on replay)
//  9. Rate limiter (per player/IP, bypass on replay)
//  10. CORS, security headers and gzip
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config, deps Deps) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Who is playing
	r.Use(middleware.PlayerIdentity())

	// 4) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-API-Key"},
	}))

	// 5) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 6) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{MaxLen: 200},
		func(ctx context.Context, playerID, sessionID, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, playerID, sessionID, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	// 9) Token-bucket rate limiter per player/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByPlayerOrIP())
	r.Use(rl.Handler())

	// 10) CORS posture (safe defaults: allow all if none configured)
	allowHeaders := []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderPlayerID, middleware.HeaderIdempotencyKey, "If-None-Match"}
	exposeHeaders := []string{"X-Request-ID", "Content-Length", "ETag", "Idempotency-Replayed"}
	methods := []string{"GET", "POST", "OPTIONS"}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     methods,
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     methods,
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Compress JSON; the websocket upgrade must stay untouched.
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPathsRegexs([]string{`/stream$`})))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	h := handlers.New(
		services.NewSessionService(db, sessionRepoShim{}),
		newInteractionService(db, cfg, &deps),
		&services.BoardService{DB: db},
		&services.GameService{DB: db},
		deps.Hub,
	)

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath) // e.g. "/api/v1"
	{
		// Sessions
		api.POST("/sessions", h.CreateSession)
		api.GET("/sessions", h.ListSessions)
		api.GET("/sessions/:id", h.GetSession)
		api.POST("/sessions/:id/pause", h.PauseSession)
		api.POST("/sessions/:id/resume", h.ResumeSession)
		api.POST("/sessions/:id/finish", h.FinishSession)

		// Interactions
		api.POST("/interactions", h.PostInteraction)
		api.POST("/sessions/:id/interactions", h.PostSessionInteraction)
		api.GET("/sessions/:id/interactions", h.ListInteractions)

		// Board
		api.GET("/sessions/:id/board-order", h.GetBoardOrder)
		api.GET("/sessions/:id/board", h.GetBoard)

		// Catalog
		api.GET("/games", h.ListGames)
		api.GET("/games/:id/scenes", h.ListScenes)
		api.GET("/config/llms", h.ListLLMConfigs)

		if cfg.WSEnabled {
			api.GET("/sessions/:id/stream", h.StreamSession)
		}
	}
}

// newInteractionService applies cfg on top of the service defaults and fills
// the nil collaborators in deps.
func newInteractionService(db *gorm.DB, cfg config.Config, deps *Deps) *services.InteractionService {
	if deps.Locker == nil {
		deps.Locker = lock.NewLocal()
	}
	if deps.LLMs == nil {
		deps.LLMs = llm.DefaultRegistry()
	}
	if deps.Hub == nil && cfg.WSEnabled {
		deps.Hub = events.NewHub(16)
	}

	svc := services.NewInteractionService(db, deps.Log)
	svc.Locker = deps.Locker
	svc.LLMs = deps.LLMs
	svc.Hub = deps.Hub
	svc.Audio = deps.Audio
	if cfg.Lock.Wait > 0 {
		svc.LockWait = cfg.Lock.Wait
	}
	if cfg.LLM.Timeout > 0 {
		svc.LLMTimeout = cfg.LLM.Timeout
	}
	if cfg.LLM.DefaultTemperature > 0 {
		svc.DefaultTemperature = cfg.LLM.DefaultTemperature
	}
	if cfg.LLM.DefaultMaxTokens > 0 {
		svc.DefaultMaxTokens = cfg.LLM.DefaultMaxTokens
	}
	if cfg.Engine.HistoryWindow > 0 {
		svc.HistoryWindow = cfg.Engine.HistoryWindow
	}
	if cfg.Engine.MaxInputRunes > 0 {
		svc.MaxInputRunes = cfg.Engine.MaxInputRunes
	}
	if cfg.IdempotencyTTL > 0 {
		svc.IdempotencyTTL = cfg.IdempotencyTTL
	}
	return svc
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
