// Package api is the thin HTTP surface consumed by the app layer. All real
// policy lives in the orchestrator; handlers only parse, delegate and shape
// JSON.
package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"

	cachepkg "github.com/sahayak-ai/sahayak/pkg/cache/sqlite"
	"github.com/sahayak-ai/sahayak/pkg/health"
	"github.com/sahayak-ai/sahayak/pkg/models"
	"github.com/sahayak-ai/sahayak/pkg/ratelimit"
	"github.com/sahayak-ai/sahayak/pkg/usage"
)

// QueryProcessor is the orchestrator's call surface, abstracted so handlers
// can be tested with a stub.
type QueryProcessor interface {
	ProcessQuery(ctx context.Context, req models.Request) *models.Response
}

// Server hosts the gateway HTTP API.
type Server struct {
	app       *fiber.App
	processor QueryProcessor
	health    *health.Registry
	limits    *ratelimit.Tracker
	cache     *cachepkg.Cache
	store     usage.Store
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

// New wires a Server with all routes and middleware.
func New(processor QueryProcessor, h *health.Registry, limits *ratelimit.Tracker, cache *cachepkg.Cache, store usage.Store) *Server {
	app := fiber.New(fiber.Config{
		ReadTimeout:  35 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  120 * time.Second,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))

	s := &Server{
		app:       app,
		processor: processor,
		health:    h,
		limits:    limits,
		cache:     cache,
		store:     store,
	}

	v1 := app.Group("/v1")
	v1.Post("/query", s.handleQuery)
	v1.Get("/providers", s.handleProviders)
	v1.Get("/usage/summary", s.handleUsageSummary)
	if cache != nil {
		v1.Get("/cache/stats", s.handleCacheStats)
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	return s
}

// App exposes the underlying fiber app for testing.
func (s *Server) App() *fiber.App { return s.app }

// Listen starts serving on addr.
func (s *Server) Listen(addr string) error { return s.app.Listen(addr) }

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error { return s.app.Shutdown() }

func (s *Server) handleQuery(c *fiber.Ctx) error {
	var req models.Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "message is required"})
	}
	if req.UserID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "user_id is required"})
	}

	requestID := c.Get("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set("X-Request-ID", requestID)

	resp := s.processor.ProcessQuery(c.Context(), req)
	return c.JSON(resp)
}

// providerStatus joins health and rate-limit state for one provider.
type providerStatus struct {
	health.Snapshot
	RateLimit ratelimit.Check `json:"rate_limit"`
	Tokens    int64           `json:"tokens"`
}

func (s *Server) handleProviders(c *fiber.Ctx) error {
	snaps := s.health.Snapshots()
	out := make([]providerStatus, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, providerStatus{
			Snapshot:  snap,
			RateLimit: s.limits.CheckRateLimit(snap.ID),
			Tokens:    s.limits.TokenCount(snap.ID),
		})
	}
	return c.JSON(out)
}

func (s *Server) handleUsageSummary(c *fiber.Ctx) error {
	summaries, err := s.store.Summary(c.Context(), c.Query("user"), c.Query("provider"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to query usage"})
	}
	if summaries == nil {
		summaries = []models.UsageSummary{}
	}
	return c.JSON(summaries)
}

func (s *Server) handleCacheStats(c *fiber.Ctx) error {
	stats, err := s.cache.Stats()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to read cache stats"})
	}
	return c.JSON(stats)
}
