// Package api serves the HTTP API of ragify with fiber.
package api

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/ragify/ragify/internal/app"
	"github.com/ragify/ragify/internal/core/domain"
	"github.com/ragify/ragify/internal/logger"
)

// DefaultBodyLimit bounds request bodies, uploads included.
const DefaultBodyLimit = 64 << 20

// Config configures the HTTP server.
type Config struct {
	// Version is reported by the health endpoint.
	Version string
	// BodyLimit is the maximum request size in bytes. Zero uses DefaultBodyLimit.
	BodyLimit int
}

// Server exposes a Runtime over HTTP.
type Server struct {
	rt      *app.Runtime
	app     *fiber.App
	version string
}

// NewServer creates the server and registers its routes.
func NewServer(rt *app.Runtime, cfg Config) *Server {
	if cfg.BodyLimit <= 0 {
		cfg.BodyLimit = DefaultBodyLimit
	}

	s := &Server{
		rt:      rt,
		version: cfg.Version,
		app: fiber.New(fiber.Config{
			AppName:      "ragify",
			BodyLimit:    cfg.BodyLimit,
			ReadTimeout:  5 * time.Minute,
			WriteTimeout: 5 * time.Minute,
		}),
	}

	s.app.Use(recover.New())
	s.app.Use(func(c fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		logger.Debug("%s %s %d %s", c.Method(), c.Path(), c.Response().StatusCode(), time.Since(start))
		return err
	})
	s.Register(s.app.Group("/api/v1"))

	return s
}

// Register sets up the API routes.
func (s *Server) Register(router fiber.Router) {
	router.Get("/health", s.Health)
	router.Get("/status", s.Status)
	router.Post("/sources", s.Ingest)
	router.Post("/ask", s.Ask)
	router.Post("/retrieve", s.Retrieve)
	router.Get("/history", s.History)
	router.Delete("/history", s.ClearHistory)
	router.Post("/reset", s.Reset)
}

// App returns the underlying fiber application.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until ctx is cancelled.
func (s *Server) Listen(ctx context.Context, addr string) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
			logger.Warn("http shutdown: %v", err)
		}
	}()

	return s.app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrUnsupportedType),
		errors.Is(err, domain.ErrInvalidURL):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrNotReady):
		return fiber.StatusConflict
	case errors.Is(err, domain.ErrLimitExceeded):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrEmbeddingFailed),
		errors.Is(err, domain.ErrAnswerFailed),
		errors.Is(err, domain.ErrFetchFailed):
		return fiber.StatusBadGateway
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func fail(c fiber.Ctx, err error) error {
	return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
}
