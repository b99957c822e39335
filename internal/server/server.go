// ABOUTME: Fiber HTTP server exposing chat, document, and session endpoints
// ABOUTME: Owns the background session expiry sweep goroutine
package server

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"

	"github.com/docdesk/docdesk/internal/chunker"
	"github.com/docdesk/docdesk/internal/config"
	"github.com/docdesk/docdesk/internal/models"
	"github.com/docdesk/docdesk/internal/rag"
	"github.com/docdesk/docdesk/internal/session"
)

// Querier runs one retrieval-augmented answer cycle. Implemented by
// *rag.Engine.
type Querier interface {
	Query(ctx context.Context, question string, opts rag.QueryOptions) (*rag.Result, error)
}

// Indexer is the document index surface the server needs. Implemented
// by *index.Index.
type Indexer interface {
	Insert(ctx context.Context, chunks []models.Chunk) ([]string, error)
	DeleteBySource(ctx context.Context, source string) (int, error)
	Stats(ctx context.Context) (models.IndexStats, error)
}

// Server wires the HTTP surface to the engine, index, and session
// store. All collaborators are injected; the server owns only the
// expiry sweep goroutine.
type Server struct {
	app      *fiber.App
	cfg      *config.Config
	engine   Querier
	index    Indexer
	sessions *session.Store
	splitter *chunker.Splitter
	log      *zap.Logger

	sweepStop chan struct{}
	sweepDone chan struct{}
}

// New builds the server and registers its routes.
func New(cfg *config.Config, engine Querier, index Indexer, sessions *session.Store, splitter *chunker.Splitter, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		BodyLimit:    10 * 1024 * 1024, // 10MB
		ErrorHandler: errorHandler,
	})

	app.Use(cors.New(cors.Config{
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, DELETE, OPTIONS",
	}))

	s := &Server{
		app:       app,
		cfg:       cfg,
		engine:    engine,
		index:     index,
		sessions:  sessions,
		splitter:  splitter,
		log:       log,
		sweepStop: make(chan struct{}),
		sweepDone: make(chan struct{}),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	api := s.app.Group("/api")

	api.Post("/chat", s.handleChat)
	api.Get("/chat/history/:session_id", s.handleHistory)
	api.Delete("/chat/history/:session_id", s.handleClearHistory)
	api.Post("/chat/end/:session_id", s.handleEndSession)

	api.Get("/sessions", s.handleSessions)
	api.Get("/sessions/:id/stats", s.handleSessionStats)

	api.Post("/documents", s.handleIngest)
	api.Delete("/documents/:source", s.handleDeleteSource)

	api.Get("/stats", s.handleStats)

	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
}

// App exposes the underlying Fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run starts the expiry sweep and blocks serving HTTP until Shutdown.
func (s *Server) Run() error {
	go s.sweepLoop()
	s.log.Info("http server listening", zap.String("port", s.cfg.HTTPPort))
	return s.app.Listen(":" + s.cfg.HTTPPort)
}

// Shutdown stops the sweep goroutine and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	close(s.sweepStop)
	<-s.sweepDone
	return s.app.ShutdownWithContext(ctx)
}

// sweepLoop expires idle sessions on a timer. The interval is half the
// session timeout so a session is removed at most 1.5x the timeout
// after its last activity.
func (s *Server) sweepLoop() {
	defer close(s.sweepDone)

	interval := s.cfg.SessionTimeout / 2
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sessions.Sweep(s.cfg.SessionTimeout)
		case <-s.sweepStop:
			return
		}
	}
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
