package server

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"collab-board-backend/internal/config"
	"collab-board-backend/internal/handler"
	"collab-board-backend/internal/hub"
	"collab-board-backend/internal/presence"
	"collab-board-backend/internal/store"
)

// Server wraps the Fiber app and wires handlers to the hub and store.
type Server struct {
	app             *fiber.App
	cfg             *config.Config
	hub             *hub.Hub
	boardHandler    *handler.BoardHandler
	layerHandler    *handler.LayerHandler
	strokeHandler   *handler.StrokeHandler
	noteHandler     *handler.NoteHandler
	healthHandler   *handler.HealthHandler
	collabWSHandler *handler.CollabWSHandler
}

// New creates a server instance. pingStore and pm may be nil.
func New(cfg *config.Config, st store.Store, pingStore func() error, pm *presence.Manager) *Server {
	app := fiber.New(fiber.Config{
		AppName:               "Collab Board Backend",
		ServerHeader:          "Fiber",
		StrictRouting:         false,
		CaseSensitive:         true,
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		IdleTimeout:           cfg.Server.IdleTimeout,
		Prefork:               false, // incompatible with in-process websocket state
		BodyLimit:             5 * 1024 * 1024,
		DisableStartupMessage: false,
	})

	h := hub.New(st, pm)

	return &Server{
		app:             app,
		cfg:             cfg,
		hub:             h,
		boardHandler:    handler.NewBoardHandler(st, h),
		layerHandler:    handler.NewLayerHandler(st),
		strokeHandler:   handler.NewStrokeHandler(st),
		noteHandler:     handler.NewNoteHandler(st),
		healthHandler:   handler.NewHealthHandler(pingStore, pm, h),
		collabWSHandler: handler.NewCollabWSHandler(h),
	}
}

// Hub exposes the collaboration hub, mainly for tests.
func (s *Server) Hub() *hub.Hub {
	return s.hub
}

// SetupMiddleware installs the global middleware chain.
func (s *Server) SetupMiddleware() {
	s.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	s.app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${ip} | ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	s.app.Use(cors.New(cors.Config{
		AllowOrigins: s.cfg.CORS.AllowOrigins,
		AllowHeaders: s.cfg.CORS.AllowHeaders,
		AllowMethods: "GET, POST, PATCH, PUT, DELETE, OPTIONS",
	}))
}

// SetupRoutes installs all HTTP and websocket routes.
func (s *Server) SetupRoutes() {
	// Health probes
	s.app.Get("/health", s.healthHandler.Check)
	s.app.Get("/health/live", s.healthHandler.Liveness)
	s.app.Get("/health/ready", s.healthHandler.Readiness)

	// Board creation is rate limited per IP; everything else is not.
	createLimiter := limiter.New(limiter.Config{
		Max:        30,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "too many requests, please try again later",
			})
		},
	})

	// Board routes
	boardGroup := s.app.Group("/api/boards")
	boardGroup.Get("/", s.boardHandler.ListBoards)
	boardGroup.Post("/", createLimiter, s.boardHandler.CreateBoard)
	boardGroup.Get("/:id", s.boardHandler.GetBoard)
	boardGroup.Patch("/:id", s.boardHandler.UpdateBoard)
	boardGroup.Delete("/:id", s.boardHandler.DeleteBoard)

	// Board-scoped collections
	boardGroup.Get("/:boardId/layers", s.layerHandler.ListLayers)
	boardGroup.Post("/:boardId/layers", s.layerHandler.CreateLayer)
	boardGroup.Get("/:boardId/strokes", s.strokeHandler.ListStrokes)
	boardGroup.Post("/:boardId/strokes", s.strokeHandler.CreateStroke)
	boardGroup.Get("/:boardId/notes", s.noteHandler.ListNotes)
	boardGroup.Post("/:boardId/notes", s.noteHandler.CreateNote)

	// Entity routes
	s.app.Get("/api/layers/:id/strokes", s.layerHandler.ListLayerStrokes)
	s.app.Patch("/api/layers/:id", s.layerHandler.UpdateLayer)
	s.app.Delete("/api/layers/:id", s.layerHandler.DeleteLayer)
	s.app.Delete("/api/strokes/:id", s.strokeHandler.DeleteStroke)
	s.app.Get("/api/notes/:id", s.noteHandler.GetNote)
	s.app.Patch("/api/notes/:id", s.noteHandler.UpdateNote)
	s.app.Delete("/api/notes/:id", s.noteHandler.DeleteNote)

	// WebSocket upgrade check middleware
	s.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// Collaboration socket endpoint
	s.app.Get("/ws/collab", websocket.New(s.collabWSHandler.HandleWebSocket, websocket.Config{
		ReadBufferSize:  s.cfg.WebSocket.ReadBufferSize,
		WriteBufferSize: s.cfg.WebSocket.WriteBufferSize,
	}))
}

// Start runs the server with graceful shutdown on SIGINT/SIGTERM.
func (s *Server) Start() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")
		if err := s.app.ShutdownWithTimeout(30 * time.Second); err != nil {
			log.Fatalf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("Collab board backend starting on %s", s.cfg.Server.Port)
	log.Printf("WebSocket endpoint: ws://localhost%s/ws/collab", s.cfg.Server.Port)

	return s.app.Listen(s.cfg.Server.Port)
}

// Shutdown stops the server.
func (s *Server) Shutdown() error {
	return s.app.ShutdownWithTimeout(30 * time.Second)
}
