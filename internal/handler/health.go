package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"collab-board-backend/internal/hub"
	"collab-board-backend/internal/presence"
)

// HealthHandler serves the health probes. pingStore is nil when the
// in-memory store is active; that backend cannot be unhealthy.
type HealthHandler struct {
	pingStore func() error
	presence  *presence.Manager
	hub       *hub.Hub
}

// NewHealthHandler creates a HealthHandler. Both pingStore and pm may be
// nil.
func NewHealthHandler(pingStore func() error, pm *presence.Manager, h *hub.Hub) *HealthHandler {
	return &HealthHandler{pingStore: pingStore, presence: pm, hub: h}
}

// ComponentCheck is one component's health state.
type ComponentCheck struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HealthResponse is the full health report.
type HealthResponse struct {
	Status      string                    `json:"status"`
	Timestamp   string                    `json:"timestamp"`
	Connections int                       `json:"connections"`
	Checks      map[string]ComponentCheck `json:"checks"`
}

// Check reports overall health including the database and Redis.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	response := HealthResponse{
		Status:      "healthy",
		Timestamp:   time.Now().Format(time.RFC3339),
		Connections: h.hub.Connections(),
		Checks:      make(map[string]ComponentCheck),
	}

	if h.pingStore != nil {
		dbStart := time.Now()
		if err := h.pingStore(); err != nil {
			response.Status = "unhealthy"
			response.Checks["database"] = ComponentCheck{
				Status: "unhealthy",
				Error:  "database ping failed",
			}
		} else {
			response.Checks["database"] = ComponentCheck{
				Status:  "healthy",
				Latency: time.Since(dbStart).String(),
			}
		}
	} else {
		response.Checks["database"] = ComponentCheck{Status: "in_memory"}
	}

	if h.presence != nil {
		redisStart := time.Now()
		if err := h.presence.Ping(c.Context()); err != nil {
			response.Checks["redis"] = ComponentCheck{
				Status: "degraded",
				Error:  "redis unreachable",
			}
		} else {
			response.Checks["redis"] = ComponentCheck{
				Status:  "healthy",
				Latency: time.Since(redisStart).String(),
			}
		}
	} else {
		response.Checks["redis"] = ComponentCheck{Status: "not_configured"}
	}

	statusCode := fiber.StatusOK
	if response.Status == "unhealthy" {
		statusCode = fiber.StatusServiceUnavailable
	}

	return c.Status(statusCode).JSON(response)
}

// Liveness is the simple liveness probe.
func (h *HealthHandler) Liveness(c *fiber.Ctx) error {
	return c.SendString("OK")
}

// Readiness is the readiness probe; it requires the store to answer.
func (h *HealthHandler) Readiness(c *fiber.Ctx) error {
	if h.pingStore != nil {
		if err := h.pingStore(); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).SendString("NOT READY")
		}
	}
	return c.SendString("READY")
}
