package handler

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"collab-board-backend/internal/model"
	"collab-board-backend/internal/store"
)

// StrokeHandler serves the stroke surface. Strokes are immutable, so
// there is no update route.
type StrokeHandler struct {
	store store.Store
}

// NewStrokeHandler creates a StrokeHandler.
func NewStrokeHandler(st store.Store) *StrokeHandler {
	return &StrokeHandler{store: st}
}

// CreateStrokeRequest is the POST /api/boards/:boardId/strokes body.
type CreateStrokeRequest struct {
	LayerID string          `json:"layerId"`
	Tool    model.ToolKind  `json:"tool"`
	Color   string          `json:"color"`
	Width   float64         `json:"width"`
	Points  model.PointList `json:"points"`
}

// ListStrokes returns a board's strokes in creation order, the replay
// stream a joining client paints before going live.
func (h *StrokeHandler) ListStrokes(c *fiber.Ctx) error {
	boardID := c.Params("boardId")

	strokes, err := h.store.ListStrokesByBoard(c.Context(), boardID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Board not found"})
		}
		log.Printf("[Stroke] Failed to list strokes for %s: %v", boardID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch strokes"})
	}
	return c.JSON(strokes)
}

// CreateStroke persists a stroke outside the socket path. Used by bulk
// import tooling; interactive drawing goes through the collaboration
// socket instead.
func (h *StrokeHandler) CreateStroke(c *fiber.Ctx) error {
	boardID := c.Params("boardId")

	var req CreateStrokeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	stroke := model.Stroke{
		LayerID: req.LayerID,
		BoardID: boardID,
		Tool:    req.Tool,
		Color:   req.Color,
		Width:   req.Width,
		Points:  req.Points,
	}
	if err := h.store.CreateStroke(c.Context(), &stroke); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Layer not found"})
		case errors.Is(err, store.ErrInvalid):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		log.Printf("[Stroke] Failed to create stroke on %s: %v", boardID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create stroke"})
	}

	return c.Status(fiber.StatusCreated).JSON(stroke)
}

// DeleteStroke removes one stroke.
func (h *StrokeHandler) DeleteStroke(c *fiber.Ctx) error {
	id := c.Params("id")

	if err := h.store.DeleteStroke(c.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Stroke not found"})
		}
		log.Printf("[Stroke] Failed to delete stroke %s: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete stroke"})
	}

	return c.SendStatus(fiber.StatusNoContent)
}
