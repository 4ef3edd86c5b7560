package handler

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"collab-board-backend/internal/model"
	"collab-board-backend/internal/store"
)

// LayerHandler serves the layer CRUD surface.
type LayerHandler struct {
	store store.Store
}

// NewLayerHandler creates a LayerHandler.
func NewLayerHandler(st store.Store) *LayerHandler {
	return &LayerHandler{store: st}
}

// CreateLayerRequest is the POST /api/boards/:boardId/layers body.
type CreateLayerRequest struct {
	Name    string `json:"name"`
	Visible *bool  `json:"visible"`
	Opacity *int   `json:"opacity"`
	Order   *int   `json:"order"`
}

// UpdateLayerRequest is the PATCH /api/layers/:id body.
type UpdateLayerRequest struct {
	Name    *string `json:"name"`
	Visible *bool   `json:"visible"`
	Opacity *int    `json:"opacity"`
	Order   *int    `json:"order"`
}

// ListLayers returns a board's layers in z-order.
func (h *LayerHandler) ListLayers(c *fiber.Ctx) error {
	boardID := c.Params("boardId")

	layers, err := h.store.ListLayersByBoard(c.Context(), boardID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Board not found"})
		}
		log.Printf("[Layer] Failed to list layers for %s: %v", boardID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch layers"})
	}
	return c.JSON(layers)
}

// CreateLayer adds a layer to a board.
func (h *LayerHandler) CreateLayer(c *fiber.Ctx) error {
	boardID := c.Params("boardId")

	var req CreateLayerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	layer := model.Layer{
		BoardID: boardID,
		Name:    req.Name,
		Visible: true,
		Opacity: model.DefaultOpacity,
	}
	if req.Visible != nil {
		layer.Visible = *req.Visible
	}
	if req.Opacity != nil {
		layer.Opacity = *req.Opacity
	}
	if req.Order != nil {
		layer.Order = *req.Order
	}

	if err := h.store.CreateLayer(c.Context(), &layer); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Board not found"})
		case errors.Is(err, store.ErrInvalid):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		log.Printf("[Layer] Failed to create layer on %s: %v", boardID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create layer"})
	}

	return c.Status(fiber.StatusCreated).JSON(layer)
}

// UpdateLayer applies a partial update.
func (h *LayerHandler) UpdateLayer(c *fiber.Ctx) error {
	id := c.Params("id")

	var req UpdateLayerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	layer, err := h.store.UpdateLayer(c.Context(), id, store.LayerUpdate{
		Name:    req.Name,
		Visible: req.Visible,
		Opacity: req.Opacity,
		Order:   req.Order,
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Layer not found"})
		case errors.Is(err, store.ErrInvalid):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		log.Printf("[Layer] Failed to update layer %s: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update layer"})
	}

	return c.JSON(layer)
}

// DeleteLayer deletes a layer and its strokes.
func (h *LayerHandler) DeleteLayer(c *fiber.Ctx) error {
	id := c.Params("id")

	if err := h.store.DeleteLayer(c.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Layer not found"})
		}
		log.Printf("[Layer] Failed to delete layer %s: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete layer"})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ListLayerStrokes returns the strokes on one layer, oldest first.
func (h *LayerHandler) ListLayerStrokes(c *fiber.Ctx) error {
	id := c.Params("id")

	strokes, err := h.store.ListStrokesByLayer(c.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Layer not found"})
		}
		log.Printf("[Layer] Failed to list strokes for %s: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch strokes"})
	}
	return c.JSON(strokes)
}
