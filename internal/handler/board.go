package handler

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"collab-board-backend/internal/hub"
	"collab-board-backend/internal/model"
	"collab-board-backend/internal/store"
)

// BoardHandler serves the board CRUD surface.
type BoardHandler struct {
	store store.Store
	hub   *hub.Hub
}

// NewBoardHandler creates a BoardHandler.
func NewBoardHandler(st store.Store, h *hub.Hub) *BoardHandler {
	return &BoardHandler{store: st, hub: h}
}

// BoardSummary is a board list entry plus its live occupancy.
type BoardSummary struct {
	model.Board
	ActiveUsers int `json:"activeUsers"`
}

// CreateBoardRequest is the POST /api/boards body.
type CreateBoardRequest struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// UpdateBoardRequest is the PATCH /api/boards/:id body. Absent fields
// are left untouched.
type UpdateBoardRequest struct {
	Name      *string `json:"name"`
	Thumbnail *string `json:"thumbnail"`
	Width     *int    `json:"width"`
	Height    *int    `json:"height"`
}

// ListBoards returns every board, most recently updated first, with the
// current number of connected users per board.
func (h *BoardHandler) ListBoards(c *fiber.Ctx) error {
	boards, err := h.store.ListBoards(c.Context())
	if err != nil {
		log.Printf("[Board] Failed to list boards: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch boards"})
	}

	summaries := make([]BoardSummary, 0, len(boards))
	for _, b := range boards {
		summaries = append(summaries, BoardSummary{
			Board:       b,
			ActiveUsers: h.hub.ActiveUsers(b.ID),
		})
	}
	return c.JSON(summaries)
}

// GetBoard returns one board together with its layers, strokes and
// sticky notes, everything a client needs to render the canvas.
func (h *BoardHandler) GetBoard(c *fiber.Ctx) error {
	id := c.Params("id")

	board, err := h.store.GetBoard(c.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Board not found"})
		}
		log.Printf("[Board] Failed to get board %s: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch board"})
	}

	layers, err := h.store.ListLayersByBoard(c.Context(), id)
	if err != nil {
		log.Printf("[Board] Failed to list layers for %s: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch layers"})
	}
	strokes, err := h.store.ListStrokesByBoard(c.Context(), id)
	if err != nil {
		log.Printf("[Board] Failed to list strokes for %s: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch strokes"})
	}
	notes, err := h.store.ListNotesByBoard(c.Context(), id)
	if err != nil {
		log.Printf("[Board] Failed to list notes for %s: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch notes"})
	}

	return c.JSON(fiber.Map{
		"board":       board,
		"layers":      layers,
		"strokes":     strokes,
		"notes":       notes,
		"activeUsers": h.hub.ActiveUsers(id),
	})
}

// CreateBoard creates a board and its default layer.
func (h *BoardHandler) CreateBoard(c *fiber.Ctx) error {
	var req CreateBoardRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	board := model.Board{
		Name:   req.Name,
		Width:  req.Width,
		Height: req.Height,
	}
	if err := h.store.CreateBoard(c.Context(), &board); err != nil {
		if errors.Is(err, store.ErrInvalid) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		log.Printf("[Board] Failed to create board: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create board"})
	}

	return c.Status(fiber.StatusCreated).JSON(board)
}

// UpdateBoard applies a partial update.
func (h *BoardHandler) UpdateBoard(c *fiber.Ctx) error {
	id := c.Params("id")

	var req UpdateBoardRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	board, err := h.store.UpdateBoard(c.Context(), id, store.BoardUpdate{
		Name:      req.Name,
		Thumbnail: req.Thumbnail,
		Width:     req.Width,
		Height:    req.Height,
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Board not found"})
		case errors.Is(err, store.ErrInvalid):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		log.Printf("[Board] Failed to update board %s: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update board"})
	}

	return c.JSON(board)
}

// DeleteBoard deletes a board and everything on it.
func (h *BoardHandler) DeleteBoard(c *fiber.Ctx) error {
	id := c.Params("id")

	if err := h.store.DeleteBoard(c.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Board not found"})
		}
		log.Printf("[Board] Failed to delete board %s: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete board"})
	}

	return c.SendStatus(fiber.StatusNoContent)
}
