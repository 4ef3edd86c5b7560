package handler

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"collab-board-backend/internal/model"
	"collab-board-backend/internal/store"
)

// NoteHandler serves the sticky note CRUD surface.
type NoteHandler struct {
	store store.Store
}

// NewNoteHandler creates a NoteHandler.
func NewNoteHandler(st store.Store) *NoteHandler {
	return &NoteHandler{store: st}
}

// CreateNoteRequest is the POST /api/boards/:boardId/notes body.
type CreateNoteRequest struct {
	Content string          `json:"content"`
	Color   model.NoteColor `json:"color"`
	X       int             `json:"x"`
	Y       int             `json:"y"`
	Width   *int            `json:"width"`
	Height  *int            `json:"height"`
}

// UpdateNoteRequest is the PATCH /api/notes/:id body.
type UpdateNoteRequest struct {
	Content *string          `json:"content"`
	Color   *model.NoteColor `json:"color"`
	X       *int             `json:"x"`
	Y       *int             `json:"y"`
	Width   *int             `json:"width"`
	Height  *int             `json:"height"`
}

// ListNotes returns a board's sticky notes.
func (h *NoteHandler) ListNotes(c *fiber.Ctx) error {
	boardID := c.Params("boardId")

	notes, err := h.store.ListNotesByBoard(c.Context(), boardID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Board not found"})
		}
		log.Printf("[Note] Failed to list notes for %s: %v", boardID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch notes"})
	}
	return c.JSON(notes)
}

// GetNote returns one sticky note.
func (h *NoteHandler) GetNote(c *fiber.Ctx) error {
	id := c.Params("id")

	note, err := h.store.GetNote(c.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Note not found"})
		}
		log.Printf("[Note] Failed to get note %s: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch note"})
	}
	return c.JSON(note)
}

// CreateNote pins a sticky note to a board.
func (h *NoteHandler) CreateNote(c *fiber.Ctx) error {
	boardID := c.Params("boardId")

	var req CreateNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	note := model.StickyNote{
		BoardID: boardID,
		Content: req.Content,
		Color:   req.Color,
		X:       req.X,
		Y:       req.Y,
	}
	if req.Width != nil {
		note.Width = *req.Width
	}
	if req.Height != nil {
		note.Height = *req.Height
	}

	if err := h.store.CreateNote(c.Context(), &note); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Board not found"})
		case errors.Is(err, store.ErrInvalid):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		log.Printf("[Note] Failed to create note on %s: %v", boardID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create note"})
	}

	return c.Status(fiber.StatusCreated).JSON(note)
}

// UpdateNote applies a partial update.
func (h *NoteHandler) UpdateNote(c *fiber.Ctx) error {
	id := c.Params("id")

	var req UpdateNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	note, err := h.store.UpdateNote(c.Context(), id, store.NoteUpdate{
		Content: req.Content,
		Color:   req.Color,
		X:       req.X,
		Y:       req.Y,
		Width:   req.Width,
		Height:  req.Height,
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Note not found"})
		case errors.Is(err, store.ErrInvalid):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		log.Printf("[Note] Failed to update note %s: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update note"})
	}

	return c.JSON(note)
}

// DeleteNote removes one sticky note.
func (h *NoteHandler) DeleteNote(c *fiber.Ctx) error {
	id := c.Params("id")

	if err := h.store.DeleteNote(c.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Note not found"})
		}
		log.Printf("[Note] Failed to delete note %s: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete note"})
	}

	return c.SendStatus(fiber.StatusNoContent)
}
