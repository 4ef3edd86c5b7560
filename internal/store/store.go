package store

import (
	"context"
	"errors"

	"collab-board-backend/internal/model"
)

// Sentinel errors. ErrNotFound is distinct from ErrInvalid so the hub can
// decide whether a failed mutation still gets broadcast.
var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid")
)

// BoardUpdate carries a partial board mutation. Nil fields are untouched.
type BoardUpdate struct {
	Name      *string
	Thumbnail *string
	Width     *int
	Height    *int
}

// LayerUpdate carries a partial layer mutation.
type LayerUpdate struct {
	Name    *string
	Visible *bool
	Opacity *int
	Order   *int
}

// NoteUpdate carries a partial sticky note mutation.
type NoteUpdate struct {
	Content *string
	Color   *model.NoteColor
	X       *int
	Y       *int
	Width   *int
	Height  *int
}

// Store is the durable keyed storage for boards and their contents. Each
// operation is atomic with respect to a single entity; board creation
// atomically creates the default layer, and deletes cascade so no orphan
// rows survive.
type Store interface {
	// Boards. CreateBoard assigns the ID and timestamps and creates the
	// default layer in the same atomic step. DeleteBoard cascades to
	// layers, strokes and sticky notes.
	ListBoards(ctx context.Context) ([]model.Board, error)
	GetBoard(ctx context.Context, id string) (*model.Board, error)
	CreateBoard(ctx context.Context, board *model.Board) error
	UpdateBoard(ctx context.Context, id string, upd BoardUpdate) (*model.Board, error)
	DeleteBoard(ctx context.Context, id string) error

	// Layers. ListLayersByBoard is ordered by z-order ascending.
	// DeleteLayer cascades to the layer's strokes unconditionally.
	ListLayersByBoard(ctx context.Context, boardID string) ([]model.Layer, error)
	GetLayer(ctx context.Context, id string) (*model.Layer, error)
	CreateLayer(ctx context.Context, layer *model.Layer) error
	UpdateLayer(ctx context.Context, id string, upd LayerUpdate) (*model.Layer, error)
	DeleteLayer(ctx context.Context, id string) error

	// Strokes are immutable: create and delete only. Board-scoped listing
	// is ordered by creation time ascending for replay.
	ListStrokesByBoard(ctx context.Context, boardID string) ([]model.Stroke, error)
	ListStrokesByLayer(ctx context.Context, layerID string) ([]model.Stroke, error)
	CreateStroke(ctx context.Context, stroke *model.Stroke) error
	DeleteStroke(ctx context.Context, id string) error

	// Sticky notes.
	ListNotesByBoard(ctx context.Context, boardID string) ([]model.StickyNote, error)
	GetNote(ctx context.Context, id string) (*model.StickyNote, error)
	CreateNote(ctx context.Context, note *model.StickyNote) error
	UpdateNote(ctx context.Context, id string, upd NoteUpdate) (*model.StickyNote, error)
	DeleteNote(ctx context.Context, id string) error
}
