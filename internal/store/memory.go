package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"collab-board-backend/internal/model"
)

// Memory is an in-process Store used by tests and by DB_DRIVER=memory
// deployments. A single mutex guards every map; operations never block on
// anything but the lock, so holding it across an operation keeps each
// entity mutation atomic.
type Memory struct {
	mu        sync.Mutex
	boards    map[string]model.Board
	layers    map[string]model.Layer
	strokes   map[string]model.Stroke
	notes     map[string]model.StickyNote
	strokeSeq map[string]int64
	seq       int64
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		boards:    make(map[string]model.Board),
		layers:    make(map[string]model.Layer),
		strokes:   make(map[string]model.Stroke),
		notes:     make(map[string]model.StickyNote),
		strokeSeq: make(map[string]int64),
	}
}

// Boards

func (m *Memory) ListBoards(ctx context.Context) ([]model.Board, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	boards := make([]model.Board, 0, len(m.boards))
	for _, b := range m.boards {
		boards = append(boards, b)
	}
	// Most recently updated first, matching the lobby ordering.
	sort.Slice(boards, func(i, j int) bool {
		return boards[i].UpdatedAt.After(boards[j].UpdatedAt)
	})
	return boards, nil
}

func (m *Memory) GetBoard(ctx context.Context, id string) (*model.Board, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.boards[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &b, nil
}

func (m *Memory) CreateBoard(ctx context.Context, board *model.Board) error {
	if board.Name == "" {
		return fmt.Errorf("%w: board name is required", ErrInvalid)
	}
	if board.Width == 0 {
		board.Width = model.DefaultBoardWidth
	}
	if board.Height == 0 {
		board.Height = model.DefaultBoardHeight
	}
	board.ID = uuid.NewString()
	now := time.Now()
	board.CreatedAt = now
	board.UpdatedAt = now

	m.mu.Lock()
	defer m.mu.Unlock()

	// Board plus default layer under one lock hold: a reader can never
	// observe a board with zero layers.
	m.boards[board.ID] = *board
	layerID := uuid.NewString()
	m.layers[layerID] = model.Layer{
		ID:      layerID,
		BoardID: board.ID,
		Name:    model.DefaultLayerName,
		Visible: true,
		Opacity: model.DefaultOpacity,
		Order:   0,
	}
	return nil
}

func (m *Memory) UpdateBoard(ctx context.Context, id string, upd BoardUpdate) (*model.Board, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.boards[id]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.Name != nil {
		if *upd.Name == "" {
			return nil, fmt.Errorf("%w: board name is required", ErrInvalid)
		}
		b.Name = *upd.Name
	}
	if upd.Thumbnail != nil {
		b.Thumbnail = upd.Thumbnail
	}
	if upd.Width != nil {
		b.Width = *upd.Width
	}
	if upd.Height != nil {
		b.Height = *upd.Height
	}
	b.UpdatedAt = time.Now()
	m.boards[id] = b
	return &b, nil
}

func (m *Memory) DeleteBoard(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.boards[id]; !ok {
		return ErrNotFound
	}
	delete(m.boards, id)
	for lid, l := range m.layers {
		if l.BoardID == id {
			delete(m.layers, lid)
		}
	}
	for sid, s := range m.strokes {
		if s.BoardID == id {
			delete(m.strokes, sid)
			delete(m.strokeSeq, sid)
		}
	}
	for nid, n := range m.notes {
		if n.BoardID == id {
			delete(m.notes, nid)
		}
	}
	return nil
}

// Layers

func (m *Memory) ListLayersByBoard(ctx context.Context, boardID string) ([]model.Layer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	layers := make([]model.Layer, 0)
	for _, l := range m.layers {
		if l.BoardID == boardID {
			layers = append(layers, l)
		}
	}
	sort.Slice(layers, func(i, j int) bool {
		return layers[i].Order < layers[j].Order
	})
	return layers, nil
}

func (m *Memory) GetLayer(ctx context.Context, id string) (*model.Layer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.layers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &l, nil
}

func (m *Memory) CreateLayer(ctx context.Context, layer *model.Layer) error {
	if layer.Name == "" {
		return fmt.Errorf("%w: layer name is required", ErrInvalid)
	}
	if layer.Opacity < 0 || layer.Opacity > 100 {
		return fmt.Errorf("%w: opacity out of range", ErrInvalid)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.boards[layer.BoardID]; !ok {
		return ErrNotFound
	}
	layer.ID = uuid.NewString()
	m.layers[layer.ID] = *layer
	return nil
}

func (m *Memory) UpdateLayer(ctx context.Context, id string, upd LayerUpdate) (*model.Layer, error) {
	if upd.Opacity != nil && (*upd.Opacity < 0 || *upd.Opacity > 100) {
		return nil, fmt.Errorf("%w: opacity out of range", ErrInvalid)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.layers[id]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.Name != nil {
		l.Name = *upd.Name
	}
	if upd.Visible != nil {
		l.Visible = *upd.Visible
	}
	if upd.Opacity != nil {
		l.Opacity = *upd.Opacity
	}
	if upd.Order != nil {
		l.Order = *upd.Order
	}
	m.layers[id] = l
	return &l, nil
}

func (m *Memory) DeleteLayer(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.layers[id]; !ok {
		return ErrNotFound
	}
	delete(m.layers, id)
	for sid, s := range m.strokes {
		if s.LayerID == id {
			delete(m.strokes, sid)
			delete(m.strokeSeq, sid)
		}
	}
	return nil
}

// Strokes

func (m *Memory) ListStrokesByBoard(ctx context.Context, boardID string) ([]model.Stroke, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	strokes := make([]model.Stroke, 0)
	for _, s := range m.strokes {
		if s.BoardID == boardID {
			strokes = append(strokes, s)
		}
	}
	m.sortStrokes(strokes)
	return strokes, nil
}

func (m *Memory) ListStrokesByLayer(ctx context.Context, layerID string) ([]model.Stroke, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	strokes := make([]model.Stroke, 0)
	for _, s := range m.strokes {
		if s.LayerID == layerID {
			strokes = append(strokes, s)
		}
	}
	m.sortStrokes(strokes)
	return strokes, nil
}

// sortStrokes orders by creation time ascending, with the insertion
// sequence breaking ties from same-instant writes. Callers hold the lock.
func (m *Memory) sortStrokes(strokes []model.Stroke) {
	sort.Slice(strokes, func(i, j int) bool {
		if strokes[i].CreatedAt.Equal(strokes[j].CreatedAt) {
			return m.strokeSeq[strokes[i].ID] < m.strokeSeq[strokes[j].ID]
		}
		return strokes[i].CreatedAt.Before(strokes[j].CreatedAt)
	})
}

func (m *Memory) CreateStroke(ctx context.Context, stroke *model.Stroke) error {
	if !stroke.Tool.Valid() {
		return fmt.Errorf("%w: unknown tool %q", ErrInvalid, stroke.Tool)
	}
	if stroke.Color == "" || stroke.Width <= 0 || len(stroke.Points) == 0 {
		return fmt.Errorf("%w: malformed stroke", ErrInvalid)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	layer, ok := m.layers[stroke.LayerID]
	if !ok {
		return ErrNotFound
	}
	if layer.BoardID != stroke.BoardID {
		return fmt.Errorf("%w: layer belongs to a different board", ErrInvalid)
	}
	stroke.ID = uuid.NewString()
	stroke.CreatedAt = time.Now()
	m.seq++
	m.strokeSeq[stroke.ID] = m.seq
	m.strokes[stroke.ID] = *stroke
	return nil
}

func (m *Memory) DeleteStroke(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.strokes[id]; !ok {
		return ErrNotFound
	}
	delete(m.strokes, id)
	delete(m.strokeSeq, id)
	return nil
}

// Sticky notes

func (m *Memory) ListNotesByBoard(ctx context.Context, boardID string) ([]model.StickyNote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	notes := make([]model.StickyNote, 0)
	for _, n := range m.notes {
		if n.BoardID == boardID {
			notes = append(notes, n)
		}
	}
	sort.Slice(notes, func(i, j int) bool {
		return notes[i].ID < notes[j].ID
	})
	return notes, nil
}

func (m *Memory) GetNote(ctx context.Context, id string) (*model.StickyNote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, ok := m.notes[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &n, nil
}

func (m *Memory) CreateNote(ctx context.Context, note *model.StickyNote) error {
	if !note.Color.Valid() {
		return fmt.Errorf("%w: unknown note color %q", ErrInvalid, note.Color)
	}
	if note.Width == 0 {
		note.Width = model.DefaultNoteSize
	}
	if note.Height == 0 {
		note.Height = model.DefaultNoteSize
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.boards[note.BoardID]; !ok {
		return ErrNotFound
	}
	note.ID = uuid.NewString()
	m.notes[note.ID] = *note
	return nil
}

func (m *Memory) UpdateNote(ctx context.Context, id string, upd NoteUpdate) (*model.StickyNote, error) {
	if upd.Color != nil && !upd.Color.Valid() {
		return nil, fmt.Errorf("%w: unknown note color %q", ErrInvalid, *upd.Color)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	n, ok := m.notes[id]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.Content != nil {
		n.Content = *upd.Content
	}
	if upd.Color != nil {
		n.Color = *upd.Color
	}
	if upd.X != nil {
		n.X = *upd.X
	}
	if upd.Y != nil {
		n.Y = *upd.Y
	}
	if upd.Width != nil {
		n.Width = *upd.Width
	}
	if upd.Height != nil {
		n.Height = *upd.Height
	}
	m.notes[id] = n
	return &n, nil
}

func (m *Memory) DeleteNote(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.notes[id]; !ok {
		return ErrNotFound
	}
	delete(m.notes, id)
	return nil
}
