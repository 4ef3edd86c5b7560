package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"collab-board-backend/internal/model"
)

func newBoard(t *testing.T, m *Memory, name string) *model.Board {
	t.Helper()
	board := &model.Board{Name: name}
	assert.Equal(t, m.CreateBoard(context.Background(), board), nil)
	return board
}

func defaultLayer(t *testing.T, m *Memory, boardID string) model.Layer {
	t.Helper()
	layers, err := m.ListLayersByBoard(context.Background(), boardID)
	assert.Equal(t, err, nil)
	assert.Equal(t, len(layers), 1)
	return layers[0]
}

func TestCreateBoardDefaults(t *testing.T) {
	m := NewMemory()
	board := newBoard(t, m, "retro")

	assert.NotEqual(t, board.ID, "")
	assert.Equal(t, board.Width, model.DefaultBoardWidth)
	assert.Equal(t, board.Height, model.DefaultBoardHeight)

	layer := defaultLayer(t, m, board.ID)
	assert.Equal(t, layer.Name, model.DefaultLayerName)
	assert.Equal(t, layer.Visible, true)
	assert.Equal(t, layer.Opacity, model.DefaultOpacity)
	assert.Equal(t, layer.Order, 0)
}

func TestCreateBoardRequiresName(t *testing.T) {
	m := NewMemory()
	err := m.CreateBoard(context.Background(), &model.Board{})
	assert.Equal(t, errors.Is(err, ErrInvalid), true)
}

func TestUpdateBoardPartial(t *testing.T) {
	m := NewMemory()
	board := newBoard(t, m, "before")

	name := "after"
	updated, err := m.UpdateBoard(context.Background(), board.ID, BoardUpdate{Name: &name})
	assert.Equal(t, err, nil)
	assert.Equal(t, updated.Name, "after")
	assert.Equal(t, updated.Width, model.DefaultBoardWidth)

	thumb := "data:image/png;base64,xxxx"
	updated, err = m.UpdateBoard(context.Background(), board.ID, BoardUpdate{Thumbnail: &thumb})
	assert.Equal(t, err, nil)
	assert.Equal(t, *updated.Thumbnail, thumb)
	assert.Equal(t, updated.Name, "after")

	empty := ""
	_, err = m.UpdateBoard(context.Background(), board.ID, BoardUpdate{Name: &empty})
	assert.Equal(t, errors.Is(err, ErrInvalid), true)

	_, err = m.UpdateBoard(context.Background(), "missing", BoardUpdate{Name: &name})
	assert.Equal(t, errors.Is(err, ErrNotFound), true)
}

func TestListBoardsRecentFirst(t *testing.T) {
	m := NewMemory()
	first := newBoard(t, m, "first")
	time.Sleep(time.Millisecond)
	_ = newBoard(t, m, "second")
	time.Sleep(time.Millisecond)

	name := "first again"
	_, err := m.UpdateBoard(context.Background(), first.ID, BoardUpdate{Name: &name})
	assert.Equal(t, err, nil)

	boards, err := m.ListBoards(context.Background())
	assert.Equal(t, err, nil)
	assert.Equal(t, len(boards), 2)
	assert.Equal(t, boards[0].ID, first.ID)
}

func TestStrokeRoundTrip(t *testing.T) {
	m := NewMemory()
	board := newBoard(t, m, "canvas")
	layer := defaultLayer(t, m, board.ID)

	points := model.PointList{{X: 0.1, Y: 0.2}, {X: 0.3, Y: 0.4}, {X: 1, Y: 0}}
	stroke := model.Stroke{
		LayerID: layer.ID,
		BoardID: board.ID,
		Tool:    model.ToolPen,
		Color:   "#ff0000",
		Width:   2.5,
		Points:  points,
	}
	assert.Equal(t, m.CreateStroke(context.Background(), &stroke), nil)

	strokes, err := m.ListStrokesByBoard(context.Background(), board.ID)
	assert.Equal(t, err, nil)
	assert.Equal(t, len(strokes), 1)
	assert.Equal(t, strokes[0].Points, points)
	assert.Equal(t, strokes[0].Tool, model.ToolPen)
	assert.Equal(t, strokes[0].Width, 2.5)
}

func TestStrokeReplayOrder(t *testing.T) {
	m := NewMemory()
	board := newBoard(t, m, "canvas")
	layer := defaultLayer(t, m, board.ID)

	var ids []string
	for i := 0; i < 5; i++ {
		stroke := model.Stroke{
			LayerID: layer.ID,
			BoardID: board.ID,
			Tool:    model.ToolPen,
			Color:   "#000",
			Width:   1,
			Points:  model.PointList{{X: 0.5, Y: 0.5}},
		}
		assert.Equal(t, m.CreateStroke(context.Background(), &stroke), nil)
		ids = append(ids, stroke.ID)
	}

	strokes, err := m.ListStrokesByBoard(context.Background(), board.ID)
	assert.Equal(t, err, nil)
	assert.Equal(t, len(strokes), 5)
	for i, s := range strokes {
		assert.Equal(t, s.ID, ids[i])
	}
}

func TestStrokeValidation(t *testing.T) {
	m := NewMemory()
	board := newBoard(t, m, "canvas")
	layer := defaultLayer(t, m, board.ID)
	other := newBoard(t, m, "other")

	cases := []struct {
		name   string
		stroke model.Stroke
		target error
	}{
		{
			name:   "unknown tool",
			stroke: model.Stroke{LayerID: layer.ID, BoardID: board.ID, Tool: "spray", Color: "#000", Width: 1, Points: model.PointList{{}}},
			target: ErrInvalid,
		},
		{
			name:   "zero width",
			stroke: model.Stroke{LayerID: layer.ID, BoardID: board.ID, Tool: model.ToolPen, Color: "#000", Width: 0, Points: model.PointList{{}}},
			target: ErrInvalid,
		},
		{
			name:   "no points",
			stroke: model.Stroke{LayerID: layer.ID, BoardID: board.ID, Tool: model.ToolPen, Color: "#000", Width: 1},
			target: ErrInvalid,
		},
		{
			name:   "missing layer",
			stroke: model.Stroke{LayerID: "missing", BoardID: board.ID, Tool: model.ToolPen, Color: "#000", Width: 1, Points: model.PointList{{}}},
			target: ErrNotFound,
		},
		{
			name:   "layer on different board",
			stroke: model.Stroke{LayerID: layer.ID, BoardID: other.ID, Tool: model.ToolPen, Color: "#000", Width: 1, Points: model.PointList{{}}},
			target: ErrInvalid,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := m.CreateStroke(context.Background(), &tc.stroke)
			assert.Equal(t, errors.Is(err, tc.target), true)
		})
	}

	strokes, err := m.ListStrokesByBoard(context.Background(), board.ID)
	assert.Equal(t, err, nil)
	assert.Equal(t, len(strokes), 0)
}

func TestDeleteBoardCascades(t *testing.T) {
	m := NewMemory()
	board := newBoard(t, m, "doomed")
	layer := defaultLayer(t, m, board.ID)

	second := model.Layer{BoardID: board.ID, Name: "Layer 2", Visible: true, Opacity: 100, Order: 1}
	assert.Equal(t, m.CreateLayer(context.Background(), &second), nil)

	for i, layerID := range []string{layer.ID, layer.ID, layer.ID, second.ID, second.ID} {
		stroke := model.Stroke{
			LayerID: layerID,
			BoardID: board.ID,
			Tool:    model.ToolPen,
			Color:   "#000",
			Width:   float64(i + 1),
			Points:  model.PointList{{X: 0.5, Y: 0.5}},
		}
		assert.Equal(t, m.CreateStroke(context.Background(), &stroke), nil)
	}
	note := model.StickyNote{BoardID: board.ID, Content: "bye", Color: model.NoteYellow}
	assert.Equal(t, m.CreateNote(context.Background(), &note), nil)

	assert.Equal(t, m.DeleteBoard(context.Background(), board.ID), nil)

	_, err := m.GetBoard(context.Background(), board.ID)
	assert.Equal(t, errors.Is(err, ErrNotFound), true)

	layers, _ := m.ListLayersByBoard(context.Background(), board.ID)
	assert.Equal(t, len(layers), 0)
	strokes, _ := m.ListStrokesByBoard(context.Background(), board.ID)
	assert.Equal(t, len(strokes), 0)
	notes, _ := m.ListNotesByBoard(context.Background(), board.ID)
	assert.Equal(t, len(notes), 0)
}

func TestDeleteLayerCascadesStrokes(t *testing.T) {
	m := NewMemory()
	board := newBoard(t, m, "canvas")
	layer := defaultLayer(t, m, board.ID)

	stroke := model.Stroke{
		LayerID: layer.ID,
		BoardID: board.ID,
		Tool:    model.ToolEraser,
		Color:   "#fff",
		Width:   8,
		Points:  model.PointList{{X: 0.5, Y: 0.5}},
	}
	assert.Equal(t, m.CreateStroke(context.Background(), &stroke), nil)

	assert.Equal(t, m.DeleteLayer(context.Background(), layer.ID), nil)

	strokes, err := m.ListStrokesByBoard(context.Background(), board.ID)
	assert.Equal(t, err, nil)
	assert.Equal(t, len(strokes), 0)

	err = m.DeleteStroke(context.Background(), stroke.ID)
	assert.Equal(t, errors.Is(err, ErrNotFound), true)
}

func TestLayerUpdate(t *testing.T) {
	m := NewMemory()
	board := newBoard(t, m, "canvas")
	layer := defaultLayer(t, m, board.ID)

	hidden := false
	opacity := 40
	updated, err := m.UpdateLayer(context.Background(), layer.ID, LayerUpdate{Visible: &hidden, Opacity: &opacity})
	assert.Equal(t, err, nil)
	assert.Equal(t, updated.Visible, false)
	assert.Equal(t, updated.Opacity, 40)
	assert.Equal(t, updated.Name, model.DefaultLayerName)

	bad := 150
	_, err = m.UpdateLayer(context.Background(), layer.ID, LayerUpdate{Opacity: &bad})
	assert.Equal(t, errors.Is(err, ErrInvalid), true)

	_, err = m.UpdateLayer(context.Background(), "missing", LayerUpdate{Opacity: &opacity})
	assert.Equal(t, errors.Is(err, ErrNotFound), true)
}

func TestLayerZOrderListing(t *testing.T) {
	m := NewMemory()
	board := newBoard(t, m, "canvas")

	top := model.Layer{BoardID: board.ID, Name: "top", Visible: true, Opacity: 100, Order: 5}
	assert.Equal(t, m.CreateLayer(context.Background(), &top), nil)
	middle := model.Layer{BoardID: board.ID, Name: "middle", Visible: true, Opacity: 100, Order: 2}
	assert.Equal(t, m.CreateLayer(context.Background(), &middle), nil)

	layers, err := m.ListLayersByBoard(context.Background(), board.ID)
	assert.Equal(t, err, nil)
	assert.Equal(t, len(layers), 3)
	assert.Equal(t, layers[0].Name, model.DefaultLayerName)
	assert.Equal(t, layers[1].Name, "middle")
	assert.Equal(t, layers[2].Name, "top")
}

func TestNoteLifecycle(t *testing.T) {
	m := NewMemory()
	board := newBoard(t, m, "canvas")

	note := model.StickyNote{BoardID: board.ID, Content: "todo", Color: model.NotePink, X: 10, Y: 20}
	assert.Equal(t, m.CreateNote(context.Background(), &note), nil)
	assert.Equal(t, note.Width, model.DefaultNoteSize)
	assert.Equal(t, note.Height, model.DefaultNoteSize)

	content := "done"
	x := 99
	updated, err := m.UpdateNote(context.Background(), note.ID, NoteUpdate{Content: &content, X: &x})
	assert.Equal(t, err, nil)
	assert.Equal(t, updated.Content, "done")
	assert.Equal(t, updated.X, 99)
	assert.Equal(t, updated.Y, 20)
	assert.Equal(t, updated.Color, model.NotePink)

	bad := model.NoteColor("purple")
	_, err = m.UpdateNote(context.Background(), note.ID, NoteUpdate{Color: &bad})
	assert.Equal(t, errors.Is(err, ErrInvalid), true)

	assert.Equal(t, m.DeleteNote(context.Background(), note.ID), nil)
	_, err = m.GetNote(context.Background(), note.ID)
	assert.Equal(t, errors.Is(err, ErrNotFound), true)
}

func TestNoteValidation(t *testing.T) {
	m := NewMemory()
	board := newBoard(t, m, "canvas")

	err := m.CreateNote(context.Background(), &model.StickyNote{BoardID: board.ID, Color: "mauve"})
	assert.Equal(t, errors.Is(err, ErrInvalid), true)

	err = m.CreateNote(context.Background(), &model.StickyNote{BoardID: "missing", Color: model.NoteBlue})
	assert.Equal(t, errors.Is(err, ErrNotFound), true)
}
