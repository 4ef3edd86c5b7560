package hub

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/go-playground/assert/v2"

	"collab-board-backend/internal/model"
	"collab-board-backend/internal/store"
)

// fakeTransport records every frame written to it.
type fakeTransport struct {
	mu     sync.Mutex
	frames [][]byte
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{}
}

func (f *fakeTransport) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	f.frames = append(f.frames, cp)
	return nil
}

func (f *fakeTransport) Close() error {
	return nil
}

func (f *fakeTransport) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = nil
}

func (f *fakeTransport) envelopes(t *testing.T) []Envelope {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()

	envs := make([]Envelope, 0, len(f.frames))
	for _, frame := range f.frames {
		var env Envelope
		assert.Equal(t, json.Unmarshal(frame, &env), nil)
		envs = append(envs, env)
	}
	return envs
}

func (f *fakeTransport) byType(t *testing.T, typ string) []Envelope {
	t.Helper()
	var out []Envelope
	for _, env := range f.envelopes(t) {
		if env.Type == typ {
			out = append(out, env)
		}
	}
	return out
}

func newTestHub(t *testing.T) (*Hub, *store.Memory, string, string) {
	t.Helper()
	m := store.NewMemory()
	board := &model.Board{Name: "test board"}
	assert.Equal(t, m.CreateBoard(context.Background(), board), nil)
	layers, err := m.ListLayersByBoard(context.Background(), board.ID)
	assert.Equal(t, err, nil)
	return New(m, nil), m, board.ID, layers[0].ID
}

func frame(t *testing.T, env Envelope) []byte {
	t.Helper()
	data, err := json.Marshal(env)
	assert.Equal(t, err, nil)
	return data
}

func join(t *testing.T, h *Hub, conn *Connection, boardID string) {
	t.Helper()
	h.Dispatch(context.Background(), conn, frame(t, Envelope{Type: TypeJoinBoard, BoardID: boardID}))
}

func payload(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	assert.Equal(t, err, nil)
	return data
}

func TestJoinBoardFlow(t *testing.T) {
	h, _, boardID, _ := newTestHub(t)

	at := newFakeTransport()
	a := h.Connect(at)
	join(t, h, a, boardID)

	// the joiner gets a users_list including itself, and never its own
	// user_joined echo
	lists := at.byType(t, TypeUsersList)
	assert.Equal(t, len(lists), 1)
	var users []string
	assert.Equal(t, json.Unmarshal(lists[0].Data, &users), nil)
	assert.Equal(t, users, []string{a.UserID})
	assert.Equal(t, len(at.byType(t, TypeUserJoined)), 0)

	bt := newFakeTransport()
	b := h.Connect(bt)
	join(t, h, b, boardID)

	joined := at.byType(t, TypeUserJoined)
	assert.Equal(t, len(joined), 1)
	assert.Equal(t, joined[0].UserID, b.UserID)

	lists = bt.byType(t, TypeUsersList)
	assert.Equal(t, len(lists), 1)
	var bothUsers []string
	assert.Equal(t, json.Unmarshal(lists[0].Data, &bothUsers), nil)
	assert.Equal(t, bothUsers, []string{a.UserID, b.UserID})

	assert.Equal(t, h.ActiveUsers(boardID), 2)
}

func TestRejoinMovesToNewBoard(t *testing.T) {
	h, m, boardID, _ := newTestHub(t)
	second := &model.Board{Name: "second board"}
	assert.Equal(t, m.CreateBoard(context.Background(), second), nil)

	at := newFakeTransport()
	a := h.Connect(at)
	join(t, h, a, boardID)
	bt := newFakeTransport()
	b := h.Connect(bt)
	join(t, h, b, boardID)

	at.reset()
	bt.reset()
	join(t, h, b, second.ID)

	// the stayer sees exactly one departure; the mover sees neither its
	// own user_left nor a user_joined echo
	left := at.byType(t, TypeUserLeft)
	assert.Equal(t, len(left), 1)
	assert.Equal(t, left[0].UserID, b.UserID)
	assert.Equal(t, len(bt.byType(t, TypeUserLeft)), 0)
	assert.Equal(t, len(bt.byType(t, TypeUserJoined)), 0)

	assert.Equal(t, h.ActiveUsers(boardID), 1)
	assert.Equal(t, h.ActiveUsers(second.ID), 1)
	assert.Equal(t, a.Board(), boardID)
	assert.Equal(t, b.Board(), second.ID)
}

func TestDrawStrokePersistsThenBroadcasts(t *testing.T) {
	h, m, boardID, layerID := newTestHub(t)

	at := newFakeTransport()
	a := h.Connect(at)
	join(t, h, a, boardID)
	bt := newFakeTransport()
	b := h.Connect(bt)
	join(t, h, b, boardID)
	at.reset()
	bt.reset()

	stroke := StrokePayload{
		LayerID: layerID,
		Tool:    model.ToolPen,
		Color:   "#00ff00",
		Width:   4,
		Points:  model.PointList{{X: 0.1, Y: 0.1}, {X: 0.9, Y: 0.9}},
	}
	h.Dispatch(context.Background(), a, frame(t, Envelope{
		Type: TypeDrawStroke,
		Data: payload(t, stroke),
	}))

	strokes, err := m.ListStrokesByBoard(context.Background(), boardID)
	assert.Equal(t, err, nil)
	assert.Equal(t, len(strokes), 1)
	assert.Equal(t, strokes[0].Points, stroke.Points)

	got := bt.byType(t, TypeDrawStroke)
	assert.Equal(t, len(got), 1)
	assert.Equal(t, got[0].UserID, a.UserID)
	var echoed StrokePayload
	assert.Equal(t, json.Unmarshal(got[0].Data, &echoed), nil)
	assert.Equal(t, echoed, stroke)

	// the sender never hears its own stroke back
	assert.Equal(t, len(at.byType(t, TypeDrawStroke)), 0)
}

func TestDrawStrokeStoreFailureNotBroadcast(t *testing.T) {
	h, m, boardID, _ := newTestHub(t)

	at := newFakeTransport()
	a := h.Connect(at)
	join(t, h, a, boardID)
	bt := newFakeTransport()
	b := h.Connect(bt)
	join(t, h, b, boardID)
	_ = b
	bt.reset()

	stroke := StrokePayload{
		LayerID: "deleted-layer",
		Tool:    model.ToolPen,
		Color:   "#00ff00",
		Width:   4,
		Points:  model.PointList{{X: 0.5, Y: 0.5}},
	}
	h.Dispatch(context.Background(), a, frame(t, Envelope{
		Type: TypeDrawStroke,
		Data: payload(t, stroke),
	}))

	strokes, err := m.ListStrokesByBoard(context.Background(), boardID)
	assert.Equal(t, err, nil)
	assert.Equal(t, len(strokes), 0)
	assert.Equal(t, len(bt.envelopes(t)), 0)
}

func TestDrawStrokeInvalidPayloadDropped(t *testing.T) {
	h, m, boardID, layerID := newTestHub(t)

	at := newFakeTransport()
	a := h.Connect(at)
	join(t, h, a, boardID)

	stroke := StrokePayload{
		LayerID: layerID,
		Tool:    model.ToolPen,
		Color:   "#00ff00",
		Width:   4,
		Points:  model.PointList{{X: 1.5, Y: 0.5}},
	}
	h.Dispatch(context.Background(), a, frame(t, Envelope{
		Type: TypeDrawStroke,
		Data: payload(t, stroke),
	}))

	strokes, err := m.ListStrokesByBoard(context.Background(), boardID)
	assert.Equal(t, err, nil)
	assert.Equal(t, len(strokes), 0)
}

func TestDrawStrokeWhileUnattached(t *testing.T) {
	h, m, boardID, layerID := newTestHub(t)

	at := newFakeTransport()
	a := h.Connect(at)

	stroke := StrokePayload{
		LayerID: layerID,
		Tool:    model.ToolPen,
		Color:   "#00ff00",
		Width:   4,
		Points:  model.PointList{{X: 0.5, Y: 0.5}},
	}
	h.Dispatch(context.Background(), a, frame(t, Envelope{
		Type: TypeDrawStroke,
		Data: payload(t, stroke),
	}))

	strokes, err := m.ListStrokesByBoard(context.Background(), boardID)
	assert.Equal(t, err, nil)
	assert.Equal(t, len(strokes), 0)
}

func TestLaserPointerIsEphemeral(t *testing.T) {
	h, m, boardID, _ := newTestHub(t)

	at := newFakeTransport()
	a := h.Connect(at)
	join(t, h, a, boardID)
	bt := newFakeTransport()
	b := h.Connect(bt)
	join(t, h, b, boardID)
	_ = b
	bt.reset()

	h.Dispatch(context.Background(), a, frame(t, Envelope{
		Type: TypeLaserPointer,
		Data: payload(t, LaserPayload{X: 0.4, Y: 0.6}),
	}))

	got := bt.byType(t, TypeLaserPointer)
	assert.Equal(t, len(got), 1)
	assert.Equal(t, got[0].UserID, a.UserID)

	strokes, err := m.ListStrokesByBoard(context.Background(), boardID)
	assert.Equal(t, err, nil)
	assert.Equal(t, len(strokes), 0)
}

func TestNoteUpdateCreatesAndBroadcasts(t *testing.T) {
	h, m, boardID, _ := newTestHub(t)

	at := newFakeTransport()
	a := h.Connect(at)
	join(t, h, a, boardID)
	bt := newFakeTransport()
	b := h.Connect(bt)
	join(t, h, b, boardID)
	_ = b
	bt.reset()

	content := "remember this"
	color := model.NoteYellow
	x, y := 100, 200
	h.Dispatch(context.Background(), a, frame(t, Envelope{
		Type: TypeNoteUpdate,
		Data: payload(t, NotePayload{Content: &content, Color: &color, X: &x, Y: &y}),
	}))

	notes, err := m.ListNotesByBoard(context.Background(), boardID)
	assert.Equal(t, err, nil)
	assert.Equal(t, len(notes), 1)
	assert.Equal(t, notes[0].Content, content)
	assert.Equal(t, notes[0].Width, model.DefaultNoteSize)

	got := bt.byType(t, TypeNoteUpdate)
	assert.Equal(t, len(got), 1)
	assert.Equal(t, got[0].UserID, a.UserID)
}

func TestNoteUpdateMissingNoteStillBroadcasts(t *testing.T) {
	h, m, boardID, _ := newTestHub(t)

	at := newFakeTransport()
	a := h.Connect(at)
	join(t, h, a, boardID)
	bt := newFakeTransport()
	b := h.Connect(bt)
	join(t, h, b, boardID)
	_ = b
	bt.reset()

	content := "ghost"
	h.Dispatch(context.Background(), a, frame(t, Envelope{
		Type: TypeNoteUpdate,
		Data: payload(t, NotePayload{ID: "already-deleted", Content: &content}),
	}))

	notes, err := m.ListNotesByBoard(context.Background(), boardID)
	assert.Equal(t, err, nil)
	assert.Equal(t, len(notes), 0)

	got := bt.byType(t, TypeNoteUpdate)
	assert.Equal(t, len(got), 1)
}

func TestLayerUpdateAppliesAndBroadcasts(t *testing.T) {
	h, m, boardID, layerID := newTestHub(t)

	at := newFakeTransport()
	a := h.Connect(at)
	join(t, h, a, boardID)
	bt := newFakeTransport()
	b := h.Connect(bt)
	join(t, h, b, boardID)
	_ = b
	bt.reset()

	opacity := 55
	h.Dispatch(context.Background(), a, frame(t, Envelope{
		Type: TypeLayerUpdate,
		Data: payload(t, LayerPayload{ID: layerID, Opacity: &opacity}),
	}))

	layer, err := m.GetLayer(context.Background(), layerID)
	assert.Equal(t, err, nil)
	assert.Equal(t, layer.Opacity, 55)

	got := bt.byType(t, TypeLayerUpdate)
	assert.Equal(t, len(got), 1)
	assert.Equal(t, got[0].UserID, a.UserID)
}

func TestLayerUpdateMissingLayerStillBroadcasts(t *testing.T) {
	h, _, boardID, _ := newTestHub(t)

	at := newFakeTransport()
	a := h.Connect(at)
	join(t, h, a, boardID)
	bt := newFakeTransport()
	b := h.Connect(bt)
	join(t, h, b, boardID)
	_ = b
	bt.reset()

	visible := false
	h.Dispatch(context.Background(), a, frame(t, Envelope{
		Type: TypeLayerUpdate,
		Data: payload(t, LayerPayload{ID: "already-deleted", Visible: &visible}),
	}))

	got := bt.byType(t, TypeLayerUpdate)
	assert.Equal(t, len(got), 1)
}

func TestUnknownAndMalformedFramesIgnored(t *testing.T) {
	h, _, boardID, _ := newTestHub(t)

	at := newFakeTransport()
	a := h.Connect(at)
	join(t, h, a, boardID)
	bt := newFakeTransport()
	b := h.Connect(bt)
	join(t, h, b, boardID)
	_ = b
	bt.reset()

	h.Dispatch(context.Background(), a, []byte("{not json"))
	h.Dispatch(context.Background(), a, frame(t, Envelope{Type: "format_disk"}))
	h.Dispatch(context.Background(), a, frame(t, Envelope{Type: TypeUsersList}))

	assert.Equal(t, len(bt.envelopes(t)), 0)
	assert.Equal(t, h.ActiveUsers(boardID), 2)
}

func TestDisconnectNotifiesPeers(t *testing.T) {
	h, _, boardID, _ := newTestHub(t)

	at := newFakeTransport()
	a := h.Connect(at)
	join(t, h, a, boardID)
	bt := newFakeTransport()
	b := h.Connect(bt)
	join(t, h, b, boardID)
	at.reset()

	h.Disconnect(b)

	left := at.byType(t, TypeUserLeft)
	assert.Equal(t, len(left), 1)
	assert.Equal(t, left[0].UserID, b.UserID)
	assert.Equal(t, h.ActiveUsers(boardID), 1)
	assert.Equal(t, h.Connections(), 1)

	// the close path and the read-error path both call Disconnect; the
	// second call must not produce a second user_left
	h.Disconnect(b)
	assert.Equal(t, len(at.byType(t, TypeUserLeft)), 1)
}

func TestDisconnectUnattachedIsSilent(t *testing.T) {
	h, _, boardID, _ := newTestHub(t)

	at := newFakeTransport()
	a := h.Connect(at)
	join(t, h, a, boardID)
	at.reset()

	loiterer := h.Connect(newFakeTransport())
	h.Disconnect(loiterer)

	assert.Equal(t, len(at.envelopes(t)), 0)
}

func TestBroadcastScopedToBoard(t *testing.T) {
	h, m, boardID, layerID := newTestHub(t)
	second := &model.Board{Name: "second board"}
	assert.Equal(t, m.CreateBoard(context.Background(), second), nil)

	at := newFakeTransport()
	a := h.Connect(at)
	join(t, h, a, boardID)
	ct := newFakeTransport()
	c := h.Connect(ct)
	join(t, h, c, second.ID)
	_ = c
	ct.reset()

	stroke := StrokePayload{
		LayerID: layerID,
		Tool:    model.ToolPen,
		Color:   "#000",
		Width:   1,
		Points:  model.PointList{{X: 0.5, Y: 0.5}},
	}
	h.Dispatch(context.Background(), a, frame(t, Envelope{
		Type: TypeDrawStroke,
		Data: payload(t, stroke),
	}))

	assert.Equal(t, len(ct.envelopes(t)), 0)
}
