package hub

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"collab-board-backend/internal/model"
	"collab-board-backend/internal/presence"
	"collab-board-backend/internal/store"
)

// Hub is the real-time collaboration core: it owns the connection
// registry and the room directory, validates and persists mutating
// events, and fans them out to the other members of the board.
//
// Each connection's frames are dispatched from that connection's own
// read goroutine, one at a time, which is what gives recipients a
// sender's events in emission order. Neither lock is ever held across a
// store call or a transport write.
type Hub struct {
	registry *Registry
	rooms    *Rooms
	store    store.Store
	presence *presence.Manager // optional, nil disables
}

// New creates a hub over the given store. pm may be nil.
func New(st store.Store, pm *presence.Manager) *Hub {
	return &Hub{
		registry: NewRegistry(),
		rooms:    NewRooms(),
		store:    st,
		presence: pm,
	}
}

// Connect registers a new client transport and returns its connection.
func (h *Hub) Connect(t Transport) *Connection {
	conn := h.registry.Register(t)
	log.Printf("[Hub] Connected: user=%s, total=%d", conn.UserID, h.registry.Len())
	return conn
}

// Disconnect deregisters the connection and, if it was attached, removes
// it from its room and notifies the remaining members. Safe to call more
// than once; the cleanup runs exactly once.
func (h *Hub) Disconnect(conn *Connection) {
	board, attached := h.registry.Deregister(conn)
	if !attached {
		return
	}
	h.rooms.Leave(board, conn.UserID)
	h.broadcastToBoard(board, Envelope{Type: TypeUserLeft, UserID: conn.UserID}, nil)
	h.publishPresence(board, conn.UserID, false)
	log.Printf("[Hub] Disconnected: user=%s, board=%s", conn.UserID, board)
}

// Connections returns the number of live connections across all boards.
func (h *Hub) Connections() int {
	return h.registry.Len()
}

// ActiveUsers returns the number of users currently present on a board.
func (h *Hub) ActiveUsers(boardID string) int {
	return h.rooms.Count(boardID)
}

// Dispatch processes one inbound frame from conn. No frame is fatal to
// the connection: malformed input is logged and dropped.
func (h *Hub) Dispatch(ctx context.Context, conn *Connection, frame []byte) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		log.Printf("[Hub] Dropping unparsable frame from %s: %v", conn.UserID, err)
		return
	}

	switch KindOf(env.Type) {
	case KindJoinBoard:
		h.handleJoin(conn, env)
	case KindDrawStroke:
		h.handleDrawStroke(ctx, conn, env)
	case KindLaserPointer:
		h.handleLaserPointer(conn, env)
	case KindNoteUpdate:
		h.handleNoteUpdate(ctx, conn, env)
	case KindLayerUpdate:
		h.handleLayerUpdate(ctx, conn, env)
	case KindUnknown:
		log.Printf("[Hub] Ignoring unknown event type %q from %s", env.Type, conn.UserID)
	}
}

// handleJoin moves the connection onto a board. A join while already
// attached elsewhere is a full leave of the old board followed by a join
// of the new one, so peers on the old board are notified.
func (h *Hub) handleJoin(conn *Connection, env Envelope) {
	if env.BoardID == "" {
		log.Printf("[Hub] join_board without boardId from %s", conn.UserID)
		return
	}

	if prev := conn.Board(); prev != "" {
		h.rooms.Leave(prev, conn.UserID)
		h.broadcastToBoard(prev, Envelope{Type: TypeUserLeft, UserID: conn.UserID}, nil)
		h.publishPresence(prev, conn.UserID, false)
	}

	h.registry.SetBoard(conn, env.BoardID)
	h.rooms.Join(env.BoardID, conn.UserID)

	h.broadcastToBoard(env.BoardID, Envelope{Type: TypeUserJoined, UserID: conn.UserID}, conn)

	users, err := json.Marshal(h.rooms.Members(env.BoardID))
	if err != nil {
		log.Printf("[Hub] Failed to marshal users list: %v", err)
		return
	}
	h.send(conn, Envelope{Type: TypeUsersList, Data: users})
	h.publishPresence(env.BoardID, conn.UserID, true)
}

// handleDrawStroke persists the stroke, then echoes the payload to the
// rest of the board. Broadcast never precedes the durable write: on a
// store failure the event simply does not propagate.
func (h *Hub) handleDrawStroke(ctx context.Context, conn *Connection, env Envelope) {
	board := conn.Board()
	if board == "" {
		log.Printf("[Hub] draw_stroke while unattached from %s", conn.UserID)
		return
	}
	if len(env.Data) == 0 {
		log.Printf("[Hub] draw_stroke without data from %s", conn.UserID)
		return
	}

	var p StrokePayload
	if err := json.Unmarshal(env.Data, &p); err != nil {
		log.Printf("[Hub] Malformed stroke payload from %s: %v", conn.UserID, err)
		return
	}
	if err := p.Validate(); err != nil {
		log.Printf("[Hub] Invalid stroke from %s: %v", conn.UserID, err)
		return
	}

	stroke := model.Stroke{
		LayerID: p.LayerID,
		BoardID: board,
		Tool:    p.Tool,
		Color:   p.Color,
		Width:   p.Width,
		Points:  p.Points,
	}
	if err := h.store.CreateStroke(ctx, &stroke); err != nil {
		log.Printf("[Hub] Failed to persist stroke from %s: %v", conn.UserID, err)
		return
	}

	h.broadcastToBoard(board, Envelope{
		Type:   TypeDrawStroke,
		Data:   env.Data,
		UserID: conn.UserID,
	}, conn)
}

// handleLaserPointer relays a pointer position to the rest of the board.
// The one event kind guaranteed to never touch the store.
func (h *Hub) handleLaserPointer(conn *Connection, env Envelope) {
	board := conn.Board()
	if board == "" {
		log.Printf("[Hub] laser_pointer while unattached from %s", conn.UserID)
		return
	}
	if len(env.Data) == 0 {
		log.Printf("[Hub] laser_pointer without data from %s", conn.UserID)
		return
	}
	var p LaserPayload
	if err := json.Unmarshal(env.Data, &p); err != nil {
		log.Printf("[Hub] Malformed laser payload from %s: %v", conn.UserID, err)
		return
	}

	h.broadcastToBoard(board, Envelope{
		Type:   TypeLaserPointer,
		Data:   env.Data,
		UserID: conn.UserID,
	}, conn)
}

// handleNoteUpdate creates or partially updates a sticky note, then
// echoes the payload. Updating a note that no longer exists is a no-op
// and the broadcast still goes out, mirroring the long-standing
// permissive behavior clients depend on.
func (h *Hub) handleNoteUpdate(ctx context.Context, conn *Connection, env Envelope) {
	board := conn.Board()
	if board == "" {
		log.Printf("[Hub] note_update while unattached from %s", conn.UserID)
		return
	}
	if len(env.Data) == 0 {
		log.Printf("[Hub] note_update without data from %s", conn.UserID)
		return
	}
	var p NotePayload
	if err := json.Unmarshal(env.Data, &p); err != nil {
		log.Printf("[Hub] Malformed note payload from %s: %v", conn.UserID, err)
		return
	}

	if p.ID != "" {
		upd := store.NoteUpdate{
			Content: p.Content,
			Color:   p.Color,
			X:       p.X,
			Y:       p.Y,
			Width:   p.Width,
			Height:  p.Height,
		}
		if _, err := h.store.UpdateNote(ctx, p.ID, upd); err != nil && !errors.Is(err, store.ErrNotFound) {
			log.Printf("[Hub] Failed to update note %s from %s: %v", p.ID, conn.UserID, err)
			return
		}
	} else {
		note := model.StickyNote{BoardID: board}
		if p.Content != nil {
			note.Content = *p.Content
		}
		if p.Color != nil {
			note.Color = *p.Color
		}
		if p.X != nil {
			note.X = *p.X
		}
		if p.Y != nil {
			note.Y = *p.Y
		}
		if p.Width != nil {
			note.Width = *p.Width
		}
		if p.Height != nil {
			note.Height = *p.Height
		}
		if err := h.store.CreateNote(ctx, &note); err != nil {
			log.Printf("[Hub] Failed to create note from %s: %v", conn.UserID, err)
			return
		}
	}

	h.broadcastToBoard(board, Envelope{
		Type:   TypeNoteUpdate,
		Data:   env.Data,
		UserID: conn.UserID,
	}, conn)
}

// handleLayerUpdate partially updates a layer, then echoes the payload.
// A missing layer is a no-op at the store and the broadcast still goes
// out.
func (h *Hub) handleLayerUpdate(ctx context.Context, conn *Connection, env Envelope) {
	board := conn.Board()
	if board == "" {
		log.Printf("[Hub] layer_update while unattached from %s", conn.UserID)
		return
	}
	if len(env.Data) == 0 {
		log.Printf("[Hub] layer_update without data from %s", conn.UserID)
		return
	}
	var p LayerPayload
	if err := json.Unmarshal(env.Data, &p); err != nil {
		log.Printf("[Hub] Malformed layer payload from %s: %v", conn.UserID, err)
		return
	}
	if p.ID == "" {
		log.Printf("[Hub] layer_update without layer id from %s", conn.UserID)
		return
	}

	upd := store.LayerUpdate{
		Name:    p.Name,
		Visible: p.Visible,
		Opacity: p.Opacity,
		Order:   p.Order,
	}
	if _, err := h.store.UpdateLayer(ctx, p.ID, upd); err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Printf("[Hub] Failed to update layer %s from %s: %v", p.ID, conn.UserID, err)
		return
	}

	h.broadcastToBoard(board, Envelope{
		Type:   TypeLayerUpdate,
		Data:   env.Data,
		UserID: conn.UserID,
	}, conn)
}

// broadcastToBoard delivers an envelope to every live connection that is
// both attached to the board and present in the room directory, skipping
// exclude. Delivery is fire-and-forget per recipient: one broken
// transport never blocks the rest or surfaces to the sender. The
// membership and connection snapshots are taken under their locks; the
// writes happen after both are released.
func (h *Hub) broadcastToBoard(boardID string, env Envelope, exclude *Connection) {
	data, err := json.Marshal(env)
	if err != nil {
		log.Printf("[Hub] Failed to marshal broadcast: %v", err)
		return
	}

	members := h.rooms.MemberSet(boardID)
	for _, conn := range h.registry.ConnectionsOn(boardID) {
		if conn == exclude || conn.Closed() || !members[conn.UserID] {
			continue
		}
		if err := conn.write(data); err != nil {
			log.Printf("[Hub] Failed to send to %s: %v", conn.UserID, err)
		}
	}
}

// send delivers an envelope to a single connection.
func (h *Hub) send(conn *Connection, env Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		log.Printf("[Hub] Failed to marshal message: %v", err)
		return
	}
	if conn.Closed() {
		return
	}
	if err := conn.write(data); err != nil {
		log.Printf("[Hub] Failed to send to %s: %v", conn.UserID, err)
	}
}

// publishPresence mirrors a join or leave into Redis off the dispatch
// path. Presence fan-out is best effort and never blocks event handling.
func (h *Hub) publishPresence(boardID, userID string, joined bool) {
	if h.presence == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		var err error
		if joined {
			err = h.presence.AddUser(ctx, boardID, userID)
		} else {
			err = h.presence.RemoveUser(ctx, boardID, userID)
		}
		if err != nil {
			log.Printf("[Hub] Presence update failed for board %s: %v", boardID, err)
		}
	}()
}
