package hub

import (
	"sync"
	"sync/atomic"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

// Transport is the write side of a client connection. *websocket.Conn
// satisfies it; tests substitute fakes.
type Transport interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Connection is one live client session. The user id is minted at
// register time and never changes; the board attachment changes only
// through explicit joins and is cleared on deregistration.
type Connection struct {
	UserID string

	transport Transport
	closed    atomic.Bool

	mu      sync.Mutex // guards boardID
	boardID string

	writeMu sync.Mutex // serializes transport writes
}

// Board returns the current board attachment, or "" while unattached.
func (c *Connection) Board() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.boardID
}

func (c *Connection) setBoard(boardID string) {
	c.mu.Lock()
	c.boardID = boardID
	c.mu.Unlock()
}

// Closed reports whether the connection has been deregistered. Broadcast
// re-checks this at delivery time: a transport can close between the
// registry snapshot and the write.
func (c *Connection) Closed() bool {
	return c.closed.Load()
}

// write sends one text frame, serialized against concurrent broadcasts to
// the same connection.
func (c *Connection) write(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.transport.WriteMessage(websocket.TextMessage, data)
}

// Registry tracks every live connection and its board attachment. It is
// the sole owner of connection lifecycle state.
type Registry struct {
	mu    sync.RWMutex
	conns map[*Connection]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[*Connection]struct{})}
}

// Register mints a connection with a fresh opaque user id and no board
// attachment, and adds it to the live set.
func (r *Registry) Register(t Transport) *Connection {
	conn := &Connection{
		UserID:    uuid.NewString(),
		transport: t,
	}
	r.mu.Lock()
	r.conns[conn] = struct{}{}
	r.mu.Unlock()
	return conn
}

// Deregister removes the connection from the live set and returns the
// board it was attached to, if any. Exactly one caller wins under
// concurrent close and error signals; later calls report false.
func (r *Registry) Deregister(conn *Connection) (string, bool) {
	if !conn.closed.CompareAndSwap(false, true) {
		return "", false
	}
	r.mu.Lock()
	delete(r.conns, conn)
	r.mu.Unlock()

	board := conn.Board()
	conn.setBoard("")
	if board == "" {
		return "", false
	}
	return board, true
}

// SetBoard updates the connection's board attachment.
func (r *Registry) SetBoard(conn *Connection, boardID string) {
	conn.setBoard(boardID)
}

// ConnectionsOn snapshots the live connections currently attached to a
// board. Closed connections are excluded here and re-checked again at
// write time by the caller.
func (r *Registry) ConnectionsOn(boardID string) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]*Connection, 0, len(r.conns))
	for conn := range r.conns {
		if conn.Closed() {
			continue
		}
		if conn.Board() == boardID {
			conns = append(conns, conn)
		}
	}
	return conns
}

// Len returns the number of live connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
