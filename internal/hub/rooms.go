package hub

import "sync"

// Rooms is the directory of board occupancy: for each board id, the user
// ids with a live attached connection, in arrival order. It is the sole
// owner of membership state and holds only identifiers, never
// connections.
type Rooms struct {
	mu      sync.RWMutex
	members map[string][]string
}

// NewRooms creates an empty directory.
func NewRooms() *Rooms {
	return &Rooms{members: make(map[string][]string)}
}

// Join adds userID to the board's member set. Idempotent: joining twice
// keeps the original arrival position.
func (r *Rooms) Join(boardID, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range r.members[boardID] {
		if id == userID {
			return
		}
	}
	r.members[boardID] = append(r.members[boardID], userID)
}

// Leave removes userID from the board's member set. Leaving a board the
// user never joined is a no-op. Empty entries are pruned so a
// long-running process does not accumulate dead boards.
func (r *Rooms) Leave(boardID, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := r.members[boardID]
	for i, id := range ids {
		if id == userID {
			r.members[boardID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(r.members[boardID]) == 0 {
		delete(r.members, boardID)
	}
}

// Members returns the board's user ids in arrival order. The result is a
// copy and safe to hold after the call.
func (r *Rooms) Members(boardID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.members[boardID]
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

// MemberSet returns the board's membership as a lookup set.
func (r *Rooms) MemberSet(boardID string) map[string]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := make(map[string]bool, len(r.members[boardID]))
	for _, id := range r.members[boardID] {
		set[id] = true
	}
	return set
}

// Count returns the number of users present on a board.
func (r *Rooms) Count(boardID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members[boardID])
}
