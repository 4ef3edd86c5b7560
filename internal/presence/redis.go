package presence

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Event is published on every join and leave so other processes (a
// lobby service, a future second hub instance) can observe occupancy.
type Event struct {
	BoardID  string `json:"boardId"`
	UserID   string `json:"userId"`
	Joined   bool   `json:"joined"`
	ServerID string `json:"serverId"`
}

const (
	channel = "board_presence"
	keyTTL  = 5 * time.Minute
)

// Manager mirrors board occupancy into Redis: one set per board, plus a
// pub/sub stream of join/leave events. The in-process room directory
// stays authoritative for broadcast; this is observational state only.
type Manager struct {
	client   *redis.Client
	serverID string
}

// NewManager connects to Redis and verifies the connection.
func NewManager(addr, password string, db int, serverID string) (*Manager, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	log.Printf("[Presence] Connected to Redis at %s", addr)
	return &Manager{client: client, serverID: serverID}, nil
}

func (m *Manager) boardKey(boardID string) string {
	return "presence:board:" + boardID
}

// AddUser records a user on a board and publishes the join.
func (m *Manager) AddUser(ctx context.Context, boardID, userID string) error {
	key := m.boardKey(boardID)
	if err := m.client.SAdd(ctx, key, userID).Err(); err != nil {
		return err
	}
	// TTL refresh on every write: a crashed process leaves no permanent
	// ghosts behind.
	if err := m.client.Expire(ctx, key, keyTTL).Err(); err != nil {
		return err
	}
	return m.publish(ctx, Event{BoardID: boardID, UserID: userID, Joined: true, ServerID: m.serverID})
}

// RemoveUser removes a user from a board and publishes the leave.
func (m *Manager) RemoveUser(ctx context.Context, boardID, userID string) error {
	if err := m.client.SRem(ctx, m.boardKey(boardID), userID).Err(); err != nil {
		return err
	}
	return m.publish(ctx, Event{BoardID: boardID, UserID: userID, Joined: false, ServerID: m.serverID})
}

// Users returns the user ids recorded on a board.
func (m *Manager) Users(ctx context.Context, boardID string) ([]string, error) {
	return m.client.SMembers(ctx, m.boardKey(boardID)).Result()
}

// Count returns the recorded occupancy of a board.
func (m *Manager) Count(ctx context.Context, boardID string) (int64, error) {
	return m.client.SCard(ctx, m.boardKey(boardID)).Result()
}

func (m *Manager) publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return m.client.Publish(ctx, channel, data).Err()
}

// Ping verifies the Redis connection is still alive.
func (m *Manager) Ping(ctx context.Context) error {
	return m.client.Ping(ctx).Err()
}

// Subscribe returns a subscription to the presence event stream.
func (m *Manager) Subscribe(ctx context.Context) *redis.PubSub {
	return m.client.Subscribe(ctx, channel)
}

// Close releases the Redis connection.
func (m *Manager) Close() error {
	return m.client.Close()
}
