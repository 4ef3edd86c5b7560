package hub

import (
	"encoding/json"
	"fmt"

	"collab-board-backend/internal/model"
)

// Envelope is the frame exchanged over the collaboration socket, in both
// directions.
type Envelope struct {
	Type    string          `json:"type"`
	BoardID string          `json:"boardId,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	UserID  string          `json:"userId,omitempty"`
}

// Wire message types.
const (
	TypeJoinBoard    = "join_board"
	TypeDrawStroke   = "draw_stroke"
	TypeLaserPointer = "laser_pointer"
	TypeNoteUpdate   = "note_update"
	TypeLayerUpdate  = "layer_update"
	TypeUsersList    = "users_list"
	TypeUserJoined   = "user_joined"
	TypeUserLeft     = "user_left"
)

// EventKind is the tagged set of inbound event kinds. Anything not
// recognized maps to KindUnknown rather than falling through untyped.
type EventKind int

const (
	KindUnknown EventKind = iota
	KindJoinBoard
	KindDrawStroke
	KindLaserPointer
	KindNoteUpdate
	KindLayerUpdate
)

// KindOf classifies an inbound envelope type.
func KindOf(t string) EventKind {
	switch t {
	case TypeJoinBoard:
		return KindJoinBoard
	case TypeDrawStroke:
		return KindDrawStroke
	case TypeLaserPointer:
		return KindLaserPointer
	case TypeNoteUpdate:
		return KindNoteUpdate
	case TypeLayerUpdate:
		return KindLayerUpdate
	default:
		return KindUnknown
	}
}

// StrokePayload is the data of a draw_stroke event.
type StrokePayload struct {
	LayerID string          `json:"layerId"`
	Tool    model.ToolKind  `json:"tool"`
	Color   string          `json:"color"`
	Width   float64         `json:"width"`
	Points  model.PointList `json:"points"`
}

// Validate checks the payload is a complete, well-formed stroke.
func (p *StrokePayload) Validate() error {
	if p.LayerID == "" {
		return fmt.Errorf("stroke missing layer reference")
	}
	if !p.Tool.Valid() {
		return fmt.Errorf("unknown tool %q", p.Tool)
	}
	if p.Color == "" {
		return fmt.Errorf("stroke missing color")
	}
	if p.Width <= 0 {
		return fmt.Errorf("stroke width must be positive")
	}
	if len(p.Points) == 0 {
		return fmt.Errorf("stroke has no points")
	}
	for i, pt := range p.Points {
		if pt.X < 0 || pt.X > 1 || pt.Y < 0 || pt.Y > 1 {
			return fmt.Errorf("point %d out of normalized range", i)
		}
	}
	return nil
}

// LaserPayload is the data of a laser_pointer event. Ephemeral: never
// persisted.
type LaserPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NotePayload is the data of a note_update event. An empty ID means
// create; otherwise the non-nil fields are merged into the existing note.
type NotePayload struct {
	ID      string           `json:"id,omitempty"`
	Content *string          `json:"content,omitempty"`
	Color   *model.NoteColor `json:"color,omitempty"`
	X       *int             `json:"x,omitempty"`
	Y       *int             `json:"y,omitempty"`
	Width   *int             `json:"width,omitempty"`
	Height  *int             `json:"height,omitempty"`
}

// LayerPayload is the data of a layer_update event. ID is required; the
// non-nil fields are merged.
type LayerPayload struct {
	ID      string  `json:"id"`
	Name    *string `json:"name,omitempty"`
	Visible *bool   `json:"visible,omitempty"`
	Opacity *int    `json:"opacity,omitempty"`
	Order   *int    `json:"order,omitempty"`
}
