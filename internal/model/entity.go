package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Board is a shared drawing canvas. Every board owns at least one layer
// from the moment it is created.
type Board struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Thumbnail *string   `gorm:"type:text" json:"thumbnail,omitempty"`
	Width     int       `gorm:"not null;default:1920" json:"width"`
	Height    int       `gorm:"not null;default:1080" json:"height"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`

	// Relations
	Layers []Layer      `gorm:"foreignKey:BoardID" json:"layers,omitempty"`
	Notes  []StickyNote `gorm:"foreignKey:BoardID" json:"notes,omitempty"`
}

func (Board) TableName() string {
	return "boards"
}

// Layer is an independently toggleable drawing surface within a board.
// Order is a z-index, unique within a board but not required contiguous.
type Layer struct {
	ID      string `gorm:"type:varchar(36);primaryKey" json:"id"`
	BoardID string `gorm:"type:varchar(36);not null;index" json:"boardId"`
	Name    string `gorm:"type:varchar(255);not null" json:"name"`
	Visible bool   `gorm:"not null;default:true" json:"visible"`
	Opacity int    `gorm:"not null;default:100" json:"opacity"`
	Order   int    `gorm:"column:z_order;not null;default:0" json:"order"`

	// Relations
	Strokes []Stroke `gorm:"foreignKey:LayerID" json:"strokes,omitempty"`
}

func (Layer) TableName() string {
	return "layers"
}

// Stroke is one immutable freehand drawing action. BoardID is
// denormalized so board-wide replay does not need a join.
type Stroke struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	LayerID   string    `gorm:"type:varchar(36);not null;index" json:"layerId"`
	BoardID   string    `gorm:"type:varchar(36);not null;index:idx_board_created" json:"boardId"`
	Tool      ToolKind  `gorm:"type:varchar(20);not null" json:"tool"`
	Color     string    `gorm:"type:varchar(50);not null" json:"color"`
	Width     float64   `gorm:"not null" json:"width"`
	Points    PointList `gorm:"type:jsonb;not null" json:"points"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_board_created" json:"createdAt"`
}

func (Stroke) TableName() string {
	return "strokes"
}

// StickyNote is a mutable note pinned to a board in pixel space.
type StickyNote struct {
	ID      string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	BoardID string    `gorm:"type:varchar(36);not null;index" json:"boardId"`
	Content string    `gorm:"type:text;not null;default:''" json:"content"`
	Color   NoteColor `gorm:"type:varchar(20);not null" json:"color"`
	X       int       `gorm:"not null" json:"x"`
	Y       int       `gorm:"not null" json:"y"`
	Width   int       `gorm:"not null;default:192" json:"width"`
	Height  int       `gorm:"not null;default:192" json:"height"`
}

func (StickyNote) TableName() string {
	return "sticky_notes"
}

// Point is a board-relative position. Both coordinates are normalized to
// [0,1] so strokes are resolution independent.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PointList stores the ordered path of a stroke as a jsonb column.
type PointList []Point

// Value implements driver.Valuer.
func (p PointList) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements sql.Scanner.
func (p *PointList) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	default:
		return fmt.Errorf("unsupported type %T for PointList", value)
	}
}
