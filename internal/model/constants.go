package model

// ToolKind identifies the drawing tool a stroke was made with.
type ToolKind string

const (
	ToolPen    ToolKind = "pen"
	ToolEraser ToolKind = "eraser"
)

func (t ToolKind) String() string {
	return string(t)
}

// Valid reports whether the tool is one of the recognized kinds.
func (t ToolKind) Valid() bool {
	switch t {
	case ToolPen, ToolEraser:
		return true
	}
	return false
}

// NoteColor is the sticky note palette.
type NoteColor string

const (
	NoteYellow NoteColor = "yellow"
	NotePink   NoteColor = "pink"
	NoteBlue   NoteColor = "blue"
	NoteGreen  NoteColor = "green"
)

func (c NoteColor) String() string {
	return string(c)
}

// Valid reports whether the color is part of the note palette.
func (c NoteColor) Valid() bool {
	switch c {
	case NoteYellow, NotePink, NoteBlue, NoteGreen:
		return true
	}
	return false
}

// Defaults applied at creation time.
const (
	DefaultBoardWidth  = 1920
	DefaultBoardHeight = 1080
	DefaultNoteSize    = 192
	DefaultLayerName   = "Layer 1"
	DefaultOpacity     = 100
)
