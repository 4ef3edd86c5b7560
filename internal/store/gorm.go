package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"collab-board-backend/internal/model"
)

// Gorm is the Postgres-backed Store.
type Gorm struct {
	db *gorm.DB
}

// NewGorm wraps an open GORM handle.
func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// Boards

func (g *Gorm) ListBoards(ctx context.Context) ([]model.Board, error) {
	var boards []model.Board
	if err := g.db.WithContext(ctx).Order("updated_at DESC").Find(&boards).Error; err != nil {
		return nil, err
	}
	return boards, nil
}

func (g *Gorm) GetBoard(ctx context.Context, id string) (*model.Board, error) {
	var board model.Board
	if err := g.db.WithContext(ctx).First(&board, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &board, nil
}

func (g *Gorm) CreateBoard(ctx context.Context, board *model.Board) error {
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

	// Board and its default layer commit together: no reader ever sees a
	// board with zero layers.
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(board).Error; err != nil {
			return err
		}
		layer := model.Layer{
			ID:      uuid.NewString(),
			BoardID: board.ID,
			Name:    model.DefaultLayerName,
			Visible: true,
			Opacity: model.DefaultOpacity,
			Order:   0,
		}
		return tx.Create(&layer).Error
	})
}

func (g *Gorm) UpdateBoard(ctx context.Context, id string, upd BoardUpdate) (*model.Board, error) {
	updates := map[string]interface{}{}
	if upd.Name != nil {
		if *upd.Name == "" {
			return nil, fmt.Errorf("%w: board name is required", ErrInvalid)
		}
		updates["name"] = *upd.Name
	}
	if upd.Thumbnail != nil {
		updates["thumbnail"] = *upd.Thumbnail
	}
	if upd.Width != nil {
		updates["width"] = *upd.Width
	}
	if upd.Height != nil {
		updates["height"] = *upd.Height
	}

	var board model.Board
	if err := g.db.WithContext(ctx).First(&board, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	if len(updates) > 0 {
		if err := g.db.WithContext(ctx).Model(&board).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return &board, nil
}

func (g *Gorm) DeleteBoard(ctx context.Context, id string) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&model.Board{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.Delete(&model.Stroke{}, "board_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&model.Layer{}, "board_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&model.StickyNote{}, "board_id = ?", id).Error
	})
}

// Layers

func (g *Gorm) ListLayersByBoard(ctx context.Context, boardID string) ([]model.Layer, error) {
	var layers []model.Layer
	if err := g.db.WithContext(ctx).
		Where("board_id = ?", boardID).
		Order("z_order ASC").
		Find(&layers).Error; err != nil {
		return nil, err
	}
	return layers, nil
}

func (g *Gorm) GetLayer(ctx context.Context, id string) (*model.Layer, error) {
	var layer model.Layer
	if err := g.db.WithContext(ctx).First(&layer, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &layer, nil
}

func (g *Gorm) CreateLayer(ctx context.Context, layer *model.Layer) error {
	if layer.Name == "" {
		return fmt.Errorf("%w: layer name is required", ErrInvalid)
	}
	if layer.Opacity < 0 || layer.Opacity > 100 {
		return fmt.Errorf("%w: opacity out of range", ErrInvalid)
	}
	var count int64
	if err := g.db.WithContext(ctx).Model(&model.Board{}).
		Where("id = ?", layer.BoardID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	layer.ID = uuid.NewString()
	return g.db.WithContext(ctx).Create(layer).Error
}

func (g *Gorm) UpdateLayer(ctx context.Context, id string, upd LayerUpdate) (*model.Layer, error) {
	if upd.Opacity != nil && (*upd.Opacity < 0 || *upd.Opacity > 100) {
		return nil, fmt.Errorf("%w: opacity out of range", ErrInvalid)
	}
	updates := map[string]interface{}{}
	if upd.Name != nil {
		updates["name"] = *upd.Name
	}
	if upd.Visible != nil {
		updates["visible"] = *upd.Visible
	}
	if upd.Opacity != nil {
		updates["opacity"] = *upd.Opacity
	}
	if upd.Order != nil {
		updates["z_order"] = *upd.Order
	}

	var layer model.Layer
	if err := g.db.WithContext(ctx).First(&layer, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	if len(updates) > 0 {
		if err := g.db.WithContext(ctx).Model(&layer).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return &layer, nil
}

func (g *Gorm) DeleteLayer(ctx context.Context, id string) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&model.Layer{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Delete(&model.Stroke{}, "layer_id = ?", id).Error
	})
}

// Strokes

func (g *Gorm) ListStrokesByBoard(ctx context.Context, boardID string) ([]model.Stroke, error) {
	var strokes []model.Stroke
	if err := g.db.WithContext(ctx).
		Where("board_id = ?", boardID).
		Order("created_at ASC, id ASC").
		Find(&strokes).Error; err != nil {
		return nil, err
	}
	return strokes, nil
}

func (g *Gorm) ListStrokesByLayer(ctx context.Context, layerID string) ([]model.Stroke, error) {
	var strokes []model.Stroke
	if err := g.db.WithContext(ctx).
		Where("layer_id = ?", layerID).
		Order("created_at ASC, id ASC").
		Find(&strokes).Error; err != nil {
		return nil, err
	}
	return strokes, nil
}

func (g *Gorm) CreateStroke(ctx context.Context, stroke *model.Stroke) error {
	if !stroke.Tool.Valid() {
		return fmt.Errorf("%w: unknown tool %q", ErrInvalid, stroke.Tool)
	}
	if stroke.Color == "" || stroke.Width <= 0 || len(stroke.Points) == 0 {
		return fmt.Errorf("%w: malformed stroke", ErrInvalid)
	}

	var layer model.Layer
	if err := g.db.WithContext(ctx).First(&layer, "id = ?", stroke.LayerID).Error; err != nil {
		return translate(err)
	}
	if layer.BoardID != stroke.BoardID {
		return fmt.Errorf("%w: layer belongs to a different board", ErrInvalid)
	}
	stroke.ID = uuid.NewString()
	return g.db.WithContext(ctx).Create(stroke).Error
}

func (g *Gorm) DeleteStroke(ctx context.Context, id string) error {
	res := g.db.WithContext(ctx).Delete(&model.Stroke{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Sticky notes

func (g *Gorm) ListNotesByBoard(ctx context.Context, boardID string) ([]model.StickyNote, error) {
	var notes []model.StickyNote
	if err := g.db.WithContext(ctx).
		Where("board_id = ?", boardID).
		Order("id ASC").
		Find(&notes).Error; err != nil {
		return nil, err
	}
	return notes, nil
}

func (g *Gorm) GetNote(ctx context.Context, id string) (*model.StickyNote, error) {
	var note model.StickyNote
	if err := g.db.WithContext(ctx).First(&note, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &note, nil
}

func (g *Gorm) CreateNote(ctx context.Context, note *model.StickyNote) error {
	if !note.Color.Valid() {
		return fmt.Errorf("%w: unknown note color %q", ErrInvalid, note.Color)
	}
	if note.Width == 0 {
		note.Width = model.DefaultNoteSize
	}
	if note.Height == 0 {
		note.Height = model.DefaultNoteSize
	}
	var count int64
	if err := g.db.WithContext(ctx).Model(&model.Board{}).
		Where("id = ?", note.BoardID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	note.ID = uuid.NewString()
	return g.db.WithContext(ctx).Create(note).Error
}

func (g *Gorm) UpdateNote(ctx context.Context, id string, upd NoteUpdate) (*model.StickyNote, error) {
	if upd.Color != nil && !upd.Color.Valid() {
		return nil, fmt.Errorf("%w: unknown note color %q", ErrInvalid, *upd.Color)
	}
	updates := map[string]interface{}{}
	if upd.Content != nil {
		updates["content"] = *upd.Content
	}
	if upd.Color != nil {
		updates["color"] = upd.Color.String()
	}
	if upd.X != nil {
		updates["x"] = *upd.X
	}
	if upd.Y != nil {
		updates["y"] = *upd.Y
	}
	if upd.Width != nil {
		updates["width"] = *upd.Width
	}
	if upd.Height != nil {
		updates["height"] = *upd.Height
	}

	var note model.StickyNote
	if err := g.db.WithContext(ctx).First(&note, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	if len(updates) > 0 {
		if err := g.db.WithContext(ctx).Model(&note).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return &note, nil
}

func (g *Gorm) DeleteNote(ctx context.Context, id string) error {
	res := g.db.WithContext(ctx).Delete(&model.StickyNote{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
