package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SundayYogurt/rote_service/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DispatchCursorRepository interface {
	// Load returns the zero position when the cursor has never been saved.
	Load(ctx context.Context, name string) (Position, error)
	Save(ctx context.Context, name string, last Position) error
}

type dispatchCursorRepository struct {
	db *gorm.DB
}

func NewDispatchCursorRepository(db *gorm.DB) DispatchCursorRepository {
	return &dispatchCursorRepository{db: db}
}

func (r *dispatchCursorRepository) Load(ctx context.Context, name string) (Position, error) {
	var cur domain.ChangeDispatchCursor
	err := r.db.WithContext(ctx).First(&cur, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Position{}, nil
	}
	if err != nil {
		return Position{}, fmt.Errorf("load dispatch cursor: %w", err)
	}
	return Position{CreatedAt: cur.LastCreatedAt.UTC(), ID: cur.LastID}, nil
}

func (r *dispatchCursorRepository) Save(ctx context.Context, name string, last Position) error {
	cur := domain.ChangeDispatchCursor{
		Name:          name,
		LastCreatedAt: last.CreatedAt.UTC(),
		LastID:        last.ID,
		UpdatedAt:     time.Now().UTC(),
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_created_at", "last_id", "updated_at"}),
	}).Create(&cur).Error
	if err != nil {
		return fmt.Errorf("save dispatch cursor: %w", err)
	}
	return nil
}
