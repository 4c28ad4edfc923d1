package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/SundayYogurt/rote_service/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RoteRepository interface {
	WithTx(tx *gorm.DB) RoteRepository
	// Transaction runs fn in one database transaction; fn gets the tx handle to bind
	// the other repositories to.
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error

	Create(ctx context.Context, rote *domain.Rote) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Rote, error)
	Save(ctx context.Context, rote *domain.Rote) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type roteRepository struct {
	db *gorm.DB
}

func NewRoteRepository(db *gorm.DB) RoteRepository {
	return &roteRepository{db: db}
}

func (r *roteRepository) WithTx(tx *gorm.DB) RoteRepository {
	return &roteRepository{db: tx}
}

func (r *roteRepository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func (r *roteRepository) Create(ctx context.Context, rote *domain.Rote) error {
	if rote == nil {
		return errors.New("nil rote")
	}
	if rote.ID == uuid.Nil {
		rote.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Omit("Attachments", "Reactions").Create(rote).Error; err != nil {
		return fmt.Errorf("create rote: %w", err)
	}
	return nil
}

func (r *roteRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Rote, error) {
	rote := &domain.Rote{}
	if err := r.db.WithContext(ctx).First(rote, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("find rote: %w", err)
	}
	return rote, nil
}

func (r *roteRepository) Save(ctx context.Context, rote *domain.Rote) error {
	if rote == nil {
		return errors.New("nil rote")
	}
	if err := r.db.WithContext(ctx).Omit("Attachments", "Reactions").Save(rote).Error; err != nil {
		return fmt.Errorf("save rote: %w", err)
	}
	return nil
}

// Delete removes the rote row, unbinding its attachments and dropping its reactions.
func (r *roteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Model(&domain.Attachment{}).Where("rote_id = ?", id).Update("rote_id", nil).Error; err != nil {
		return fmt.Errorf("unbind rote attachments: %w", err)
	}
	if err := db.Where("rote_id = ?", id).Delete(&domain.Reaction{}).Error; err != nil {
		return fmt.Errorf("delete rote reactions: %w", err)
	}
	res := db.Delete(&domain.Rote{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete rote: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete rote: %w", gorm.ErrRecordNotFound)
	}
	return nil
}
