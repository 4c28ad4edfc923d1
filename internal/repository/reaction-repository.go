package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/SundayYogurt/rote_service/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReactionRepository interface {
	WithTx(tx *gorm.DB) ReactionRepository

	Create(ctx context.Context, reaction *domain.Reaction) error
	Find(ctx context.Context, roteID, userID uuid.UUID, reactionType string) (*domain.Reaction, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type reactionRepository struct {
	db *gorm.DB
}

func NewReactionRepository(db *gorm.DB) ReactionRepository {
	return &reactionRepository{db: db}
}

func (r *reactionRepository) WithTx(tx *gorm.DB) ReactionRepository {
	return &reactionRepository{db: tx}
}

func (r *reactionRepository) Create(ctx context.Context, reaction *domain.Reaction) error {
	if reaction == nil {
		return errors.New("nil reaction")
	}
	if reaction.ID == uuid.Nil {
		reaction.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(reaction).Error; err != nil {
		return fmt.Errorf("create reaction: %w", err)
	}
	return nil
}

func (r *reactionRepository) Find(ctx context.Context, roteID, userID uuid.UUID, reactionType string) (*domain.Reaction, error) {
	reaction := &domain.Reaction{}
	err := r.db.WithContext(ctx).
		Where("rote_id = ? AND user_id = ? AND type = ?", roteID, userID, reactionType).
		First(reaction).Error
	if err != nil {
		return nil, fmt.Errorf("find reaction: %w", err)
	}
	return reaction, nil
}

func (r *reactionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&domain.Reaction{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete reaction: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete reaction: %w", gorm.ErrRecordNotFound)
	}
	return nil
}
