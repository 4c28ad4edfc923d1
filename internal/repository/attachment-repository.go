package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/SundayYogurt/rote_service/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AttachmentRepository interface {
	WithTx(tx *gorm.DB) AttachmentRepository

	Create(ctx context.Context, att *domain.Attachment) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Attachment, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Attachment, error)
	ListByRote(ctx context.Context, roteID uuid.UUID) ([]domain.Attachment, error)

	// Bind attaches ids to roteID in the given order, numbering from startIndex.
	Bind(ctx context.Context, roteID uuid.UUID, ids []uuid.UUID, startIndex int) error
	Unbind(ctx context.Context, id uuid.UUID) error
	SetOrder(ctx context.Context, roteID uuid.UUID, ids []uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type attachmentRepository struct {
	db *gorm.DB
}

func NewAttachmentRepository(db *gorm.DB) AttachmentRepository {
	return &attachmentRepository{db: db}
}

func (r *attachmentRepository) WithTx(tx *gorm.DB) AttachmentRepository {
	return &attachmentRepository{db: tx}
}

func (r *attachmentRepository) Create(ctx context.Context, att *domain.Attachment) error {
	if att == nil {
		return errors.New("nil attachment")
	}
	if att.ID == uuid.Nil {
		att.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(att).Error; err != nil {
		return fmt.Errorf("create attachment: %w", err)
	}
	return nil
}

func (r *attachmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Attachment, error) {
	att := &domain.Attachment{}
	if err := r.db.WithContext(ctx).First(att, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("find attachment: %w", err)
	}
	return att, nil
}

func (r *attachmentRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Attachment, error) {
	out := []domain.Attachment{}
	if len(ids) == 0 {
		return out, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("find attachments: %w", err)
	}
	return out, nil
}

func (r *attachmentRepository) ListByRote(ctx context.Context, roteID uuid.UUID) ([]domain.Attachment, error) {
	out := []domain.Attachment{}
	err := r.db.WithContext(ctx).
		Where("rote_id = ?", roteID).
		Order("sort_index ASC, created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list rote attachments: %w", err)
	}
	return out, nil
}

func (r *attachmentRepository) Bind(ctx context.Context, roteID uuid.UUID, ids []uuid.UUID, startIndex int) error {
	db := r.db.WithContext(ctx)
	for i, id := range ids {
		err := db.Model(&domain.Attachment{}).
			Where("id = ?", id).
			Updates(map[string]any{
				"rote_id":    roteID,
				"sort_index": startIndex + i,
			}).Error
		if err != nil {
			return fmt.Errorf("bind attachment %s: %w", id, err)
		}
	}
	return nil
}

func (r *attachmentRepository) Unbind(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).
		Model(&domain.Attachment{}).
		Where("id = ?", id).
		Updates(map[string]any{"rote_id": nil, "sort_index": 0}).Error
	if err != nil {
		return fmt.Errorf("unbind attachment: %w", err)
	}
	return nil
}

func (r *attachmentRepository) SetOrder(ctx context.Context, roteID uuid.UUID, ids []uuid.UUID) error {
	db := r.db.WithContext(ctx)
	for i, id := range ids {
		err := db.Model(&domain.Attachment{}).
			Where("id = ? AND rote_id = ?", id, roteID).
			Update("sort_index", i).Error
		if err != nil {
			return fmt.Errorf("reorder attachment %s: %w", id, err)
		}
	}
	return nil
}

func (r *attachmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&domain.Attachment{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete attachment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete attachment: %w", gorm.ErrRecordNotFound)
	}
	return nil
}
