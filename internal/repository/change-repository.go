package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SundayYogurt/rote_service/internal/domain"
	"github.com/SundayYogurt/rote_service/internal/helper"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Page is skip/limit pagination as sent by clients.
type Page struct {
	Skip  int
	Limit int
}

// Position is a point in the total (created_at, id) order of the change log.
type Position struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// PositionOf returns the position of rec.
func PositionOf(rec domain.ChangeRecord) Position {
	return Position{CreatedAt: rec.CreatedAt, ID: rec.ID}
}

// ChangeLogRepository is the append-only change store. Mutation paths get it injected
// and bind it to their transaction with WithTx.
type ChangeLogRepository interface {
	WithTx(tx *gorm.DB) ChangeLogRepository

	// Append assigns ID and CreatedAt and inserts the record inside a savepoint,
	// so a failed insert never poisons the surrounding transaction.
	Append(ctx context.Context, rec *domain.ChangeRecord) error
	// DetachNote clears note_id on every record of a note that is about to be deleted.
	DetachNote(ctx context.Context, noteID uuid.UUID) error

	ListByOrigin(ctx context.Context, userID, originID uuid.UUID, page Page) ([]domain.ChangeRecord, error)
	ListByNote(ctx context.Context, userID, noteID uuid.UUID, page Page) ([]domain.ChangeRecord, error)
	ListByUser(ctx context.Context, userID uuid.UUID, action *domain.ChangeAction, page Page) ([]domain.ChangeRecord, error)
	ListAfter(ctx context.Context, userID uuid.UUID, after time.Time, action *domain.ChangeAction, page Page) ([]domain.ChangeRecord, error)

	// ListAfterAll is the unscoped read used by the outbox dispatcher: records strictly
	// after the position, oldest first. A non-zero until leaves out records created later.
	ListAfterAll(ctx context.Context, after Position, until time.Time, limit int) ([]domain.ChangeRecord, error)
}

type changeLogRepository struct {
	db    *gorm.DB
	clock Clock
}

func NewChangeLogRepository(db *gorm.DB, clock Clock) ChangeLogRepository {
	if clock == nil {
		clock = NewMonotonicClock()
	}
	return &changeLogRepository{db: db, clock: clock}
}

func (r *changeLogRepository) WithTx(tx *gorm.DB) ChangeLogRepository {
	return &changeLogRepository{db: tx, clock: r.clock}
}

func (r *changeLogRepository) Append(ctx context.Context, rec *domain.ChangeRecord) error {
	if rec == nil {
		return errors.New("nil change record")
	}
	if !rec.Action.Valid() {
		return fmt.Errorf("append change: invalid action %q", rec.Action)
	}
	if rec.OriginID == uuid.Nil || rec.UserID == uuid.Nil {
		return errors.New("append change: origin id and user id are required")
	}

	rec.ID = uuid.New()
	rec.CreatedAt = r.clock.Now()

	err := r.insert(ctx, rec)
	if err != nil && rec.NoteID != nil && helper.IsForeignKeyViolation(err) {
		// note row vanished between the mutation and the insert; keep the event, drop the reference
		rec.NoteID = nil
		err = r.insert(ctx, rec)
	}
	if err != nil {
		return fmt.Errorf("append change: %w", err)
	}
	return nil
}

func (r *changeLogRepository) insert(ctx context.Context, rec *domain.ChangeRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Omit("Rote").Create(rec).Error
	})
}

func (r *changeLogRepository) DetachNote(ctx context.Context, noteID uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Model(&domain.ChangeRecord{}).
			Where("note_id = ?", noteID).
			Update("note_id", nil).Error
	})
	if err != nil {
		return fmt.Errorf("detach note changes: %w", err)
	}
	return nil
}

func (r *changeLogRepository) ListByOrigin(ctx context.Context, userID, originID uuid.UUID, page Page) ([]domain.ChangeRecord, error) {
	q := r.scoped(ctx, userID).Where("origin_id = ?", originID)
	return r.find(q.Order("created_at DESC, id DESC"), page, "list changes by origin")
}

func (r *changeLogRepository) ListByNote(ctx context.Context, userID, noteID uuid.UUID, page Page) ([]domain.ChangeRecord, error) {
	q := r.scoped(ctx, userID).Where("note_id = ?", noteID)
	return r.find(q.Order("created_at DESC, id DESC"), page, "list changes by note")
}

func (r *changeLogRepository) ListByUser(ctx context.Context, userID uuid.UUID, action *domain.ChangeAction, page Page) ([]domain.ChangeRecord, error) {
	q := withAction(r.scoped(ctx, userID), action)
	return r.find(q.Order("created_at DESC, id DESC"), page, "list changes by user")
}

func (r *changeLogRepository) ListAfter(ctx context.Context, userID uuid.UUID, after time.Time, action *domain.ChangeAction, page Page) ([]domain.ChangeRecord, error) {
	q := withAction(r.scoped(ctx, userID), action).Where("created_at > ?", after.UTC())
	return r.find(q.Order("created_at ASC, id ASC"), page, "list changes after cursor")
}

func (r *changeLogRepository) ListAfterAll(ctx context.Context, after Position, until time.Time, limit int) ([]domain.ChangeRecord, error) {
	at := after.CreatedAt.UTC()
	q := r.db.WithContext(ctx).
		Where("(created_at > ? OR (created_at = ? AND id > ?))", at, at, after.ID)
	if !until.IsZero() {
		q = q.Where("created_at <= ?", until.UTC())
	}

	var out []domain.ChangeRecord
	err := q.
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list all changes after cursor: %w", err)
	}
	return out, nil
}

func (r *changeLogRepository) scoped(ctx context.Context, userID uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&domain.ChangeRecord{}).
		Where("user_id = ?", userID)
}

func (r *changeLogRepository) find(q *gorm.DB, page Page, op string) ([]domain.ChangeRecord, error) {
	out := []domain.ChangeRecord{}
	err := q.
		Preload("Rote", func(db *gorm.DB) *gorm.DB {
			return db.Select(domain.RoteSnapshotColumns)
		}).
		Offset(page.Skip).
		Limit(page.Limit).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func withAction(q *gorm.DB, action *domain.ChangeAction) *gorm.DB {
	if action == nil {
		return q
	}
	return q.Where("action = ?", *action)
}
