package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/SundayYogurt/rote_service/internal/domain"
	"github.com/SundayYogurt/rote_service/internal/repository"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChangeInput describes one logical mutation of a note.
type ChangeInput struct {
	OriginID uuid.UUID
	NoteID   *uuid.UUID
	Action   domain.ChangeAction
	// UserID is the note author, even when another user caused the change.
	UserID uuid.UUID
}

// ChangeRecorder writes the change log entry of a note mutation. Callers invoke it once
// per logical operation, never once per row touched.
type ChangeRecorder interface {
	// Record appends one record. tx binds it to the mutation's transaction; nil writes
	// on its own.
	Record(ctx context.Context, tx *gorm.DB, in ChangeInput) (*domain.ChangeRecord, error)
	// RecordBestEffort is Record for mutation paths: a failure is logged and swallowed
	// so the primary mutation still commits.
	RecordBestEffort(ctx context.Context, tx *gorm.DB, in ChangeInput) *domain.ChangeRecord
	// RecordDeletion detaches the note's earlier records and appends its DELETE record.
	// Failures are logged and swallowed.
	RecordDeletion(ctx context.Context, tx *gorm.DB, rote *domain.Rote) *domain.ChangeRecord
}

type changeRecorder struct {
	repo repository.ChangeLogRepository
}

func NewChangeRecorder(repo repository.ChangeLogRepository) ChangeRecorder {
	return &changeRecorder{repo: repo}
}

func (r *changeRecorder) Record(ctx context.Context, tx *gorm.DB, in ChangeInput) (*domain.ChangeRecord, error) {
	if in.OriginID == uuid.Nil {
		return nil, errors.New("record change: origin id is required")
	}
	if in.UserID == uuid.Nil {
		return nil, errors.New("record change: user id is required")
	}
	if !in.Action.Valid() {
		return nil, fmt.Errorf("record change: invalid action %q", in.Action)
	}

	rec := &domain.ChangeRecord{
		OriginID: in.OriginID,
		NoteID:   in.NoteID,
		Action:   in.Action,
		UserID:   in.UserID,
	}
	if err := r.bind(tx).Append(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *changeRecorder) RecordBestEffort(ctx context.Context, tx *gorm.DB, in ChangeInput) *domain.ChangeRecord {
	rec, err := r.Record(ctx, tx, in)
	if err != nil {
		log.Errorw("change record dropped",
			"origin_id", in.OriginID,
			"note_id", noteIDString(in.NoteID),
			"action", in.Action,
			"user_id", in.UserID,
			"error", err,
		)
		return nil
	}
	return rec
}

func (r *changeRecorder) RecordDeletion(ctx context.Context, tx *gorm.DB, rote *domain.Rote) *domain.ChangeRecord {
	if rote == nil {
		return nil
	}
	if err := r.bind(tx).DetachNote(ctx, rote.ID); err != nil {
		// the foreign key clears the reference on stores that enforce it
		log.Warnw("detach note changes failed", "note_id", rote.ID, "error", err)
	}
	return r.RecordBestEffort(ctx, tx, ChangeInput{
		OriginID: rote.ID,
		Action:   domain.ChangeActionDelete,
		UserID:   rote.AuthorID,
	})
}

func (r *changeRecorder) bind(tx *gorm.DB) repository.ChangeLogRepository {
	if tx == nil {
		return r.repo
	}
	return r.repo.WithTx(tx)
}

func noteIDString(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}
