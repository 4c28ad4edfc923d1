package services

import (
	"context"
	"sort"
	"strings"

	"github.com/SundayYogurt/rote_service/internal/apperror"
	"github.com/SundayYogurt/rote_service/internal/domain"
	"github.com/SundayYogurt/rote_service/internal/dto"
	"github.com/SundayYogurt/rote_service/internal/helper"
	"github.com/SundayYogurt/rote_service/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RoteService owns the note mutation paths. Each operation commits its rows and its
// single change record in one transaction.
type RoteService interface {
	CreateRote(ctx context.Context, userID uuid.UUID, input dto.CreateRoteRequest) (*domain.Rote, error)
	UpdateRote(ctx context.Context, userID, roteID uuid.UUID, input dto.UpdateRoteRequest) (*domain.Rote, error)
	DeleteRote(ctx context.Context, userID, roteID uuid.UUID) error

	// Attachments
	CreateAttachment(ctx context.Context, userID uuid.UUID, input dto.CreateAttachmentRequest) (*domain.Attachment, error)
	BindAttachments(ctx context.Context, userID, roteID uuid.UUID, attachmentIDs []uuid.UUID) ([]domain.Attachment, error)
	UnbindAttachment(ctx context.Context, userID, roteID, attachmentID uuid.UUID) error
	ReorderAttachments(ctx context.Context, userID, roteID uuid.UUID, attachmentIDs []uuid.UUID) ([]domain.Attachment, error)
	DeleteAttachment(ctx context.Context, userID, attachmentID uuid.UUID) error

	// Reactions
	AddReaction(ctx context.Context, userID, roteID uuid.UUID, input dto.ReactionRequest) (*domain.Reaction, error)
	RemoveReaction(ctx context.Context, userID, roteID uuid.UUID, reactionType string) error
}

type roteService struct {
	rotes       repository.RoteRepository
	attachments repository.AttachmentRepository
	reactions   repository.ReactionRepository
	recorder    ChangeRecorder
}

func NewRoteService(
	rotes repository.RoteRepository,
	attachments repository.AttachmentRepository,
	reactions repository.ReactionRepository,
	recorder ChangeRecorder,
) RoteService {
	return &roteService{
		rotes:       rotes,
		attachments: attachments,
		reactions:   reactions,
		recorder:    recorder,
	}
}

// ROTES

func (s *roteService) CreateRote(ctx context.Context, userID uuid.UUID, input dto.CreateRoteRequest) (*domain.Rote, error) {
	if err := helper.Validate(input); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Content) == "" {
		return nil, apperror.Validation("content cannot be empty")
	}
	attachmentIDs, err := helper.ParseUUIDs("attachment id", input.AttachmentIDs)
	if err != nil {
		return nil, err
	}
	articleID, err := optionalUUID("articleId", input.ArticleID)
	if err != nil {
		return nil, err
	}

	rote := &domain.Rote{
		ID:        uuid.New(),
		AuthorID:  userID,
		Title:     strings.TrimSpace(input.Title),
		Content:   input.Content,
		Type:      orDefault(input.Type, "rote"),
		Tags:      normalizeTags(input.Tags),
		State:     orDefault(input.State, "private"),
		Editor:    orDefault(input.Editor, "normal"),
		Pin:       input.Pin,
		ArticleID: articleID,
	}

	err = s.rotes.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.rotes.WithTx(tx).Create(ctx, rote); err != nil {
			return err
		}
		if len(attachmentIDs) > 0 {
			if _, err := s.bindOwned(ctx, tx, userID, rote.ID, attachmentIDs, 0); err != nil {
				return err
			}
		}
		// binding at creation time is part of the CREATE, not a separate UPDATE
		s.recorder.RecordBestEffort(ctx, tx, ChangeInput{
			OriginID: rote.ID,
			NoteID:   &rote.ID,
			Action:   domain.ChangeActionCreate,
			UserID:   rote.AuthorID,
		})
		return nil
	})
	if err != nil {
		return nil, apperror.FromStore("failed to create rote", err)
	}
	return rote, nil
}

func (s *roteService) UpdateRote(ctx context.Context, userID, roteID uuid.UUID, input dto.UpdateRoteRequest) (*domain.Rote, error) {
	if err := helper.Validate(input); err != nil {
		return nil, err
	}
	if input == (dto.UpdateRoteRequest{}) {
		return nil, apperror.Validation("nothing to update")
	}
	articleID, err := optionalUUID("articleId", input.ArticleID)
	if err != nil {
		return nil, err
	}

	var rote *domain.Rote
	err = s.rotes.Transaction(ctx, func(tx *gorm.DB) error {
		var err error
		rote, err = s.ownedRote(ctx, tx, userID, roteID)
		if err != nil {
			return err
		}

		if input.Title != nil {
			rote.Title = strings.TrimSpace(*input.Title)
		}
		if input.Content != nil {
			if strings.TrimSpace(*input.Content) == "" {
				return apperror.Validation("content cannot be empty")
			}
			rote.Content = *input.Content
		}
		if input.Tags != nil {
			rote.Tags = normalizeTags(*input.Tags)
		}
		if input.State != nil {
			rote.State = *input.State
		}
		if input.Editor != nil {
			rote.Editor = *input.Editor
		}
		if input.Archived != nil {
			rote.Archived = *input.Archived
		}
		if input.Pin != nil {
			rote.Pin = *input.Pin
		}
		if input.ArticleID != nil {
			rote.ArticleID = articleID
		}

		if err := s.rotes.WithTx(tx).Save(ctx, rote); err != nil {
			return err
		}
		s.recordUpdate(ctx, tx, rote)
		return nil
	})
	if err != nil {
		return nil, apperror.FromStore("failed to update rote", err)
	}
	return rote, nil
}

func (s *roteService) DeleteRote(ctx context.Context, userID, roteID uuid.UUID) error {
	err := s.rotes.Transaction(ctx, func(tx *gorm.DB) error {
		rote, err := s.ownedRote(ctx, tx, userID, roteID)
		if err != nil {
			return err
		}
		// detach first so the delete never trips over the change log foreign key
		s.recorder.RecordDeletion(ctx, tx, rote)
		return s.rotes.WithTx(tx).Delete(ctx, rote.ID)
	})
	if err != nil {
		return apperror.FromStore("failed to delete rote", err)
	}
	return nil
}

// ATTACHMENTS

func (s *roteService) CreateAttachment(ctx context.Context, userID uuid.UUID, input dto.CreateAttachmentRequest) (*domain.Attachment, error) {
	if err := helper.Validate(input); err != nil {
		return nil, err
	}
	att := &domain.Attachment{
		ID:     uuid.New(),
		UserID: userID,
		URL:    strings.TrimSpace(input.URL),
	}
	if err := s.attachments.Create(ctx, att); err != nil {
		return nil, apperror.FromStore("failed to create attachment", err)
	}
	return att, nil
}

func (s *roteService) BindAttachments(ctx context.Context, userID, roteID uuid.UUID, attachmentIDs []uuid.UUID) ([]domain.Attachment, error) {
	if len(attachmentIDs) == 0 {
		return nil, apperror.Validation("attachment_ids are required")
	}

	var bound []domain.Attachment
	err := s.rotes.Transaction(ctx, func(tx *gorm.DB) error {
		rote, err := s.ownedRote(ctx, tx, userID, roteID)
		if err != nil {
			return err
		}
		existing, err := s.attachments.WithTx(tx).ListByRote(ctx, rote.ID)
		if err != nil {
			return err
		}
		bound, err = s.bindOwned(ctx, tx, userID, rote.ID, attachmentIDs, len(existing))
		if err != nil {
			return err
		}
		s.recordUpdate(ctx, tx, rote)
		return nil
	})
	if err != nil {
		return nil, apperror.FromStore("failed to bind attachments", err)
	}
	return bound, nil
}

func (s *roteService) UnbindAttachment(ctx context.Context, userID, roteID, attachmentID uuid.UUID) error {
	err := s.rotes.Transaction(ctx, func(tx *gorm.DB) error {
		rote, err := s.ownedRote(ctx, tx, userID, roteID)
		if err != nil {
			return err
		}
		atts := s.attachments.WithTx(tx)
		att, err := atts.FindByID(ctx, attachmentID)
		if err != nil {
			return err
		}
		if att.RoteID == nil || *att.RoteID != rote.ID {
			return apperror.NotFound("attachment is not bound to this rote")
		}
		if err := atts.Unbind(ctx, att.ID); err != nil {
			return err
		}
		s.recordUpdate(ctx, tx, rote)
		return nil
	})
	if err != nil {
		return apperror.FromStore("failed to unbind attachment", err)
	}
	return nil
}

func (s *roteService) ReorderAttachments(ctx context.Context, userID, roteID uuid.UUID, attachmentIDs []uuid.UUID) ([]domain.Attachment, error) {
	var ordered []domain.Attachment
	err := s.rotes.Transaction(ctx, func(tx *gorm.DB) error {
		rote, err := s.ownedRote(ctx, tx, userID, roteID)
		if err != nil {
			return err
		}
		atts := s.attachments.WithTx(tx)
		current, err := atts.ListByRote(ctx, rote.ID)
		if err != nil {
			return err
		}
		if !sameIDSet(current, attachmentIDs) {
			return apperror.Validation("attachment_ids must list exactly the attachments of this rote")
		}
		if err := atts.SetOrder(ctx, rote.ID, attachmentIDs); err != nil {
			return err
		}
		s.recordUpdate(ctx, tx, rote)

		ordered, err = atts.ListByRote(ctx, rote.ID)
		return err
	})
	if err != nil {
		return nil, apperror.FromStore("failed to reorder attachments", err)
	}
	return ordered, nil
}

func (s *roteService) DeleteAttachment(ctx context.Context, userID, attachmentID uuid.UUID) error {
	err := s.rotes.Transaction(ctx, func(tx *gorm.DB) error {
		atts := s.attachments.WithTx(tx)
		att, err := atts.FindByID(ctx, attachmentID)
		if err != nil {
			return err
		}
		if att.UserID != userID {
			return apperror.Forbidden("attachment belongs to another user")
		}

		var rote *domain.Rote
		if att.RoteID != nil {
			rote, err = s.rotes.WithTx(tx).FindByID(ctx, *att.RoteID)
			if err != nil {
				return err
			}
		}
		if err := atts.Delete(ctx, att.ID); err != nil {
			return err
		}
		// an unbound attachment is not part of any note
		if rote != nil {
			s.recordUpdate(ctx, tx, rote)
		}
		return nil
	})
	if err != nil {
		return apperror.FromStore("failed to delete attachment", err)
	}
	return nil
}

// REACTIONS

func (s *roteService) AddReaction(ctx context.Context, userID, roteID uuid.UUID, input dto.ReactionRequest) (*domain.Reaction, error) {
	if err := helper.Validate(input); err != nil {
		return nil, err
	}
	reactionType := strings.TrimSpace(input.Type)
	if reactionType == "" {
		return nil, apperror.Validation("type cannot be empty")
	}

	var reaction *domain.Reaction
	err := s.rotes.Transaction(ctx, func(tx *gorm.DB) error {
		rote, err := s.visibleRote(ctx, tx, userID, roteID)
		if err != nil {
			return err
		}
		reaction = &domain.Reaction{
			ID:     uuid.New(),
			RoteID: rote.ID,
			UserID: userID,
			Type:   reactionType,
		}
		if err := s.reactions.WithTx(tx).Create(ctx, reaction); err != nil {
			if helper.IsUniqueViolation(err) {
				return apperror.Validation("reaction already exists")
			}
			return err
		}
		s.recordUpdate(ctx, tx, rote)
		return nil
	})
	if err != nil {
		return nil, apperror.FromStore("failed to add reaction", err)
	}
	return reaction, nil
}

func (s *roteService) RemoveReaction(ctx context.Context, userID, roteID uuid.UUID, reactionType string) error {
	reactionType = strings.TrimSpace(reactionType)
	if reactionType == "" {
		return apperror.Validation("type cannot be empty")
	}

	err := s.rotes.Transaction(ctx, func(tx *gorm.DB) error {
		rote, err := s.visibleRote(ctx, tx, userID, roteID)
		if err != nil {
			return err
		}
		reactions := s.reactions.WithTx(tx)
		reaction, err := reactions.Find(ctx, rote.ID, userID, reactionType)
		if err != nil {
			return err
		}
		if err := reactions.Delete(ctx, reaction.ID); err != nil {
			return err
		}
		s.recordUpdate(ctx, tx, rote)
		return nil
	})
	if err != nil {
		return apperror.FromStore("failed to remove reaction", err)
	}
	return nil
}

// helpers

func (s *roteService) recordUpdate(ctx context.Context, tx *gorm.DB, rote *domain.Rote) {
	s.recorder.RecordBestEffort(ctx, tx, ChangeInput{
		OriginID: rote.ID,
		NoteID:   &rote.ID,
		Action:   domain.ChangeActionUpdate,
		UserID:   rote.AuthorID,
	})
}

func (s *roteService) ownedRote(ctx context.Context, tx *gorm.DB, userID, roteID uuid.UUID) (*domain.Rote, error) {
	rote, err := s.rotes.WithTx(tx).FindByID(ctx, roteID)
	if err != nil {
		return nil, err
	}
	if rote.AuthorID != userID {
		return nil, apperror.Forbidden("rote belongs to another user")
	}
	return rote, nil
}

// visibleRote allows the author and, for public rotes, everyone else.
func (s *roteService) visibleRote(ctx context.Context, tx *gorm.DB, userID, roteID uuid.UUID) (*domain.Rote, error) {
	rote, err := s.rotes.WithTx(tx).FindByID(ctx, roteID)
	if err != nil {
		return nil, err
	}
	if rote.AuthorID != userID && rote.State != "public" {
		return nil, apperror.NotFound("rote not found")
	}
	return rote, nil
}

func (s *roteService) bindOwned(ctx context.Context, tx *gorm.DB, userID, roteID uuid.UUID, ids []uuid.UUID, startIndex int) ([]domain.Attachment, error) {
	atts := s.attachments.WithTx(tx)
	found, err := atts.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(found) != len(ids) {
		return nil, apperror.NotFound("attachment not found")
	}
	for _, att := range found {
		if att.UserID != userID {
			return nil, apperror.Forbidden("attachment belongs to another user")
		}
		if att.RoteID != nil {
			return nil, apperror.Validation("attachment is already bound to a rote")
		}
	}
	if err := atts.Bind(ctx, roteID, ids, startIndex); err != nil {
		return nil, err
	}
	bound, err := atts.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	sort.Slice(bound, func(i, j int) bool { return bound[i].SortIndex < bound[j].SortIndex })
	return bound, nil
}

func sameIDSet(current []domain.Attachment, ids []uuid.UUID) bool {
	if len(current) != len(ids) {
		return false
	}
	want := make(map[uuid.UUID]bool, len(current))
	for _, a := range current {
		want[a.ID] = true
	}
	for _, id := range ids {
		if !want[id] {
			return false
		}
		delete(want, id)
	}
	return true
}

func optionalUUID(name string, raw *string) (*uuid.UUID, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	id, err := helper.ParseUUID(name, *raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}
