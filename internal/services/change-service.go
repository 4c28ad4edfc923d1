package services

import (
	"context"

	"github.com/SundayYogurt/rote_service/internal/apperror"
	"github.com/SundayYogurt/rote_service/internal/domain"
	"github.com/SundayYogurt/rote_service/internal/dto"
	"github.com/SundayYogurt/rote_service/internal/helper"
	"github.com/SundayYogurt/rote_service/internal/repository"
	"github.com/SundayYogurt/rote_service/pkg/utils"
	"github.com/google/uuid"
)

const DefaultChangePageLimit = 20

// ChangeService is the read side of the change log. Every mode only ever returns the
// caller's own records.
type ChangeService interface {
	ListByOrigin(ctx context.Context, userID uuid.UUID, rawOriginID string, q dto.PageQuery) ([]dto.ChangeResponse, error)
	ListByNote(ctx context.Context, userID uuid.UUID, rawNoteID string, q dto.PageQuery) ([]dto.ChangeResponse, error)
	ListByUser(ctx context.Context, userID uuid.UUID, q dto.UserChangesQuery) ([]dto.ChangeResponse, error)
	// ListAfter is the incremental sync read: records strictly after the cursor, oldest first.
	ListAfter(ctx context.Context, userID uuid.UUID, q dto.ChangesAfterQuery) ([]dto.ChangeResponse, error)
}

type changeService struct {
	repo         repository.ChangeLogRepository
	defaultLimit int
}

func NewChangeService(repo repository.ChangeLogRepository, defaultLimit int) ChangeService {
	if defaultLimit <= 0 || defaultLimit > 100 {
		defaultLimit = DefaultChangePageLimit
	}
	return &changeService{repo: repo, defaultLimit: defaultLimit}
}

func (s *changeService) ListByOrigin(ctx context.Context, userID uuid.UUID, rawOriginID string, q dto.PageQuery) ([]dto.ChangeResponse, error) {
	originID, err := helper.ParseUUID("originid", rawOriginID)
	if err != nil {
		return nil, err
	}
	page, err := s.page(q)
	if err != nil {
		return nil, err
	}
	recs, err := s.repo.ListByOrigin(ctx, userID, originID, page)
	if err != nil {
		return nil, apperror.FromStore("failed to list changes", err)
	}
	return toResponses(recs), nil
}

func (s *changeService) ListByNote(ctx context.Context, userID uuid.UUID, rawNoteID string, q dto.PageQuery) ([]dto.ChangeResponse, error) {
	noteID, err := helper.ParseUUID("roteid", rawNoteID)
	if err != nil {
		return nil, err
	}
	page, err := s.page(q)
	if err != nil {
		return nil, err
	}
	recs, err := s.repo.ListByNote(ctx, userID, noteID, page)
	if err != nil {
		return nil, apperror.FromStore("failed to list changes", err)
	}
	return toResponses(recs), nil
}

func (s *changeService) ListByUser(ctx context.Context, userID uuid.UUID, q dto.UserChangesQuery) ([]dto.ChangeResponse, error) {
	page, err := s.page(q.PageQuery)
	if err != nil {
		return nil, err
	}
	recs, err := s.repo.ListByUser(ctx, userID, actionFilter(q.Action), page)
	if err != nil {
		return nil, apperror.FromStore("failed to list changes", err)
	}
	return toResponses(recs), nil
}

func (s *changeService) ListAfter(ctx context.Context, userID uuid.UUID, q dto.ChangesAfterQuery) ([]dto.ChangeResponse, error) {
	if err := helper.Validate(q); err != nil {
		return nil, err
	}
	after, err := utils.ParseTimestamp(q.Timestamp)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindValidation, err.Error(), err)
	}
	page, err := s.page(q.PageQuery)
	if err != nil {
		return nil, err
	}
	recs, err := s.repo.ListAfter(ctx, userID, after, actionFilter(q.Action), page)
	if err != nil {
		return nil, apperror.FromStore("failed to list changes", err)
	}
	return toResponses(recs), nil
}

func (s *changeService) page(q dto.PageQuery) (repository.Page, error) {
	if err := helper.Validate(q); err != nil {
		return repository.Page{}, err
	}
	limit := q.Limit
	if limit == 0 {
		limit = s.defaultLimit
	}
	return repository.Page{Skip: q.Skip, Limit: limit}, nil
}

// actionFilter ignores values outside the action enum rather than rejecting them.
func actionFilter(raw string) *domain.ChangeAction {
	a, ok := domain.ParseChangeAction(raw)
	if !ok {
		return nil
	}
	return &a
}

func toResponses(recs []domain.ChangeRecord) []dto.ChangeResponse {
	out := make([]dto.ChangeResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, dto.NewChangeResponse(rec))
	}
	return out
}
