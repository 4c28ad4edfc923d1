package services_test

import (
	"context"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/SundayYogurt/rote_service/internal/apperror"
	"github.com/SundayYogurt/rote_service/internal/domain"
	"github.com/SundayYogurt/rote_service/internal/dto"
	"github.com/SundayYogurt/rote_service/internal/repository"
	"github.com/SundayYogurt/rote_service/internal/services"
	"github.com/SundayYogurt/rote_service/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedChanges(t *testing.T, repo repository.ChangeLogRepository, user uuid.UUID, n int) []domain.ChangeRecord {
	t.Helper()
	out := make([]domain.ChangeRecord, 0, n)
	origin := uuid.New()
	for i := 0; i < n; i++ {
		action := domain.ChangeActionUpdate
		if i == 0 {
			action = domain.ChangeActionCreate
		}
		rec := &domain.ChangeRecord{OriginID: origin, Action: action, UserID: user}
		require.NoError(t, repo.Append(context.Background(), rec))
		out = append(out, *rec)
	}
	return out
}

func TestChangeService_RejectsMalformedIDs(t *testing.T) {
	svc := services.NewChangeService(repository.NewChangeLogRepository(testutil.NewDB(t), nil), 0)
	ctx := context.Background()
	user := uuid.New()

	_, err := svc.ListByOrigin(ctx, user, "not-a-uuid", dto.PageQuery{})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	assert.Contains(t, apperror.PublicMessage(err), "originid")

	_, err = svc.ListByNote(ctx, user, "", dto.PageQuery{})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	assert.Contains(t, apperror.PublicMessage(err), "roteid")
}

func TestChangeService_PageBounds(t *testing.T) {
	svc := services.NewChangeService(repository.NewChangeLogRepository(testutil.NewDB(t), nil), 0)
	ctx := context.Background()
	user := uuid.New()

	for _, q := range []dto.PageQuery{{Skip: -1}, {Limit: -1}, {Limit: 101}} {
		_, err := svc.ListByUser(ctx, user, dto.UserChangesQuery{PageQuery: q})
		assert.True(t, apperror.Is(err, apperror.KindValidation), "%+v", q)
	}

	_, err := svc.ListByUser(ctx, user, dto.UserChangesQuery{PageQuery: dto.PageQuery{Limit: 100}})
	assert.NoError(t, err)
}

func TestChangeService_DefaultLimit(t *testing.T) {
	repo := repository.NewChangeLogRepository(testutil.NewDB(t), nil)
	user := uuid.New()
	seedChanges(t, repo, user, 25)

	got, err := services.NewChangeService(repo, 0).ListByUser(context.Background(), user, dto.UserChangesQuery{})
	require.NoError(t, err)
	assert.Len(t, got, services.DefaultChangePageLimit)

	got, err = services.NewChangeService(repo, 5).ListByUser(context.Background(), user, dto.UserChangesQuery{})
	require.NoError(t, err)
	assert.Len(t, got, 5)
}

func TestChangeService_UnknownActionIsIgnored(t *testing.T) {
	repo := repository.NewChangeLogRepository(testutil.NewDB(t), nil)
	user := uuid.New()
	seedChanges(t, repo, user, 3)
	svc := services.NewChangeService(repo, 0)
	ctx := context.Background()

	all, err := svc.ListByUser(ctx, user, dto.UserChangesQuery{Action: "RENAME"})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	creates, err := svc.ListByUser(ctx, user, dto.UserChangesQuery{Action: " create "})
	require.NoError(t, err)
	require.Len(t, creates, 1)
	assert.Equal(t, domain.ChangeActionCreate, creates[0].Action)
}

func TestChangeService_ListAfterCursorFormats(t *testing.T) {
	repo := repository.NewChangeLogRepository(testutil.NewDB(t), nil)
	user := uuid.New()
	start := time.Now().UTC().Add(-time.Hour)
	recs := seedChanges(t, repo, user, 4)
	svc := services.NewChangeService(repo, 0)
	ctx := context.Background()

	cursors := []string{
		start.Format(time.RFC3339),
		url.QueryEscape(start.Format(time.RFC3339Nano)),
		strconv.FormatInt(start.Unix(), 10),
		strconv.FormatInt(start.UnixMilli(), 10),
	}
	for _, cursor := range cursors {
		got, err := svc.ListAfter(ctx, user, dto.ChangesAfterQuery{Timestamp: cursor})
		require.NoError(t, err, cursor)
		require.Len(t, got, 4, cursor)
		for i, rec := range got {
			assert.Equal(t, recs[i].ID, rec.ID, "oldest first")
		}
	}

	// resuming from the newest record returned is exclusive
	last := recs[1].CreatedAt.Format(time.RFC3339Nano)
	got, err := svc.ListAfter(ctx, user, dto.ChangesAfterQuery{Timestamp: last})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, recs[2].ID, got[0].ID)

	got, err = svc.ListAfter(ctx, user, dto.ChangesAfterQuery{Timestamp: last, Action: "CREATE"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestChangeService_ListAfterRejectsBadTimestamp(t *testing.T) {
	svc := services.NewChangeService(repository.NewChangeLogRepository(testutil.NewDB(t), nil), 0)
	ctx := context.Background()

	for _, raw := range []string{"", "yesterday", "-5", "2023-13-45"} {
		_, err := svc.ListAfter(ctx, uuid.New(), dto.ChangesAfterQuery{Timestamp: raw})
		require.Error(t, err, raw)
		assert.True(t, apperror.Is(err, apperror.KindValidation), raw)
	}
}

func TestChangeService_OtherUsersRecordsAreInvisible(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewChangeLogRepository(db, nil)
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()
	since := time.Now().UTC().Add(-time.Hour)

	rote := &domain.Rote{AuthorID: alice, Content: "alice only"}
	require.NoError(t, repository.NewRoteRepository(db).Create(ctx, rote))
	require.NoError(t, repo.Append(ctx, &domain.ChangeRecord{
		OriginID: rote.ID, NoteID: &rote.ID, Action: domain.ChangeActionCreate, UserID: alice,
	}))
	seedChanges(t, repo, alice, 2)
	svc := services.NewChangeService(repo, 0)

	byOrigin, err := svc.ListByOrigin(ctx, bob, rote.ID.String(), dto.PageQuery{})
	require.NoError(t, err)
	byNote, err := svc.ListByNote(ctx, bob, rote.ID.String(), dto.PageQuery{})
	require.NoError(t, err)
	byUser, err := svc.ListByUser(ctx, bob, dto.UserChangesQuery{})
	require.NoError(t, err)
	after, err := svc.ListAfter(ctx, bob, dto.ChangesAfterQuery{Timestamp: since.Format(time.RFC3339)})
	require.NoError(t, err)

	for mode, got := range map[string][]dto.ChangeResponse{
		"origin": byOrigin,
		"note":   byNote,
		"user":   byUser,
		"after":  after,
	} {
		assert.NotNil(t, got, mode)
		assert.Empty(t, got, mode)
	}

	// alice sees her own records through the same modes
	mine, err := svc.ListByNote(ctx, alice, rote.ID.String(), dto.PageQuery{})
	require.NoError(t, err)
	assert.Len(t, mine, 1)
	mine, err = svc.ListAfter(ctx, alice, dto.ChangesAfterQuery{Timestamp: since.Format(time.RFC3339)})
	require.NoError(t, err)
	assert.Len(t, mine, 3)
}
