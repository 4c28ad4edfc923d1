package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/SundayYogurt/rote_service/internal/domain"
	"github.com/SundayYogurt/rote_service/internal/repository"
	"github.com/SundayYogurt/rote_service/internal/services"
	"github.com/SundayYogurt/rote_service/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// failingChangeRepo fails every write. Reads fall through to the embedded repository.
type failingChangeRepo struct {
	repository.ChangeLogRepository
	err     error
	appends int
}

func (f *failingChangeRepo) WithTx(*gorm.DB) repository.ChangeLogRepository { return f }

func (f *failingChangeRepo) Append(context.Context, *domain.ChangeRecord) error {
	f.appends++
	return f.err
}

func (f *failingChangeRepo) DetachNote(context.Context, uuid.UUID) error { return f.err }

func TestRecord_RejectsIncompleteInput(t *testing.T) {
	recorder := services.NewChangeRecorder(repository.NewChangeLogRepository(testutil.NewDB(t), nil))
	ctx := context.Background()

	_, err := recorder.Record(ctx, nil, services.ChangeInput{UserID: uuid.New(), Action: domain.ChangeActionCreate})
	assert.Error(t, err)

	_, err = recorder.Record(ctx, nil, services.ChangeInput{OriginID: uuid.New(), Action: domain.ChangeActionCreate})
	assert.Error(t, err)

	_, err = recorder.Record(ctx, nil, services.ChangeInput{OriginID: uuid.New(), UserID: uuid.New(), Action: "MOVE"})
	assert.Error(t, err)
}

func TestRecord_WritesOneRecord(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewChangeLogRepository(db, nil)
	recorder := services.NewChangeRecorder(repo)
	user, origin := uuid.New(), uuid.New()

	rec, err := recorder.Record(context.Background(), nil, services.ChangeInput{
		OriginID: origin,
		Action:   domain.ChangeActionCreate,
		UserID:   user,
	})
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.NotEqual(t, uuid.Nil, rec.ID)
	assert.False(t, rec.CreatedAt.IsZero())

	got, err := repo.ListByOrigin(context.Background(), user, origin, repository.Page{Limit: 20})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, rec.ID, got[0].ID)
}

func TestRecordBestEffort_SwallowsFailure(t *testing.T) {
	failing := &failingChangeRepo{err: errors.New("disk full")}
	recorder := services.NewChangeRecorder(failing)

	rec := recorder.RecordBestEffort(context.Background(), nil, services.ChangeInput{
		OriginID: uuid.New(),
		Action:   domain.ChangeActionUpdate,
		UserID:   uuid.New(),
	})
	assert.Nil(t, rec)
	assert.Equal(t, 1, failing.appends)
}

func TestRecordDeletion_AppendsDeleteWithoutNote(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewChangeLogRepository(db, nil)
	recorder := services.NewChangeRecorder(repo)
	author := uuid.New()
	rote := &domain.Rote{AuthorID: author, Content: "bye"}
	require.NoError(t, repository.NewRoteRepository(db).Create(context.Background(), rote))

	_, err := recorder.Record(context.Background(), nil, services.ChangeInput{
		OriginID: rote.ID, NoteID: &rote.ID, Action: domain.ChangeActionCreate, UserID: author,
	})
	require.NoError(t, err)

	rec := recorder.RecordDeletion(context.Background(), nil, rote)
	require.NotNil(t, rec)
	assert.Equal(t, domain.ChangeActionDelete, rec.Action)
	assert.Nil(t, rec.NoteID)
	assert.Equal(t, rote.ID, rec.OriginID)
	assert.Equal(t, author, rec.UserID)

	byNote, err := repo.ListByNote(context.Background(), author, rote.ID, repository.Page{Limit: 20})
	require.NoError(t, err)
	assert.Empty(t, byNote, "earlier records are detached from the note")

	assert.Nil(t, recorder.RecordDeletion(context.Background(), nil, nil))
}
