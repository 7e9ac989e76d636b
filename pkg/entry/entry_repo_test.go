package entry

import (
	"context"
	"testing"
	"time"

	"github.com/dojolog/dojolog/internal/test_utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *RepositoryImpl {
	t.Helper()
	return NewRepository(test_utils.SetupTestDB(t))
}

func storedEntry(dayOfMonth int, updatedAt time.Time) DayEntry {
	return DayEntry{
		UID:             uuid.NewString(),
		Date:            date(dayOfMonth),
		Activity:        Karate,
		DurationMinutes: 60,
		RPE:             intPtr(7),
		EnergyLevel:     intPtr(4),
		Emphasis:        EmphasisTechnical,
		Notes:           "kumite focus",
		UpdatedAt:       updatedAt,
	}
}

func TestRepoStore_Roundtrip(t *testing.T) {
	repo := newTestRepo(t)
	updatedAt := time.Date(2025, time.January, 6, 12, 0, 0, 0, time.UTC)
	e := storedEntry(6, updatedAt)

	stored, err := repo.Store(context.Background(), e)
	require.NoError(t, err)
	assert.NotZero(t, stored.ID)

	found, err := repo.FindByDate(context.Background(), date(6))
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, e.UID, found.UID)
	assert.Equal(t, date(6), found.Date)
	assert.Equal(t, Karate, found.Activity)
	assert.Equal(t, 60, found.DurationMinutes)
	require.NotNil(t, found.RPE)
	assert.Equal(t, 7, *found.RPE)
	require.NotNil(t, found.EnergyLevel)
	assert.Equal(t, 4, *found.EnergyLevel)
	assert.Equal(t, EmphasisTechnical, found.Emphasis)
	assert.Equal(t, "kumite focus", found.Notes)
	assert.Equal(t, updatedAt, found.UpdatedAt)
	assert.False(t, found.Deleted)
}

func TestRepoStore_NullableFieldsStayAbsent(t *testing.T) {
	repo := newTestRepo(t)
	e := storedEntry(6, time.Now())
	e.RPE = nil
	e.EnergyLevel = nil
	e.Emphasis = EmphasisNone
	e.Notes = ""

	_, err := repo.Store(context.Background(), e)
	require.NoError(t, err)

	found, err := repo.FindByDate(context.Background(), date(6))
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Nil(t, found.RPE, "absent effort must stay absent, never zero")
	assert.Nil(t, found.EnergyLevel)
	assert.Equal(t, EmphasisNone, found.Emphasis)
}

func TestRepoStore_RejectsDuplicateDate(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.Store(context.Background(), storedEntry(6, time.Now()))
	require.NoError(t, err)

	_, err = repo.Store(context.Background(), storedEntry(6, time.Now()))

	assert.ErrorIs(t, err, ErrDuplicateDate)
}

func TestRepoStore_ResurrectsTombstone(t *testing.T) {
	repo := newTestRepo(t)
	first, err := repo.Store(context.Background(), storedEntry(6, time.Now()))
	require.NoError(t, err)
	require.NoError(t, repo.Delete(context.Background(), first.UID))

	replacement := storedEntry(6, time.Now())
	replacement.Activity = Running
	replacement.DurationMinutes = 30

	stored, err := repo.Store(context.Background(), replacement)
	require.NoError(t, err)
	// The tombstone row is rewritten in place.
	assert.Equal(t, first.ID, stored.ID)

	found, err := repo.FindByDate(context.Background(), date(6))
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, replacement.UID, found.UID)
	assert.Equal(t, Running, found.Activity)
	assert.False(t, found.Deleted)
}

func TestRepoUpdate(t *testing.T) {
	repo := newTestRepo(t)
	stored, err := repo.Store(context.Background(), storedEntry(6, time.Now()))
	require.NoError(t, err)

	stored.DurationMinutes = 90
	stored.RPE = intPtr(9)
	stored.UpdatedAt = time.Now().Add(time.Minute)

	_, err = repo.Update(context.Background(), stored)
	require.NoError(t, err)

	found, err := repo.FindByDate(context.Background(), date(6))
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, 90, found.DurationMinutes)
	require.NotNil(t, found.RPE)
	assert.Equal(t, 9, *found.RPE)
}

func TestRepoUpdate_UnknownUID(t *testing.T) {
	repo := newTestRepo(t)
	e := storedEntry(6, time.Now())

	_, err := repo.Update(context.Background(), e)

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepoDelete_SoftDeletes(t *testing.T) {
	repo := newTestRepo(t)
	stored, err := repo.Store(context.Background(), storedEntry(6, time.Now()))
	require.NoError(t, err)

	require.NoError(t, repo.Delete(context.Background(), stored.UID))

	found, err := repo.FindByDate(context.Background(), date(6))
	require.NoError(t, err)
	assert.Nil(t, found)

	// The tombstone still travels through change feeds.
	changed, err := repo.ChangedSince(context.Background(), time.Time{})
	require.NoError(t, err)
	require.Len(t, changed, 1)
	assert.True(t, changed[0].Deleted)

	assert.ErrorIs(t, repo.Delete(context.Background(), stored.UID), ErrNotFound)
}

func TestRepoFindRange_OrdersAndFilters(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	for _, dayOfMonth := range []int{10, 6, 8, 20} {
		_, err := repo.Store(ctx, storedEntry(dayOfMonth, time.Now()))
		require.NoError(t, err)
	}
	deleted, err := repo.Store(ctx, storedEntry(7, time.Now()))
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, deleted.UID))

	entries, err := repo.FindRange(ctx, date(6), date(12))

	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, date(6), entries[0].Date)
	assert.Equal(t, date(8), entries[1].Date)
	assert.Equal(t, date(10), entries[2].Date)
}

func TestRepoUpsertBatch_NewerWins(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2025, time.January, 6, 12, 0, 0, 0, time.UTC)

	local := storedEntry(6, base)
	_, err := repo.Store(ctx, local)
	require.NoError(t, err)

	newer := local
	newer.DurationMinutes = 45
	newer.UpdatedAt = base.Add(time.Hour)
	stale := local
	stale.DurationMinutes = 90
	stale.UpdatedAt = base.Add(-time.Hour)

	applied, err := repo.UpsertBatch(ctx, []DayEntry{newer})
	require.NoError(t, err)
	assert.Equal(t, 1, applied)

	applied, err = repo.UpsertBatch(ctx, []DayEntry{stale})
	require.NoError(t, err)
	assert.Equal(t, 0, applied, "stale items must be skipped")

	found, err := repo.FindByDate(ctx, date(6))
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, 45, found.DurationMinutes)
}

func TestRepoUpsertBatch_EqualTimestampIsSkipped(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2025, time.January, 6, 12, 0, 0, 0, time.UTC)

	local := storedEntry(6, base)
	_, err := repo.Store(ctx, local)
	require.NoError(t, err)

	echo := local
	echo.DurationMinutes = 999

	applied, err := repo.UpsertBatch(ctx, []DayEntry{echo})
	require.NoError(t, err)
	assert.Equal(t, 0, applied)
}

func TestRepoUpsertBatch_RemoteWinsDateConflict(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2025, time.January, 6, 12, 0, 0, 0, time.UTC)

	_, err := repo.Store(ctx, storedEntry(6, base))
	require.NoError(t, err)

	// A remote item with a different UID owns the same date.
	remote := storedEntry(6, base.Add(time.Hour))
	remote.Activity = Rowing

	applied, err := repo.UpsertBatch(ctx, []DayEntry{remote})
	require.NoError(t, err)
	assert.Equal(t, 1, applied)

	found, err := repo.FindByDate(ctx, date(6))
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, remote.UID, found.UID)
	assert.Equal(t, Rowing, found.Activity)
}

func TestRepoUpsertBatch_PreservesRemoteTombstone(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	remote := storedEntry(6, time.Now())
	remote.Deleted = true

	applied, err := repo.UpsertBatch(ctx, []DayEntry{remote})
	require.NoError(t, err)
	assert.Equal(t, 1, applied)

	found, err := repo.FindByDate(ctx, date(6))
	require.NoError(t, err)
	assert.Nil(t, found)

	changed, err := repo.ChangedSince(ctx, time.Time{})
	require.NoError(t, err)
	require.Len(t, changed, 1)
	assert.True(t, changed[0].Deleted)
}

func TestRepoChangedSince_IsStrictlyAfter(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2025, time.January, 6, 12, 0, 0, 0, time.UTC)

	_, err := repo.Store(ctx, storedEntry(6, base))
	require.NoError(t, err)
	later := storedEntry(7, base.Add(time.Hour))
	_, err = repo.Store(ctx, later)
	require.NoError(t, err)

	changed, err := repo.ChangedSince(ctx, base)

	require.NoError(t, err)
	require.Len(t, changed, 1)
	assert.Equal(t, later.UID, changed[0].UID)
}
