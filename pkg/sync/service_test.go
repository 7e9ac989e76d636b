package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dojolog/dojolog/internal/event_bus"
	"github.com/dojolog/dojolog/pkg/entry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClient struct {
	pullItems   []Item
	pullErr     error
	pulledSince []string
	pushed      [][]Item
	pushErr     error
}

func (c *stubClient) Pull(_ context.Context, since string) ([]Item, error) {
	c.pulledSince = append(c.pulledSince, since)
	if c.pullErr != nil {
		return nil, c.pullErr
	}
	return c.pullItems, nil
}

func (c *stubClient) Push(_ context.Context, items []Item) (int, error) {
	if c.pushErr != nil {
		return 0, c.pushErr
	}
	c.pushed = append(c.pushed, items)
	return len(items), nil
}

func intPtr(v int) *int {
	return &v
}

func remoteItem(uid string, date string, updatedAt int64) Item {
	return Item{
		UID:             uid,
		Date:            date,
		Activity:        "karate",
		DurationMinutes: 60,
		RPE:             intPtr(7),
		UpdatedAt:       updatedAt,
	}
}

func localEntry(dayOfMonth int, updatedAt time.Time) entry.DayEntry {
	return entry.DayEntry{
		UID:             "local-" + time.Date(2025, time.January, dayOfMonth, 0, 0, 0, 0, time.UTC).Format(entry.DateFormat),
		Date:            time.Date(2025, time.January, dayOfMonth, 0, 0, 0, 0, time.UTC),
		Activity:        entry.Running,
		DurationMinutes: 30,
		RPE:             intPtr(5),
		UpdatedAt:       updatedAt,
	}
}

func newTestSync(client Client) (*ServiceImpl, *entry.StubRepository, *StubStateRepository, *event_bus.EventBus) {
	entries := entry.NewStubRepository()
	state := NewStubStateRepository()
	bus := event_bus.NewEventBus()
	return NewService(client, entries, state, bus), entries, state, bus
}

func TestSyncNow_PullAppliesRemoteItems(t *testing.T) {
	client := &stubClient{pullItems: []Item{
		remoteItem("r1", "2025-01-06", 1000),
		remoteItem("r2", "2025-01-07", 2000),
	}}
	service, entries, state, _ := newTestSync(client)

	result, err := service.SyncNow(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, result.Pulled)
	assert.Equal(t, 2, result.UpsertedLocally)
	assert.Len(t, entries.Entries, 2)

	// The pull watermark lands on the newest remote timestamp.
	assert.Equal(t, time.Unix(2000, 0).UTC().Format(time.RFC3339), state.Values[lastPullKey])
	require.Len(t, client.pulledSince, 1)
	assert.Equal(t, "", client.pulledSince[0], "first pull starts from the beginning")
}

func TestSyncNow_PushesLocalChanges(t *testing.T) {
	client := &stubClient{}
	service, entries, state, _ := newTestSync(client)

	base := time.Date(2025, time.January, 6, 12, 0, 0, 0, time.UTC)
	_, err := entries.Store(context.Background(), localEntry(6, base))
	require.NoError(t, err)
	_, err = entries.Store(context.Background(), localEntry(7, base.Add(time.Hour)))
	require.NoError(t, err)

	result, err := service.SyncNow(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, result.Pushed)
	require.Len(t, client.pushed, 1)
	assert.Len(t, client.pushed[0], 2)
	assert.Equal(t, base.Add(time.Hour).Format(time.RFC3339), state.Values[lastPushKey])
}

func TestSyncNow_PushSkipsAlreadyPushedEntries(t *testing.T) {
	client := &stubClient{}
	service, entries, state, _ := newTestSync(client)

	base := time.Date(2025, time.January, 6, 12, 0, 0, 0, time.UTC)
	_, err := entries.Store(context.Background(), localEntry(6, base))
	require.NoError(t, err)
	_, err = entries.Store(context.Background(), localEntry(7, base.Add(time.Hour)))
	require.NoError(t, err)

	// Everything up to base has already been pushed.
	state.Values[lastPushKey] = base.Format(time.RFC3339)

	result, err := service.SyncNow(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, result.Pushed)
	require.Len(t, client.pushed, 1)
	require.Len(t, client.pushed[0], 1)
	assert.Equal(t, "local-2025-01-07", client.pushed[0][0].UID)
}

func TestSyncNow_PushIncludesTombstones(t *testing.T) {
	client := &stubClient{}
	service, entries, _, _ := newTestSync(client)

	stored, err := entries.Store(context.Background(), localEntry(6, time.Now()))
	require.NoError(t, err)
	require.NoError(t, entries.Delete(context.Background(), stored.UID))

	_, err = service.SyncNow(context.Background())

	require.NoError(t, err)
	require.Len(t, client.pushed, 1)
	require.Len(t, client.pushed[0], 1)
	assert.True(t, client.pushed[0][0].Deleted)
}

func TestSyncNow_PullFailureLeavesStateUntouched(t *testing.T) {
	client := &stubClient{pullErr: errors.New("remote unavailable")}
	service, _, state, _ := newTestSync(client)

	_, err := service.SyncNow(context.Background())

	assert.Error(t, err)
	assert.Empty(t, state.Values)
}

func TestSyncNow_PushFailureKeepsPushWatermark(t *testing.T) {
	client := &stubClient{
		pullItems: []Item{remoteItem("r1", "2025-01-06", 1000)},
		pushErr:   errors.New("remote rejected the batch"),
	}
	service, entries, state, _ := newTestSync(client)

	_, err := entries.Store(context.Background(), localEntry(7, time.Now()))
	require.NoError(t, err)

	_, err = service.SyncNow(context.Background())

	assert.Error(t, err)
	// The pull leg succeeded and its watermark advanced; the push leg did
	// not, so its changes are retried on the next run.
	assert.NotEmpty(t, state.Values[lastPullKey])
	assert.Empty(t, state.Values[lastPushKey])
}

func TestSyncNow_CorruptDateOnRemoteItem(t *testing.T) {
	client := &stubClient{pullItems: []Item{remoteItem("r1", "06.01.2025", 1000)}}
	service, _, state, _ := newTestSync(client)

	_, err := service.SyncNow(context.Background())

	assert.Error(t, err)
	assert.Empty(t, state.Values)
}

func TestStatus_TracksDirtyFlag(t *testing.T) {
	client := &stubClient{}
	service, _, _, bus := newTestSync(client)

	status, err := service.Status(context.Background())
	require.NoError(t, err)
	assert.False(t, status.PendingChange)
	assert.Nil(t, status.LastPull)
	assert.Nil(t, status.LastPush)

	bus.Publish(event_bus.NewEvent(event_bus.EntryUpserted, event_bus.EntryChanged{UID: "e1"}))

	status, err = service.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, status.PendingChange)

	_, err = service.SyncNow(context.Background())
	require.NoError(t, err)

	status, err = service.Status(context.Background())
	require.NoError(t, err)
	assert.False(t, status.PendingChange, "a successful sync clears the pending flag")
}

func TestStatus_ParsesWatermarks(t *testing.T) {
	client := &stubClient{pullItems: []Item{remoteItem("r1", "2025-01-06", 1000)}}
	service, _, _, _ := newTestSync(client)

	_, err := service.SyncNow(context.Background())
	require.NoError(t, err)

	status, err := service.Status(context.Background())

	require.NoError(t, err)
	require.NotNil(t, status.LastPull)
	assert.Equal(t, time.Unix(1000, 0).UTC(), *status.LastPull)
}

func TestSyncNow_SecondPullUsesWatermark(t *testing.T) {
	client := &stubClient{pullItems: []Item{remoteItem("r1", "2025-01-06", 1000)}}
	service, _, _, _ := newTestSync(client)

	_, err := service.SyncNow(context.Background())
	require.NoError(t, err)
	client.pullItems = nil

	_, err = service.SyncNow(context.Background())
	require.NoError(t, err)

	require.Len(t, client.pulledSince, 2)
	assert.Equal(t, time.Unix(1000, 0).UTC().Format(time.RFC3339), client.pulledSince[1])
}
