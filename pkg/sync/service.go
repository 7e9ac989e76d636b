package sync

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dojolog/dojolog/internal/event_bus"
	"github.com/dojolog/dojolog/pkg/entry"
	log "github.com/sirupsen/logrus"
)

type Service interface {
	SyncNow(ctx context.Context) (Result, error)
	Status(ctx context.Context) (Status, error)
}

type ServiceImpl struct {
	client  Client
	entries entry.Repository
	state   StateRepository

	// dirty flips when an entry changes locally and clears after a
	// successful push.
	dirty atomic.Bool
}

func NewService(client Client, entries entry.Repository, state StateRepository, bus *event_bus.EventBus) *ServiceImpl {
	s := &ServiceImpl{
		client:  client,
		entries: entries,
		state:   state,
	}
	markDirty := func(e event_bus.Event) {
		log.Tracef("local journal change recorded for sync: %v", e.Data)
		s.dirty.Store(true)
	}
	bus.Subscribe(event_bus.EntryUpserted, markDirty)
	bus.Subscribe(event_bus.EntryDeleted, markDirty)
	return s
}

// SyncNow pulls first, then pushes. Watermarks only advance after the
// corresponding leg succeeds, so a failed run is retried in full next time.
func (s *ServiceImpl) SyncNow(ctx context.Context) (Result, error) {
	result := Result{}

	lastPull, err := s.state.Get(ctx, lastPullKey)
	if err != nil {
		return Result{}, err
	}

	items, err := s.client.Pull(ctx, lastPull)
	if err != nil {
		return Result{}, err
	}
	result.Pulled = len(items)

	if len(items) > 0 {
		entries := make([]entry.DayEntry, 0, len(items))
		maxUpdated := int64(0)
		for _, item := range items {
			e, err := itemToEntry(item)
			if err != nil {
				return Result{}, err
			}
			entries = append(entries, e)
			if item.UpdatedAt > maxUpdated {
				maxUpdated = item.UpdatedAt
			}
		}

		applied, err := s.entries.UpsertBatch(ctx, entries)
		if err != nil {
			return Result{}, fmt.Errorf("failed to apply pulled items: %w", err)
		}
		result.UpsertedLocally = applied

		if err := s.state.Set(ctx, lastPullKey, formatWatermark(maxUpdated)); err != nil {
			return Result{}, err
		}
	}

	lastPush, err := s.state.Get(ctx, lastPushKey)
	if err != nil {
		return Result{}, err
	}

	toPush, err := s.entries.ChangedSince(ctx, parseWatermark(lastPush))
	if err != nil {
		return Result{}, fmt.Errorf("failed to collect local changes: %w", err)
	}

	if len(toPush) > 0 {
		items := make([]Item, 0, len(toPush))
		maxUpdated := int64(0)
		for _, e := range toPush {
			item := entryToItem(e)
			items = append(items, item)
			if item.UpdatedAt > maxUpdated {
				maxUpdated = item.UpdatedAt
			}
		}

		pushed, err := s.client.Push(ctx, items)
		if err != nil {
			return Result{}, err
		}
		result.Pushed = pushed

		if err := s.state.Set(ctx, lastPushKey, formatWatermark(maxUpdated)); err != nil {
			return Result{}, err
		}
	}

	s.dirty.Store(false)
	log.Infof("sync finished: pulled %d, upserted %d locally, pushed %d",
		result.Pulled, result.UpsertedLocally, result.Pushed)
	return result, nil
}

func (s *ServiceImpl) Status(ctx context.Context) (Status, error) {
	status := Status{PendingChange: s.dirty.Load()}

	lastPull, err := s.state.Get(ctx, lastPullKey)
	if err != nil {
		return Status{}, err
	}
	if lastPull != "" {
		t := parseWatermark(lastPull)
		status.LastPull = &t
	}

	lastPush, err := s.state.Get(ctx, lastPushKey)
	if err != nil {
		return Status{}, err
	}
	if lastPush != "" {
		t := parseWatermark(lastPush)
		status.LastPush = &t
	}

	return status, nil
}

func formatWatermark(unix int64) string {
	return time.Unix(unix, 0).UTC().Format(time.RFC3339)
}

func parseWatermark(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		log.Warnf("corrupt sync watermark %q, restarting from zero", s)
		return time.Time{}
	}
	return t.UTC()
}
