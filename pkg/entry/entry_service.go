package entry

import (
	"context"
	"fmt"
	"time"

	"github.com/dojolog/dojolog/internal/event_bus"
	"github.com/dojolog/dojolog/internal/utils"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type Service interface {
	Create(ctx context.Context, entry DayEntry) (DayEntry, error)
	Update(ctx context.Context, entry DayEntry) (DayEntry, error)
	Delete(ctx context.Context, uid string) error
	GetByDate(ctx context.Context, date time.Time) (*DayEntry, error)
	ListRange(ctx context.Context, from time.Time, to time.Time) ([]DayEntry, error)
}

type ServiceImpl struct {
	repo  Repository
	bus   *event_bus.EventBus
	clock utils.Clock
}

func NewService(repo Repository, bus *event_bus.EventBus) *ServiceImpl {
	return &ServiceImpl{
		repo:  repo,
		bus:   bus,
		clock: &utils.SystemClock{},
	}
}

func (s *ServiceImpl) Create(ctx context.Context, entry DayEntry) (DayEntry, error) {
	if err := entry.Validate(); err != nil {
		return DayEntry{}, err
	}
	entry.UID = uuid.NewString()
	entry.Date = utils.DateOf(entry.Date)
	entry.UpdatedAt = s.clock.Now()

	stored, err := s.repo.Store(ctx, entry)
	if err != nil {
		return DayEntry{}, err
	}
	log.Debugf("Created entry %s on %s (%s)", stored.UID, stored.Date.Format(DateFormat), stored.Activity)

	s.bus.Publish(event_bus.NewEvent(event_bus.EntryUpserted, event_bus.EntryChanged{
		UID:  stored.UID,
		Date: stored.Date,
	}))
	return stored, nil
}

func (s *ServiceImpl) Update(ctx context.Context, entry DayEntry) (DayEntry, error) {
	if err := entry.Validate(); err != nil {
		return DayEntry{}, err
	}
	entry.Date = utils.DateOf(entry.Date)
	entry.UpdatedAt = s.clock.Now()

	updated, err := s.repo.Update(ctx, entry)
	if err != nil {
		return DayEntry{}, err
	}

	s.bus.Publish(event_bus.NewEvent(event_bus.EntryUpserted, event_bus.EntryChanged{
		UID:  updated.UID,
		Date: updated.Date,
	}))
	return updated, nil
}

func (s *ServiceImpl) Delete(ctx context.Context, uid string) error {
	if err := s.repo.Delete(ctx, uid); err != nil {
		return err
	}
	s.bus.Publish(event_bus.NewEvent(event_bus.EntryDeleted, event_bus.EntryChanged{UID: uid}))
	return nil
}

func (s *ServiceImpl) GetByDate(ctx context.Context, date time.Time) (*DayEntry, error) {
	return s.repo.FindByDate(ctx, utils.DateOf(date))
}

// ListRange returns entries in [from, to] ordered by date ascending.
// A misordered range is a caller error, rejected before touching storage.
func (s *ServiceImpl) ListRange(ctx context.Context, from time.Time, to time.Time) ([]DayEntry, error) {
	from = utils.DateOf(from)
	to = utils.DateOf(to)
	if to.Before(from) {
		return nil, fmt.Errorf("%w: end %s before start %s", ErrInvalidRange, to.Format(DateFormat), from.Format(DateFormat))
	}
	return s.repo.FindRange(ctx, from, to)
}
