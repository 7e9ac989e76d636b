package sync

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// StateRepository persists sync bookkeeping (last pull/push watermarks).
type StateRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string) error
}

type StateRepositoryImpl struct {
	db *sql.DB
}

func NewStateRepository(db *sql.DB) *StateRepositoryImpl {
	return &StateRepositoryImpl{db: db}
}

// Get returns the stored value for key, or the empty string when the key
// has never been written.
func (r *StateRepositoryImpl) Get(ctx context.Context, key string) (string, error) {
	row := r.db.QueryRowContext(ctx, "SELECT value FROM sync_state WHERE key = ?", key)

	var value string
	err := row.Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		err := fmt.Errorf("could not read sync state %q: %w", key, err)
		log.Error(err)
		return "", err
	}
	return value, nil
}

func (r *StateRepositoryImpl) Set(ctx context.Context, key string, value string) error {
	query := "INSERT INTO sync_state (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value"
	if _, err := r.db.ExecContext(ctx, query, key, value); err != nil {
		err := fmt.Errorf("could not write sync state %q: %w", key, err)
		log.Error(err)
		return err
	}
	return nil
}

// StubStateRepository is an in-memory StateRepository for tests.
type StubStateRepository struct {
	Values map[string]string
}

func NewStubStateRepository() *StubStateRepository {
	return &StubStateRepository{Values: map[string]string{}}
}

func (s *StubStateRepository) Get(ctx context.Context, key string) (string, error) {
	return s.Values[key], nil
}

func (s *StubStateRepository) Set(ctx context.Context, key string, value string) error {
	s.Values[key] = value
	return nil
}
