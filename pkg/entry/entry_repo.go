package entry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

type Repository interface {
	Store(ctx context.Context, entry DayEntry) (DayEntry, error)
	Update(ctx context.Context, entry DayEntry) (DayEntry, error)
	Delete(ctx context.Context, uid string) error
	FindByDate(ctx context.Context, date time.Time) (*DayEntry, error)
	FindRange(ctx context.Context, from time.Time, to time.Time) ([]DayEntry, error)
	UpsertBatch(ctx context.Context, entries []DayEntry) (int, error)
	ChangedSince(ctx context.Context, since time.Time) ([]DayEntry, error)
}

type RepositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

const entryColumns = "id, uid, entry_date, activity_type, duration_minutes, rpe, energy_level, session_emphasis, notes, updated_at, deleted"

// Store inserts a new entry. A soft-deleted row for the same date is
// resurrected in place so the one-entry-per-date constraint holds across
// tombstones.
func (r *RepositoryImpl) Store(ctx context.Context, entry DayEntry) (DayEntry, error) {
	existing, err := r.findRowByDate(ctx, entry.Date, true)
	if err != nil {
		return DayEntry{}, err
	}
	if existing != nil {
		if !existing.Deleted {
			return DayEntry{}, ErrDuplicateDate
		}
		entry.ID = existing.ID
		return r.writeRow(ctx, entry)
	}

	query := `INSERT INTO day_entry
		(uid, entry_date, activity_type, duration_minutes, rpe, energy_level, session_emphasis, notes, updated_at, deleted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0)`

	stmt, err := r.db.PrepareContext(ctx, query)
	if err != nil {
		err := fmt.Errorf("could not prepare query: %w", err)
		log.Error(err)
		return DayEntry{}, err
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx,
		entry.UID,
		entry.Date.Format(DateFormat),
		string(entry.Activity),
		entry.DurationMinutes,
		entry.RPE,
		entry.EnergyLevel,
		nullableEmphasis(entry.Emphasis),
		entry.Notes,
		entry.UpdatedAt.Unix(),
	)
	if err != nil {
		err := fmt.Errorf("could not execute query: %w", err)
		log.Error(err)
		return DayEntry{}, err
	}

	lastInsertID, err := result.LastInsertId()
	if err != nil {
		err := fmt.Errorf("could not retrieve last insert id: %w", err)
		log.Error(err)
		return DayEntry{}, err
	}
	entry.ID = int(lastInsertID)

	return entry, nil
}

// Update rewrites the entry identified by its UID.
func (r *RepositoryImpl) Update(ctx context.Context, entry DayEntry) (DayEntry, error) {
	query := `UPDATE day_entry
		SET entry_date = ?, activity_type = ?, duration_minutes = ?, rpe = ?,
		    energy_level = ?, session_emphasis = ?, notes = ?, updated_at = ?, deleted = 0
		WHERE uid = ?`

	result, err := r.db.ExecContext(ctx, query,
		entry.Date.Format(DateFormat),
		string(entry.Activity),
		entry.DurationMinutes,
		entry.RPE,
		entry.EnergyLevel,
		nullableEmphasis(entry.Emphasis),
		entry.Notes,
		entry.UpdatedAt.Unix(),
		entry.UID,
	)
	if err != nil {
		err := fmt.Errorf("could not execute query: %w", err)
		log.Error(err)
		return DayEntry{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return DayEntry{}, fmt.Errorf("could not read affected rows: %w", err)
	}
	if affected == 0 {
		return DayEntry{}, ErrNotFound
	}
	return entry, nil
}

// Delete marks an entry as deleted. The tombstone stays behind for sync.
func (r *RepositoryImpl) Delete(ctx context.Context, uid string) error {
	query := "UPDATE day_entry SET deleted = 1, updated_at = ? WHERE uid = ? AND deleted = 0"
	result, err := r.db.ExecContext(ctx, query, time.Now().Unix(), uid)
	if err != nil {
		err := fmt.Errorf("could not execute query: %w", err)
		log.Error(err)
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *RepositoryImpl) FindByDate(ctx context.Context, date time.Time) (*DayEntry, error) {
	return r.findRowByDate(ctx, date, false)
}

// FindRange returns all live entries with dates in [from, to], ordered by
// date ascending.
func (r *RepositoryImpl) FindRange(ctx context.Context, from time.Time, to time.Time) ([]DayEntry, error) {
	query := "SELECT " + entryColumns + ` FROM day_entry
		WHERE deleted = 0 AND entry_date >= ? AND entry_date <= ?
		ORDER BY entry_date ASC`

	rows, err := r.db.QueryContext(ctx, query, from.Format(DateFormat), to.Format(DateFormat))
	if err != nil {
		err := fmt.Errorf("could not execute query: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	return scanEntries(rows)
}

// UpsertBatch applies remote items locally. An incoming item wins only when
// its updated_at is newer than the local row's; the returned count is the
// number of rows actually written.
func (r *RepositoryImpl) UpsertBatch(ctx context.Context, entries []DayEntry) (int, error) {
	applied := 0
	for _, e := range entries {
		ok, err := r.upsertOne(ctx, e)
		if err != nil {
			return applied, err
		}
		if ok {
			applied++
		}
	}
	return applied, nil
}

// ChangedSince returns all rows, tombstones included, modified strictly
// after the given instant.
func (r *RepositoryImpl) ChangedSince(ctx context.Context, since time.Time) ([]DayEntry, error) {
	query := "SELECT " + entryColumns + " FROM day_entry WHERE updated_at > ? ORDER BY updated_at ASC"

	rows, err := r.db.QueryContext(ctx, query, since.Unix())
	if err != nil {
		err := fmt.Errorf("could not execute query: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	return scanEntries(rows)
}

func (r *RepositoryImpl) upsertOne(ctx context.Context, e DayEntry) (bool, error) {
	row := r.db.QueryRowContext(ctx, "SELECT id, updated_at FROM day_entry WHERE uid = ?", e.UID)

	var id int
	var updatedAtUnix int64
	err := row.Scan(&id, &updatedAtUnix)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// A different UID may already own this date; the remote item wins.
		_, err := r.db.ExecContext(ctx, "DELETE FROM day_entry WHERE entry_date = ?", e.Date.Format(DateFormat))
		if err != nil {
			return false, fmt.Errorf("could not clear conflicting date: %w", err)
		}
		_, err = r.Store(ctx, e)
		if err != nil {
			return false, err
		}
		if e.Deleted {
			// Keep the tombstone state the remote reported.
			if _, err := r.db.ExecContext(ctx, "UPDATE day_entry SET deleted = 1 WHERE uid = ?", e.UID); err != nil {
				return false, fmt.Errorf("could not mark upserted entry deleted: %w", err)
			}
		}
		return true, nil
	case err != nil:
		err := fmt.Errorf("could not look up entry for upsert: %w", err)
		log.Error(err)
		return false, err
	}

	if !e.UpdatedAt.After(time.Unix(updatedAtUnix, 0)) {
		return false, nil
	}

	query := `UPDATE day_entry
		SET entry_date = ?, activity_type = ?, duration_minutes = ?, rpe = ?,
		    energy_level = ?, session_emphasis = ?, notes = ?, updated_at = ?, deleted = ?
		WHERE id = ?`
	_, err = r.db.ExecContext(ctx, query,
		e.Date.Format(DateFormat),
		string(e.Activity),
		e.DurationMinutes,
		e.RPE,
		e.EnergyLevel,
		nullableEmphasis(e.Emphasis),
		e.Notes,
		e.UpdatedAt.Unix(),
		e.Deleted,
		id,
	)
	if err != nil {
		err := fmt.Errorf("could not execute query: %w", err)
		log.Error(err)
		return false, err
	}
	return true, nil
}

func (r *RepositoryImpl) findRowByDate(ctx context.Context, date time.Time, includeDeleted bool) (*DayEntry, error) {
	query := "SELECT " + entryColumns + " FROM day_entry WHERE entry_date = ?"
	if !includeDeleted {
		query += " AND deleted = 0"
	}

	row := r.db.QueryRowContext(ctx, query, date.Format(DateFormat))
	e, err := scanEntry(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		err := fmt.Errorf("could not find entry by date: %w", err)
		log.Error(err)
		return nil, err
	}
	return &e, nil
}

// writeRow overwrites a row by primary key, used to resurrect tombstones.
func (r *RepositoryImpl) writeRow(ctx context.Context, e DayEntry) (DayEntry, error) {
	query := `UPDATE day_entry
		SET uid = ?, activity_type = ?, duration_minutes = ?, rpe = ?,
		    energy_level = ?, session_emphasis = ?, notes = ?, updated_at = ?, deleted = 0
		WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query,
		e.UID,
		string(e.Activity),
		e.DurationMinutes,
		e.RPE,
		e.EnergyLevel,
		nullableEmphasis(e.Emphasis),
		e.Notes,
		e.UpdatedAt.Unix(),
		e.ID,
	)
	if err != nil {
		err := fmt.Errorf("could not execute query: %w", err)
		log.Error(err)
		return DayEntry{}, err
	}
	e.Deleted = false
	return e, nil
}

func scanEntries(rows *sql.Rows) ([]DayEntry, error) {
	entries := make([]DayEntry, 0)
	for rows.Next() {
		e, err := scanEntry(rows.Scan)
		if err != nil {
			err := fmt.Errorf("could not scan entry row: %w", err)
			log.Error(err)
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}
	return entries, nil
}

func scanEntry(scan func(dest ...any) error) (DayEntry, error) {
	var e DayEntry
	var dateStr string
	var activity string
	var emphasis sql.NullString
	var notes sql.NullString
	var updatedAtUnix int64

	err := scan(&e.ID, &e.UID, &dateStr, &activity, &e.DurationMinutes,
		&e.RPE, &e.EnergyLevel, &emphasis, &notes, &updatedAtUnix, &e.Deleted)
	if err != nil {
		return DayEntry{}, err
	}

	date, err := time.ParseInLocation(DateFormat, dateStr, time.UTC)
	if err != nil {
		return DayEntry{}, fmt.Errorf("corrupt entry date %q: %w", dateStr, err)
	}
	e.Date = date
	e.Activity = ActivityType(activity)
	e.Emphasis = Emphasis(emphasis.String)
	e.Notes = notes.String
	e.UpdatedAt = time.Unix(updatedAtUnix, 0).UTC()

	return e, nil
}

func nullableEmphasis(e Emphasis) *string {
	if e == EmphasisNone {
		return nil
	}
	s := string(e)
	return &s
}
