// Package sync replicates the journal against a remote endpoint. The
// protocol is pull-first, push-second over JSON, authenticated with a static
// token header; conflicts resolve by newest updated_at.
package sync

import (
	"fmt"
	"time"

	"github.com/dojolog/dojolog/pkg/entry"
)

const (
	lastPullKey = "last_pull"
	lastPushKey = "last_push"
)

// Item is the wire form of a day entry, tombstones included.
type Item struct {
	UID             string `json:"uid"`
	Date            string `json:"date"`
	Activity        string `json:"activity_type"`
	DurationMinutes int    `json:"duration_minutes"`
	RPE             *int   `json:"rpe"`
	EnergyLevel     *int   `json:"energy_level"`
	Emphasis        string `json:"session_emphasis"`
	Notes           string `json:"notes"`
	UpdatedAt       int64  `json:"updated_at"`
	Deleted         bool   `json:"deleted"`
}

// Result summarizes one sync run.
type Result struct {
	Pulled          int `json:"pulled"`
	UpsertedLocally int `json:"upsertedLocally"`
	Pushed          int `json:"pushed"`
}

// Status reports sync bookkeeping without touching the network.
type Status struct {
	LastPull      *time.Time `json:"lastPull"`
	LastPush      *time.Time `json:"lastPush"`
	PendingChange bool       `json:"pendingChange"`
}

func itemToEntry(item Item) (entry.DayEntry, error) {
	date, err := time.ParseInLocation(entry.DateFormat, item.Date, time.UTC)
	if err != nil {
		return entry.DayEntry{}, fmt.Errorf("remote item %s has corrupt date %q: %w", item.UID, item.Date, err)
	}
	return entry.DayEntry{
		UID:             item.UID,
		Date:            date,
		Activity:        entry.ActivityType(item.Activity),
		DurationMinutes: item.DurationMinutes,
		RPE:             item.RPE,
		EnergyLevel:     item.EnergyLevel,
		Emphasis:        entry.Emphasis(item.Emphasis),
		Notes:           item.Notes,
		UpdatedAt:       time.Unix(item.UpdatedAt, 0).UTC(),
		Deleted:         item.Deleted,
	}, nil
}

func entryToItem(e entry.DayEntry) Item {
	return Item{
		UID:             e.UID,
		Date:            e.Date.Format(entry.DateFormat),
		Activity:        string(e.Activity),
		DurationMinutes: e.DurationMinutes,
		RPE:             e.RPE,
		EnergyLevel:     e.EnergyLevel,
		Emphasis:        string(e.Emphasis),
		Notes:           e.Notes,
		UpdatedAt:       e.UpdatedAt.Unix(),
		Deleted:         e.Deleted,
	}
}
