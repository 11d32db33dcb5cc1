// Package state persists the time of the last successful sync outside the
// relational stores.
package state

import (
	"context"
	"encoding/json"
	"strings"
	"time"
)

// State is the persisted sync record. A zero LastSync means never synced.
type State struct {
	LastSync time.Time
}

// Never reports whether no sync has completed yet.
func (s State) Never() bool {
	return s.LastSync.IsZero()
}

// Store loads and saves the sync record.
type Store interface {
	// Load returns the stored state. A missing, unreadable or corrupt record
	// yields the zero State; Load never fails.
	Load(ctx context.Context) State

	// Save replaces the record with t. Call it only once a run has fully
	// succeeded.
	Save(ctx context.Context, t time.Time) error

	// Describe names the backing location for logs and status output.
	Describe() string
}

// record is the on-disk shape: {"last_sync": "<timestamp>"} or null.
type record struct {
	LastSync *string `json:"last_sync"`
}

// legacyLayouts accepts timestamps written without a zone offset; they are
// read as local time.
var legacyLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func encode(t time.Time) ([]byte, error) {
	ts := t.UTC().Format(time.RFC3339Nano)
	return json.Marshal(record{LastSync: &ts})
}

// decode parses a record. An explicit null is a valid never-synced record.
func decode(data []byte) (State, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return State{}, err
	}
	if rec.LastSync == nil || strings.TrimSpace(*rec.LastSync) == "" {
		return State{}, nil
	}

	raw := strings.TrimSpace(*rec.LastSync)
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err == nil {
		return State{LastSync: t}, nil
	}
	for _, layout := range legacyLayouts {
		if lt, lerr := time.ParseInLocation(layout, raw, time.Local); lerr == nil {
			return State{LastSync: lt}, nil
		}
	}
	return State{}, err
}
