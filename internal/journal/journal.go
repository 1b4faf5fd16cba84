// internal/journal/journal.go
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// Event kinds.
const (
	KindModeChange        = "MODE_CHANGE"
	KindCalibrationStart  = "CALIBRATION_START"
	KindCalibrationStop   = "CALIBRATION_STOP"
	KindCalibrationFailed = "CALIBRATION_FAILED"
	KindCommunicationLost = "COMMUNICATION_LOST"
)

// Event is one journaled state change or operator command.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	DeviceID  string    `json:"device"`
	Kind      string    `json:"kind"`
	Value     string    `json:"value,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    timestamp TEXT NOT NULL,
    device_id TEXT NOT NULL,
    kind TEXT NOT NULL,
    value TEXT,
    detail TEXT
);
CREATE INDEX IF NOT EXISTS events_device ON events (device_id, id);`

const timeLayout = "2006-01-02 15:04:05.000"

// Journal appends events to a sqlite database from a single writer goroutine.
type Journal struct {
	db     *sql.DB
	events chan Event
	log    zerolog.Logger
}

// Open opens (or creates) the database at path.
func Open(path string, log zerolog.Logger) (*Journal, error) {
	if path == "" {
		return nil, errors.New("journal: path required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}
	// One connection keeps sqlite writes ordered and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: create schema: %w", err)
	}

	return &Journal{
		db:     db,
		events: make(chan Event, 256),
		log:    log,
	}, nil
}

// Record queues ev without blocking. A full queue drops the event.
func (j *Journal) Record(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	select {
	case j.events <- ev:
	default:
		j.log.Warn().Str("device", ev.DeviceID).Str("kind", ev.Kind).Msg("journal queue full, event dropped")
	}
}

// Run writes queued events until ctx is cancelled, then flushes what is left.
func (j *Journal) Run(ctx context.Context) {
	j.log.Debug().Msg("journal writer started")
	for {
		select {
		case ev := <-j.events:
			j.write(ev)
		case <-ctx.Done():
			for len(j.events) > 0 {
				j.write(<-j.events)
			}
			j.log.Debug().Msg("journal writer stopped")
			return
		}
	}
}

func (j *Journal) write(ev Event) {
	_, err := j.db.Exec(
		"INSERT INTO events(timestamp, device_id, kind, value, detail) VALUES(?, ?, ?, ?, ?)",
		ev.Timestamp.UTC().Format(timeLayout), ev.DeviceID, ev.Kind, ev.Value, ev.Detail,
	)
	if err != nil {
		j.log.Error().Err(err).Str("device", ev.DeviceID).Msg("journal insert failed")
	}
}

// Recent returns up to limit events of one device, newest first.
func (j *Journal) Recent(ctx context.Context, deviceID string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx,
		"SELECT timestamp, device_id, kind, value, detail FROM events WHERE device_id = ? ORDER BY id DESC LIMIT ?",
		deviceID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("journal: query: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var ev Event
		var ts string
		var value, detail sql.NullString
		if err := rows.Scan(&ts, &ev.DeviceID, &ev.Kind, &value, &detail); err != nil {
			return nil, fmt.Errorf("journal: scan: %w", err)
		}
		if t, err := time.Parse(timeLayout, ts); err == nil {
			ev.Timestamp = t
		}
		ev.Value = value.String
		ev.Detail = detail.String
		out = append(out, ev)
	}
	return out, rows.Err()
}

// Close closes the database. Call after Run has returned.
func (j *Journal) Close() error {
	return j.db.Close()
}
