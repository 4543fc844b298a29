// Package ledger keeps an append-only SQLite history of donations and mode
// changes for the status page. It is an audit log only; controller state is
// never restored from it.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/sweeney/donation-box/internal/event"
)

// Kind values stored in the event_type column.
const (
	KindDonation   = "donation"
	KindModeChange = "mode_change"
)

const queueSize = 256

var ErrClosed = errors.New("ledger closed")

// Entry is one ledger row.
type Entry struct {
	ID        int64     `json:"id"`
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	Mode      string    `json:"mode"`
	From      string    `json:"from,omitempty"`
	Reason    string    `json:"reason,omitempty"`
}

type request struct {
	entry Entry
	sync  chan struct{} // non-nil for a flush marker
}

// Ledger writes entries on a background goroutine so the control loop never
// waits on the disk.
type Ledger struct {
	db    *sql.DB
	queue chan request
	done  chan struct{}

	mu        sync.RWMutex // guards closed against sends on queue
	closed    bool
	closeOnce sync.Once
	closeErr  error
}

// Open opens (or creates) the database at path and starts the writer.
func Open(path string) (*Ledger, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init ledger schema: %w", err)
	}

	l := &Ledger{
		db:    db,
		queue: make(chan request, queueSize),
		done:  make(chan struct{}),
	}
	go l.run()
	return l, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS event_ledger (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			event_type TEXT NOT NULL,
			timestamp INTEGER NOT NULL,
			mode TEXT NOT NULL,
			from_mode TEXT,
			reason TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_ledger_type_ts ON event_ledger(event_type, timestamp);
	`)
	return err
}

func (l *Ledger) run() {
	defer close(l.done)
	for req := range l.queue {
		if req.sync != nil {
			close(req.sync)
			continue
		}
		if err := l.insert(req.entry); err != nil {
			log.Warn().Err(err).Str("kind", req.entry.Kind).Msg("ledger write failed")
		}
	}
}

func (l *Ledger) insert(e Entry) error {
	_, err := l.db.Exec(
		`INSERT INTO event_ledger (event_type, timestamp, mode, from_mode, reason) VALUES (?, ?, ?, ?, ?)`,
		e.Kind, e.Timestamp.UnixMilli(), e.Mode, e.From, e.Reason,
	)
	return err
}

func (l *Ledger) enqueue(e Entry) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return ErrClosed
	}
	select {
	case l.queue <- request{entry: e}:
		return nil
	default:
		return fmt.Errorf("ledger queue full, dropped %s", e.Kind)
	}
}

// Donation records a donation.
func (l *Ledger) Donation(e event.Donation) error {
	return l.enqueue(Entry{Kind: KindDonation, Timestamp: e.Timestamp, Mode: e.Mode})
}

// ModeChanged records a mode change.
func (l *Ledger) ModeChanged(e event.ModeChange) error {
	return l.enqueue(Entry{Kind: KindModeChange, Timestamp: e.Timestamp, Mode: e.To, From: e.From, Reason: string(e.Reason)})
}

// Heartbeat is not recorded.
func (l *Ledger) Heartbeat(event.Heartbeat) error {
	return nil
}

// Sync blocks until every entry queued before the call has been written.
func (l *Ledger) Sync(ctx context.Context) error {
	marker := make(chan struct{})
	if err := l.send(ctx, request{sync: marker}); err != nil {
		return err
	}
	select {
	case <-marker:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Ledger) send(ctx context.Context, req request) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return ErrClosed
	}
	select {
	case l.queue <- req:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Recent returns up to limit entries, newest first.
func (l *Ledger) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, event_type, timestamp, mode, COALESCE(from_mode, ''), COALESCE(reason, '')
		 FROM event_ledger ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var ms int64
		if err := rows.Scan(&e.ID, &e.Kind, &ms, &e.Mode, &e.From, &e.Reason); err != nil {
			return nil, fmt.Errorf("scan ledger: %w", err)
		}
		e.Timestamp = time.UnixMilli(ms).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// Totals returns the number of donations per mode name since the ledger was
// created.
func (l *Ledger) Totals(ctx context.Context) (map[string]int, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT mode, COUNT(*) FROM event_ledger WHERE event_type = ? GROUP BY mode`, KindDonation)
	if err != nil {
		return nil, fmt.Errorf("query totals: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]int)
	for rows.Next() {
		var mode string
		var n int
		if err := rows.Scan(&mode, &n); err != nil {
			return nil, fmt.Errorf("scan totals: %w", err)
		}
		totals[mode] = n
	}
	return totals, rows.Err()
}

// Close stops the writer after draining the queue and closes the database.
// Later calls return the first result; writes after Close return ErrClosed.
func (l *Ledger) Close() error {
	l.closeOnce.Do(func() {
		l.mu.Lock()
		l.closed = true
		close(l.queue)
		l.mu.Unlock()

		<-l.done
		l.closeErr = l.db.Close()
	})
	return l.closeErr
}
