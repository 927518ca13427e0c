package journal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tradehall/tradehall/internal/telemetry"

	_ "modernc.org/sqlite"
)

// Store persists every applied order notification in a FIFO SQLite
// database so a session's reconciliation history can be inspected after
// the fact. Oldest 10% of rows are evicted when the row cap is exceeded.
type Store struct {
	db      *sql.DB
	mu      sync.Mutex
	maxRows int
	rows    int64
}

// Entry is one applied notification.
type Entry struct {
	EventID   string
	OrderID   string
	Kind      string
	AppliedAt time.Time
}

const schema = `CREATE TABLE IF NOT EXISTS notifications (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	event_id   TEXT NOT NULL,
	order_id   TEXT NOT NULL,
	kind       TEXT NOT NULL,
	applied_at TEXT NOT NULL
)`

func Open(path string, maxRows int) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init journal schema: %w", err)
	}

	var rows int64
	db.QueryRow(`SELECT COUNT(*) FROM notifications`).Scan(&rows)

	telemetry.Debugf("journal: opened %s rows=%d", path, rows)
	return &Store{db: db, maxRows: maxRows, rows: rows}, nil
}

func (s *Store) Append(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO notifications (event_id, order_id, kind, applied_at) VALUES (?,?,?,?)`,
		e.EventID, e.OrderID, e.Kind, e.AppliedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("journal append: %w", err)
	}
	s.rows++

	if s.maxRows > 0 && s.rows > int64(s.maxRows) {
		evict := s.rows / 10
		if evict < 1 {
			evict = 1
		}
		res, err := s.db.Exec(
			`DELETE FROM notifications WHERE id IN (SELECT id FROM notifications ORDER BY id ASC LIMIT ?)`, evict,
		)
		if err != nil {
			telemetry.Warnf("journal: prune failed: %v", err)
			return nil
		}
		if n, err := res.RowsAffected(); err == nil {
			s.rows -= n
		}
	}
	return nil
}

// Recent returns up to n entries, newest first.
func (s *Store) Recent(n int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		`SELECT event_id, order_id, kind, applied_at FROM notifications ORDER BY id DESC LIMIT ?`, n,
	)
	if err != nil {
		return nil, fmt.Errorf("journal recent: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var ts string
		if err := rows.Scan(&e.EventID, &e.OrderID, &e.Kind, &ts); err != nil {
			return nil, fmt.Errorf("journal scan: %w", err)
		}
		e.AppliedAt, _ = time.Parse(time.RFC3339Nano, ts)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
