package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Store wraps the SQLite database holding push records, the per-day
// seen registry, and retained reports.
type Store struct {
	conn *sql.DB
	path string
}

// Open creates or opens the store at the given path and prunes
// records older than retentionDays. Pruning failures are logged,
// never fatal.
func Open(dbPath string, retentionDays int) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if err := migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	s := &Store{conn: conn, path: dbPath}
	s.CleanupOld(retentionDays)
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Stats summarizes store contents for the status command.
type Stats struct {
	PushRecords int
	Reports     int
	SeenToday   int
	PushedToday bool
}

// GetStats returns store-wide counters.
func (s *Store) GetStats() (*Stats, error) {
	st := &Stats{}
	if err := s.conn.QueryRow("SELECT COUNT(*) FROM push_records").Scan(&st.PushRecords); err != nil {
		return nil, fmt.Errorf("counting push records: %w", err)
	}
	if err := s.conn.QueryRow("SELECT COUNT(*) FROM reports").Scan(&st.Reports); err != nil {
		return nil, fmt.Errorf("counting reports: %w", err)
	}
	today := TodayKey()
	if err := s.conn.QueryRow("SELECT COUNT(*) FROM seen_titles WHERE date_key = ?", today).Scan(&st.SeenToday); err != nil {
		return nil, fmt.Errorf("counting seen titles: %w", err)
	}
	st.PushedToday = s.HasPushed(today)
	return st, nil
}
