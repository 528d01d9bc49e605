// Package persistence stores the versioned game snapshot and the event log
// in SQL (sqlite by default, postgres via environment), and exports
// compressed snapshot files for backup and transfer.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/sirsapient/slangbang/internal/engine"
	"github.com/sirsapient/slangbang/internal/game"
)

// Dialect selects the SQL backend.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Store wraps a SQL connection for game state persistence.
type Store struct {
	dialect Dialect
	conn    *sqlx.DB
}

// Open opens or creates a sqlite store at the given path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return newStore(DialectSQLite, conn)
}

// OpenFromEnv picks the backend from the environment: DB_DIALECT of
// "sqlite" (default, path in DB_SQLITE_PATH) or "postgres" (DSN in
// DATABASE_URL).
func OpenFromEnv() (*Store, error) {
	dialect := strings.TrimSpace(strings.ToLower(os.Getenv("DB_DIALECT")))
	switch Dialect(dialect) {
	case DialectPostgres:
		dsn := strings.TrimSpace(os.Getenv("DATABASE_URL"))
		if dsn == "" {
			return nil, fmt.Errorf("DB_DIALECT=postgres requires DATABASE_URL")
		}
		conn, err := sqlx.Open("pgx", dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return newStore(DialectPostgres, conn)
	case DialectSQLite, "":
		path := strings.TrimSpace(os.Getenv("DB_SQLITE_PATH"))
		if path == "" {
			path = filepath.Join("data", "slangbang.db")
		}
		return Open(path)
	default:
		return nil, fmt.Errorf("unknown DB_DIALECT %q", dialect)
	}
}

func newStore(dialect Dialect, conn *sqlx.DB) (*Store, error) {
	s := &Store{dialect: dialect, conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	serial := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if s.dialect == DialectPostgres {
		serial = "BIGSERIAL PRIMARY KEY"
	}
	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS saves (
		id INTEGER PRIMARY KEY,
		save_version INTEGER NOT NULL,
		saved_at TEXT NOT NULL,
		data TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id %s,
		day INTEGER NOT NULL,
		kind TEXT NOT NULL,
		city TEXT NOT NULL DEFAULT '',
		commodity TEXT NOT NULL DEFAULT '',
		delta INTEGER NOT NULL DEFAULT 0,
		value INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_day ON events(day);
	`, serial)
	_, err := s.conn.Exec(schema)
	return err
}

// SaveSnapshot writes the full game snapshot (single-slot, full replace).
func (s *Store) SaveSnapshot(snap engine.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	tx, err := s.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM saves"); err != nil {
		return err
	}
	_, err = tx.Exec(
		s.conn.Rebind("INSERT INTO saves (id, save_version, saved_at, data) VALUES (1, ?, ?, ?)"),
		snap.SaveVersion, snap.SavedAt.Format("2006-01-02T15:04:05Z07:00"), string(data),
	)
	if err != nil {
		return fmt.Errorf("insert save: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	slog.Info("game saved", "version", snap.SaveVersion, "day", snap.Ledger.Day)
	return nil
}

// LoadSnapshot reads the stored snapshot. The second return is false when
// no save exists. Unknown fields in the stored JSON are ignored and absent
// fields stay zero, matching the engine's merge-load semantics.
func (s *Store) LoadSnapshot() (engine.Snapshot, bool, error) {
	var raw string
	err := s.conn.Get(&raw, "SELECT data FROM saves WHERE id = 1")
	if errors.Is(err, sql.ErrNoRows) {
		return engine.Snapshot{}, false, nil
	}
	if err != nil {
		return engine.Snapshot{}, false, fmt.Errorf("load save: %w", err)
	}

	var snap engine.Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return engine.Snapshot{}, false, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, true, nil
}

// AppendEvents adds emitted events to the append-only log.
func (s *Store) AppendEvents(events []game.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	insert := s.conn.Rebind(
		"INSERT INTO events (day, kind, city, commodity, delta, value) VALUES (?, ?, ?, ?, ?, ?)")
	for _, e := range events {
		if _, err := tx.Exec(insert, e.Day, string(e.Kind), e.City, e.Commodity, e.Delta, e.Value); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// RecentEvents returns the most recent N logged events.
func (s *Store) RecentEvents(limit int) ([]game.Event, error) {
	rows, err := s.conn.Queryx(
		s.conn.Rebind("SELECT day, kind, city, commodity, delta, value FROM events ORDER BY id DESC LIMIT ?"),
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []game.Event
	for rows.Next() {
		var day, delta, value int
		var kind, city, commodity string
		if err := rows.Scan(&day, &kind, &city, &commodity, &delta, &value); err != nil {
			return nil, err
		}
		events = append(events, game.Event{
			Day: day, Kind: game.EventKind(kind), City: city,
			Commodity: commodity, Delta: delta, Value: value,
		})
	}
	return events, rows.Err()
}

// SaveMeta stores a key-value pair.
func (s *Store) SaveMeta(key, value string) error {
	var query string
	if s.dialect == DialectPostgres {
		query = "INSERT INTO meta (key, value) VALUES ($1, $2) ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value"
	} else {
		query = "INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)"
	}
	_, err := s.conn.Exec(query, key, value)
	return err
}

// GetMeta retrieves a metadata value. Empty string when absent.
func (s *Store) GetMeta(key string) (string, error) {
	var value string
	err := s.conn.Get(&value, s.conn.Rebind("SELECT value FROM meta WHERE key = ?"), key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

const metaTickKey = "tick"

// SaveTick records the driver's tick cursor so the day and autosave cadence
// keep their phase across restarts.
func (s *Store) SaveTick(tick uint64) error {
	return s.SaveMeta(metaTickKey, strconv.FormatUint(tick, 10))
}

// LoadTick reads the saved tick cursor. Zero when nothing was saved.
func (s *Store) LoadTick() (uint64, error) {
	raw, err := s.GetMeta(metaTickKey)
	if err != nil || raw == "" {
		return 0, err
	}
	tick, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt tick cursor %q: %w", raw, err)
	}
	return tick, nil
}
