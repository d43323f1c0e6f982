package datastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aleister1102/firefoxversions/internal/common"
	"github.com/aleister1102/firefoxversions/internal/snapshot"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// Log levels recorded in agent_logs.
const (
	LevelInfo  = "info"
	LevelError = "error"
)

// utcLayout sorts lexically in chronological order.
const utcLayout = "2006-01-02T15:04:05.000000000Z"

// Store persists agent memory, events and logs in SQLite.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
	now    func() time.Time
}

// Event is an emitted event as stored by the host.
type Event struct {
	ID        string            `json:"id"`
	Agent     string            `json:"agent"`
	Payload   snapshot.Document `json:"payload"`
	CreatedAt time.Time         `json:"created_at"`
}

// LogEntry is one agent log line.
type LogEntry struct {
	ID        int64     `json:"id"`
	Agent     string    `json:"agent"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// NewStore opens the database at path, creating its directory and schema.
// ":memory:" opens a private in-memory database.
func NewStore(path string, logger zerolog.Logger) (*Store, error) {
	logger = logger.With().Str("component", "Store").Logger()
	logger.Info().Str("db_path", path).Msg("Initializing host database connection")

	if path != ":memory:" {
		dbDir := filepath.Dir(path)
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			logger.Error().Err(err).Str("directory", dbDir).Msg("Failed to create database directory")
			return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serializes writes.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, logger: logger, now: time.Now}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		logger.Error().Err(err).Msg("Failed to initialize database schema")
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) migrate() error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA busy_timeout=5000;`,
		`CREATE TABLE IF NOT EXISTS agent_memory (
			agent TEXT NOT NULL,
			key TEXT NOT NULL,
			value TEXT NOT NULL,
			updated_utc TEXT NOT NULL,
			PRIMARY KEY(agent, key)
		);`,
		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			agent TEXT NOT NULL,
			payload_json TEXT NOT NULL,
			created_utc TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_agent_created ON events(agent, created_utc);`,
		`CREATE TABLE IF NOT EXISTS agent_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			agent TEXT NOT NULL,
			level TEXT NOT NULL,
			message TEXT NOT NULL,
			created_utc TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_agent_logs_agent_level ON agent_logs(agent, level, created_utc);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate sqlite schema: %w", err)
		}
	}
	return nil
}

// GetMemory returns the value stored under agent/key and whether it exists.
func (s *Store) GetMemory(ctx context.Context, agent, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM agent_memory WHERE agent = ? AND key = ?`, agent, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read memory %s/%s: %w", agent, key, err)
	}
	return value, true, nil
}

// SetMemory writes value under agent/key.
func (s *Store) SetMemory(ctx context.Context, agent, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO agent_memory (agent, key, value, updated_utc) VALUES (?, ?, ?, ?)
		ON CONFLICT(agent, key) DO UPDATE SET value = excluded.value, updated_utc = excluded.updated_utc`,
		agent, key, value, formatUTC(s.now()))
	if err != nil {
		return fmt.Errorf("write memory %s/%s: %w", agent, key, err)
	}
	return nil
}

// ClearMemory deletes every memory slot of agent.
func (s *Store) ClearMemory(ctx context.Context, agent string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM agent_memory WHERE agent = ?`, agent); err != nil {
		return fmt.Errorf("clear memory of %s: %w", agent, err)
	}
	s.logger.Info().Str("agent", agent).Msg("Cleared agent memory")
	return nil
}

// InsertEvent stores payload as a new event of agent.
func (s *Store) InsertEvent(ctx context.Context, agent string, payload snapshot.Document) (Event, error) {
	event := Event{
		ID:        uuid.NewString(),
		Agent:     agent,
		Payload:   payload,
		CreatedAt: s.now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (id, agent, payload_json, created_utc) VALUES (?, ?, ?, ?)`,
		event.ID, agent, payload.Canonical(), formatUTC(event.CreatedAt))
	if err != nil {
		return Event{}, fmt.Errorf("insert event for %s: %w", agent, err)
	}
	return event, nil
}

// ListEvents returns up to limit events of agent, newest first.
func (s *Store) ListEvents(ctx context.Context, agent string, limit int) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, agent, payload_json, created_utc FROM events
		WHERE agent = ? ORDER BY created_utc DESC, rowid DESC LIMIT ?`, agent, limit)
	if err != nil {
		return nil, fmt.Errorf("list events of %s: %w", agent, err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			event            Event
			payload, created string
		)
		if err := rows.Scan(&event.ID, &event.Agent, &payload, &created); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if event.Payload, err = snapshot.Decode(payload); err != nil {
			return nil, common.WrapErrorf(err, "decode event %s", event.ID)
		}
		if event.CreatedAt, err = parseUTC(created); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// LatestEvent returns the newest event of agent.
func (s *Store) LatestEvent(ctx context.Context, agent string) (Event, bool, error) {
	events, err := s.ListEvents(ctx, agent, 1)
	if err != nil {
		return Event{}, false, err
	}
	if len(events) == 0 {
		return Event{}, false, nil
	}
	return events[0], true, nil
}

// InsertLog records a log line for agent.
func (s *Store) InsertLog(ctx context.Context, agent, level, message string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO agent_logs (agent, level, message, created_utc) VALUES (?, ?, ?, ?)`,
		agent, level, message, formatUTC(s.now()))
	if err != nil {
		return fmt.Errorf("insert log for %s: %w", agent, err)
	}
	return nil
}

// ListLogs returns up to limit log entries of agent, newest first.
func (s *Store) ListLogs(ctx context.Context, agent string, limit int) ([]LogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, agent, level, message, created_utc FROM agent_logs
		WHERE agent = ? ORDER BY id DESC LIMIT ?`, agent, limit)
	if err != nil {
		return nil, fmt.Errorf("list logs of %s: %w", agent, err)
	}
	defer rows.Close()

	var entries []LogEntry
	for rows.Next() {
		var (
			entry   LogEntry
			created string
		)
		if err := rows.Scan(&entry.ID, &entry.Agent, &entry.Level, &entry.Message, &created); err != nil {
			return nil, fmt.Errorf("scan log entry: %w", err)
		}
		if entry.CreatedAt, err = parseUTC(created); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// LastErrorAt returns the time of the newest error log of agent.
func (s *Store) LastErrorAt(ctx context.Context, agent string) (time.Time, bool, error) {
	return s.maxTime(ctx, `SELECT MAX(created_utc) FROM agent_logs WHERE agent = ? AND level = ?`, agent, LevelError)
}

// LastEventAt returns the creation time of the newest event of agent.
func (s *Store) LastEventAt(ctx context.Context, agent string) (time.Time, bool, error) {
	return s.maxTime(ctx, `SELECT MAX(created_utc) FROM events WHERE agent = ?`, agent)
}

func (s *Store) maxTime(ctx context.Context, query string, args ...any) (time.Time, bool, error) {
	var value sql.NullString
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&value); err != nil {
		return time.Time{}, false, fmt.Errorf("query latest time: %w", err)
	}
	if !value.Valid {
		return time.Time{}, false, nil
	}
	t, err := parseUTC(value.String)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}

// ForAgent returns the view of the store owned by one agent instance.
func (s *Store) ForAgent(agent string, errorWindow time.Duration) *AgentStore {
	return &AgentStore{store: s, agent: agent, errorWindow: errorWindow}
}

func formatUTC(t time.Time) string {
	return t.UTC().Format(utcLayout)
}

func parseUTC(value string) (time.Time, error) {
	t, err := time.Parse(utcLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", value, err)
	}
	return t, nil
}
