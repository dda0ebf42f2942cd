// Package settings persists the display settings and the dismissed
// earthquake ids, and notifies subscribers when the settings change.
package settings

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	_ "github.com/mattn/go-sqlite3" // Package sqlite3 provides interface to SQLite3 databases.

	"github.com/Mametango/home-signage-sub000/internal/events"
	"github.com/Mametango/home-signage-sub000/internal/weather"
)

//go:embed schema.sql
var schemaFS embed.FS

const (
	keyLocation    = "location"
	keyPreferences = "preferences"
)

// Preferences are the display toggles.
type Preferences struct {
	AICommentary bool `json:"aiCommentary"`
	Takeover     bool `json:"takeover"`
}

// Settings is the full settings document served to the display.
type Settings struct {
	Location    weather.Location `json:"location"`
	Preferences Preferences      `json:"preferences"`
}

// Store keeps settings in SQLite. Updates are written before subscribers
// are notified.
type Store struct {
	db       *sql.DB
	defaults Settings
	validate *validator.Validate
	changes  *events.Topic[Settings]

	// Serializes read-modify-write of the settings document.
	mu sync.Mutex
}

// Open opens (or creates) the database at path and applies the schema.
// Unset values read back as defaults.
func Open(ctx context.Context, path string, defaults Settings) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetConnMaxIdleTime(15 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	schema, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("error reading schema file: %w", err)
	}
	if _, err := db.ExecContext(ctx, string(schema)); err != nil {
		db.Close()
		return nil, fmt.Errorf("error executing schema file: %w", err)
	}

	return &Store{
		db:       db,
		defaults: defaults,
		validate: validator.New(),
		changes:  events.NewTopic[Settings](),
	}, nil
}

// Close closes the database connection pool.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("error closing database connection: %w", err)
	}
	return nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Subscribe registers fn to receive the settings after every update.
func (s *Store) Subscribe(fn func(Settings)) (unsubscribe func()) {
	return s.changes.Subscribe(fn)
}

func (s *Store) Get(ctx context.Context) (Settings, error) {
	out := s.defaults
	if err := s.load(ctx, keyLocation, &out.Location); err != nil {
		return Settings{}, err
	}
	if err := s.load(ctx, keyPreferences, &out.Preferences); err != nil {
		return Settings{}, err
	}
	return out, nil
}

func (s *Store) UpdateLocation(ctx context.Context, loc weather.Location) (Settings, error) {
	if err := s.validate.Struct(loc); err != nil {
		return Settings{}, fmt.Errorf("invalid location: %w", err)
	}
	return s.update(ctx, keyLocation, loc)
}

func (s *Store) UpdatePreferences(ctx context.Context, prefs Preferences) (Settings, error) {
	return s.update(ctx, keyPreferences, prefs)
}

func (s *Store) update(ctx context.Context, key string, value any) (Settings, error) {
	s.mu.Lock()
	if err := s.save(ctx, key, value); err != nil {
		s.mu.Unlock()
		return Settings{}, err
	}
	current, err := s.Get(ctx)
	s.mu.Unlock()
	if err != nil {
		return Settings{}, err
	}

	s.changes.Publish(current)
	return current, nil
}

func (s *Store) load(ctx context.Context, key string, out any) error {
	var raw string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key=$1", key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("error reading %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("error decoding %s: %w", key, err)
	}
	return nil
}

func (s *Store) save(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	query := `INSERT INTO kv (key, value, updated_at) VALUES ($1, $2, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`
	if _, err := s.db.ExecContext(ctx, query, key, string(raw)); err != nil {
		return fmt.Errorf("error storing %s: %w", key, err)
	}
	return nil
}

// Dismiss records an earthquake report id as dismissed. Dismissing twice is a no-op.
func (s *Store) Dismiss(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("empty report id")
	}
	if _, err := s.db.ExecContext(ctx, "INSERT OR IGNORE INTO dismissed_quakes (id) VALUES ($1)", id); err != nil {
		return fmt.Errorf("error storing dismissed report: %w", err)
	}
	return nil
}

// Dismissed returns the set of dismissed report ids.
func (s *Store) Dismissed(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id FROM dismissed_quakes")
	if err != nil {
		return nil, fmt.Errorf("error reading dismissed reports: %w", err)
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}
