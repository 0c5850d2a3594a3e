// Package store keeps a SQLite log of color readings.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mklimuk/colorsensor/color"
)

const timeFormat = "2006-01-02 15:04:05.000"

var ErrNotFound = errors.New("reading not found")

// Reading is one stored measurement.
type Reading struct {
	ID        int64                 `yaml:"id"`
	Timestamp time.Time             `yaml:"timestamp"`
	Raw       color.RawChannels     `yaml:"raw"`
	Color     color.NormalizedColor `yaml:"color"`
}

type Store struct {
	db *sql.DB
}

// Open opens (and creates when missing) the database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	schema := `
	CREATE TABLE IF NOT EXISTS color_readings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		clear INTEGER NOT NULL,
		red_raw INTEGER NOT NULL,
		green_raw INTEGER NOT NULL,
		blue_raw INTEGER NOT NULL,
		r INTEGER NOT NULL,
		g INTEGER NOT NULL,
		b INTEGER NOT NULL,
		timestamp TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_color_timestamp ON color_readings(timestamp);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Save stores the reading and sets its ID. A zero timestamp is replaced with now.
func (s *Store) Save(ctx context.Context, r *Reading) error {
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO color_readings (clear, red_raw, green_raw, blue_raw, r, g, b, timestamp) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Raw.Clear, r.Raw.Red, r.Raw.Green, r.Raw.Blue,
		r.Color.R, r.Color.G, r.Color.B,
		r.Timestamp.UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("failed to insert reading: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get insert id: %w", err)
	}
	r.ID = id
	return nil
}

const selectReading = `SELECT id, clear, red_raw, green_raw, blue_raw, r, g, b, timestamp FROM color_readings`

type scanner interface {
	Scan(dest ...any) error
}

func scanReading(row scanner) (*Reading, error) {
	var r Reading
	var ts string
	err := row.Scan(&r.ID, &r.Raw.Clear, &r.Raw.Red, &r.Raw.Green, &r.Raw.Blue, &r.Color.R, &r.Color.G, &r.Color.B, &ts)
	if err != nil {
		return nil, err
	}
	r.Timestamp, err = time.ParseInLocation(timeFormat, ts, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("failed to parse timestamp: %w", err)
	}
	return &r, nil
}

// Latest returns the most recent reading.
func (s *Store) Latest(ctx context.Context) (*Reading, error) {
	row := s.db.QueryRowContext(ctx, selectReading+` ORDER BY timestamp DESC, id DESC LIMIT 1`)
	r, err := scanReading(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest reading: %w", err)
	}
	return r, nil
}

// Since returns readings taken at or after start, oldest first.
func (s *Store) Since(ctx context.Context, start time.Time) ([]*Reading, error) {
	rows, err := s.db.QueryContext(ctx, selectReading+` WHERE timestamp >= ? ORDER BY timestamp ASC, id ASC`,
		start.UTC().Format(timeFormat))
	if err != nil {
		return nil, fmt.Errorf("failed to query readings: %w", err)
	}
	defer rows.Close()
	var readings []*Reading
	for rows.Next() {
		r, err := scanReading(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reading: %w", err)
		}
		readings = append(readings, r)
	}
	return readings, rows.Err()
}

// Prune removes readings older than the given age.
func (s *Store) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan).UTC().Format(timeFormat)
	res, err := s.db.ExecContext(ctx, `DELETE FROM color_readings WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old readings: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) Close() error {
	return s.db.Close()
}
