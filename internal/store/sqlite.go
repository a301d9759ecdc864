package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"github.com/i474232898/weather-sync/internal/stream"
	"github.com/i474232898/weather-sync/internal/weather"
)

//go:embed migrations/*.sql
var migrations embed.FS

const weatherTable = "weather"

// SQLiteStore implements weather.Store backed by SQLite. Row changes are
// picked up by an SQLite update hook and fanned out to subscribers.
type SQLiteStore struct {
	db      *sql.DB
	changes *stream.Notifier
}

// hookConnector opens sqlite3 connections with a change hook attached.
// Use sql.OpenDB(connector) rather than sql.Open.
type hookConnector struct {
	dsn    string
	driver *sqlite3.SQLiteDriver
}

func (c *hookConnector) Connect(context.Context) (driver.Conn, error) {
	return c.driver.Open(c.dsn)
}

func (c *hookConnector) Driver() driver.Driver {
	return c.driver
}

// NewSQLiteStore opens (creating if needed) the database at path and runs
// migrations.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dsn, err := buildDSN(path)
	if err != nil {
		return nil, err
	}

	changes := stream.NewNotifier()
	connector := &hookConnector{
		dsn: dsn,
		driver: &sqlite3.SQLiteDriver{
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				conn.RegisterUpdateHook(func(_ int, _ string, table string, _ int64) {
					if table == weatherTable {
						changes.Notify()
					}
				})
				return nil
			},
		},
	}

	db := sql.OpenDB(connector)

	// One connection: writes are serialized and a subscriber woken by the
	// update hook cannot read until the writing statement has committed.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("setting goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &SQLiteStore{db: db, changes: changes}, nil
}

func buildDSN(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("sqlite path is required")
	}

	if !strings.HasPrefix(path, "file:") {
		dir := filepath.Dir(path)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return "", fmt.Errorf("creating db directory: %w", err)
			}
		}
	}

	params := []string{
		"_foreign_keys=on",
		"_busy_timeout=5000",
		"_journal_mode=WAL",
	}

	if strings.HasPrefix(path, "file:") {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		return path + sep + strings.Join(params, "&"), nil
	}
	return fmt.Sprintf("file:%s?%s", path, strings.Join(params, "&")), nil
}

const upsertSQL = `
	INSERT INTO weather (
		id, city_name, temperature, feels_like, temp_min, temp_max,
		pressure, humidity, wind_speed, condition, description,
		sunrise, sunset, observed_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		city_name=excluded.city_name, temperature=excluded.temperature,
		feels_like=excluded.feels_like, temp_min=excluded.temp_min,
		temp_max=excluded.temp_max, pressure=excluded.pressure,
		humidity=excluded.humidity, wind_speed=excluded.wind_speed,
		condition=excluded.condition, description=excluded.description,
		sunrise=excluded.sunrise, sunset=excluded.sunset,
		observed_at=excluded.observed_at`

const selectSQL = `
	SELECT id, city_name, temperature, feels_like, temp_min, temp_max,
		pressure, humidity, wind_speed, condition, description,
		sunrise, sunset, observed_at
	FROM weather`

// Insert upserts rec by ID. A transient record receives the ID SQLite
// assigns.
func (s *SQLiteStore) Insert(ctx context.Context, rec *weather.Record) error {
	var id any
	if !rec.Transient() {
		id = rec.ID
	}

	res, err := s.db.ExecContext(ctx, upsertSQL,
		id, rec.CityName, rec.Temperature, rec.FeelsLike, rec.TempMin, rec.TempMax,
		rec.Pressure, rec.Humidity, rec.WindSpeed, string(rec.Condition), rec.Description,
		formatTime(rec.Sunrise), formatTime(rec.Sunset), rec.ObservedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("saving weather record: %w", err)
	}

	if rec.Transient() {
		newID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading assigned id: %w", err)
		}
		rec.ID = newID
	}
	return nil
}

// QueryAll emits all records ordered by ID.
func (s *SQLiteStore) QueryAll(ctx context.Context) *stream.Subscription[[]weather.Record] {
	return stream.Watch(ctx, s.changes, s.list)
}

// QueryByID emits the record with the given ID, or nil while absent.
func (s *SQLiteStore) QueryByID(ctx context.Context, id int64) *stream.Subscription[*weather.Record] {
	return stream.Watch(ctx, s.changes, func(ctx context.Context) (*weather.Record, error) {
		return s.get(ctx, id)
	})
}

// ClearAll deletes every record. SQLite's truncate optimization skips the
// update hook for an unqualified DELETE, so subscribers are notified here.
func (s *SQLiteStore) ClearAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM weather`); err != nil {
		return fmt.Errorf("clearing weather records: %w", err)
	}
	s.changes.Notify()
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) list(ctx context.Context) ([]weather.Record, error) {
	rows, err := s.db.QueryContext(ctx, selectSQL+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying weather records: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	out := make([]weather.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning weather record: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) get(ctx context.Context, id int64) (*weather.Record, error) {
	row := s.db.QueryRowContext(ctx, selectSQL+` WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting weather record %d: %w", id, err)
	}
	return rec, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*weather.Record, error) {
	var (
		rec             weather.Record
		condition       string
		sunrise, sunset sql.NullString
		observedAt      string
	)
	if err := row.Scan(
		&rec.ID, &rec.CityName, &rec.Temperature, &rec.FeelsLike, &rec.TempMin, &rec.TempMax,
		&rec.Pressure, &rec.Humidity, &rec.WindSpeed, &condition, &rec.Description,
		&sunrise, &sunset, &observedAt,
	); err != nil {
		return nil, err
	}

	rec.Condition = weather.Condition(condition)

	var err error
	if rec.ObservedAt, err = parseTimestamp(observedAt); err != nil {
		return nil, err
	}
	if sunrise.Valid {
		if rec.Sunrise, err = parseTimestamp(sunrise.String); err != nil {
			return nil, err
		}
	}
	if sunset.Valid {
		if rec.Sunset, err = parseTimestamp(sunset.String); err != nil {
			return nil, err
		}
	}
	return &rec, nil
}

func formatTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}
