// Package sqlstore keeps activity tracks in a SQL database.
//
// Two embedded engines are supported through database/sql: SQLite
// (driver "sqlite3") and DuckDB (driver "duckdb"). Both understand the
// portable schema below and '?' placeholders.
//
// For a table name T the store uses
//
//	T(id TEXT PRIMARY KEY, name TEXT, min_lon, min_lat, max_lon, max_lat DOUBLE)
//	T_points(activity_id TEXT, seq INTEGER, lon DOUBLE, lat DOUBLE)
//
// The bounding box columns let a tile query skip activities far away
// without reading their points.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"
	_ "github.com/mattn/go-sqlite3"
	"github.com/paulmach/orb"

	"github.com/kiesman99/heattile/internal/heatmap"
)

// Supported drivers
const (
	DriverSQLite = "sqlite3"
	DriverDuckDB = "duckdb"
)

// DefaultTable is the activities table name used when none is configured
const DefaultTable = "activities"

var (
	// ErrUnknownDriver is returned by Open for drivers other than sqlite3 and duckdb
	ErrUnknownDriver = errors.New("unknown sql driver")

	// ErrBadTable is returned by Open when the table name is not a plain identifier
	ErrBadTable = errors.New("invalid table name")

	tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// Store reads and writes tracks. It is safe for concurrent use.
type Store struct {
	db     *sql.DB
	driver string
	table  string
	points string
}

// Open connects to the database but does not touch the schema; call Init for that.
func Open(driver, dsn, table string) (*Store, error) {
	switch driver {
	case DriverSQLite, DriverDuckDB:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
	if table == "" {
		table = DefaultTable
	}
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("%w: %q", ErrBadTable, table)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}
	if driver == DriverSQLite && isMemoryDSN(dsn) {
		// Every new connection to :memory: would see an empty database
		db.SetMaxOpenConns(1)
	}

	return &Store{
		db:     db,
		driver: driver,
		table:  table,
		points: table + "_points",
	}, nil
}

func isMemoryDSN(dsn string) bool {
	return dsn == "" || strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

// Init creates the tables if they do not exist and checks the connection
func (s *Store) Init(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("connect to %s database: %w", s.driver, err)
	}

	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			name TEXT,
			min_lon DOUBLE NOT NULL,
			min_lat DOUBLE NOT NULL,
			max_lon DOUBLE NOT NULL,
			max_lat DOUBLE NOT NULL
		)`, s.table),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			activity_id TEXT NOT NULL,
			segment INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			lon DOUBLE NOT NULL,
			lat DOUBLE NOT NULL
		)`, s.points),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_activity_idx ON %s (activity_id, segment, seq)`, s.points, s.points),
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Tracks returns every activity whose bounding box intersects bound
func (s *Store) Tracks(ctx context.Context, bound orb.Bound) ([]heatmap.Track, error) {
	query := fmt.Sprintf(`SELECT a.id, a.name, p.segment, p.lon, p.lat
		FROM %s a JOIN %s p ON p.activity_id = a.id
		WHERE a.max_lon >= ? AND a.min_lon <= ? AND a.max_lat >= ? AND a.min_lat <= ?
		ORDER BY a.id, p.segment, p.seq`, s.table, s.points)

	rows, err := s.db.QueryContext(ctx, query,
		bound.Min.Lon(), bound.Max.Lon(), bound.Min.Lat(), bound.Max.Lat())
	if err != nil {
		return nil, fmt.Errorf("query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []heatmap.Track
	lastLine := -1
	for rows.Next() {
		var (
			id       string
			name     sql.NullString
			line     int
			lon, lat float64
		)
		if err := rows.Scan(&id, &name, &line, &lon, &lat); err != nil {
			return nil, fmt.Errorf("scan track point: %w", err)
		}
		if n := len(tracks); n == 0 || tracks[n-1].ID != id {
			tracks = append(tracks, heatmap.Track{ID: id, Name: name.String})
			lastLine = -1
		}
		last := &tracks[len(tracks)-1]
		if line != lastLine {
			last.Lines = append(last.Lines, orb.LineString{})
			lastLine = line
		}
		ls := &last.Lines[len(last.Lines)-1]
		*ls = append(*ls, orb.Point{lon, lat})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read tracks: %w", err)
	}
	return tracks, nil
}

// Put stores a track, replacing any activity with the same id.
// Tracks without points are ignored.
func (s *Store) Put(ctx context.Context, t heatmap.Track) (err error) {
	if t.NumPoints() == 0 {
		return nil
	}
	b := t.Bound()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE activity_id = ?`, s.points), t.ID); err != nil {
		return fmt.Errorf("delete points of %s: %w", t.ID, err)
	}
	if _, err = tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, s.table), t.ID); err != nil {
		return fmt.Errorf("delete activity %s: %w", t.ID, err)
	}
	if _, err = tx.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, name, min_lon, min_lat, max_lon, max_lat) VALUES (?, ?, ?, ?, ?, ?)`, s.table),
		t.ID, t.Name, b.Min.Lon(), b.Min.Lat(), b.Max.Lon(), b.Max.Lat()); err != nil {
		return fmt.Errorf("insert activity %s: %w", t.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (activity_id, segment, seq, lon, lat) VALUES (?, ?, ?, ?, ?)`, s.points))
	if err != nil {
		return fmt.Errorf("prepare point insert: %w", err)
	}
	defer stmt.Close()

	line := 0
	for _, ls := range t.Lines {
		if len(ls) == 0 {
			continue
		}
		for i, p := range ls {
			if _, err = stmt.ExecContext(ctx, t.ID, line, i, p.Lon(), p.Lat()); err != nil {
				return fmt.Errorf("insert point %d/%d of %s: %w", line, i, t.ID, err)
			}
		}
		line++
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", t.ID, err)
	}
	return nil
}

// Count returns the number of stored activities
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, s.table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count activities: %w", err)
	}
	return n, nil
}
