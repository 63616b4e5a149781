// Package stravazip serves tracks straight from a Strava bulk-export archive.
//
// The archive holds an activities.csv index and one file per activity under
// activities/. GPX files, plain or gzipped, are loaded into memory by Init;
// FIT and TCX files are skipped.
package stravazip

import (
	"archive/zip"
	"compress/gzip"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/paulmach/orb"

	"github.com/kiesman99/heattile/internal/heatmap"
	"github.com/kiesman99/heattile/internal/logging"
)

const indexFile = "activities.csv"

// Column names of activities.csv
const (
	colID       = "Activity ID"
	colName     = "Activity Name"
	colFilename = "Filename"
)

var (
	// ErrNoIndex is returned when the archive has no activities.csv
	ErrNoIndex = errors.New("archive has no " + indexFile)

	// ErrNotLoaded is returned by Tracks before Init has succeeded
	ErrNotLoaded = errors.New("archive not loaded")
)

type entry struct {
	track heatmap.Track
	bound orb.Bound
}

// Store is an in-memory track source loaded from one export archive.
// After Init it is read only and safe for concurrent use.
type Store struct {
	path    string
	zr      *zip.ReadCloser
	entries []entry
	loaded  bool
}

// Open opens the archive at path
func Open(path string) (*Store, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open strava export: %w", err)
	}
	return &Store{path: path, zr: zr}, nil
}

// Close releases the archive
func (s *Store) Close() error {
	return s.zr.Close()
}

// Init reads the activity index and every supported activity file
func (s *Store) Init(ctx context.Context) error {
	files := make(map[string]*zip.File, len(s.zr.File))
	for _, f := range s.zr.File {
		files[f.Name] = f
	}

	idx, ok := files[indexFile]
	if !ok {
		return fmt.Errorf("%s: %w", s.path, ErrNoIndex)
	}
	rows, err := readIndex(idx)
	if err != nil {
		return err
	}

	var skipped int
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}

		f, ok := files[row.filename]
		if !ok {
			logging.Warn().Str("activity", row.id).Str("file", row.filename).Msg("activity file missing from archive")
			skipped++
			continue
		}
		if !isGPX(row.filename) {
			logging.Debug().Str("activity", row.id).Str("file", row.filename).Msg("unsupported activity format, skipping")
			skipped++
			continue
		}

		name, lines, err := readActivity(f)
		if err != nil {
			return fmt.Errorf("activity %s: %w", row.id, err)
		}
		if len(lines) == 0 {
			skipped++
			continue
		}
		if row.name != "" {
			name = row.name
		}

		t := heatmap.Track{ID: row.id, Name: name, Lines: lines}
		s.entries = append(s.entries, entry{track: t, bound: t.Bound()})
	}

	s.loaded = true
	logging.Info().
		Str("archive", s.path).
		Int("activities", len(s.entries)).
		Int("skipped", skipped).
		Msg("loaded strava export")
	return nil
}

// Tracks returns the loaded tracks whose bounding box intersects bound
func (s *Store) Tracks(ctx context.Context, bound orb.Bound) ([]heatmap.Track, error) {
	if !s.loaded {
		return nil, ErrNotLoaded
	}
	var out []heatmap.Track
	for _, e := range s.entries {
		if e.bound.Intersects(bound) {
			out = append(out, e.track)
		}
	}
	return out, nil
}

// Activities returns every loaded track
func (s *Store) Activities() []heatmap.Track {
	out := make([]heatmap.Track, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.track
	}
	return out
}

type indexRow struct {
	id, name, filename string
}

func readIndex(f *zip.File) ([]indexRow, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", indexFile, err)
	}
	defer rc.Close()

	r := csv.NewReader(rc)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read %s header: %w", indexFile, err)
	}
	cols := map[string]int{}
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		// Strava repeats some headers; the first occurrence wins
		if _, dup := cols[h]; !dup {
			cols[h] = i
		}
	}
	for _, c := range []string{colID, colFilename} {
		if _, ok := cols[c]; !ok {
			return nil, fmt.Errorf("%s: missing column %q", indexFile, c)
		}
	}
	nameCol, hasName := cols[colName]

	var rows []indexRow
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", indexFile, err)
		}

		row := indexRow{
			id:       field(rec, cols[colID]),
			filename: field(rec, cols[colFilename]),
		}
		if hasName {
			row.name = field(rec, nameCol)
		}
		if row.filename == "" {
			// Manual entries have no recorded track
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func field(rec []string, i int) string {
	if i < len(rec) {
		return strings.TrimSpace(rec[i])
	}
	return ""
}

func isGPX(name string) bool {
	name = strings.ToLower(name)
	return strings.HasSuffix(name, ".gpx") || strings.HasSuffix(name, ".gpx.gz")
}

func readActivity(f *zip.File) (string, orb.MultiLineString, error) {
	rc, err := f.Open()
	if err != nil {
		return "", nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()

	var r io.Reader = rc
	if path.Ext(strings.ToLower(f.Name)) == ".gz" {
		gz, err := gzip.NewReader(rc)
		if err != nil {
			return "", nil, fmt.Errorf("gunzip %s: %w", f.Name, err)
		}
		defer gz.Close()
		r = gz
	}

	return parseGPX(r)
}
