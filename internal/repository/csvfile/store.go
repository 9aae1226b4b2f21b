// Package csvfile persists incidents to an append-only CSV file.
package csvfile

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Christianib003/kigali-ems-pipeline-optimization/internal/domain"
)

// Store implements domain.IncidentRepository on a CSV file.
// It assumes a single writer; concurrent producers must serialize externally.
type Store struct {
	path string
}

// NewStore creates a store backed by path. The file is created on first append.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path
func (s *Store) Path() string {
	return s.path
}

// LastIncidentID returns the maximum incident_id in the file, or 0 when the
// file is missing, empty, or has no incident_id column
func (s *Store) LastIncidentID(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("csvfile: failed to open %s: %w", s.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("csvfile: failed to read header of %s: %w", s.path, err)
	}

	col := columnIndex(header, "incident_id")
	if col < 0 {
		return 0, nil
	}

	var last int64
	for line := 2; ; line++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("csvfile: failed to read %s: %w", s.path, err)
		}
		if col >= len(record) || strings.TrimSpace(record[col]) == "" {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSpace(record[col]), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("csvfile: %s line %d: bad incident_id %q: %w", s.path, line, record[col], err)
		}
		if id > last {
			last = id
		}
	}

	return last, nil
}

// AppendIncidents writes incidents after the existing rows. The header is
// written only when the file is created (or is empty). Existing bytes are
// never rewritten, and an empty slice leaves the file untouched.
func (s *Store) AppendIncidents(ctx context.Context, incidents []domain.Incident) error {
	if len(incidents) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	writeHeader := true
	needsNewline := false
	info, err := os.Stat(s.path)
	switch {
	case err == nil:
		writeHeader = info.Size() == 0
		if !writeHeader {
			if needsNewline, err = s.missingTrailingNewline(info.Size()); err != nil {
				return err
			}
		}
	case errors.Is(err, os.ErrNotExist):
		if dir := filepath.Dir(s.path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("csvfile: failed to create %s: %w", dir, err)
			}
		}
	default:
		return fmt.Errorf("csvfile: failed to stat %s: %w", s.path, err)
	}

	// Encode the whole batch first so the file sees a single write
	var buf bytes.Buffer
	if needsNewline {
		// a hand-edited file may lack the final newline; without it the
		// first new record would merge into the last persisted one
		buf.WriteByte('\n')
	}
	w := csv.NewWriter(&buf)
	if writeHeader {
		if err := w.Write(domain.IncidentColumns); err != nil {
			return fmt.Errorf("csvfile: failed to encode header: %w", err)
		}
	}
	for _, inc := range incidents {
		if err := w.Write(encode(inc)); err != nil {
			return fmt.Errorf("csvfile: failed to encode incident %d: %w", inc.IncidentID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("csvfile: failed to encode batch: %w", err)
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("csvfile: failed to open %s: %w", s.path, err)
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		return fmt.Errorf("csvfile: failed to append to %s: %w", s.path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("csvfile: failed to close %s: %w", s.path, err)
	}
	return nil
}

func (s *Store) missingTrailingNewline(size int64) (bool, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return false, fmt.Errorf("csvfile: failed to open %s: %w", s.path, err)
	}
	defer f.Close()

	last := make([]byte, 1)
	if _, err := f.ReadAt(last, size-1); err != nil {
		return false, fmt.Errorf("csvfile: failed to read end of %s: %w", s.path, err)
	}
	return last[0] != '\n', nil
}

// ReadIncidents loads every persisted incident in file order
func (s *Store) ReadIncidents(ctx context.Context) ([]domain.Incident, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("csvfile: failed to open %s: %w", s.path, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csvfile: failed to read %s: %w", s.path, err)
	}
	if len(records) < 2 {
		return nil, nil
	}

	idx := make(map[string]int, len(records[0]))
	for _, name := range domain.IncidentColumns {
		i := columnIndex(records[0], name)
		if i < 0 {
			return nil, fmt.Errorf("csvfile: %s is missing column %s", s.path, name)
		}
		idx[name] = i
	}

	out := make([]domain.Incident, 0, len(records)-1)
	for n, rec := range records[1:] {
		inc, err := decode(rec, idx)
		if err != nil {
			return nil, fmt.Errorf("csvfile: %s line %d: %w", s.path, n+2, err)
		}
		out = append(out, inc)
	}
	return out, nil
}

// Health reports whether the store's directory is usable
func (s *Store) Health(ctx context.Context) error {
	dir := filepath.Dir(s.path)
	info, err := os.Stat(dir)
	if errors.Is(err, os.ErrNotExist) {
		// created on first append
		return nil
	}
	if err != nil {
		return fmt.Errorf("csvfile: health check failed: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("csvfile: health check failed: %s is not a directory", dir)
	}
	return nil
}

func columnIndex(header []string, name string) int {
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		if strings.TrimSpace(h) == name {
			return i
		}
	}
	return -1
}

func encode(inc domain.Incident) []string {
	return []string{
		strconv.FormatInt(inc.IncidentID, 10),
		strconv.Itoa(inc.TsMin),
		optional(inc.HotspotID),
		optional(inc.RegionID),
		strconv.FormatInt(inc.NodeID, 10),
		strconv.FormatFloat(inc.Latitude, 'f', -1, 64),
		strconv.FormatFloat(inc.Longitude, 'f', -1, 64),
		string(inc.Severity),
	}
}

func decode(rec []string, idx map[string]int) (domain.Incident, error) {
	field := func(name string) string {
		i := idx[name]
		if i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	var (
		inc domain.Incident
		err error
	)
	if inc.IncidentID, err = strconv.ParseInt(field("incident_id"), 10, 64); err != nil {
		return inc, fmt.Errorf("bad incident_id: %w", err)
	}
	if inc.TsMin, err = strconv.Atoi(field("ts_min")); err != nil {
		return inc, fmt.Errorf("bad ts_min: %w", err)
	}
	if inc.NodeID, err = strconv.ParseInt(field("node_id"), 10, 64); err != nil {
		return inc, fmt.Errorf("bad node_id: %w", err)
	}
	if inc.Latitude, err = strconv.ParseFloat(field("lat"), 64); err != nil {
		return inc, fmt.Errorf("bad lat: %w", err)
	}
	if inc.Longitude, err = strconv.ParseFloat(field("lon"), 64); err != nil {
		return inc, fmt.Errorf("bad lon: %w", err)
	}
	inc.HotspotID = nonEmpty(field("hotspot_id"))
	inc.RegionID = nonEmpty(field("region_id"))
	inc.Severity = domain.Severity(field("severity"))
	return inc, nil
}

func optional(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
