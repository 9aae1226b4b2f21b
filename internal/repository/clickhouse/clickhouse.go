// Package clickhouse stores incidents in a ClickHouse MergeTree table for
// analytics over long generation campaigns.
package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/Christianib003/kigali-ems-pipeline-optimization/internal/domain"
)

const createIncidentsTable = `
	CREATE TABLE IF NOT EXISTS incidents (
		incident_id Int64,
		ts_min      Int32,
		hotspot_id  Nullable(String),
		region_id   Nullable(String),
		node_id     Int64,
		lat         Float64,
		lon         Float64,
		severity    LowCardinality(String)
	) ENGINE = MergeTree()
	ORDER BY incident_id
`

type scanner interface {
	Scan(dest ...any) error
}

type batch interface {
	Append(v ...any) error
	Send() error
	Abort() error
}

// conn is the part of driver.Conn the store uses
type conn interface {
	Exec(ctx context.Context, query string, args ...any) error
	QueryRow(ctx context.Context, query string, args ...any) scanner
	PrepareBatch(ctx context.Context, query string) (batch, error)
	Ping(ctx context.Context) error
	Close() error
}

type driverConn struct {
	driver.Conn
}

func (c driverConn) QueryRow(ctx context.Context, query string, args ...any) scanner {
	return c.Conn.QueryRow(ctx, query, args...)
}

func (c driverConn) PrepareBatch(ctx context.Context, query string) (batch, error) {
	return c.Conn.PrepareBatch(ctx, query)
}

// Store implements domain.IncidentRepository on ClickHouse
type Store struct {
	conn conn
}

// Options configures a ClickHouse connection
type Options struct {
	Addr     string
	Database string
	Username string
	Password string
}

// Open connects, pings and initializes the schema
func Open(ctx context.Context, opts Options) (*Store, error) {
	native, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{opts.Addr},
		Auth: clickhouse.Auth{
			Database: opts.Database,
			Username: opts.Username,
			Password: opts.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout: 5 * time.Second,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("clickhouse: failed to connect: %w", err)
	}

	s := NewStore(native)
	if err := s.conn.Ping(ctx); err != nil {
		s.conn.Close()
		return nil, fmt.Errorf("clickhouse: failed to ping %s: %w", opts.Addr, err)
	}
	if err := s.EnsureSchema(ctx); err != nil {
		s.conn.Close()
		return nil, err
	}
	return s, nil
}

// NewStore wraps an open connection
func NewStore(native driver.Conn) *Store {
	return &Store{conn: driverConn{Conn: native}}
}

// EnsureSchema creates the incidents table if needed
func (s *Store) EnsureSchema(ctx context.Context) error {
	if err := s.conn.Exec(ctx, createIncidentsTable); err != nil {
		return fmt.Errorf("clickhouse: failed to create incidents table: %w", err)
	}
	return nil
}

// LastIncidentID returns max(incident_id), which ClickHouse reports as 0 for
// an empty table
func (s *Store) LastIncidentID(ctx context.Context) (int64, error) {
	var last int64
	if err := s.conn.QueryRow(ctx, `SELECT max(incident_id) FROM incidents`).Scan(&last); err != nil {
		return 0, fmt.Errorf("clickhouse: failed to query last incident id: %w", err)
	}
	return last, nil
}

// AppendIncidents sends incidents as a single insert batch
func (s *Store) AppendIncidents(ctx context.Context, incidents []domain.Incident) error {
	if len(incidents) == 0 {
		return nil
	}

	b, err := s.conn.PrepareBatch(ctx, "INSERT INTO incidents")
	if err != nil {
		return fmt.Errorf("clickhouse: failed to prepare batch: %w", err)
	}

	for _, inc := range incidents {
		if err := b.Append(
			inc.IncidentID,
			int32(inc.TsMin),
			inc.HotspotID,
			inc.RegionID,
			inc.NodeID,
			inc.Latitude,
			inc.Longitude,
			string(inc.Severity),
		); err != nil {
			_ = b.Abort()
			return fmt.Errorf("clickhouse: failed to append incident %d: %w", inc.IncidentID, err)
		}
	}

	if err := b.Send(); err != nil {
		return fmt.Errorf("clickhouse: failed to send batch: %w", err)
	}
	return nil
}

// Health pings the server
func (s *Store) Health(ctx context.Context) error {
	if err := s.conn.Ping(ctx); err != nil {
		return fmt.Errorf("clickhouse: health check failed: %w", err)
	}
	return nil
}

// Close releases the connection
func (s *Store) Close() error {
	return s.conn.Close()
}
