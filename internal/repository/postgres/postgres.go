package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Christianib003/kigali-ems-pipeline-optimization/internal/domain"
)

// undefinedTable is the SQLSTATE for a missing relation
const undefinedTable = "42P01"

const createIncidentsTable = `
	CREATE TABLE IF NOT EXISTS incidents (
		incident_id BIGINT PRIMARY KEY CHECK (incident_id > 0),
		ts_min      INTEGER NOT NULL CHECK (ts_min >= 0),
		hotspot_id  TEXT,
		region_id   TEXT,
		node_id     BIGINT NOT NULL,
		lat         DOUBLE PRECISION NOT NULL,
		lon         DOUBLE PRECISION NOT NULL,
		severity    TEXT NOT NULL
	)
`

// DBTX is the subset of *pgxpool.Pool the repository needs
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
	Ping(ctx context.Context) error
}

// PostgresRepository implements domain.IncidentRepository
type PostgresRepository struct {
	db DBTX
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EnsureSchema creates the incidents table if it does not exist
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, createIncidentsTable); err != nil {
		return fmt.Errorf("postgres: failed to create incidents table: %w", err)
	}
	return nil
}

// LastIncidentID returns the highest persisted incident_id, 0 when the table
// is missing or empty
func (r *PostgresRepository) LastIncidentID(ctx context.Context) (int64, error) {
	query := `SELECT COALESCE(MAX(incident_id), 0) FROM incidents`

	var last int64
	if err := r.db.QueryRow(ctx, query).Scan(&last); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == undefinedTable {
			return 0, nil
		}
		return 0, fmt.Errorf("postgres: failed to query last incident id: %w", err)
	}
	return last, nil
}

// AppendIncidents bulk-inserts incidents with COPY. The primary key rejects
// a batch that would reuse an id.
func (r *PostgresRepository) AppendIncidents(ctx context.Context, incidents []domain.Incident) error {
	if len(incidents) == 0 {
		return nil
	}

	if err := r.EnsureSchema(ctx); err != nil {
		return err
	}

	rows := make([][]any, 0, len(incidents))
	for _, inc := range incidents {
		rows = append(rows, []any{
			inc.IncidentID, int32(inc.TsMin), inc.HotspotID, inc.RegionID,
			inc.NodeID, inc.Latitude, inc.Longitude, string(inc.Severity),
		})
	}

	n, err := r.db.CopyFrom(ctx, pgx.Identifier{"incidents"}, domain.IncidentColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("postgres: failed to append incidents: %w", err)
	}
	if n != int64(len(incidents)) {
		return fmt.Errorf("postgres: appended %d of %d incidents", n, len(incidents))
	}

	return nil
}

// Health checks database connectivity
func (r *PostgresRepository) Health(ctx context.Context) error {
	if err := r.db.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: health check failed: %w", err)
	}
	return nil
}
