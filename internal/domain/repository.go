package domain

import (
	"context"
)

// IncidentRepository defines the append-only incident store used by the ledger.
// Implementations assume a single writer per store.
type IncidentRepository interface {
	// LastIncidentID returns the highest persisted incident_id, or 0 when
	// the store is missing, empty, or has no incident_id column
	LastIncidentID(ctx context.Context) (int64, error)

	// AppendIncidents persists incidents after existing records.
	// An empty slice is a no-op.
	AppendIncidents(ctx context.Context, incidents []Incident) error

	// Health checks store connectivity
	Health(ctx context.Context) error
}

// IncidentPublisher forwards generated incidents to a downstream consumer
type IncidentPublisher interface {
	Publish(ctx context.Context, incidents []Incident) error
}
