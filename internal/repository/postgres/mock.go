package postgres

import (
	"context"
	"sync"

	"github.com/Christianib003/kigali-ems-pipeline-optimization/internal/domain"
)

// MockRepository implements domain.IncidentRepository in memory for tests.
// Nothing it stores survives the process, so it never backs a real ledger.
type MockRepository struct {
	mu        sync.Mutex
	incidents []domain.Incident
}

// NewMockRepository creates a new mock repository
func NewMockRepository() *MockRepository {
	return &MockRepository{}
}

// LastIncidentID returns the highest stored id
func (r *MockRepository) LastIncidentID(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var last int64
	for _, inc := range r.incidents {
		if inc.IncidentID > last {
			last = inc.IncidentID
		}
	}
	return last, nil
}

// AppendIncidents stores copies of incidents
func (r *MockRepository) AppendIncidents(ctx context.Context, incidents []domain.Incident) error {
	if len(incidents) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.incidents = append(r.incidents, incidents...)
	return nil
}

// Incidents returns a snapshot of stored incidents
func (r *MockRepository) Incidents() []domain.Incident {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Incident(nil), r.incidents...)
}

// Health always returns nil in mock mode
func (r *MockRepository) Health(ctx context.Context) error {
	return nil
}
