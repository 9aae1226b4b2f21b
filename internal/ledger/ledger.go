// Package ledger extends a persisted incident store without reusing ids.
//
// Resume protocol: read the last persisted id, generate a fresh batch
// numbered 1..n, shift it to last+1..last+n, then append. The generator never
// sees ledger state, so a batch depends only on its parameters.
//
// The protocol is not safe for several writers on one store. Ledger
// serializes callers inside one process; separate processes targeting the
// same store need an external lock.
package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Christianib003/kigali-ems-pipeline-optimization/internal/domain"
	"github.com/Christianib003/kigali-ems-pipeline-optimization/internal/generator"
	"github.com/Christianib003/kigali-ems-pipeline-optimization/pkg/logging"
)

// Remap returns a copy of incidents with ids shifted by lastID
func Remap(incidents []domain.Incident, lastID int64) []domain.Incident {
	out := make([]domain.Incident, len(incidents))
	for i, inc := range incidents {
		inc.IncidentID += lastID
		out[i] = inc
	}
	return out
}

// Ledger wraps an incident repository with the resume protocol
type Ledger struct {
	repo   domain.IncidentRepository
	logger *logrus.Entry

	mu sync.Mutex
}

// New creates a ledger over repo
func New(repo domain.IncidentRepository, logger *logrus.Logger) *Ledger {
	return &Ledger{
		repo:   repo,
		logger: logging.ForComponent(logger, "ledger"),
	}
}

// LastID returns the last persisted incident id
func (l *Ledger) LastID(ctx context.Context) (int64, error) {
	last, err := l.repo.LastIncidentID(ctx)
	if err != nil {
		return 0, fmt.Errorf("ledger: failed to read last id: %w", err)
	}
	return last, nil
}

// Extend generates a batch from p and appends it after the last persisted id.
// It returns the incidents as persisted, with global ids.
func (l *Ledger) Extend(ctx context.Context, p generator.Params) ([]domain.Incident, error) {
	// Fail on bad input before touching the store
	if err := p.Check(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	last, err := l.LastID(ctx)
	if err != nil {
		return nil, err
	}

	batch, err := generator.Generate(p)
	if err != nil {
		return nil, err
	}
	batch = Remap(batch, last)

	if err := l.repo.AppendIncidents(ctx, batch); err != nil {
		return nil, fmt.Errorf("ledger: failed to append %d incident(s) after id %d: %w", len(batch), last, err)
	}

	l.logger.WithFields(logrus.Fields{
		"previous_last_id": last,
		"appended":         len(batch),
		"seed":             p.Seed,
	}).Info("Extended incident ledger")

	return batch, nil
}
