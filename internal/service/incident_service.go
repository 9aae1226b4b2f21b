package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Christianib003/kigali-ems-pipeline-optimization/internal/domain"
	"github.com/Christianib003/kigali-ems-pipeline-optimization/internal/generator"
	"github.com/Christianib003/kigali-ems-pipeline-optimization/internal/hotspot"
	"github.com/Christianib003/kigali-ems-pipeline-optimization/internal/ledger"
	"github.com/Christianib003/kigali-ems-pipeline-optimization/internal/sampling"
	"github.com/Christianib003/kigali-ems-pipeline-optimization/pkg/logging"
)

// MaxBatch bounds a single request so one call cannot hold the ledger for long
const MaxBatch = 100000

// ErrBatchTooLarge is returned when a request exceeds MaxBatch
var ErrBatchTooLarge = fmt.Errorf("batch size exceeds %d", MaxBatch)

// Defaults are applied to requests that leave a field unset
type Defaults struct {
	HorizonMin      int
	HotspotFraction float64
	Seed            int64
	Severity        sampling.SeverityTable
}

// GenerateRequest describes one batch. Nil fields take the service defaults.
type GenerateRequest struct {
	N               int      `json:"n"`
	Seed            *int64   `json:"seed,omitempty"`
	HotspotFraction *float64 `json:"hotspot_fraction,omitempty"`
	HorizonMin      *int     `json:"horizon_min,omitempty"`
}

// IncidentService generates incident batches and extends the ledger
type IncidentService struct {
	hotspots  domain.HotspotConfig
	nodes     []domain.NodeRecord
	repo      IncidentRepository
	ledger    *ledger.Ledger
	publisher IncidentPublisher
	defaults  Defaults
	logger    *logrus.Entry

	wgBg sync.WaitGroup // tracks background publishes for graceful shutdown
}

// NewIncidentService creates a new incident service. publisher may be nil.
func NewIncidentService(
	hotspots domain.HotspotConfig,
	nodes []domain.NodeRecord,
	repo IncidentRepository,
	publisher IncidentPublisher,
	defaults Defaults,
	logger *logrus.Logger,
) *IncidentService {
	return &IncidentService{
		hotspots:  hotspots,
		nodes:     nodes,
		repo:      repo,
		ledger:    ledger.New(repo, logger),
		publisher: publisher,
		defaults:  defaults,
		logger:    logging.ForComponent(logger, "incident_service"),
	}
}

// WaitBackground blocks until all background publishes complete.
// Call during graceful shutdown to avoid dropped messages.
func (s *IncidentService) WaitBackground() {
	s.wgBg.Wait()
}

// Params resolves req against the service defaults
func (s *IncidentService) Params(req GenerateRequest) (generator.Params, error) {
	if req.N > MaxBatch {
		return generator.Params{}, fmt.Errorf("service: %w: got %d", ErrBatchTooLarge, req.N)
	}

	p := generator.Params{
		N:               req.N,
		Hotspots:        s.hotspots.Hotspots,
		Nodes:           s.nodes,
		HorizonMin:      s.defaults.HorizonMin,
		Seed:            s.defaults.Seed,
		HotspotFraction: s.defaults.HotspotFraction,
		Severity:        s.defaults.Severity,
	}
	if req.Seed != nil {
		p.Seed = *req.Seed
	}
	if req.HotspotFraction != nil {
		p.HotspotFraction = *req.HotspotFraction
	}
	if req.HorizonMin != nil {
		p.HorizonMin = *req.HorizonMin
	}
	return p, p.Check()
}

// Preview generates a batch numbered 1..n without touching the store
func (s *IncidentService) Preview(req GenerateRequest) (domain.IncidentBatch, error) {
	p, err := s.Params(req)
	if err != nil {
		return domain.IncidentBatch{}, err
	}

	incidents, err := generator.Generate(p)
	if err != nil {
		return domain.IncidentBatch{}, err
	}
	return domain.NewIncidentBatch(incidents, p.Seed), nil
}

// Extend generates a batch, appends it after the last persisted id and
// forwards it to the publisher in the background
func (s *IncidentService) Extend(ctx context.Context, req GenerateRequest) (domain.IncidentBatch, error) {
	p, err := s.Params(req)
	if err != nil {
		return domain.IncidentBatch{}, err
	}

	incidents, err := s.ledger.Extend(ctx, p)
	if err != nil {
		return domain.IncidentBatch{}, err
	}

	if s.publisher != nil && len(incidents) > 0 {
		s.wgBg.Add(1)
		go func() {
			defer s.wgBg.Done()
			bgCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := s.publisher.Publish(bgCtx, incidents); err != nil {
				s.logger.WithError(err).Warn("Failed to publish incidents")
			}
		}()
	}

	return domain.NewIncidentBatch(incidents, p.Seed), nil
}

// LastID returns the last persisted incident id
func (s *IncidentService) LastID(ctx context.Context) (int64, error) {
	return s.ledger.LastID(ctx)
}

// Hotspots returns the loaded hotspots as flat rows
func (s *IncidentService) Hotspots() []domain.HotspotRow {
	return hotspot.Table(s.hotspots)
}

// ValidateHotspots checks a candidate hotspot document
func (s *IncidentService) ValidateHotspots(doc map[string]any) []string {
	return hotspot.Validate(doc)
}

// NodeCount returns the size of the node catalog
func (s *IncidentService) NodeCount() int {
	return len(s.nodes)
}

// Health checks the incident store
func (s *IncidentService) Health(ctx context.Context) error {
	return s.repo.Health(ctx)
}

// IsInputError reports whether err was caused by request or configuration
// input rather than by the store
func IsInputError(err error) bool {
	for _, target := range []error{
		generator.ErrNegativeCount,
		generator.ErrInvalidHorizon,
		generator.ErrHotspotNotSnapped,
		sampling.ErrInvalidFraction,
		sampling.ErrEmptyCatalog,
		ErrBatchTooLarge,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
