package sampling

import (
	"errors"
	"fmt"
	"math"

	"github.com/Christianib003/kigali-ems-pipeline-optimization/internal/domain"
	"github.com/Christianib003/kigali-ems-pipeline-optimization/pkg/utils"
)

// WeightFloor keeps every hotspot reachable under floating-point roundoff
const WeightFloor = 1e-6

var (
	// ErrInvalidFraction is returned when the hotspot fraction is outside [0, 1]
	ErrInvalidFraction = errors.New("hotspot fraction must be in [0, 1]")
	// ErrEmptyCatalog is returned when the uniform branch has no nodes to draw from
	ErrEmptyCatalog = errors.New("node catalog is empty")
)

// CheckFraction rejects fractions outside [0, 1], including NaN
func CheckFraction(fraction float64) error {
	if math.IsNaN(fraction) || fraction < 0 || fraction > 1 {
		return fmt.Errorf("sampling: %w: got %v", ErrInvalidFraction, fraction)
	}
	return nil
}

// LocationSampler draws from the hotspot/uniform mixture.
// Weights are computed once so repeated draws stay O(k).
type LocationSampler struct {
	hotspots []domain.Hotspot
	nodes    []domain.NodeRecord
	fraction float64
	weights  []float64
	total    float64
}

// NewLocationSampler validates the fraction and precomputes hotspot weights
func NewLocationSampler(hotspots []domain.Hotspot, nodes []domain.NodeRecord, fraction float64) (*LocationSampler, error) {
	if err := CheckFraction(fraction); err != nil {
		return nil, err
	}

	s := &LocationSampler{
		hotspots: hotspots,
		nodes:    nodes,
		fraction: fraction,
		weights:  make([]float64, len(hotspots)),
	}
	for i, h := range hotspots {
		w := utils.Clamp(h.Weight, WeightFloor, math.MaxFloat64)
		s.weights[i] = w
		s.total += w
	}
	return s, nil
}

// UniformReachable reports whether a draw can fall through to the node catalog
func (s *LocationSampler) UniformReachable() bool {
	return s.fraction < 1 || len(s.hotspots) == 0
}

// Choose draws one location. Exactly one uniform variate decides the branch,
// followed by one draw inside the chosen branch.
func (s *LocationSampler) Choose(src Source) (domain.Location, error) {
	useHotspot := src.Float64() < s.fraction

	if useHotspot && len(s.hotspots) > 0 {
		idx := drawIndex(src, s.weights, s.total)
		return domain.HotspotDraw{Spot: s.hotspots[idx]}, nil
	}

	if len(s.nodes) == 0 {
		return nil, fmt.Errorf("sampling: %w", ErrEmptyCatalog)
	}
	idx := src.IntN(len(s.nodes))
	return domain.NodeDraw{Node: s.nodes[idx]}, nil
}

// ChooseLocation draws a single location from the mixture
func ChooseLocation(src Source, hotspots []domain.Hotspot, nodes []domain.NodeRecord, fraction float64) (domain.Location, error) {
	s, err := NewLocationSampler(hotspots, nodes, fraction)
	if err != nil {
		return nil, err
	}
	return s.Choose(src)
}
