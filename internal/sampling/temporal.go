package sampling

import (
	"fmt"
	"math"

	"github.com/Christianib003/kigali-ems-pipeline-optimization/internal/domain"
)

// SampleTimeMinute draws a minute offset uniformly from [0, horizonMin).
// Every minute of the horizon is equally likely; there is no time-of-day
// weighting. horizonMin must be positive.
func SampleTimeMinute(src Source, horizonMin int) int {
	return src.IntN(horizonMin)
}

// SeverityWeight is one row of a severity table
type SeverityWeight struct {
	Severity    domain.Severity `json:"severity" yaml:"severity"`
	Probability float64         `json:"probability" yaml:"probability"`
}

// SeverityTable is a categorical distribution over severity labels
type SeverityTable []SeverityWeight

// DefaultSeverityTable is the policy mix used when no table is supplied.
// It is a fixed policy, not fitted to data.
var DefaultSeverityTable = SeverityTable{
	{Severity: domain.SeverityLow, Probability: 0.60},
	{Severity: domain.SeverityMedium, Probability: 0.30},
	{Severity: domain.SeverityHigh, Probability: 0.10},
}

// Validate checks labels and probabilities
func (t SeverityTable) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("sampling: severity table is empty")
	}
	total := 0.0
	for _, row := range t {
		if !row.Severity.Valid() {
			return fmt.Errorf("sampling: unknown severity %q", row.Severity)
		}
		if row.Probability < 0 || math.IsNaN(row.Probability) || math.IsInf(row.Probability, 0) {
			return fmt.Errorf("sampling: severity %s has invalid probability %v", row.Severity, row.Probability)
		}
		total += row.Probability
	}
	if total <= 0 {
		return fmt.Errorf("sampling: severity probabilities sum to %v", total)
	}
	return nil
}

func (t SeverityTable) weights() ([]float64, float64) {
	w := make([]float64, len(t))
	total := 0.0
	for i, row := range t {
		w[i] = row.Probability
		total += row.Probability
	}
	return w, total
}

// SampleSeverity draws one label from table, or from DefaultSeverityTable
// when table is empty. Probabilities are normalised by their sum.
func SampleSeverity(src Source, table SeverityTable) domain.Severity {
	if len(table) == 0 {
		table = DefaultSeverityTable
	}
	w, total := table.weights()
	return table[drawIndex(src, w, total)].Severity
}
