package domain

// Severity is the categorical urgency label attached to an incident
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Valid reports whether s is one of the known severity labels
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}

// Incident is a single synthetic emergency event.
// HotspotID is set if and only if the location came from the hotspot branch.
type Incident struct {
	IncidentID int64    `json:"incident_id"`
	TsMin      int      `json:"ts_min"`
	HotspotID  *string  `json:"hotspot_id"`
	RegionID   *string  `json:"region_id"`
	NodeID     int64    `json:"node_id"`
	Latitude   float64  `json:"lat"`
	Longitude  float64  `json:"lon"`
	Severity   Severity `json:"severity"`
}

// IncidentColumns is the column order of every tabular incident store
var IncidentColumns = []string{
	"incident_id", "ts_min", "hotspot_id", "region_id",
	"node_id", "lat", "lon", "severity",
}

// IncidentBatch wraps a generated batch with metadata
type IncidentBatch struct {
	Incidents []Incident `json:"incidents"`
	FirstID   int64      `json:"first_id"`
	LastID    int64      `json:"last_id"`
	Count     int        `json:"count"`
	Seed      int64      `json:"seed"`
}

// NewIncidentBatch builds a batch summary for incidents
func NewIncidentBatch(incidents []Incident, seed int64) IncidentBatch {
	b := IncidentBatch{
		Incidents: incidents,
		Count:     len(incidents),
		Seed:      seed,
	}
	if len(incidents) > 0 {
		b.FirstID = incidents[0].IncidentID
		b.LastID = incidents[len(incidents)-1].IncidentID
	}
	return b
}
