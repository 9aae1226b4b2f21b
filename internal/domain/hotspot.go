package domain

// PlaceholderNamePrefix marks a hotspot name that was never filled in
const PlaceholderNamePrefix = "HOTSPOT_NAME_"

// Hotspot is an empirically weighted point used to bias incident locations.
// NodeID and RegionID are attached when the hotspot is snapped to the road network.
type Hotspot struct {
	ID        string  `json:"id" yaml:"id"`
	Name      string  `json:"name" yaml:"name"`
	Latitude  float64 `json:"lat" yaml:"lat"`
	Longitude float64 `json:"lon" yaml:"lon"`
	Weight    float64 `json:"weight" yaml:"weight"`
	Notes     string  `json:"notes,omitempty" yaml:"notes,omitempty"`
	NodeID    *int64  `json:"node_id,omitempty" yaml:"node_id,omitempty"`
	RegionID  *string `json:"region_id,omitempty" yaml:"region_id,omitempty"`
}

// HotspotConfig is a validated, immutable set of hotspots
type HotspotConfig struct {
	Hotspots []Hotspot `json:"hotspots" yaml:"hotspots"`
}

// HotspotRow is the flat tabular view of a hotspot
type HotspotRow struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	Weight    float64 `json:"weight"`
	Notes     string  `json:"notes"`
}

// NodeRecord is a routable road-network node supplied by the network provider
type NodeRecord struct {
	NodeID    int64   `json:"node_id"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	RegionID  *string `json:"region_id,omitempty"`
}
