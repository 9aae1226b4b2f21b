package domain

// Location is the common shape of a sampled incident location.
// It is implemented by HotspotDraw and NodeDraw only.
type Location interface {
	NodeID() int64
	Lat() float64
	Lon() float64
	Region() *string
	// Hotspot returns the hotspot id for hotspot draws and nil otherwise
	Hotspot() *string
	// Weight returns the prior weight for hotspot draws and 0 otherwise
	Weight() float64

	location()
}

// HotspotDraw is a location drawn from the hotspot prior
type HotspotDraw struct {
	Spot Hotspot
}

func (d HotspotDraw) NodeID() int64 {
	if d.Spot.NodeID == nil {
		return 0
	}
	return *d.Spot.NodeID
}

func (d HotspotDraw) Lat() float64    { return d.Spot.Latitude }
func (d HotspotDraw) Lon() float64    { return d.Spot.Longitude }
func (d HotspotDraw) Region() *string { return cloneString(d.Spot.RegionID) }
func (d HotspotDraw) Hotspot() *string {
	id := d.Spot.ID
	return &id
}

func (d HotspotDraw) Weight() float64 { return d.Spot.Weight }

func (HotspotDraw) location() {}

// NodeDraw is a location drawn uniformly from the node catalog
type NodeDraw struct {
	Node NodeRecord
}

func (d NodeDraw) NodeID() int64   { return d.Node.NodeID }
func (d NodeDraw) Lat() float64    { return d.Node.Latitude }
func (d NodeDraw) Lon() float64    { return d.Node.Longitude }
func (d NodeDraw) Region() *string { return cloneString(d.Node.RegionID) }
func (NodeDraw) Hotspot() *string  { return nil }
func (NodeDraw) Weight() float64   { return 0 }

func (NodeDraw) location() {}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
