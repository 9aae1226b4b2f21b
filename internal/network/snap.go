package network

import (
	"github.com/sirupsen/logrus"

	"github.com/Christianib003/kigali-ems-pipeline-optimization/internal/domain"
	"github.com/Christianib003/kigali-ems-pipeline-optimization/pkg/utils"
)

// Snap returns a copy of hotspots where every hotspot without a node id is
// attached to its nearest catalog node. The node's region is carried over
// when the hotspot has none. Hotspots that already carry a node id are kept
// as they are. With an empty catalog nothing is snapped.
func Snap(hotspots []domain.Hotspot, nodes []domain.NodeRecord, logger *logrus.Logger) []domain.Hotspot {
	out := make([]domain.Hotspot, len(hotspots))
	copy(out, hotspots)

	for i := range out {
		if out[i].NodeID != nil {
			continue
		}
		node, km, ok := Nearest(nodes, out[i].Latitude, out[i].Longitude)
		if !ok {
			return out
		}

		id := node.NodeID
		out[i].NodeID = &id
		if out[i].RegionID == nil && node.RegionID != nil {
			region := *node.RegionID
			out[i].RegionID = &region
		}

		if logger != nil {
			logger.WithFields(logrus.Fields{
				"hotspot_id":  out[i].ID,
				"node_id":     id,
				"distance_km": utils.RoundTo(km, 3),
			}).Debug("Snapped hotspot to road network")
		}
	}
	return out
}
