// Package network reads the road-network node catalog exported by the
// network provider and snaps hotspots onto it.
package network

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Christianib003/kigali-ems-pipeline-optimization/internal/domain"
	"github.com/Christianib003/kigali-ems-pipeline-optimization/pkg/utils"
)

// LoadNodes reads a node catalog from a .json array or a .csv file with a
// node_id,lat,lon[,region_id] header
func LoadNodes(path string) ([]domain.NodeRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("network: failed to open %s: %w", path, err)
	}
	defer f.Close()

	var nodes []domain.NodeRecord
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		nodes, err = decodeJSON(f)
	default:
		nodes, err = decodeCSV(f)
	}
	if err != nil {
		return nil, fmt.Errorf("network: %s: %w", path, err)
	}
	return nodes, nil
}

type jsonNode struct {
	NodeID   *int64   `json:"node_id"`
	Lat      *float64 `json:"lat"`
	Lon      *float64 `json:"lon"`
	RegionID any      `json:"region_id"`
}

func decodeJSON(r io.Reader) ([]domain.NodeRecord, error) {
	var raw []jsonNode
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode json: %w", err)
	}

	nodes := make([]domain.NodeRecord, 0, len(raw))
	for i, n := range raw {
		if n.NodeID == nil {
			return nil, fmt.Errorf("node %d: missing node_id", i)
		}
		if n.Lat == nil || n.Lon == nil {
			return nil, fmt.Errorf("node %d: missing lat/lon", *n.NodeID)
		}
		rec := domain.NodeRecord{NodeID: *n.NodeID, Latitude: *n.Lat, Longitude: *n.Lon}
		if n.RegionID != nil {
			region := fmt.Sprint(n.RegionID)
			if f, ok := n.RegionID.(float64); ok {
				region = strconv.FormatFloat(f, 'f', -1, 64)
			}
			if region != "" {
				rec.RegionID = &region
			}
		}
		nodes = append(nodes, rec)
	}
	return nodes, nil
}

func decodeCSV(r io.Reader) ([]domain.NodeRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	col := map[string]int{}
	for i, h := range header {
		col[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, required := range []string{"node_id", "lat", "lon"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("missing column %s", required)
		}
	}
	regionCol, hasRegion := col["region_id"]

	var nodes []domain.NodeRecord
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		get := func(i int) string {
			if i < len(rec) {
				return strings.TrimSpace(rec[i])
			}
			return ""
		}

		id, err := strconv.ParseInt(get(col["node_id"]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad node_id: %w", line, err)
		}
		lat, err := strconv.ParseFloat(get(col["lat"]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad lat: %w", line, err)
		}
		lon, err := strconv.ParseFloat(get(col["lon"]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad lon: %w", line, err)
		}

		node := domain.NodeRecord{NodeID: id, Latitude: lat, Longitude: lon}
		if hasRegion {
			if region := get(regionCol); region != "" {
				node.RegionID = &region
			}
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// Nearest returns the node closest to (lat, lon) by great-circle distance,
// along with that distance in kilometres
func Nearest(nodes []domain.NodeRecord, lat, lon float64) (domain.NodeRecord, float64, bool) {
	best := -1
	bestKm := math.Inf(1)
	for i, n := range nodes {
		if d := utils.Haversine(lat, lon, n.Latitude, n.Longitude); d < bestKm {
			best, bestKm = i, d
		}
	}
	if best < 0 {
		return domain.NodeRecord{}, 0, false
	}
	return nodes[best], bestKm, true
}
