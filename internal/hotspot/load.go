package hotspot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Christianib003/kigali-ems-pipeline-optimization/internal/domain"
)

// ValidationError carries the findings that blocked a hotspot config
type ValidationError struct {
	Findings []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("hotspot: config has %d problem(s): %s", len(e.Findings), strings.Join(e.Findings, "; "))
}

// LoadDocument reads a hotspot document from a .json, .yaml or .yml file
func LoadDocument(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("hotspot: failed to read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return ParseJSON(data)
	}
}

// ParseJSON decodes a JSON hotspot document
func ParseJSON(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("hotspot: failed to decode json: %w", err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return doc, nil
}

// ParseYAML decodes a YAML hotspot document
func ParseYAML(data []byte) (map[string]any, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("hotspot: failed to decode yaml: %w", err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return doc, nil
}

// Decode converts a document into typed hotspots. It returns a
// *ValidationError when Validate reports any finding.
func Decode(doc map[string]any) (domain.HotspotConfig, error) {
	if findings := Validate(doc); len(findings) > 0 {
		return domain.HotspotConfig{}, &ValidationError{Findings: findings}
	}

	raw := doc["hotspots"].([]any)
	cfg := domain.HotspotConfig{Hotspots: make([]domain.Hotspot, 0, len(raw))}

	for _, item := range raw {
		hs, _ := asObject(item)

		// Validate guarantees these conversions succeed
		lat, _ := toFloat(hs["lat"])
		lon, _ := toFloat(hs["lon"])
		weight, _ := toFloat(hs["weight"])

		spot := domain.Hotspot{
			ID:        strings.TrimSpace(asText(hs["id"])),
			Name:      strings.TrimSpace(asText(hs["name"])),
			Latitude:  lat,
			Longitude: lon,
			Weight:    weight,
			Notes:     asText(hs["notes"]),
		}

		if v, ok := hs["node_id"]; ok && v != nil {
			f, err := toFloat(v)
			if err != nil || f != float64(int64(f)) {
				return domain.HotspotConfig{}, fmt.Errorf("hotspot: %s has non-integer node_id %v", spot.ID, v)
			}
			nodeID := int64(f)
			spot.NodeID = &nodeID
		}
		if region := strings.TrimSpace(asText(hs["region_id"])); region != "" {
			spot.RegionID = &region
		}

		cfg.Hotspots = append(cfg.Hotspots, spot)
	}

	return cfg, nil
}

// Load reads, validates and decodes a hotspot config file
func Load(path string) (domain.HotspotConfig, error) {
	doc, err := LoadDocument(path)
	if err != nil {
		return domain.HotspotConfig{}, err
	}
	return Decode(doc)
}

// Table flattens hotspots into inspection rows
func Table(cfg domain.HotspotConfig) []domain.HotspotRow {
	rows := make([]domain.HotspotRow, 0, len(cfg.Hotspots))
	for _, hs := range cfg.Hotspots {
		rows = append(rows, domain.HotspotRow{
			ID:        hs.ID,
			Name:      hs.Name,
			Latitude:  hs.Latitude,
			Longitude: hs.Longitude,
			Weight:    hs.Weight,
			Notes:     hs.Notes,
		})
	}
	return rows
}
