// Package hotspot loads hotspot configurations and validates them before
// they are used as a sampling prior.
package hotspot

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Christianib003/kigali-ems-pipeline-optimization/internal/domain"
)

// Validate checks a decoded hotspot document and returns one message per
// violation. An empty result means the document is usable as a prior.
func Validate(doc map[string]any) []string {
	raw, ok := doc["hotspots"].([]any)
	if !ok {
		return []string{"'hotspots' must be a list"}
	}

	var errs []string
	seen := make(map[string]struct{}, len(raw))

	for i, item := range raw {
		hs, ok := asObject(item)
		if !ok {
			errs = append(errs, fmt.Sprintf("hotspots[%d] must be an object", i))
			continue
		}

		id := strings.TrimSpace(asText(hs["id"]))
		name := strings.TrimSpace(asText(hs["name"]))

		if id == "" {
			errs = append(errs, fmt.Sprintf("hotspots[%d].id is missing/empty", i))
		} else if _, dup := seen[id]; dup {
			errs = append(errs, "duplicate hotspot id: "+id)
		} else {
			seen[id] = struct{}{}
		}

		ref := id
		if ref == "" {
			ref = fmt.Sprintf("hotspots[%d]", i)
		}

		if name == "" || strings.HasPrefix(name, domain.PlaceholderNamePrefix) {
			errs = append(errs, ref+" has missing placeholder name")
		}

		lat, lon := hs["lat"], hs["lon"]
		if lat == nil || lon == nil {
			errs = append(errs, ref+" has missing lat/lon (null)")
		} else {
			_, latErr := toFloat(lat)
			_, lonErr := toFloat(lon)
			if latErr != nil || lonErr != nil {
				errs = append(errs, ref+" has non-numeric lat/lon")
			}
		}

		w, err := toFloat(hs["weight"])
		switch {
		case err != nil:
			errs = append(errs, ref+" has invalid weight")
		case w <= 0:
			errs = append(errs, ref+" has non-positive weight")
		}
	}

	return errs
}

// asObject accepts both JSON objects and YAML mappings
func asObject(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	}
	return nil, false
}

// asText renders scalar ids and names; nil is empty
func asText(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

// toFloat converts numbers and numeric strings to a finite float64
func toFloat(v any) (float64, error) {
	var f float64
	switch n := v.(type) {
	case nil:
		return 0, fmt.Errorf("value is null")
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case int32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, err
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, err
		}
		f = parsed
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("value %v is not finite", f)
	}
	return f, nil
}
