// Package run lays out per-experiment directories and records the settings
// each generation run used.
package run

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Run is one experiment directory: <root>/<category>/<timestamp>_<tag>
type Run struct {
	ID          string
	Name        string
	Dir         string
	ArtifactDir string
	LogDir      string
	StartedAt   time.Time
}

// New creates the run directory with artifacts/ and logs/ subdirectories
func New(root, category, tag string, now time.Time) (*Run, error) {
	if tag == "" {
		tag = "default"
	}
	name := fmt.Sprintf("%s_%s", now.Format("20060102_150405"), tag)
	dir := filepath.Join(root, category, name)

	r := &Run{
		ID:          uuid.NewString(),
		Name:        name,
		Dir:         dir,
		ArtifactDir: filepath.Join(dir, "artifacts"),
		LogDir:      filepath.Join(dir, "logs"),
		StartedAt:   now,
	}

	for _, d := range []string{r.ArtifactDir, r.LogDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("run: failed to create %s: %w", d, err)
		}
	}
	return r, nil
}

// SaveConfig writes v as config.yaml in the run directory
func (r *Run) SaveConfig(v any) (string, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("run: failed to encode config: %w", err)
	}

	path := filepath.Join(r.Dir, "config.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("run: failed to write %s: %w", path, err)
	}
	return path, nil
}

// Path returns a path inside the artifact directory
func (r *Run) Path(filename string) string {
	return filepath.Join(r.ArtifactDir, filename)
}

// OpenLog opens (or appends to) a log file in the run's log directory
func (r *Run) OpenLog(filename string) (*os.File, error) {
	path := filepath.Join(r.LogDir, filename)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("run: failed to open log %s: %w", path, err)
	}
	return f, nil
}
