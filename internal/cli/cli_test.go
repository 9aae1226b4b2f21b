package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Christianib003/kigali-ems-pipeline-optimization/pkg/config"
)

const (
	hotspotsJSON = `{"hotspots": [
  {"id": "h1", "name": "Nyabugogo Junction", "lat": -1.9390, "lon": 30.0445, "weight": 3},
  {"id": "h2", "name": "Kimironko Market", "lat": -1.9494, "lon": 30.1258, "weight": 1}
]}`
	badHotspotsYAML = `hotspots:
  - id: h1
    name: HOTSPOT_NAME_1
    lat: null
    lon: 30.1
    weight: 0
`
	nodesCSV = "node_id,lat,lon,region_id\n1,-1.9441,30.0619,nyarugenge\n2,-1.9494,30.1258,gasabo\n3,-1.9656,30.1036,\n"
)

type fixture struct {
	dir      string
	cfg      *config.Config
	hotspots string
	nodes    string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()

	f := fixture{
		dir:      dir,
		hotspots: filepath.Join(dir, "hotspots.json"),
		nodes:    filepath.Join(dir, "nodes.csv"),
	}
	require.NoError(t, os.WriteFile(f.hotspots, []byte(hotspotsJSON), 0o644))
	require.NoError(t, os.WriteFile(f.nodes, []byte(nodesCSV), 0o644))

	f.cfg = &config.Config{
		LogLevel:        "info",
		HotspotsPath:    f.hotspots,
		NodesPath:       f.nodes,
		IncidentsCSV:    filepath.Join(dir, "ledger", "incidents.csv"),
		HorizonMin:      1440,
		HotspotFraction: 0.8,
		Seed:            42,
		RunsDir:         filepath.Join(dir, "runs"),
	}
	return f
}

func execute(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd(cfg)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func TestValidateCommand(t *testing.T) {
	f := newFixture(t)

	out, err := execute(t, f.cfg, "validate", f.hotspots)
	require.NoError(t, err)
	assert.Contains(t, out, "OK")

	bad := filepath.Join(f.dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte(badHotspotsYAML), 0o644))

	out, err = execute(t, f.cfg, "validate", bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "3 problem(s)")
	assert.Equal(t,
		"- h1 has missing placeholder name\n- h1 has missing lat/lon (null)\n- h1 has non-positive weight\n",
		out)
}

func TestValidateCommandJSON(t *testing.T) {
	f := newFixture(t)

	out, err := execute(t, f.cfg, "validate", "--output", "json", f.hotspots)
	require.NoError(t, err)

	var res struct {
		Valid    bool     `json:"valid"`
		Problems []string `json:"problems"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.Valid)
	assert.Empty(t, res.Problems)
}

func TestHotspotsCommand(t *testing.T) {
	f := newFixture(t)

	out, err := execute(t, f.cfg, "hotspots", f.hotspots)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[1], "Nyabugogo Junction")

	_, err = execute(t, f.cfg, "hotspots", "--output", "xml", f.hotspots)
	assert.Error(t, err)
}

func TestGenerateFreshThenResume(t *testing.T) {
	f := newFixture(t)
	ledgerPath := filepath.Join(f.dir, "incidents.csv")

	_, err := execute(t, f.cfg, "generate", "--n", "25", "--out", ledgerPath)
	require.NoError(t, err)

	out, err := execute(t, f.cfg, "last-id", ledgerPath)
	require.NoError(t, err)
	assert.Equal(t, "25\n", out)

	// Without --resume an existing ledger is never overwritten
	_, err = execute(t, f.cfg, "generate", "--n", "5", "--out", ledgerPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--resume")

	out, err = execute(t, f.cfg, "generate", "--n", "10", "--seed", "7", "--out", ledgerPath, "--resume", "--output", "json")
	require.NoError(t, err)

	var res struct {
		Count   int    `json:"count"`
		FirstID int64  `json:"first_id"`
		LastID  int64  `json:"last_id"`
		RunDir  string `json:"run_dir"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 10, res.Count)
	assert.Equal(t, int64(26), res.FirstID)
	assert.Equal(t, int64(35), res.LastID)
	assert.FileExists(t, filepath.Join(res.RunDir, "config.yaml"))

	logData, err := os.ReadFile(filepath.Join(res.RunDir, "logs", "generate.log"))
	require.NoError(t, err)
	assert.Contains(t, string(logData), "Generation finished")

	out, err = execute(t, f.cfg, "last-id", ledgerPath)
	require.NoError(t, err)
	assert.Equal(t, "35\n", out)
}

func TestGenerateDefaultsToRunArtifacts(t *testing.T) {
	f := newFixture(t)

	out, err := execute(t, f.cfg, "generate", "--n", "3", "--output", "json")
	require.NoError(t, err)

	var res struct {
		Output string `json:"output"`
		RunDir string `json:"run_dir"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, filepath.Join(res.RunDir, "artifacts", "incidents.csv"), res.Output)
	assert.FileExists(t, res.Output)
}

func TestGenerateRejectsBadFraction(t *testing.T) {
	f := newFixture(t)

	_, err := execute(t, f.cfg, "generate", "--n", "3", "--fraction", "1.5")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hotspot fraction")
	assert.NoDirExists(t, f.cfg.RunsDir)
}

func TestLastIDMissingLedger(t *testing.T) {
	f := newFixture(t)

	out, err := execute(t, f.cfg, "last-id")
	require.NoError(t, err)
	assert.Equal(t, "0\n", out)
}

func TestGenerateStoreFailureLeavesRecord(t *testing.T) {
	f := newFixture(t)
	// a directory is not a readable ledger
	ledgerDir := filepath.Join(f.dir, "not-a-file")
	require.NoError(t, os.Mkdir(ledgerDir, 0o755))

	_, err := execute(t, f.cfg, "generate", "--n", "3", "--resume", "--out", ledgerDir)
	require.Error(t, err)

	runs, err := filepath.Glob(filepath.Join(f.cfg.RunsDir, "incidents", "*"))
	require.NoError(t, err)
	require.Len(t, runs, 1)

	data, err := os.ReadFile(filepath.Join(runs[0], "config.yaml"))
	require.NoError(t, err)

	var record generateRecord
	require.NoError(t, yaml.Unmarshal(data, &record))
	assert.Equal(t, "failed", record.Status)
	assert.NotEmpty(t, record.Error)
	assert.Zero(t, record.LastID)

	logData, err := os.ReadFile(filepath.Join(runs[0], "logs", "generate.log"))
	require.NoError(t, err)
	assert.Contains(t, string(logData), "Generation failed")
}
