package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Christianib003/kigali-ems-pipeline-optimization/internal/domain"
	"github.com/Christianib003/kigali-ems-pipeline-optimization/internal/generator"
	"github.com/Christianib003/kigali-ems-pipeline-optimization/internal/hotspot"
	"github.com/Christianib003/kigali-ems-pipeline-optimization/internal/ledger"
	"github.com/Christianib003/kigali-ems-pipeline-optimization/internal/network"
	"github.com/Christianib003/kigali-ems-pipeline-optimization/internal/repository/csvfile"
	"github.com/Christianib003/kigali-ems-pipeline-optimization/internal/run"
	"github.com/Christianib003/kigali-ems-pipeline-optimization/internal/sampling"
)

// generateRecord is saved as the run's config.yaml
type generateRecord struct {
	RunID           string  `yaml:"run_id"`
	StartedAt       string  `yaml:"started_at"`
	HotspotsPath    string  `yaml:"hotspots_path"`
	NodesPath       string  `yaml:"nodes_path"`
	Output          string  `yaml:"output"`
	Resume          bool    `yaml:"resume"`
	N               int     `yaml:"n"`
	Seed            int64   `yaml:"seed"`
	HotspotFraction float64 `yaml:"hotspot_fraction"`
	HorizonMin      int     `yaml:"horizon_min"`
	FirstID         int64   `yaml:"first_id"`
	LastID          int64   `yaml:"last_id"`
	Status          string  `yaml:"status"`
	Error           string  `yaml:"error,omitempty"`
}

type generateFlags struct {
	hotspots string
	nodes    string
	n        int
	seed     int64
	fraction float64
	horizon  int
	out      string
	resume   bool
	runTag   string
	runsDir  string
}

func newGenerateCmd(opts *options) *cobra.Command {
	f := &generateFlags{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a batch of synthetic incidents",
		Long: "Generate a batch of synthetic incidents into a new run directory, or with --resume " +
			"append it to an existing ledger with ids continuing after the last one.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.checkOutput(); err != nil {
				return err
			}
			return runGenerate(cmd, opts, f)
		},
	}

	cfg := opts.cfg
	cmd.Flags().StringVar(&f.hotspots, "hotspots", cfg.HotspotsPath, "hotspot config (.json or .yaml)")
	cmd.Flags().StringVar(&f.nodes, "nodes", cfg.NodesPath, "road-network node catalog (.csv or .json)")
	cmd.Flags().IntVar(&f.n, "n", 1000, "number of incidents to generate")
	cmd.Flags().Int64Var(&f.seed, "seed", cfg.Seed, "random seed")
	cmd.Flags().Float64Var(&f.fraction, "fraction", cfg.HotspotFraction, "probability of drawing from a hotspot")
	cmd.Flags().IntVar(&f.horizon, "horizon", cfg.HorizonMin, "simulation horizon in minutes")
	cmd.Flags().StringVar(&f.out, "out", "", "incident CSV (default: ledger path with --resume, run artifacts otherwise)")
	cmd.Flags().BoolVar(&f.resume, "resume", false, "append to an existing ledger after its last incident id")
	cmd.Flags().StringVar(&f.runTag, "run-tag", "generate", "suffix of the run directory name")
	cmd.Flags().StringVar(&f.runsDir, "runs-dir", cfg.RunsDir, "root directory for run records")

	return cmd
}

func runGenerate(cmd *cobra.Command, opts *options, f *generateFlags) error {
	log := opts.logger(cmd)

	hotspots, err := hotspot.Load(f.hotspots)
	if err != nil {
		return err
	}
	nodes, err := network.LoadNodes(f.nodes)
	if err != nil {
		return err
	}

	params := generator.Params{
		N:               f.n,
		Hotspots:        network.Snap(hotspots.Hotspots, nodes, log),
		Nodes:           nodes,
		HorizonMin:      f.horizon,
		Seed:            f.seed,
		HotspotFraction: f.fraction,
		Severity:        sampling.DefaultSeverityTable,
	}
	if err := params.Check(); err != nil {
		return err
	}

	if f.out != "" && !f.resume {
		if _, err := os.Stat(f.out); err == nil {
			return fmt.Errorf("%s already exists; use --resume to extend it", f.out)
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to stat %s: %w", f.out, err)
		}
	}

	r, err := run.New(f.runsDir, "incidents", f.runTag, time.Now())
	if err != nil {
		return err
	}

	logFile, err := r.OpenLog("generate.log")
	if err != nil {
		return err
	}
	defer logFile.Close()
	log.SetOutput(io.MultiWriter(cmd.ErrOrStderr(), logFile))

	out := f.out
	switch {
	case out == "" && f.resume:
		out = opts.cfg.IncidentsCSV
	case out == "":
		out = r.Path("incidents.csv")
	}

	record := generateRecord{
		RunID:           r.ID,
		StartedAt:       r.StartedAt.Format(time.RFC3339),
		HotspotsPath:    f.hotspots,
		NodesPath:       f.nodes,
		Output:          out,
		Resume:          f.resume,
		N:               params.N,
		Seed:            params.Seed,
		HotspotFraction: params.HotspotFraction,
		HorizonMin:      params.HorizonMin,
	}

	log.WithFields(logrus.Fields{
		"run":    r.Name,
		"output": out,
		"n":      params.N,
		"seed":   params.Seed,
	}).Info("Generation started")

	// A fresh file has no prior ids, so the ledger numbers it from 1
	incidents, err := ledger.New(csvfile.NewStore(out), log).Extend(cmd.Context(), params)
	if err != nil {
		log.WithError(err).Error("Generation failed")
		record.Status = "failed"
		record.Error = err.Error()
		if _, saveErr := r.SaveConfig(record); saveErr != nil {
			return errors.Join(err, saveErr)
		}
		return err
	}
	batch := domain.NewIncidentBatch(incidents, params.Seed)

	record.Status = "ok"
	record.FirstID = batch.FirstID
	record.LastID = batch.LastID
	configPath, err := r.SaveConfig(record)
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"run":    r.Name,
		"output": out,
		"count":  batch.Count,
	}).Info("Generation finished")

	if opts.output == "json" {
		return opts.printJSON(cmd.OutOrStdout(), map[string]any{
			"run_id":   r.ID,
			"run_dir":  r.Dir,
			"config":   configPath,
			"output":   out,
			"count":    batch.Count,
			"first_id": batch.FirstID,
			"last_id":  batch.LastID,
			"seed":     batch.Seed,
		})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d incident(s) [%d..%d] to %s\nrun: %s\n",
		batch.Count, batch.FirstID, batch.LastID, out, r.Dir)
	return nil
}
