// Package cli implements the incidentgen command line tool.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Christianib003/kigali-ems-pipeline-optimization/pkg/config"
	"github.com/Christianib003/kigali-ems-pipeline-optimization/pkg/logging"
)

type options struct {
	cfg      *config.Config
	output   string
	logLevel string
}

// NewRootCmd returns the root command. cfg supplies flag defaults.
func NewRootCmd(cfg *config.Config) *cobra.Command {
	opts := &options{cfg: cfg}

	rootCmd := &cobra.Command{
		Use:           "incidentgen",
		Short:         "Synthetic EMS incident generator for Kigali",
		Long:          "incidentgen validates hotspot configs and generates reproducible synthetic incident ledgers.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.output, "output", "text", "output format: json|text")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", cfg.LogLevel, "log level: debug|info|warn|error")

	rootCmd.AddCommand(newValidateCmd(opts))
	rootCmd.AddCommand(newHotspotsCmd(opts))
	rootCmd.AddCommand(newGenerateCmd(opts))
	rootCmd.AddCommand(newLastIDCmd(opts))

	return rootCmd
}

// logger writes to the command's stderr so stdout stays machine readable
func (o *options) logger(cmd *cobra.Command) *logrus.Logger {
	log := logging.NewLogger(o.logLevel)
	log.SetOutput(cmd.ErrOrStderr())
	return log
}

func (o *options) printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (o *options) checkOutput() error {
	switch o.output {
	case "json", "text":
		return nil
	}
	return fmt.Errorf("unknown output format %q (want json or text)", o.output)
}
