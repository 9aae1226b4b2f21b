package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Christianib003/kigali-ems-pipeline-optimization/internal/repository/csvfile"
)

func newLastIDCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "last-id [csv]",
		Short: "Print the highest incident id in a ledger (0 when missing)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.cfg.IncidentsCSV
			if len(args) == 1 {
				path = args[0]
			}

			last, err := csvfile.NewStore(path).LastIncidentID(cmd.Context())
			if err != nil {
				return err
			}

			if opts.output == "json" {
				return opts.printJSON(cmd.OutOrStdout(), map[string]any{"path": path, "last_incident_id": last})
			}
			fmt.Fprintln(cmd.OutOrStdout(), last)
			return nil
		},
	}
}
