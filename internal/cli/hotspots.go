package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Christianib003/kigali-ems-pipeline-optimization/internal/hotspot"
)

func newHotspotsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "hotspots <file>",
		Short: "Print a validated hotspot config as a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.checkOutput(); err != nil {
				return err
			}
			cfg, err := hotspot.Load(args[0])
			if err != nil {
				return err
			}
			rows := hotspot.Table(cfg)

			if opts.output == "json" {
				return opts.printJSON(cmd.OutOrStdout(), rows)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tLAT\tLON\tWEIGHT\tNOTES")
			for _, r := range rows {
				fmt.Fprintf(tw, "%s\t%s\t%.5f\t%.5f\t%g\t%s\n", r.ID, r.Name, r.Latitude, r.Longitude, r.Weight, r.Notes)
			}
			return tw.Flush()
		},
	}
}
