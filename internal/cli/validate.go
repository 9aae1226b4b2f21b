package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Christianib003/kigali-ems-pipeline-optimization/internal/hotspot"
)

func newValidateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a hotspot config and list every problem found",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.checkOutput(); err != nil {
				return err
			}
			doc, err := hotspot.LoadDocument(args[0])
			if err != nil {
				return err
			}
			problems := hotspot.Validate(doc)

			out := cmd.OutOrStdout()
			if opts.output == "json" {
				if problems == nil {
					problems = []string{}
				}
				if err := opts.printJSON(out, map[string]any{
					"file":     args[0],
					"valid":    len(problems) == 0,
					"problems": problems,
				}); err != nil {
					return err
				}
			} else if len(problems) == 0 {
				fmt.Fprintf(out, "%s: OK\n", args[0])
			} else {
				for _, p := range problems {
					fmt.Fprintf(out, "- %s\n", p)
				}
			}

			if len(problems) > 0 {
				return fmt.Errorf("%s: %d problem(s) found", args[0], len(problems))
			}
			return nil
		},
	}
}
