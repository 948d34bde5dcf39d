package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docnav/internal/linkcheck"
)

func checkCmd(opts *globalOpts) *cobra.Command {
	var (
		expand  bool
		asJSON  bool
		workers int
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify that every navigation link points at an existing page and anchor",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			e, err := setup(ctx, opts)
			if err != nil {
				return err
			}
			defer e.close()
			if workers > 0 {
				e.cfg.CheckWorkers = workers
			}

			tree := e.site.Tree
			if expand {
				full, err := e.materialize(ctx, tree)
				if err != nil {
					return err
				}
				tree = full
			}

			report, err := linkcheck.NewChecker(e.src, e.cfg.CheckWorkers, e.log).Check(ctx, tree)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else {
				for _, w := range e.site.Warnings {
					fmt.Fprintf(out, "warning: %v\n", w)
				}
				for _, p := range report.Problems {
					fmt.Fprintln(out, p.String())
				}
				fmt.Fprintf(out, "%d links checked on %d pages, %d external, %d problems\n",
					report.Checked, report.Pages, report.External, len(report.Problems))
			}
			if !report.OK() {
				return fmt.Errorf("%d broken links", len(report.Problems))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&expand, "expand", true, "Load lazy fragments and check their links too")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	cmd.Flags().IntVar(&workers, "workers", 0, "Pages fetched in parallel (overrides DOCNAV_CHECK_WORKERS)")
	return cmd
}
