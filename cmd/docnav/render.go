package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docnav/internal/render"
)

func renderCmd(opts *globalOpts) *cobra.Command {
	var (
		expand bool
		out    string
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the navigation tree as an HTML sidebar",
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

			tree := e.site.Tree
			if expand {
				full, err := e.materialize(ctx, tree)
				if err != nil {
					return err
				}
				tree = full
			}

			html, err := render.Sidebar(tree, e.site.Labels)
			if err != nil {
				return err
			}
			if out != "" && out != "-" {
				return os.WriteFile(out, html, 0o644)
			}
			_, err = cmd.OutOrStdout().Write(html)
			return err
		},
	}
	cmd.Flags().BoolVar(&expand, "expand", true, "Load lazy fragments before rendering")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write to this file instead of stdout")
	return cmd
}
