package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docnav/internal/navindex"
	"github.com/dgallion1/docnav/internal/navtree"
)

func resolveCmd(opts *globalOpts) *cobra.Command {
	var bucket bool

	cmd := &cobra.Command{
		Use:   "resolve PAGE...",
		Short: "Print the index fragment key for each page",
		Args:  cobra.MinimumNArgs(1),
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

			lookup := e.site.Resolver.Resolve
			if bucket {
				lookup = e.site.Resolver.Bucket
			}

			out := cmd.OutOrStdout()
			var failed int
			for _, page := range args {
				key, err := lookup(page)
				if err != nil {
					failed++
					fmt.Fprintf(out, "%s\t%v\n", page, err)
					continue
				}
				fmt.Fprintf(out, "%s\t%s\n", page, key)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d pages: %w", failed, len(args), navindex.ErrUnknownPage)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&bucket, "bucket", false, "Find the covering fragment in a sorted index instead of an exact entry")
	return cmd
}

func classifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify TARGET...",
		Short: "Print the link kind and href of each target",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, target := range args {
				fmt.Fprintf(out, "%s\t%s\t%s\n", target, navtree.Classify(target), navtree.Href(target))
			}
			return nil
		},
	}
}
