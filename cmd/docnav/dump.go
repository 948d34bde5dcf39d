package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docnav/internal/navtree"
	"github.com/dgallion1/docnav/internal/render"
)

func dumpCmd(opts *globalOpts) *cobra.Command {
	var (
		format string
		expand bool
	)

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the navigation tree",
		Long: `Print the navigation tree.

Formats:
  flat      one line per node in display order, indented by depth (default)
  js        navtreedata.js in the generator's layout
  markdown  nested Markdown list of links`,
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

			doc := e.site.Document()
			if expand {
				full, err := e.materialize(ctx, doc.Tree)
				if err != nil {
					return err
				}
				doc.Tree = full
			}

			out := cmd.OutOrStdout()
			switch format {
			case "flat":
				writeFlat(out, doc.Tree)
			case "js":
				data, err := doc.Marshal()
				if err != nil {
					return err
				}
				_, err = out.Write(data)
				return err
			case "markdown", "md":
				_, err := io.WriteString(out, render.Markdown(doc.Tree))
				return err
			default:
				return fmt.Errorf("unknown format %q", format)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "flat", "Output format: flat, js or markdown")
	cmd.Flags().BoolVar(&expand, "expand", false, "Load lazy fragments before printing")
	return cmd
}

func writeFlat(w io.Writer, root *navtree.Node) {
	for e := range navtree.Flatten(root) {
		n := e.Node
		line := strings.Repeat("  ", e.Depth) + n.Title
		if n.Target != "" {
			line += " -> " + n.Target
		}
		if n.IsLazy() {
			line += " [" + n.Children.Key + "]"
		}
		fmt.Fprintln(w, line)
	}
}
