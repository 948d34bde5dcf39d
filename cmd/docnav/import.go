package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docnav/internal/navindex"
	"github.com/dgallion1/docnav/internal/navjs"
	"github.com/dgallion1/docnav/internal/navtree"
	"github.com/dgallion1/docnav/internal/outline"
)

var errNoInput = errors.New("no importable files")

func importCmd() *cobra.Command {
	var (
		title    string
		rootPage string
		out      string
	)

	cmd := &cobra.Command{
		Use:   "import PATH...",
		Short: "Build navtreedata.js from the headings of Markdown, HTML, DOCX, PDF or text files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := collectFiles(args)
			if err != nil {
				return err
			}
			doc, err := importDocument(title, rootPage, files)
			if err != nil {
				return err
			}
			data, err := doc.Marshal()
			if err != nil {
				return err
			}
			if out == "" || out == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			return os.WriteFile(out, data, 0o644)
		},
	}
	cmd.Flags().StringVar(&title, "title", "Documentation", "Title of the root node")
	cmd.Flags().StringVar(&rootPage, "root-page", "index.html", "Target of the root node")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write to this file instead of stdout")
	return cmd
}

// collectFiles expands directories into the importable files they contain,
// in lexical order.
func collectFiles(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		err := filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && outline.IsSupportedExtension(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", p, err)
		}
	}
	if len(files) == 0 {
		return nil, errNoInput
	}
	slices.Sort(files)
	return files, nil
}

// importDocument places one node per file under a root node and indexes
// every page the tree links to.
func importDocument(title, rootPage string, files []string) (*navjs.Document, error) {
	docs := make([]*navtree.Node, 0, len(files))
	for _, path := range files {
		imp, err := outline.ForFile(path)
		if err != nil {
			return nil, err
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		node, err := imp.Import(f, path)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("import %s: %w", path, err)
		}
		docs = append(docs, node)
	}

	root := navtree.New(title, rootPage, docs...)
	if err := navtree.Validate(root); err != nil {
		return nil, err
	}

	var index navindex.Index
	for page := range navtree.Pages(root) {
		if page != rootPage {
			index = append(index, page)
		}
	}
	slices.Sort(index)

	return &navjs.Document{
		Tree:   root,
		Index:  index,
		Labels: navtree.DefaultToggleLabels,
	}, nil
}
