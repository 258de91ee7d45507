package main

import (
	"fmt"

	"github.com/vanderheijden86/conceptgraph/pkg/graph"
	"github.com/vanderheijden86/conceptgraph/pkg/loader"
	"github.com/vanderheijden86/conceptgraph/pkg/model"

	"github.com/spf13/cobra"
)

func validateCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Check a dataset without opening the viewer",
		Long: "Parses the dataset and checks that every link points at a known concept.\n" +
			"With no file the configured dataset (or the built-in one) is checked.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load(cmd)
			if err != nil {
				return err
			}
			path := loader.ResolvePath(cfg.Data)
			if len(args) == 1 {
				path = args[0]
			}
			return runValidate(cmd, path)
		},
	}
}

func runValidate(cmd *cobra.Command, path string) error {
	out := cmd.OutOrStdout()
	name := path
	if name == "" {
		name = "built-in dataset"
	}

	var warnings []string
	ds, err := loader.LoadContext(cmd.Context(), path, loader.ParseOptions{
		WarningHandler: func(msg string) { warnings = append(warnings, msg) },
	})
	if err != nil {
		return err
	}
	m, err := graph.FromDataset(ds)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	for _, w := range warnings {
		fmt.Fprintf(out, "%s %s\n", warn.Sprint("!"), w)
	}
	primary, secondary := 0, 0
	for _, n := range m.Nodes() {
		if n.Kind == model.KindPrimary {
			primary++
		} else {
			secondary++
		}
	}
	fmt.Fprintf(out, "%s %s\n", good.Sprint("✓"), name)
	fmt.Fprintf(out, "  %s %d (%d central, %d related)\n", subtle.Sprint("concepts:"), m.Len(), primary, secondary)
	fmt.Fprintf(out, "  %s %d\n", subtle.Sprint("links:   "), m.EdgeCount())
	fmt.Fprintf(out, "  %s %d\n", subtle.Sprint("clusters:"), m.Clusters())
	return nil
}
