package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vanderheijden86/conceptgraph/pkg/app"
	"github.com/vanderheijden86/conceptgraph/pkg/config"
	"github.com/vanderheijden86/conceptgraph/pkg/export"
	"github.com/vanderheijden86/conceptgraph/pkg/loader"
	"github.com/vanderheijden86/conceptgraph/pkg/logging"
	"github.com/vanderheijden86/conceptgraph/pkg/metrics"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// fixedSurface is an off-screen surface of a set pixel size.
type fixedSurface struct{ w, h int }

func (s fixedSurface) Size() (int, int) { return s.w, s.h }

type exportOptions struct {
	out           string
	format        string
	title         string
	width         int
	height        int
	ticks         int
	hidePrimary   bool
	hideSecondary bool
	stats         bool
}

func exportCmd(g *globalFlags) *cobra.Command {
	o := exportOptions{}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Lay out the graph off-screen and write it to a file",
		Long: "Runs the layout until it settles and writes the result as an SVG or PNG\n" +
			"picture or as a SQLite database of concepts, links and positions.",
		Example: "  cg export --out graph.svg\n" +
			"  cg export -d concepts.yaml --out graph.db --stats",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load(cmd)
			if err != nil {
				return err
			}
			return runExport(cmd, cfg, o)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&o.out, "out", "o", "concepts.svg", "output file")
	f.StringVarP(&o.format, "format", "f", "", "svg, png or sqlite (default from the file extension)")
	f.StringVar(&o.title, "title", "", "title stored with the export (default from the dataset name)")
	f.IntVar(&o.width, "width", 1200, "surface width in pixels")
	f.IntVar(&o.height, "height", 800, "surface height in pixels")
	f.IntVar(&o.ticks, "ticks", 600, "maximum layout ticks before writing")
	f.BoolVar(&o.hidePrimary, "hide-primary", false, "hide central themes")
	f.BoolVar(&o.hideSecondary, "hide-secondary", false, "hide related concepts")
	f.BoolVar(&o.stats, "stats", false, "print load and layout timings")
	return cmd
}

func runExport(cmd *cobra.Command, cfg config.Config, o exportOptions) error {
	format, err := export.FormatOf(o.out, o.format)
	if err != nil {
		return err
	}
	if o.width <= 0 || o.height <= 0 {
		return fmt.Errorf("surface must be positive, got %dx%d", o.width, o.height)
	}

	logger, closeLog, err := logging.New(logging.Options{Level: cfg.Log.Level, File: cfg.LogPath()})
	if err != nil {
		return err
	}
	defer closeLog()

	a := app.New(cfg, app.WithLogger(logger))
	defer a.Close()

	g, err := a.Init(cmd.Context(), fixedSurface{w: o.width, h: o.height})
	if err != nil {
		return err
	}
	if o.hidePrimary || o.hideSecondary {
		g.FilterNodes(!o.hidePrimary, !o.hideSecondary)
	}
	ticks := g.Settle(o.ticks)

	title := o.title
	if title == "" {
		title = datasetTitle(loader.ResolvePath(cfg.Data))
	}
	snap := export.FromGraph(g, title)
	stop := metrics.Timer(a.Metrics().Export)
	err = export.Save(snap, o.out, format)
	stop()
	if err != nil {
		return err
	}
	logger.Info("exported",
		zap.String("path", o.out),
		zap.String("format", string(format)),
		zap.Int("ticks", ticks),
		zap.Int("nodes", len(snap.Nodes)))

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s %s\n", good.Sprint("✓"), o.out, subtle.Sprintf("(%s, %d concepts, %d links, %d ticks)",
		format, len(snap.Nodes), len(snap.Edges), ticks))
	if o.stats {
		fmt.Fprintln(out)
		return a.Metrics().WriteTable(out)
	}
	return nil
}

// datasetTitle names an export after its dataset file.
func datasetTitle(path string) string {
	if path == "" {
		return "Concept graph"
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
