package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vanderheijden86/conceptgraph/pkg/app"
	"github.com/vanderheijden86/conceptgraph/pkg/config"
	"github.com/vanderheijden86/conceptgraph/pkg/loader"
	"github.com/vanderheijden86/conceptgraph/pkg/logging"
	"github.com/vanderheijden86/conceptgraph/pkg/ui"
	"github.com/vanderheijden86/conceptgraph/pkg/version"
	"github.com/vanderheijden86/conceptgraph/pkg/watcher"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

var (
	brand  = color.New(color.FgHiCyan, color.Bold)
	subtle = color.New(color.FgHiBlack)
	good   = color.New(color.FgGreen)
	warn   = color.New(color.FgYellow)
	bad    = color.New(color.FgRed)
)

// errNoTTY is returned when the viewer is started without a terminal.
var errNoTTY = errors.New("cg needs an interactive terminal; use `cg export` for files")

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	data       string
	watch      bool
	theme      string
	logLevel   string
}

// load resolves the configuration: file first, then flags that were set.
func (g *globalFlags) load(cmd *cobra.Command) (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if g.configPath != "" {
		cfg, err = config.LoadFrom(g.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return cfg, err
	}
	flags := cmd.Flags()
	if flags.Changed("data") {
		cfg.Data = g.data
	}
	if flags.Changed("watch") {
		cfg.Watch = g.watch
	}
	if flags.Changed("theme") {
		cfg.UI.Theme = g.theme
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = g.logLevel
	}
	return cfg, cfg.Validate()
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	cmd := &cobra.Command{
		Use:   "cg",
		Short: "cg, an interactive concept graph viewer",
		Long: brand.Sprint("cg") + " draws a force-directed concept graph in your terminal\n" +
			subtle.Sprint("Drag concepts, hover for details, click to inspect, filter by kind"),
		Version:       version.Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runViewer(cmd, g)
		},
	}
	cmd.SetVersionTemplate("{{ .Version }}\n")

	pf := cmd.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "config file (default "+config.ConfigPath()+")")
	pf.StringVarP(&g.data, "data", "d", "", "dataset file (.json or .yaml); built-in when empty")
	pf.BoolVarP(&g.watch, "watch", "w", false, "reload when the dataset file changes")
	pf.StringVar(&g.theme, "theme", "", "color theme: auto, dark or light")
	pf.StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn or error")

	cmd.AddCommand(
		exportCmd(g),
		validateCmd(g),
		configCmd(g),
		versionCmd(),
	)
	return cmd
}

func runViewer(cmd *cobra.Command, g *globalFlags) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errNoTTY
	}
	cfg, err := g.load(cmd)
	if err != nil {
		return err
	}

	logger, closeLog, err := logging.New(logging.Options{Level: cfg.Log.Level, File: cfg.LogPath()})
	if err != nil {
		return err
	}
	defer closeLog()
	logger.Info("starting", zap.String("version", version.Version), zap.String("data", cfg.Data))

	a := app.New(cfg, app.WithLogger(logger))
	defer a.Close()

	var opts []ui.Option
	if path := loader.ResolvePath(cfg.Data); cfg.Watch && path != "" {
		w, err := watcher.New(path, watcher.WithLogger(logger))
		if err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		if err := w.Start(); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		defer w.Stop()
		opts = append(opts, ui.WithWatcher(w))
	}

	m := ui.NewModel(a, opts...)
	defer m.Close()
	return runTUIProgram(m)
}

// runTUIProgram runs the viewer until the user quits. SIGINT and SIGTERM ask
// the program to quit; a second signal or a five second grace period kills it.
func runTUIProgram(m ui.Model) error {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
		tea.WithoutSignalHandler(),
	)

	runDone := make(chan struct{})
	defer close(runDone)

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && !errors.Is(err, tea.ErrProgramPanic) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("running viewer: %w", err)
	}
	return nil
}
