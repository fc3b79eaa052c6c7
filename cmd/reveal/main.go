// Command reveal renders nudge decisions as an overlay on a terminal UI and
// ships the tooling around the decision format.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"reveal/internal/config"
	"reveal/internal/logging"
)

var version = "dev"

// tuiAnnotation marks commands that own the terminal; their CLI logger writes
// to the log directory instead of stderr.
const tuiAnnotation = "reveal.tui"

type app struct {
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "reveal",
		Short: "reveal - nudge overlays for terminal UIs",
		Long: `reveal draws backend nudge decisions (tooltips, banners, modals) on top of
a Bubble Tea program and reports what the user did with them.

Run "reveal run" for a live demo driven by a watched decision file.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
			logging.CloseAll()
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "reveal.yaml", "config file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "verbose CLI logging")

	root.AddCommand(
		a.runCmd(),
		a.validateCmd(),
		a.positionCmd(),
		a.sampleCmd(),
		versionCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	if err := logging.Initialize(cfg.LogConfig()); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	zc := zap.NewProductionConfig()
	if a.verbose {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	if cmd.Annotations[tuiAnnotation] != "" {
		if err := os.MkdirAll(cfg.Logging.Dir, 0755); err != nil {
			return fmt.Errorf("failed to create logs directory: %w", err)
		}
		path := filepath.Join(cfg.Logging.Dir, "reveal-cli.log")
		zc.OutputPaths = []string{path}
		zc.ErrorOutputPaths = []string{path}
	}
	logger, err := zc.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = logger
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		// No config or logging needed.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "reveal %s\n", version)
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
