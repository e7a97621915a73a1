package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"autousb/cmd/autousb/ui"
	"autousb/internal/config"
	"autousb/internal/logging"
	"autousb/internal/store"
	"autousb/internal/types"
)

var (
	// Global flags
	verbose    bool
	configPath string
	timeout    time.Duration

	// Loaded in PersistentPreRunE
	cfg    *config.Config
	ledger *store.LocalStore
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "autousb",
	Short: "AutoUSB - make a USB drive start a program when it is plugged in",
	Long: `AutoUSB writes autorun.inf onto a USB drive so Windows offers to start
a chosen executable when the drive is inserted.

It can also turn a handful of batch commands into a standalone EXE first:
with PyInstaller on Windows, or with the MinGW-w64 cross-compiler elsewhere.

Run "autousb guide" for a short walkthrough.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path := resolvedConfigPath()
		loaded, err := config.Load(path)
		if err != nil {
			return types.NewError(types.KindInvalidInput, "config", "invalid configuration", err)
		}
		cfg = loaded

		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		if err := logging.Initialize(logging.Options{
			Level:      level,
			Format:     cfg.Logging.Format,
			File:       cfg.Logging.File,
			Categories: cfg.Logging.Categories,
		}); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logging.BootDebug("config loaded from %s", path)

		if cfg.History.Enabled && ledger == nil {
			s, err := store.NewLocalStore(cfg.History.DatabasePath)
			if err != nil {
				logging.BootWarn("build history disabled: %v", err)
			} else {
				logging.Boot("build history at %s", s.Path())
				ledger = s
			}
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if ledger != nil {
			_ = ledger.Close()
			ledger = nil
		}
		logging.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ~/.autousb/config.yaml)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Overall operation timeout (0 = none)")

	rootCmd.AddCommand(drivesCmd)
	rootCmd.AddCommand(writeCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(packageCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(guideCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		styles := ui.DefaultStyles()
		fmt.Fprintln(os.Stderr, styles.Error.Render("Error:"), err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps an error kind to the process exit status.
func exitCode(err error) int {
	switch types.KindOf(err) {
	case types.KindInvalidInput:
		return 2
	case types.KindNotFound:
		return 3
	case types.KindToolMissing:
		return 4
	case types.KindToolFailure:
		return 5
	case types.KindIOFailure:
		return 6
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, ui.ErrCanceled) {
		return 130
	}
	return 1
}

// commandContext returns the command's context bounded by --timeout and
// canceled on SIGINT/SIGTERM.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	if timeout <= 0 {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

// interactive reports whether the command reads from a terminal.
func interactive(cmd *cobra.Command) bool {
	f, ok := cmd.InOrStdin().(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func terminal(cmd *cobra.Command) ui.IO {
	return ui.IO{In: cmd.InOrStdin(), Out: cmd.OutOrStdout()}
}

// currentConfig returns the loaded configuration, or the defaults when a
// command runs without the root pre-run.
func currentConfig() *config.Config {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return cfg
}

// resolvedConfigPath is --config or the default location.
func resolvedConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultPath()
}
