// marginalia anchors review comments to documents and shows where they land after
// the documents change.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/phroun/marginalia"
)

// app is the state shared by every subcommand, filled in before any of them runs.
type app struct {
	configPath  string
	logLevel    string
	showMetrics bool

	config   marginalia.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *marginalia.Metrics
}

var state app

var rootCmd = &cobra.Command{
	Use:           "marginalia",
	Short:         "Anchor comments to text and relocate them after edits",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return state.setup()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if state.showMetrics {
			printMetrics(os.Stderr, state.registry)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&state.configPath, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&state.logLevel, "log-level", "", "override log_level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&state.showMetrics, "metrics", false, "print counters on exit")

	rootCmd.AddCommand(replCmd, resolveCmd, watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, styles.Error.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

func (a *app) setup() error {
	cfg, err := marginalia.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	level, err := marginalia.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return err
	}

	a.config = cfg
	a.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	a.registry = prometheus.NewRegistry()
	a.metrics, err = marginalia.NewMetrics(a.registry)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	return nil
}

// engineOptions returns the configured engine options with logging and metrics attached.
func (a *app) engineOptions(sched marginalia.Scheduler) marginalia.EngineOptions {
	opts := a.config.EngineOptions()
	opts.Logger = a.logger
	opts.Metrics = a.metrics
	opts.Scheduler = sched
	return opts
}

// loadDocument reads HTML or plain text depending on the file extension.
func loadDocument(path string) (*marginalia.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm", ".xhtml":
		return marginalia.LoadHTML(f)
	default:
		return marginalia.LoadText(f)
	}
}
