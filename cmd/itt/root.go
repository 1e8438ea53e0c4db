package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/aretw0/itt"
	"github.com/aretw0/itt/internal/tui"
	"github.com/aretw0/itt/pkg/core"
	"github.com/aretw0/itt/pkg/metrics"
)

var (
	verbose     bool
	configFile  string
	adapterName string
	dataPath    string
	slotKey     string
	readOnly    bool
	metricsFile string
)

var (
	cfg      itt.Config
	registry = prometheus.NewRegistry()
	observer = metrics.NewObserver("itt", registry)
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "itt",
	Short: "Keep customer travel package records extracted from itinerary pages",
	Long: `itt extracts the customer, package and hotel details of an itinerary page
and keeps one record per customer and package in a single storage slot:
a directory of JSON files (optionally versioned with git), MongoDB or PostgreSQL.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)

		loaded, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if cfg.MetricsFile == "" {
			return nil
		}
		return metrics.WriteTextfile(cfg.MetricsFile, registry)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, tui.Failure("%v", err))
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	flags.StringVar(&configFile, "config", "", "Config file (default: itt.yaml in the data directory)")
	flags.StringVar(&adapterName, "adapter", "", "Storage adapter: fs, memory, mongo or postgres")
	flags.StringVar(&dataPath, "path", "", "Data directory of the fs adapter")
	flags.StringVar(&slotKey, "key", "", "Storage key of the record slot")
	flags.BoolVar(&readOnly, "read-only", false, "Reject every write")
	flags.StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this file on exit")
}

// loadConfig resolves the config file and applies the command line flags on top of it.
func loadConfig(cmd *cobra.Command) (itt.Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return itt.Config{}, fmt.Errorf("failed to get working directory: %w", err)
	}

	// A data directory found upwards provides the default config file and path.
	root, rootErr := itt.FindRoot(wd)
	if rootErr != nil {
		root = wd
	}

	file := configFile
	if file == "" {
		candidate := filepath.Join(root, "itt.yaml")
		if _, err := os.Stat(candidate); err == nil {
			file = candidate
		}
	}

	loaded, err := itt.LoadConfig(file, filepath.Join(root, ".env"))
	if err != nil {
		return itt.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("adapter") {
		loaded.Adapter = adapterName
	}
	if flags.Changed("path") {
		loaded.Path = dataPath
	} else if loaded.Path == "." && rootErr == nil {
		loaded.Path = root
	}
	if flags.Changed("key") {
		loaded.Key = slotKey
	}
	if flags.Changed("read-only") {
		loaded.ReadOnly = readOnly
	}
	if flags.Changed("metrics-file") {
		loaded.MetricsFile = metricsFile
	}

	if err := loaded.Validate(); err != nil {
		return itt.Config{}, err
	}
	return loaded, nil
}

// openStore opens the configured store. autoInit lets the fs adapter create its directory.
func openStore(ctx context.Context, autoInit bool) (*itt.Instance, error) {
	opts := append(cfg.Options(),
		itt.WithLogger(slog.Default()),
		itt.WithAutoInit(autoInit),
		itt.WithStoreOptions(core.WithObserver(observer)),
	)
	inst, err := itt.New(ctx, cfg.URI(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return inst, nil
}

// withStore opens the store, runs fn and closes the store.
func withStore(cmd *cobra.Command, fn func(ctx context.Context, store *core.Store) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	inst, err := openStore(ctx, false)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := inst.Close(); cerr != nil {
			slog.Default().Warn("failed to close store", "error", cerr)
		}
	}()

	return fn(ctx, inst.Store)
}

// errNotFound is returned by commands addressing a record id that does not exist.
var errNotFound = errors.New("record not found")
