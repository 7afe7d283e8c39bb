package main

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"finderkit/internal/config"
	"finderkit/internal/finder"
	"finderkit/internal/logging"
	"finderkit/internal/query"
	"finderkit/internal/registry"
)

var (
	cfgFile     string
	backendFlag string
	targetFlag  string

	cfg    *config.Config
	logger zerolog.Logger
	store  *registry.Store
	ops    *finder.Operations
)

var rootCmd = &cobra.Command{
	Use:   "finderctl",
	Short: "Manage derived finder queries for registered entity types",
	Long: `finderctl manages "finder" query declarations for entity types held in a
metadata registry. It can import entity definitions, declare finders on an
entity, and enumerate every finder derivable from an entity's fields.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return setup()
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		_ = store.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (TOML)")
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "registry backend: file, sqlite, or postgres")
	rootCmd.PersistentFlags().StringVar(&targetFlag, "registry", "", "registry path (file, sqlite) or DSN (postgres)")
	rootCmd.AddCommand(installCmd, listCmd, checkCmd, importCmd)
}

func setup() error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return err
	}
	if backendFlag != "" {
		cfg.RegistryBackend = backendFlag
	}
	if targetFlag != "" {
		if strings.EqualFold(cfg.RegistryBackend, "postgres") {
			cfg.RegistryDSN = targetFlag
		} else {
			cfg.RegistryPath = targetFlag
		}
	}

	logger = logging.New("finderctl", cfg.LogLevel)

	store, err = registry.Open(cfg.RegistryBackend, cfg.Target())
	if err != nil {
		return fmt.Errorf("open registry: %w", err)
	}
	store.EnsureLoaded()

	locator := registry.NewLocator(store)
	ops = finder.New(
		locator,
		registry.NewResolver(store),
		registry.Scanner{},
		locator,
		query.NewService(),
		config.Gate{Config: cfg},
		logger,
	)
	return nil
}
