package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"finderkit/internal/metamodel"
	"finderkit/internal/registry"
)

var installCmd = &cobra.Command{
	Use:   "install <type> <finder>",
	Short: "Declare a finder on an entity type",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !ops.InstallationPossible() {
			return fmt.Errorf("finder installation is not available; check registry configuration and the persistence feature")
		}
		if err := ops.Install(metamodel.TypeName(args[0]), metamodel.Symbol(args[1])); err != nil {
			return err
		}
		return nil
	},
}

var listDepth int

var listCmd = &cobra.Command{
	Use:   "list <type>",
	Short: "Enumerate finders derivable from an entity's fields",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		depth := listDepth
		if !cmd.Flags().Changed("depth") {
			depth = cfg.DefaultDepth
		}
		entries, err := ops.List(metamodel.TypeName(args[0]), depth)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			fmt.Fprintln(cmd.OutOrStdout(), entry)
		}
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report whether finder installation is possible",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		if ops.InstallationPossible() {
			fmt.Fprintln(cmd.OutOrStdout(), "finder installation is possible")
			return
		}
		fmt.Fprintln(cmd.OutOrStdout(), "finder installation is not possible")
	},
}

// seedFile mirrors the registry's record shapes so a seed document can be
// produced by hand or by a build step running entimport.Records.
type seedFile struct {
	Types    []registry.TypeRecord   `json:"types"`
	Entities []registry.EntityRecord `json:"entities"`
}

var importCmd = &cobra.Command{
	Use:   "import <seed.json>",
	Short: "Import entity definitions into the registry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		var seed seedFile
		if err := json.Unmarshal(raw, &seed); err != nil {
			return fmt.Errorf("parse seed %s: %w", args[0], err)
		}
		for _, rec := range seed.Types {
			if err := store.PutType(rec); err != nil {
				return err
			}
		}
		for _, rec := range seed.Entities {
			if err := store.PutEntity(rec); err != nil {
				return err
			}
		}
		store.Save()
		logger.Info().
			Int("types", len(seed.Types)).
			Int("entities", len(seed.Entities)).
			Msg("registry seeded")
		return nil
	},
}

func init() {
	listCmd.Flags().IntVar(&listDepth, "depth", 1, "maximum number of fields combined per finder")
}
