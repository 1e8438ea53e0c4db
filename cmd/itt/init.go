package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/itt/internal/tui"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a data directory",
	Long: `Initialize the configured storage: creates the data directory of the fs
adapter (and its git repository when versioning is on), or the collection and
table of the database adapters.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		inst, err := openStore(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer inst.Close()

		fmt.Println(tui.Success("Initialized %s storage at %s", cfg.Adapter, cfg.URI()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
