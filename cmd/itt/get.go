package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/itt/pkg/core"
)

var getSnapshot bool

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Print a record as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := core.RecordID(args[0])
		return withStore(cmd, func(ctx context.Context, store *core.Store) error {
			rec, ok, err := store.Get(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to read record: %w", err)
			}
			if !ok {
				return fmt.Errorf("%w: %s", errNotFound, id)
			}

			if getSnapshot {
				_, err := fmt.Fprint(os.Stdout, rec.Snapshot)
				return err
			}

			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			encoder.SetEscapeHTML(false)
			return encoder.Encode(rec)
		})
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
	getCmd.Flags().BoolVar(&getSnapshot, "snapshot", false, "Print only the document snapshot")
}
