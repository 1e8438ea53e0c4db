package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/itt/internal/tui"
	"github.com/aretw0/itt/pkg/core"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a record",
	Long:  `Delete removes the record with the given id. Deleting an unknown id succeeds.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := core.RecordID(args[0])
		return withStore(cmd, func(ctx context.Context, store *core.Store) error {
			if err := store.DeleteByID(ctx, id); err != nil {
				return fmt.Errorf("failed to delete record: %w", err)
			}
			fmt.Println(tui.Success("Record deleted: %s", id))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
