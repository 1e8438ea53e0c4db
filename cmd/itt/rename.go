package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/itt/internal/tui"
	"github.com/aretw0/itt/pkg/core"
)

var (
	renameCustomer string
	renameTitle    string
)

var renameCmd = &cobra.Command{
	Use:   "rename <id>",
	Short: "Change the customer name and package title of a record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := core.RecordID(args[0])
		return withStore(cmd, func(ctx context.Context, store *core.Store) error {
			ok, err := store.UpdateByOtherFields(ctx, id, renameCustomer, renameTitle)
			if err != nil {
				return fmt.Errorf("failed to rename record: %w", err)
			}
			if !ok {
				return fmt.Errorf("%w: %s", errNotFound, id)
			}
			fmt.Println(tui.Success("Renamed %s to %s/%s", id, renameCustomer, renameTitle))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(renameCmd)
	renameCmd.Flags().StringVar(&renameCustomer, "customer", "", "New customer name")
	renameCmd.Flags().StringVar(&renameTitle, "title", "", "New package title")
	renameCmd.MarkFlagRequired("customer")
	renameCmd.MarkFlagRequired("title")
}
