package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/itt/internal/tui"
	"github.com/aretw0/itt/pkg/core"
)

var updateSource sourceFlags

var updateCmd = &cobra.Command{
	Use:   "update <id> [-]",
	Short: "Replace every field of a record (edit mode)",
	Long: `Update overwrites the customer, package, snapshot and details of the record
with the given id, from an itinerary page or from flags.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := core.RecordID(args[0])
		return withStore(cmd, func(ctx context.Context, store *core.Store) error {
			ex, ok, err := updateSource.extractor(args[1:])
			if err != nil {
				return err
			}

			var found bool
			if ok {
				found, err = store.ReplaceCurrent(ctx, id, ex)
			} else {
				var in core.UpsertInput
				if in, err = updateSource.input(); err != nil {
					return err
				}
				found, err = store.Replace(ctx, id, in)
			}
			if err != nil {
				return fmt.Errorf("failed to update record: %w", err)
			}
			if !found {
				return fmt.Errorf("%w: %s", errNotFound, id)
			}

			fmt.Println(tui.Success("Customer data updated successfully"))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)
	updateSource.register(updateCmd)
}
