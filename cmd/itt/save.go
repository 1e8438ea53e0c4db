package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/itt/internal/tui"
	"github.com/aretw0/itt/pkg/core"
)

var (
	saveSource  sourceFlags
	saveMessage string
)

var saveCmd = &cobra.Command{
	Use:   "save [-]",
	Short: "Create or update the record of a customer and package",
	Long: `Save extracts the customer name, package title and details from an itinerary
page (--file, --url or "-" for stdin) or takes them from --customer and --title,
then creates the record or updates the existing one with the same customer and package.`,
	Example: `  itt save --file itinerary.html
  curl -s https://example.com/quote | itt save -
  itt save --customer Alice --title "Dubai 5N" --package price=1200`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, store *core.Store) error {
			if saveMessage != "" {
				ctx = core.WithChangeReason(ctx, saveMessage)
			}

			ex, ok, err := saveSource.extractor(args)
			if err != nil {
				return err
			}

			var id core.RecordID
			if ok {
				id, err = store.SaveCurrent(ctx, ex)
			} else {
				var in core.UpsertInput
				if in, err = saveSource.input(); err != nil {
					return err
				}
				id, err = store.Upsert(ctx, in)
			}
			if err != nil {
				return fmt.Errorf("failed to save record: %w", err)
			}

			fmt.Println(tui.Success("Data saved with ID: %s", id))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(saveCmd)
	saveSource.register(saveCmd)
	saveCmd.Flags().StringVarP(&saveMessage, "message", "m", "", "Change reason (commit message with versioning)")
}
