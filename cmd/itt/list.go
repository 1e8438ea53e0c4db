package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/aretw0/itt/pkg/core"
)

var (
	listJSON  bool
	listMatch string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List records",
	Long:  `List prints every record in insertion order. --match filters on "customer/title" with glob patterns.`,
	Example: `  itt list
  itt list --match 'Alice/*' --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, store *core.Store) error {
			var (
				records []core.Record
				err     error
			)
			if listMatch != "" {
				records, err = store.Find(ctx, listMatch)
			} else {
				records, err = store.List(ctx)
			}
			if err != nil {
				return fmt.Errorf("failed to list records: %w", err)
			}

			if listJSON {
				encoder := json.NewEncoder(os.Stdout)
				encoder.SetIndent("", "  ")
				return encoder.Encode(records)
			}

			tbl := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("ID", "CUSTOMER", "PACKAGE", "CREATED")
			for _, r := range records {
				tbl.Row(r.ID.String(), r.CustomerName, r.PackageTitle, r.CreatedAt.Local().Format("2006-01-02 15:04"))
			}
			fmt.Println(tbl.Render())
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	listCmd.Flags().StringVar(&listMatch, "match", "", "Only records whose customer/title matches this glob")
}
