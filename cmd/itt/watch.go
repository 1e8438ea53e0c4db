package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/aretw0/itt/internal/tui"
	slotsource "github.com/aretw0/itt/pkg/adapters/lifecycle"
	"github.com/aretw0/itt/pkg/core"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print changes made to the record slot by other processes",
	Long:  `Watch follows the record slot of the fs adapter and prints one line per change until interrupted.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		inst, err := openStore(ctx, false)
		if err != nil {
			return err
		}
		defer inst.Close()

		events, err := watchSlot(ctx, inst.KV, inst.Store.Key())
		if err != nil {
			return err
		}

		source := slotsource.NewSource(events, slotsource.ForKey(inst.Store.Key()))
		if err := source.Start(ctx); err != nil {
			return err
		}

		fmt.Println(tui.Info("Watching %s (Ctrl+C to stop)", inst.Store.Key()))
		for e := range source.Events() {
			fmt.Println(e.String())
		}
		return nil
	},
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Browse and delete records interactively",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		inst, err := openStore(ctx, false)
		if err != nil {
			return err
		}
		defer inst.Close()

		// Live refresh is best effort; providers without a watcher get a static view.
		events, err := watchSlot(ctx, inst.KV, inst.Store.Key())
		if err != nil {
			events = nil
		}

		_, err = tea.NewProgram(tui.NewDashboard(ctx, inst.Store, events)).Run()
		return err
	},
}

// watchSlot subscribes to key when the provider can report changes.
func watchSlot(ctx context.Context, kv core.KV, key string) (<-chan core.Event, error) {
	w, ok := kv.(core.Watchable)
	if !ok {
		return nil, fmt.Errorf("the %s adapter cannot watch for changes", cfg.Adapter)
	}
	return w.Watch(ctx, key)
}

func init() {
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(dashboardCmd)
}
