package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/itt"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of itt",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("itt version %s\n", itt.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
