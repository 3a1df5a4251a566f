package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"colonyledger/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "colonyledger",
		Short: "colonyledger - colony occupancy, lifecycle, and request workflow",
		Long: `colonyledger tracks a colony of housed animals: the occupancy ledger,
animal lifecycle states, and the approval workflow for transfer, breeding,
and culling requests.`,
	}

	rootCmd.AddCommand(cli.StrainCmd())
	rootCmd.AddCommand(cli.CageCmd())
	rootCmd.AddCommand(cli.AnimalCmd())
	rootCmd.AddCommand(cli.RequestCmd())
	rootCmd.AddCommand(cli.PairCmd())
	rootCmd.AddCommand(cli.NotificationCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
