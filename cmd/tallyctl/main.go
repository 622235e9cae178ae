package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	var configName string

	rootCmd := &cobra.Command{
		Use:           "tallyctl",
		Short:         "Operator tools for the fellowship vote ledger",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configName, "config", "c", "tallyctl", "config name, read from configs/<name>.env")

	rootCmd.AddCommand(verifyCmd(&configName))
	rootCmd.AddCommand(statsCmd(&configName))
	rootCmd.AddCommand(talliesCmd(&configName))
	rootCmd.AddCommand(paymentsCmd(&configName))
	rootCmd.AddCommand(rebuildTalliesCmd(&configName))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
