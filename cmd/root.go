package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "options-arb",
	Short: "Options chain arbitrage scanner",
	Long: `Options chain arbitrage scanner that polls an option-chain data
provider, detects mispriced calendar, butterfly and box spreads, ranks
the candidates by liquidity-weighted edge, and submits credit combo
orders through the IBKR Client Portal gateway.

Paper mode scans and logs the trades it would place; live mode routes
orders to the gateway during the combo trading session.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
