package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/CarsonBurke/options-arb/internal/app"
	"github.com/CarsonBurke/options-arb/pkg/config"
)

//nolint:gochecknoglobals // Cobra boilerplate
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run a single scan cycle and print the ranked contenders",
	Long: `Fetches one option-chain snapshot, scans it for calendar, butterfly
and box spread arbitrage, and prints the ranked contenders. No orders
are submitted regardless of the configured mode.`,
	RunE: runScan,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: .env file not found\n")
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// One-shot scans never submit.
	cfg.Mode = "paper"

	logger, err := config.NewLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	application, err := app.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}
	defer func() {
		_ = application.Shutdown()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	err = application.RunOnce(ctx)
	if err != nil {
		return fmt.Errorf("scan cycle: %w", err)
	}

	contenders, scannedAt := application.LastContenders()

	fmt.Printf("\nScan completed at %s\n", scannedAt.Format(time.RFC3339))
	fmt.Printf("Ranked contenders: %d\n\n", len(contenders))

	for i, c := range contenders {
		fmt.Printf("%2d. %s\n", i+1, c)
		for j, leg := range c.Legs {
			fmt.Printf("      %-4s %d x %s %s %.2f @ mid %.2f\n",
				c.LegSide(j), c.LegQuantity(1, j), leg.Date, leg.Right, leg.Strike, leg.MidPrice)
		}
	}

	return nil
}
