package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// ConsoleStore implements Store by pretty-printing to stdout.
type ConsoleStore struct {
	logger *zap.Logger
}

// NewConsoleStore creates a new console store.
func NewConsoleStore(logger *zap.Logger) *ConsoleStore {
	logger.Info("console-store-initialized")
	return &ConsoleStore{
		logger: logger,
	}
}

// RecordOrder pretty-prints a submitted order to stdout.
func (c *ConsoleStore) RecordOrder(ctx context.Context, rec *OrderRecord) error {
	fmt.Println("\n" + "────────────────────────────────────────────────────────────")
	fmt.Printf("ORDER SUBMITTED\n")
	fmt.Println("────────────────────────────────────────────────────────────")
	fmt.Printf("Contender:  %s\n", rec.ContenderID)
	fmt.Printf("Strategy:   %s\n", rec.Strategy)
	fmt.Printf("Expiration: %s\n", rec.Expiration)
	fmt.Printf("Time:       %s\n", rec.SubmittedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Arb Value:  %.2f (rank %.4f)\n", rec.ArbValue, rec.RankScore)
	fmt.Printf("Limit:      %.2f x %d\n", rec.LimitPrice, rec.Quantity)
	fmt.Printf("Legs:       %s\n", rec.ConIDEx)
	fmt.Println("────────────────────────────────────────────────────────────")

	return nil
}

// Close is a no-op for the console store.
func (c *ConsoleStore) Close() error {
	c.logger.Info("closing-console-store")
	return nil
}
