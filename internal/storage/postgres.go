package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// PostgresStore implements Store using PostgreSQL.
type PostgresStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// PostgresConfig holds PostgreSQL configuration.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
	Logger   *zap.Logger
}

// NewPostgresStore creates a new PostgreSQL store.
func NewPostgresStore(cfg *PostgresConfig) (*PostgresStore, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	err = db.Ping()
	if err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	cfg.Logger.Info("postgres-store-connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	return &PostgresStore{
		db:     db,
		logger: cfg.Logger,
	}, nil
}

// RecordOrder inserts one submitted order.
func (p *PostgresStore) RecordOrder(ctx context.Context, rec *OrderRecord) error {
	query := `
		INSERT INTO submitted_orders (
			contender_id, strategy, expiration, arb_value, rank_score,
			limit_price, quantity, conidex, submitted_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
	`

	_, err := p.db.ExecContext(ctx, query,
		rec.ContenderID,
		string(rec.Strategy),
		rec.Expiration,
		rec.ArbValue,
		rec.RankScore,
		rec.LimitPrice,
		rec.Quantity,
		rec.ConIDEx,
		rec.SubmittedAt,
	)

	if err != nil {
		OrderWriteErrorsTotal.Inc()
		return fmt.Errorf("insert submitted order: %w", err)
	}

	OrdersRecordedTotal.Inc()
	p.logger.Debug("order-recorded",
		zap.String("contender-id", rec.ContenderID),
		zap.String("strategy", string(rec.Strategy)))

	return nil
}

// Close closes the database connection.
func (p *PostgresStore) Close() error {
	p.logger.Info("closing-postgres-store")
	return p.db.Close()
}
