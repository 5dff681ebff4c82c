package port

import "context"

type Repository interface {
	// Latest observed pair prices, upserted when a signal fires
	UpsertLatestPrice(ctx context.Context, ex, symbol string, price float64, ts int64) error

	// Periodic snapshot of the emitted volatility ranking
	InsertSnapshot(ctx context.Context, ts int64, payload string) error

	// Divergence above the configured threshold
	InsertSignal(ctx context.Context, ts int64, symbol string, delta float64, payload string) error

	// Connection management
	Close() error
}
