package service

import (
	"context"

	"spreadeye/internal/application/port"
)

type noopRepo struct{}

// NewNoopRepo returns a Repository that discards everything. Used when
// storage is disabled.
func NewNoopRepo() port.Repository { return &noopRepo{} }

func (n *noopRepo) UpsertLatestPrice(ctx context.Context, ex, symbol string, price float64, ts int64) error {
	return nil
}
func (n *noopRepo) InsertSnapshot(ctx context.Context, ts int64, payload string) error {
	return nil
}
func (n *noopRepo) InsertSignal(ctx context.Context, ts int64, symbol string, delta float64, payload string) error {
	return nil
}
func (n *noopRepo) Close() error { return nil }
