package sqlite

import (
	"context"
	"os"
	"testing"
)

func TestSQLiteRepoUpsertPrice(t *testing.T) {
	dbPath := "test.db"
	defer os.Remove(dbPath)

	repo, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create repo: %v", err)
	}
	defer repo.Close()

	ctx := context.Background()
	if err := repo.UpsertLatestPrice(ctx, "binance", "BTCUSDT", 24448.16, 1234567890); err != nil {
		t.Fatalf("UpsertLatestPrice failed: %v", err)
	}
	// overwrite on same key
	if err := repo.UpsertLatestPrice(ctx, "binance", "BTCUSDT", 24450.0, 1234567999); err != nil {
		t.Fatalf("UpsertLatestPrice update failed: %v", err)
	}

	var price float64
	err = repo.db.QueryRowContext(ctx, `SELECT price FROM prices WHERE exchange=? AND symbol=?`, "binance", "BTCUSDT").Scan(&price)
	if err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if price != 24450.0 {
		t.Errorf("expected 24450.0 after upsert, got %v", price)
	}
}

func TestSQLiteRepoInsertSnapshot(t *testing.T) {
	dbPath := "test_snapshot.db"
	defer os.Remove(dbPath)

	repo, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create repo: %v", err)
	}
	defer repo.Close()

	ctx := context.Background()
	if err := repo.InsertSnapshot(ctx, 1234567890, `[{"pair":"BTCUSDT","volatility":1.5}]`); err != nil {
		t.Fatalf("InsertSnapshot failed: %v", err)
	}
}

func TestSQLiteRepoInsertSignal(t *testing.T) {
	dbPath := "test_signal.db"
	defer os.Remove(dbPath)

	repo, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create repo: %v", err)
	}
	defer repo.Close()

	ctx := context.Background()
	if err := repo.InsertSignal(ctx, 1234567890, "BTC/USDT", 1.2, `{"asset":"BTC/USDT"}`); err != nil {
		t.Fatalf("InsertSignal failed: %v", err)
	}

	var count int
	if err := repo.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM signals`).Scan(&count); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 signal, got %d", count)
	}
}
