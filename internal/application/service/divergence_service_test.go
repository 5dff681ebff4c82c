package service

import (
	"context"
	"math"
	"testing"

	"spreadeye/internal/domain"
)

type recordingRepo struct {
	signals   []string
	deltas    []float64
	latest    map[string]float64
	snapshots []string
}

func newRecordingRepo() *recordingRepo {
	return &recordingRepo{latest: make(map[string]float64)}
}

func (r *recordingRepo) UpsertLatestPrice(ctx context.Context, ex, symbol string, price float64, ts int64) error {
	r.latest[ex+":"+symbol] = price
	return nil
}

func (r *recordingRepo) InsertSnapshot(ctx context.Context, ts int64, payload string) error {
	r.snapshots = append(r.snapshots, payload)
	return nil
}

func (r *recordingRepo) InsertSignal(ctx context.Context, ts int64, symbol string, delta float64, payload string) error {
	r.signals = append(r.signals, symbol)
	r.deltas = append(r.deltas, delta)
	return nil
}

func (r *recordingRepo) Close() error { return nil }

func newDivergenceFixture(t *testing.T, comparison string) (*DivergenceService, *domain.PriceCache, *recordingRepo) {
	t.Helper()
	cache := domain.NewPriceCache(0)
	adapters := testAdapters()
	subs := NewSubscriptionService(SubscriptionDeps{
		Adapters: adapters,
		Dialer:   &blockDialer{},
		Cache:    cache,
	})
	t.Cleanup(subs.StopAll)

	if err := subs.UpdateTarget(context.Background(), "BTC/USDT", comparison); err != nil {
		t.Fatalf("UpdateTarget failed: %v", err)
	}

	repo := newRecordingRepo()
	svc := NewDivergenceService(DivergenceDeps{
		Subs:            subs,
		Adapters:        adapters,
		Cache:           cache,
		Repo:            repo,
		SignalThreshold: 0.5,
	})
	return svc, cache, repo
}

func TestSnapshotComputesDiff(t *testing.T) {
	svc, cache, _ := newDivergenceFixture(t, "kraken")

	cache.Set("binance", "BTCUSDT", 100, 1000)
	cache.Set("kraken", "XBT/USDT", 101, 1000)

	snap, ok := svc.Snapshot()
	if !ok {
		t.Fatal("expected a snapshot with a target set")
	}
	if snap.FastPair != "BTCUSDT" || snap.SlowPair != "XBT/USDT" {
		t.Fatalf("unexpected pairs %q %q", snap.FastPair, snap.SlowPair)
	}
	if snap.DiffPercent == nil || math.Abs(*snap.DiffPercent-1.0) > 1e-9 {
		t.Fatalf("expected diff ~1.0, got %v", snap.DiffPercent)
	}
}

func TestSnapshotAbsentPrices(t *testing.T) {
	svc, cache, _ := newDivergenceFixture(t, "mexc")

	snap, ok := svc.Snapshot()
	if !ok {
		t.Fatal("expected a snapshot")
	}
	if snap.FastPrice != nil || snap.SlowPrice != nil || snap.DiffPercent != nil {
		t.Fatalf("expected all absent, got %+v", snap)
	}

	// one side alone keeps the diff undefined
	cache.Set("binance", "BTCUSDT", 100, 1000)
	snap, _ = svc.Snapshot()
	if snap.FastPrice == nil || snap.DiffPercent != nil {
		t.Fatalf("expected fast only, diff absent, got %+v", snap)
	}
}

func TestSnapshotUsesFallback(t *testing.T) {
	svc, cache, _ := newDivergenceFixture(t, "kraken")

	cache.Set("binance", "BTCUSDT", 100, 1000)
	// only the USD pair has produced data on kraken
	cache.Set("kraken", "XBT/USD", 99, 1000)

	snap, _ := svc.Snapshot()
	if snap.SlowPrice == nil || *snap.SlowPrice != 99 {
		t.Fatalf("expected USD fallback price, got %+v", snap.SlowPrice)
	}
	if snap.DiffPercent == nil || math.Abs(*snap.DiffPercent-1.0) > 1e-9 {
		t.Fatalf("expected diff ~1.0 via fallback, got %v", snap.DiffPercent)
	}
}

func TestSnapshotZeroFastPrice(t *testing.T) {
	svc, cache, _ := newDivergenceFixture(t, "kraken")

	cache.Set("binance", "BTCUSDT", 0, 1000)
	cache.Set("kraken", "XBT/USDT", 101, 1000)

	snap, _ := svc.Snapshot()
	if snap.DiffPercent != nil {
		t.Fatalf("expected undefined diff for zero fast price, got %v", *snap.DiffPercent)
	}
}

func TestSignalFiresOnceWhileAboveThreshold(t *testing.T) {
	svc, cache, repo := newDivergenceFixture(t, "kraken")
	ctx := context.Background()

	cache.Set("binance", "BTCUSDT", 100, 1000)
	cache.Set("kraken", "XBT/USDT", 102, 1000) // 2% > 0.5%

	snap, _ := svc.Snapshot()
	svc.maybeSignal(ctx, snap)
	snap, _ = svc.Snapshot()
	svc.maybeSignal(ctx, snap)

	if len(repo.signals) != 1 {
		t.Fatalf("expected 1 signal for sustained spread, got %d", len(repo.signals))
	}
	if repo.latest["binance:BTCUSDT"] != 100 || repo.latest["kraken:XBT/USDT"] != 102 {
		t.Fatalf("expected latest prices recorded with the signal, got %v", repo.latest)
	}

	// spread collapses, then crosses again: fires again
	cache.Set("kraken", "XBT/USDT", 100, 2000)
	snap, _ = svc.Snapshot()
	svc.maybeSignal(ctx, snap)
	cache.Set("kraken", "XBT/USDT", 103, 3000)
	snap, _ = svc.Snapshot()
	svc.maybeSignal(ctx, snap)

	if len(repo.signals) != 2 {
		t.Fatalf("expected 2 signals after re-crossing, got %d", len(repo.signals))
	}
}
