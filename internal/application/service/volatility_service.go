package service

import (
	"context"
	"encoding/json"
	"time"

	"spreadeye/internal/application/port"
	"spreadeye/internal/domain"

	"github.com/rs/zerolog/log"
)

const (
	DefaultTopK             = 10
	DefaultEmitInterval     = 1 * time.Second
	DefaultSnapshotInterval = 60 * time.Second
)

type VolatilityDeps struct {
	Cache            *domain.PriceCache
	Stats            port.StatsProvider
	Sink             port.Sink
	Repo             port.Repository
	TopK             int
	Quote            string
	EmitInterval     time.Duration
	SnapshotInterval time.Duration
}

// VolatilityService emits the top-K sliding-window volatility ranking
// on a fixed cadence. The very first emission is seeded from the 24h
// statistics so clients see data before live samples accumulate.
type VolatilityService struct {
	deps VolatilityDeps
}

func NewVolatilityService(deps VolatilityDeps) *VolatilityService {
	if deps.TopK <= 0 {
		deps.TopK = DefaultTopK
	}
	if deps.Quote == "" {
		deps.Quote = DefaultQuote
	}
	if deps.EmitInterval <= 0 {
		deps.EmitInterval = DefaultEmitInterval
	}
	if deps.SnapshotInterval <= 0 {
		deps.SnapshotInterval = DefaultSnapshotInterval
	}
	return &VolatilityService{deps: deps}
}

// Ranking returns the current top-K symbols by window volatility.
func (s *VolatilityService) Ranking() []domain.SymbolVolatility {
	return s.deps.Cache.TopVolatile(s.deps.TopK)
}

// DayRange is the immediate 24-hour range variant, computed straight
// from the statistics endpoint without windowing.
func (s *VolatilityService) DayRange(ctx context.Context) ([]domain.SymbolVolatility, error) {
	if s.deps.Stats == nil {
		return nil, nil
	}
	stats, err := s.deps.Stats.DayStats(ctx)
	if err != nil {
		return nil, err
	}
	return domain.RankByDayRange(stats, s.deps.Quote, s.deps.TopK), nil
}

// Run emits rankings every EmitInterval and persists a snapshot of the
// current ranking every SnapshotInterval, until ctx is cancelled. A
// failed stats fetch only costs the seed emission.
func (s *VolatilityService) Run(ctx context.Context) error {
	if seed, err := s.DayRange(ctx); err != nil {
		log.Warn().Err(err).Msg("24h stats seed failed")
	} else if len(seed) > 0 {
		if err := s.deps.Sink.EmitVolatility(seed); err != nil {
			log.Warn().Err(err).Msg("volatility emit failed")
		}
	}

	emit := time.NewTicker(s.deps.EmitInterval)
	defer emit.Stop()
	snap := time.NewTicker(s.deps.SnapshotInterval)
	defer snap.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-emit.C:
			if err := s.deps.Sink.EmitVolatility(s.Ranking()); err != nil {
				log.Warn().Err(err).Msg("volatility emit failed")
			}

		case now := <-snap.C:
			if s.deps.Repo == nil {
				continue
			}
			payload, _ := json.Marshal(s.Ranking())
			if err := s.deps.Repo.InsertSnapshot(ctx, now.UnixMilli(), string(payload)); err != nil {
				log.Warn().Err(err).Msg("snapshot insert failed")
			}
		}
	}
}
