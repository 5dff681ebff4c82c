package service

import (
	"context"
	"encoding/json"
	"time"

	"spreadeye/internal/application/port"
	"spreadeye/internal/domain"
	"spreadeye/internal/infrastructure/exchange"

	"github.com/rs/zerolog/log"
)

const DefaultDivergenceInterval = 100 * time.Millisecond

type DivergenceDeps struct {
	Subs      *SubscriptionService
	Adapters  map[string]exchange.Adapter
	Reference string
	Cache     port.PriceReader
	Sink      port.Sink
	Repo      port.Repository
	Interval  time.Duration
	// SignalThreshold in percent; a divergence crossing it is persisted
	// as a signal. Zero disables signal persistence.
	SignalThreshold float64
}

// DivergenceService computes the reference-vs-comparison price
// divergence on a fixed cadence and hands snapshots to the sink. It is
// a pure reader over the cache: the same cache state always yields the
// same snapshot.
type DivergenceService struct {
	deps  DivergenceDeps
	above bool // last emission was above the signal threshold
}

func NewDivergenceService(deps DivergenceDeps) *DivergenceService {
	if deps.Reference == "" {
		deps.Reference = DefaultReference
	}
	if deps.Interval <= 0 {
		deps.Interval = DefaultDivergenceInterval
	}
	return &DivergenceService{deps: deps}
}

// Snapshot computes the current divergence for the active target.
// ok=false while no target is set.
func (s *DivergenceService) Snapshot() (domain.DivergenceSnapshot, bool) {
	asset, comparison, ok := s.deps.Subs.Target()
	if !ok {
		return domain.DivergenceSnapshot{}, false
	}
	fastAdapter := s.deps.Adapters[s.deps.Reference]
	slowAdapter := s.deps.Adapters[comparison]
	if fastAdapter == nil || slowAdapter == nil {
		return domain.DivergenceSnapshot{}, false
	}

	snap := domain.DivergenceSnapshot{
		Asset:    asset,
		FastPair: fastAdapter.MapSymbol(asset),
		SlowPair: slowAdapter.MapSymbol(asset),
	}

	if fast, ok := s.deps.Cache.Get(s.deps.Reference, snap.FastPair); ok {
		snap.FastPrice = &fast
	}

	slow, ok := s.deps.Cache.Get(comparison, snap.SlowPair)
	if !ok {
		slow, ok = slowAdapter.FallbackPrice(s.deps.Cache, asset, snap.SlowPair)
	}
	if ok {
		snap.SlowPrice = &slow
	}

	if snap.FastPrice != nil && snap.SlowPrice != nil {
		if diff, defined := domain.Divergence(*snap.FastPrice, *snap.SlowPrice); defined {
			snap.DiffPercent = &diff
		}
	}
	return snap, true
}

// Run emits divergence snapshots every interval while a target is set,
// until ctx is cancelled.
func (s *DivergenceService) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.deps.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			snap, ok := s.Snapshot()
			if !ok {
				continue
			}
			if err := s.deps.Sink.EmitDivergence(snap); err != nil {
				log.Warn().Err(err).Msg("divergence emit failed")
			}
			s.maybeSignal(ctx, snap)
		}
	}
}

// maybeSignal persists a signal when the divergence crosses the
// threshold from below, so a sustained spread fires once.
func (s *DivergenceService) maybeSignal(ctx context.Context, snap domain.DivergenceSnapshot) {
	if s.deps.Repo == nil || s.deps.SignalThreshold <= 0 {
		return
	}
	if snap.DiffPercent == nil || *snap.DiffPercent < s.deps.SignalThreshold {
		s.above = false
		return
	}
	if s.above {
		return
	}
	s.above = true

	ts := time.Now().UnixMilli()
	payload, _ := json.Marshal(snap)
	if err := s.deps.Repo.InsertSignal(ctx, ts, snap.Asset, *snap.DiffPercent, string(payload)); err != nil {
		log.Warn().Err(err).Msg("signal insert failed")
		return
	}
	_, comparison, _ := s.deps.Subs.Target()
	_ = s.deps.Repo.UpsertLatestPrice(ctx, s.deps.Reference, snap.FastPair, *snap.FastPrice, ts)
	_ = s.deps.Repo.UpsertLatestPrice(ctx, comparison, snap.SlowPair, *snap.SlowPrice, ts)

	log.Info().
		Str("asset", snap.Asset).
		Float64("diff", *snap.DiffPercent).
		Msg("divergence signal")
}
