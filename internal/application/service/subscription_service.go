package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"spreadeye/internal/application/port"
	"spreadeye/internal/domain"
	"spreadeye/internal/infrastructure/exchange"
	"spreadeye/internal/infrastructure/stream"

	"github.com/rs/zerolog/log"
)

const (
	DefaultReference       = "binance"
	DefaultMaxPairs        = 50
	DefaultQuote           = "USDT"
	DefaultHotlistInterval = 300 * time.Second
)

// streamHandle owns the cancellation of one running supervisor.
type streamHandle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

type SubscriptionDeps struct {
	Adapters  map[string]exchange.Adapter
	Reference string // fast exchange, defaults to binance
	Dialer    stream.Dialer
	Cache     *domain.PriceCache
	Stats     port.StatsProvider // hotlist mode only
	MaxPairs  int
	Quote     string
	// RetryDelay overrides the supervisors' reconnect delay (tests)
	RetryDelay time.Duration
}

// SubscriptionService reacts to interest changes: it tears down stale
// stream supervisors and starts new ones atomically with respect to the
// price cache. At most one generation of handles is live at any time.
type SubscriptionService struct {
	deps SubscriptionDeps

	mu         sync.Mutex
	handles    map[string]*streamHandle
	asset      string
	comparison string
}

func NewSubscriptionService(deps SubscriptionDeps) *SubscriptionService {
	if deps.Reference == "" {
		deps.Reference = DefaultReference
	}
	if deps.MaxPairs <= 0 {
		deps.MaxPairs = DefaultMaxPairs
	}
	if deps.Quote == "" {
		deps.Quote = DefaultQuote
	}
	return &SubscriptionService{
		deps:    deps,
		handles: make(map[string]*streamHandle),
	}
}

// ListExchanges returns the comparison exchanges available to a client,
// sorted, with the reference exchange excluded.
func (s *SubscriptionService) ListExchanges() []string {
	names := make([]string, 0, len(s.deps.Adapters))
	for name := range s.deps.Adapters {
		if name == s.deps.Reference {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Target returns the active (asset, comparison exchange) pair.
func (s *SubscriptionService) Target() (asset, comparison string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.asset, s.comparison, s.asset != "" && s.comparison != ""
}

// UpdateTarget switches the divergence session to a new (asset,
// comparison exchange) pair: every prior handle is cancelled and
// awaited, session prices are cleared, then exactly one handle per side
// is started. Identical targets are a no-op.
func (s *SubscriptionService) UpdateTarget(ctx context.Context, asset, comparison string) error {
	if asset == "" {
		return fmt.Errorf("empty asset")
	}
	refAdapter, ok := s.deps.Adapters[s.deps.Reference]
	if !ok {
		return fmt.Errorf("reference exchange %q not configured", s.deps.Reference)
	}
	cmpAdapter, ok := s.deps.Adapters[comparison]
	if !ok {
		return fmt.Errorf("unknown exchange %q", comparison)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if asset == s.asset && comparison == s.comparison {
		return nil
	}

	s.cancelAllLocked()
	s.deps.Cache.ClearAll()

	s.startLocked(ctx, refAdapter.Name(), refAdapter, asset, false)
	if comparison != s.deps.Reference {
		s.startLocked(ctx, cmpAdapter.Name(), cmpAdapter, asset, false)
	}

	s.asset = asset
	s.comparison = comparison
	log.Info().Str("asset", asset).Str("exchange", comparison).Msg("target switched")
	return nil
}

// RefreshHotlist rebuilds the volatility symbol universe from the
// reference exchange's 24h statistics: all prior handles are cancelled,
// the cache and every window are cleared, and one window-tracking
// handle per hotlist symbol is started.
func (s *SubscriptionService) RefreshHotlist(ctx context.Context) error {
	if s.deps.Stats == nil {
		return fmt.Errorf("no stats provider configured")
	}
	refAdapter, ok := s.deps.Adapters[s.deps.Reference]
	if !ok {
		return fmt.Errorf("reference exchange %q not configured", s.deps.Reference)
	}

	stats, err := s.deps.Stats.DayStats(ctx)
	if err != nil {
		return fmt.Errorf("fetch 24h stats: %w", err)
	}
	hotlist := domain.RankByDayRange(stats, s.deps.Quote, s.deps.MaxPairs)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelAllLocked()
	s.deps.Cache.ClearAll()

	for _, entry := range hotlist {
		s.startLocked(ctx, entry.Pair, refAdapter, entry.Pair, true)
	}

	log.Info().Int("pairs", len(hotlist)).Msg("hotlist refreshed")
	return nil
}

// RunHotlist refreshes once at start and then on a fixed cadence until
// ctx is cancelled. A failed refresh is retried on the next cycle.
func (s *SubscriptionService) RunHotlist(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultHotlistInterval
	}

	if err := s.RefreshHotlist(ctx); err != nil {
		log.Error().Err(err).Msg("initial hotlist refresh failed")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.StopAll()
			return ctx.Err()
		case <-ticker.C:
			if err := s.RefreshHotlist(ctx); err != nil {
				log.Error().Err(err).Msg("hotlist refresh failed")
			}
		}
	}
}

// StopAll cancels every running handle and waits for the connections to
// be released. Called when the session ends.
func (s *SubscriptionService) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelAllLocked()
	s.asset = ""
	s.comparison = ""
}

// ActiveHandles returns the keys of the currently running handles,
// sorted.
func (s *SubscriptionService) ActiveHandles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.handles))
	for key := range s.handles {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (s *SubscriptionService) startLocked(ctx context.Context, key string, adapter exchange.Adapter, asset string, trackWindow bool) {
	sup := stream.NewSupervisor(adapter, asset, s.deps.Dialer, s.deps.Cache, trackWindow)
	if s.deps.RetryDelay > 0 {
		sup.SetRetryDelay(s.deps.RetryDelay)
	}

	runCtx, cancel := context.WithCancel(ctx)
	h := &streamHandle{cancel: cancel, done: make(chan struct{})}
	s.handles[key] = h

	go func() {
		defer close(h.done)
		sup.Run(runCtx)
	}()
}

func (s *SubscriptionService) cancelAllLocked() {
	for _, h := range s.handles {
		h.cancel()
	}
	for _, h := range s.handles {
		<-h.done
	}
	s.handles = make(map[string]*streamHandle)
}
