package stream

import (
	"context"
	"fmt"
	"time"

	"spreadeye/internal/application/port"
	"spreadeye/internal/infrastructure/exchange"

	"github.com/rs/zerolog/log"
)

const defaultRetryDelay = 1 * time.Second

// Supervisor owns one persistent connection for one (exchange, asset)
// target. It connects, sends the adapter's handshake if any, and feeds
// every parsed observation into the price store. Any fault is logged
// and followed by a fixed delay before reconnecting; the loop never
// gives up on its own, only cancellation stops it. The cache write is
// the only side effect outside this component.
type Supervisor struct {
	adapter     exchange.Adapter
	asset       string
	dialer      Dialer
	store       port.PriceStore
	trackWindow bool
	retryDelay  time.Duration
}

func NewSupervisor(adapter exchange.Adapter, asset string, dialer Dialer, store port.PriceStore, trackWindow bool) *Supervisor {
	return &Supervisor{
		adapter:     adapter,
		asset:       asset,
		dialer:      dialer,
		store:       store,
		trackWindow: trackWindow,
		retryDelay:  defaultRetryDelay,
	}
}

// SetRetryDelay overrides the reconnect delay. Tests use this to avoid
// real sleeps.
func (s *Supervisor) SetRetryDelay(d time.Duration) {
	if d > 0 {
		s.retryDelay = d
	}
}

// Run blocks until ctx is cancelled. The underlying connection is
// closed before it returns.
func (s *Supervisor) Run(ctx context.Context) {
	local := s.adapter.MapSymbol(s.asset)
	wsURL := s.adapter.ConnectURL(local)

	log.Info().
		Str("exchange", s.adapter.Name()).
		Str("asset", s.asset).
		Str("url", wsURL).
		Msg("stream starting")

	for {
		if ctx.Err() != nil {
			return
		}

		conn, err := s.dialer.Dial(ctx, wsURL)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error().Str("exchange", s.adapter.Name()).Str("asset", s.asset).Err(err).Msg("connect failed")
			if !s.wait(ctx) {
				return
			}
			continue
		}

		err = s.stream(ctx, conn)
		_ = conn.Close()

		if ctx.Err() != nil {
			return
		}
		log.Warn().Str("exchange", s.adapter.Name()).Str("asset", s.asset).Err(err).Msg("stream interrupted, reconnecting")
		if !s.wait(ctx) {
			return
		}
	}
}

func (s *Supervisor) stream(ctx context.Context, conn Conn) error {
	if payload := s.adapter.SubscribePayload(s.asset); payload != nil {
		if err := conn.WriteMessage(payload); err != nil {
			return fmt.Errorf("subscribe: %w", err)
		}
		log.Info().Str("exchange", s.adapter.Name()).Str("asset", s.asset).Msg("subscribed")
	}

	errCh := make(chan error, 1)
	go func() {
		for {
			raw, err := conn.ReadMessage()
			if err != nil {
				errCh <- err
				return
			}
			s.apply(raw)
		}
	}()

	// the caller closes conn on return, unblocking the reader
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

func (s *Supervisor) apply(raw []byte) {
	ts := time.Now().UnixMilli()
	for _, ev := range s.adapter.ParseFrame(raw) {
		s.store.Set(s.adapter.Name(), ev.Symbol, ev.Price, ts)
		if s.trackWindow {
			s.store.AppendWindow(ev.Symbol, ts, ev.Price)
		}
	}
}

func (s *Supervisor) wait(ctx context.Context) bool {
	timer := time.NewTimer(s.retryDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
