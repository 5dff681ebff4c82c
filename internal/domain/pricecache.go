package domain

import (
	"sort"
	"sync"
	"time"
)

// DefaultWindowSpan is the trailing span kept per symbol for short-term
// volatility.
const DefaultWindowSpan = 60 * time.Second

type observation struct {
	price float64
	ts    int64
}

// PriceCache holds the latest price per (exchange, symbol) plus a
// bounded time-ordered window of recent samples per tracked symbol.
// Writers are the stream supervisors, readers the metric services; all
// access goes through the cache's own lock. Updates are
// last-write-wins by arrival.
type PriceCache struct {
	mu      sync.RWMutex
	latest  map[string]observation
	windows map[string]*priceWindow
	span    int64 // window span in ms
}

func NewPriceCache(span time.Duration) *PriceCache {
	if span <= 0 {
		span = DefaultWindowSpan
	}
	return &PriceCache{
		latest:  make(map[string]observation),
		windows: make(map[string]*priceWindow),
		span:    span.Milliseconds(),
	}
}

func cacheKey(exchange, symbol string) string {
	return exchange + ":" + symbol
}

func (c *PriceCache) Set(exchange, symbol string, price float64, ts int64) {
	c.mu.Lock()
	c.latest[cacheKey(exchange, symbol)] = observation{price: price, ts: ts}
	c.mu.Unlock()
}

func (c *PriceCache) Get(exchange, symbol string) (float64, bool) {
	c.mu.RLock()
	obs, ok := c.latest[cacheKey(exchange, symbol)]
	c.mu.RUnlock()
	return obs.price, ok
}

// AppendWindow records one sample for symbol, evicting anything older
// than the span relative to the newest sample.
func (c *PriceCache) AppendWindow(symbol string, ts int64, price float64) {
	c.mu.Lock()
	w := c.windows[symbol]
	if w == nil {
		w = &priceWindow{span: c.span}
		c.windows[symbol] = w
	}
	w.append(ts, price)
	c.mu.Unlock()
}

// WindowVolatility returns the (max-min)/min spread in percent over the
// in-window samples of symbol. Fewer than two samples, or a minimum of
// zero, yield 0.
func (c *PriceCache) WindowVolatility(symbol string) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	w := c.windows[symbol]
	if w == nil {
		return 0
	}
	return w.volatility()
}

// TopVolatile ranks every tracked symbol by window volatility and
// returns the top k, descending. Symbols with zero volatility are
// skipped.
func (c *PriceCache) TopVolatile(k int) []SymbolVolatility {
	c.mu.RLock()
	ranks := make([]SymbolVolatility, 0, len(c.windows))
	for sym, w := range c.windows {
		if v := w.volatility(); v > 0 {
			ranks = append(ranks, SymbolVolatility{Pair: sym, Percent: v})
		}
	}
	c.mu.RUnlock()

	sort.Slice(ranks, func(i, j int) bool {
		if ranks[i].Percent != ranks[j].Percent {
			return ranks[i].Percent > ranks[j].Percent
		}
		return ranks[i].Pair < ranks[j].Pair
	})
	if k > 0 && len(ranks) > k {
		ranks = ranks[:k]
	}
	return ranks
}

// ClearAll drops every latest price and every window. Called on hotlist
// refresh, when the tracked symbol universe changes wholesale.
func (c *PriceCache) ClearAll() {
	c.mu.Lock()
	c.latest = make(map[string]observation)
	c.windows = make(map[string]*priceWindow)
	c.mu.Unlock()
}
