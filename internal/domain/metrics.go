package domain

import (
	"sort"
	"strings"
)

// DivergenceSnapshot is the divergence emission shape. Prices and the
// diff are nil while the corresponding value is unavailable.
type DivergenceSnapshot struct {
	Asset       string   `json:"asset"`
	FastPair    string   `json:"fast_pair"`
	SlowPair    string   `json:"slow_pair"`
	FastPrice   *float64 `json:"fast_price"`
	SlowPrice   *float64 `json:"slow_price"`
	DiffPercent *float64 `json:"diff"`
}

// SymbolVolatility is one entry of the volatility ranking.
type SymbolVolatility struct {
	Pair    string  `json:"pair"`
	Percent float64 `json:"volatility"`
}

// DayStat is one row of an exchange's 24-hour ticker statistics.
type DayStat struct {
	Symbol    string
	HighPrice float64
	LowPrice  float64
}

// Divergence returns |fast-slow|/fast in percent. A fast price of zero
// makes the result undefined rather than dividing by zero.
func Divergence(fast, slow float64) (float64, bool) {
	if fast == 0 {
		return 0, false
	}
	d := fast - slow
	if d < 0 {
		d = -d
	}
	return d / fast * 100, true
}

// RankByDayRange ranks symbols quoted in quote by their 24-hour
// (high-low)/low range, descending, and returns at most limit entries.
// A low of zero counts as zero range.
func RankByDayRange(stats []DayStat, quote string, limit int) []SymbolVolatility {
	ranks := make([]SymbolVolatility, 0, len(stats))
	for _, st := range stats {
		if quote != "" && !strings.HasSuffix(st.Symbol, quote) {
			continue
		}
		vol := 0.0
		if st.LowPrice > 0 {
			vol = (st.HighPrice - st.LowPrice) / st.LowPrice * 100
		}
		ranks = append(ranks, SymbolVolatility{Pair: st.Symbol, Percent: vol})
	}
	sort.Slice(ranks, func(i, j int) bool {
		if ranks[i].Percent != ranks[j].Percent {
			return ranks[i].Percent > ranks[j].Percent
		}
		return ranks[i].Pair < ranks[j].Pair
	})
	if limit > 0 && len(ranks) > limit {
		ranks = ranks[:limit]
	}
	return ranks
}
