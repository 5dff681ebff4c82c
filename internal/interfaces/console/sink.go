package console

import (
	"fmt"
	"time"

	"spreadeye/internal/application/port"
	"spreadeye/internal/domain"
)

type Sink struct{}

func NewSink() port.Sink { return &Sink{} }

// EmitDivergence overwrites the last line so the spread reads like a
// live ticker.
func (s *Sink) EmitDivergence(snap domain.DivergenceSnapshot) error {
	fmt.Printf("\r%s  %s=%s  %s=%s  diff=%s   ",
		snap.Asset,
		snap.FastPair, formatPrice(snap.FastPrice),
		snap.SlowPair, formatPrice(snap.SlowPrice),
		formatPercent(snap.DiffPercent),
	)
	return nil
}

func (s *Sink) EmitVolatility(ranks []domain.SymbolVolatility) error {
	fmt.Printf("\n%s top volatile pairs\n", time.Now().Format("2006-01-02 15:04:05"))
	for i, r := range ranks {
		fmt.Printf("%2d. %-12s %8.3f%%\n", i+1, r.Pair, r.Percent)
	}
	return nil
}

func formatPrice(p *float64) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%.8g", *p)
}

func formatPercent(p *float64) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%.4f%%", *p)
}
