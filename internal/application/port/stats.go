package port

import (
	"context"

	"spreadeye/internal/domain"
)

// StatsProvider fetches 24-hour ticker statistics for every symbol on
// an exchange. Used to build the volatility hotlist and to seed the
// first volatility response before live samples accumulate.
type StatsProvider interface {
	DayStats(ctx context.Context) ([]domain.DayStat, error)
}
