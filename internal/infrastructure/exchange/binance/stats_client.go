package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"spreadeye/internal/domain"
)

const defaultRESTBase = "https://api.binance.com"

// StatsClient fetches Binance 24-hour ticker statistics over REST.
type StatsClient struct {
	baseURL string
	client  *http.Client
}

type dayStatResp struct {
	Symbol    string `json:"symbol"`
	HighPrice string `json:"highPrice"`
	LowPrice  string `json:"lowPrice"`
}

func NewStatsClient(baseURL string) *StatsClient {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = defaultRESTBase
	}
	return &StatsClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// DayStats returns 24hr statistics for every symbol. Rows with
// unparseable prices are skipped.
func (c *StatsClient) DayStats(ctx context.Context) ([]domain.DayStat, error) {
	url := fmt.Sprintf("%s/api/v3/ticker/24hr", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("binance api error: %d %s", resp.StatusCode, string(body))
	}

	var rows []dayStatResp
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, err
	}

	stats := make([]domain.DayStat, 0, len(rows))
	for _, row := range rows {
		high, err := strconv.ParseFloat(row.HighPrice, 64)
		if err != nil {
			continue
		}
		low, err := strconv.ParseFloat(row.LowPrice, 64)
		if err != nil {
			continue
		}
		stats = append(stats, domain.DayStat{Symbol: row.Symbol, HighPrice: high, LowPrice: low})
	}
	return stats, nil
}
