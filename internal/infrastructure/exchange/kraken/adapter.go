package kraken

import (
	"encoding/json"
	"strconv"
	"strings"

	"spreadeye/internal/application/port"
	"spreadeye/internal/infrastructure/exchange"

	"github.com/rs/zerolog/log"
)

const Name = "kraken"

const defaultWSURL = "wss://ws.kraken.com"

type Adapter struct {
	wsURL string
}

func New(wsURL string) *Adapter {
	wsURL = strings.TrimSpace(wsURL)
	if wsURL == "" {
		wsURL = defaultWSURL
	}
	return &Adapter{wsURL: wsURL}
}

func (a *Adapter) Name() string { return Name }

// MapSymbol substitutes Kraken's XBT alias for BTC and keeps the slash:
// "BTC/USDT" -> "XBT/USDT", "ETH/BTC" -> "ETH/XBT".
func (a *Adapter) MapSymbol(asset string) string {
	return strings.ReplaceAll(asset, "BTC", "XBT")
}

// ConnectURL is one shared endpoint; subscription happens via message.
func (a *Adapter) ConnectURL(localSymbol string) string { return a.wsURL }

type subscribeReq struct {
	Event        string   `json:"event"`
	Pair         []string `json:"pair"`
	Subscription struct {
		Name string `json:"name"`
	} `json:"subscription"`
}

// SubscribePayload requests the ticker channel for the mapped pair,
// plus the /USD alternate as a fallback when the USDT market is thin or
// absent.
func (a *Adapter) SubscribePayload(asset string) []byte {
	mapped := a.MapSymbol(asset)
	req := subscribeReq{Event: "subscribe", Pair: []string{mapped}}
	req.Subscription.Name = "ticker"

	if alt := strings.Replace(mapped, "/USDT", "/USD", 1); alt != mapped {
		req.Pair = append(req.Pair, alt)
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil
	}
	return payload
}

// ParseFrame handles ticker updates, which arrive as arrays:
//
//	[42, {"c":["24448.1","1.2345"], ...}, "ticker", "XBT/USDT"]
//
// Event objects (subscriptionStatus, heartbeat) and malformed frames
// yield no events.
func (a *Adapter) ParseFrame(raw []byte) []exchange.PriceEvent {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		// not an array: status events, heartbeats
		return nil
	}
	if len(elems) < 4 {
		return nil
	}

	var ticker struct {
		Close []string `json:"c"`
	}
	if err := json.Unmarshal(elems[1], &ticker); err != nil || len(ticker.Close) == 0 {
		return nil
	}

	var pair string
	if err := json.Unmarshal(elems[3], &pair); err != nil || pair == "" {
		return nil
	}

	price, err := strconv.ParseFloat(ticker.Close[0], 64)
	if err != nil || price <= 0 {
		log.Debug().Str("exchange", Name).Str("pair", pair).Msg("unparseable ticker price")
		return nil
	}
	return []exchange.PriceEvent{{Symbol: pair, Price: price}}
}

// FallbackPrice tries the /USD pair when the /USDT price has not yet
// produced data. Triggers only on a primary miss, never on staleness.
func (a *Adapter) FallbackPrice(r port.PriceReader, asset, localSymbol string) (float64, bool) {
	if !strings.HasSuffix(asset, "/USDT") {
		return 0, false
	}
	usdPair := a.MapSymbol(strings.TrimSuffix(asset, "/USDT") + "/USD")
	return r.Get(Name, usdPair)
}

var _ exchange.Adapter = (*Adapter)(nil)
