package binance

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"spreadeye/internal/application/port"
	"spreadeye/internal/infrastructure/exchange"

	"github.com/rs/zerolog/log"
)

const Name = "binance"

const defaultWSBase = "wss://stream.binance.com:9443"

type Adapter struct {
	wsBase string
}

func New(wsBase string) *Adapter {
	wsBase = strings.TrimSpace(wsBase)
	if wsBase == "" {
		wsBase = defaultWSBase
	}
	return &Adapter{wsBase: strings.TrimRight(wsBase, "/")}
}

func (a *Adapter) Name() string { return Name }

// MapSymbol: "BTC/USDT" -> "BTCUSDT". Already-local symbols pass
// through unchanged.
func (a *Adapter) MapSymbol(asset string) string {
	return strings.ReplaceAll(asset, "/", "")
}

// ConnectURL embeds the symbol in the stream path; Binance wants it
// lowercase there.
func (a *Adapter) ConnectURL(localSymbol string) string {
	return fmt.Sprintf("%s/ws/%s@trade", a.wsBase, strings.ToLower(localSymbol))
}

// SubscribePayload is nil: the public trade stream needs no explicit
// subscribe step.
func (a *Adapter) SubscribePayload(asset string) []byte { return nil }

type tradeMsg struct {
	Event  string `json:"e"`
	Symbol string `json:"s"`
	Price  string `json:"p"`
}

// ParseFrame handles trade events:
//
//	{"e":"trade","s":"BTCUSDT","p":"24448.16000000",...}
//
// Anything else (depth updates, heartbeats, garbage) yields no events.
func (a *Adapter) ParseFrame(raw []byte) []exchange.PriceEvent {
	var msg tradeMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Debug().Str("exchange", Name).Err(err).Msg("frame unmarshal failed")
		return nil
	}
	if msg.Event != "trade" || msg.Symbol == "" {
		return nil
	}
	price, err := strconv.ParseFloat(msg.Price, 64)
	if err != nil || price <= 0 {
		return nil
	}
	return []exchange.PriceEvent{{Symbol: msg.Symbol, Price: price}}
}

func (a *Adapter) FallbackPrice(r port.PriceReader, asset, localSymbol string) (float64, bool) {
	return 0, false
}

var _ exchange.Adapter = (*Adapter)(nil)
