package mexc

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"spreadeye/internal/application/port"
	"spreadeye/internal/infrastructure/exchange"

	"github.com/rs/zerolog/log"
)

const Name = "mexc"

const defaultWSURL = "wss://wbs.mexc.com/ws"

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

// MapSymbol: "BTC/USDT" -> "BTCUSDT".
func (a *Adapter) MapSymbol(asset string) string {
	return strings.ReplaceAll(asset, "/", "")
}

// ConnectURL is one shared endpoint; subscription happens via message.
func (a *Adapter) ConnectURL(localSymbol string) string { return a.wsURL }

type subscribeReq struct {
	Method string   `json:"method"`
	Params []string `json:"params"`
	ID     int      `json:"id"`
}

func (a *Adapter) SubscribePayload(asset string) []byte {
	req := subscribeReq{
		Method: "SUBSCRIPTION",
		Params: []string{fmt.Sprintf("spot@public.bookTicker.v3.api@%s", a.MapSymbol(asset))},
		ID:     1,
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil
	}
	return payload
}

type bookTickerMsg struct {
	Data struct {
		Ask string `json:"a"`
		Bid string `json:"b"`
	} `json:"d"`
	Symbol string `json:"s"`
}

// ParseFrame handles bookTicker events, taking the best ask:
//
//	{"d":{"a":"24448.16","b":"24447.50"},"c":"spot@public.bookTicker.v3.api@BTCUSDT","s":"BTCUSDT"}
//
// Subscription acks and malformed frames yield no events.
func (a *Adapter) ParseFrame(raw []byte) []exchange.PriceEvent {
	var msg bookTickerMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Debug().Str("exchange", Name).Err(err).Msg("frame unmarshal failed")
		return nil
	}
	if msg.Symbol == "" || msg.Data.Ask == "" {
		return nil
	}
	price, err := strconv.ParseFloat(msg.Data.Ask, 64)
	if err != nil || price <= 0 {
		return nil
	}
	return []exchange.PriceEvent{{Symbol: msg.Symbol, Price: price}}
}

func (a *Adapter) FallbackPrice(r port.PriceReader, asset, localSymbol string) (float64, bool) {
	return 0, false
}

var _ exchange.Adapter = (*Adapter)(nil)
