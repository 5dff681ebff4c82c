package exchange

import "spreadeye/internal/application/port"

// PriceEvent is one (symbol, price) observation parsed out of an
// inbound frame. The symbol is in the exchange-local form matching
// MapSymbol output.
type PriceEvent struct {
	Symbol string
	Price  float64
}

// Adapter is the per-exchange protocol contract. Adding an exchange
// means adding one Adapter implementation and registering it; nothing
// else changes.
//
// MapSymbol and ConnectURL are pure functions. ParseFrame never fails:
// frames irrelevant to price (heartbeats, acks, subscription replies)
// and malformed frames yield an empty slice.
type Adapter interface {
	Name() string

	// MapSymbol converts a canonical asset like "BTC/USDT" into this
	// exchange's local symbol form. Deterministic and idempotent.
	MapSymbol(asset string) string

	// ConnectURL builds the websocket target for a local symbol. Some
	// exchanges embed the symbol, others use one shared endpoint.
	ConnectURL(localSymbol string) string

	// SubscribePayload returns the message to send right after
	// connecting, or nil when the stream needs no explicit subscribe.
	SubscribePayload(asset string) []byte

	// ParseFrame extracts zero or more price events from a raw frame.
	ParseFrame(raw []byte) []PriceEvent

	// FallbackPrice is consulted only when the primary cache lookup
	// missed; exchange-specific substitute-pair logic.
	FallbackPrice(r port.PriceReader, asset, localSymbol string) (float64, bool)
}
