package port

// PriceReader is the read side of the shared price cache. Lookups that
// miss return ok=false; a miss is not an error.
type PriceReader interface {
	Get(exchange, symbol string) (price float64, ok bool)
}

// PriceStore is the write side used by stream supervisors. Set is
// last-write-wins per (exchange, symbol). AppendWindow feeds the
// sliding-window volatility state for one symbol.
type PriceStore interface {
	Set(exchange, symbol string, price float64, ts int64)
	AppendWindow(symbol string, ts int64, price float64)
}
