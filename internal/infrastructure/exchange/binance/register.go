package binance

import "spreadeye/internal/infrastructure/exchange"

func init() {
	exchange.Register(Name, func(wsURL string) exchange.Adapter {
		return New(wsURL)
	})
}
