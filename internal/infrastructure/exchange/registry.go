package exchange

import (
	"sort"

	"github.com/rs/zerolog/log"
)

// Factory builds an adapter bound to a websocket base URL. An empty
// wsURL means the exchange's default endpoint.
type Factory func(wsURL string) Adapter

// registry maps exchange names to their adapter factories
var registry = make(map[string]Factory)

// Register adds an adapter factory for an exchange. Called from the
// init() of each exchange subpackage.
func Register(name string, factory Factory) {
	if factory == nil {
		log.Warn().Str("exchange", name).Msg("invalid adapter factory")
		return
	}
	if _, exists := registry[name]; exists {
		log.Warn().Str("exchange", name).Msg("adapter factory already registered, overwriting")
	}
	registry[name] = factory
	log.Debug().Str("exchange", name).Msg("adapter factory registered")
}

// Get returns the registered factory for an exchange name.
func Get(name string) (Factory, bool) {
	factory, ok := registry[name]
	return factory, ok
}

// Names returns all registered exchange names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
