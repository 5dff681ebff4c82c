package port

import "spreadeye/internal/domain"

// Sink is where derived metrics leave the core. The in-repo
// implementation writes to the console; a web relay would implement the
// same interface.
type Sink interface {
	EmitDivergence(snap domain.DivergenceSnapshot) error
	EmitVolatility(ranks []domain.SymbolVolatility) error
}
