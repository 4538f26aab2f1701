package exchange

import (
	"github.com/raykavin/bullseye/pkg/core"
)

// SymbolService maps dashboard tickers to provider symbols. It is immutable
// once created.
type SymbolService struct {
	symbols map[string]string
}

// defaultSymbols lists the index aliases accepted by the dashboard
var defaultSymbols = map[string]string{
	"SPX":    "^GSPC",
	"SP500":  "^GSPC",
	"SPX500": "^GSPC",
	"NDX":    "^NDX",
	"DJI":    "^DJI",
	"VIX":    "^VIX",
}

// NewSymbolService creates a symbol service with the default aliases plus
// the given overrides
func NewSymbolService(overrides map[string]string) *SymbolService {
	symbols := make(map[string]string, len(defaultSymbols)+len(overrides))
	for ticker, symbol := range defaultSymbols {
		symbols[ticker] = symbol
	}
	for ticker, symbol := range overrides {
		symbols[core.NormalizeTicker(ticker)] = symbol
	}

	return &SymbolService{symbols: symbols}
}

// Symbol returns the provider symbol of a ticker
func (s *SymbolService) Symbol(ticker string) string {
	ticker = core.NormalizeTicker(ticker)
	if symbol, ok := s.symbols[ticker]; ok {
		return symbol
	}
	return ticker
}
