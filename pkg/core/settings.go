package core

import (
	"strings"

	"github.com/StudioSol/set"
)

const DefaultPeriod = "5y"

// Settings represents the pipeline configuration
type Settings struct {
	Tickers     []string   // Tickers shown on the dashboard
	Period      string     // Lookback period of every fetch
	Features    FeatureSet // Moving averages derived and charted
	FieldLines  bool       // Whether raw field lines are charted next to the averages
	Parallelism int        // Concurrent fetches per request, 1 is sequential
}

// DefaultSettings returns the settings of the stock dashboard
func DefaultSettings() Settings {
	return Settings{
		Period:      DefaultPeriod,
		Features:    DefaultFeatureSet(),
		FieldLines:  true,
		Parallelism: 1,
	}
}

// GetTickers returns the configured tickers normalized and without
// duplicates, keeping their first occurrence order
func (s Settings) GetTickers() []string {
	return NormalizeTickers(s.Tickers)
}

// NormalizeTicker trims and upper-cases a ticker symbol
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// NormalizeTickers normalizes every ticker, dropping blanks and duplicates
func NormalizeTickers(tickers []string) []string {
	unique := set.NewLinkedHashSetString()
	for _, ticker := range tickers {
		if ticker = NormalizeTicker(ticker); ticker != "" {
			unique.Add(ticker)
		}
	}

	result := make([]string, 0, unique.Length())
	for ticker := range unique.Iter() {
		result = append(result, ticker)
	}
	return result
}
