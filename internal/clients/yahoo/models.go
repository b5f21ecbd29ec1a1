package yahoo

import "time"

// HistoricalPrice is one daily OHLCV bar.
type HistoricalPrice struct {
	Date     time.Time `json:"date"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   int64     `json:"volume"`
	AdjClose float64   `json:"adj_close"`
}

// SymbolInfo holds descriptive data for a symbol.
type SymbolInfo struct {
	Symbol    string `json:"symbol"`
	LongName  string `json:"long_name"`
	ShortName string `json:"short_name"`
}

// DisplayName prefers the long name, then the short name, then the symbol.
func (s SymbolInfo) DisplayName() string {
	switch {
	case s.LongName != "":
		return s.LongName
	case s.ShortName != "":
		return s.ShortName
	default:
		return s.Symbol
	}
}
