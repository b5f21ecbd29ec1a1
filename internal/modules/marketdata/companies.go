package marketdata

// DefaultWatchlist is the sidebar's symbol list when none is configured.
var DefaultWatchlist = []string{"AAPL", "MSFT", "AMZN", "GOOGL", "META", "NVDA", "TSLA", "BRK-B", "JPM", "JNJ"}

var companyNames = map[string]string{
	"AAPL":  "Apple Inc.",
	"MSFT":  "Microsoft Corporation",
	"GOOGL": "Alphabet Inc.",
	"AMZN":  "Amazon.com, Inc.",
	"TSLA":  "Tesla, Inc.",
	"META":  "Meta Platforms, Inc.",
	"NVDA":  "NVIDIA Corporation",
	"JPM":   "JPMorgan Chase & Co.",
	"JNJ":   "Johnson & Johnson",
	"BRK-B": "Berkshire Hathaway Inc.",
}

// FallbackCompanyName returns the built-in name for symbol, or "<symbol> Inc.".
func FallbackCompanyName(symbol string) string {
	if name, ok := companyNames[symbol]; ok {
		return name
	}
	return symbol + " Inc."
}
