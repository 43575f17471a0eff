package common

const (
	KEY_FUNDAMENTALS = "fundamentals:%s"
)

const (
	DefaultTimeframe = "1d"
	DefaultSymbol    = "RELIANCE"
	CurrencySymbol   = "₹"
)

// GetTimeframeList returns every timeframe the backend accepts, in display order.
func GetTimeframeList() []string {
	return []string{"1m", "5m", "15m", "30m", "60m", "240m", "1d", "1w", "1M"}
}

// GetPopularSymbolList returns the NSE symbols suggested to new sessions.
func GetPopularSymbolList() []string {
	return []string{
		"RELIANCE", "TCS", "INFY", "HDFCBANK", "ICICIBANK",
		"TATAMOTORS", "SBIN", "WIPRO", "BHARTIARTL", "HINDUNILVR",
	}
}
