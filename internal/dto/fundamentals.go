package dto

// FundamentalsSummary is the derived view rendered next to an analysis.
type FundamentalsSummary struct {
	CompanyName      string          `json:"company_name"`
	Sector           string          `json:"sector"`
	MarketCap        string          `json:"market_cap"`
	Revenue          string          `json:"revenue"`
	WeekRangePercent float64         `json:"week_range_percent"`
	Shareholding     []ShareSegment  `json:"shareholding"`
	Metrics          []FinancialStat `json:"metrics"`
	TopPeers         []string        `json:"top_peers"`
}

type ShareSegment struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

type FinancialStat struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}
