package dto

import "encoding/json"

// AnalysisResult is the backend's technical analysis for one symbol/timeframe.
// Support and resistance are kept in the order the backend sent them.
type AnalysisResult struct {
	Symbol             string    `json:"symbol"`
	CurrentPrice       float64   `json:"current_price"`
	PriceChangePercent float64   `json:"price_change_percent"`
	Support            []float64 `json:"support"`
	Resistance         []float64 `json:"resistance"`
	Timeframe          string    `json:"timeframe,omitempty"`
	Signal             string    `json:"signal,omitempty"`
	Confidence         *float64  `json:"confidence,omitempty"`

	// Raw is the exact payload received, forwarded verbatim as chat stock_data.
	Raw json.RawMessage `json:"-"`
}

// Clone returns a deep copy so callers can never mutate session state.
func (a *AnalysisResult) Clone() *AnalysisResult {
	if a == nil {
		return nil
	}
	c := *a
	c.Support = append([]float64(nil), a.Support...)
	c.Resistance = append([]float64(nil), a.Resistance...)
	c.Raw = append(json.RawMessage(nil), a.Raw...)
	if a.Confidence != nil {
		v := *a.Confidence
		c.Confidence = &v
	}
	return &c
}

// StockData returns the payload sent as stock_data on chat requests.
func (a *AnalysisResult) StockData() json.RawMessage {
	if len(a.Raw) > 0 {
		return a.Raw
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil
	}
	return b
}

type FundamentalsResult struct {
	CompanyName          string   `json:"company_name"`
	Sector               string   `json:"sector"`
	Industry             string   `json:"industry"`
	CurrentPrice         float64  `json:"current_price"`
	Week52High           float64  `json:"week_52_high"`
	Week52Low            float64  `json:"week_52_low"`
	PERatio              float64  `json:"pe_ratio"`
	ForwardPE            float64  `json:"forward_pe"`
	PriceToBook          float64  `json:"price_to_book"`
	PriceToSales         float64  `json:"price_to_sales"`
	DividendYield        float64  `json:"dividend_yield"`
	DividendRate         float64  `json:"dividend_rate"`
	ROE                  float64  `json:"roe"`
	ROA                  float64  `json:"roa"`
	ProfitMargin         float64  `json:"profit_margin"`
	OperatingMargin      float64  `json:"operating_margin"`
	Revenue              float64  `json:"revenue"`
	RevenueGrowth        float64  `json:"revenue_growth"`
	EarningsGrowth       float64  `json:"earnings_growth"`
	MarketCap            float64  `json:"market_cap"`
	DebtToEquity         float64  `json:"debt_to_equity"`
	CurrentRatio         float64  `json:"current_ratio"`
	Beta                 float64  `json:"beta"`
	EPS                  float64  `json:"eps"`
	BookValue            float64  `json:"book_value"`
	InstitutionalHolders float64  `json:"institutional_holders"`
	InsiderHolders       float64  `json:"insider_holders"`
	Peers                []string `json:"peers,omitempty"`
}

func (f *FundamentalsResult) Clone() *FundamentalsResult {
	if f == nil {
		return nil
	}
	c := *f
	c.Peers = append([]string(nil), f.Peers...)
	return &c
}

type ChatRequest struct {
	Message   string          `json:"message"`
	StockData json.RawMessage `json:"stock_data"`
}

type ChatResponse struct {
	Response string `json:"response"`
}

// ErrorResponse is the backend's failure body, e.g. {"detail": "Symbol not found"}.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
