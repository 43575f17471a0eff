package helper

import (
	"fmt"

	"stock-analyzer/internal/dto"
	"stock-analyzer/pkg/common"
	"stock-analyzer/pkg/utils"
)

const (
	defaultInstitutionalHolding = 35
	defaultInsiderHolding       = 15
	maxPeers                    = 3
)

// FormatIndianAmount abbreviates large rupee amounts as B (1e9), Cr (1e7) or L (1e5).
func FormatIndianAmount(value float64) string {
	switch {
	case value >= 1e9:
		return fmt.Sprintf("%s%sB", common.CurrencySymbol, utils.FormatPrice(value/1e9))
	case value >= 1e7:
		return fmt.Sprintf("%s%sCr", common.CurrencySymbol, utils.FormatPrice(value/1e7))
	case value >= 1e5:
		return fmt.Sprintf("%s%sL", common.CurrencySymbol, utils.FormatPrice(value/1e5))
	default:
		return common.CurrencySymbol + utils.FormatPrice(value)
	}
}

// WeekRangePercent places the current price inside the 52-week range, 0..100.
func WeekRangePercent(f *dto.FundamentalsResult) float64 {
	if f == nil || f.Week52High <= 0 || f.Week52High == f.Week52Low {
		return 0
	}
	return (f.CurrentPrice - f.Week52Low) / (f.Week52High - f.Week52Low) * 100
}

// Shareholding splits ownership into institutional, promoter and public
// holdings. Missing figures fall back to 35% institutional and 15% promoters.
func Shareholding(f *dto.FundamentalsResult) []dto.ShareSegment {
	institutional := f.InstitutionalHolders
	if institutional == 0 {
		institutional = defaultInstitutionalHolding
	}
	insider := f.InsiderHolders
	if insider == 0 {
		insider = defaultInsiderHolding
	}
	return []dto.ShareSegment{
		{Label: "Institutional", Value: institutional},
		{Label: "Promoters", Value: insider},
		{Label: "Public", Value: 100 - institutional - insider},
	}
}

func FinancialMetrics(f *dto.FundamentalsResult) []dto.FinancialStat {
	return []dto.FinancialStat{
		{Name: "ROE", Value: f.ROE},
		{Name: "ROA", Value: f.ROA},
		{Name: "Profit Margin", Value: f.ProfitMargin},
		{Name: "Operating Margin", Value: f.OperatingMargin},
	}
}

// SummarizeFundamentals derives the display summary, nil when f is nil.
func SummarizeFundamentals(f *dto.FundamentalsResult) *dto.FundamentalsSummary {
	if f == nil {
		return nil
	}

	peers := f.Peers
	if len(peers) > maxPeers {
		peers = peers[:maxPeers]
	}

	return &dto.FundamentalsSummary{
		CompanyName:      f.CompanyName,
		Sector:           f.Sector,
		MarketCap:        FormatIndianAmount(f.MarketCap),
		Revenue:          FormatIndianAmount(f.Revenue),
		WeekRangePercent: utils.RoundPrice(WeekRangePercent(f), 2),
		Shareholding:     Shareholding(f),
		Metrics:          FinancialMetrics(f),
		TopPeers:         append([]string{}, peers...),
	}
}
