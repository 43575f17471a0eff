package telegram

import (
	"fmt"
	"strings"

	"stock-analyzer/internal/dto"
	"stock-analyzer/internal/helper"
	"stock-analyzer/internal/model"
	"stock-analyzer/pkg/common"
	"stock-analyzer/pkg/utils"
)

const sparklineWidth = 30

func bold(text string) string {
	return "*" + utils.EscapeMarkdownV2(text) + "*"
}

func formatAnalysisMessage(state dto.SessionState) string {
	a := state.Analysis

	var b strings.Builder
	b.WriteString(bold(fmt.Sprintf("📈 %s (%s)", a.Symbol, state.Timeframe)))
	b.WriteString("\n\n")
	b.WriteString(utils.EscapeMarkdownV2(helper.AnalysisSummary(a)))
	b.WriteString("\n\n")
	b.WriteString(utils.EscapeMarkdownV2(helper.Sparkline(state.Chart, sparklineWidth)))
	if len(state.Chat) > 0 {
		b.WriteString("\n\n")
		b.WriteString(utils.EscapeMarkdownV2(state.Chat[0].Content))
	}
	return b.String()
}

func formatFundamentalsMessage(symbol string, s *dto.FundamentalsSummary) string {
	if s == nil {
		return utils.EscapeMarkdownV2(fmt.Sprintf("No fundamentals for %s.", symbol))
	}

	name := s.CompanyName
	if name == "" {
		name = symbol
	}

	lines := []string{
		fmt.Sprintf("Sector: %s", orDash(s.Sector)),
		fmt.Sprintf("Market cap: %s", s.MarketCap),
		fmt.Sprintf("Revenue: %s", s.Revenue),
		fmt.Sprintf("52W range position: %s%%", utils.FormatPrice(s.WeekRangePercent)),
	}

	segments := make([]string, 0, len(s.Shareholding))
	for _, seg := range s.Shareholding {
		segments = append(segments, fmt.Sprintf("%s %s%%", seg.Label, utils.FormatPrice(seg.Value)))
	}
	lines = append(lines, "Shareholding: "+strings.Join(segments, " · "))

	for _, stat := range s.Metrics {
		lines = append(lines, fmt.Sprintf("%s: %s", stat.Name, utils.FormatPrice(stat.Value)))
	}
	if len(s.TopPeers) > 0 {
		lines = append(lines, "Peers: "+strings.Join(s.TopPeers, ", "))
	}

	return bold(fmt.Sprintf("🏢 %s (%s)", name, symbol)) + "\n\n" + utils.EscapeMarkdownV2(strings.Join(lines, "\n"))
}

func formatChartMessage(symbol string, chart []dto.ChartPoint) string {
	low, high := helper.PriceRange(chart)
	last := chart[len(chart)-1].Price

	body := fmt.Sprintf("%s\nLow %s%s · High %s%s · Last %s%s\nIllustrative path only, not market history.",
		helper.Sparkline(chart, sparklineWidth),
		common.CurrencySymbol, utils.FormatPrice(low),
		common.CurrencySymbol, utils.FormatPrice(high),
		common.CurrencySymbol, utils.FormatPrice(last))

	return bold(fmt.Sprintf("📊 %s, %d points", symbol, len(chart))) + "\n\n" + utils.EscapeMarkdownV2(body)
}

func formatHistoryMessage(histories []model.AnalysisHistory) string {
	if len(histories) == 0 {
		return utils.EscapeMarkdownV2("No analysis history yet.")
	}

	lines := make([]string, 0, len(histories))
	for _, h := range histories {
		lines = append(lines, fmt.Sprintf("%s · %s %s · %s%s %s",
			utils.PrettyDate(h.AnalyzedAt),
			h.Symbol, h.Timeframe,
			common.CurrencySymbol, utils.FormatPrice(h.CurrentPrice),
			utils.FormatChangePercent(h.PriceChangePercent)))
	}
	return bold("🕘 Recent analyses") + "\n\n" + utils.EscapeMarkdownV2(strings.Join(lines, "\n"))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
