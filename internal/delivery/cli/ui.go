package cli

import (
	"fmt"
	"strings"

	"stock-analyzer/internal/dto"
	"stock-analyzer/internal/helper"
	"stock-analyzer/pkg/common"
	"stock-analyzer/pkg/utils"

	"github.com/charmbracelet/lipgloss"
)

const (
	cardWidth      = 72
	sparklineWidth = 60
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Padding(0, 1)

	cardStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(0, 1).
			Width(cardWidth)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))

	upStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10B981")).
		Bold(true)

	downStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	supportStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981"))

	resistanceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444"))

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true)

	assistantStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)
)

// RenderAnalysis renders the analysis card of a settled session.
func RenderAnalysis(state dto.SessionState) string {
	a := state.Analysis
	if a == nil {
		return RenderError(state.Error)
	}

	change := upStyle
	if a.PriceChangePercent < 0 {
		change = downStyle
	}

	price := fmt.Sprintf("%s%s  %s",
		common.CurrencySymbol, utils.FormatPrice(a.CurrentPrice),
		change.Render(utils.FormatChangePercent(a.PriceChangePercent)))

	rows := []string{
		titleStyle.Render(fmt.Sprintf("%s · %s", a.Symbol, state.Timeframe)),
		price,
		"",
		labelStyle.Render("Support     ") + supportStyle.Render(levels("S", a.Support)),
		labelStyle.Render("Resistance  ") + resistanceStyle.Render(levels("R", a.Resistance)),
	}
	if a.Signal != "" {
		signal := a.Signal
		if a.Confidence != nil {
			signal += fmt.Sprintf(" (conf: %.2f)", *a.Confidence)
		}
		rows = append(rows, labelStyle.Render("Signal      ")+signal)
	}
	if len(state.Chart) > 0 {
		low, high := helper.PriceRange(state.Chart)
		rows = append(rows,
			"",
			helper.Sparkline(state.Chart, sparklineWidth),
			labelStyle.Render(fmt.Sprintf("illustrative path · low %s · high %s", utils.FormatPrice(low), utils.FormatPrice(high))),
		)
	}

	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// RenderFundamentals renders a fundamentals summary card.
func RenderFundamentals(summary *dto.FundamentalsSummary) string {
	if summary == nil {
		return ""
	}

	rows := []string{
		titleStyle.Render(summary.CompanyName),
		labelStyle.Render("Sector      ") + summary.Sector,
		labelStyle.Render("Market cap  ") + summary.MarketCap,
		labelStyle.Render("Revenue     ") + summary.Revenue,
		labelStyle.Render("52W range   ") + utils.FormatPrice(summary.WeekRangePercent) + "%",
	}

	holdings := make([]string, 0, len(summary.Shareholding))
	for _, seg := range summary.Shareholding {
		holdings = append(holdings, fmt.Sprintf("%s %s%%", seg.Label, utils.FormatPrice(seg.Value)))
	}
	rows = append(rows, labelStyle.Render("Holdings    ")+strings.Join(holdings, " · "))

	metrics := make([]string, 0, len(summary.Metrics))
	for _, stat := range summary.Metrics {
		metrics = append(metrics, fmt.Sprintf("%s %s", stat.Name, utils.FormatPrice(stat.Value)))
	}
	rows = append(rows, labelStyle.Render("Metrics     ")+strings.Join(metrics, " · "))

	if len(summary.TopPeers) > 0 {
		rows = append(rows, labelStyle.Render("Peers       ")+strings.Join(summary.TopPeers, ", "))
	}

	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func RenderMessage(msg dto.ChatMessage) string {
	if msg.Role == dto.RoleUser {
		return userStyle.Render("You: ") + msg.Content
	}
	return assistantStyle.Render("Assistant: ") + msg.Content
}

func RenderError(message string) string {
	if message == "" {
		message = helper.AnalysisFailedMessage
	}
	return errorStyle.Render("✗ " + message)
}

func levels(prefix string, values []float64) string {
	labels := helper.LevelLabels(prefix, values)
	if len(labels) == 0 {
		return "-"
	}
	return strings.Join(labels, "  ")
}
