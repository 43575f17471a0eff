package helper

import (
	"fmt"
	"strings"

	"stock-analyzer/internal/dto"
	"stock-analyzer/pkg/common"
	"stock-analyzer/pkg/utils"
)

const (
	AnalysisFailedMessage = "Failed to analyze stock"
	MissingSymbolMessage  = "Please enter a stock symbol"
)

// SeedMessage opens the chat transcript of a freshly analyzed session.
func SeedMessage(symbol string, price float64) dto.ChatMessage {
	return dto.ChatMessage{
		Role: dto.RoleAssistant,
		Content: fmt.Sprintf("I've analyzed %s. The current price is %s%s. Ask me anything about this stock!",
			symbol, common.CurrencySymbol, utils.FormatPrice(price)),
	}
}

// ChatErrorMessage is the assistant apology shown when a chat request fails.
func ChatErrorMessage(detail string) dto.ChatMessage {
	return dto.ChatMessage{
		Role:    dto.RoleAssistant,
		Content: fmt.Sprintf("Sorry, I encountered an error: %s. Please make sure the backend is running.", detail),
	}
}

// LevelLabels renders levels as "S1: ₹2400.00" style labels.
func LevelLabels(prefix string, levels []float64) []string {
	labels := make([]string, 0, len(levels))
	for i, level := range levels {
		labels = append(labels, fmt.Sprintf("%s%d: %s%s", prefix, i+1, common.CurrencySymbol, utils.FormatPrice(level)))
	}
	return labels
}

// AnalysisSummary is a plain text rendering used by the chat surfaces.
func AnalysisSummary(a *dto.AnalysisResult) string {
	if a == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s  %s%s  %s\n", a.Symbol, common.CurrencySymbol, utils.FormatPrice(a.CurrentPrice), utils.FormatChangePercent(a.PriceChangePercent)))

	support := LevelLabels("S", a.Support)
	if len(support) == 0 {
		support = []string{"-"}
	}
	resistance := LevelLabels("R", a.Resistance)
	if len(resistance) == 0 {
		resistance = []string{"-"}
	}
	b.WriteString("Support: " + strings.Join(support, ", ") + "\n")
	b.WriteString("Resistance: " + strings.Join(resistance, ", "))

	if a.Signal != "" {
		b.WriteString("\nSignal: " + a.Signal)
		if a.Confidence != nil {
			b.WriteString(fmt.Sprintf(" (conf: %.2f)", *a.Confidence))
		}
	}
	return b.String()
}
