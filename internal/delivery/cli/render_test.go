package cli

import (
	"testing"

	"stock-analyzer/internal/dto"
	"stock-analyzer/internal/helper"

	"github.com/stretchr/testify/assert"
)

func TestRenderAnalysis(t *testing.T) {
	confidence := 0.82
	state := dto.SessionState{
		Timeframe: "1d",
		Analysis: &dto.AnalysisResult{
			Symbol:             "RELIANCE",
			CurrentPrice:       2500,
			PriceChangePercent: -1.25,
			Support:            []float64{2400, 2350},
			Resistance:         []float64{2600},
			Signal:             "bearish",
			Confidence:         &confidence,
		},
		Chart: helper.GenerateChartPoints("RELIANCE", 2500, 60),
	}

	out := RenderAnalysis(state)

	assert.Contains(t, out, "RELIANCE · 1d")
	assert.Contains(t, out, "₹2500.00")
	assert.Contains(t, out, "▼1.25%")
	assert.Contains(t, out, "S1: ₹2400.00")
	assert.Contains(t, out, "S2: ₹2350.00")
	assert.Contains(t, out, "R1: ₹2600.00")
	assert.Contains(t, out, "bearish (conf: 0.82)")
	assert.Contains(t, out, "illustrative path")
}

func TestRenderAnalysis_NoLevels(t *testing.T) {
	out := RenderAnalysis(dto.SessionState{
		Timeframe: "1w",
		Analysis:  &dto.AnalysisResult{Symbol: "TCS", CurrentPrice: 3500},
	})

	assert.Contains(t, out, "TCS · 1w")
	assert.NotContains(t, out, "S1:")
	assert.NotContains(t, out, "illustrative path")
}

func TestRenderAnalysis_FallsBackToError(t *testing.T) {
	assert.Contains(t, RenderAnalysis(dto.SessionState{Error: "No data found"}), "No data found")
	assert.Contains(t, RenderAnalysis(dto.SessionState{}), helper.AnalysisFailedMessage)
}

func TestRenderFundamentals(t *testing.T) {
	summary := helper.SummarizeFundamentals(&dto.FundamentalsResult{
		CompanyName:  "Infosys",
		Sector:       "Technology",
		MarketCap:    6.5e12,
		CurrentPrice: 1500,
		Week52High:   2000,
		Week52Low:    1000,
		Peers:        []string{"TCS", "WIPRO"},
	})

	out := RenderFundamentals(summary)

	assert.Contains(t, out, "Infosys")
	assert.Contains(t, out, "Technology")
	assert.Contains(t, out, "Promoters")
	assert.Contains(t, out, "TCS, WIPRO")
	assert.Empty(t, RenderFundamentals(nil))
}

func TestRenderMessage(t *testing.T) {
	assert.Contains(t, RenderMessage(dto.ChatMessage{Role: dto.RoleUser, Content: "hi"}), "You: ")
	assert.Contains(t, RenderMessage(dto.ChatMessage{Role: dto.RoleAssistant, Content: "hello"}), "hello")
}
