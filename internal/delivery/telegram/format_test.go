package telegram

import (
	"testing"
	"time"

	"stock-analyzer/internal/dto"
	"stock-analyzer/internal/helper"
	"stock-analyzer/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestFormatAnalysisMessage(t *testing.T) {
	analysis := &dto.AnalysisResult{
		Symbol:             "RELIANCE",
		CurrentPrice:       2500,
		PriceChangePercent: -0.5,
		Support:            []float64{2400},
		Resistance:         []float64{2600},
	}
	state := dto.SessionState{
		Timeframe: "1d",
		Analysis:  analysis,
		Chart:     helper.GenerateChartPoints("RELIANCE", 2500, 60),
		Chat:      []dto.ChatMessage{helper.SeedMessage("RELIANCE", 2500)},
	}

	msg := formatAnalysisMessage(state)

	assert.Contains(t, msg, "*📈 RELIANCE \\(1d\\)*")
	assert.Contains(t, msg, "S1: ₹2400\\.00")
	assert.Contains(t, msg, "R1: ₹2600\\.00")
	assert.Contains(t, msg, "▼0\\.50%")
	assert.Contains(t, msg, "The current price is ₹2500\\.00\\. Ask me anything about this stock\\!")
}

func TestFormatFundamentalsMessage(t *testing.T) {
	summary := helper.SummarizeFundamentals(&dto.FundamentalsResult{
		CompanyName: "Tata Consultancy Services",
		Sector:      "Technology",
		MarketCap:   1.4e13,
		Peers:       []string{"INFY", "WIPRO"},
	})

	msg := formatFundamentalsMessage("TCS", summary)
	assert.Contains(t, msg, "*🏢 Tata Consultancy Services \\(TCS\\)*")
	assert.Contains(t, msg, "Sector: Technology")
	assert.Contains(t, msg, "Institutional 35\\.00%")
	assert.Contains(t, msg, "Peers: INFY, WIPRO")

	assert.Equal(t, "No fundamentals for TCS\\.", formatFundamentalsMessage("TCS", nil))
}

func TestFormatChartMessage(t *testing.T) {
	chart := []dto.ChartPoint{{Time: 0, Price: 98}, {Time: 1, Price: 101.5}, {Time: 2, Price: 100}}

	msg := formatChartMessage("INFY", chart)
	assert.Contains(t, msg, "*📊 INFY, 3 points*")
	assert.Contains(t, msg, "Low ₹98\\.00 · High ₹101\\.50 · Last ₹100\\.00")
	assert.Contains(t, msg, "not market history\\.")
}

func TestFormatHistoryMessage(t *testing.T) {
	assert.Equal(t, "No analysis history yet\\.", formatHistoryMessage(nil))

	msg := formatHistoryMessage([]model.AnalysisHistory{{
		Symbol:             "SBIN",
		Timeframe:          "1w",
		CurrentPrice:       812.4,
		PriceChangePercent: 1.25,
		AnalyzedAt:         time.Date(2025, time.March, 3, 4, 0, 0, 0, time.UTC),
	}})
	assert.Contains(t, msg, "03 Mar 2025 \\- 09:30 IST · SBIN 1w · ₹812\\.40 ▲1\\.25%")
}

func TestSessionKey(t *testing.T) {
	assert.Equal(t, "telegram:-100123", sessionKey(-100123))
}
