package dto

import "time"

type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

type ChatMessage struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

// ChartPoint is one synthetic price sample; Time is the sample index.
type ChartPoint struct {
	Time  int     `json:"time"`
	Price float64 `json:"price"`
}

type LoadingFlags struct {
	Analysis     bool `json:"analysis"`
	Fundamentals bool `json:"fundamentals"`
	Chat         bool `json:"chat"`
}

// SessionState is a point-in-time snapshot of one analysis session.
type SessionState struct {
	ID           string              `json:"id"`
	Version      uint64              `json:"version"`
	Symbol       string              `json:"symbol"`
	Timeframe    string              `json:"timeframe"`
	Analysis     *AnalysisResult     `json:"analysis,omitempty"`
	Fundamentals *FundamentalsResult `json:"fundamentals,omitempty"`
	Chart        []ChartPoint        `json:"chart"`
	Chat         []ChatMessage       `json:"chat"`
	Loading      LoadingFlags        `json:"loading"`
	Error        string              `json:"error,omitempty"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// Clone deep-copies the snapshot.
func (s SessionState) Clone() SessionState {
	c := s
	c.Analysis = s.Analysis.Clone()
	c.Fundamentals = s.Fundamentals.Clone()
	c.Chart = append([]ChartPoint{}, s.Chart...)
	c.Chat = append([]ChatMessage{}, s.Chat...)
	return c
}
