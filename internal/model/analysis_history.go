package model

import (
	"time"

	"gorm.io/datatypes"
)

// AnalysisHistory is one successful analysis as returned by the backend.
type AnalysisHistory struct {
	ID                 uint           `gorm:"primarykey" json:"id"`
	SessionID          string         `gorm:"not null;index" json:"session_id"`
	Symbol             string         `gorm:"not null;index" json:"symbol"`
	Timeframe          string         `gorm:"not null" json:"timeframe"`
	CurrentPrice       float64        `gorm:"not null" json:"current_price"`
	PriceChangePercent float64        `gorm:"not null" json:"price_change_percent"`
	Support            datatypes.JSON `gorm:"type:jsonb" json:"support"`
	Resistance         datatypes.JSON `gorm:"type:jsonb" json:"resistance"`
	Payload            datatypes.JSON `gorm:"type:jsonb" json:"-"`
	AnalyzedAt         time.Time      `gorm:"not null" json:"analyzed_at"`
	CreatedAt          time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

func (AnalysisHistory) TableName() string {
	return "analysis_histories"
}

type GetAnalysisHistoryParam struct {
	Symbol string
	Limit  int
}
