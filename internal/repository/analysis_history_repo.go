package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"stock-analyzer/internal/dto"
	"stock-analyzer/internal/model"
	"stock-analyzer/pkg/utils"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const defaultHistoryLimit = 10

type AnalysisHistoryRepository interface {
	Create(ctx context.Context, history *model.AnalysisHistory) error
	List(ctx context.Context, param model.GetAnalysisHistoryParam) ([]model.AnalysisHistory, error)
}

type analysisHistoryRepository struct {
	db *gorm.DB
}

func NewAnalysisHistoryRepository(db *gorm.DB) AnalysisHistoryRepository {
	if db == nil {
		return noopAnalysisHistoryRepository{}
	}
	return &analysisHistoryRepository{db: db}
}

func (r *analysisHistoryRepository) Create(ctx context.Context, history *model.AnalysisHistory) error {
	return r.db.WithContext(ctx).Create(history).Error
}

func (r *analysisHistoryRepository) List(ctx context.Context, param model.GetAnalysisHistoryParam) ([]model.AnalysisHistory, error) {
	limit := param.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	var histories []model.AnalysisHistory
	opts := []utils.DBOption{}
	if param.Symbol != "" {
		opts = append(opts, utils.WithWhere("symbol = ?", param.Symbol))
	}

	err := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Order("analyzed_at DESC").
		Limit(limit).
		Find(&histories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list analysis history: %w", err)
	}
	return histories, nil
}

// noopAnalysisHistoryRepository is used when no database is configured.
type noopAnalysisHistoryRepository struct{}

func (noopAnalysisHistoryRepository) Create(context.Context, *model.AnalysisHistory) error {
	return nil
}

func (noopAnalysisHistoryRepository) List(context.Context, model.GetAnalysisHistoryParam) ([]model.AnalysisHistory, error) {
	return []model.AnalysisHistory{}, nil
}

// NewAnalysisHistory maps a backend result onto its history row.
func NewAnalysisHistory(sessionID, timeframe string, result *dto.AnalysisResult) (*model.AnalysisHistory, error) {
	support, err := json.Marshal(result.Support)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal support levels: %w", err)
	}
	resistance, err := json.Marshal(result.Resistance)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resistance levels: %w", err)
	}

	return &model.AnalysisHistory{
		SessionID:          sessionID,
		Symbol:             result.Symbol,
		Timeframe:          timeframe,
		CurrentPrice:       result.CurrentPrice,
		PriceChangePercent: result.PriceChangePercent,
		Support:            datatypes.JSON(support),
		Resistance:         datatypes.JSON(resistance),
		Payload:            datatypes.JSON(result.StockData()),
		AnalyzedAt:         utils.TimeNowIST(),
	}, nil
}
