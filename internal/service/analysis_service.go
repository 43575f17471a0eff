package service

import (
	"context"
	"fmt"

	"stock-analyzer/config"
	"stock-analyzer/internal/dto"
	"stock-analyzer/internal/model"
	"stock-analyzer/internal/repository"
	"stock-analyzer/pkg/common"
	"stock-analyzer/pkg/logger"
	"stock-analyzer/pkg/utils"
)

const (
	BackendStatusUp   = "up"
	BackendStatusDown = "down"
)

// AnalysisService covers the session-independent reads.
type AnalysisService interface {
	Health(ctx context.Context) dto.HealthResponse
	History(ctx context.Context, param model.GetAnalysisHistoryParam) ([]model.AnalysisHistory, error)
	Symbols() dto.SymbolsResponse
}

type analysisService struct {
	cfg         *config.Config
	log         *logger.Logger
	analysisAPI repository.AnalysisAPIRepository
	historyRepo repository.AnalysisHistoryRepository
}

func NewAnalysisService(cfg *config.Config, log *logger.Logger, analysisAPI repository.AnalysisAPIRepository, historyRepo repository.AnalysisHistoryRepository) AnalysisService {
	return &analysisService{
		cfg:         cfg,
		log:         log,
		analysisAPI: analysisAPI,
		historyRepo: historyRepo,
	}
}

func (s *analysisService) Health(ctx context.Context) dto.HealthResponse {
	resp := dto.HealthResponse{Service: BackendStatusUp, Backend: BackendStatusUp}
	if err := s.analysisAPI.Health(ctx); err != nil {
		s.log.WarnContext(ctx, "Analysis backend unhealthy", logger.ErrorField(err))
		resp.Backend = BackendStatusDown
	}
	return resp
}

func (s *analysisService) History(ctx context.Context, param model.GetAnalysisHistoryParam) ([]model.AnalysisHistory, error) {
	param.Symbol = utils.NormalizeSymbol(param.Symbol)

	histories, err := s.historyRepo.List(ctx, param)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to list analysis history",
			logger.StringField("symbol", param.Symbol),
			logger.ErrorField(err))
		return nil, fmt.Errorf("failed to list analysis history: %w", err)
	}
	return histories, nil
}

func (s *analysisService) Symbols() dto.SymbolsResponse {
	return dto.SymbolsResponse{
		Popular:    common.GetPopularSymbolList(),
		Timeframes: common.GetTimeframeList(),
	}
}
