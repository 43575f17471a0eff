package repository

import (
	"stock-analyzer/config"
	"stock-analyzer/pkg/cache"
	"stock-analyzer/pkg/logger"

	"gorm.io/gorm"
)

type Repository struct {
	AnalysisAPIRepo     AnalysisAPIRepository
	AnalysisHistoryRepo AnalysisHistoryRepository
}

// NewRepository wires the backend client and the history store. A nil db
// selects the no-op history store.
func NewRepository(cfg *config.Config, inmemoryCache cache.Cache, db *gorm.DB, log *logger.Logger) (*Repository, error) {
	return &Repository{
		AnalysisAPIRepo:     NewAnalysisAPIRepository(cfg, log, inmemoryCache),
		AnalysisHistoryRepo: NewAnalysisHistoryRepository(db),
	}, nil
}
