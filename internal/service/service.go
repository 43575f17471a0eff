package service

import (
	"stock-analyzer/config"
	"stock-analyzer/internal/repository"
	"stock-analyzer/pkg/logger"
)

type Service struct {
	SessionManager  SessionManager
	SessionJanitor  SessionJanitor
	AnalysisService AnalysisService
}

func NewService(
	cfg *config.Config,
	log *logger.Logger,
	repo *repository.Repository,
) (*Service, error) {
	sessionManager := NewSessionManager(cfg, log, repo)
	janitor, err := NewSessionJanitor(cfg, log, sessionManager)
	if err != nil {
		return nil, err
	}

	return &Service{
		SessionManager:  sessionManager,
		SessionJanitor:  janitor,
		AnalysisService: NewAnalysisService(cfg, log, repo.AnalysisAPIRepo, repo.AnalysisHistoryRepo),
	}, nil
}
