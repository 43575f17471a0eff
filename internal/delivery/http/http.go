package http

import (
	"context"

	"stock-analyzer/config"
	"stock-analyzer/internal/service"
	"stock-analyzer/pkg/logger"
	"stock-analyzer/pkg/middleware"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type HttpAPIHandler struct {
	cfg       *config.Config
	log       *logger.Logger
	echo      *echo.Echo
	validator *goValidator.Validate
	service   *service.Service
}

func NewHttpAPIHandler(ctx context.Context, cfg *config.Config, log *logger.Logger, echo *echo.Echo, validator *goValidator.Validate, service *service.Service) *HttpAPIHandler {
	return &HttpAPIHandler{
		cfg:       cfg,
		log:       log,
		echo:      echo,
		validator: validator,
		service:   service,
	}
}

func (h *HttpAPIHandler) SetupRoutes() {
	base := h.echo.Group("/api")
	if h.cfg.API.MaxRequestPerSecond > 0 {
		base.Use(middleware.NewRateLimiterMiddleware(h.cfg.API))
	}
	h.SetupAnalysis(base)
	h.SetupSessions(base)
}
