package http

import (
	"net/http"

	"stock-analyzer/internal/dto"
	"stock-analyzer/internal/model"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupAnalysis(base *echo.Group) {
	v1 := base.Group("/v1")
	{
		v1.GET("/health", h.Health)
		v1.GET("/symbols", h.Symbols)
		v1.GET("/history", h.History)
	}
}

func (h *HttpAPIHandler) Health(c echo.Context) error {
	health := h.service.AnalysisService.Health(c.Request().Context())
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("ok", health))
}

func (h *HttpAPIHandler) Symbols(c echo.Context) error {
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("ok", h.service.AnalysisService.Symbols()))
}

func (h *HttpAPIHandler) History(c echo.Context) error {
	req := new(dto.HistoryRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid query parameters"))
	}
	if err := h.validator.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(err.Error()))
	}

	histories, err := h.service.AnalysisService.History(c.Request().Context(), model.GetAnalysisHistoryParam{
		Symbol: req.Symbol,
		Limit:  req.Limit,
	})
	if err != nil {
		response := dto.NewBaseResponse(http.StatusInternalServerError, "failed to load analysis history", nil)
		return c.JSON(response.Code, response)
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("ok", histories))
}
