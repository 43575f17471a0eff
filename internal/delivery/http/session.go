package http

import (
	"errors"
	"net/http"

	"stock-analyzer/internal/dto"
	"stock-analyzer/internal/helper"
	"stock-analyzer/internal/service"
	"stock-analyzer/pkg/logger"

	"github.com/labstack/echo/v4"
)

const msgAnalyzeFirst = "Analyze a stock before asking questions about it"

func (h *HttpAPIHandler) SetupSessions(base *echo.Group) {
	sessions := base.Group("/v1/sessions")
	{
		sessions.POST("", h.CreateSession)
		sessions.GET("/:id", h.GetSession)
		sessions.DELETE("/:id", h.DeleteSession)
		sessions.POST("/:id/analyze", h.Analyze)
		sessions.POST("/:id/fundamentals", h.Fundamentals)
		sessions.POST("/:id/chat", h.Chat)
	}
}

func (h *HttpAPIHandler) CreateSession(c echo.Context) error {
	session := h.service.SessionManager.Create()
	response := dto.NewBaseResponse(http.StatusCreated, "session created", session.Snapshot())
	return c.JSON(response.Code, response)
}

func (h *HttpAPIHandler) GetSession(c echo.Context) error {
	session, ok := h.session(c)
	if !ok {
		return h.notFound(c)
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("ok", session.Snapshot()))
}

func (h *HttpAPIHandler) DeleteSession(c echo.Context) error {
	if err := h.service.SessionManager.Delete(c.Param("id")); err != nil {
		return h.notFound(c)
	}
	return c.JSON(http.StatusOK, dto.NewSuccessResponse("session deleted", nil))
}

func (h *HttpAPIHandler) Analyze(c echo.Context) error {
	session, ok := h.session(c)
	if !ok {
		return h.notFound(c)
	}

	req := new(dto.AnalyzeRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid request body"))
	}
	if err := h.validator.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(err.Error()))
	}

	state, err := session.RequestAnalysis(c.Request().Context(), req.Symbol, req.Timeframe)
	var validationErr *service.ValidationError
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, dto.NewSuccessResponse("analysis completed", state))
	case errors.As(err, &validationErr):
		return c.JSON(http.StatusBadRequest, dto.NewBaseResponse(http.StatusBadRequest, state.Error, state))
	case errors.Is(err, service.ErrSuperseded):
		return c.JSON(http.StatusConflict, dto.NewBaseResponse(http.StatusConflict, err.Error(), state))
	default:
		return c.JSON(http.StatusBadGateway, dto.NewBaseResponse(http.StatusBadGateway, state.Error, state))
	}
}

func (h *HttpAPIHandler) Fundamentals(c echo.Context) error {
	session, ok := h.session(c)
	if !ok {
		return h.notFound(c)
	}

	symbol := session.Snapshot().Symbol
	if symbol == "" {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(helper.MissingSymbolMessage))
	}

	err := session.RequestFundamentals(c.Request().Context(), symbol)
	switch {
	case err == nil:
		fundamentals := session.Snapshot().Fundamentals
		return c.JSON(http.StatusOK, dto.NewSuccessResponse("ok", dto.FundamentalsResponse{
			Fundamentals: fundamentals,
			Summary:      helper.SummarizeFundamentals(fundamentals),
		}))
	case errors.Is(err, service.ErrSuperseded):
		return c.JSON(http.StatusConflict, dto.NewBaseResponse(http.StatusConflict, err.Error(), nil))
	default:
		return c.JSON(http.StatusBadGateway, dto.NewBaseResponse(http.StatusBadGateway, "fundamentals unavailable", nil))
	}
}

func (h *HttpAPIHandler) Chat(c echo.Context) error {
	session, ok := h.session(c)
	if !ok {
		return h.notFound(c)
	}

	req := new(dto.ChatMessageRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid request body"))
	}
	if err := h.validator.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(err.Error()))
	}

	reply, err := session.SendChatMessage(c.Request().Context(), req.Message)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, dto.NewSuccessResponse("ok", dto.ChatReplyResponse{
			Reply:   *reply,
			Session: session.Snapshot(),
		}))
	case errors.Is(err, service.ErrChatSkipped):
		return c.JSON(http.StatusConflict, dto.NewBaseResponse(http.StatusConflict, msgAnalyzeFirst, nil))
	default:
		return c.JSON(http.StatusConflict, dto.NewBaseResponse(http.StatusConflict, err.Error(), session.Snapshot()))
	}
}

func (h *HttpAPIHandler) session(c echo.Context) (*service.SessionController, bool) {
	session, err := h.service.SessionManager.Get(c.Param("id"))
	if err != nil {
		h.log.DebugContext(c.Request().Context(), "Unknown session", logger.StringField("session_id", c.Param("id")))
		return nil, false
	}
	return session, true
}

func (h *HttpAPIHandler) notFound(c echo.Context) error {
	return c.JSON(http.StatusNotFound, dto.NewBaseResponse(http.StatusNotFound, service.ErrSessionNotFound.Error(), nil))
}
