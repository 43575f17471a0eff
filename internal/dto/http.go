package dto

import "net/http"

type BaseResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func NewBaseResponse(code int, message string, data interface{}) *BaseResponse {
	return &BaseResponse{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

func NewBadRequestResponse(message string) *BaseResponse {
	return NewBaseResponse(http.StatusBadRequest, message, nil)
}

func NewSuccessResponse(message string, data interface{}) *BaseResponse {
	return NewBaseResponse(http.StatusOK, message, data)
}

type AnalyzeRequest struct {
	Symbol    string `json:"symbol" validate:"required,max=32"`
	Timeframe string `json:"timeframe" validate:"omitempty,oneof=1m 5m 15m 30m 60m 240m 1d 1w 1M"`
}

type ChatMessageRequest struct {
	Message string `json:"message" validate:"required,max=4000"`
}

type HistoryRequest struct {
	Symbol string `query:"symbol" validate:"omitempty,max=32"`
	Limit  int    `query:"limit" validate:"omitempty,gte=1,lte=100"`
}

type SymbolsResponse struct {
	Popular    []string `json:"popular"`
	Timeframes []string `json:"timeframes"`
}

type HealthResponse struct {
	Service string `json:"service"`
	Backend string `json:"backend"`
}

type FundamentalsResponse struct {
	Fundamentals *FundamentalsResult  `json:"fundamentals"`
	Summary      *FundamentalsSummary `json:"summary"`
}

type ChatReplyResponse struct {
	Reply   ChatMessage  `json:"reply"`
	Session SessionState `json:"session"`
}
