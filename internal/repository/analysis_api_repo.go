package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"stock-analyzer/config"
	"stock-analyzer/internal/dto"
	"stock-analyzer/pkg/cache"
	"stock-analyzer/pkg/common"
	"stock-analyzer/pkg/httpclient"
	"stock-analyzer/pkg/logger"

	goValidator "github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	OperationAnalyze      = "analyze"
	OperationFundamentals = "fundamentals"
	OperationChat         = "chat"
	OperationHealth       = "health"
)

type AnalysisAPIRepository interface {
	Analyze(ctx context.Context, symbol, timeframe string) (*dto.AnalysisResult, error)
	Fundamentals(ctx context.Context, symbol string) (*dto.FundamentalsResult, error)
	Chat(ctx context.Context, message string, analysis *dto.AnalysisResult) (*dto.ChatResponse, error)
	Health(ctx context.Context) error
}

type analysisPayload struct {
	Symbol             string    `json:"symbol"`
	CurrentPrice       *float64  `json:"current_price" validate:"required,gte=0"`
	PriceChangePercent *float64  `json:"price_change_percent"`
	Support            []float64 `json:"support"`
	Resistance         []float64 `json:"resistance"`
	Timeframe          string    `json:"timeframe"`
	Signal             string    `json:"signal"`
	Confidence         *float64  `json:"confidence"`
}

type chatPayload struct {
	Response *string `json:"response" validate:"required"`
}

// analysisAPIRepository talks to the external analysis backend over HTTP.
type analysisAPIRepository struct {
	httpClient      httpclient.HTTPClient
	cfg             *config.Config
	logger          *logger.Logger
	validator       *goValidator.Validate
	requestLimiter  *rate.Limiter
	cache           cache.Cache
	fundamentalsTTL time.Duration
	group           singleflight.Group
}

func NewAnalysisAPIRepository(cfg *config.Config, log *logger.Logger, inmemoryCache cache.Cache) AnalysisAPIRepository {
	return newAnalysisAPIRepository(
		cfg,
		log,
		httpclient.New(log, cfg.Backend.BaseURL, cfg.Backend.Timeout, ""),
		inmemoryCache,
	)
}

func newAnalysisAPIRepository(cfg *config.Config, log *logger.Logger, httpClient httpclient.HTTPClient, inmemoryCache cache.Cache) *analysisAPIRepository {
	perRequest := time.Minute / time.Duration(cfg.Backend.MaxRequestPerMinute)

	return &analysisAPIRepository{
		httpClient:      httpClient,
		cfg:             cfg,
		logger:          log,
		validator:       goValidator.New(),
		requestLimiter:  rate.NewLimiter(rate.Every(perRequest), cfg.Backend.MaxRequestPerMinute),
		cache:           inmemoryCache,
		fundamentalsTTL: cfg.Cache.FundamentalsTTL,
	}
}

func (r *analysisAPIRepository) Analyze(ctx context.Context, symbol, timeframe string) (*dto.AnalysisResult, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s: failed to wait for request limit: %w", OperationAnalyze, err)
	}

	queryParams := map[string]string{
		"symbol": symbol,
		"tf":     timeframe,
	}

	resp, err := r.httpClient.Get(ctx, "/analyze", queryParams, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to fetch analysis for %s: %w", OperationAnalyze, symbol, err)
	}
	if err := r.checkStatus(ctx, OperationAnalyze, resp); err != nil {
		return nil, err
	}

	var payload analysisPayload
	if err := r.decode(OperationAnalyze, resp.Body, &payload); err != nil {
		r.logger.ErrorContext(ctx, "Analysis payload rejected",
			logger.StringField("symbol", symbol),
			logger.ErrorField(err))
		return nil, err
	}

	result := &dto.AnalysisResult{
		Symbol:       payload.Symbol,
		CurrentPrice: *payload.CurrentPrice,
		Support:      payload.Support,
		Resistance:   payload.Resistance,
		Timeframe:    payload.Timeframe,
		Signal:       payload.Signal,
		Confidence:   payload.Confidence,
		Raw:          append(json.RawMessage(nil), resp.Body...),
	}
	if result.Symbol == "" {
		result.Symbol = symbol
	}
	if payload.PriceChangePercent != nil {
		result.PriceChangePercent = *payload.PriceChangePercent
	}
	if result.Support == nil {
		result.Support = []float64{}
	}
	if result.Resistance == nil {
		result.Resistance = []float64{}
	}

	return result, nil
}

func (r *analysisAPIRepository) Fundamentals(ctx context.Context, symbol string) (*dto.FundamentalsResult, error) {
	key := fmt.Sprintf(common.KEY_FUNDAMENTALS, symbol)
	if cached, ok := cache.GetFromCache[*dto.FundamentalsResult](r.cache, key); ok {
		return cached.Clone(), nil
	}

	// The shared fetch runs detached; each caller only stops waiting on its own ctx.
	ch := r.group.DoChan(key, func() (interface{}, error) {
		fetchCtx, cancel := r.detachedContext(ctx)
		defer cancel()

		result, err := r.fetchFundamentals(fetchCtx, symbol)
		if err != nil {
			return nil, err
		}
		if r.cache != nil && r.fundamentalsTTL > 0 {
			r.cache.Set(key, result, r.fundamentalsTTL)
		}
		return result, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: gave up waiting for %s: %w", OperationFundamentals, symbol, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			r.logger.DebugContext(ctx, "Fundamentals fetch shared", logger.StringField("symbol", symbol))
		}
		return res.Val.(*dto.FundamentalsResult).Clone(), nil
	}
}

func (r *analysisAPIRepository) detachedContext(ctx context.Context) (context.Context, context.CancelFunc) {
	base := context.WithoutCancel(ctx)
	if r.cfg.Backend.Timeout > 0 {
		return context.WithTimeout(base, r.cfg.Backend.Timeout)
	}
	return context.WithCancel(base)
}

func (r *analysisAPIRepository) fetchFundamentals(ctx context.Context, symbol string) (*dto.FundamentalsResult, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s: failed to wait for request limit: %w", OperationFundamentals, err)
	}

	resp, err := r.httpClient.Get(ctx, "/fundamentals", map[string]string{"symbol": symbol}, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to fetch fundamentals for %s: %w", OperationFundamentals, symbol, err)
	}
	if err := r.checkStatus(ctx, OperationFundamentals, resp); err != nil {
		return nil, err
	}

	var result dto.FundamentalsResult
	if err := r.decode(OperationFundamentals, resp.Body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *analysisAPIRepository) Chat(ctx context.Context, message string, analysis *dto.AnalysisResult) (*dto.ChatResponse, error) {
	if analysis == nil {
		return nil, fmt.Errorf("%s: analysis is required", OperationChat)
	}
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s: failed to wait for request limit: %w", OperationChat, err)
	}

	body := dto.ChatRequest{
		Message:   message,
		StockData: analysis.StockData(),
	}

	resp, err := r.httpClient.Post(ctx, "/chat", body, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to send message: %w", OperationChat, err)
	}
	if err := r.checkStatus(ctx, OperationChat, resp); err != nil {
		return nil, err
	}

	var payload chatPayload
	if err := r.decode(OperationChat, resp.Body, &payload); err != nil {
		return nil, err
	}
	return &dto.ChatResponse{Response: *payload.Response}, nil
}

func (r *analysisAPIRepository) Health(ctx context.Context) error {
	resp, err := r.httpClient.Get(ctx, "/", nil, nil, nil)
	if err != nil {
		return fmt.Errorf("%s: backend unreachable: %w", OperationHealth, err)
	}
	return r.checkStatus(ctx, OperationHealth, resp)
}

func (r *analysisAPIRepository) checkStatus(ctx context.Context, operation string, resp *httpclient.BaseResponse) error {
	if resp.IsSuccess() {
		return nil
	}
	r.logger.ErrorContext(ctx, "Analysis backend returned Non-OK status",
		logger.StringField("operation", operation),
		logger.IntField("status_code", resp.StatusCode),
		logger.StringField("body", string(resp.Body)))
	return &APIError{
		Operation:  operation,
		StatusCode: resp.StatusCode,
		Detail:     parseDetail(resp.Body),
	}
}

func (r *analysisAPIRepository) decode(operation string, body []byte, dest interface{}) error {
	if err := json.Unmarshal(body, dest); err != nil {
		return &DecodeError{Operation: operation, Err: err}
	}
	if err := r.validator.Struct(dest); err != nil {
		return &DecodeError{Operation: operation, Err: err}
	}
	return nil
}
