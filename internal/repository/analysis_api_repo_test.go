package repository

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"stock-analyzer/config"
	"stock-analyzer/internal/dto"
	"stock-analyzer/internal/model"
	"stock-analyzer/pkg/cache"
	"stock-analyzer/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T, handler http.HandlerFunc) AnalysisAPIRepository {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		Backend: config.Backend{BaseURL: srv.URL, Timeout: 5 * time.Second, MaxRequestPerMinute: 600},
		Cache:   config.Cache{FundamentalsTTL: time.Minute},
	}
	return NewAnalysisAPIRepository(cfg, logger.NewNop(), cache.NewCache(time.Minute, time.Minute))
}

func TestAnalysisAPIRepository_Analyze(t *testing.T) {
	var gotQuery string
	repo := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/analyze", r.URL.Path)
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"symbol":"RELIANCE","current_price":2500,"price_change_percent":1.2,"support":[2400,2350],"resistance":[2600],"signal":"bullish_breakout"}`)
	})

	result, err := repo.Analyze(context.Background(), "RELIANCE", "30m")
	require.NoError(t, err)

	assert.Equal(t, "symbol=RELIANCE&tf=30m", gotQuery)
	assert.Equal(t, "RELIANCE", result.Symbol)
	assert.Equal(t, 2500.0, result.CurrentPrice)
	assert.Equal(t, 1.2, result.PriceChangePercent)
	assert.Equal(t, []float64{2400, 2350}, result.Support)
	assert.Equal(t, []float64{2600}, result.Resistance)
	assert.Equal(t, "bullish_breakout", result.Signal)
	assert.JSONEq(t, string(result.Raw), string(result.StockData()))
}

func TestAnalysisAPIRepository_Analyze_Failures(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantDetail string
		wantDecode bool
	}{
		{
			name:       "string detail",
			status:     http.StatusNotFound,
			body:       `{"detail":"No data found for XYZ"}`,
			wantDetail: "No data found for XYZ",
		},
		{
			name:       "structured detail",
			status:     http.StatusUnprocessableEntity,
			body:       `{"detail":[{"loc":["query","symbol"],"msg":"field required"}]}`,
			wantDetail: `[{"loc":["query","symbol"],"msg":"field required"}]`,
		},
		{
			name:   "no detail",
			status: http.StatusInternalServerError,
			body:   `Internal Server Error`,
		},
		{
			name:       "negative current price",
			status:     http.StatusOK,
			body:       `{"symbol":"XYZ","current_price":-1}`,
			wantDecode: true,
		},
		{
			name:       "missing current price",
			status:     http.StatusOK,
			body:       `{"symbol":"XYZ","support":[],"resistance":[]}`,
			wantDecode: true,
		},
		{
			name:       "not json",
			status:     http.StatusOK,
			body:       `<html></html>`,
			wantDecode: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := repo.Analyze(context.Background(), "XYZ", "1d")
			require.Error(t, err)

			var decodeErr *DecodeError
			assert.Equal(t, tt.wantDecode, errors.As(err, &decodeErr))
			assert.Equal(t, tt.wantDetail, ErrorDetail(err))
		})
	}
}

func TestAnalysisAPIRepository_Analyze_NullLevels(t *testing.T) {
	repo := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"current_price":100.5,"support":null}`)
	})

	result, err := repo.Analyze(context.Background(), "TCS", "1d")
	require.NoError(t, err)
	assert.Equal(t, "TCS", result.Symbol)
	assert.Empty(t, result.Support)
	assert.NotNil(t, result.Resistance)
}

func TestAnalysisAPIRepository_Fundamentals_Cached(t *testing.T) {
	var calls int32
	repo := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/fundamentals", r.URL.Path)
		assert.Equal(t, "INFY", r.URL.Query().Get("symbol"))
		_, _ = io.WriteString(w, `{"company_name":"Infosys","pe_ratio":24.5,"peers":["TCS","WIPRO"]}`)
	})

	first, err := repo.Fundamentals(context.Background(), "INFY")
	require.NoError(t, err)
	assert.Equal(t, "Infosys", first.CompanyName)
	assert.Equal(t, 24.5, first.PERatio)

	first.Peers[0] = "mutated"

	second, err := repo.Fundamentals(context.Background(), "INFY")
	require.NoError(t, err)
	assert.Equal(t, []string{"TCS", "WIPRO"}, second.Peers)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestAnalysisAPIRepository_Fundamentals_FailureNotCached(t *testing.T) {
	var calls int32
	repo := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := repo.Fundamentals(context.Background(), "INFY")
	require.Error(t, err)
	_, err = repo.Fundamentals(context.Background(), "INFY")
	require.Error(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestAnalysisAPIRepository_Chat(t *testing.T) {
	var got map[string]json.RawMessage
	repo := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"response":"The trend is up."}`)
	})

	analysis := &dto.AnalysisResult{
		Symbol:       "RELIANCE",
		CurrentPrice: 2500,
		Raw:          json.RawMessage(`{"symbol":"RELIANCE","current_price":2500,"extra":true}`),
	}
	resp, err := repo.Chat(context.Background(), "What is the trend?", analysis)
	require.NoError(t, err)

	assert.Equal(t, "The trend is up.", resp.Response)
	assert.JSONEq(t, `"What is the trend?"`, string(got["message"]))
	assert.JSONEq(t, `{"symbol":"RELIANCE","current_price":2500,"extra":true}`, string(got["stock_data"]))
}

func TestAnalysisAPIRepository_Chat_MissingResponse(t *testing.T) {
	repo := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"answer":"wrong key"}`)
	})

	_, err := repo.Chat(context.Background(), "hi", &dto.AnalysisResult{Symbol: "TCS", CurrentPrice: 1})
	var decodeErr *DecodeError
	assert.ErrorAs(t, err, &decodeErr)
}

func TestAnalysisAPIRepository_Health(t *testing.T) {
	healthy := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/", r.URL.Path)
		_, _ = io.WriteString(w, `{"status":"ok"}`)
	})
	assert.NoError(t, healthy.Health(context.Background()))

	down := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	assert.Error(t, down.Health(context.Background()))
}

func TestNewAnalysisHistory(t *testing.T) {
	result := &dto.AnalysisResult{
		Symbol:       "TCS",
		CurrentPrice: 3500,
		Support:      []float64{3400},
		Resistance:   []float64{3600, 3700},
	}

	history, err := NewAnalysisHistory("session-1", "1d", result)
	require.NoError(t, err)

	assert.Equal(t, "session-1", history.SessionID)
	assert.Equal(t, "TCS", history.Symbol)
	assert.JSONEq(t, `[3400]`, string(history.Support))
	assert.JSONEq(t, `[3600,3700]`, string(history.Resistance))
	assert.False(t, history.AnalyzedAt.IsZero())
}

func TestNoopAnalysisHistoryRepository(t *testing.T) {
	repo := NewAnalysisHistoryRepository(nil)
	assert.NoError(t, repo.Create(context.Background(), nil))

	list, err := repo.List(context.Background(), model.GetAnalysisHistoryParam{Symbol: "TCS"})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAnalysisAPIRepository_Fundamentals_CancelledCallerDoesNotFailOthers(t *testing.T) {
	var calls int32
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	repo := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		started <- struct{}{}
		<-release
		_, _ = io.WriteString(w, `{"company_name":"Reliance Industries","peers":["TCS"]}`)
	})

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := repo.Fundamentals(ctxA, "RELIANCE")
		errA <- err
	}()

	<-started
	cancelA()
	assert.ErrorIs(t, <-errA, context.Canceled)

	type outcome struct {
		result *dto.FundamentalsResult
		err    error
	}
	doneB := make(chan outcome, 1)
	go func() {
		result, err := repo.Fundamentals(context.Background(), "RELIANCE")
		doneB <- outcome{result: result, err: err}
	}()
	close(release)

	b := <-doneB
	require.NoError(t, b.err)
	assert.Equal(t, "Reliance Industries", b.result.CompanyName)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestAnalysisAPIRepository_Analyze_ZeroPrice(t *testing.T) {
	repo := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"symbol":"NEWIPO","current_price":0}`)
	})

	result, err := repo.Analyze(context.Background(), "NEWIPO", "1d")
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.CurrentPrice)
}
