package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"stock-analyzer/internal/dto"
	"stock-analyzer/internal/helper"
	"stock-analyzer/internal/model"
	"stock-analyzer/internal/repository"
	"stock-analyzer/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAnalysisAPI struct {
	mock.Mock
}

func (m *mockAnalysisAPI) Analyze(ctx context.Context, symbol, timeframe string) (*dto.AnalysisResult, error) {
	args := m.Called(ctx, symbol, timeframe)
	result, _ := args.Get(0).(*dto.AnalysisResult)
	return result, args.Error(1)
}

func (m *mockAnalysisAPI) Fundamentals(ctx context.Context, symbol string) (*dto.FundamentalsResult, error) {
	args := m.Called(ctx, symbol)
	result, _ := args.Get(0).(*dto.FundamentalsResult)
	return result, args.Error(1)
}

func (m *mockAnalysisAPI) Chat(ctx context.Context, message string, analysis *dto.AnalysisResult) (*dto.ChatResponse, error) {
	args := m.Called(ctx, message, analysis)
	result, _ := args.Get(0).(*dto.ChatResponse)
	return result, args.Error(1)
}

func (m *mockAnalysisAPI) Health(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type recordingHistoryRepo struct {
	mu      sync.Mutex
	created []*model.AnalysisHistory
}

func (r *recordingHistoryRepo) Create(_ context.Context, history *model.AnalysisHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, history)
	return nil
}

func (r *recordingHistoryRepo) List(context.Context, model.GetAnalysisHistoryParam) ([]model.AnalysisHistory, error) {
	return nil, nil
}

func newTestSession(api repository.AnalysisAPIRepository, history repository.AnalysisHistoryRepository) *SessionController {
	return NewSessionController("test-session", SessionOptions{ChartPoints: 60, RequestTimeout: 5 * time.Second}, logger.NewNop(), api, history)
}

func relianceResult() *dto.AnalysisResult {
	return &dto.AnalysisResult{
		Symbol:       "RELIANCE",
		CurrentPrice: 2500,
		Support:      []float64{2400},
		Resistance:   []float64{2600},
	}
}

func TestRequestAnalysis_NormalizesSymbolAndCallsOnce(t *testing.T) {
	api := &mockAnalysisAPI{}
	api.On("Analyze", mock.Anything, "RELIANCE", "1d").Return(relianceResult(), nil).Once()
	api.On("Fundamentals", mock.Anything, "RELIANCE").Return(nil, errors.New("unavailable"))

	session := newTestSession(api, nil)
	defer session.Close()

	state, err := session.RequestAnalysis(context.Background(), "  reliance ", "")
	require.NoError(t, err)
	session.Wait()

	assert.Equal(t, "RELIANCE", state.Symbol)
	assert.Equal(t, "1d", state.Timeframe)
	api.AssertNumberOfCalls(t, "Analyze", 1)
	api.AssertExpectations(t)
}

func TestRequestAnalysis_EmptySymbol(t *testing.T) {
	tests := []string{"", "   ", "\t"}
	for _, symbol := range tests {
		api := &mockAnalysisAPI{}
		session := newTestSession(api, nil)

		state, err := session.RequestAnalysis(context.Background(), symbol, "1d")

		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "symbol", validationErr.Field)
		assert.Equal(t, helper.MissingSymbolMessage, state.Error)
		assert.False(t, state.Loading.Analysis)
		api.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything, mock.Anything)
		session.Close()
	}
}

func TestRequestAnalysis_Success(t *testing.T) {
	api := &mockAnalysisAPI{}
	api.On("Analyze", mock.Anything, "RELIANCE", "1d").Return(relianceResult(), nil)
	api.On("Fundamentals", mock.Anything, "RELIANCE").Return(&dto.FundamentalsResult{CompanyName: "Reliance Industries"}, nil)

	history := &recordingHistoryRepo{}
	session := newTestSession(api, history)
	defer session.Close()

	state, err := session.RequestAnalysis(context.Background(), "RELIANCE", "1d")
	require.NoError(t, err)

	require.Len(t, state.Chart, 60)
	assert.Equal(t, 2500.0, state.Chart[59].Price)
	assert.Equal(t, helper.GenerateChartPoints("RELIANCE", 2500, 60), state.Chart)

	require.NotNil(t, state.Analysis)
	assert.Equal(t, []float64{2400}, state.Analysis.Support)
	assert.Equal(t, []float64{2600}, state.Analysis.Resistance)

	require.Len(t, state.Chat, 1)
	assert.Equal(t, dto.RoleAssistant, state.Chat[0].Role)
	assert.Contains(t, state.Chat[0].Content, "2500.00")

	assert.False(t, state.Loading.Analysis)
	assert.Empty(t, state.Error)

	session.Wait()
	final := session.Snapshot()
	require.NotNil(t, final.Fundamentals)
	assert.Equal(t, "Reliance Industries", final.Fundamentals.CompanyName)
	assert.False(t, final.Loading.Fundamentals)

	history.mu.Lock()
	defer history.mu.Unlock()
	require.Len(t, history.created, 1)
	assert.Equal(t, "test-session", history.created[0].SessionID)
	assert.Equal(t, "RELIANCE", history.created[0].Symbol)
}

func TestRequestAnalysis_FailureKeepsChat(t *testing.T) {
	api := &mockAnalysisAPI{}
	api.On("Analyze", mock.Anything, "RELIANCE", "1d").Return(relianceResult(), nil).Once()
	api.On("Fundamentals", mock.Anything, "RELIANCE").Return(&dto.FundamentalsResult{CompanyName: "Reliance"}, nil)
	api.On("Chat", mock.Anything, "Is it bullish?", mock.Anything).Return(&dto.ChatResponse{Response: "Mildly."}, nil)
	api.On("Analyze", mock.Anything, "XYZ", "1d").
		Return(nil, &repository.APIError{Operation: repository.OperationAnalyze, StatusCode: 404, Detail: "No data found for XYZ"}).Once()
	api.On("Analyze", mock.Anything, "ABC", "1d").Return(nil, errors.New("connection refused")).Once()

	session := newTestSession(api, nil)
	defer session.Close()

	_, err := session.RequestAnalysis(context.Background(), "RELIANCE", "1d")
	require.NoError(t, err)
	session.Wait()
	_, err = session.SendChatMessage(context.Background(), "Is it bullish?")
	require.NoError(t, err)
	before := session.Snapshot().Chat
	require.Len(t, before, 3)

	state, err := session.RequestAnalysis(context.Background(), "XYZ", "1d")
	var fetchErr *AnalysisFetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "XYZ", fetchErr.Symbol)
	assert.Equal(t, "No data found for XYZ", state.Error)
	assert.Equal(t, before, state.Chat)
	assert.Nil(t, state.Analysis)
	assert.Nil(t, state.Fundamentals)
	assert.Empty(t, state.Chart)
	assert.False(t, state.Loading.Analysis)

	state, err = session.RequestAnalysis(context.Background(), "ABC", "1d")
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, helper.AnalysisFailedMessage, state.Error)
	assert.Equal(t, before, state.Chat)
}

func TestRequestAnalysis_ErrorClearedOnNextAttempt(t *testing.T) {
	api := &mockAnalysisAPI{}
	api.On("Analyze", mock.Anything, "XYZ", "1d").Return(nil, errors.New("boom")).Once()

	started := make(chan struct{})
	release := make(chan struct{})
	api.On("Analyze", mock.Anything, "RELIANCE", "1d").Run(func(mock.Arguments) {
		close(started)
		<-release
	}).Return(relianceResult(), nil).Once()
	api.On("Fundamentals", mock.Anything, "RELIANCE").Return(nil, errors.New("unavailable"))

	session := newTestSession(api, nil)
	defer session.Close()

	_, err := session.RequestAnalysis(context.Background(), "XYZ", "1d")
	require.Error(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = session.RequestAnalysis(context.Background(), "RELIANCE", "1d")
	}()

	<-started
	inFlight := session.Snapshot()
	assert.Empty(t, inFlight.Error)
	assert.True(t, inFlight.Loading.Analysis)
	assert.True(t, session.Busy())

	close(release)
	<-done
	session.Wait()
}

func TestRequestAnalysis_StaleResultDiscarded(t *testing.T) {
	api := &mockAnalysisAPI{}

	started := make(chan struct{})
	release := make(chan struct{})
	var firstCtxErr error
	api.On("Analyze", mock.Anything, "AAA", "1d").Run(func(args mock.Arguments) {
		close(started)
		<-release
		firstCtxErr = args.Get(0).(context.Context).Err()
	}).Return(&dto.AnalysisResult{Symbol: "AAA", CurrentPrice: 10}, nil).Once()
	api.On("Analyze", mock.Anything, "BBB", "1d").Return(&dto.AnalysisResult{Symbol: "BBB", CurrentPrice: 20}, nil).Once()
	api.On("Fundamentals", mock.Anything, "BBB").Return(nil, errors.New("unavailable"))

	session := newTestSession(api, nil)
	defer session.Close()

	var firstErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, firstErr = session.RequestAnalysis(context.Background(), "AAA", "1d")
	}()

	<-started
	state, err := session.RequestAnalysis(context.Background(), "BBB", "1d")
	require.NoError(t, err)
	assert.Equal(t, "BBB", state.Analysis.Symbol)

	close(release)
	<-done
	session.Wait()

	assert.ErrorIs(t, firstErr, ErrSuperseded)
	assert.ErrorIs(t, firstCtxErr, context.Canceled)

	final := session.Snapshot()
	assert.Equal(t, "BBB", final.Symbol)
	assert.Equal(t, "BBB", final.Analysis.Symbol)
	assert.Equal(t, 20.0, final.Chart[len(final.Chart)-1].Price)
	assert.False(t, final.Loading.Analysis)
	api.AssertNotCalled(t, "Fundamentals", mock.Anything, "AAA")
}

func TestRequestAnalysis_Timeout(t *testing.T) {
	api := &mockAnalysisAPI{}
	api.On("Analyze", mock.Anything, "SLOW", "1d").Run(func(args mock.Arguments) {
		<-args.Get(0).(context.Context).Done()
	}).Return(nil, context.DeadlineExceeded)

	session := NewSessionController("slow", SessionOptions{ChartPoints: 60, RequestTimeout: 20 * time.Millisecond}, logger.NewNop(), api, nil)
	defer session.Close()

	state, err := session.RequestAnalysis(context.Background(), "SLOW", "1d")

	var fetchErr *AnalysisFetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, state.Loading.Analysis)
	assert.Equal(t, helper.AnalysisFailedMessage, state.Error)
}

func TestRequestFundamentals_SoftFail(t *testing.T) {
	api := &mockAnalysisAPI{}
	api.On("Analyze", mock.Anything, "RELIANCE", "1d").Return(relianceResult(), nil)
	api.On("Fundamentals", mock.Anything, "RELIANCE").
		Return(nil, &repository.APIError{Operation: repository.OperationFundamentals, StatusCode: 500})

	session := newTestSession(api, nil)
	defer session.Close()

	_, err := session.RequestAnalysis(context.Background(), "RELIANCE", "1d")
	require.NoError(t, err)
	session.Wait()

	err = session.RequestFundamentals(context.Background(), "reliance")
	var fetchErr *FundamentalsFetchError
	require.ErrorAs(t, err, &fetchErr)

	state := session.Snapshot()
	assert.Empty(t, state.Error)
	assert.NotNil(t, state.Analysis)
	assert.Nil(t, state.Fundamentals)
	assert.Len(t, state.Chart, 60)
	assert.False(t, state.Loading.Fundamentals)
}

func TestRequestFundamentals_EmptySymbol(t *testing.T) {
	api := &mockAnalysisAPI{}
	session := newTestSession(api, nil)
	defer session.Close()

	var validationErr *ValidationError
	assert.ErrorAs(t, session.RequestFundamentals(context.Background(), " "), &validationErr)
	api.AssertNotCalled(t, "Fundamentals", mock.Anything, mock.Anything)
}

func TestSendChatMessage_Skipped(t *testing.T) {
	api := &mockAnalysisAPI{}
	session := newTestSession(api, nil)
	defer session.Close()

	msg, err := session.SendChatMessage(context.Background(), "What is the trend?")
	assert.Nil(t, msg)
	assert.ErrorIs(t, err, ErrChatSkipped)
	assert.Empty(t, session.Snapshot().Chat)

	api.On("Analyze", mock.Anything, "RELIANCE", "1d").Return(relianceResult(), nil)
	api.On("Fundamentals", mock.Anything, "RELIANCE").Return(nil, errors.New("unavailable"))
	_, err = session.RequestAnalysis(context.Background(), "RELIANCE", "1d")
	require.NoError(t, err)
	session.Wait()

	for _, text := range []string{"", "   ", "\n"} {
		_, err = session.SendChatMessage(context.Background(), text)
		assert.ErrorIs(t, err, ErrChatSkipped)
	}
	assert.Len(t, session.Snapshot().Chat, 1)
	api.AssertNotCalled(t, "Chat", mock.Anything, mock.Anything, mock.Anything)
}

func TestSendChatMessage_Order(t *testing.T) {
	api := &mockAnalysisAPI{}
	api.On("Analyze", mock.Anything, "RELIANCE", "1d").Return(relianceResult(), nil)
	api.On("Fundamentals", mock.Anything, "RELIANCE").Return(nil, errors.New("unavailable"))

	session := newTestSession(api, nil)
	defer session.Close()

	_, err := session.RequestAnalysis(context.Background(), "RELIANCE", "1d")
	require.NoError(t, err)
	session.Wait()

	var duringCall dto.SessionState
	api.On("Chat", mock.Anything, "What is the trend?", mock.MatchedBy(func(a *dto.AnalysisResult) bool {
		return a.Symbol == "RELIANCE" && a.CurrentPrice == 2500
	})).Run(func(mock.Arguments) {
		duringCall = session.Snapshot()
	}).Return(&dto.ChatResponse{Response: "The trend is up."}, nil)

	reply, err := session.SendChatMessage(context.Background(), "What is the trend?")
	require.NoError(t, err)
	assert.Equal(t, "The trend is up.", reply.Content)

	require.Len(t, duringCall.Chat, 2)
	assert.Equal(t, dto.ChatMessage{Role: dto.RoleUser, Content: "What is the trend?"}, duringCall.Chat[1])
	assert.True(t, duringCall.Loading.Chat)

	state := session.Snapshot()
	require.Len(t, state.Chat, 3)
	assert.Equal(t, dto.RoleUser, state.Chat[1].Role)
	assert.Equal(t, dto.ChatMessage{Role: dto.RoleAssistant, Content: "The trend is up."}, state.Chat[2])
	assert.False(t, state.Loading.Chat)
}

func TestSendChatMessage_FailureBecomesApology(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{
			name:    "backend detail",
			err:     &repository.APIError{Operation: repository.OperationChat, StatusCode: 500, Detail: "model overloaded"},
			wantMsg: "Sorry, I encountered an error: model overloaded. Please make sure the backend is running.",
		},
		{
			name:    "transport error",
			err:     errors.New("connection refused"),
			wantMsg: "Sorry, I encountered an error: connection refused. Please make sure the backend is running.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &mockAnalysisAPI{}
			api.On("Analyze", mock.Anything, "RELIANCE", "1d").Return(relianceResult(), nil)
			api.On("Fundamentals", mock.Anything, "RELIANCE").Return(nil, errors.New("unavailable"))
			api.On("Chat", mock.Anything, "hi", mock.Anything).Return(nil, tt.err)

			session := newTestSession(api, nil)
			defer session.Close()

			_, err := session.RequestAnalysis(context.Background(), "RELIANCE", "1d")
			require.NoError(t, err)

			reply, err := session.SendChatMessage(context.Background(), "hi")
			require.NoError(t, err)
			assert.Equal(t, dto.RoleAssistant, reply.Role)
			assert.Equal(t, tt.wantMsg, reply.Content)

			state := session.Snapshot()
			require.Len(t, state.Chat, 3)
			assert.Equal(t, tt.wantMsg, state.Chat[2].Content)
			assert.Empty(t, state.Error)
		})
	}
}

func TestSendChatMessage_ReplyDroppedAfterReset(t *testing.T) {
	api := &mockAnalysisAPI{}
	api.On("Analyze", mock.Anything, "RELIANCE", "1d").Return(relianceResult(), nil)
	api.On("Analyze", mock.Anything, "TCS", "1d").Return(&dto.AnalysisResult{Symbol: "TCS", CurrentPrice: 3500}, nil)
	api.On("Fundamentals", mock.Anything, mock.Anything).Return(nil, errors.New("unavailable"))

	started := make(chan struct{})
	release := make(chan struct{})
	api.On("Chat", mock.Anything, "still there?", mock.Anything).Run(func(mock.Arguments) {
		close(started)
		<-release
	}).Return(&dto.ChatResponse{Response: "late"}, nil)

	session := newTestSession(api, nil)
	defer session.Close()

	_, err := session.RequestAnalysis(context.Background(), "RELIANCE", "1d")
	require.NoError(t, err)

	var chatErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, chatErr = session.SendChatMessage(context.Background(), "still there?")
	}()

	<-started
	_, err = session.RequestAnalysis(context.Background(), "TCS", "1d")
	require.NoError(t, err)

	close(release)
	<-done
	session.Wait()

	assert.ErrorIs(t, chatErr, ErrSuperseded)
	state := session.Snapshot()
	require.Len(t, state.Chat, 1)
	assert.Contains(t, state.Chat[0].Content, "TCS")
	assert.False(t, state.Loading.Chat)
}

func TestSubscribe_VersionsIncrease(t *testing.T) {
	api := &mockAnalysisAPI{}
	api.On("Analyze", mock.Anything, "RELIANCE", "1d").Return(relianceResult(), nil)
	api.On("Fundamentals", mock.Anything, "RELIANCE").Return(&dto.FundamentalsResult{CompanyName: "Reliance"}, nil)

	session := newTestSession(api, nil)
	defer session.Close()

	var (
		mu       sync.Mutex
		versions []uint64
	)
	unsubscribe := session.Subscribe(func(st dto.SessionState) {
		mu.Lock()
		versions = append(versions, st.Version)
		mu.Unlock()
	})

	_, err := session.RequestAnalysis(context.Background(), "RELIANCE", "1d")
	require.NoError(t, err)
	session.Wait()
	unsubscribe()

	_, err = session.RequestAnalysis(context.Background(), "", "1d")
	require.Error(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, versions)
	for i := 1; i < len(versions); i++ {
		assert.Greater(t, versions[i], versions[i-1])
	}
	assert.Less(t, versions[len(versions)-1], session.Snapshot().Version)
}

func TestSnapshot_IsDeepCopy(t *testing.T) {
	api := &mockAnalysisAPI{}
	api.On("Analyze", mock.Anything, "RELIANCE", "1d").Return(relianceResult(), nil)
	api.On("Fundamentals", mock.Anything, "RELIANCE").Return(nil, errors.New("unavailable"))

	session := newTestSession(api, nil)
	defer session.Close()

	state, err := session.RequestAnalysis(context.Background(), "RELIANCE", "1d")
	require.NoError(t, err)

	state.Analysis.Support[0] = 1
	state.Chart[0].Price = 1
	state.Chat[0].Content = "mutated"

	fresh := session.Snapshot()
	assert.Equal(t, 2400.0, fresh.Analysis.Support[0])
	assert.NotEqual(t, 1.0, fresh.Chart[0].Price)
	assert.NotEqual(t, "mutated", fresh.Chat[0].Content)
}

func TestRequestAnalysis_ZeroPriceSkipsChart(t *testing.T) {
	api := &mockAnalysisAPI{}
	api.On("Analyze", mock.Anything, "NEWIPO", "1d").Return(&dto.AnalysisResult{
		Symbol:     "NEWIPO",
		Support:    []float64{},
		Resistance: []float64{},
	}, nil)
	api.On("Fundamentals", mock.Anything, "NEWIPO").Return(nil, errors.New("unavailable"))

	session := newTestSession(api, nil)
	defer session.Close()

	state, err := session.RequestAnalysis(context.Background(), "NEWIPO", "1d")
	require.NoError(t, err)
	session.Wait()

	require.NotNil(t, state.Analysis)
	assert.Empty(t, state.Chart)
	assert.Empty(t, state.Error)
	require.Len(t, state.Chat, 1)
}
