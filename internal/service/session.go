package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"stock-analyzer/internal/dto"
	"stock-analyzer/internal/helper"
	"stock-analyzer/internal/repository"
	"stock-analyzer/pkg/common"
	"stock-analyzer/pkg/logger"
	"stock-analyzer/pkg/utils"
)

type SessionOptions struct {
	ChartPoints    int
	RequestTimeout time.Duration
}

// SessionController owns the state of one analysis session: the current
// analysis, its synthetic chart, fundamentals and the chat transcript.
// State is only handed out as deep copies.
type SessionController struct {
	id      string
	opts    SessionOptions
	log     *logger.Logger
	api     repository.AnalysisAPIRepository
	history repository.AnalysisHistoryRepository

	baseCtx context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup

	mu                   sync.Mutex
	state                dto.SessionState
	closed               bool
	analysisSeq          uint64
	cancelAnalysis       context.CancelFunc
	analysisGen          uint64
	chatGen              uint64
	chatInFlight         int
	fundamentalsInFlight int
	subscribers          map[uint64]func(dto.SessionState)
	nextSubscriber       uint64
	pending              []dto.SessionState
	notifying            bool
	lastAccess           time.Time
}

func NewSessionController(id string, opts SessionOptions, log *logger.Logger, api repository.AnalysisAPIRepository, history repository.AnalysisHistoryRepository) *SessionController {
	if opts.ChartPoints <= 0 {
		opts.ChartPoints = helper.DefaultChartPoints
	}
	if history == nil {
		history = repository.NewAnalysisHistoryRepository(nil)
	}

	baseCtx, stop := context.WithCancel(context.Background())
	now := time.Now()
	return &SessionController{
		id:      id,
		opts:    opts,
		log:     log.With(logger.StringField("session_id", id)),
		api:     api,
		history: history,
		baseCtx: baseCtx,
		stop:    stop,
		state: dto.SessionState{
			ID:        id,
			Chart:     []dto.ChartPoint{},
			Chat:      []dto.ChatMessage{},
			UpdatedAt: now,
		},
		subscribers: make(map[uint64]func(dto.SessionState)),
		lastAccess:  now,
	}
}

func (s *SessionController) ID() string {
	return s.id
}

// RequestAnalysis analyzes symbol on timeframe and returns the state the
// request settled into. Only the most recently issued request may change the
// analysis; older ones return ErrSuperseded.
func (s *SessionController) RequestAnalysis(ctx context.Context, symbol, timeframe string) (dto.SessionState, error) {
	s.touch()

	symbol = utils.NormalizeSymbol(symbol)
	if symbol == "" {
		snap := s.update(func(st *dto.SessionState) bool {
			st.Error = helper.MissingSymbolMessage
			return true
		})
		return snap, &ValidationError{Field: "symbol", Message: "missing symbol"}
	}
	timeframe = strings.TrimSpace(timeframe)
	if timeframe == "" {
		timeframe = common.DefaultTimeframe
	}

	reqCtx, cancel := s.requestContext(ctx)
	defer cancel()

	var seq uint64
	s.update(func(st *dto.SessionState) bool {
		s.analysisSeq++
		seq = s.analysisSeq
		if s.cancelAnalysis != nil {
			s.cancelAnalysis()
		}
		s.cancelAnalysis = cancel

		st.Symbol = symbol
		st.Timeframe = timeframe
		st.Loading.Analysis = true
		st.Error = ""
		return true
	})

	log := s.log.With(logger.StringField("symbol", symbol), logger.StringField("timeframe", timeframe))
	log.DebugContext(ctx, "Requesting analysis", logger.Field("seq", seq))

	result, err := s.api.Analyze(reqCtx, symbol, timeframe)
	if err != nil {
		return s.settleAnalysisFailure(ctx, log, seq, symbol, timeframe, err)
	}

	seed := result.Symbol
	if seed == "" {
		seed = symbol
	}
	// no price, no chart
	chart := []dto.ChartPoint{}
	if result.CurrentPrice > 0 {
		chart = helper.GenerateChartPoints(seed, result.CurrentPrice, s.opts.ChartPoints)
	}

	var (
		stale bool
		gen   uint64
	)
	snap := s.update(func(st *dto.SessionState) bool {
		if seq != s.analysisSeq {
			stale = true
			return false
		}
		s.cancelAnalysis = nil
		s.analysisGen++
		gen = s.analysisGen
		s.chatGen++

		st.Analysis = result
		st.Chart = chart
		st.Chat = []dto.ChatMessage{helper.SeedMessage(symbol, result.CurrentPrice)}
		st.Fundamentals = nil
		st.Loading.Analysis = false
		st.Error = ""
		return true
	})
	if stale {
		log.DebugContext(ctx, "Discarding superseded analysis result", logger.Field("seq", seq))
		return snap, ErrSuperseded
	}

	log.InfoContext(ctx, "Analysis completed",
		logger.Float64Field("current_price", result.CurrentPrice),
		logger.IntField("support_levels", len(result.Support)),
		logger.IntField("resistance_levels", len(result.Resistance)))

	s.goBackground(func(bgCtx context.Context) {
		_ = s.fetchFundamentals(bgCtx, symbol, gen)
	})
	s.goBackground(func(bgCtx context.Context) {
		s.recordHistory(bgCtx, timeframe, result)
	})

	return snap, nil
}

func (s *SessionController) settleAnalysisFailure(ctx context.Context, log *logger.Logger, seq uint64, symbol, timeframe string, cause error) (dto.SessionState, error) {
	var stale bool
	snap := s.update(func(st *dto.SessionState) bool {
		if seq != s.analysisSeq {
			stale = true
			return false
		}
		s.cancelAnalysis = nil
		s.analysisGen++

		detail := repository.ErrorDetail(cause)
		if detail == "" {
			detail = helper.AnalysisFailedMessage
		}
		st.Analysis = nil
		st.Chart = []dto.ChartPoint{}
		st.Fundamentals = nil
		st.Loading.Analysis = false
		st.Error = detail
		return true
	})
	if stale {
		log.DebugContext(ctx, "Discarding superseded analysis failure", logger.Field("seq", seq), logger.ErrorField(cause))
		return snap, ErrSuperseded
	}

	err := &AnalysisFetchError{Symbol: symbol, Timeframe: timeframe, Err: cause}
	log.ErrorContext(ctx, "Analysis failed", logger.ErrorField(err))
	return snap, err
}

// RequestFundamentals loads fundamentals for symbol. Failures are logged and
// returned but never touch the session error.
func (s *SessionController) RequestFundamentals(ctx context.Context, symbol string) error {
	s.touch()

	symbol = utils.NormalizeSymbol(symbol)
	if symbol == "" {
		return &ValidationError{Field: "symbol", Message: "missing symbol"}
	}

	s.mu.Lock()
	gen := s.analysisGen
	s.mu.Unlock()

	return s.fetchFundamentals(ctx, symbol, gen)
}

func (s *SessionController) fetchFundamentals(ctx context.Context, symbol string, gen uint64) error {
	reqCtx, cancel := s.requestContext(ctx)
	defer cancel()

	s.update(func(st *dto.SessionState) bool {
		s.fundamentalsInFlight++
		st.Loading.Fundamentals = true
		return true
	})

	result, err := s.api.Fundamentals(reqCtx, symbol)

	var stale bool
	s.update(func(st *dto.SessionState) bool {
		s.fundamentalsInFlight--
		st.Loading.Fundamentals = s.fundamentalsInFlight > 0
		if gen != s.analysisGen {
			stale = true
			return true
		}
		if err != nil {
			st.Fundamentals = nil
			return true
		}
		st.Fundamentals = result
		return true
	})

	if stale {
		return ErrSuperseded
	}
	if err != nil {
		fetchErr := &FundamentalsFetchError{Symbol: symbol, Err: err}
		s.log.WarnContext(ctx, "Fundamentals unavailable", logger.ErrorField(fetchErr))
		return fetchErr
	}
	return nil
}

// SendChatMessage appends text to the transcript and asks the backend about
// the current analysis. It is a no-op returning ErrChatSkipped when text is
// blank or nothing has been analyzed yet. Backend failures come back as an
// assistant apology, not as an error.
func (s *SessionController) SendChatMessage(ctx context.Context, text string) (*dto.ChatMessage, error) {
	s.touch()

	var (
		skipped  bool
		analysis *dto.AnalysisResult
		gen      uint64
	)
	s.update(func(st *dto.SessionState) bool {
		if strings.TrimSpace(text) == "" || st.Analysis == nil {
			skipped = true
			return false
		}
		analysis = st.Analysis
		gen = s.chatGen
		s.chatInFlight++

		st.Chat = append(st.Chat, dto.ChatMessage{Role: dto.RoleUser, Content: text})
		st.Loading.Chat = true
		return true
	})
	if skipped {
		return nil, ErrChatSkipped
	}

	reqCtx, cancel := s.requestContext(ctx)
	defer cancel()

	resp, err := s.api.Chat(reqCtx, text, analysis)

	var reply dto.ChatMessage
	if err != nil {
		detail := repository.ErrorDetail(err)
		if detail == "" {
			detail = err.Error()
		}
		reply = helper.ChatErrorMessage(detail)
		s.log.ErrorContext(ctx, "Chat request failed",
			logger.ErrorField(&ChatFetchError{Symbol: analysis.Symbol, Err: err}))
	} else {
		reply = dto.ChatMessage{Role: dto.RoleAssistant, Content: resp.Response}
	}

	var stale bool
	s.update(func(st *dto.SessionState) bool {
		s.chatInFlight--
		st.Loading.Chat = s.chatInFlight > 0
		if gen != s.chatGen {
			stale = true
			return true
		}
		st.Chat = append(st.Chat, reply)
		return true
	})
	if stale {
		s.log.DebugContext(ctx, "Dropping chat reply for a reset transcript")
		return nil, ErrSuperseded
	}

	return &reply, nil
}

func (s *SessionController) Snapshot() dto.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Subscribe registers fn for every later state transition. Snapshots are
// delivered in version order, one at a time; fn should return quickly.
func (s *SessionController) Subscribe(fn func(dto.SessionState)) func() {
	s.mu.Lock()
	id := s.nextSubscriber
	s.nextSubscriber++
	s.subscribers[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subscribers, id)
			s.mu.Unlock()
		})
	}
}

// Busy reports whether any request is still in flight.
func (s *SessionController) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.state.Loading
	return l.Analysis || l.Fundamentals || l.Chat
}

func (s *SessionController) LastAccess() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccess
}

// Wait blocks until background work (fundamentals, history) has finished.
func (s *SessionController) Wait() {
	s.wg.Wait()
}

// Close cancels everything in flight and waits for background work.
func (s *SessionController) Close() {
	s.mu.Lock()
	s.closed = true
	if s.cancelAnalysis != nil {
		s.cancelAnalysis()
	}
	s.mu.Unlock()

	s.stop()
	s.wg.Wait()
}

// update applies fn as a single transition. When fn reports a change the
// version is bumped and the snapshot is queued for subscribers, which are
// called after the lock is released.
func (s *SessionController) update(fn func(st *dto.SessionState) bool) dto.SessionState {
	s.mu.Lock()
	if !fn(&s.state) {
		snap := s.state.Clone()
		s.mu.Unlock()
		return snap
	}

	s.state.Version++
	s.state.UpdatedAt = time.Now()
	snap := s.state.Clone()
	if len(s.subscribers) > 0 {
		s.pending = append(s.pending, snap)
	}
	s.mu.Unlock()

	s.notify()
	return snap
}

// notify drains queued snapshots in version order. Only one goroutine drains
// at a time; others just enqueue.
func (s *SessionController) notify() {
	s.mu.Lock()
	if s.notifying || len(s.pending) == 0 {
		s.mu.Unlock()
		return
	}
	s.notifying = true

	for len(s.pending) > 0 {
		batch := s.pending
		s.pending = nil
		subs := make([]func(dto.SessionState), 0, len(s.subscribers))
		for _, sub := range s.subscribers {
			subs = append(subs, sub)
		}
		s.mu.Unlock()

		for _, snap := range batch {
			for _, sub := range subs {
				sub(snap.Clone())
			}
		}

		s.mu.Lock()
	}
	s.notifying = false
	s.mu.Unlock()
}

func (s *SessionController) touch() {
	s.mu.Lock()
	s.lastAccess = time.Now()
	s.mu.Unlock()
}

// requestContext bounds a backend call by the request timeout and by the
// session lifetime.
func (s *SessionController) requestContext(parent context.Context) (context.Context, context.CancelFunc) {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if s.opts.RequestTimeout > 0 {
		ctx, cancel = context.WithTimeout(parent, s.opts.RequestTimeout)
	} else {
		ctx, cancel = context.WithCancel(parent)
	}

	stop := context.AfterFunc(s.baseCtx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

func (s *SessionController) goBackground(fn func(ctx context.Context)) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()

	utils.GoSafe(func() {
		defer s.wg.Done()
		fn(s.baseCtx)
	})
}

func (s *SessionController) recordHistory(ctx context.Context, timeframe string, result *dto.AnalysisResult) {
	history, err := repository.NewAnalysisHistory(s.id, timeframe, result)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to build analysis history", logger.ErrorField(err))
		return
	}
	if err := s.history.Create(ctx, history); err != nil {
		s.log.ErrorContext(ctx, "Failed to record analysis history",
			logger.StringField("symbol", result.Symbol),
			logger.ErrorField(err))
	}
}
