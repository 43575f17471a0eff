package service

import (
	"sync"
	"time"

	"stock-analyzer/config"
	"stock-analyzer/internal/repository"
	"stock-analyzer/pkg/logger"

	"github.com/google/uuid"
)

// SessionManager owns every live SessionController, keyed by session ID.
type SessionManager interface {
	Create() *SessionController
	Get(id string) (*SessionController, error)
	// GetOrCreate returns the session stored under key, creating it with key as
	// its ID. Used by surfaces with their own stable identity (chat IDs).
	GetOrCreate(key string) *SessionController
	Delete(id string) error
	// Sweep closes sessions idle for longer than idle and not busy.
	Sweep(now time.Time, idle time.Duration) int
	Len() int
	Shutdown()
}

type sessionManager struct {
	cfg      *config.Config
	log      *logger.Logger
	repo     *repository.Repository
	opts     SessionOptions
	mu       sync.RWMutex
	sessions map[string]*SessionController
}

func NewSessionManager(cfg *config.Config, log *logger.Logger, repo *repository.Repository) SessionManager {
	return &sessionManager{
		cfg:  cfg,
		log:  log,
		repo: repo,
		opts: SessionOptions{
			ChartPoints:    cfg.Session.ChartPoints,
			RequestTimeout: cfg.Session.RequestTimeout,
		},
		sessions: make(map[string]*SessionController),
	}
}

func (m *sessionManager) Create() *SessionController {
	return m.GetOrCreate(uuid.NewString())
}

func (m *sessionManager) GetOrCreate(key string) *SessionController {
	m.mu.RLock()
	session, ok := m.sessions[key]
	m.mu.RUnlock()
	if ok {
		return session
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if session, ok := m.sessions[key]; ok {
		return session
	}

	session = NewSessionController(key, m.opts, m.log, m.repo.AnalysisAPIRepo, m.repo.AnalysisHistoryRepo)
	m.sessions[key] = session
	m.log.Debug("Session created", logger.StringField("session_id", key))
	return session
}

// Get looks a session up and counts the lookup as activity.
func (m *sessionManager) Get(id string) (*SessionController, error) {
	m.mu.RLock()
	session, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrSessionNotFound
	}
	session.touch()
	return session, nil
}

func (m *sessionManager) Delete(id string) error {
	m.mu.Lock()
	session, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	session.Close()
	return nil
}

func (m *sessionManager) Sweep(now time.Time, idle time.Duration) int {
	if idle <= 0 {
		return 0
	}

	var expired []*SessionController
	m.mu.Lock()
	for id, session := range m.sessions {
		if session.Busy() || now.Sub(session.LastAccess()) < idle {
			continue
		}
		expired = append(expired, session)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, session := range expired {
		session.Close()
	}
	return len(expired)
}

func (m *sessionManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *sessionManager) Shutdown() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*SessionController)
	m.mu.Unlock()

	for _, session := range sessions {
		session.Close()
	}
	m.log.Info("All sessions closed", logger.IntField("count", len(sessions)))
}
