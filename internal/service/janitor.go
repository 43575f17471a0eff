package service

import (
	"context"
	"fmt"
	"time"

	"stock-analyzer/config"
	"stock-analyzer/pkg/logger"

	"github.com/robfig/cron/v3"
)

// SessionJanitor periodically evicts idle sessions.
type SessionJanitor interface {
	Start()
	Stop(ctx context.Context)
	Sweep() int
}

type sessionJanitor struct {
	cfg     *config.Config
	log     *logger.Logger
	manager SessionManager
	cron    *cron.Cron
	now     func() time.Time
}

func NewSessionJanitor(cfg *config.Config, log *logger.Logger, manager SessionManager) (SessionJanitor, error) {
	j := &sessionJanitor{
		cfg:     cfg,
		log:     log,
		manager: manager,
		cron:    cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor))),
		now:     time.Now,
	}

	if _, err := j.cron.AddFunc(cfg.Session.JanitorSchedule, func() { j.Sweep() }); err != nil {
		return nil, fmt.Errorf("invalid session.janitor_schedule %q: %w", cfg.Session.JanitorSchedule, err)
	}
	return j, nil
}

func (j *sessionJanitor) Start() {
	j.log.Info("Starting session janitor",
		logger.StringField("schedule", j.cfg.Session.JanitorSchedule),
		logger.StringField("idle_timeout", j.cfg.Session.IdleTimeout.String()))
	j.cron.Start()
}

func (j *sessionJanitor) Stop(ctx context.Context) {
	select {
	case <-j.cron.Stop().Done():
	case <-ctx.Done():
		j.log.Warn("Timeout while stopping session janitor")
	}
}

func (j *sessionJanitor) Sweep() int {
	evicted := j.manager.Sweep(j.now(), j.cfg.Session.IdleTimeout)
	if evicted > 0 {
		j.log.Info("Evicted idle sessions",
			logger.IntField("evicted", evicted),
			logger.IntField("remaining", j.manager.Len()))
	}
	return evicted
}
