package cmd

import (
	"context"
	"time"

	"stock-analyzer/config"
	"stock-analyzer/pkg/cache"
	"stock-analyzer/pkg/logger"
	"stock-analyzer/pkg/postgres"
	"stock-analyzer/pkg/telegram"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"gopkg.in/telebot.v3"
)

type AppDependency struct {
	db          *postgres.DB
	cfg         *config.Config
	log         *logger.Logger
	validator   *goValidator.Validate
	echo        *echo.Echo
	cache       cache.Cache
	telegram    *telegram.TelegramRateLimiter
	telegramBot *telebot.Bot
}

// NewAppDependency wires the shared infrastructure. The Telegram bot is only
// created when withTelegram is set and the bot is enabled in config.
func NewAppDependency(ctx context.Context, withTelegram bool) (*AppDependency, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log, err := logger.NewWithOptions(logger.Options{
		Level:      cfg.Log.Level,
		Encoding:   cfg.Log.Encoding,
		FilePath:   cfg.Log.FilePath,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		return nil, err
	}

	db, err := postgres.NewDB(cfg.DB, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to connect to database", logger.ErrorField(err))
		return nil, err
	}
	if db == nil {
		log.Info("Database disabled, analysis history will not be recorded")
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echoMiddleware.Recover())

	dep := &AppDependency{
		cfg:       cfg,
		log:       log,
		validator: goValidator.New(),
		db:        db,
		echo:      e,
		cache:     cache.NewCache(cfg.Cache.DefaultExpiration, cfg.Cache.CleanupInterval),
	}

	if !withTelegram || !cfg.Telegram.Enabled {
		return dep, nil
	}

	pref := telebot.Settings{
		Token:  cfg.Telegram.BotToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) {
			log.Error("Telegram bot error", logger.ErrorField(err))
		},
	}
	bot, err := telebot.NewBot(pref)
	if err != nil {
		log.ErrorContext(ctx, "Failed to create telegram bot", logger.ErrorField(err))
		return nil, err
	}
	dep.telegramBot = bot
	dep.telegram = telegram.NewTelegramRateLimiter(&cfg.Telegram, log, bot)

	return dep, nil
}

func (d *AppDependency) Close() error {
	d.log.Info("Closing app dependency")
	defer func() { _ = d.log.Sync() }()
	return d.db.Close()
}
