package cmd

import (
	"context"
	"errors"
	"fmt"
	httpNet "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stock-analyzer/internal/delivery/http"
	"stock-analyzer/internal/delivery/telegram"
	"stock-analyzer/internal/repository"
	"stock-analyzer/internal/service"
	"stock-analyzer/pkg/logger"
	"stock-analyzer/pkg/utils"

	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Run the HTTP API and, when enabled, the Telegram bot",
	RunE:  Start,
}

func Start(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appDep, err := NewAppDependency(ctx, true)
	if err != nil {
		return fmt.Errorf("failed to create app dependency: %w", err)
	}
	log := appDep.log

	repo, err := repository.NewRepository(appDep.cfg, appDep.cache, appDep.db.Gorm(), log)
	if err != nil {
		return fmt.Errorf("failed to create repository: %w", err)
	}

	services, err := service.NewService(appDep.cfg, log, repo)
	if err != nil {
		return fmt.Errorf("failed to create services: %w", err)
	}

	httpHandler := http.NewHttpAPIHandler(ctx, appDep.cfg, log, appDep.echo, appDep.validator, services)

	var telegramHandler *telegram.TelegramBotHandler
	if appDep.telegramBot != nil {
		telegramHandler = telegram.NewTelegramBotHandler(
			ctx,
			appDep.cfg,
			log,
			appDep.telegramBot,
			appDep.telegram,
			appDep.echo,
			services,
		)
		telegramHandler.RegisterHandlers()
	}

	apiServer := NewHTTPServer(ctx, appDep, httpHandler)
	serverErr := make(chan error, 1)
	utils.GoSafe(func() {
		if err := apiServer.Start(); err != nil && !errors.Is(err, httpNet.ErrServerClosed) {
			serverErr <- err
		}
	})

	if telegramHandler != nil {
		utils.GoSafe(telegramHandler.Start)
	}

	services.SessionJanitor.Start()

	select {
	case <-ctx.Done():
	case err = <-serverErr:
		log.Error("HTTP server failed", logger.ErrorField(err))
	}
	log.Info("Shutting down gracefully...")

	if telegramHandler != nil {
		telegramHandler.Stop()
	}

	if stopErr := apiServer.Stop(); stopErr != nil {
		log.Error("Failed to stop HTTP server", logger.ErrorField(stopErr))
	}

	janitorCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	services.SessionJanitor.Stop(janitorCtx)
	services.SessionManager.Shutdown()

	if closeErr := appDep.Close(); closeErr != nil {
		log.Error("Failed to close app dependency", logger.ErrorField(closeErr))
	}

	return err
}
