package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"stock-analyzer/internal/dto"
	"stock-analyzer/pkg/logger"
	"stock-analyzer/pkg/middleware"

	"github.com/labstack/echo/v4"
	"gopkg.in/telebot.v3"
)

const (
	msgAnalyzeFirst   = "Analyze a stock first with /analyze SYMBOL, then ask me anything about it."
	msgUnknownCommand = "I don't recognize that command. Use /help to see what I can do."
)

func (t *TelegramBotHandler) withContext(handler func(ctx context.Context, c telebot.Context) error) func(c telebot.Context) error {
	return middleware.WithContext(t.ctx, t.cfg.Telegram.TimeoutDuration, handler)
}

func (t *TelegramBotHandler) RegisterHandlers() {
	if t.cfg.Telegram.WebhookURL != "" {
		t.echo.POST("/api/v1/telegram/webhook", func(c echo.Context) error {
			var update telebot.Update
			if err := c.Bind(&update); err != nil {
				t.log.ErrorContext(t.ctx, "Cannot bind JSON", logger.ErrorField(err))
				badRequest := dto.NewBadRequestResponse(err.Error())
				return c.JSON(http.StatusBadRequest, badRequest)
			}
			t.bot.ProcessUpdate(update)
			return c.JSON(http.StatusOK, dto.NewBaseResponse(http.StatusOK, "ok", nil))
		})
	}

	t.bot.Handle("/start", t.withContext(t.handleStart))
	t.bot.Handle("/help", t.withContext(t.handleStart))
	t.bot.Handle("/analyze", t.withContext(t.handleAnalyze))
	t.bot.Handle("/fundamentals", t.withContext(t.handleFundamentals))
	t.bot.Handle("/chart", t.withContext(t.handleChart))
	t.bot.Handle("/history", t.withContext(t.handleHistory))
	t.bot.Handle(telebot.OnText, t.withContext(t.handleText))
}

func (t *TelegramBotHandler) handleStart(ctx context.Context, c telebot.Context) error {
	message := `👋 *Welcome to Stock Analyzer!*

📈 /analyze SYMBOL [TF] - Support/resistance analysis, e.g. /analyze RELIANCE 1d
🏢 /fundamentals - Fundamentals of the analyzed stock
📊 /chart - Illustrative price path of the analyzed stock
🕘 /history [SYMBOL] - Recent analyses

💬 After an analysis, just send a question and I'll answer it using the analysis data.`
	_, err := t.telegram.Send(ctx, c, message, &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
	return err
}

func (t *TelegramBotHandler) handleText(ctx context.Context, c telebot.Context) error {
	if strings.HasPrefix(c.Text(), "/") {
		_, err := t.telegram.Send(ctx, c, msgUnknownCommand)
		return err
	}
	return t.handleChat(ctx, c)
}

func sessionKey(chatID int64) string {
	return fmt.Sprintf("telegram:%d", chatID)
}
