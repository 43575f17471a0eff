package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"stock-analyzer/internal/helper"
	"stock-analyzer/internal/model"
	"stock-analyzer/internal/service"
	"stock-analyzer/pkg/logger"
	"stock-analyzer/pkg/utils"

	"gopkg.in/telebot.v3"
)

var markdownV2 = &telebot.SendOptions{ParseMode: telebot.ModeMarkdownV2}

func (t *TelegramBotHandler) session(c telebot.Context) *service.SessionController {
	return t.service.SessionManager.GetOrCreate(sessionKey(c.Chat().ID))
}

func (t *TelegramBotHandler) handleAnalyze(ctx context.Context, c telebot.Context) error {
	args := c.Args()
	if len(args) == 0 {
		_, err := t.telegram.Send(ctx, c, helper.MissingSymbolMessage+", e.g. /analyze RELIANCE 1d")
		return err
	}
	symbol := args[0]
	timeframe := ""
	if len(args) > 1 {
		timeframe = args[1]
		if !utils.ContainsString(t.service.AnalysisService.Symbols().Timeframes, timeframe) {
			_, err := t.telegram.Send(ctx, c, fmt.Sprintf("Unsupported timeframe %q. Use one of: %s", timeframe, strings.Join(t.service.AnalysisService.Symbols().Timeframes, ", ")))
			return err
		}
	}

	loading, err := t.telegram.Send(ctx, c, fmt.Sprintf("⏳ Analyzing %s...", utils.NormalizeSymbol(symbol)))
	if err != nil {
		t.log.ErrorContext(ctx, "Failed to send loading message", logger.ErrorField(err))
	}

	state, err := t.session(c).RequestAnalysis(ctx, symbol, timeframe)
	switch {
	case errors.Is(err, service.ErrSuperseded):
		return nil
	case err != nil:
		return t.telegram.Reply(ctx, c, loading, "❌ "+state.Error)
	}

	return t.telegram.Reply(ctx, c, loading, formatAnalysisMessage(state), markdownV2)
}

func (t *TelegramBotHandler) handleFundamentals(ctx context.Context, c telebot.Context) error {
	session := t.session(c)
	symbol := session.Snapshot().Symbol
	if symbol == "" {
		_, err := t.telegram.Send(ctx, c, msgAnalyzeFirst)
		return err
	}

	if err := session.RequestFundamentals(ctx, symbol); err != nil {
		if errors.Is(err, service.ErrSuperseded) {
			return nil
		}
		_, err = t.telegram.Send(ctx, c, fmt.Sprintf("Fundamentals for %s are not available right now.", symbol))
		return err
	}

	summary := helper.SummarizeFundamentals(session.Snapshot().Fundamentals)
	_, err := t.telegram.Send(ctx, c, formatFundamentalsMessage(symbol, summary), markdownV2)
	return err
}

func (t *TelegramBotHandler) handleChart(ctx context.Context, c telebot.Context) error {
	state := t.session(c).Snapshot()
	if state.Analysis == nil || len(state.Chart) == 0 {
		_, err := t.telegram.Send(ctx, c, msgAnalyzeFirst)
		return err
	}
	_, err := t.telegram.Send(ctx, c, formatChartMessage(state.Analysis.Symbol, state.Chart), markdownV2)
	return err
}

func (t *TelegramBotHandler) handleHistory(ctx context.Context, c telebot.Context) error {
	symbol := ""
	if args := c.Args(); len(args) > 0 {
		symbol = args[0]
	}

	histories, err := t.service.AnalysisService.History(ctx, model.GetAnalysisHistoryParam{
		Symbol: symbol,
		Limit:  t.cfg.Telegram.MaxShowHistoryAnalysis,
	})
	if err != nil {
		_, err = t.telegram.Send(ctx, c, "Failed to load analysis history, please try again.")
		return err
	}

	_, err = t.telegram.Send(ctx, c, formatHistoryMessage(histories), markdownV2)
	return err
}

func (t *TelegramBotHandler) handleChat(ctx context.Context, c telebot.Context) error {
	if err := c.Notify(telebot.Typing); err != nil {
		t.log.DebugContext(ctx, "Failed to send typing action", logger.ErrorField(err))
	}

	reply, err := t.session(c).SendChatMessage(ctx, c.Text())
	switch {
	case errors.Is(err, service.ErrChatSkipped):
		_, err = t.telegram.Send(ctx, c, msgAnalyzeFirst)
		return err
	case err != nil:
		return nil
	}

	_, err = t.telegram.Send(ctx, c, utils.SafeText(reply.Content))
	return err
}
