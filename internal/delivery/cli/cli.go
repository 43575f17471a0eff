package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"stock-analyzer/internal/dto"
	"stock-analyzer/internal/helper"
	"stock-analyzer/internal/service"
	"stock-analyzer/pkg/common"
	"stock-analyzer/pkg/logger"
	"stock-analyzer/pkg/utils"

	"github.com/AlecAivazis/survey/v2/terminal"
)

// Session is the subset of *service.SessionController the terminal drives.
type Session interface {
	RequestAnalysis(ctx context.Context, symbol, timeframe string) (dto.SessionState, error)
	SendChatMessage(ctx context.Context, text string) (*dto.ChatMessage, error)
	Snapshot() dto.SessionState
	Wait()
}

type Options struct {
	Symbol    string
	Timeframe string
	NoChat    bool
}

type Runner struct {
	log     *logger.Logger
	session Session
	out     io.Writer

	askSymbol    func() (string, error)
	askTimeframe func() (string, error)
	askQuestion  func() (string, error)
}

func NewRunner(log *logger.Logger, session Session) *Runner {
	return &Runner{
		log:          log,
		session:      session,
		out:          os.Stdout,
		askSymbol:    PromptForSymbol,
		askTimeframe: PromptForTimeframe,
		askQuestion:  PromptForQuestion,
	}
}

// Run analyzes one symbol, prints the fundamentals once they settle and then
// chats until the user submits an empty line or interrupts.
func (r *Runner) Run(ctx context.Context, opts Options) error {
	symbol, timeframe := opts.Symbol, opts.Timeframe
	if symbol == "" {
		var err error
		if symbol, err = r.askSymbol(); err != nil {
			return ignoreInterrupt(err)
		}
		// fully interactive: ask for the timeframe too
		if timeframe == "" {
			if timeframe, err = r.askTimeframe(); err != nil {
				return ignoreInterrupt(err)
			}
		}
	}
	if timeframe == "" {
		timeframe = common.DefaultTimeframe
	}

	fmt.Fprintln(r.out, titleStyle.Render(fmt.Sprintf("Analyzing %s (%s)...", symbol, timeframe)))

	state, err := r.session.RequestAnalysis(ctx, symbol, timeframe)
	if err != nil {
		fmt.Fprintln(r.out, RenderError(state.Error))
		return err
	}
	fmt.Fprintln(r.out, RenderAnalysis(state))

	r.session.Wait()
	if summary := helper.SummarizeFundamentals(r.session.Snapshot().Fundamentals); summary != nil {
		fmt.Fprintln(r.out, RenderFundamentals(summary))
	}

	for _, msg := range state.Chat {
		fmt.Fprintln(r.out, RenderMessage(msg))
	}
	if opts.NoChat {
		return nil
	}

	return r.chat(ctx)
}

func (r *Runner) chat(ctx context.Context) error {
	for {
		if !utils.ShouldContinue(ctx, r.log) {
			return nil
		}

		question, err := r.askQuestion()
		if err != nil {
			return ignoreInterrupt(err)
		}
		if question == "" || question == "exit" {
			return nil
		}

		reply, err := r.session.SendChatMessage(ctx, question)
		switch {
		case errors.Is(err, service.ErrChatSkipped), errors.Is(err, service.ErrSuperseded):
			continue
		case err != nil:
			r.log.ErrorContext(ctx, "Chat failed", logger.ErrorField(err))
			fmt.Fprintln(r.out, RenderError(err.Error()))
			continue
		}
		fmt.Fprintln(r.out, RenderMessage(*reply))
	}
}

func ignoreInterrupt(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return nil
	}
	return err
}
