package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"stock-analyzer/internal/delivery/cli"
	"stock-analyzer/internal/repository"
	"stock-analyzer/internal/service"
	"stock-analyzer/pkg/common"
	"stock-analyzer/pkg/utils"

	"github.com/spf13/cobra"
)

var (
	analyzeTimeframe string
	analyzeNoChat    bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [SYMBOL]",
	Short: "Analyze a stock in the terminal and chat about it",
	Args:  cobra.MaximumNArgs(1),
	RunE:  Analyze,
}

func Analyze(cmd *cobra.Command, args []string) error {
	if analyzeTimeframe != "" && !utils.ContainsString(common.GetTimeframeList(), analyzeTimeframe) {
		return fmt.Errorf("unsupported timeframe %q, use one of %v", analyzeTimeframe, common.GetTimeframeList())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appDep, err := NewAppDependency(ctx, false)
	if err != nil {
		return fmt.Errorf("failed to create app dependency: %w", err)
	}
	defer func() { _ = appDep.Close() }()

	repo, err := repository.NewRepository(appDep.cfg, appDep.cache, appDep.db.Gorm(), appDep.log)
	if err != nil {
		return fmt.Errorf("failed to create repository: %w", err)
	}

	services, err := service.NewService(appDep.cfg, appDep.log, repo)
	if err != nil {
		return fmt.Errorf("failed to create services: %w", err)
	}
	defer services.SessionManager.Shutdown()

	opts := cli.Options{
		Timeframe: analyzeTimeframe,
		NoChat:    analyzeNoChat,
	}
	if len(args) > 0 {
		opts.Symbol = utils.NormalizeSymbol(args[0])
	}

	return cli.NewRunner(appDep.log, services.SessionManager.Create()).Run(ctx, opts)
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeTimeframe, "tf", "", "timeframe, one of "+fmt.Sprint(common.GetTimeframeList()))
	analyzeCmd.Flags().BoolVar(&analyzeNoChat, "no-chat", false, "print the analysis and exit")
}
