package cli

import (
	"fmt"
	"strings"

	"stock-analyzer/pkg/common"
	"stock-analyzer/pkg/utils"

	"github.com/AlecAivazis/survey/v2"
)

// PromptForSymbol asks for a ticker, suggesting the popular NSE symbols.
func PromptForSymbol() (string, error) {
	var symbol string
	prompt := &survey.Input{
		Message: "Enter the stock symbol:",
		Help:    "NSE symbols such as " + strings.Join(common.GetPopularSymbolList()[:5], ", "),
		Default: common.DefaultSymbol,
		Suggest: func(toComplete string) []string {
			prefix := utils.NormalizeSymbol(toComplete)
			var out []string
			for _, s := range common.GetPopularSymbolList() {
				if strings.HasPrefix(s, prefix) {
					out = append(out, s)
				}
			}
			return out
		},
	}

	err := survey.AskOne(prompt, &symbol, survey.WithValidator(func(val interface{}) error {
		str, _ := val.(string)
		if utils.NormalizeSymbol(str) == "" {
			return fmt.Errorf("symbol cannot be empty")
		}
		return nil
	}))
	if err != nil {
		return "", err
	}
	return utils.NormalizeSymbol(symbol), nil
}

func PromptForTimeframe() (string, error) {
	var timeframe string
	prompt := &survey.Select{
		Message: "Select the timeframe:",
		Options: common.GetTimeframeList(),
		Default: common.DefaultTimeframe,
	}
	if err := survey.AskOne(prompt, &timeframe); err != nil {
		return "", err
	}
	return timeframe, nil
}

// PromptForQuestion reads one chat message. An empty answer ends the chat.
func PromptForQuestion() (string, error) {
	var question string
	prompt := &survey.Input{
		Message: "Ask about this stock (empty to quit):",
	}
	if err := survey.AskOne(prompt, &question); err != nil {
		return "", err
	}
	return strings.TrimSpace(question), nil
}
