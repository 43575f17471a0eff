package cmd

import "github.com/spf13/cobra"

var rootCmd = &cobra.Command{
	Use:           "stock-analyzer",
	Short:         "Support/resistance analysis and chat for NSE stocks",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(migrateCmd)
}
