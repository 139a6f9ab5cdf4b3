package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muhammadolammi/resumeworker/internal/config"
	"github.com/muhammadolammi/resumeworker/internal/logger"
)

var (
	debugLogs bool
	jsonLogs  bool

	cfg *config.Config
	log *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "resumeworker",
	Short:         "Resume analysis worker",
	Long:          "resumeworker extracts text from uploaded resumes, scores them, stores the analysis and matches resumes against job postings.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		var err error
		log, err = logger.New(jsonLogs, debugLogs)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}

		cfg, err = config.Load()
		if err != nil {
			return err
		}
		return cfg.Validate()
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugLogs, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json", false, "Log in JSON")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
