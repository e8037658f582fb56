// Command gradectl builds grade datasets from HTML reports and queries them
// from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/godilite/gradebot/internal/config"
	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type rootOptions struct {
	verbose bool
	logger  *zap.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{logger: zap.NewNop()}

	rootCmd := &cobra.Command{
		Use:           "gradectl",
		Short:         "Build and query grade distribution datasets",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := config.NewCLILogger(opts.verbose)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			opts.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = opts.logger.Sync()
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(newExtractCmd(opts))
	rootCmd.AddCommand(newQueryCmd(opts))
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
