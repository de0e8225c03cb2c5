// Package main provides the budgetrecon CLI: the batch jobs behind the
// commercial dashboard and a few helpers to inspect their output.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var (
	workDir   string
	year      int
	yearSet   bool
	logLevel  string
	publish   bool
	notifyRun bool
	quiet     bool

	budgetPath     string
	logcomexPath   string
	trackerPath    string
	comparisonPath string
	importPath     string
	exportPath     string
	cabotagePath   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "budgetrecon",
		Short: "Reconcile the commercial budget with LogComex and iTRACKER",
		Long: `budgetrecon compares the commercial budget with the LogComex shipments
and the iTRACKER services, and publishes the reports used by the dashboard.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// --ano 0 is a valid choice: compare every year.
			yearSet = cmd.Flags().Changed("ano")
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&workDir, "dir", "d", "", "Directory for the produced files (default: WORK_DIR)")
	flags.IntVar(&year, "ano", 0, "Only compare this year, 0 for every year (default: YEAR)")
	flags.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default: LOG_LEVEL)")
	flags.BoolVar(&publish, "publish", true, "Publish the produced files to the configured sinks")
	flags.BoolVar(&notifyRun, "notify", true, "Send the run status to the configured channels")
	flags.BoolVarP(&quiet, "quiet", "q", false, "Hide download progress bars")

	rootCmd.AddCommand(
		newComparisonCmd(),
		newTrackerCmd(),
		newRunCmd(),
		newConsolidateCmd(),
		newClientsCmd(),
		newSummaryCmd(),
		newNormalizeCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
