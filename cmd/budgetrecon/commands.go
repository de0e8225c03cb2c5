package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon"
	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon/models"
	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon/report"
	"github.com/comercial-dash/budgetrecon/pkg/budgetrecon/sheet"
	"github.com/spf13/cobra"
)

// jobCmd builds a command that runs one job through app.execute.
func jobCmd(use, short, name string, job jobFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()
			return a.execute(cmd.Context(), name, job)
		},
	}
}

func newComparisonCmd() *cobra.Command {
	cmd := jobCmd("comparativo", "Compare the budget with the LogComex shipments",
		budgetrecon.StepComparison, budgetrecon.RunComparison)
	cmd.Flags().StringVar(&budgetPath, "budget", "", "Budget workbook (default: BUDGET_PATH or BUDGET_FILE_ID)")
	cmd.Flags().StringVar(&logcomexPath, "logcomex", "", "Consolidated LogComex workbook (default: LOGCOMEX_PATH or LOGCOMEX_FILE_ID)")
	return cmd
}

func newTrackerCmd() *cobra.Command {
	cmd := jobCmd("itracker", "Count the iTRACKER services and build the final report",
		budgetrecon.StepTracker, budgetrecon.RunTracker)
	cmd.Flags().StringVar(&trackerPath, "itracker", "", "iTRACKER workbook (default: ITRACKER_PATH or ITRACKER_FILE_ID)")
	cmd.Flags().StringVar(&comparisonPath, "comparativo", "", "Comparison workbook (default: <dir>/"+budgetrecon.ComparisonFile+")")
	return cmd
}

func newRunCmd() *cobra.Command {
	cmd := jobCmd("run", "Run the consolidation, the comparison and the iTRACKER merge",
		"run", budgetrecon.Run)
	cmd.Flags().StringVar(&budgetPath, "budget", "", "Budget workbook")
	cmd.Flags().StringVar(&logcomexPath, "logcomex", "", "Consolidated LogComex workbook")
	cmd.Flags().StringVar(&trackerPath, "itracker", "", "iTRACKER workbook")
	addExportFlags(cmd)
	return cmd
}

func newConsolidateCmd() *cobra.Command {
	cmd := jobCmd("consolidar", "Stack the LogComex exports into "+budgetrecon.ConsolidatedFile,
		budgetrecon.StepConsolidation, budgetrecon.RunConsolidation)
	addExportFlags(cmd)
	return cmd
}

func addExportFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&importPath, "importacao", "", "LogComex import export")
	cmd.Flags().StringVar(&exportPath, "exportacao", "", "LogComex export export")
	cmd.Flags().StringVar(&cabotagePath, "cabotagem", "", "LogComex cabotage export")
}

func newClientsCmd() *cobra.Command {
	var (
		finalPath string
		indexPath string
		month     int
	)
	cmd := &cobra.Command{
		Use:   "clientes",
		Short: "Export or query the per-client metrics",
	}

	export := &cobra.Command{
		Use:   "exportar",
		Short: "Write " + budgetrecon.ClientIndexFile + " from the final report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newLocalApp()
			if err != nil {
				return err
			}
			rows, err := readFinal(firstNonEmpty(finalPath, filepath.Join(a.cfg.WorkDir, budgetrecon.FinalFile)))
			if err != nil {
				return err
			}
			out := firstNonEmpty(indexPath, filepath.Join(a.cfg.WorkDir, budgetrecon.ClientIndexFile))
			idx := report.NewClientIndex(rows)
			if err := idx.SaveJSON(out); err != nil {
				return err
			}
			a.log.Info().Str("file", out).Int("clients", len(idx)).Msg("dados de clientes exportados")
			return nil
		},
	}
	export.Flags().StringVar(&finalPath, "final", "", "Final report (default: <dir>/"+budgetrecon.FinalFile+")")
	export.Flags().StringVarP(&indexPath, "output", "o", "", "Output file (default: <dir>/"+budgetrecon.ClientIndexFile+")")

	query := &cobra.Command{
		Use:   "consultar <cliente>",
		Short: "Print the metrics of a client in a month",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newLocalApp()
			if err != nil {
				return err
			}
			if month < 1 || month > 12 {
				return fmt.Errorf("invalid month: %d (must be 1-12)", month)
			}
			idx, err := report.LoadClientIndex(firstNonEmpty(indexPath, filepath.Join(a.cfg.WorkDir, budgetrecon.ClientIndexFile)))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), idx.Query(args[0], month))
			return nil
		},
	}
	query.Flags().IntVarP(&month, "mes", "m", 0, "Month (1-12)")
	query.Flags().StringVarP(&indexPath, "indice", "i", "", "Client index (default: <dir>/"+budgetrecon.ClientIndexFile+")")
	query.MarkFlagRequired("mes")

	cmd.AddCommand(export, query)
	return cmd
}

func newSummaryCmd() *cobra.Command {
	var (
		finalPath string
		filter    report.SummaryFilter
	)
	cmd := &cobra.Command{
		Use:   "resumo",
		Short: "Print the dashboard numbers of the final report as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newLocalApp()
			if err != nil {
				return err
			}
			rows, err := readFinal(firstNonEmpty(finalPath, filepath.Join(a.cfg.WorkDir, budgetrecon.FinalFile)))
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report.Summarize(rows, filter))
		},
	}
	cmd.Flags().StringVar(&finalPath, "final", "", "Final report (default: <dir>/"+budgetrecon.FinalFile+")")
	cmd.Flags().IntSliceVar(&filter.Months, "meses", nil, "Months to include")
	cmd.Flags().StringSliceVar(&filter.Clients, "clientes", nil, "Clients to include")
	cmd.Flags().IntVar(&filter.TopN, "top", report.DefaultTopN, "Number of clients ranked")
	return cmd
}

func newNormalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "normalizar <nome>...",
		Short: "Show how company names resolve to canonical clients",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newLocalApp()
			if err != nil {
				return err
			}
			c, err := a.canonicalizer()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ORIGINAL\tNORMALIZADO\tCANÔNICO\tMÉTODO")
			for _, raw := range args {
				r := c.Resolve(raw)
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", raw, r.Normalized, r.Canonical, r.Method)
			}
			return w.Flush()
		},
	}
}

func readFinal(path string) ([]models.FinalRow, error) {
	t, err := sheet.ReadXLSX(path, report.FinalSheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return report.FinalRowsFromTable(t)
}
