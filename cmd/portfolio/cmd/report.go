package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/portfolio/report"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the summary, distributions and holdings",
	Long: `Report prints an Org document with the portfolio totals, the asset class,
currency and cash-by-account distributions, and the full holdings table.

Example:
  portfolio report --as-of 2024-12-31 > year-end.org`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

var reportAsOf string

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVar(&reportAsOf, "as-of", "", "value the ledger as of this date (YYYY-MM-DD, inclusive)")
}

func runReport(cmd *cobra.Command, args []string) error {
	snap, err := takeSnapshot(cmd.Context(), reportAsOf)
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), report.FormatReportOrg(snap))
	printDataWarnings(cmd.ErrOrStderr(), snap)
	return nil
}
