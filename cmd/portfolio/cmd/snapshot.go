package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/portfolio/portfolio"
	"github.com/rustyeddy/portfolio/report"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Value every open position and cash balance",
	Long: `Snapshot values the ledger in the reporting currency.

Securities use their latest closing price, or average cost when none is
recorded. Cash balances are converted at the resolved exchange rate.

Examples:
  portfolio snapshot
  portfolio snapshot --as-of 2024-06-30 --csv holdings.csv
  portfolio snapshot --json`,
	Args: cobra.NoArgs,
	RunE: runSnapshot,
}

var (
	snapAsOf string
	snapCSV  string
	snapJSON bool
)

func init() {
	rootCmd.AddCommand(snapshotCmd)

	snapshotCmd.Flags().StringVar(&snapAsOf, "as-of", "", "value the ledger as of this date (YYYY-MM-DD, inclusive)")
	snapshotCmd.Flags().StringVar(&snapCSV, "csv", "", "also write line items as CSV to this file ('-' for stdout)")
	snapshotCmd.Flags().BoolVar(&snapJSON, "json", false, "print the snapshot as JSON instead of an Org table")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	snap, err := takeSnapshot(cmd.Context(), snapAsOf)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case snapCSV == "-":
		if err := report.WriteSnapshotCSV(out, snap); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	case snapJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snap); err != nil {
			return fmt.Errorf("encode snapshot: %w", err)
		}
	default:
		fmt.Fprint(out, report.FormatSnapshotOrg(snap))
	}

	if snapCSV != "" && snapCSV != "-" {
		if err := writeCSVFile(snapCSV, snap); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d line items to %s\n", len(snap.Items), snapCSV)
	}

	printDataWarnings(cmd.ErrOrStderr(), snap)
	return nil
}

func takeSnapshot(ctx context.Context, asOfFlag string) (*portfolio.Snapshot, error) {
	asOf, err := parseAsOf(asOfFlag)
	if err != nil {
		return nil, fmt.Errorf("as-of: %w", err)
	}

	store, err := openStore()
	if err != nil {
		return nil, err
	}
	defer store.Close()

	snap, err := newEngine(store).Snapshot(ctx, asOf)
	if err != nil {
		log.Error("snapshot failed", zap.String("db", cfg.Store.DBPath), zap.Error(err))
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return snap, nil
}

func writeCSVFile(path string, snap *portfolio.Snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	if err := report.WriteSnapshotCSV(f, snap); err != nil {
		f.Close()
		return fmt.Errorf("write csv: %w", err)
	}
	return f.Close()
}

// printDataWarnings tells the operator which values rest on fallbacks.
func printDataWarnings(w io.Writer, snap *portfolio.Snapshot) {
	if snap.CostFallbacks > 0 {
		fmt.Fprintf(w, "WARNING: %d position(s) valued at average cost; record a market price to fix.\n", snap.CostFallbacks)
	}
	for _, m := range snap.MissingRates {
		fmt.Fprintf(w, "WARNING: %s; record a rate or add a fallback entry.\n", m)
	}
}
