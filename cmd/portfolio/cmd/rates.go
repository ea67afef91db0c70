package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var ratesCmd = &cobra.Command{
	Use:   "rates",
	Short: "Show how each currency converts into the reporting currency",
	Long: `Rates lists every currency with a recorded or fallback rate, the rate used
to convert it into the reporting currency and where that rate came from
(identity, db, fallback or missing).

Examples:
  portfolio rates
  portfolio rates --reporting USD`,
	Args: cobra.NoArgs,
	RunE: runRates,
}

func init() {
	rootCmd.AddCommand(ratesCmd)
}

func runRates(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	rates, err := newEngine(store).Rates(cmd.Context())
	if err != nil {
		log.Error("load rates", zap.Error(err))
		return fmt.Errorf("rates: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "* Exchange rates into %s\n", rates.Target())
	fmt.Fprintln(out, "| From | To | Rate | Source |")
	fmt.Fprintln(out, "|------+----+------+--------|")
	for _, cur := range rates.SupportedCurrencies() {
		r := rates.Resolve(cur, rates.Target())
		fmt.Fprintf(out, "| %s | %s | %.6f | %s |\n", r.From, r.To, r.Value, r.Source)
	}
	return nil
}
