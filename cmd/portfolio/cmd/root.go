package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/portfolio/config"
	"github.com/rustyeddy/portfolio/internal/logger"
	"github.com/rustyeddy/portfolio/ledger"
	"github.com/rustyeddy/portfolio/portfolio"
)

var rootCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Multi-currency portfolio valuation over a SQLite ledger",
	Long: `Portfolio values an append-only transaction ledger in a single reporting currency.

It provides tools for:
  - Point-in-time snapshots of every open position and cash balance
  - Asset class, currency and account distributions
  - Exchange rate resolution with provenance
  - Recording accounts, assets, transactions, prices and rates

Example:
  portfolio --db ./portfolio.sqlite snapshot --as-of 2024-06-30`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

var (
	cfgFile          string
	dbPath           string
	currencyOverride string

	cfg *config.Config
	log = zap.NewNop()
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "path to SQLite ledger DB (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&currencyOverride, "reporting", "r", "", "reporting currency (overrides config)")
}

func setup(cmd *cobra.Command, args []string) error {
	c := config.Default()
	if cfgFile != "" {
		loaded, err := config.LoadFromFile(cfgFile)
		if err != nil {
			return err
		}
		c = loaded
	}
	if dbPath != "" {
		c.Store.DBPath = dbPath
	}
	if currencyOverride != "" {
		c.Reporting.Currency = strings.ToUpper(currencyOverride)
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	l, err := logger.New(c.Log)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	cfg, log = c, l
	return nil
}

func openStore() (*ledger.SQLite, error) {
	s, err := ledger.NewSQLite(cfg.Store.DBPath)
	if err != nil {
		log.Error("open ledger", zap.String("path", cfg.Store.DBPath), zap.Error(err))
		return nil, fmt.Errorf("open db: %w", err)
	}
	return s, nil
}

func newEngine(store ledger.Reader) *portfolio.Engine {
	return portfolio.NewEngine(store, cfg.Reporting.Currency,
		portfolio.WithFallbackRates(cfg.FX.Fallback),
		portfolio.WithLogger(log),
	)
}

// parseAsOf turns an optional YYYY-MM-DD flag into a date; empty means the
// whole ledger.
func parseAsOf(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	return ledger.ParseDate(s)
}
