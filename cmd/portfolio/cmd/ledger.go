package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/portfolio/ledger"
	"github.com/rustyeddy/portfolio/report"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Record and inspect ledger data",
	Long: `Record accounts, assets, transactions, market prices and exchange rates,
and list the most recent transactions.

Subcommands:
  recent       - List the latest transactions
  add-account  - Create a brokerage account
  add-asset    - Create or update an asset
  add-tx       - Append a transaction
  add-price    - Record a closing price
  add-rate     - Record an exchange rate

Examples:
  portfolio ledger add-account --name IBKR --broker "Interactive Brokers" --currency USD
  portfolio ledger add-asset --ticker VT --name "Vanguard Total World" --class EQUITY --currency USD
  portfolio ledger add-tx --date 2024-01-05 --type BUY --account IBKR --ticker VT --qty 10 --price 100 --cash-flow -1000 --currency USD
  portfolio ledger add-price --ticker VT --date 2024-06-28 --close 112.4
  portfolio ledger add-rate --from USD --to CNY --date 2024-06-28 --rate 7.27
  portfolio ledger recent -n 20`,
}

var ledgerRecentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List the latest transactions",
	Args:  cobra.NoArgs,
	RunE:  runLedgerRecent,
}

var ledgerAddAccountCmd = &cobra.Command{
	Use:   "add-account",
	Short: "Create a brokerage account",
	Args:  cobra.NoArgs,
	RunE:  runLedgerAddAccount,
}

var ledgerAddAssetCmd = &cobra.Command{
	Use:   "add-asset",
	Short: "Create or update an asset",
	Args:  cobra.NoArgs,
	RunE:  runLedgerAddAsset,
}

var ledgerAddTxCmd = &cobra.Command{
	Use:   "add-tx",
	Short: "Append a transaction",
	Args:  cobra.NoArgs,
	RunE:  runLedgerAddTx,
}

var ledgerAddPriceCmd = &cobra.Command{
	Use:   "add-price",
	Short: "Record a closing price",
	Args:  cobra.NoArgs,
	RunE:  runLedgerAddPrice,
}

var ledgerAddRateCmd = &cobra.Command{
	Use:   "add-rate",
	Short: "Record an exchange rate",
	Args:  cobra.NoArgs,
	RunE:  runLedgerAddRate,
}

var (
	recentLimit int

	acctName     string
	acctBroker   string
	acctCurrency string

	assetTicker   string
	assetName     string
	assetClass    string
	assetSubClass string
	assetCurrency string
	assetExchange string
	assetISIN     string

	txID       string
	txDate     string
	txType     string
	txAccount  string
	txTicker   string
	txQty      float64
	txPrice    float64
	txFee      float64
	txTax      float64
	txCashFlow float64
	txCurrency string
	txFXRate   float64
	txNote     string

	priceTicker string
	priceDate   string
	priceClose  float64

	rateFrom  string
	rateTo    string
	rateDate  string
	rateValue float64
)

func init() {
	rootCmd.AddCommand(ledgerCmd)
	ledgerCmd.AddCommand(ledgerRecentCmd)
	ledgerCmd.AddCommand(ledgerAddAccountCmd)
	ledgerCmd.AddCommand(ledgerAddAssetCmd)
	ledgerCmd.AddCommand(ledgerAddTxCmd)
	ledgerCmd.AddCommand(ledgerAddPriceCmd)
	ledgerCmd.AddCommand(ledgerAddRateCmd)

	ledgerRecentCmd.Flags().IntVarP(&recentLimit, "limit", "n", 10, "number of transactions to list")

	f := ledgerAddAccountCmd.Flags()
	f.StringVar(&acctName, "name", "", "unique account name (required)")
	f.StringVar(&acctBroker, "broker", "", "broker name")
	f.StringVar(&acctCurrency, "currency", "CNY", "account base currency")
	ledgerAddAccountCmd.MarkFlagRequired("name")

	f = ledgerAddAssetCmd.Flags()
	f.StringVar(&assetTicker, "ticker", "", "unique ticker (required)")
	f.StringVar(&assetName, "name", "", "display name")
	f.StringVar(&assetClass, "class", "", "asset class: EQUITY, BOND, COMMODITY, REITS, CASH, ALTERNATIVE, MULTI, BENCHMARK (required)")
	f.StringVar(&assetSubClass, "sub-class", "", "free-form sub-class")
	f.StringVar(&assetCurrency, "currency", "", "denomination currency (required)")
	f.StringVar(&assetExchange, "exchange", "", "listing exchange")
	f.StringVar(&assetISIN, "isin", "", "ISIN")
	ledgerAddAssetCmd.MarkFlagRequired("ticker")
	ledgerAddAssetCmd.MarkFlagRequired("class")
	ledgerAddAssetCmd.MarkFlagRequired("currency")

	f = ledgerAddTxCmd.Flags()
	f.StringVar(&txID, "id", "", "transaction ID (a ULID is generated when empty)")
	f.StringVar(&txDate, "date", "", "trade date YYYY-MM-DD (default today)")
	f.StringVar(&txType, "type", "", "BUY, SELL, DIVIDEND, INTEREST, DEPOSIT, WITHDRAW, TAX or FEE (required)")
	f.StringVar(&txAccount, "account", "", "account name (required)")
	f.StringVar(&txTicker, "ticker", "", "asset ticker for security transactions")
	f.Float64Var(&txQty, "qty", 0, "signed quantity: positive for BUY, negative for SELL")
	f.Float64Var(&txPrice, "price", 0, "unit price in the transaction currency")
	f.Float64Var(&txFee, "fee", 0, "fee paid")
	f.Float64Var(&txTax, "tax", 0, "tax paid")
	f.Float64Var(&txCashFlow, "cash-flow", 0, "signed cash movement: inflows positive, outflows negative")
	f.StringVar(&txCurrency, "currency", "", "transaction currency (required)")
	f.Float64Var(&txFXRate, "fx-rate", 0, "rate to the account base currency at trade time")
	f.StringVar(&txNote, "note", "", "free-form note")
	ledgerAddTxCmd.MarkFlagRequired("type")
	ledgerAddTxCmd.MarkFlagRequired("account")
	ledgerAddTxCmd.MarkFlagRequired("currency")

	f = ledgerAddPriceCmd.Flags()
	f.StringVar(&priceTicker, "ticker", "", "asset ticker (required)")
	f.StringVar(&priceDate, "date", "", "price date YYYY-MM-DD (default today)")
	f.Float64Var(&priceClose, "close", 0, "closing price (required)")
	ledgerAddPriceCmd.MarkFlagRequired("ticker")
	ledgerAddPriceCmd.MarkFlagRequired("close")

	f = ledgerAddRateCmd.Flags()
	f.StringVar(&rateFrom, "from", "", "source currency (required)")
	f.StringVar(&rateTo, "to", "", "target currency (default reporting currency)")
	f.StringVar(&rateDate, "date", "", "rate date YYYY-MM-DD (default today)")
	f.Float64Var(&rateValue, "rate", 0, "units of target per unit of source (required)")
	ledgerAddRateCmd.MarkFlagRequired("from")
	ledgerAddRateCmd.MarkFlagRequired("rate")
}

func runLedgerRecent(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	recs, err := store.RecentTransactions(cmd.Context(), recentLimit)
	if err != nil {
		log.Error("recent transactions", zap.Error(err))
		return fmt.Errorf("query transactions: %w", err)
	}

	fmt.Fprint(cmd.OutOrStdout(), report.FormatRecentOrg(recs))
	return nil
}

func runLedgerAddAccount(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	id, err := store.AddAccount(cmd.Context(), ledger.Account{
		Name:         acctName,
		Broker:       acctBroker,
		BaseCurrency: strings.ToUpper(acctCurrency),
	})
	if err != nil {
		return fmt.Errorf("add account: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Account %s (id %d)\n", acctName, id)
	return nil
}

func runLedgerAddAsset(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	id, err := store.UpsertAsset(cmd.Context(), ledger.Asset{
		Ticker:     assetTicker,
		Name:       assetName,
		AssetClass: ledger.AssetClass(strings.ToUpper(assetClass)),
		SubClass:   assetSubClass,
		Currency:   strings.ToUpper(assetCurrency),
		Exchange:   assetExchange,
		ISIN:       assetISIN,
	})
	if err != nil {
		return fmt.Errorf("add asset: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Asset %s (id %d)\n", assetTicker, id)
	return nil
}

func runLedgerAddTx(cmd *cobra.Command, args []string) error {
	date, err := dateOrToday(txDate)
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	acctID, err := store.AccountIDByName(ctx, txAccount)
	if err != nil {
		return fmt.Errorf("account %q: %w", txAccount, err)
	}

	t := ledger.Transaction{
		ID:        txID,
		Date:      date,
		Type:      ledger.TxType(strings.ToUpper(txType)),
		AccountID: acctID,
		Fee:       txFee,
		Tax:       txTax,
		CashFlow:  txCashFlow,
		Currency:  strings.ToUpper(txCurrency),
		Note:      txNote,
	}
	if txTicker != "" {
		assetID, err := store.AssetIDByTicker(ctx, txTicker)
		if err != nil {
			return fmt.Errorf("asset %q: %w", txTicker, err)
		}
		t.AssetID = &assetID
	}
	flags := cmd.Flags()
	if flags.Changed("qty") {
		t.Qty = &txQty
	}
	if flags.Changed("price") {
		t.Price = &txPrice
	}
	if flags.Changed("fx-rate") {
		t.FXRateToBase = &txFXRate
	}

	id, err := store.AddTransaction(ctx, t)
	if err != nil {
		return fmt.Errorf("add transaction: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s %s on %s (id %s)\n", t.Type, txAccount, ledger.FormatDate(date), id)
	return nil
}

func runLedgerAddPrice(cmd *cobra.Command, args []string) error {
	date, err := dateOrToday(priceDate)
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	assetID, err := store.AssetIDByTicker(ctx, priceTicker)
	if err != nil {
		return fmt.Errorf("asset %q: %w", priceTicker, err)
	}
	if err := store.AddMarketPrice(ctx, ledger.MarketPrice{AssetID: assetID, Date: date, Close: priceClose}); err != nil {
		return fmt.Errorf("add price: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s closed at %g on %s\n", priceTicker, priceClose, ledger.FormatDate(date))
	return nil
}

func runLedgerAddRate(cmd *cobra.Command, args []string) error {
	date, err := dateOrToday(rateDate)
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}
	to := rateTo
	if to == "" {
		to = cfg.Reporting.Currency
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	r := ledger.ExchangeRate{
		From: strings.ToUpper(rateFrom),
		To:   strings.ToUpper(to),
		Date: date,
		Rate: rateValue,
	}
	if err := store.AddExchangeRate(cmd.Context(), r); err != nil {
		return fmt.Errorf("add rate: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ 1 %s = %g %s on %s\n", r.From, r.Rate, r.To, ledger.FormatDate(date))
	return nil
}

func dateOrToday(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return ledger.Day(time.Now()), nil
	}
	return ledger.ParseDate(strings.TrimSpace(s))
}
