// ledger/ledger.go
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrStoreUnavailable wraps every failed read or write against the store.
	ErrStoreUnavailable = errors.New("ledger store unavailable")
	// ErrInvalidRecord is returned when a stored row is missing a required field.
	ErrInvalidRecord = errors.New("invalid ledger record")
	ErrNotFound      = errors.New("not found")
)

// TxType is the kind of ledger entry. The set is open; the ones below are
// the types the valuation engine gives meaning to.
type TxType string

const (
	TxBuy      TxType = "BUY"
	TxSell     TxType = "SELL"
	TxDividend TxType = "DIVIDEND"
	TxInterest TxType = "INTEREST"
	TxDeposit  TxType = "DEPOSIT"
	TxWithdraw TxType = "WITHDRAW"
	TxTax      TxType = "TAX"
	TxFee      TxType = "FEE"
)

type AssetClass string

const (
	Equity      AssetClass = "EQUITY"
	Bond        AssetClass = "BOND"
	Commodity   AssetClass = "COMMODITY"
	REITs       AssetClass = "REITS"
	Cash        AssetClass = "CASH"
	Alternative AssetClass = "ALTERNATIVE"
	Multi       AssetClass = "MULTI"
	Benchmark   AssetClass = "BENCHMARK"
)

// Valid reports whether c is one of the known asset classes.
func (c AssetClass) Valid() bool {
	switch c {
	case Equity, Bond, Commodity, REITs, Cash, Alternative, Multi, Benchmark:
		return true
	}
	return false
}

// Transaction is one append-only ledger entry.
//
// CashFlow is signed: inflows (deposits, dividends, interest, sell proceeds)
// are positive and outflows (withdrawals, buys, fees, taxes) are negative.
// Qty follows the same direction for BUY (positive) and SELL (negative).
type Transaction struct {
	ID           string
	Date         time.Time
	Type         TxType
	AccountID    int64
	AssetID      *int64
	Qty          *float64
	Price        *float64
	Fee          float64
	Tax          float64
	CashFlow     float64
	Currency     string
	FXRateToBase *float64
	Note         string
}

type Account struct {
	ID           int64
	Name         string
	Broker       string
	BaseCurrency string
}

type Asset struct {
	ID         int64
	Ticker     string
	Name       string
	AssetClass AssetClass
	SubClass   string
	Currency   string
	Exchange   string
	ISIN       string
}

// MarketPrice is a closing price for one asset on one date. Ticker is filled
// in by queries that join the asset table.
type MarketPrice struct {
	AssetID int64
	Ticker  string
	Date    time.Time
	Close   float64
}

type ExchangeRate struct {
	From string
	To   string
	Date time.Time
	Rate float64
}

// RecentTransaction is a ledger row joined with its ticker and account name.
type RecentTransaction struct {
	ID       string
	Date     time.Time
	Type     TxType
	Ticker   string
	Account  string
	Qty      *float64
	Price    *float64
	CashFlow float64
	Currency string
}

// TxFilter narrows a transaction query. A zero Through means no upper bound;
// otherwise only entries dated on or before Through are returned.
type TxFilter struct {
	Types      []TxType
	Through    time.Time
	RequireQty bool
}

// Reader is the query surface the valuation engine depends on.
type Reader interface {
	Transactions(ctx context.Context, f TxFilter) ([]Transaction, error)
	Accounts(ctx context.Context) ([]Account, error)
	Assets(ctx context.Context) ([]Asset, error)
	LatestPrices(ctx context.Context) ([]MarketPrice, error)
	LatestRates(ctx context.Context, to string) ([]ExchangeRate, error)
}

const DateLayout = "2006-01-02"

// ParseDate parses a calendar date in YYYY-MM-DD form as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate renders the calendar day of t, ignoring its clock time.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Day truncates t to its calendar date in UTC, keeping the date as written.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (t Transaction) validate() error {
	switch {
	case t.Date.IsZero():
		return fmt.Errorf("%w: transaction %s has no date", ErrInvalidRecord, t.ID)
	case t.Type == "":
		return fmt.Errorf("%w: transaction %s has no type", ErrInvalidRecord, t.ID)
	case t.Currency == "":
		return fmt.Errorf("%w: transaction %s has no currency", ErrInvalidRecord, t.ID)
	case t.AccountID == 0:
		return fmt.Errorf("%w: transaction %s has no account", ErrInvalidRecord, t.ID)
	}
	return nil
}

func (a Asset) validate() error {
	switch {
	case a.Ticker == "":
		return fmt.Errorf("%w: asset %d has no ticker", ErrInvalidRecord, a.ID)
	case a.Currency == "":
		return fmt.Errorf("%w: asset %s has no currency", ErrInvalidRecord, a.Ticker)
	case !a.AssetClass.Valid():
		return fmt.Errorf("%w: asset %s has unknown class %q", ErrInvalidRecord, a.Ticker, a.AssetClass)
	}
	return nil
}

func (a Account) validate() error {
	if a.Name == "" {
		return fmt.Errorf("%w: account %d has no name", ErrInvalidRecord, a.ID)
	}
	return nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
