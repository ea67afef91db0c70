// Package portfolio turns the ledger into a valued, single-currency
// snapshot of securities and cash, and breaks that snapshot down by
// asset class, currency and account.
package portfolio

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/portfolio/fx"
	"github.com/rustyeddy/portfolio/ledger"
)

type Category string

const (
	Security Category = "SECURITY"
	Cash     Category = "CASH"
)

// PriceSource tags how a line item's unit price was obtained.
type PriceSource string

const (
	PriceMarket        PriceSource = "market"
	PriceCost          PriceSource = "cost"
	PriceNotApplicable PriceSource = "n/a"
)

// LineItem is one row of a snapshot. Account is set for cash rows only;
// PriceDate is set only when PriceSource is market.
type LineItem struct {
	Category          Category          `json:"category"`
	Ticker            string            `json:"ticker"`
	Name              string            `json:"name"`
	AssetClass        ledger.AssetClass `json:"asset_class"`
	SubClass          string            `json:"sub_class"`
	Currency          string            `json:"currency"`
	Account           string            `json:"account,omitempty"`
	Qty               float64           `json:"qty"`
	UnitCost          float64           `json:"unit_cost"`
	UnitPrice         float64           `json:"unit_price"`
	PriceSource       PriceSource       `json:"price_source"`
	PriceDate         time.Time         `json:"price_date,omitzero"`
	ValueLocal        float64           `json:"value_in_local_currency"`
	ValueReporting    float64           `json:"value_in_reporting_currency"`
	ReportingCurrency string            `json:"reporting_currency"`
	RateSource        fx.Source         `json:"rate_source"`
}

// Snapshot is a complete valuation at one point in time. A zero AsOf means
// the whole ledger was used.
type Snapshot struct {
	ReportingCurrency string                  `json:"reporting_currency"`
	AsOf              time.Time               `json:"as_of,omitzero"`
	Items             []LineItem              `json:"items"`
	MissingRates      []fx.MissingRateWarning `json:"missing_rates,omitempty"`
	CostFallbacks     int                     `json:"cost_fallbacks"`
}

// Engine values the ledger in one reporting currency. It keeps no state
// between calls; every Snapshot is rebuilt from the store.
type Engine struct {
	store    ledger.Reader
	currency string
	fallback fx.Table
	log      *zap.Logger
}

type Option func(*Engine)

// WithFallbackRates replaces the built-in static rate table.
func WithFallbackRates(t fx.Table) Option {
	return func(e *Engine) { e.fallback = t }
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

func NewEngine(store ledger.Reader, reportingCurrency string, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		currency: reportingCurrency,
		fallback: fx.DefaultTable(),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) ReportingCurrency() string {
	return e.currency
}

// Rates loads a resolver over the current persisted rates.
func (e *Engine) Rates(ctx context.Context) (*fx.Resolver, error) {
	return fx.Load(ctx, e.store, e.currency, e.fallback, e.log)
}

// Snapshot values every open position and positive cash balance as of asOf
// (the whole ledger when asOf is zero). Any store failure aborts the call;
// missing prices and rates degrade to cost basis and 1:1 conversion and are
// reported on the snapshot.
func (e *Engine) Snapshot(ctx context.Context, asOf time.Time) (*Snapshot, error) {
	positions, err := Positions(ctx, e.store, asOf)
	if err != nil {
		return nil, err
	}
	balances, err := CashBalances(ctx, e.store, asOf)
	if err != nil {
		return nil, err
	}
	quotes, err := LatestPrices(ctx, e.store)
	if err != nil {
		return nil, err
	}
	rates, err := e.Rates(ctx)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		ReportingCurrency: e.currency,
		AsOf:              throughDate(asOf),
		Items:             make([]LineItem, 0, len(positions)+len(balances)),
	}

	for _, p := range positions {
		item := e.securityItem(p, quotes, rates)
		if item.PriceSource == PriceCost {
			snap.CostFallbacks++
		}
		snap.Items = append(snap.Items, item)
	}
	for _, b := range balances {
		// Overdrawn balances are left out of the valuation.
		if b.Balance <= 0 {
			continue
		}
		snap.Items = append(snap.Items, e.cashItem(b, rates))
	}

	sort.SliceStable(snap.Items, func(i, j int) bool {
		a, b := snap.Items[i], snap.Items[j]
		if a.AssetClass != b.AssetClass {
			return a.AssetClass < b.AssetClass
		}
		if a.Currency != b.Currency {
			return a.Currency < b.Currency
		}
		return a.Ticker < b.Ticker
	})
	snap.MissingRates = rates.Warnings()

	e.log.Info("snapshot assembled",
		zap.String("reporting_currency", e.currency),
		zap.String("as_of", asOfLabel(snap.AsOf)),
		zap.Int("positions", len(positions)),
		zap.Int("items", len(snap.Items)),
		zap.Int("cost_fallbacks", snap.CostFallbacks),
		zap.Int("missing_rates", len(snap.MissingRates)),
	)
	return snap, nil
}

func (e *Engine) securityItem(p Position, quotes map[string]Quote, rates *fx.Resolver) LineItem {
	var cost float64
	if p.AvgCost != nil {
		cost = *p.AvgCost
	}

	item := LineItem{
		Category:          Security,
		Ticker:            p.Ticker,
		Name:              p.Name,
		AssetClass:        p.AssetClass,
		SubClass:          p.SubClass,
		Currency:          p.Currency,
		Qty:               p.TotalQty,
		UnitCost:          cost,
		ReportingCurrency: e.currency,
	}

	if q, ok := quotes[p.Ticker]; ok {
		item.UnitPrice = q.Price
		item.PriceSource = PriceMarket
		item.PriceDate = q.AsOf
	} else {
		item.UnitPrice = cost
		item.PriceSource = PriceCost
		e.log.Debug("no market price, valuing at cost",
			zap.String("ticker", p.Ticker),
			zap.Bool("has_cost", p.AvgCost != nil),
		)
	}

	item.ValueLocal = item.Qty * item.UnitPrice
	value, rate := rates.Convert(item.ValueLocal, p.Currency, e.currency)
	item.ValueReporting = value
	item.RateSource = rate.Source
	return item
}

func (e *Engine) cashItem(b CashBalance, rates *fx.Resolver) LineItem {
	value, rate := rates.Convert(b.Balance, b.Currency, e.currency)
	return LineItem{
		Category:          Cash,
		Ticker:            fmt.Sprintf("%s_%s", b.AccountName, b.Currency),
		Name:              b.AccountName + " cash",
		AssetClass:        ledger.Cash,
		SubClass:          b.Currency,
		Currency:          b.Currency,
		Account:           b.AccountName,
		Qty:               b.Balance,
		UnitCost:          1.0,
		UnitPrice:         1.0,
		PriceSource:       PriceNotApplicable,
		ValueLocal:        b.Balance,
		ValueReporting:    value,
		ReportingCurrency: e.currency,
		RateSource:        rate.Source,
	}
}

func asOfLabel(t time.Time) string {
	if t.IsZero() {
		return "latest"
	}
	return ledger.FormatDate(t)
}
