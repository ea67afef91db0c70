package portfolio

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/portfolio/ledger"
)

// memLedger is an in-memory ledger.Reader with the same filtering and
// latest-per-key rules as the SQLite store.
type memLedger struct {
	txs      []ledger.Transaction
	accounts []ledger.Account
	assets   []ledger.Asset
	prices   []ledger.MarketPrice
	rates    []ledger.ExchangeRate

	failOn string
	calls  map[string]int
}

var _ ledger.Reader = (*memLedger)(nil)

func newMem() *memLedger {
	return &memLedger{calls: make(map[string]int)}
}

func (m *memLedger) hit(op string) error {
	m.calls[op]++
	if m.failOn == op {
		return ledger.ErrStoreUnavailable
	}
	return nil
}

func (m *memLedger) Transactions(ctx context.Context, f ledger.TxFilter) ([]ledger.Transaction, error) {
	if err := m.hit("transactions"); err != nil {
		return nil, err
	}
	types := make(map[ledger.TxType]bool)
	for _, t := range f.Types {
		types[t] = true
	}
	var out []ledger.Transaction
	for _, tx := range m.txs {
		if len(types) > 0 && !types[tx.Type] {
			continue
		}
		if f.RequireQty && tx.Qty == nil {
			continue
		}
		if !f.Through.IsZero() && tx.Date.After(f.Through) {
			continue
		}
		out = append(out, tx)
	}
	return out, nil
}

func (m *memLedger) Accounts(ctx context.Context) ([]ledger.Account, error) {
	if err := m.hit("accounts"); err != nil {
		return nil, err
	}
	return m.accounts, nil
}

func (m *memLedger) Assets(ctx context.Context) ([]ledger.Asset, error) {
	if err := m.hit("assets"); err != nil {
		return nil, err
	}
	return m.assets, nil
}

func (m *memLedger) LatestPrices(ctx context.Context) ([]ledger.MarketPrice, error) {
	if err := m.hit("prices"); err != nil {
		return nil, err
	}
	latest := make(map[int64]ledger.MarketPrice)
	var order []int64
	for _, p := range m.prices {
		cur, ok := latest[p.AssetID]
		if !ok {
			order = append(order, p.AssetID)
		}
		if !ok || !cur.Date.After(p.Date) {
			latest[p.AssetID] = p
		}
	}
	var out []ledger.MarketPrice
	for _, assetID := range order {
		p := latest[assetID]
		for _, a := range m.assets {
			if a.ID == assetID {
				p.Ticker = a.Ticker
			}
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *memLedger) LatestRates(ctx context.Context, to string) ([]ledger.ExchangeRate, error) {
	if err := m.hit("rates"); err != nil {
		return nil, err
	}
	latest := make(map[string]ledger.ExchangeRate)
	var order []string
	for _, r := range m.rates {
		if r.To != to {
			continue
		}
		cur, ok := latest[r.From]
		if !ok {
			order = append(order, r.From)
		}
		if !ok || !cur.Date.After(r.Date) {
			latest[r.From] = r
		}
	}
	var out []ledger.ExchangeRate
	for _, from := range order {
		out = append(out, latest[from])
	}
	return out, nil
}

func (m *memLedger) account(name string) int64 {
	accountID := int64(len(m.accounts) + 1)
	m.accounts = append(m.accounts, ledger.Account{ID: accountID, Name: name, BaseCurrency: "CNY"})
	return accountID
}

func (m *memLedger) asset(ticker string, class ledger.AssetClass, currency string) int64 {
	assetID := int64(len(m.assets) + 1)
	m.assets = append(m.assets, ledger.Asset{
		ID: assetID, Ticker: ticker, Name: ticker + " name", AssetClass: class, Currency: currency,
	})
	return assetID
}

func (m *memLedger) trade(date string, account, asset int64, qty, price float64, currency string) {
	typ := ledger.TxBuy
	if qty < 0 {
		typ = ledger.TxSell
	}
	m.txs = append(m.txs, ledger.Transaction{
		ID:        date + string(typ),
		Date:      day(date),
		Type:      typ,
		AccountID: account,
		AssetID:   &asset,
		Qty:       &qty,
		Price:     &price,
		CashFlow:  -qty * price,
		Currency:  currency,
	})
}

func (m *memLedger) cash(date string, typ ledger.TxType, account int64, flow float64, currency string) {
	m.txs = append(m.txs, ledger.Transaction{
		ID:        date + string(typ),
		Date:      day(date),
		Type:      typ,
		AccountID: account,
		CashFlow:  flow,
		Currency:  currency,
	})
}

func (m *memLedger) price(date string, asset int64, close float64) {
	m.prices = append(m.prices, ledger.MarketPrice{AssetID: asset, Date: day(date), Close: close})
}

func (m *memLedger) rate(date, from, to string, v float64) {
	m.rates = append(m.rates, ledger.ExchangeRate{From: from, To: to, Date: day(date), Rate: v})
}

func day(s string) time.Time {
	d, err := ledger.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func findItem(t *testing.T, snap *Snapshot, ticker string) LineItem {
	t.Helper()
	for _, it := range snap.Items {
		if it.Ticker == ticker {
			return it
		}
	}
	require.Failf(t, "missing line item", "ticker %s", ticker)
	return LineItem{}
}
