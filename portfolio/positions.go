package portfolio

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rustyeddy/portfolio/ledger"
)

const (
	// MinQty is the smallest holding still reported as open.
	MinQty = 0.0001
	// MinCash filters floating point residue out of cash balances.
	MinCash = 0.01
)

// Position is a derived holding of one asset. AvgCost is nil when the asset
// has no buys to average over.
type Position struct {
	AssetID    int64
	Ticker     string
	Name       string
	AssetClass ledger.AssetClass
	SubClass   string
	Currency   string
	TotalQty   float64
	AvgCost    *float64
}

type CashBalance struct {
	AccountID   int64
	AccountName string
	Currency    string
	Balance     float64
}

// Positions aggregates BUY and SELL entries dated on or before asOf (all
// entries when asOf is zero) into open holdings with a weighted average
// buy cost. Results are ordered by asset class, currency, then ticker.
func Positions(ctx context.Context, store ledger.Reader, asOf time.Time) ([]Position, error) {
	txs, err := store.Transactions(ctx, ledger.TxFilter{
		Types:      []ledger.TxType{ledger.TxBuy, ledger.TxSell},
		RequireQty: true,
		Through:    throughDate(asOf),
	})
	if err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}
	assets, err := store.Assets(ctx)
	if err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}
	byID := make(map[int64]ledger.Asset, len(assets))
	for _, a := range assets {
		byID[a.ID] = a
	}

	type acc struct {
		qty, buyQty, buyCost float64
	}
	sums := make(map[int64]*acc)
	var order []int64
	for _, tx := range txs {
		if tx.Qty == nil || tx.AssetID == nil {
			continue
		}
		if _, ok := byID[*tx.AssetID]; !ok {
			return nil, fmt.Errorf("positions: %w: transaction %s references unknown asset %d",
				ledger.ErrInvalidRecord, tx.ID, *tx.AssetID)
		}
		s, ok := sums[*tx.AssetID]
		if !ok {
			s = &acc{}
			sums[*tx.AssetID] = s
			order = append(order, *tx.AssetID)
		}
		qty := *tx.Qty
		s.qty += qty
		if qty > 0 {
			s.buyQty += qty
			// A buy without a price still counts towards the quantity
			// the cost is averaged over.
			if tx.Price != nil {
				s.buyCost += qty * *tx.Price
			}
		}
	}

	out := make([]Position, 0, len(order))
	for _, assetID := range order {
		s := sums[assetID]
		if s.qty <= MinQty {
			continue
		}
		a := byID[assetID]
		p := Position{
			AssetID:    a.ID,
			Ticker:     a.Ticker,
			Name:       a.Name,
			AssetClass: a.AssetClass,
			SubClass:   a.SubClass,
			Currency:   a.Currency,
			TotalQty:   s.qty,
		}
		if s.buyQty != 0 {
			avg := s.buyCost / s.buyQty
			p.AvgCost = &avg
		}
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.AssetClass != b.AssetClass {
			return a.AssetClass < b.AssetClass
		}
		if a.Currency != b.Currency {
			return a.Currency < b.Currency
		}
		return a.Ticker < b.Ticker
	})
	return out, nil
}

// CashBalances sums the signed cash flow of every entry, whatever its type,
// per account and currency. Balances within MinCash of zero are dropped.
// Results are ordered by account name, then currency.
func CashBalances(ctx context.Context, store ledger.Reader, asOf time.Time) ([]CashBalance, error) {
	txs, err := store.Transactions(ctx, ledger.TxFilter{Through: throughDate(asOf)})
	if err != nil {
		return nil, fmt.Errorf("cash balances: %w", err)
	}
	accounts, err := store.Accounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("cash balances: %w", err)
	}
	byID := make(map[int64]ledger.Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}

	type key struct {
		account  int64
		currency string
	}
	sums := make(map[key]float64)
	var order []key
	for _, tx := range txs {
		if _, ok := byID[tx.AccountID]; !ok {
			return nil, fmt.Errorf("cash balances: %w: transaction %s references unknown account %d",
				ledger.ErrInvalidRecord, tx.ID, tx.AccountID)
		}
		k := key{tx.AccountID, tx.Currency}
		if _, ok := sums[k]; !ok {
			order = append(order, k)
		}
		sums[k] += tx.CashFlow
	}

	out := make([]CashBalance, 0, len(order))
	for _, k := range order {
		bal := sums[k]
		if math.Abs(bal) <= MinCash {
			continue
		}
		out = append(out, CashBalance{
			AccountID:   k.account,
			AccountName: byID[k.account].Name,
			Currency:    k.currency,
			Balance:     bal,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].AccountName != out[j].AccountName {
			return out[i].AccountName < out[j].AccountName
		}
		return out[i].Currency < out[j].Currency
	})
	return out, nil
}

func throughDate(asOf time.Time) time.Time {
	if asOf.IsZero() {
		return time.Time{}
	}
	return ledger.Day(asOf)
}
