package portfolio

import (
	"sort"

	"github.com/shopspring/decimal"
)

// AssetClassLabels are the display names of asset classes.
var AssetClassLabels = map[string]string{
	"EQUITY":      "Equity",
	"BOND":        "Bonds",
	"COMMODITY":   "Commodities",
	"REITS":       "REITs",
	"CASH":        "Cash",
	"ALTERNATIVE": "Alternatives",
	"MULTI":       "Multi-asset",
	"BENCHMARK":   "Benchmark",
}

// CurrencyLabels are the display names of common currencies.
var CurrencyLabels = map[string]string{
	"CNY": "Chinese Yuan (CNY)",
	"USD": "US Dollar (USD)",
	"HKD": "Hong Kong Dollar (HKD)",
	"EUR": "Euro (EUR)",
	"GBP": "British Pound (GBP)",
	"JPY": "Japanese Yen (JPY)",
}

// Bucket is one group of a distribution. Value and WeightPct are rounded to
// two decimals; HasCostOnly is set when any member was valued at cost.
type Bucket struct {
	Key         string  `json:"key"`
	Label       string  `json:"label"`
	Value       float64 `json:"value"`
	WeightPct   float64 `json:"weight_pct"`
	Count       int     `json:"count"`
	HasCostOnly bool    `json:"has_cost_only"`
}

type Summary struct {
	TotalValue        float64 `json:"total_value"`
	SecurityValue     float64 `json:"security_value"`
	CashValue         float64 `json:"cash_value"`
	PositionCount     int     `json:"position_count"`
	PriceWarnCount    int     `json:"price_warn_count"`
	ReportingCurrency string  `json:"reporting_currency"`
}

// Analysis aggregates one snapshot. It never reads the store.
type Analysis struct {
	snap *Snapshot
}

func NewAnalysis(snap *Snapshot) *Analysis {
	if snap == nil {
		snap = &Snapshot{}
	}
	return &Analysis{snap: snap}
}

// ByAssetClass groups the snapshot by asset class, largest first.
func (a *Analysis) ByAssetClass() []Bucket {
	return a.distribution(func(it LineItem) string { return string(it.AssetClass) }, AssetClassLabels, nil)
}

// ByCurrency groups the snapshot by the currency items are denominated in.
func (a *Analysis) ByCurrency() []Bucket {
	return a.distribution(func(it LineItem) string { return it.Currency }, CurrencyLabels, nil)
}

// ByAccount groups cash items by account. Securities carry no account, so
// they are left out; weights stay relative to the whole portfolio and
// therefore sum to the cash share rather than 100.
func (a *Analysis) ByAccount() []Bucket {
	return a.distribution(
		func(it LineItem) string { return it.Account },
		nil,
		func(it LineItem) bool { return it.Category == Cash },
	)
}

func (a *Analysis) Summary() Summary {
	var total, securities, cash float64
	s := Summary{ReportingCurrency: a.snap.ReportingCurrency}
	for _, it := range a.snap.Items {
		total += it.ValueReporting
		switch it.Category {
		case Security:
			securities += it.ValueReporting
			s.PositionCount++
		case Cash:
			cash += it.ValueReporting
		}
		if it.PriceSource == PriceCost {
			s.PriceWarnCount++
		}
	}
	s.TotalValue = round2(total)
	s.SecurityValue = round2(securities)
	s.CashValue = round2(cash)
	return s
}

func (a *Analysis) total() float64 {
	var total float64
	for _, it := range a.snap.Items {
		total += it.ValueReporting
	}
	return total
}

// distribution sums items by key at full precision and rounds only the
// values it hands out.
func (a *Analysis) distribution(key func(LineItem) string, labels map[string]string, keep func(LineItem) bool) []Bucket {
	total := a.total()
	if total == 0 {
		return nil
	}

	type group struct {
		value    float64
		count    int
		costOnly bool
	}
	groups := make(map[string]*group)
	var keys []string
	for _, it := range a.snap.Items {
		if keep != nil && !keep(it) {
			continue
		}
		k := key(it)
		g, ok := groups[k]
		if !ok {
			g = &group{}
			groups[k] = g
			keys = append(keys, k)
		}
		g.value += it.ValueReporting
		g.count++
		if it.PriceSource == PriceCost {
			g.costOnly = true
		}
	}

	sort.SliceStable(keys, func(i, j int) bool {
		vi, vj := groups[keys[i]].value, groups[keys[j]].value
		if vi != vj {
			return vi > vj
		}
		return keys[i] < keys[j]
	})

	out := make([]Bucket, 0, len(keys))
	for _, k := range keys {
		g := groups[k]
		label := k
		if l, ok := labels[k]; ok {
			label = l
		}
		out = append(out, Bucket{
			Key:         k,
			Label:       label,
			Value:       round2(g.value),
			WeightPct:   round2(g.value / total * 100),
			Count:       g.count,
			HasCostOnly: g.costOnly,
		})
	}
	return out
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
