package report

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"

	"github.com/rustyeddy/portfolio/ledger"
	"github.com/rustyeddy/portfolio/portfolio"
)

// Amount renders v in currency code using the currency's symbol and
// fraction digits. Codes go-money does not know fall back to "1234.56 XYZ".
func Amount(v float64, code string) string {
	if money.GetCurrency(code) == nil {
		return fmt.Sprintf("%.2f %s", v, code)
	}
	return money.NewFromFloat(v, code).Display()
}

// FormatSnapshotOrg renders every line item as an Org table under a
// heading naming the reporting currency and as-of date.
func FormatSnapshotOrg(snap *portfolio.Snapshot) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("* Holdings (%s, %s)\n", snap.ReportingCurrency, asOf(snap)))
	if len(snap.Items) == 0 {
		b.WriteString("No holdings.\n")
		return b.String()
	}

	b.WriteString("| Ticker | Name | Class | Currency | Qty | Unit cost | Unit price | Price source | Local value | Value |\n")
	b.WriteString("|--------+------+-------+----------+-----+-----------+------------+--------------+-------------+-------|\n")
	for _, it := range snap.Items {
		b.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %.4f | %.4f | %s | %s | %s |\n",
			it.Ticker,
			it.Name,
			it.AssetClass,
			it.Currency,
			qty(it.Qty),
			it.UnitCost,
			it.UnitPrice,
			priceSource(it),
			Amount(it.ValueLocal, it.Currency),
			Amount(it.ValueReporting, snap.ReportingCurrency),
		))
	}
	return b.String()
}

// FormatDistributionOrg renders one distribution as an Org table.
func FormatDistributionOrg(title string, buckets []portfolio.Bucket, currency string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("* %s\n", title))
	if len(buckets) == 0 {
		b.WriteString("Nothing to distribute.\n")
		return b.String()
	}

	b.WriteString("| Group | Value | Weight | Count |\n")
	b.WriteString("|-------+-------+--------+-------|\n")
	for _, bk := range buckets {
		label := bk.Label
		if bk.HasCostOnly {
			label += " *"
		}
		b.WriteString(fmt.Sprintf("| %s | %s | %.2f%% | %d |\n", label, Amount(bk.Value, currency), bk.WeightPct, bk.Count))
	}
	for _, bk := range buckets {
		if bk.HasCostOnly {
			b.WriteString("\n* marks groups holding positions valued at cost.\n")
			break
		}
	}
	return b.String()
}

// FormatSummaryOrg renders the key totals as a PROPERTIES drawer followed by
// any data quality warnings an operator should act on.
func FormatSummaryOrg(s portfolio.Summary, snap *portfolio.Snapshot) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("* Summary (%s, %s)\n", s.ReportingCurrency, asOf(snap)))
	b.WriteString(":PROPERTIES:\n")
	b.WriteString(fmt.Sprintf(":TOTAL_VALUE: %s\n", Amount(s.TotalValue, s.ReportingCurrency)))
	b.WriteString(fmt.Sprintf(":SECURITY_VALUE: %s\n", Amount(s.SecurityValue, s.ReportingCurrency)))
	b.WriteString(fmt.Sprintf(":CASH_VALUE: %s\n", Amount(s.CashValue, s.ReportingCurrency)))
	b.WriteString(fmt.Sprintf(":POSITIONS: %d\n", s.PositionCount))
	b.WriteString(fmt.Sprintf(":PRICE_WARNINGS: %d\n", s.PriceWarnCount))
	b.WriteString(":END:\n")

	if s.PriceWarnCount > 0 {
		b.WriteString(fmt.Sprintf("\nWARNING: %d position(s) have no market price and are valued at average cost.\n", s.PriceWarnCount))
	}
	if snap != nil {
		for _, w := range snap.MissingRates {
			b.WriteString(fmt.Sprintf("WARNING: %s\n", w))
		}
	}
	return b.String()
}

// FormatReportOrg renders the summary, the asset class and currency
// distributions, the cash by account and the holdings table.
func FormatReportOrg(snap *portfolio.Snapshot) string {
	a := portfolio.NewAnalysis(snap)
	cur := snap.ReportingCurrency

	sections := []string{
		FormatSummaryOrg(a.Summary(), snap),
		FormatDistributionOrg("Asset classes", a.ByAssetClass(), cur),
		FormatDistributionOrg("Currencies", a.ByCurrency(), cur),
		FormatDistributionOrg("Cash by account", a.ByAccount(), cur),
		FormatSnapshotOrg(snap),
	}
	return strings.Join(sections, "\n")
}

// FormatRecentOrg renders recent ledger entries newest first.
func FormatRecentOrg(recs []ledger.RecentTransaction) string {
	var b strings.Builder
	b.WriteString("* Recent transactions\n")
	if len(recs) == 0 {
		b.WriteString("Ledger is empty.\n")
		return b.String()
	}
	b.WriteString("| Date | Type | Ticker | Account | Qty | Price | Cash flow |\n")
	b.WriteString("|------+------+--------+---------+-----+-------+-----------|\n")
	for _, r := range recs {
		b.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s | %s |\n",
			ledger.FormatDate(r.Date),
			r.Type,
			r.Ticker,
			r.Account,
			optional(r.Qty),
			optional(r.Price),
			Amount(r.CashFlow, r.Currency),
		))
	}
	return b.String()
}

func asOf(snap *portfolio.Snapshot) string {
	if snap == nil || snap.AsOf.IsZero() {
		return "latest"
	}
	return "as of " + ledger.FormatDate(snap.AsOf)
}

func priceSource(it portfolio.LineItem) string {
	if it.PriceSource == portfolio.PriceMarket && !it.PriceDate.IsZero() {
		return fmt.Sprintf("%s %s", it.PriceSource, ledger.FormatDate(it.PriceDate))
	}
	return string(it.PriceSource)
}

func qty(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.4f", v), "0"), ".")
}

func optional(v *float64) string {
	if v == nil {
		return "-"
	}
	return qty(*v)
}
