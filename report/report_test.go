package report

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/portfolio/fx"
	"github.com/rustyeddy/portfolio/ledger"
	"github.com/rustyeddy/portfolio/portfolio"
)

func sampleSnapshot() *portfolio.Snapshot {
	return &portfolio.Snapshot{
		ReportingCurrency: "USD",
		AsOf:              time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		Items: []portfolio.LineItem{
			{
				Category: portfolio.Cash, Ticker: "Main_USD", Name: "Main cash", AssetClass: ledger.Cash,
				SubClass: "USD", Currency: "USD", Account: "Main", Qty: 250, UnitCost: 1, UnitPrice: 1,
				PriceSource: portfolio.PriceNotApplicable, ValueLocal: 250, ValueReporting: 250,
				ReportingCurrency: "USD", RateSource: fx.Identity,
			},
			{
				Category: portfolio.Security, Ticker: "VT", Name: "Vanguard Total World", AssetClass: ledger.Equity,
				Currency: "USD", Qty: 10, UnitCost: 90, UnitPrice: 100.5, PriceSource: portfolio.PriceMarket,
				PriceDate: time.Date(2024, 3, 28, 0, 0, 0, 0, time.UTC), ValueLocal: 1005, ValueReporting: 1005,
				ReportingCurrency: "USD", RateSource: fx.Identity,
			},
			{
				Category: portfolio.Security, Ticker: "ODD", Name: "Odd fund", AssetClass: ledger.Alternative,
				Currency: "XYZ", Qty: 3, UnitCost: 5, UnitPrice: 5, PriceSource: portfolio.PriceCost,
				ValueLocal: 15, ValueReporting: 15, ReportingCurrency: "USD", RateSource: fx.Missing,
			},
		},
		MissingRates:  []fx.MissingRateWarning{{From: "XYZ", To: "USD"}},
		CostFallbacks: 1,
	}
}

func TestAmount(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "$1,234.50", Amount(1234.5, "USD"))
	assert.Equal(t, "12.30 XYZ", Amount(12.3, "XYZ"))
}

func TestWriteSnapshotCSV(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteSnapshotCSV(&buf, sampleSnapshot()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, snapshotHeader, rows[0])

	vt := rows[2]
	assert.Equal(t, "SECURITY", vt[0])
	assert.Equal(t, "VT", vt[1])
	assert.Equal(t, "100.5", vt[9])
	assert.Equal(t, "market", vt[10])
	assert.Equal(t, "2024-03-28", vt[11])
	assert.Equal(t, "1005", vt[13])
	assert.Equal(t, "identity", vt[15])

	cash := rows[1]
	assert.Equal(t, "Main", cash[6])
	assert.Equal(t, "n/a", cash[10])
	assert.Equal(t, "", cash[11])
}

func TestWriteSnapshotCSVEmpty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteSnapshotCSV(&buf, &portfolio.Snapshot{ReportingCurrency: "CNY"}))
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
}

func TestFormatSnapshotOrg(t *testing.T) {
	t.Parallel()

	out := FormatSnapshotOrg(sampleSnapshot())
	assert.True(t, strings.HasPrefix(out, "* Holdings (USD, as of 2024-03-31)\n"))
	assert.Contains(t, out, "| VT | Vanguard Total World | EQUITY | USD | 10 | 90.0000 | 100.5000 | market 2024-03-28 | $1,005.00 | $1,005.00 |")
	assert.Contains(t, out, "| ODD | Odd fund | ALTERNATIVE | XYZ | 3 |")
	assert.Contains(t, out, "| cost | 15.00 XYZ | $15.00 |")

	empty := FormatSnapshotOrg(&portfolio.Snapshot{ReportingCurrency: "CNY"})
	assert.Equal(t, "* Holdings (CNY, latest)\nNo holdings.\n", empty)
}

func TestFormatSummaryOrg(t *testing.T) {
	t.Parallel()

	snap := sampleSnapshot()
	out := FormatSummaryOrg(portfolio.NewAnalysis(snap).Summary(), snap)

	assert.Contains(t, out, ":TOTAL_VALUE: $1,270.00\n")
	assert.Contains(t, out, ":SECURITY_VALUE: $1,020.00\n")
	assert.Contains(t, out, ":CASH_VALUE: $250.00\n")
	assert.Contains(t, out, ":POSITIONS: 2\n")
	assert.Contains(t, out, ":PRICE_WARNINGS: 1\n")
	assert.Contains(t, out, "WARNING: 1 position(s) have no market price")
	assert.Contains(t, out, "WARNING: no exchange rate for XYZ/USD, using 1.0")
}

func TestFormatDistributionOrg(t *testing.T) {
	t.Parallel()

	buckets := portfolio.NewAnalysis(sampleSnapshot()).ByAssetClass()
	out := FormatDistributionOrg("Asset classes", buckets, "USD")

	lines := strings.Split(out, "\n")
	assert.Equal(t, "* Asset classes", lines[0])
	assert.Equal(t, "| Equity | $1,005.00 | 79.13% | 1 |", lines[3])
	assert.Contains(t, out, "| Alternatives * | $15.00 | 1.18% | 1 |")
	assert.Contains(t, out, "* marks groups holding positions valued at cost.")

	assert.Equal(t, "* Nothing\nNothing to distribute.\n", FormatDistributionOrg("Nothing", nil, "USD"))
}

func TestFormatReportOrg(t *testing.T) {
	t.Parallel()

	out := FormatReportOrg(sampleSnapshot())
	for _, heading := range []string{"* Summary", "* Asset classes", "* Currencies", "* Cash by account", "* Holdings"} {
		assert.Contains(t, out, heading)
	}
}

func TestFormatRecentOrg(t *testing.T) {
	t.Parallel()

	qty, price := 5.0, 101.25
	out := FormatRecentOrg([]ledger.RecentTransaction{
		{Date: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), Type: ledger.TxBuy, Ticker: "VT", Account: "Main", Qty: &qty, Price: &price, CashFlow: -506.25, Currency: "USD"},
		{Date: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), Type: ledger.TxFee, Account: "Main", CashFlow: -2, Currency: "USD"},
	})

	assert.Contains(t, out, "| 2024-01-05 | BUY | VT | Main | 5 | 101.25 | -$506.25 |")
	assert.Contains(t, out, "| 2024-01-03 | FEE |  | Main | - | - | -$2.00 |")
	assert.Equal(t, "* Recent transactions\nLedger is empty.\n", FormatRecentOrg(nil))
}
