// report/csv.go
package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/rustyeddy/portfolio/ledger"
	"github.com/rustyeddy/portfolio/portfolio"
)

var snapshotHeader = []string{
	"category", "ticker", "name", "asset_class", "sub_class", "currency", "account",
	"qty", "unit_cost", "unit_price", "price_source", "price_date",
	"value_in_local_currency", "value_in_reporting_currency", "reporting_currency", "rate_source",
}

// WriteSnapshotCSV writes one row per line item, header first. Values are
// written at full precision.
func WriteSnapshotCSV(w io.Writer, snap *portfolio.Snapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(snapshotHeader); err != nil {
		return err
	}

	for _, it := range snap.Items {
		priceDate := ""
		if !it.PriceDate.IsZero() {
			priceDate = ledger.FormatDate(it.PriceDate)
		}
		if err := cw.Write([]string{
			string(it.Category),
			it.Ticker,
			it.Name,
			string(it.AssetClass),
			it.SubClass,
			it.Currency,
			it.Account,
			f(it.Qty),
			f(it.UnitCost),
			f(it.UnitPrice),
			string(it.PriceSource),
			priceDate,
			f(it.ValueLocal),
			f(it.ValueReporting),
			it.ReportingCurrency,
			string(it.RateSource),
		}); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
