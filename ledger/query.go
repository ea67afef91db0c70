package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const transactionColumns = `id, date, type, account_id, asset_id, qty, price, fee, tax, cash_flow, currency, fx_rate_to_base, note`

// Transactions returns ledger entries matching f in storage order
// (date, then id).
func (s *SQLite) Transactions(ctx context.Context, f TxFilter) ([]Transaction, error) {
	var (
		where []string
		args  []any
	)
	if len(f.Types) > 0 {
		marks := make([]string, len(f.Types))
		for i, typ := range f.Types {
			marks[i] = "?"
			args = append(args, string(typ))
		}
		where = append(where, "type IN ("+strings.Join(marks, ", ")+")")
	}
	if f.RequireQty {
		where = append(where, "qty IS NOT NULL")
	}
	if !f.Through.IsZero() {
		where = append(where, "date <= ?")
		args = append(args, FormatDate(f.Through))
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date ASC, id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable("query transactions", err)
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var (
			t       Transaction
			date    string
			typ     string
			assetID sql.NullInt64
			qty     sql.NullFloat64
			price   sql.NullFloat64
			fxRate  sql.NullFloat64
		)
		if err := rows.Scan(
			&t.ID,
			&date,
			&typ,
			&t.AccountID,
			&assetID,
			&qty,
			&price,
			&t.Fee,
			&t.Tax,
			&t.CashFlow,
			&t.Currency,
			&fxRate,
			&t.Note,
		); err != nil {
			return nil, unavailable("scan transaction", err)
		}

		if t.Date, err = parseStoredDate(date); err != nil {
			return nil, err
		}
		t.Type = TxType(typ)
		t.AssetID = nullInt(assetID)
		t.Qty = nullFloat(qty)
		t.Price = nullFloat(price)
		t.FXRateToBase = nullFloat(fxRate)

		if err := t.validate(); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate transactions", err)
	}
	return out, nil
}

func (s *SQLite) Accounts(ctx context.Context) ([]Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, broker, base_currency
		FROM accounts
		ORDER BY name ASC`)
	if err != nil {
		return nil, unavailable("query accounts", err)
	}
	defer rows.Close()

	var out []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.Name, &a.Broker, &a.BaseCurrency); err != nil {
			return nil, unavailable("scan account", err)
		}
		if err := a.validate(); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate accounts", err)
	}
	return out, nil
}

func (s *SQLite) Assets(ctx context.Context) ([]Asset, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ticker, name, asset_class, sub_class, currency, exchange, isin
		FROM assets
		ORDER BY ticker ASC`)
	if err != nil {
		return nil, unavailable("query assets", err)
	}
	defer rows.Close()

	var out []Asset
	for rows.Next() {
		var (
			a     Asset
			class string
		)
		if err := rows.Scan(&a.ID, &a.Ticker, &a.Name, &class, &a.SubClass, &a.Currency, &a.Exchange, &a.ISIN); err != nil {
			return nil, unavailable("scan asset", err)
		}
		a.AssetClass = AssetClass(class)
		if err := a.validate(); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate assets", err)
	}
	return out, nil
}

// LatestPrices returns the most recent closing price of every asset that has
// one. Several prices on the same date resolve to the one stored last.
func (s *SQLite) LatestPrices(ctx context.Context) ([]MarketPrice, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.asset_id, a.ticker, p.date, p.close_price
		FROM (
			SELECT asset_id, date, close_price,
				ROW_NUMBER() OVER (PARTITION BY asset_id ORDER BY date DESC, id DESC) AS rn
			FROM market_prices
		) p
		JOIN assets a ON a.id = p.asset_id
		WHERE p.rn = 1
		ORDER BY a.ticker ASC`)
	if err != nil {
		return nil, unavailable("query latest prices", err)
	}
	defer rows.Close()

	var out []MarketPrice
	for rows.Next() {
		var (
			p    MarketPrice
			date string
		)
		if err := rows.Scan(&p.AssetID, &p.Ticker, &date, &p.Close); err != nil {
			return nil, unavailable("scan market price", err)
		}
		if p.Date, err = parseStoredDate(date); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate market prices", err)
	}
	return out, nil
}

// LatestRates returns, for every source currency quoted against to, the rate
// with the most recent date. Same-date rows resolve to the one stored last.
func (s *SQLite) LatestRates(ctx context.Context, to string) ([]ExchangeRate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT from_currency, to_currency, date, rate
		FROM (
			SELECT from_currency, to_currency, date, rate,
				ROW_NUMBER() OVER (PARTITION BY from_currency ORDER BY date DESC, id DESC) AS rn
			FROM exchange_rates
			WHERE to_currency = ?
		)
		WHERE rn = 1
		ORDER BY from_currency ASC`, to)
	if err != nil {
		return nil, unavailable("query latest rates", err)
	}
	defer rows.Close()

	var out []ExchangeRate
	for rows.Next() {
		var (
			r    ExchangeRate
			date string
		)
		if err := rows.Scan(&r.From, &r.To, &date, &r.Rate); err != nil {
			return nil, unavailable("scan exchange rate", err)
		}
		if r.Date, err = parseStoredDate(date); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate exchange rates", err)
	}
	return out, nil
}

// RecentTransactions returns the newest limit ledger entries joined with
// their ticker and account name.
func (s *SQLite) RecentTransactions(ctx context.Context, limit int) ([]RecentTransaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.date, t.type, COALESCE(a.ticker, ''), COALESCE(ac.name, ''),
			t.qty, t.price, t.cash_flow, t.currency
		FROM transactions t
		LEFT JOIN assets a ON t.asset_id = a.id
		LEFT JOIN accounts ac ON t.account_id = ac.id
		ORDER BY t.date DESC, t.id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, unavailable("query recent transactions", err)
	}
	defer rows.Close()

	var out []RecentTransaction
	for rows.Next() {
		var (
			rec   RecentTransaction
			date  string
			typ   string
			qty   sql.NullFloat64
			price sql.NullFloat64
		)
		if err := rows.Scan(&rec.ID, &date, &typ, &rec.Ticker, &rec.Account, &qty, &price, &rec.CashFlow, &rec.Currency); err != nil {
			return nil, unavailable("scan recent transaction", err)
		}
		if rec.Date, err = parseStoredDate(date); err != nil {
			return nil, err
		}
		rec.Type = TxType(typ)
		rec.Qty = nullFloat(qty)
		rec.Price = nullFloat(price)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate recent transactions", err)
	}
	return out, nil
}

func parseStoredDate(s string) (time.Time, error) {
	t, err := ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	return t, nil
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullInt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	i := v.Int64
	return &i
}
