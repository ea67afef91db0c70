package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/portfolio/pkg/id"
)

// SQLite is a Reader backed by a single SQLite database file.
// It holds no state besides the connection pool, so one instance
// may serve concurrent callers.
type SQLite struct {
	db *sql.DB
}

var _ Reader = (*SQLite)(nil)

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path))
	if err != nil {
		return nil, unavailable("open", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, unavailable("create schema", err)
	}

	return &SQLite{db: db}, nil
}

// AddAccount inserts an account and returns its id. Account names are
// unique; adding an existing name returns the id already stored.
func (s *SQLite) AddAccount(ctx context.Context, a Account) (int64, error) {
	if err := a.validate(); err != nil {
		return 0, err
	}
	if existing, err := s.AccountIDByName(ctx, a.Name); err == nil {
		return existing, nil
	} else if !errors.Is(err, ErrNotFound) {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (name, broker, base_currency)
		VALUES (?, ?, ?)`,
		a.Name, a.Broker, a.BaseCurrency,
	)
	if err != nil {
		return 0, unavailable("insert account", err)
	}
	return res.LastInsertId()
}

// UpsertAsset inserts an asset or, when the ticker already exists,
// overwrites its metadata. It returns the asset id.
func (s *SQLite) UpsertAsset(ctx context.Context, a Asset) (int64, error) {
	if err := a.validate(); err != nil {
		return 0, err
	}

	var assetID int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO assets (ticker, name, asset_class, sub_class, currency, exchange, isin)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (ticker) DO UPDATE SET
			name = excluded.name,
			asset_class = excluded.asset_class,
			sub_class = excluded.sub_class,
			currency = excluded.currency,
			exchange = excluded.exchange,
			isin = excluded.isin
		RETURNING id`,
		a.Ticker, a.Name, string(a.AssetClass), a.SubClass, a.Currency, a.Exchange, a.ISIN,
	).Scan(&assetID)
	if err != nil {
		return 0, unavailable("upsert asset", err)
	}
	return assetID, nil
}

// AddTransaction appends t to the ledger. An empty ID is replaced by a new
// ULID, which keeps ids in insertion order. A caller-supplied id must be a
// ULID too.
func (s *SQLite) AddTransaction(ctx context.Context, t Transaction) (string, error) {
	if t.ID == "" {
		t.ID = id.New()
	} else if !id.Valid(t.ID) {
		return "", fmt.Errorf("%w: transaction id %q is not a ULID", ErrInvalidRecord, t.ID)
	}
	if err := t.validate(); err != nil {
		return "", err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions
		(id, date, type, account_id, asset_id, qty, price, fee, tax, cash_flow, currency, fx_rate_to_base, note)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, FormatDate(t.Date), string(t.Type), t.AccountID, t.AssetID,
		t.Qty, t.Price, t.Fee, t.Tax, t.CashFlow, t.Currency, t.FXRateToBase, t.Note,
	)
	if err != nil {
		return "", unavailable("insert transaction", err)
	}
	return t.ID, nil
}

func (s *SQLite) AddMarketPrice(ctx context.Context, p MarketPrice) error {
	if p.Close <= 0 {
		return fmt.Errorf("%w: price for asset %d must be positive, got %g", ErrInvalidRecord, p.AssetID, p.Close)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO market_prices (asset_id, date, close_price)
		VALUES (?, ?, ?)`,
		p.AssetID, FormatDate(p.Date), p.Close,
	)
	if err != nil {
		return unavailable("insert market price", err)
	}
	return nil
}

func (s *SQLite) AddExchangeRate(ctx context.Context, r ExchangeRate) error {
	if r.From == "" || r.To == "" {
		return fmt.Errorf("%w: exchange rate needs both currencies", ErrInvalidRecord)
	}
	if r.Rate <= 0 {
		return fmt.Errorf("%w: exchange rate %s/%s must be positive, got %g", ErrInvalidRecord, r.From, r.To, r.Rate)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO exchange_rates (from_currency, to_currency, date, rate)
		VALUES (?, ?, ?, ?)`,
		r.From, r.To, FormatDate(r.Date), r.Rate,
	)
	if err != nil {
		return unavailable("insert exchange rate", err)
	}
	return nil
}

func (s *SQLite) AccountIDByName(ctx context.Context, name string) (int64, error) {
	var accountID int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM accounts WHERE name = ?`, name).Scan(&accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("account %q %w", name, ErrNotFound)
		}
		return 0, unavailable("lookup account", err)
	}
	return accountID, nil
}

func (s *SQLite) AssetIDByTicker(ctx context.Context, ticker string) (int64, error) {
	var assetID int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM assets WHERE ticker = ?`, ticker).Scan(&assetID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("asset %q %w", ticker, ErrNotFound)
		}
		return 0, unavailable("lookup asset", err)
	}
	return assetID, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
