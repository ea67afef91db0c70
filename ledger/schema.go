// ledger/schema.go
package ledger

const Schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE,
	broker TEXT NOT NULL DEFAULT '',
	base_currency TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS assets (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	ticker TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL DEFAULT '',
	asset_class TEXT NOT NULL,
	sub_class TEXT NOT NULL DEFAULT '',
	currency TEXT NOT NULL,
	exchange TEXT NOT NULL DEFAULT '',
	isin TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS transactions (
	id TEXT PRIMARY KEY,
	date TEXT NOT NULL,
	type TEXT NOT NULL,
	account_id INTEGER NOT NULL REFERENCES accounts(id),
	asset_id INTEGER REFERENCES assets(id),
	qty REAL,
	price REAL,
	fee REAL NOT NULL DEFAULT 0,
	tax REAL NOT NULL DEFAULT 0,
	cash_flow REAL NOT NULL,
	currency TEXT NOT NULL,
	fx_rate_to_base REAL,
	note TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(date);
CREATE INDEX IF NOT EXISTS idx_transactions_type ON transactions(type);

CREATE TABLE IF NOT EXISTS market_prices (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	asset_id INTEGER NOT NULL REFERENCES assets(id),
	date TEXT NOT NULL,
	close_price REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_market_prices_asset_date ON market_prices(asset_id, date);

CREATE TABLE IF NOT EXISTS exchange_rates (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	from_currency TEXT NOT NULL,
	to_currency TEXT NOT NULL,
	date TEXT NOT NULL,
	rate REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_exchange_rates_pair_date ON exchange_rates(to_currency, from_currency, date);
`
