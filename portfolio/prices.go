package portfolio

import (
	"context"
	"fmt"
	"time"

	"github.com/rustyeddy/portfolio/ledger"
)

// Quote is the latest recorded close for a ticker. AsOf is returned so
// stale quotes can be surfaced; nothing here rejects them.
type Quote struct {
	Price float64
	AsOf  time.Time
}

// LatestPrices maps each ticker with at least one market price to its most
// recent close.
func LatestPrices(ctx context.Context, store ledger.Reader) (map[string]Quote, error) {
	prices, err := store.LatestPrices(ctx)
	if err != nil {
		return nil, fmt.Errorf("latest prices: %w", err)
	}

	out := make(map[string]Quote, len(prices))
	for _, p := range prices {
		if cur, ok := out[p.Ticker]; ok && cur.AsOf.After(p.Date) {
			continue
		}
		out[p.Ticker] = Quote{Price: p.Close, AsOf: p.Date}
	}
	return out, nil
}
