package fx

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/rustyeddy/portfolio/ledger"
)

type fakeRateSource struct {
	rates  []ledger.ExchangeRate
	err    error
	called int
	lastTo string
}

func (f *fakeRateSource) LatestRates(ctx context.Context, to string) ([]ledger.ExchangeRate, error) {
	f.called++
	f.lastTo = to
	return f.rates, f.err
}

func rate(from, to string, v float64) ledger.ExchangeRate {
	return ledger.ExchangeRate{From: from, To: to, Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Rate: v}
}

func TestResolve_SameCurrency(t *testing.T) {
	t.Parallel()

	r := NewResolver("CNY", nil, nil, nil)
	got := r.Resolve("CNY", "")
	assert.Equal(t, 1.0, got.Value)
	assert.Equal(t, Identity, got.Source)

	got = r.Resolve("USD", "USD")
	assert.Equal(t, 1.0, got.Value)
	assert.Equal(t, Identity, got.Source)
	assert.Empty(t, r.Warnings())
}

func TestResolve_DBBeatsFallback(t *testing.T) {
	t.Parallel()

	r := NewResolver("CNY", []ledger.ExchangeRate{rate("USD", "CNY", 7.1)}, DefaultTable(), nil)

	got := r.Resolve("USD", "CNY")
	assert.Equal(t, 7.1, got.Value)
	assert.Equal(t, DB, got.Source)

	got = r.Resolve("HKD", "CNY")
	assert.Equal(t, 0.93, got.Value)
	assert.Equal(t, Fallback, got.Source)
}

func TestResolve_DBOnlyForTarget(t *testing.T) {
	t.Parallel()

	// A persisted USD->EUR rate must not leak into a CNY resolver.
	r := NewResolver("CNY", []ledger.ExchangeRate{rate("USD", "EUR", 0.9)}, nil, nil)
	got := r.Resolve("USD", "CNY")
	assert.Equal(t, Missing, got.Source)

	// and non-target pairs skip the db tier entirely.
	r = NewResolver("CNY", []ledger.ExchangeRate{rate("USD", "CNY", 7.0)}, Table{{From: "USD", To: "EUR", Rate: 0.92}}, nil)
	got = r.Resolve("USD", "EUR")
	assert.Equal(t, 0.92, got.Value)
	assert.Equal(t, Fallback, got.Source)
}

func TestResolve_FallbackFirstMatchWins(t *testing.T) {
	t.Parallel()

	table := Table{
		{From: "EUR", To: "CNY", Rate: 7.8},
		{From: "EUR", To: "CNY", Rate: 9.9},
	}
	r := NewResolver("CNY", nil, table, nil)
	assert.Equal(t, 7.8, r.Rate("EUR"))
}

func TestResolve_MissingPairWarnsOnce(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.WarnLevel)
	r := NewResolver("CNY", nil, DefaultTable(), zap.New(core))

	assert.Equal(t, 1.0, r.Rate("XYZ"))
	v, applied := r.Convert(500, "XYZ", "")
	assert.Equal(t, 500.0, v)
	assert.Equal(t, Missing, applied.Source)

	got := r.Resolve("XYZ", "CNY")
	assert.Equal(t, Missing, got.Source)

	assert.Equal(t, []MissingRateWarning{{From: "XYZ", To: "CNY"}}, r.Warnings())
	assert.Equal(t, 1, logs.FilterMessage("exchange rate missing, converting 1:1").Len())
	assert.Contains(t, r.Warnings()[0].String(), "XYZ/CNY")
}

func TestFallbackTableIsCopied(t *testing.T) {
	t.Parallel()

	table := Table{{From: "USD", To: "CNY", Rate: 7.25}}
	r := NewResolver("CNY", nil, table, nil)
	table[0].Rate = 100

	assert.Equal(t, 7.25, r.Rate("USD"))
}

func TestConvertOptional(t *testing.T) {
	t.Parallel()

	r := NewResolver("CNY", nil, DefaultTable(), nil)
	v, applied := r.ConvertOptional(nil, "USD", "CNY")
	assert.Equal(t, 0.0, v)
	assert.Equal(t, Fallback, applied.Source)

	amount := 100.0
	v, applied = r.ConvertOptional(&amount, "USD", "")
	assert.InDelta(t, 725.0, v, 1e-9)
	assert.Equal(t, "CNY", applied.To)
}

func TestConvertToOtherCurrency(t *testing.T) {
	t.Parallel()

	r := NewResolver("CNY", []ledger.ExchangeRate{rate("USD", "CNY", 7.0)}, DefaultTable(), nil)

	v, applied := r.Convert(10, "USD", "USD")
	assert.Equal(t, 10.0, v)
	assert.Equal(t, Identity, applied.Source)

	// Persisted rates only quote into the target; other pairs go to the table.
	v, applied = r.Convert(10, "USD", "HKD")
	assert.Equal(t, 10.0, v)
	assert.Equal(t, Missing, applied.Source)
	assert.Equal(t, []MissingRateWarning{{From: "USD", To: "HKD"}}, r.Warnings())

	v, applied = r.Convert(10, "USD", "CNY")
	assert.Equal(t, 70.0, v)
	assert.Equal(t, DB, applied.Source)
}

func TestConvertRoundTrip(t *testing.T) {
	t.Parallel()

	r := NewResolver("CNY", []ledger.ExchangeRate{rate("USD", "CNY", 7.2345)}, DefaultTable(), nil)
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 1000; i++ {
		amount := rng.Float64() * 1e6
		for _, cur := range []string{"USD", "HKD", "JPY", "EUR", "CNY", "XYZ"} {
			converted, applied := r.Convert(amount, cur, "")
			back := converted / applied.Value
			assert.InDelta(t, amount, back, 1e-9*amount+1e-9)
		}
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	src := &fakeRateSource{rates: []ledger.ExchangeRate{rate("USD", "CNY", 7.0)}}
	r, err := Load(context.Background(), src, "CNY", DefaultTable(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, src.called)
	assert.Equal(t, "CNY", src.lastTo)
	assert.Equal(t, "CNY", r.Target())
	assert.Equal(t, 7.0, r.Rate("USD"))
}

func TestLoad_StoreFailure(t *testing.T) {
	t.Parallel()

	src := &fakeRateSource{err: ledger.ErrStoreUnavailable}
	r, err := Load(context.Background(), src, "CNY", DefaultTable(), nil)
	assert.Nil(t, r)
	assert.True(t, errors.Is(err, ledger.ErrStoreUnavailable))
}

func TestSupportedCurrencies(t *testing.T) {
	t.Parallel()

	r := NewResolver("CNY", []ledger.ExchangeRate{rate("AUD", "CNY", 4.7), rate("USD", "CNY", 7.1)}, DefaultTable(), nil)
	assert.Equal(t, []string{"AUD", "CNY", "EUR", "GBP", "HKD", "JPY", "USD"}, r.SupportedCurrencies())
}
