// Package fx resolves currency conversion rates into a single target
// currency. Resolution walks an ordered chain: identical currencies, rates
// persisted in the ledger, a static fallback table, and finally a 1:1 rate
// that is reported as a MissingRateWarning.
package fx

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/rustyeddy/portfolio/ledger"
)

// Source tags where a rate came from.
type Source string

const (
	Identity Source = "identity"
	DB       Source = "db"
	Fallback Source = "fallback"
	Missing  Source = "missing"
)

// Rate is a resolved conversion rate and its provenance.
type Rate struct {
	From   string
	To     string
	Value  float64
	Source Source
}

// MissingRateWarning reports a currency pair nothing could resolve.
// The pair was converted 1:1.
type MissingRateWarning struct {
	From string
	To   string
}

func (w MissingRateWarning) String() string {
	return fmt.Sprintf("no exchange rate for %s/%s, using 1.0", w.From, w.To)
}

// RateSource is the part of the ledger the resolver reads.
type RateSource interface {
	LatestRates(ctx context.Context, to string) ([]ledger.ExchangeRate, error)
}

// Resolver converts amounts into its target currency. A Resolver is built
// per valuation; it never goes back to the store after construction.
type Resolver struct {
	target   string
	db       map[string]float64
	fallback Table
	log      *zap.Logger

	mu       sync.Mutex
	warned   map[MissingRateWarning]bool
	warnings []MissingRateWarning
}

// Load reads the latest persisted rates into target and returns a Resolver
// over them. A store failure is returned as is; the caller must not value a
// portfolio against a partial rate set.
func Load(ctx context.Context, src RateSource, target string, fallback Table, log *zap.Logger) (*Resolver, error) {
	rates, err := src.LatestRates(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("load exchange rates to %s: %w", target, err)
	}
	return NewResolver(target, rates, fallback, log), nil
}

// NewResolver builds a Resolver from already loaded rates, expected to hold
// the latest rate per source currency. Rates quoted into any currency other
// than target are ignored.
func NewResolver(target string, rates []ledger.ExchangeRate, fallback Table, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	db := make(map[string]float64, len(rates))
	for _, r := range rates {
		if r.To != target {
			continue
		}
		db[r.From] = r.Rate
	}
	return &Resolver{
		target:   target,
		db:       db,
		fallback: fallback.clone(),
		log:      log,
		warned:   make(map[MissingRateWarning]bool),
	}
}

func (r *Resolver) Target() string {
	return r.target
}

// Resolve returns the rate from -> to with its provenance. It never fails:
// an unknown pair resolves to 1.0 tagged Missing and is recorded as a
// warning.
func (r *Resolver) Resolve(from, to string) Rate {
	if to == "" {
		to = r.target
	}
	if from == to {
		return Rate{From: from, To: to, Value: 1.0, Source: Identity}
	}
	if to == r.target {
		if v, ok := r.db[from]; ok {
			return Rate{From: from, To: to, Value: v, Source: DB}
		}
	}
	if v, ok := r.fallback.Lookup(from, to); ok {
		return Rate{From: from, To: to, Value: v, Source: Fallback}
	}

	r.warn(MissingRateWarning{From: from, To: to})
	return Rate{From: from, To: to, Value: 1.0, Source: Missing}
}

// Rate returns the rate from -> target.
func (r *Resolver) Rate(from string) float64 {
	return r.Resolve(from, r.target).Value
}

// Convert returns amount expressed in to (the target when empty) together
// with the rate applied.
func (r *Resolver) Convert(amount float64, from, to string) (float64, Rate) {
	rate := r.Resolve(from, to)
	return amount * rate.Value, rate
}

// ConvertOptional is Convert for amounts that may be absent; nil converts
// to zero.
func (r *Resolver) ConvertOptional(amount *float64, from, to string) (float64, Rate) {
	if amount == nil {
		return 0.0, r.Resolve(from, to)
	}
	return r.Convert(*amount, from, to)
}

// Warnings returns every distinct pair that fell through to 1.0, in the
// order first seen.
func (r *Resolver) Warnings() []MissingRateWarning {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]MissingRateWarning, len(r.warnings))
	copy(out, r.warnings)
	return out
}

// SupportedCurrencies lists every source currency with a persisted or
// fallback rate.
func (r *Resolver) SupportedCurrencies() []string {
	set := make(map[string]bool)
	for from := range r.db {
		set[from] = true
	}
	for _, e := range r.fallback {
		set[e.From] = true
	}
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func (r *Resolver) warn(w MissingRateWarning) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.warned[w] {
		return
	}
	r.warned[w] = true
	r.warnings = append(r.warnings, w)
	r.log.Warn("exchange rate missing, converting 1:1",
		zap.String("from", w.From),
		zap.String("to", w.To),
	)
}
