package fx

// Entry is one static conversion rate.
type Entry struct {
	From string  `json:"from" yaml:"from"`
	To   string  `json:"to" yaml:"to"`
	Rate float64 `json:"rate" yaml:"rate"`
}

// Table is an ordered list of static rates. Lookups return the first
// matching entry.
type Table []Entry

// DefaultTable is the built-in fallback used when the ledger holds no rate.
func DefaultTable() Table {
	return Table{
		{From: "USD", To: "CNY", Rate: 7.25},
		{From: "HKD", To: "CNY", Rate: 0.93},
		{From: "CNY", To: "CNY", Rate: 1.0},
		{From: "EUR", To: "CNY", Rate: 7.85},
		{From: "GBP", To: "CNY", Rate: 9.10},
		{From: "JPY", To: "CNY", Rate: 0.048},
	}
}

func (t Table) Lookup(from, to string) (float64, bool) {
	for _, e := range t {
		if e.From == from && e.To == to {
			return e.Rate, true
		}
	}
	return 0, false
}

func (t Table) clone() Table {
	if t == nil {
		return nil
	}
	out := make(Table, len(t))
	copy(out, t)
	return out
}
