package charges

import "time"

// Keys consumed by the pre-filter step before the generic engine runs.
const (
	keyDateFrom = "date_from"
	keyDateTo   = "date_to"
	keyPayer    = "payer"
)

// Prefilter is the result of reducing a raw filter map: the special
// keys are consumed into typed fields and the remaining keys are
// copied into Filters. The input map is never modified.
type Prefilter struct {
	Filters  map[string]any
	DateFrom *time.Time
	DateTo   *time.Time
	Payer    string

	// RiderIDs is filled by the service once Payer has been resolved
	// against the riders table. nil means unrestricted.
	RiderIDs []int64
}

// ReduceFilters consumes the date-range and payer keys out of filters
// and returns everything else as a fresh map.
func ReduceFilters(filters map[string]any) Prefilter {
	pf := Prefilter{Filters: make(map[string]any, len(filters))}
	for key, value := range filters {
		switch key {
		case keyDateFrom:
			pf.DateFrom = asDate(value)
		case keyDateTo:
			pf.DateTo = asDate(value)
		case keyPayer:
			if s, ok := value.(string); ok {
				pf.Payer = s
			}
		default:
			pf.Filters[key] = value
		}
	}
	return pf
}

func asDate(value any) *time.Time {
	switch v := value.(type) {
	case time.Time:
		return &v
	case *time.Time:
		return v
	case string:
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return nil
		}
		return &t
	default:
		return nil
	}
}
