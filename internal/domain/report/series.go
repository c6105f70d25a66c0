package report

import (
	"time"

	"github.com/shopspring/decimal"
)

// Truncate moves t to the start of its bucket in t's location
func Truncate(t time.Time, g Granularity) time.Time {
	switch g {
	case GranularityHour:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
	case GranularityMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	default:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	}
}

// NextBucket returns the start of the bucket after the one starting at t
func NextBucket(t time.Time, g Granularity) time.Time {
	switch g {
	case GranularityHour:
		return t.Add(time.Hour)
	case GranularityMonth:
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

// Buckets lists every bucket start covering the window, ascending
func (w Window) Buckets() []time.Time {
	var out []time.Time
	for b := Truncate(w.Start, w.Granularity); b.Before(w.End); b = NextBucket(b, w.Granularity) {
		out = append(out, b)
	}
	return out
}

// SeriesPoint is one bucket of the merged analytics series
type SeriesPoint struct {
	Bucket   time.Time       `json:"bucket"`
	Revenue  decimal.Decimal `json:"revenue"`
	Orders   int64           `json:"orders"`
	Listings int64           `json:"listings"`
}

// OrderPoint is a single sale as read from the order store
type OrderPoint struct {
	SoldAt time.Time
	Amount decimal.Decimal
}

// FillSeries groups raw points into the window's buckets.
// Every bucket of the window appears exactly once, in order, zero when empty.
// Points outside the window are ignored.
func FillSeries(w Window, orders []OrderPoint, listingCreations []time.Time) []SeriesPoint {
	buckets := w.Buckets()
	series := make([]SeriesPoint, len(buckets))
	index := make(map[int64]int, len(buckets))
	for i, b := range buckets {
		series[i] = SeriesPoint{Bucket: b, Revenue: decimal.Zero}
		index[b.Unix()] = i
	}

	loc := w.Start.Location()
	slot := func(t time.Time) (int, bool) {
		if !w.Contains(t) {
			return 0, false
		}
		i, ok := index[Truncate(t.In(loc), w.Granularity).Unix()]
		return i, ok
	}

	for _, p := range orders {
		if i, ok := slot(p.SoldAt); ok {
			series[i].Revenue = series[i].Revenue.Add(p.Amount)
			series[i].Orders++
		}
	}
	for _, t := range listingCreations {
		if i, ok := slot(t); ok {
			series[i].Listings++
		}
	}
	return series
}

// ZeroSeries returns the window's buckets with every metric at zero
func ZeroSeries(w Window) []SeriesPoint {
	return FillSeries(w, nil, nil)
}
