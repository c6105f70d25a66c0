package report

import (
	"time"

	"github.com/marketsync/backend/internal/domain/shared"
)

// TimeFrame is a named analytics window
type TimeFrame string

const (
	TimeFrameToday      TimeFrame = "today"
	TimeFrameYesterday  TimeFrame = "yesterday"
	TimeFrameLast7Days  TimeFrame = "last7days"
	TimeFrameLast30Days TimeFrame = "last30days"
	TimeFrameThisMonth  TimeFrame = "thisMonth"
	TimeFrameThisYear   TimeFrame = "thisYear"
	TimeFrameLastYear   TimeFrame = "lastYear"
	TimeFrameAllTime    TimeFrame = "allTime"
)

// IsValid checks if the time frame is a known value
func (tf TimeFrame) IsValid() bool {
	switch tf {
	case TimeFrameToday, TimeFrameYesterday, TimeFrameLast7Days, TimeFrameLast30Days,
		TimeFrameThisMonth, TimeFrameThisYear, TimeFrameLastYear, TimeFrameAllTime:
		return true
	}
	return false
}

// Granularity is the width of one series bucket
type Granularity string

const (
	GranularityHour  Granularity = "hour"
	GranularityDay   Granularity = "day"
	GranularityMonth Granularity = "month"
)

// Granularity returns the bucket width used for the time frame
func (tf TimeFrame) Granularity() Granularity {
	switch tf {
	case TimeFrameToday, TimeFrameYesterday:
		return GranularityHour
	case TimeFrameThisYear, TimeFrameLastYear, TimeFrameAllTime:
		return GranularityMonth
	default:
		return GranularityDay
	}
}

var ErrInvalidTimeFrame = shared.ErrValidation.Refine("INVALID_TIME_FRAME", "Invalid time frame")

// Window is a resolved analytics range. Start is inclusive, End is exclusive,
// and both sit on bucket boundaries of Granularity.
type Window struct {
	TimeFrame   TimeFrame
	Start       time.Time
	End         time.Time
	Granularity Granularity
}

// ResolveTimeFrame turns a named time frame into a concrete window in loc.
// allTimeStart is the seller's earliest activity and is only used for allTime;
// when zero, allTime covers the last twelve months.
func ResolveTimeFrame(tf TimeFrame, now time.Time, loc *time.Location, allTimeStart time.Time) (Window, error) {
	if !tf.IsValid() {
		return Window{}, ErrInvalidTimeFrame
	}
	if loc == nil {
		loc = time.UTC
	}
	now = now.In(loc)
	today := Truncate(now, GranularityDay)
	tomorrow := today.AddDate(0, 0, 1)
	thisMonth := Truncate(now, GranularityMonth)
	nextMonth := thisMonth.AddDate(0, 1, 0)
	jan1 := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, loc)

	w := Window{TimeFrame: tf, Granularity: tf.Granularity()}
	switch tf {
	case TimeFrameToday:
		w.Start, w.End = today, Truncate(now, GranularityHour).Add(time.Hour)
	case TimeFrameYesterday:
		w.Start, w.End = today.AddDate(0, 0, -1), today
	case TimeFrameLast7Days:
		w.Start, w.End = today.AddDate(0, 0, -6), tomorrow
	case TimeFrameLast30Days:
		w.Start, w.End = today.AddDate(0, 0, -29), tomorrow
	case TimeFrameThisMonth:
		w.Start, w.End = thisMonth, tomorrow
	case TimeFrameThisYear:
		w.Start, w.End = jan1, nextMonth
	case TimeFrameLastYear:
		w.Start, w.End = jan1.AddDate(-1, 0, 0), jan1
	case TimeFrameAllTime:
		start := thisMonth.AddDate(0, -11, 0)
		if !allTimeStart.IsZero() {
			start = Truncate(allTimeStart.In(loc), GranularityMonth)
			if start.After(thisMonth) {
				start = thisMonth
			}
		}
		w.Start, w.End = start, nextMonth
	}
	return w, nil
}

// Comparison returns the window the current one is compared against:
// the prior calendar day for today and yesterday, the same range one year
// earlier otherwise. allTime has no comparison window.
func (w Window) Comparison() (Window, bool) {
	switch w.TimeFrame {
	case TimeFrameAllTime:
		return Window{}, false
	case TimeFrameToday, TimeFrameYesterday:
		return Window{
			TimeFrame:   w.TimeFrame,
			Start:       w.Start.AddDate(0, 0, -1),
			End:         w.End.AddDate(0, 0, -1),
			Granularity: w.Granularity,
		}, true
	default:
		return Window{
			TimeFrame:   w.TimeFrame,
			Start:       w.Start.AddDate(-1, 0, 0),
			End:         w.End.AddDate(-1, 0, 0),
			Granularity: w.Granularity,
		}, true
	}
}

// Contains reports whether t falls inside the window
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}
