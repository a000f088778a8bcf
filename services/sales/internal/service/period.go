package service

import (
	"fmt"
	"time"

	"github.com/Skotchmaster/till_shop/services/sales/internal/repo"
)

type Range string

const (
	RangeToday      Range = "today"
	RangeLast7Days  Range = "last7Days"
	RangeLast30Days Range = "last30Days"
	RangeAllTime    Range = "allTime"
)

const dateLayout = "2006-01-02"

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// SpanFor turns a range name or a YYYY-MM-DD date into a window of whole days
// in loc. A date wins over a range. The multi-day ranges include today and the
// N days before it.
func SpanFor(r Range, date string, now time.Time, loc *time.Location) (repo.Span, error) {
	if loc == nil {
		loc = time.UTC
	}
	today := startOfDay(now, loc)
	window := func(from, to time.Time) repo.Span {
		f, t := from.UTC(), to.UTC()
		return repo.Span{From: &f, To: &t}
	}

	if date != "" {
		d, err := time.ParseInLocation(dateLayout, date, loc)
		if err != nil {
			return repo.Span{}, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
		}
		return window(d, d.AddDate(0, 0, 1)), nil
	}

	switch r {
	case RangeToday:
		return window(today, today.AddDate(0, 0, 1)), nil
	case RangeLast7Days:
		return window(today.AddDate(0, 0, -7), today.AddDate(0, 0, 1)), nil
	case RangeLast30Days:
		return window(today.AddDate(0, 0, -30), today.AddDate(0, 0, 1)), nil
	case RangeAllTime, "":
		return repo.Span{}, nil
	default:
		return repo.Span{}, fmt.Errorf("%w: unknown range %q", ErrValidation, r)
	}
}
