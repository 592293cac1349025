package service

import (
	"time"

	"tango-agenda/modules/event/entity"

	"github.com/teambition/rrule-go"
)

// day normalizes an instant to UTC midnight. All expansion arithmetic works
// at day granularity.
func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ExpandOccurrences produces the ordered occurrence dates of an event within
// the query window [lbound, ubound]. It is a pure function: no I/O, no side
// effects, deterministic for given inputs.
//
// For a recurring event, candidates start at the event's start date and
// advance by the recurrence interval, stopping past min(end date, ubound); an
// open-ended recurring event is clipped to the window, not expanded
// indefinitely. A candidate is emitted only when it is >= lbound and not in
// the excluded-dates set, compared at day granularity. A non-recurring event
// yields exactly one occurrence when its [start, end-or-start] span
// intersects the window.
//
// A malformed window (ubound before lbound) yields no occurrences.
func ExpandOccurrences(ev *entity.Event, lbound, ubound time.Time) []time.Time {
	lb, ub := day(lbound), day(ubound)
	if ub.Before(lb) {
		return nil
	}

	start := day(ev.StartDate)

	if !ev.IsRecurring() {
		spanEnd := start
		if ev.EndDate != nil {
			spanEnd = day(*ev.EndDate)
		}
		if start.After(ub) || spanEnd.Before(lb) {
			return nil
		}
		return []time.Time{start}
	}

	// Effective end: the event's own end date when set and inside the
	// window, otherwise the window's upper bound.
	effEnd := ub
	if ev.EndDate != nil {
		if end := day(*ev.EndDate); end.Before(ub) {
			effEnd = end
		}
	}
	if start.After(effEnd) || effEnd.Before(lb) {
		return nil
	}

	freq, interval := rruleOption(ev.Recurrence)
	r, err := rrule.NewRRule(rrule.ROption{
		Freq:     freq,
		Interval: interval,
		Dtstart:  start,
	})
	if err != nil {
		return nil
	}

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExcludedDates {
		set.ExDate(day(ex))
	}

	return set.Between(lb, effEnd, true)
}

func rruleOption(r entity.Recurrence) (rrule.Frequency, int) {
	switch r {
	case entity.RecurrenceDaily:
		return rrule.DAILY, 1
	case entity.RecurrenceWeekly:
		return rrule.WEEKLY, 1
	case entity.RecurrenceBiweekly:
		return rrule.WEEKLY, 2
	case entity.RecurrenceMonthly:
		return rrule.MONTHLY, 1
	}
	return rrule.DAILY, 1
}

// Occurrences expands an event into occurrence values carrying the event's
// fields plus the concrete date.
func Occurrences(ev *entity.Event, lbound, ubound time.Time) []entity.Occurrence {
	dates := ExpandOccurrences(ev, lbound, ubound)
	out := make([]entity.Occurrence, 0, len(dates))
	for _, d := range dates {
		out = append(out, entity.Occurrence{Event: *ev, Date: d})
	}
	return out
}
