package service

import (
	"testing"
	"time"

	"tango-agenda/modules/event/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func dp(s string) *time.Time {
	t := d(s)
	return &t
}

func TestExpandNonRecurring(t *testing.T) {
	ev := &entity.Event{
		Title:     "Milonga del Centro",
		StartDate: d("2024-03-10"),
	}

	got := ExpandOccurrences(ev, d("2024-03-01"), d("2024-03-31"))
	require.Len(t, got, 1)
	assert.Equal(t, d("2024-03-10"), got[0])

	assert.Empty(t, ExpandOccurrences(ev, d("2024-03-11"), d("2024-03-31")))
	assert.Empty(t, ExpandOccurrences(ev, d("2024-02-01"), d("2024-03-09")))
}

func TestExpandNonRecurringSpanIntersects(t *testing.T) {
	// A multi-day festival appears once, dated on its start, as soon as any
	// festival day falls inside the window.
	ev := &entity.Event{
		Title:     "Festival de Tango",
		StartDate: d("2024-07-01"),
		EndDate:   dp("2024-07-05"),
	}

	got := ExpandOccurrences(ev, d("2024-07-04"), d("2024-07-31"))
	require.Len(t, got, 1)
	assert.Equal(t, d("2024-07-01"), got[0])
}

func TestExpandWeekly(t *testing.T) {
	ev := &entity.Event{
		StartDate:  d("2024-01-01"),
		EndDate:    dp("2024-01-31"),
		Recurrence: entity.RecurrenceWeekly,
	}

	got := ExpandOccurrences(ev, d("2024-01-01"), d("2024-01-31"))
	assert.Equal(t, []time.Time{
		d("2024-01-01"), d("2024-01-08"), d("2024-01-15"),
		d("2024-01-22"), d("2024-01-29"),
	}, got)
}

func TestExpandWeeklyWindowedWithExclusion(t *testing.T) {
	// The only candidate inside the window is Jan 15, and it is excluded.
	ev := &entity.Event{
		StartDate:     d("2024-01-01"),
		EndDate:       dp("2024-01-31"),
		Recurrence:    entity.RecurrenceWeekly,
		ExcludedDates: entity.DateList{d("2024-01-15")},
	}

	got := ExpandOccurrences(ev, d("2024-01-10"), d("2024-01-20"))
	assert.Empty(t, got)
}

func TestExpandExclusionOfNonCandidate(t *testing.T) {
	// Excluding a date the rule never produces changes nothing.
	ev := &entity.Event{
		StartDate:     d("2024-01-01"),
		EndDate:       dp("2024-01-31"),
		Recurrence:    entity.RecurrenceWeekly,
		ExcludedDates: entity.DateList{d("2024-01-16")},
	}

	got := ExpandOccurrences(ev, d("2024-01-01"), d("2024-01-31"))
	assert.Len(t, got, 5)
}

func TestExpandBiweekly(t *testing.T) {
	ev := &entity.Event{
		StartDate:  d("2024-01-01"),
		EndDate:    dp("2024-02-29"),
		Recurrence: entity.RecurrenceBiweekly,
	}

	got := ExpandOccurrences(ev, d("2024-01-01"), d("2024-02-29"))
	assert.Equal(t, []time.Time{
		d("2024-01-01"), d("2024-01-15"), d("2024-01-29"),
		d("2024-02-12"), d("2024-02-26"),
	}, got)
}

func TestExpandDailyOpenEndedClipsToWindow(t *testing.T) {
	ev := &entity.Event{
		StartDate:  d("2024-01-01"),
		Recurrence: entity.RecurrenceDaily,
	}

	got := ExpandOccurrences(ev, d("2024-06-01"), d("2024-06-07"))
	require.Len(t, got, 7)
	assert.Equal(t, d("2024-06-01"), got[0])
	assert.Equal(t, d("2024-06-07"), got[6])
}

func TestExpandMonthlyPinsDayOfMonth(t *testing.T) {
	// A monthly rule on the 31st simply skips shorter months.
	ev := &entity.Event{
		StartDate:  d("2024-01-31"),
		Recurrence: entity.RecurrenceMonthly,
	}

	got := ExpandOccurrences(ev, d("2024-01-01"), d("2024-06-30"))
	assert.Equal(t, []time.Time{
		d("2024-01-31"), d("2024-03-31"), d("2024-05-31"),
	}, got)
}

func TestExpandMalformedWindow(t *testing.T) {
	ev := &entity.Event{
		StartDate:  d("2024-01-01"),
		Recurrence: entity.RecurrenceDaily,
	}

	assert.Empty(t, ExpandOccurrences(ev, d("2024-01-20"), d("2024-01-10")))
}

func TestExpandEndBeforeWindow(t *testing.T) {
	ev := &entity.Event{
		StartDate:  d("2024-01-01"),
		EndDate:    dp("2024-02-01"),
		Recurrence: entity.RecurrenceWeekly,
	}

	assert.Empty(t, ExpandOccurrences(ev, d("2024-03-01"), d("2024-03-31")))
}

func TestExpandCountBoundedByWindow(t *testing.T) {
	ev := &entity.Event{
		StartDate:  d("2024-01-01"),
		Recurrence: entity.RecurrenceWeekly,
	}

	got := ExpandOccurrences(ev, d("2024-01-01"), d("2024-12-31"))
	for i := 1; i < len(got); i++ {
		assert.Equal(t, 7*24*time.Hour, got[i].Sub(got[i-1]))
	}
	assert.Len(t, got, 53)
}

func TestOccurrencesCarryEventFields(t *testing.T) {
	ev := &entity.Event{
		Title:      "Practica de los Martes",
		City:       "Berlin",
		StartDate:  d("2024-04-02"),
		EndDate:    dp("2024-04-16"),
		Recurrence: entity.RecurrenceWeekly,
	}

	occs := Occurrences(ev, d("2024-04-01"), d("2024-04-30"))
	require.Len(t, occs, 3)
	for _, occ := range occs {
		assert.Equal(t, "Practica de los Martes", occ.Event.Title)
	}
	assert.Equal(t, d("2024-04-09"), occs[1].Date)
}
