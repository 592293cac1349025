package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"tango-agenda/core/entity"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Category tags an event with one of the fixed kinds of gathering.
type Category string

const (
	CategoryParty    Category = "party"
	CategoryPratica  Category = "pratica"
	CategoryClass    Category = "class"
	CategoryWorkshop Category = "workshop"
	CategoryFestival Category = "festival"
)

// Categories lists every valid category.
var Categories = []Category{CategoryParty, CategoryPratica, CategoryClass, CategoryWorkshop, CategoryFestival}

// IsValidCategory reports whether s names a known category.
func IsValidCategory(s string) bool {
	for _, c := range Categories {
		if Category(s) == c {
			return true
		}
	}
	return false
}

// Recurrence is the repeat interval of an event.
type Recurrence string

const (
	RecurrenceNone     Recurrence = "none"
	RecurrenceDaily    Recurrence = "daily"
	RecurrenceWeekly   Recurrence = "weekly"
	RecurrenceBiweekly Recurrence = "biweekly"
	RecurrenceMonthly  Recurrence = "monthly"
)

// IsValidRecurrence reports whether s names a known recurrence interval.
func IsValidRecurrence(s string) bool {
	switch Recurrence(s) {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceBiweekly, RecurrenceMonthly:
		return true
	}
	return false
}

// StepBack moves a date one recurrence interval backwards. Used when
// truncating a recurring event at a given occurrence.
func (r Recurrence) StepBack(t time.Time) time.Time {
	switch r {
	case RecurrenceDaily:
		return t.AddDate(0, 0, -1)
	case RecurrenceWeekly:
		return t.AddDate(0, 0, -7)
	case RecurrenceBiweekly:
		return t.AddDate(0, 0, -14)
	case RecurrenceMonthly:
		return t.AddDate(0, -1, 0)
	}
	return t
}

// ValidationStatus is the moderation state of an event.
type ValidationStatus string

const (
	StatusPending   ValidationStatus = "pending"
	StatusValidated ValidationStatus = "validated"
	StatusRejected  ValidationStatus = "rejected"
)

// IsValidStatus reports whether s names a known moderation status.
func IsValidStatus(s string) bool {
	switch ValidationStatus(s) {
	case StatusPending, StatusValidated, StatusRejected:
		return true
	}
	return false
}

// DateList stores day-granularity dates as a JSONB array of "2006-01-02"
// strings.
type DateList []time.Time

const dateListLayout = "2006-01-02"

func (d DateList) Value() (driver.Value, error) {
	out := make([]string, 0, len(d))
	for _, t := range d {
		out = append(out, t.Format(dateListLayout))
	}
	return json.Marshal(out)
}

func (d *DateList) Scan(value any) error {
	if value == nil {
		*d = nil
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	var raw []string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(DateList, 0, len(raw))
	for _, s := range raw {
		t, err := time.ParseInLocation(dateListLayout, s, time.UTC)
		if err != nil {
			return err
		}
		out = append(out, t)
	}
	*d = out
	return nil
}

// Contains reports whether the list holds the given date, compared at day
// granularity.
func (d DateList) Contains(t time.Time) bool {
	for _, x := range d {
		if sameDay(x, t) {
			return true
		}
	}
	return false
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Event is one stored calendar event, possibly recurring.
type Event struct {
	Title         string           `db:"title" json:"title"`
	Link          *string          `db:"link" json:"link,omitempty"`
	StartDate     time.Time        `db:"start_date" json:"start_date"`
	EndDate       *time.Time       `db:"end_date" json:"end_date,omitempty"`
	City          string           `db:"city" json:"city"`
	Country       string           `db:"country" json:"country"`
	Categories    pq.StringArray   `db:"categories" json:"categories"`
	Recurrence    Recurrence       `db:"recurrence" json:"recurrence"`
	ExcludedDates DateList         `db:"excluded_dates" json:"excluded_dates,omitempty"`
	Status        ValidationStatus `db:"status" json:"status"`
	FlyerURL      *string          `db:"flyer_url" json:"flyer_url,omitempty"`
	ContentRef    *string          `db:"content_ref" json:"-"`
	CreatedBy     *uuid.UUID       `db:"created_by" json:"created_by,omitempty"`
	entity.BaseEntity
}

// IsRecurring reports whether the event expands into multiple occurrences.
func (e *Event) IsRecurring() bool {
	return e.Recurrence != "" && e.Recurrence != RecurrenceNone
}

// Occurrence is one concrete calendar appearance of an event. Derived, never
// persisted.
type Occurrence struct {
	Event Event     `json:"event"`
	Date  time.Time `json:"date"`
}
