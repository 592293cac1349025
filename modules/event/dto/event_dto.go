package dto

import (
	"time"

	"tango-agenda/modules/event/entity"
)

const dateLayout = "2006-01-02"

// ===================== Request DTOs =====================

// CreateEventRequest for submitting a new event.
type CreateEventRequest struct {
	Title      string   `json:"title" validate:"required"`
	Link       string   `json:"link"`
	StartDate  string   `json:"start_date" validate:"required"` // YYYY-MM-DD
	EndDate    string   `json:"end_date"`                       // YYYY-MM-DD
	City       string   `json:"city"`
	Country    string   `json:"country"`
	Categories []string `json:"categories"`
	Recurrence string   `json:"recurrence"`
}

// UpdateEventRequest patches event fields. Zero values leave a field
// untouched; EndDate supports explicit clearing via "null".
type UpdateEventRequest struct {
	Title      string   `json:"title"`
	Link       string   `json:"link"`
	StartDate  string   `json:"start_date"`
	EndDate    string   `json:"end_date"`
	City       string   `json:"city"`
	Country    string   `json:"country"`
	Categories []string `json:"categories"`
	Recurrence string   `json:"recurrence"`
}

// QueryEventsRequest carries the public calendar query.
type QueryEventsRequest struct {
	From       string   `query:"from"`
	To         string   `query:"to"`
	Categories []string `query:"categories"`
	Text       string   `query:"q"`
}

// SetStatusRequest transitions one event's moderation status.
type SetStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// BulkSetStatusRequest applies one transition to many events.
type BulkSetStatusRequest struct {
	IDs    []string `json:"ids" validate:"required"`
	Status string   `json:"status" validate:"required"`
}

// ===================== Response DTOs =====================

// EventResponse for stored event details.
type EventResponse struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Link          string     `json:"link,omitempty"`
	StartDate     string     `json:"start_date"`
	EndDate       string     `json:"end_date,omitempty"`
	City          string     `json:"city"`
	Country       string     `json:"country"`
	Categories    []string   `json:"categories"`
	Recurrence    string     `json:"recurrence"`
	ExcludedDates []string   `json:"excluded_dates,omitempty"`
	Status        string     `json:"status"`
	FlyerURL      string     `json:"flyer_url,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// OccurrenceResponse is one concrete calendar appearance.
type OccurrenceResponse struct {
	Date  string        `json:"date"`
	Event EventResponse `json:"event"`
}

// ModerationOutcome reports the result for a single id of a bulk transition.
type ModerationOutcome struct {
	ID     string `json:"id"`
	Result string `json:"result"` // ok | not_found | invalid
}

// ImportResponse reports how many content-database rows became events.
type ImportResponse struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// ===================== Mapper functions =====================

// ToEventResponse maps entity to DTO.
func ToEventResponse(e *entity.Event) *EventResponse {
	resp := &EventResponse{
		ID:         e.ID.String(),
		Title:      e.Title,
		StartDate:  e.StartDate.Format(dateLayout),
		City:       e.City,
		Country:    e.Country,
		Categories: []string(e.Categories),
		Recurrence: string(e.Recurrence),
		Status:     string(e.Status),
		CreatedAt:  e.CreatedAt,
	}
	if e.Link != nil {
		resp.Link = *e.Link
	}
	if e.EndDate != nil {
		resp.EndDate = e.EndDate.Format(dateLayout)
	}
	if e.FlyerURL != nil {
		resp.FlyerURL = *e.FlyerURL
	}
	for _, d := range e.ExcludedDates {
		resp.ExcludedDates = append(resp.ExcludedDates, d.Format(dateLayout))
	}
	return resp
}

// ToOccurrenceResponse maps a derived occurrence to its DTO.
func ToOccurrenceResponse(o *entity.Occurrence) *OccurrenceResponse {
	return &OccurrenceResponse{
		Date:  o.Date.Format(dateLayout),
		Event: *ToEventResponse(&o.Event),
	}
}

// ParseDate parses a YYYY-MM-DD value at UTC.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, s, time.UTC)
}
