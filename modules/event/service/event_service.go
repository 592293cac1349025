package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"tango-agenda/core/contentdb"
	coreentity "tango-agenda/core/entity"
	"tango-agenda/core/errors"
	"tango-agenda/core/logger"
	"tango-agenda/core/mailer"
	"tango-agenda/core/params"
	"tango-agenda/core/rbac"
	"tango-agenda/modules/event/dto"
	"tango-agenda/modules/event/entity"
	"tango-agenda/modules/event/repository"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Default query window length when the caller omits the upper bound.
const defaultWindowMonths = 3

// ContentMirror is the external content database that mirrors validated
// events and serves as a secondary event source.
type ContentMirror interface {
	Enabled() bool
	PushEvent(ctx context.Context, rec contentdb.EventRecord) (string, error)
	PullEvents(ctx context.Context) ([]contentdb.EventRecord, error)
}

// MailSender delivers transactional email.
type MailSender interface {
	Send(msg mailer.Message) error
}

// SubmitterLookup resolves an event submitter to a name and email address.
type SubmitterLookup func(ctx context.Context, id uuid.UUID) (name, email string, err error)

// EventService handles event queries, submissions and moderation.
type EventService struct {
	repo            repository.EventRepositoryInterface
	mirror          ContentMirror
	mail            MailSender
	lookupSubmitter SubmitterLookup
	baseURL         string
}

// EventServiceInterface defines the service contract.
type EventServiceInterface interface {
	QueryOccurrences(ctx context.Context, req *dto.QueryEventsRequest) ([]dto.OccurrenceResponse, *errors.AppError)
	GetEvent(ctx context.Context, id uuid.UUID) (*dto.EventResponse, *errors.AppError)
	CreateEvent(ctx context.Context, callerID uuid.UUID, roles []rbac.Role, req *dto.CreateEventRequest) (*dto.EventResponse, *errors.AppError)
	UpdateEvent(ctx context.Context, id uuid.UUID, callerID uuid.UUID, roles []rbac.Role, req *dto.UpdateEventRequest) (*dto.EventResponse, *errors.AppError)
	DeleteEvent(ctx context.Context, id uuid.UUID, roles []rbac.Role, mode string, occurrence string) *errors.AppError
	SetFlyer(ctx context.Context, id uuid.UUID, callerID uuid.UUID, roles []rbac.Role, url string) (*dto.EventResponse, *errors.AppError)

	ListPending(ctx context.Context, roles []rbac.Role, p params.QueryParams) (*coreentity.Pagination[dto.EventResponse], *errors.AppError)
	SetStatus(ctx context.Context, roles []rbac.Role, id uuid.UUID, status string) (*dto.EventResponse, *errors.AppError)
	BulkSetStatus(ctx context.Context, roles []rbac.Role, req *dto.BulkSetStatusRequest) ([]dto.ModerationOutcome, *errors.AppError)
	ImportFromContentDB(ctx context.Context, roles []rbac.Role) (*dto.ImportResponse, *errors.AppError)
}

// NewEventService creates the event service. baseURL is the public calendar
// address linked from outgoing mail; empty omits the link.
func NewEventService(repo repository.EventRepositoryInterface, mirror ContentMirror, mail MailSender, lookup SubmitterLookup, baseURL string) EventServiceInterface {
	return &EventService{
		repo:            repo,
		mirror:          mirror,
		mail:            mail,
		lookupSubmitter: lookup,
		baseURL:         baseURL,
	}
}

// QueryOccurrences selects validated events whose span may intersect the
// window, expands recurrences, and filters the flattened occurrence list by
// category and free text. Read-path failures and malformed windows yield an
// empty list, never an error.
func (s *EventService) QueryOccurrences(ctx context.Context, req *dto.QueryEventsRequest) ([]dto.OccurrenceResponse, *errors.AppError) {
	empty := []dto.OccurrenceResponse{}

	lbound := day(time.Now())
	if req.From != "" {
		t, err := dto.ParseDate(req.From)
		if err != nil {
			return empty, nil
		}
		lbound = t
	}
	ubound := lbound.AddDate(0, defaultWindowMonths, 0)
	if req.To != "" {
		t, err := dto.ParseDate(req.To)
		if err != nil {
			return empty, nil
		}
		ubound = t
	}
	if ubound.Before(lbound) {
		return empty, nil
	}

	events, err := s.repo.ListIntersecting(ctx, lbound, ubound, entity.StatusValidated)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to query events", err)
	}

	occurrences := make([]entity.Occurrence, 0)
	for i := range events {
		ev := &events[i]
		if !matchesCategories(ev, req.Categories) || !matchesText(ev, req.Text) {
			continue
		}
		occurrences = append(occurrences, Occurrences(ev, lbound, ubound)...)
	}

	sort.Slice(occurrences, func(i, j int) bool {
		if !occurrences[i].Date.Equal(occurrences[j].Date) {
			return occurrences[i].Date.Before(occurrences[j].Date)
		}
		return occurrences[i].Event.Title < occurrences[j].Event.Title
	})

	result := make([]dto.OccurrenceResponse, 0, len(occurrences))
	for i := range occurrences {
		result = append(result, *dto.ToOccurrenceResponse(&occurrences[i]))
	}
	return result, nil
}

func matchesCategories(ev *entity.Event, requested []string) bool {
	if len(requested) == 0 {
		return true
	}
	for _, want := range requested {
		for _, have := range ev.Categories {
			if strings.EqualFold(want, have) {
				return true
			}
		}
	}
	return false
}

func matchesText(ev *entity.Event, text string) bool {
	if text == "" {
		return true
	}
	needle := strings.ToLower(text)
	for _, field := range []string{ev.Title, ev.City, ev.Country} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

// GetEvent retrieves one stored event.
func (s *EventService) GetEvent(ctx context.Context, id uuid.UUID) (*dto.EventResponse, *errors.AppError) {
	event, err := s.repo.GetEventByID(ctx, id)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to get event", err)
	}
	if event == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "Event not found", nil)
	}
	return dto.ToEventResponse(event), nil
}

// CreateEvent validates and stores a submission. Contributors get their
// events validated immediately; everyone else starts at pending.
func (s *EventService) CreateEvent(ctx context.Context, callerID uuid.UUID, roles []rbac.Role, req *dto.CreateEventRequest) (*dto.EventResponse, *errors.AppError) {
	event, appErr := s.eventFromCreateRequest(req)
	if appErr != nil {
		return nil, appErr
	}

	event.Status = entity.StatusPending
	if rbac.Can(roles, rbac.CapSubmitValidated) {
		event.Status = entity.StatusValidated
	}
	if callerID != uuid.Nil {
		event.CreatedBy = &callerID
	}

	created, err := s.repo.CreateEvent(ctx, event)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrCreateFailed, "Failed to create event", err)
	}

	if created.Status == entity.StatusValidated {
		s.mirrorEvent(ctx, created)
	}
	return dto.ToEventResponse(created), nil
}

func (s *EventService) eventFromCreateRequest(req *dto.CreateEventRequest) (*entity.Event, *errors.AppError) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "title: required", nil)
	}
	if req.StartDate == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "start_date: required", nil)
	}
	start, err := dto.ParseDate(req.StartDate)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "start_date: expected YYYY-MM-DD", nil)
	}

	event := &entity.Event{
		Title:      strings.TrimSpace(req.Title),
		StartDate:  start,
		City:       strings.TrimSpace(req.City),
		Country:    strings.TrimSpace(req.Country),
		Recurrence: entity.RecurrenceNone,
	}
	if req.Link != "" {
		link := req.Link
		event.Link = &link
	}

	if req.EndDate != "" {
		end, err := dto.ParseDate(req.EndDate)
		if err != nil {
			return nil, errors.NewAppError(errors.ErrInvalidInput, "end_date: expected YYYY-MM-DD", nil)
		}
		if end.Before(start) {
			return nil, errors.NewAppError(errors.ErrInvalidInput, "end_date: must be on or after start_date", nil)
		}
		event.EndDate = &end
	}

	if req.Recurrence != "" {
		if !entity.IsValidRecurrence(req.Recurrence) {
			return nil, errors.NewAppError(errors.ErrInvalidInput, "recurrence: unknown interval", nil)
		}
		event.Recurrence = entity.Recurrence(req.Recurrence)
	}

	for _, c := range req.Categories {
		if !entity.IsValidCategory(c) {
			return nil, errors.NewAppError(errors.ErrInvalidInput, "categories: unknown category "+c, nil)
		}
	}
	event.Categories = pq.StringArray(req.Categories)

	return event, nil
}

// UpdateEvent patches event fields. Only the submitter or a moderator may
// edit.
func (s *EventService) UpdateEvent(ctx context.Context, id uuid.UUID, callerID uuid.UUID, roles []rbac.Role, req *dto.UpdateEventRequest) (*dto.EventResponse, *errors.AppError) {
	event, err := s.repo.GetEventByID(ctx, id)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to get event", err)
	}
	if event == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "Event not found", nil)
	}
	if !s.canEdit(event, callerID, roles) {
		return nil, errors.NewAppError(errors.ErrForbidden, "Not allowed to edit this event", nil)
	}

	if req.Title != "" {
		event.Title = strings.TrimSpace(req.Title)
	}
	if req.Link != "" {
		link := req.Link
		event.Link = &link
	}
	if req.City != "" {
		event.City = strings.TrimSpace(req.City)
	}
	if req.Country != "" {
		event.Country = strings.TrimSpace(req.Country)
	}
	if req.StartDate != "" {
		start, err := dto.ParseDate(req.StartDate)
		if err != nil {
			return nil, errors.NewAppError(errors.ErrInvalidInput, "start_date: expected YYYY-MM-DD", nil)
		}
		event.StartDate = start
	}
	switch req.EndDate {
	case "":
		// untouched
	case "null":
		event.EndDate = nil
	default:
		end, err := dto.ParseDate(req.EndDate)
		if err != nil {
			return nil, errors.NewAppError(errors.ErrInvalidInput, "end_date: expected YYYY-MM-DD", nil)
		}
		event.EndDate = &end
	}
	if event.EndDate != nil && event.EndDate.Before(event.StartDate) {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "end_date: must be on or after start_date", nil)
	}
	if req.Recurrence != "" {
		if !entity.IsValidRecurrence(req.Recurrence) {
			return nil, errors.NewAppError(errors.ErrInvalidInput, "recurrence: unknown interval", nil)
		}
		event.Recurrence = entity.Recurrence(req.Recurrence)
	}
	if req.Categories != nil {
		for _, c := range req.Categories {
			if !entity.IsValidCategory(c) {
				return nil, errors.NewAppError(errors.ErrInvalidInput, "categories: unknown category "+c, nil)
			}
		}
		event.Categories = pq.StringArray(req.Categories)
	}

	if err := s.repo.UpdateEvent(ctx, event); err != nil {
		return nil, errors.NewAppError(errors.ErrUpdateFailed, "Failed to update event", err)
	}
	return dto.ToEventResponse(event), nil
}

// Deletion modes for recurring events.
const (
	DeleteModeAll        = "all"
	DeleteModeOccurrence = "occurrence"
	DeleteModeFollowing  = "following"
)

// DeleteEvent removes an event entirely, excludes one occurrence, or
// truncates future recurrence, depending on mode.
func (s *EventService) DeleteEvent(ctx context.Context, id uuid.UUID, roles []rbac.Role, mode string, occurrence string) *errors.AppError {
	if !rbac.Can(roles, rbac.CapModerateEvents) {
		return errors.NewAppError(errors.ErrForbidden, "Deleting events requires the contributor role", nil)
	}

	event, err := s.repo.GetEventByID(ctx, id)
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "Failed to get event", err)
	}
	if event == nil {
		return errors.NewAppError(errors.ErrNotFound, "Event not found", nil)
	}

	if mode == "" {
		mode = DeleteModeAll
	}
	if mode == DeleteModeAll {
		if err := s.repo.DeleteEvent(ctx, id); err != nil {
			return errors.NewAppError(errors.ErrDeleteFailed, "Failed to delete event", err)
		}
		return nil
	}

	// Occurrence-level modes apply to recurring events only.
	if !event.IsRecurring() {
		return errors.NewAppError(errors.ErrInvalidInput, "mode: only all applies to non-recurring events", nil)
	}

	occ, parseErr := dto.ParseDate(occurrence)
	if parseErr != nil {
		return errors.NewAppError(errors.ErrInvalidInput, "date: expected YYYY-MM-DD", nil)
	}

	switch mode {
	case DeleteModeOccurrence:
		if !event.ExcludedDates.Contains(occ) {
			event.ExcludedDates = append(event.ExcludedDates, occ)
		}
	case DeleteModeFollowing:
		newEnd := event.Recurrence.StepBack(day(occ))
		if newEnd.Before(day(event.StartDate)) {
			// Truncating at or before the first occurrence leaves nothing.
			if err := s.repo.DeleteEvent(ctx, id); err != nil {
				return errors.NewAppError(errors.ErrDeleteFailed, "Failed to delete event", err)
			}
			return nil
		}
		event.EndDate = &newEnd
	default:
		return errors.NewAppError(errors.ErrInvalidInput, "mode: must be all, occurrence or following", nil)
	}

	if err := s.repo.UpdateEvent(ctx, event); err != nil {
		return errors.NewAppError(errors.ErrUpdateFailed, "Failed to update event", err)
	}
	return nil
}

// SetFlyer stores the uploaded flyer URL on the event.
func (s *EventService) SetFlyer(ctx context.Context, id uuid.UUID, callerID uuid.UUID, roles []rbac.Role, url string) (*dto.EventResponse, *errors.AppError) {
	event, err := s.repo.GetEventByID(ctx, id)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to get event", err)
	}
	if event == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "Event not found", nil)
	}
	if !s.canEdit(event, callerID, roles) {
		return nil, errors.NewAppError(errors.ErrForbidden, "Not allowed to edit this event", nil)
	}

	event.FlyerURL = &url
	if err := s.repo.UpdateEvent(ctx, event); err != nil {
		return nil, errors.NewAppError(errors.ErrUpdateFailed, "Failed to update event", err)
	}
	return dto.ToEventResponse(event), nil
}

func (s *EventService) canEdit(event *entity.Event, callerID uuid.UUID, roles []rbac.Role) bool {
	if rbac.Can(roles, rbac.CapModerateEvents) {
		return true
	}
	return event.CreatedBy != nil && *event.CreatedBy == callerID
}

// mirrorEvent pushes a validated event to the external content database.
// Best effort: a mirror failure never fails the calling operation.
func (s *EventService) mirrorEvent(ctx context.Context, event *entity.Event) {
	if s.mirror == nil || !s.mirror.Enabled() || event.ContentRef != nil {
		return
	}

	rec := contentdb.EventRecord{
		Title:      event.Title,
		StartDate:  event.StartDate,
		EndDate:    event.EndDate,
		City:       event.City,
		Country:    event.Country,
		Categories: []string(event.Categories),
	}
	if event.Link != nil {
		rec.Link = *event.Link
	}

	pageID, err := s.mirror.PushEvent(ctx, rec)
	if err != nil || pageID == "" {
		return
	}
	event.ContentRef = &pageID
	if err := s.repo.UpdateEvent(ctx, event); err != nil {
		logger.Error("EventService:mirrorEvent", err, "event", event.ID.String())
	}
}
