package service

import (
	"context"

	coreentity "tango-agenda/core/entity"
	"tango-agenda/core/errors"
	"tango-agenda/core/logger"
	"tango-agenda/core/mailer"
	"tango-agenda/core/params"
	"tango-agenda/core/rbac"
	"tango-agenda/modules/event/dto"
	"tango-agenda/modules/event/entity"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ListPending returns one page of the moderation queue. Contributor-gated.
func (s *EventService) ListPending(ctx context.Context, roles []rbac.Role, p params.QueryParams) (*coreentity.Pagination[dto.EventResponse], *errors.AppError) {
	if !rbac.Can(roles, rbac.CapModerateEvents) {
		return nil, errors.NewAppError(errors.ErrForbidden, "Listing pending events requires the contributor role", nil)
	}

	events, total, err := s.repo.ListByStatus(ctx, entity.StatusPending, p)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to list pending events", err)
	}

	items := make([]dto.EventResponse, 0, len(events))
	for i := range events {
		items = append(items, *dto.ToEventResponse(&events[i]))
	}
	return &coreentity.Pagination[dto.EventResponse]{
		Items:      items,
		TotalItems: total,
		PageNumber: p.PageNumber,
		PageSize:   p.PageSize,
	}, nil
}

// SetStatus transitions one event's moderation status. Defined transitions
// are pending to validated and pending to rejected; setting the status an
// event already has succeeds as a no-op.
func (s *EventService) SetStatus(ctx context.Context, roles []rbac.Role, id uuid.UUID, status string) (*dto.EventResponse, *errors.AppError) {
	if !rbac.Can(roles, rbac.CapModerateEvents) {
		return nil, errors.NewAppError(errors.ErrForbidden, "Moderating events requires the contributor role", nil)
	}
	if !entity.IsValidStatus(status) {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "status: unknown status", nil)
	}

	event, err := s.repo.GetEventByID(ctx, id)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to get event", err)
	}
	if event == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "Event not found", nil)
	}

	target := entity.ValidationStatus(status)
	if event.Status == target {
		return dto.ToEventResponse(event), nil
	}
	if event.Status != entity.StatusPending {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "status: no transition defined from "+string(event.Status), nil)
	}

	if err := s.repo.UpdateStatus(ctx, id, target); err != nil {
		return nil, errors.NewAppError(errors.ErrUpdateFailed, "Failed to update status", err)
	}
	event.Status = target

	if target == entity.StatusValidated {
		s.mirrorEvent(ctx, event)
	}
	s.notifySubmitter(ctx, event)

	return dto.ToEventResponse(event), nil
}

// BulkSetStatus applies one transition to every supplied id, reporting each
// outcome independently. A missing or already-transitioned id never aborts
// the rest of the batch.
func (s *EventService) BulkSetStatus(ctx context.Context, roles []rbac.Role, req *dto.BulkSetStatusRequest) ([]dto.ModerationOutcome, *errors.AppError) {
	if !rbac.Can(roles, rbac.CapModerateEvents) {
		return nil, errors.NewAppError(errors.ErrForbidden, "Moderating events requires the contributor role", nil)
	}
	if !entity.IsValidStatus(req.Status) {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "status: unknown status", nil)
	}

	outcomes := make([]dto.ModerationOutcome, 0, len(req.IDs))
	for _, raw := range req.IDs {
		outcome := dto.ModerationOutcome{ID: raw, Result: "ok"}

		id, err := uuid.Parse(raw)
		if err != nil {
			outcome.Result = "invalid"
			outcomes = append(outcomes, outcome)
			continue
		}

		if _, appErr := s.SetStatus(ctx, roles, id, req.Status); appErr != nil {
			switch appErr.Code {
			case errors.ErrNotFound:
				outcome.Result = "not_found"
			default:
				outcome.Result = "invalid"
			}
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

// ImportFromContentDB pulls rows from the external content database and
// creates pending events for any not yet imported. Admin-gated.
func (s *EventService) ImportFromContentDB(ctx context.Context, roles []rbac.Role) (*dto.ImportResponse, *errors.AppError) {
	if !rbac.Can(roles, rbac.CapImportEvents) {
		return nil, errors.NewAppError(errors.ErrForbidden, "Importing events requires the admin role", nil)
	}
	if s.mirror == nil || !s.mirror.Enabled() {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Content database is not configured", nil)
	}

	records, err := s.mirror.PullEvents(ctx)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to query content database", err)
	}

	resp := &dto.ImportResponse{}
	for _, rec := range records {
		existing, err := s.repo.GetEventByContentRef(ctx, rec.PageID)
		if err != nil {
			return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to check imported events", err)
		}
		if existing != nil {
			resp.Skipped++
			continue
		}

		categories := make([]string, 0, len(rec.Categories))
		for _, c := range rec.Categories {
			if entity.IsValidCategory(c) {
				categories = append(categories, c)
			}
		}

		ref := rec.PageID
		event := &entity.Event{
			Title:      rec.Title,
			StartDate:  day(rec.StartDate),
			City:       rec.City,
			Country:    rec.Country,
			Categories: pq.StringArray(categories),
			Recurrence: entity.RecurrenceNone,
			Status:     entity.StatusPending,
			ContentRef: &ref,
		}
		if rec.EndDate != nil {
			end := day(*rec.EndDate)
			event.EndDate = &end
		}
		if rec.Link != "" {
			link := rec.Link
			event.Link = &link
		}

		if _, err := s.repo.CreateEvent(ctx, event); err != nil {
			logger.Error("EventService:ImportFromContentDB: create failed", err, "page", rec.PageID)
			resp.Skipped++
			continue
		}
		resp.Imported++
	}
	return resp, nil
}

// notifySubmitter emails the event submitter about a moderation decision.
// Best effort: a mail failure never fails the transition.
func (s *EventService) notifySubmitter(ctx context.Context, event *entity.Event) {
	if s.mail == nil || s.lookupSubmitter == nil || event.CreatedBy == nil {
		return
	}

	name, email, err := s.lookupSubmitter(ctx, *event.CreatedBy)
	if err != nil || email == "" {
		return
	}

	subject := "Your event \"" + event.Title + "\" was published"
	body := "Good news: your event \"" + event.Title + "\" is now listed on the calendar."
	if event.Status == entity.StatusRejected {
		subject = "Your event \"" + event.Title + "\" was not published"
		body = "Unfortunately your event \"" + event.Title + "\" was not accepted for the calendar."
	} else if s.baseURL != "" {
		body += "\n\nSee the full calendar: " + s.baseURL
	}

	err = s.mail.Send(mailer.Message{
		To:       []mailer.Recipient{{Email: email, Name: name}},
		Subject:  subject,
		TextPart: body,
	})
	if err != nil {
		logger.Error("EventService:notifySubmitter", err, "event", event.ID.String())
	}
}
