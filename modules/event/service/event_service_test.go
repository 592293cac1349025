package service

import (
	"context"
	"testing"
	"time"

	"tango-agenda/core/contentdb"
	"tango-agenda/core/errors"
	"tango-agenda/core/mailer"
	"tango-agenda/core/params"
	"tango-agenda/core/rbac"
	"tango-agenda/modules/event/dto"
	"tango-agenda/modules/event/entity"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEventRepo keeps events in memory, in insertion order.
type fakeEventRepo struct {
	events []*entity.Event
}

func (f *fakeEventRepo) CreateEvent(_ context.Context, ev *entity.Event) (*entity.Event, error) {
	stored := *ev
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	stored.CreatedAt = time.Now()
	f.events = append(f.events, &stored)
	return &stored, nil
}

func (f *fakeEventRepo) GetEventByID(_ context.Context, id uuid.UUID) (*entity.Event, error) {
	for _, ev := range f.events {
		if ev.ID == id {
			copy := *ev
			return &copy, nil
		}
	}
	return nil, nil
}

func (f *fakeEventRepo) GetEventByContentRef(_ context.Context, ref string) (*entity.Event, error) {
	for _, ev := range f.events {
		if ev.ContentRef != nil && *ev.ContentRef == ref {
			copy := *ev
			return &copy, nil
		}
	}
	return nil, nil
}

func (f *fakeEventRepo) ListIntersecting(_ context.Context, lbound, ubound time.Time, status entity.ValidationStatus) ([]entity.Event, error) {
	var out []entity.Event
	for _, ev := range f.events {
		if ev.Status != status || ev.StartDate.After(ubound) {
			continue
		}
		if ev.EndDate != nil && ev.EndDate.Before(lbound) {
			continue
		}
		out = append(out, *ev)
	}
	return out, nil
}

func (f *fakeEventRepo) ListByStatus(_ context.Context, status entity.ValidationStatus, p params.QueryParams) ([]entity.Event, int, error) {
	var all []entity.Event
	for _, ev := range f.events {
		if ev.Status == status {
			all = append(all, *ev)
		}
	}
	start := (p.PageNumber - 1) * p.PageSize
	if start > len(all) {
		start = len(all)
	}
	end := start + p.PageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], len(all), nil
}

func (f *fakeEventRepo) UpdateEvent(_ context.Context, ev *entity.Event) error {
	for i, stored := range f.events {
		if stored.ID == ev.ID {
			copy := *ev
			f.events[i] = &copy
			return nil
		}
	}
	return nil
}

func (f *fakeEventRepo) UpdateStatus(_ context.Context, id uuid.UUID, status entity.ValidationStatus) error {
	for _, stored := range f.events {
		if stored.ID == id {
			stored.Status = status
		}
	}
	return nil
}

func (f *fakeEventRepo) DeleteEvent(_ context.Context, id uuid.UUID) error {
	for i, stored := range f.events {
		if stored.ID == id {
			f.events = append(f.events[:i], f.events[i+1:]...)
			return nil
		}
	}
	return nil
}

// fakeMirror records pushes and serves canned records.
type fakeMirror struct {
	enabled bool
	pushed  []contentdb.EventRecord
	records []contentdb.EventRecord
}

func (f *fakeMirror) Enabled() bool { return f.enabled }

func (f *fakeMirror) PushEvent(_ context.Context, rec contentdb.EventRecord) (string, error) {
	f.pushed = append(f.pushed, rec)
	return "page-" + rec.Title, nil
}

func (f *fakeMirror) PullEvents(_ context.Context) ([]contentdb.EventRecord, error) {
	return f.records, nil
}

// fakeMail records sent messages.
type fakeMail struct {
	sent []mailer.Message
}

func (f *fakeMail) Send(msg mailer.Message) error {
	f.sent = append(f.sent, msg)
	return nil
}

var (
	memberRoles      = []rbac.Role{rbac.RoleMember}
	contributorRoles = []rbac.Role{rbac.RoleContributor}
	adminRoles       = []rbac.Role{rbac.RoleAdmin}
)

func newTestService(repo *fakeEventRepo, mirror *fakeMirror, mail *fakeMail) EventServiceInterface {
	lookup := func(_ context.Context, _ uuid.UUID) (string, string, error) {
		return "Ana", "ana@example.com", nil
	}
	var m ContentMirror
	if mirror != nil {
		m = mirror
	}
	var ms MailSender
	if mail != nil {
		ms = mail
	}
	return NewEventService(repo, m, ms, lookup, "https://agenda.example")
}

func seedEvent(repo *fakeEventRepo, ev *entity.Event) *entity.Event {
	created, _ := repo.CreateEvent(context.Background(), ev)
	return created
}

// ===================== Query =====================

func TestQueryOccurrencesFiltersAndSorts(t *testing.T) {
	repo := &fakeEventRepo{}
	seedEvent(repo, &entity.Event{
		Title: "Milonga Azul", City: "Berlin", Country: "Germany",
		StartDate: d("2024-05-08"), EndDate: dp("2024-05-31"),
		Recurrence: entity.RecurrenceWeekly,
		Categories: pq.StringArray{"party"},
		Status:     entity.StatusValidated,
	})
	seedEvent(repo, &entity.Event{
		Title: "Workshop Vals", City: "Paris", Country: "France",
		StartDate:  d("2024-05-10"),
		Categories: pq.StringArray{"workshop"},
		Status:     entity.StatusValidated,
	})
	seedEvent(repo, &entity.Event{
		Title: "Hidden Pending", City: "Berlin", Country: "Germany",
		StartDate: d("2024-05-12"),
		Status:    entity.StatusPending,
	})

	svc := newTestService(repo, nil, nil)

	all, appErr := svc.QueryOccurrences(context.Background(), &dto.QueryEventsRequest{
		From: "2024-05-01", To: "2024-05-31",
	})
	require.Nil(t, appErr)
	require.Len(t, all, 5)
	assert.Equal(t, "2024-05-08", all[0].Date)
	assert.Equal(t, "Workshop Vals", all[1].Event.Title)

	parties, appErr := svc.QueryOccurrences(context.Background(), &dto.QueryEventsRequest{
		From: "2024-05-01", To: "2024-05-31", Categories: []string{"party"},
	})
	require.Nil(t, appErr)
	assert.Len(t, parties, 4)

	berlin, appErr := svc.QueryOccurrences(context.Background(), &dto.QueryEventsRequest{
		From: "2024-05-01", To: "2024-05-31", Text: "berlin",
	})
	require.Nil(t, appErr)
	assert.Len(t, berlin, 4)
}

func TestQueryOccurrencesMalformedWindowIsEmpty(t *testing.T) {
	repo := &fakeEventRepo{}
	seedEvent(repo, &entity.Event{
		Title: "Milonga", StartDate: d("2024-05-08"), Status: entity.StatusValidated,
	})
	svc := newTestService(repo, nil, nil)

	got, appErr := svc.QueryOccurrences(context.Background(), &dto.QueryEventsRequest{
		From: "2024-05-31", To: "2024-05-01",
	})
	require.Nil(t, appErr)
	assert.Empty(t, got)

	got, appErr = svc.QueryOccurrences(context.Background(), &dto.QueryEventsRequest{
		From: "not-a-date",
	})
	require.Nil(t, appErr)
	assert.Empty(t, got)
}

// ===================== Create =====================

func TestCreateEventStatusDependsOnRole(t *testing.T) {
	repo := &fakeEventRepo{}
	svc := newTestService(repo, nil, nil)

	req := &dto.CreateEventRequest{
		Title: "Practica", StartDate: "2024-06-01", City: "Madrid", Country: "Spain",
		Categories: []string{"pratica"},
	}

	asMember, appErr := svc.CreateEvent(context.Background(), uuid.New(), memberRoles, req)
	require.Nil(t, appErr)
	assert.Equal(t, string(entity.StatusPending), asMember.Status)

	asContributor, appErr := svc.CreateEvent(context.Background(), uuid.New(), contributorRoles, req)
	require.Nil(t, appErr)
	assert.Equal(t, string(entity.StatusValidated), asContributor.Status)
}

func TestCreateEventRejectsBadInput(t *testing.T) {
	svc := newTestService(&fakeEventRepo{}, nil, nil)
	ctx := context.Background()
	caller := uuid.New()

	cases := []dto.CreateEventRequest{
		{StartDate: "2024-06-01"},
		{Title: "No date"},
		{Title: "Bad date", StartDate: "01.06.2024"},
		{Title: "End first", StartDate: "2024-06-10", EndDate: "2024-06-01"},
		{Title: "Bad rec", StartDate: "2024-06-01", Recurrence: "fortnightly"},
		{Title: "Bad cat", StartDate: "2024-06-01", Categories: []string{"rave"}},
	}
	for _, req := range cases {
		_, appErr := svc.CreateEvent(ctx, caller, memberRoles, &req)
		require.NotNil(t, appErr, "request %+v", req)
		assert.Equal(t, errors.ErrInvalidInput, appErr.Code)
	}
}

// ===================== Update and delete =====================

func TestUpdateEventOwnership(t *testing.T) {
	repo := &fakeEventRepo{}
	owner := uuid.New()
	ev := seedEvent(repo, &entity.Event{
		Title: "Milonga", StartDate: d("2024-06-01"),
		Status: entity.StatusPending, CreatedBy: &owner,
	})
	svc := newTestService(repo, nil, nil)

	_, appErr := svc.UpdateEvent(context.Background(), ev.ID, uuid.New(), memberRoles,
		&dto.UpdateEventRequest{Title: "Taken over"})
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrForbidden, appErr.Code)

	updated, appErr := svc.UpdateEvent(context.Background(), ev.ID, owner, memberRoles,
		&dto.UpdateEventRequest{Title: "Renamed", EndDate: "2024-06-30"})
	require.Nil(t, appErr)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, "2024-06-30", updated.EndDate)

	cleared, appErr := svc.UpdateEvent(context.Background(), ev.ID, owner, memberRoles,
		&dto.UpdateEventRequest{EndDate: "null"})
	require.Nil(t, appErr)
	assert.Empty(t, cleared.EndDate)
}

func TestDeleteEventModes(t *testing.T) {
	repo := &fakeEventRepo{}
	ev := seedEvent(repo, &entity.Event{
		Title: "Weekly Practica", StartDate: d("2024-06-03"),
		Recurrence: entity.RecurrenceWeekly, Status: entity.StatusValidated,
	})
	svc := newTestService(repo, nil, nil)
	ctx := context.Background()

	appErr := svc.DeleteEvent(ctx, ev.ID, memberRoles, DeleteModeAll, "")
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrForbidden, appErr.Code)

	// Excluding one occurrence keeps the event but marks the date.
	require.Nil(t, svc.DeleteEvent(ctx, ev.ID, contributorRoles, DeleteModeOccurrence, "2024-06-10"))
	stored, _ := repo.GetEventByID(ctx, ev.ID)
	require.NotNil(t, stored)
	assert.True(t, stored.ExcludedDates.Contains(d("2024-06-10")))

	// Truncating after the second occurrence sets the end one step back.
	require.Nil(t, svc.DeleteEvent(ctx, ev.ID, contributorRoles, DeleteModeFollowing, "2024-06-17"))
	stored, _ = repo.GetEventByID(ctx, ev.ID)
	require.NotNil(t, stored.EndDate)
	assert.Equal(t, d("2024-06-10"), *stored.EndDate)

	// Truncating at the first occurrence leaves nothing, so the row goes.
	require.Nil(t, svc.DeleteEvent(ctx, ev.ID, contributorRoles, DeleteModeFollowing, "2024-06-03"))
	stored, _ = repo.GetEventByID(ctx, ev.ID)
	assert.Nil(t, stored)
}

func TestDeleteNonRecurringRejectsOccurrenceModes(t *testing.T) {
	repo := &fakeEventRepo{}
	ev := seedEvent(repo, &entity.Event{
		Title: "One-off Milonga", StartDate: d("2024-06-03"),
		Recurrence: entity.RecurrenceNone, Status: entity.StatusValidated,
	})
	svc := newTestService(repo, nil, nil)
	ctx := context.Background()

	for _, mode := range []string{DeleteModeOccurrence, DeleteModeFollowing} {
		appErr := svc.DeleteEvent(ctx, ev.ID, contributorRoles, mode, "2024-06-03")
		require.NotNil(t, appErr, mode)
		assert.Equal(t, errors.ErrInvalidInput, appErr.Code)
	}

	// The event is untouched and delete-all still works.
	stored, _ := repo.GetEventByID(ctx, ev.ID)
	require.NotNil(t, stored)
	assert.Empty(t, stored.ExcludedDates)

	require.Nil(t, svc.DeleteEvent(ctx, ev.ID, contributorRoles, DeleteModeAll, ""))
	stored, _ = repo.GetEventByID(ctx, ev.ID)
	assert.Nil(t, stored)
}

// ===================== Moderation =====================

func TestSetStatusTransitions(t *testing.T) {
	repo := &fakeEventRepo{}
	submitter := uuid.New()
	ev := seedEvent(repo, &entity.Event{
		Title: "Milonga Nueva", StartDate: d("2024-06-01"),
		Status: entity.StatusPending, CreatedBy: &submitter,
	})
	mirror := &fakeMirror{enabled: true}
	mail := &fakeMail{}
	svc := newTestService(repo, mirror, mail)
	ctx := context.Background()

	_, appErr := svc.SetStatus(ctx, memberRoles, ev.ID, "validated")
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrForbidden, appErr.Code)

	got, appErr := svc.SetStatus(ctx, contributorRoles, ev.ID, "validated")
	require.Nil(t, appErr)
	assert.Equal(t, string(entity.StatusValidated), got.Status)
	assert.Len(t, mirror.pushed, 1)
	require.Len(t, mail.sent, 1)
	assert.Contains(t, mail.sent[0].Subject, "was published")
	assert.Contains(t, mail.sent[0].TextPart, "https://agenda.example")

	// Same status again is an idempotent no-op: no second mail, no push.
	_, appErr = svc.SetStatus(ctx, contributorRoles, ev.ID, "validated")
	require.Nil(t, appErr)
	assert.Len(t, mirror.pushed, 1)
	assert.Len(t, mail.sent, 1)

	// validated -> rejected is not a defined transition.
	_, appErr = svc.SetStatus(ctx, contributorRoles, ev.ID, "rejected")
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrInvalidInput, appErr.Code)
}

func TestSetStatusRejectedNotifies(t *testing.T) {
	repo := &fakeEventRepo{}
	submitter := uuid.New()
	ev := seedEvent(repo, &entity.Event{
		Title: "Milonga Gris", StartDate: d("2024-06-01"),
		Status: entity.StatusPending, CreatedBy: &submitter,
	})
	mail := &fakeMail{}
	svc := newTestService(repo, nil, mail)

	got, appErr := svc.SetStatus(context.Background(), contributorRoles, ev.ID, "rejected")
	require.Nil(t, appErr)
	assert.Equal(t, string(entity.StatusRejected), got.Status)
	require.Len(t, mail.sent, 1)
	assert.Contains(t, mail.sent[0].Subject, "was not published")
	assert.NotContains(t, mail.sent[0].TextPart, "https://agenda.example")
}

func TestBulkSetStatusReportsPerID(t *testing.T) {
	repo := &fakeEventRepo{}
	first := seedEvent(repo, &entity.Event{
		Title: "One", StartDate: d("2024-06-01"), Status: entity.StatusPending,
	})
	third := seedEvent(repo, &entity.Event{
		Title: "Three", StartDate: d("2024-06-03"), Status: entity.StatusPending,
	})
	svc := newTestService(repo, nil, nil)

	outcomes, appErr := svc.BulkSetStatus(context.Background(), contributorRoles, &dto.BulkSetStatusRequest{
		IDs:    []string{first.ID.String(), uuid.New().String(), third.ID.String(), "not-a-uuid"},
		Status: "validated",
	})
	require.Nil(t, appErr)
	require.Len(t, outcomes, 4)
	assert.Equal(t, "ok", outcomes[0].Result)
	assert.Equal(t, "not_found", outcomes[1].Result)
	assert.Equal(t, "ok", outcomes[2].Result)
	assert.Equal(t, "invalid", outcomes[3].Result)

	stored, _ := repo.GetEventByID(context.Background(), first.ID)
	assert.Equal(t, entity.StatusValidated, stored.Status)
}

func TestListPendingGated(t *testing.T) {
	repo := &fakeEventRepo{}
	seedEvent(repo, &entity.Event{Title: "Queue", StartDate: d("2024-06-01"), Status: entity.StatusPending})
	seedEvent(repo, &entity.Event{Title: "Live", StartDate: d("2024-06-02"), Status: entity.StatusValidated})
	svc := newTestService(repo, nil, nil)

	qp := params.NewQueryParams("", "", "")
	_, appErr := svc.ListPending(context.Background(), memberRoles, qp)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrForbidden, appErr.Code)

	queue, appErr := svc.ListPending(context.Background(), contributorRoles, qp)
	require.Nil(t, appErr)
	assert.Equal(t, 1, queue.TotalItems)
	require.Len(t, queue.Items, 1)
	assert.Equal(t, "Queue", queue.Items[0].Title)
}

// ===================== Import =====================

func TestImportFromContentDB(t *testing.T) {
	repo := &fakeEventRepo{}
	ref := "page-known"
	seedEvent(repo, &entity.Event{
		Title: "Already Imported", StartDate: d("2024-06-01"),
		Status: entity.StatusValidated, ContentRef: &ref,
	})

	mirror := &fakeMirror{
		enabled: true,
		records: []contentdb.EventRecord{
			{PageID: "page-known", Title: "Already Imported", StartDate: d("2024-06-01")},
			{PageID: "page-new", Title: "Fresh", StartDate: d("2024-07-01"),
				Categories: []string{"party", "bogus"}},
		},
	}
	svc := newTestService(repo, mirror, nil)

	_, appErr := svc.ImportFromContentDB(context.Background(), contributorRoles)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrForbidden, appErr.Code)

	resp, appErr := svc.ImportFromContentDB(context.Background(), adminRoles)
	require.Nil(t, appErr)
	assert.Equal(t, 1, resp.Imported)
	assert.Equal(t, 1, resp.Skipped)

	imported, _ := repo.GetEventByContentRef(context.Background(), "page-new")
	require.NotNil(t, imported)
	assert.Equal(t, entity.StatusPending, imported.Status)
	assert.Equal(t, pq.StringArray{"party"}, imported.Categories)
}
