package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"tango-agenda/core/errors"
	"tango-agenda/core/mailer"
	eventdto "tango-agenda/modules/event/dto"
	"tango-agenda/modules/subscription/entity"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubStore struct {
	sub         *entity.Subscription
	subscribers []entity.Subscriber
	advancedTo  *time.Time
}

func (f *fakeSubStore) CreateSubscription(context.Context, *entity.Subscription) (*entity.Subscription, error) {
	return nil, nil
}

func (f *fakeSubStore) GetSubscriptionByID(_ context.Context, id uuid.UUID) (*entity.Subscription, error) {
	if f.sub != nil && f.sub.ID == id {
		return f.sub, nil
	}
	return nil, nil
}

func (f *fakeSubStore) UpdateSubscription(context.Context, *entity.Subscription) error { return nil }

func (f *fakeSubStore) ListActive(context.Context, bool) ([]entity.Subscription, error) {
	return nil, nil
}

func (f *fakeSubStore) GetSubscriptionsBySlugs(context.Context, []string) ([]entity.Subscription, error) {
	return nil, nil
}

func (f *fakeSubStore) ReplaceSubscriberLinks(context.Context, uuid.UUID, []uuid.UUID) error {
	return nil
}

func (f *fakeSubStore) ListSubscriberLinks(context.Context, uuid.UUID) ([]entity.Subscriber, error) {
	return nil, nil
}

func (f *fakeSubStore) ListSubscribers(context.Context, uuid.UUID) ([]entity.Subscriber, error) {
	return f.subscribers, nil
}

func (f *fakeSubStore) ListDue(_ context.Context, now time.Time) ([]entity.DueSubscription, error) {
	if f.sub != nil && f.sub.IsDue(now) {
		return []entity.DueSubscription{{Subscription: *f.sub, Subscribers: f.subscribers}}, nil
	}
	return nil, nil
}

func (f *fakeSubStore) AdvanceNextRun(_ context.Context, _ uuid.UUID, nextRun time.Time) error {
	f.advancedTo = &nextRun
	return nil
}

type fakeOccurrences struct {
	occs []eventdto.OccurrenceResponse
}

func (f *fakeOccurrences) QueryOccurrences(context.Context, *eventdto.QueryEventsRequest) ([]eventdto.OccurrenceResponse, *errors.AppError) {
	return f.occs, nil
}

type fakeSender struct {
	sent []mailer.Message
}

func (f *fakeSender) Send(msg mailer.Message) error {
	f.sent = append(f.sent, msg)
	return nil
}

func sendTaskFor(t *testing.T, id uuid.UUID) *asynq.Task {
	t.Helper()
	task, err := NewSendTask(id)
	require.NoError(t, err)
	return task
}

func TestHandleSendMailsEachSubscriberAndAdvances(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	sub := &entity.Subscription{
		Slug: "weekly", Title: "Weekly Digest", Active: true,
		IntervalDays: 7, NextRunAt: &past,
	}
	sub.ID = uuid.New()

	store := &fakeSubStore{
		sub: sub,
		subscribers: []entity.Subscriber{
			{UserEmail: "a@x.com", UserName: "Ana"},
			{UserEmail: "b@x.com", UserName: "Bruno"},
		},
	}
	events := &fakeOccurrences{occs: []eventdto.OccurrenceResponse{
		{Date: "2024-06-07", Event: eventdto.EventResponse{Title: "Milonga Azul", City: "Berlin", Country: "Germany"}},
		{Date: "2024-06-08", Event: eventdto.EventResponse{Title: "Practica", Link: "https://example.com"}},
	}}
	sender := &fakeSender{}

	svc := NewDigestService(store, events, sender, "https://agenda.example")
	require.NoError(t, svc.HandleSend(context.Background(), sendTaskFor(t, sub.ID)))

	require.Len(t, sender.sent, 2)
	assert.Equal(t, "a@x.com", sender.sent[0].To[0].Email)
	assert.Contains(t, sender.sent[0].Subject, "Weekly Digest")
	assert.Contains(t, sender.sent[0].TextPart, "Milonga Azul")
	assert.Contains(t, sender.sent[0].HTMLPart, "https://example.com")
	assert.Contains(t, sender.sent[0].TextPart, "https://agenda.example")
	assert.Contains(t, sender.sent[0].HTMLPart, `<a href="https://agenda.example">`)

	require.NotNil(t, store.advancedTo)
	assert.True(t, store.advancedTo.After(time.Now().Add(6*24*time.Hour)))
}

func TestHandleSendAdvancesEvenWithNothingToSend(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	sub := &entity.Subscription{Slug: "quiet", Title: "Quiet", Active: true, IntervalDays: 7, NextRunAt: &past}
	sub.ID = uuid.New()

	store := &fakeSubStore{sub: sub}
	sender := &fakeSender{}
	svc := NewDigestService(store, &fakeOccurrences{}, sender, "")

	require.NoError(t, svc.HandleSend(context.Background(), sendTaskFor(t, sub.ID)))
	assert.Empty(t, sender.sent)
	assert.NotNil(t, store.advancedTo)
}

func TestHandleSendSkipsMissingSubscription(t *testing.T) {
	store := &fakeSubStore{}
	sender := &fakeSender{}
	svc := NewDigestService(store, &fakeOccurrences{}, sender, "")

	require.NoError(t, svc.HandleSend(context.Background(), sendTaskFor(t, uuid.New())))
	assert.Empty(t, sender.sent)
	assert.Nil(t, store.advancedTo)
}

func TestHandleSendRejectsBadPayload(t *testing.T) {
	svc := NewDigestService(&fakeSubStore{}, &fakeOccurrences{}, &fakeSender{}, "")

	err := svc.HandleSend(context.Background(), asynq.NewTask(TypeDigestSend, []byte("not json")))
	assert.Error(t, err)

	payload, _ := json.Marshal(SendPayload{SubscriptionID: "nope"})
	err = svc.HandleSend(context.Background(), asynq.NewTask(TypeDigestSend, payload))
	assert.Error(t, err)
}
