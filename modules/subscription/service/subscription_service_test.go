package service

import (
	"context"
	"testing"
	"time"

	"tango-agenda/core/errors"
	"tango-agenda/core/rbac"
	"tango-agenda/modules/subscription/dto"
	"tango-agenda/modules/subscription/entity"
	userentity "tango-agenda/modules/user/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSubRepo keeps subscriptions and links in memory.
type fakeSubRepo struct {
	subs  []*entity.Subscription
	links map[uuid.UUID][]uuid.UUID // user -> subscriptions
}

func newFakeSubRepo() *fakeSubRepo {
	return &fakeSubRepo{links: make(map[uuid.UUID][]uuid.UUID)}
}

func (f *fakeSubRepo) addSub(slug string, public bool, next *time.Time) *entity.Subscription {
	sub := &entity.Subscription{
		Slug: slug, Title: slug, Active: true, Public: public,
		IntervalDays: 7, NextRunAt: next,
	}
	sub.ID = uuid.New()
	f.subs = append(f.subs, sub)
	return sub
}

func (f *fakeSubRepo) CreateSubscription(_ context.Context, sub *entity.Subscription) (*entity.Subscription, error) {
	stored := *sub
	stored.ID = uuid.New()
	f.subs = append(f.subs, &stored)
	return &stored, nil
}

func (f *fakeSubRepo) GetSubscriptionByID(_ context.Context, id uuid.UUID) (*entity.Subscription, error) {
	for _, sub := range f.subs {
		if sub.ID == id {
			copy := *sub
			return &copy, nil
		}
	}
	return nil, nil
}

func (f *fakeSubRepo) UpdateSubscription(_ context.Context, sub *entity.Subscription) error {
	for i, stored := range f.subs {
		if stored.ID == sub.ID {
			copy := *sub
			f.subs[i] = &copy
		}
	}
	return nil
}

func (f *fakeSubRepo) ListActive(_ context.Context, publicOnly bool) ([]entity.Subscription, error) {
	var out []entity.Subscription
	for _, sub := range f.subs {
		if sub.Active && (!publicOnly || sub.Public) {
			out = append(out, *sub)
		}
	}
	return out, nil
}

func (f *fakeSubRepo) GetSubscriptionsBySlugs(_ context.Context, slugs []string) ([]entity.Subscription, error) {
	var out []entity.Subscription
	for _, want := range slugs {
		for _, sub := range f.subs {
			if sub.Active && sub.Slug == want {
				out = append(out, *sub)
			}
		}
	}
	return out, nil
}

func (f *fakeSubRepo) ReplaceSubscriberLinks(_ context.Context, userID uuid.UUID, subscriptionIDs []uuid.UUID) error {
	f.links[userID] = append([]uuid.UUID(nil), subscriptionIDs...)
	return nil
}

func (f *fakeSubRepo) ListSubscriberLinks(_ context.Context, userID uuid.UUID) ([]entity.Subscriber, error) {
	var out []entity.Subscriber
	for _, subID := range f.links[userID] {
		out = append(out, entity.Subscriber{UserID: userID, SubscriptionID: subID})
	}
	return out, nil
}

func (f *fakeSubRepo) ListSubscribers(_ context.Context, subscriptionID uuid.UUID) ([]entity.Subscriber, error) {
	var out []entity.Subscriber
	for userID, subIDs := range f.links {
		for _, subID := range subIDs {
			if subID == subscriptionID {
				out = append(out, entity.Subscriber{UserID: userID, SubscriptionID: subID})
			}
		}
	}
	return out, nil
}

func (f *fakeSubRepo) ListDue(ctx context.Context, now time.Time) ([]entity.DueSubscription, error) {
	var out []entity.DueSubscription
	for _, sub := range f.subs {
		if !sub.IsDue(now) {
			continue
		}
		subscribers, _ := f.ListSubscribers(ctx, sub.ID)
		out = append(out, entity.DueSubscription{Subscription: *sub, Subscribers: subscribers})
	}
	return out, nil
}

func (f *fakeSubRepo) AdvanceNextRun(_ context.Context, id uuid.UUID, nextRun time.Time) error {
	for _, sub := range f.subs {
		if sub.ID == id {
			next := nextRun
			sub.NextRunAt = &next
		}
	}
	return nil
}

// fakeUserFinder creates users keyed by email.
type fakeUserFinder struct {
	byEmail map[string]*userentity.User
}

func newFakeUserFinder() *fakeUserFinder {
	return &fakeUserFinder{byEmail: make(map[string]*userentity.User)}
}

func (f *fakeUserFinder) FindOrCreateByEmail(_ context.Context, name, email string) (*userentity.User, error) {
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	u := &userentity.User{Name: name, Email: email}
	u.ID = uuid.New()
	f.byEmail[email] = u
	return u, nil
}

func TestSubscribeReplacesExistingSet(t *testing.T) {
	repo := newFakeSubRepo()
	newsletter := repo.addSub("newsletter", true, nil)
	digest := repo.addSub("weekly-digest", true, nil)
	users := newFakeUserFinder()
	svc := NewSubscriptionService(repo, users)
	ctx := context.Background()

	_, appErr := svc.Subscribe(ctx, &dto.SubscribeRequest{
		Name: "Ana", Email: "a@x.com", Slugs: []string{"newsletter"},
	})
	require.Nil(t, appErr)

	user := users.byEmail["a@x.com"]
	require.NotNil(t, user)
	assert.Equal(t, []uuid.UUID{newsletter.ID}, repo.links[user.ID])

	// Resubscribing with a different set replaces, it does not merge.
	_, appErr = svc.Subscribe(ctx, &dto.SubscribeRequest{
		Email: "a@x.com", Slugs: []string{"weekly-digest"},
	})
	require.Nil(t, appErr)
	assert.Equal(t, []uuid.UUID{digest.ID}, repo.links[user.ID])

	// An empty set unsubscribes from everything.
	_, appErr = svc.Subscribe(ctx, &dto.SubscribeRequest{Email: "a@x.com"})
	require.Nil(t, appErr)
	assert.Empty(t, repo.links[user.ID])
}

func TestSubscribeSameSetTwiceIsIdempotent(t *testing.T) {
	repo := newFakeSubRepo()
	newsletter := repo.addSub("newsletter", true, nil)
	digest := repo.addSub("weekly-digest", true, nil)
	users := newFakeUserFinder()
	svc := NewSubscriptionService(repo, users)
	ctx := context.Background()

	req := &dto.SubscribeRequest{
		Name: "Ana", Email: "a@x.com", Slugs: []string{"newsletter", "weekly-digest"},
	}
	_, appErr := svc.Subscribe(ctx, req)
	require.Nil(t, appErr)

	user := users.byEmail["a@x.com"]
	require.NotNil(t, user)
	first := append([]uuid.UUID(nil), repo.links[user.ID]...)
	assert.ElementsMatch(t, []uuid.UUID{newsletter.ID, digest.ID}, first)

	_, appErr = svc.Subscribe(ctx, req)
	require.Nil(t, appErr)
	assert.Equal(t, first, repo.links[user.ID])
	assert.Len(t, users.byEmail, 1)
}

func TestSubscribeValidation(t *testing.T) {
	repo := newFakeSubRepo()
	repo.addSub("newsletter", true, nil)
	svc := NewSubscriptionService(repo, newFakeUserFinder())
	ctx := context.Background()

	_, appErr := svc.Subscribe(ctx, &dto.SubscribeRequest{Email: "not-an-email"})
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrInvalidInput, appErr.Code)

	_, appErr = svc.Subscribe(ctx, &dto.SubscribeRequest{
		Email: "a@x.com", Slugs: []string{"newsletter", "no-such-digest"},
	})
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrNotFound, appErr.Code)
}

func TestListRespectsVisibility(t *testing.T) {
	repo := newFakeSubRepo()
	repo.addSub("newsletter", true, nil)
	repo.addSub("staff-digest", false, nil)
	svc := NewSubscriptionService(repo, newFakeUserFinder())
	ctx := context.Background()

	public, appErr := svc.List(ctx, nil, false)
	require.Nil(t, appErr)
	assert.Len(t, public, 1)

	// A member asking for private still only sees public ones.
	member, appErr := svc.List(ctx, []rbac.Role{rbac.RoleMember}, true)
	require.Nil(t, appErr)
	assert.Len(t, member, 1)

	admin, appErr := svc.List(ctx, []rbac.Role{rbac.RoleAdmin}, true)
	require.Nil(t, appErr)
	assert.Len(t, admin, 2)
}

func TestCreateSubscription(t *testing.T) {
	repo := newFakeSubRepo()
	svc := NewSubscriptionService(repo, newFakeUserFinder())
	ctx := context.Background()

	_, appErr := svc.Create(ctx, []rbac.Role{rbac.RoleContributor}, &dto.CreateSubscriptionRequest{Title: "Weekly Digest"})
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrForbidden, appErr.Code)

	created, appErr := svc.Create(ctx, []rbac.Role{rbac.RoleAdmin}, &dto.CreateSubscriptionRequest{
		Title: "Weekly Digest", Public: true,
	})
	require.Nil(t, appErr)
	assert.Equal(t, "weekly-digest", created.Slug)
	assert.Equal(t, 7, created.IntervalDays)
	assert.NotNil(t, created.NextRunAt)
}

func TestUpdateSubscription(t *testing.T) {
	repo := newFakeSubRepo()
	sub := repo.addSub("newsletter", true, nil)
	svc := NewSubscriptionService(repo, newFakeUserFinder())
	ctx := context.Background()

	off := false
	_, appErr := svc.Update(ctx, []rbac.Role{rbac.RoleMember}, sub.ID, &dto.UpdateSubscriptionRequest{Active: &off})
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrForbidden, appErr.Code)

	_, appErr = svc.Update(ctx, []rbac.Role{rbac.RoleAdmin}, uuid.New(), &dto.UpdateSubscriptionRequest{Active: &off})
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrNotFound, appErr.Code)

	updated, appErr := svc.Update(ctx, []rbac.Role{rbac.RoleAdmin}, sub.ID, &dto.UpdateSubscriptionRequest{
		Title: "Monthly News", IntervalDays: 30, Active: &off,
	})
	require.Nil(t, appErr)
	assert.Equal(t, "Monthly News", updated.Title)
	assert.Equal(t, 30, updated.IntervalDays)

	stored, _ := repo.GetSubscriptionByID(ctx, sub.ID)
	assert.False(t, stored.Active)
}

func TestDueListsOnlyElapsed(t *testing.T) {
	repo := newFakeSubRepo()
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	due := repo.addSub("due-digest", true, &past)
	repo.addSub("future-digest", true, &future)
	repo.addSub("manual-digest", true, nil)

	users := newFakeUserFinder()
	svc := NewSubscriptionService(repo, users)
	ctx := context.Background()

	_, appErr := svc.Subscribe(ctx, &dto.SubscribeRequest{
		Name: "Ana", Email: "a@x.com", Slugs: []string{"due-digest"},
	})
	require.Nil(t, appErr)

	got, appErr := svc.Due(ctx, now)
	require.Nil(t, appErr)
	require.Len(t, got, 1)
	assert.Equal(t, due.Slug, got[0].Subscription.Slug)
	assert.Len(t, got[0].Subscribers, 1)
}
