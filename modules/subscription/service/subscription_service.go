package service

import (
	"context"
	"time"

	"tango-agenda/core/constants"
	"tango-agenda/core/errors"
	"tango-agenda/core/rbac"
	"tango-agenda/core/utils"
	"tango-agenda/modules/subscription/dto"
	"tango-agenda/modules/subscription/entity"
	"tango-agenda/modules/subscription/repository"
	userentity "tango-agenda/modules/user/entity"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// UserFinder resolves or creates the user behind a subscription sign-up.
type UserFinder interface {
	FindOrCreateByEmail(ctx context.Context, name, email string) (*userentity.User, error)
}

// SubscriptionService handles digest sign-ups and dispatch bookkeeping.
type SubscriptionService struct {
	repo  repository.SubscriptionRepositoryInterface
	users UserFinder
}

// SubscriptionServiceInterface defines the service contract.
type SubscriptionServiceInterface interface {
	List(ctx context.Context, roles []rbac.Role, includePrivate bool) ([]dto.SubscriptionResponse, *errors.AppError)
	Subscribe(ctx context.Context, req *dto.SubscribeRequest) ([]dto.SubscriberResponse, *errors.AppError)
	Create(ctx context.Context, roles []rbac.Role, req *dto.CreateSubscriptionRequest) (*dto.SubscriptionResponse, *errors.AppError)
	Update(ctx context.Context, roles []rbac.Role, id uuid.UUID, req *dto.UpdateSubscriptionRequest) (*dto.SubscriptionResponse, *errors.AppError)
	Due(ctx context.Context, now time.Time) ([]dto.DueSubscriptionResponse, *errors.AppError)
}

// NewSubscriptionService creates the subscription service.
func NewSubscriptionService(repo repository.SubscriptionRepositoryInterface, users UserFinder) SubscriptionServiceInterface {
	return &SubscriptionService{repo: repo, users: users}
}

// List returns active subscriptions. Private subscriptions appear only for
// callers allowed to see them.
func (s *SubscriptionService) List(ctx context.Context, roles []rbac.Role, includePrivate bool) ([]dto.SubscriptionResponse, *errors.AppError) {
	publicOnly := true
	if includePrivate && rbac.Can(roles, rbac.CapViewPrivateSubscriptions) {
		publicOnly = false
	}

	subs, err := s.repo.ListActive(ctx, publicOnly)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to list subscriptions", err)
	}

	result := make([]dto.SubscriptionResponse, 0, len(subs))
	for i := range subs {
		result = append(result, *dto.ToSubscriptionResponse(&subs[i]))
	}
	return result, nil
}

// Subscribe finds or creates the user by email and replaces their entire
// subscription set with the requested slugs. Replace, not merge: omitting a
// previously subscribed slug unsubscribes from it. An empty slug set
// unsubscribes from everything.
func (s *SubscriptionService) Subscribe(ctx context.Context, req *dto.SubscribeRequest) ([]dto.SubscriberResponse, *errors.AppError) {
	email := utils.NormalizeEmail(req.Email)
	if !utils.IsValidEmail(email) {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "email: invalid address", nil)
	}

	subs, err := s.repo.GetSubscriptionsBySlugs(ctx, req.Slugs)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to resolve subscriptions", err)
	}
	if len(subs) != len(uniqueSlugs(req.Slugs)) {
		return nil, errors.NewAppError(errors.ErrNotFound, "slugs: unknown subscription in set", nil)
	}

	user, err := s.users.FindOrCreateByEmail(ctx, req.Name, email)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to resolve user", err)
	}

	ids := make([]uuid.UUID, 0, len(subs))
	for _, sub := range subs {
		ids = append(ids, sub.ID)
	}
	if err := s.repo.ReplaceSubscriberLinks(ctx, user.ID, ids); err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to update subscriptions", err)
	}

	result := make([]dto.SubscriberResponse, 0, len(subs))
	for _, sub := range subs {
		result = append(result, dto.SubscriberResponse{
			SubscriptionID: sub.ID.String(),
			UserEmail:      user.Email,
			UserName:       user.Name,
		})
	}
	return result, nil
}

func uniqueSlugs(slugs []string) []string {
	seen := make(map[string]struct{}, len(slugs))
	out := make([]string, 0, len(slugs))
	for _, s := range slugs {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Create defines a new digest subscription. Admin only.
func (s *SubscriptionService) Create(ctx context.Context, roles []rbac.Role, req *dto.CreateSubscriptionRequest) (*dto.SubscriptionResponse, *errors.AppError) {
	if !rbac.Can(roles, rbac.CapManageSubscriptions) {
		return nil, errors.NewAppError(errors.ErrForbidden, "Managing subscriptions requires the admin role", nil)
	}
	if req.Title == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "title: required", nil)
	}

	key := req.Slug
	if key == "" {
		key = slug.Make(req.Title)
	}
	interval := req.IntervalDays
	if interval <= 0 {
		interval = constants.DefaultSubscriptionInterim
	}

	nextRun := time.Now().Add(24 * time.Hour)
	sub := &entity.Subscription{
		Slug:         key,
		Title:        req.Title,
		Description:  req.Description,
		Active:       true,
		Public:       req.Public,
		IntervalDays: interval,
		NextRunAt:    &nextRun,
	}

	created, err := s.repo.CreateSubscription(ctx, sub)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrCreateFailed, "Failed to create subscription", err)
	}
	return dto.ToSubscriptionResponse(created), nil
}

// Update patches subscription fields. Admin only.
func (s *SubscriptionService) Update(ctx context.Context, roles []rbac.Role, id uuid.UUID, req *dto.UpdateSubscriptionRequest) (*dto.SubscriptionResponse, *errors.AppError) {
	if !rbac.Can(roles, rbac.CapManageSubscriptions) {
		return nil, errors.NewAppError(errors.ErrForbidden, "Managing subscriptions requires the admin role", nil)
	}

	sub, err := s.repo.GetSubscriptionByID(ctx, id)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to get subscription", err)
	}
	if sub == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "Subscription not found", nil)
	}

	if req.Title != "" {
		sub.Title = req.Title
	}
	if req.Description != "" {
		sub.Description = req.Description
	}
	if req.Active != nil {
		sub.Active = *req.Active
	}
	if req.Public != nil {
		sub.Public = *req.Public
	}
	if req.IntervalDays > 0 {
		sub.IntervalDays = req.IntervalDays
	}

	if err := s.repo.UpdateSubscription(ctx, sub); err != nil {
		return nil, errors.NewAppError(errors.ErrUpdateFailed, "Failed to update subscription", err)
	}
	return dto.ToSubscriptionResponse(sub), nil
}

// Due returns every active subscription whose next run has passed, with its
// full recipient list. The caller (external cron or the in-process
// dispatcher) is responsible for sending and for advancing next_run.
func (s *SubscriptionService) Due(ctx context.Context, now time.Time) ([]dto.DueSubscriptionResponse, *errors.AppError) {
	due, err := s.repo.ListDue(ctx, now)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to list due subscriptions", err)
	}

	result := make([]dto.DueSubscriptionResponse, 0, len(due))
	for i := range due {
		result = append(result, *dto.ToDueSubscriptionResponse(&due[i]))
	}
	return result, nil
}
