package repository

import (
	"context"
	"database/sql"
	"time"

	"tango-agenda/core/database"
	"tango-agenda/core/logger"
	"tango-agenda/modules/subscription/entity"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// SubscriptionRepository handles subscription database operations.
type SubscriptionRepository struct {
	DB database.IDatabase
}

// NewSubscriptionRepository creates a new repository instance.
func NewSubscriptionRepository(db database.IDatabase) *SubscriptionRepository {
	return &SubscriptionRepository{DB: db}
}

// SubscriptionRepositoryInterface defines the repository contract.
type SubscriptionRepositoryInterface interface {
	CreateSubscription(ctx context.Context, sub *entity.Subscription) (*entity.Subscription, error)
	GetSubscriptionByID(ctx context.Context, id uuid.UUID) (*entity.Subscription, error)
	UpdateSubscription(ctx context.Context, sub *entity.Subscription) error
	ListActive(ctx context.Context, publicOnly bool) ([]entity.Subscription, error)
	GetSubscriptionsBySlugs(ctx context.Context, slugs []string) ([]entity.Subscription, error)
	ReplaceSubscriberLinks(ctx context.Context, userID uuid.UUID, subscriptionIDs []uuid.UUID) error
	ListSubscriberLinks(ctx context.Context, userID uuid.UUID) ([]entity.Subscriber, error)
	ListSubscribers(ctx context.Context, subscriptionID uuid.UUID) ([]entity.Subscriber, error)
	ListDue(ctx context.Context, now time.Time) ([]entity.DueSubscription, error)
	AdvanceNextRun(ctx context.Context, id uuid.UUID, nextRun time.Time) error
}

const subscriptionColumns = `id, slug, title, description, active, public, interval_days, next_run_at, created_at, updated_at`

func (r *SubscriptionRepository) CreateSubscription(ctx context.Context, sub *entity.Subscription) (*entity.Subscription, error) {
	query := `
		INSERT INTO subscriptions (slug, title, description, active, public, interval_days, next_run_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + subscriptionColumns

	var created entity.Subscription
	err := r.DB.GetContext(ctx, &created, query,
		sub.Slug, sub.Title, sub.Description, sub.Active, sub.Public, sub.IntervalDays, sub.NextRunAt)
	if err != nil {
		logger.Error("SubscriptionRepository:CreateSubscription", err)
		return nil, err
	}
	return &created, nil
}

func (r *SubscriptionRepository) GetSubscriptionByID(ctx context.Context, id uuid.UUID) (*entity.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = $1`

	var sub entity.Subscription
	err := r.DB.GetContext(ctx, &sub, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("SubscriptionRepository:GetSubscriptionByID", err)
		return nil, err
	}
	return &sub, nil
}

func (r *SubscriptionRepository) UpdateSubscription(ctx context.Context, sub *entity.Subscription) error {
	query := `
		UPDATE subscriptions
		SET slug = $2, title = $3, description = $4, active = $5, public = $6,
		    interval_days = $7, next_run_at = $8, updated_at = NOW()
		WHERE id = $1
	`
	err := r.DB.ExecContext(ctx, query,
		sub.ID, sub.Slug, sub.Title, sub.Description, sub.Active, sub.Public,
		sub.IntervalDays, sub.NextRunAt)
	if err != nil {
		logger.Error("SubscriptionRepository:UpdateSubscription", err)
		return err
	}
	return nil
}

func (r *SubscriptionRepository) ListActive(ctx context.Context, publicOnly bool) ([]entity.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE active = TRUE`
	if publicOnly {
		query += ` AND public = TRUE`
	}
	query += ` ORDER BY title ASC`

	var subs []entity.Subscription
	err := r.DB.SelectContext(ctx, &subs, query)
	if err != nil {
		logger.Error("SubscriptionRepository:ListActive", err)
		return nil, err
	}
	return subs, nil
}

func (r *SubscriptionRepository) GetSubscriptionsBySlugs(ctx context.Context, slugs []string) ([]entity.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE slug = ANY($1) AND active = TRUE`

	var subs []entity.Subscription
	err := r.DB.SelectContext(ctx, &subs, query, pq.StringArray(slugs))
	if err != nil {
		logger.Error("SubscriptionRepository:GetSubscriptionsBySlugs", err)
		return nil, err
	}
	return subs, nil
}

// ReplaceSubscriberLinks removes every existing link of the user and creates
// one link per requested subscription. The delete-then-create sequence runs
// inside one transaction so a crash cannot leave the user half-subscribed.
func (r *SubscriptionRepository) ReplaceSubscriberLinks(ctx context.Context, userID uuid.UUID, subscriptionIDs []uuid.UUID) error {
	err := database.WithinTransaction(ctx, r.DB, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM subscribers WHERE user_id = $1`, userID); err != nil {
			return err
		}
		for _, subID := range subscriptionIDs {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO subscribers (user_id, subscription_id) VALUES ($1, $2)`,
				userID, subID)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.Error("SubscriptionRepository:ReplaceSubscriberLinks", err)
		return err
	}
	return nil
}

func (r *SubscriptionRepository) ListSubscriberLinks(ctx context.Context, userID uuid.UUID) ([]entity.Subscriber, error) {
	query := `
		SELECT id, user_id, subscription_id, created_at
		FROM subscribers
		WHERE user_id = $1
		ORDER BY created_at ASC
	`

	var links []entity.Subscriber
	err := r.DB.SelectContext(ctx, &links, query, userID)
	if err != nil {
		logger.Error("SubscriptionRepository:ListSubscriberLinks", err)
		return nil, err
	}
	return links, nil
}

// ListSubscribers returns every recipient of one subscription with user
// contact details joined in.
func (r *SubscriptionRepository) ListSubscribers(ctx context.Context, subscriptionID uuid.UUID) ([]entity.Subscriber, error) {
	query := `
		SELECT s.id, s.user_id, s.subscription_id, s.created_at,
		       u.name AS user_name, u.email AS user_email
		FROM subscribers s
		JOIN users u ON u.id = s.user_id
		WHERE s.subscription_id = $1
		ORDER BY s.created_at ASC
	`

	var subscribers []entity.Subscriber
	err := r.DB.SelectContext(ctx, &subscribers, query, subscriptionID)
	if err != nil {
		logger.Error("SubscriptionRepository:ListSubscribers", err)
		return nil, err
	}
	return subscribers, nil
}

// ListDue returns active subscriptions whose next run has passed, each
// populated with its full subscriber list and user contact details.
func (r *SubscriptionRepository) ListDue(ctx context.Context, now time.Time) ([]entity.DueSubscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE active = TRUE AND next_run_at IS NOT NULL AND next_run_at <= $1
		ORDER BY next_run_at ASC
	`

	var subs []entity.Subscription
	if err := r.DB.SelectContext(ctx, &subs, query, now); err != nil {
		logger.Error("SubscriptionRepository:ListDue", err)
		return nil, err
	}

	out := make([]entity.DueSubscription, 0, len(subs))
	for _, sub := range subs {
		subscribers, err := r.ListSubscribers(ctx, sub.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, entity.DueSubscription{Subscription: sub, Subscribers: subscribers})
	}
	return out, nil
}

func (r *SubscriptionRepository) AdvanceNextRun(ctx context.Context, id uuid.UUID, nextRun time.Time) error {
	query := `UPDATE subscriptions SET next_run_at = $2, updated_at = NOW() WHERE id = $1`
	err := r.DB.ExecContext(ctx, query, id, nextRun)
	if err != nil {
		logger.Error("SubscriptionRepository:AdvanceNextRun", err)
		return err
	}
	return nil
}
