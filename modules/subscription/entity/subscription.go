package entity

import (
	"time"

	"tango-agenda/core/entity"

	"github.com/google/uuid"
)

// Subscription is one email digest a visitor can sign up for.
type Subscription struct {
	Slug         string     `db:"slug" json:"slug"`
	Title        string     `db:"title" json:"title"`
	Description  string     `db:"description" json:"description"`
	Active       bool       `db:"active" json:"active"`
	Public       bool       `db:"public" json:"public"`
	IntervalDays int        `db:"interval_days" json:"interval_days"`
	NextRunAt    *time.Time `db:"next_run_at" json:"next_run_at,omitempty"`
	entity.BaseEntity
}

// IsDue reports whether the subscription should be dispatched now.
func (s *Subscription) IsDue(now time.Time) bool {
	return s.Active && s.NextRunAt != nil && !s.NextRunAt.After(now)
}

// Subscriber links one user to one subscription.
type Subscriber struct {
	ID             uuid.UUID `db:"id" json:"id"`
	UserID         uuid.UUID `db:"user_id" json:"user_id"`
	SubscriptionID uuid.UUID `db:"subscription_id" json:"subscription_id"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`

	// Populated on the due-subscriptions path.
	UserName  string `db:"user_name" json:"user_name,omitempty"`
	UserEmail string `db:"user_email" json:"user_email,omitempty"`
}

// DueSubscription is a due subscription together with its full subscriber
// list, ready for the digest dispatcher.
type DueSubscription struct {
	Subscription Subscription `json:"subscription"`
	Subscribers  []Subscriber `json:"subscribers"`
}
