package dto

import (
	"time"

	"tango-agenda/modules/subscription/entity"
)

// ===================== Request DTOs =====================

// SubscribeRequest creates or replaces a visitor's subscription set.
// Submitting a smaller slug set unsubscribes the visitor from everything not
// re-listed.
type SubscribeRequest struct {
	Name  string   `json:"name"`
	Email string   `json:"email" validate:"required,email"`
	Slugs []string `json:"slugs"`
}

// CreateSubscriptionRequest defines a new digest. Admin only. An empty slug
// is generated from the title.
type CreateSubscriptionRequest struct {
	Slug         string `json:"slug"`
	Title        string `json:"title" validate:"required"`
	Description  string `json:"description"`
	Public       bool   `json:"public"`
	IntervalDays int    `json:"interval_days"`
}

// UpdateSubscriptionRequest patches a subscription. Admin only. Nil
// pointers leave the flag untouched.
type UpdateSubscriptionRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Active       *bool  `json:"active"`
	Public       *bool  `json:"public"`
	IntervalDays int    `json:"interval_days"`
}

// ===================== Response DTOs =====================

// SubscriptionResponse for subscription details.
type SubscriptionResponse struct {
	ID           string     `json:"id"`
	Slug         string     `json:"slug"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Public       bool       `json:"public"`
	IntervalDays int        `json:"interval_days"`
	NextRunAt    *time.Time `json:"next_run_at,omitempty"`
}

// SubscriberResponse reports one user-to-subscription link.
type SubscriberResponse struct {
	SubscriptionID string `json:"subscription_id"`
	UserEmail      string `json:"user_email,omitempty"`
	UserName       string `json:"user_name,omitempty"`
}

// DueSubscriptionResponse is one due digest with its recipients.
type DueSubscriptionResponse struct {
	Subscription SubscriptionResponse `json:"subscription"`
	Subscribers  []SubscriberResponse `json:"subscribers"`
}

// ===================== Mapper functions =====================

// ToSubscriptionResponse maps entity to DTO.
func ToSubscriptionResponse(s *entity.Subscription) *SubscriptionResponse {
	return &SubscriptionResponse{
		ID:           s.ID.String(),
		Slug:         s.Slug,
		Title:        s.Title,
		Description:  s.Description,
		Public:       s.Public,
		IntervalDays: s.IntervalDays,
		NextRunAt:    s.NextRunAt,
	}
}

// ToDueSubscriptionResponse maps a due subscription with its recipients.
func ToDueSubscriptionResponse(d *entity.DueSubscription) *DueSubscriptionResponse {
	resp := &DueSubscriptionResponse{
		Subscription: *ToSubscriptionResponse(&d.Subscription),
	}
	for _, s := range d.Subscribers {
		resp.Subscribers = append(resp.Subscribers, SubscriberResponse{
			SubscriptionID: s.SubscriptionID.String(),
			UserEmail:      s.UserEmail,
			UserName:       s.UserName,
		})
	}
	return resp
}
