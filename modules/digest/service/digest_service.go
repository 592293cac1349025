package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"tango-agenda/core/constants"
	"tango-agenda/core/errors"
	"tango-agenda/core/logger"
	"tango-agenda/core/mailer"
	eventdto "tango-agenda/modules/event/dto"
	"tango-agenda/modules/subscription/repository"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// OccurrenceLister is the slice of the event service the digest needs.
type OccurrenceLister interface {
	QueryOccurrences(ctx context.Context, req *eventdto.QueryEventsRequest) ([]eventdto.OccurrenceResponse, *errors.AppError)
}

// MailSender sends one rendered digest message.
type MailSender interface {
	Send(msg mailer.Message) error
}

// DigestService renders and sends periodic event digests.
type DigestService struct {
	subs    repository.SubscriptionRepositoryInterface
	events  OccurrenceLister
	mail    MailSender
	baseURL string
}

// NewDigestService creates the digest service. baseURL is the public
// calendar address linked from each digest; empty omits the link.
func NewDigestService(subs repository.SubscriptionRepositoryInterface, events OccurrenceLister, mail MailSender, baseURL string) *DigestService {
	return &DigestService{subs: subs, events: events, mail: mail, baseURL: baseURL}
}

// EnqueueDue pushes one send task per due subscription. Returns how many
// tasks were enqueued.
func (s *DigestService) EnqueueDue(ctx context.Context, client *asynq.Client, now time.Time) (int, error) {
	due, err := s.subs.ListDue(ctx, now)
	if err != nil {
		return 0, err
	}

	enqueued := 0
	for _, d := range due {
		task, err := NewSendTask(d.Subscription.ID)
		if err != nil {
			logger.Error("DigestService:EnqueueDue: build task", err, "subscription", d.Subscription.Slug)
			continue
		}
		if _, err := client.EnqueueContext(ctx, task); err != nil {
			logger.Error("DigestService:EnqueueDue: enqueue", err, "subscription", d.Subscription.Slug)
			continue
		}
		enqueued++
	}
	return enqueued, nil
}

// HandleSend is the asynq handler for digest:send. It renders the upcoming
// occurrences, mails every subscriber, and advances the subscription's next
// run. A subscription with no recipients or no upcoming events still
// advances, so it does not stay due forever.
func (s *DigestService) HandleSend(ctx context.Context, t *asynq.Task) error {
	var payload SendPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("digest:send payload: %w", err)
	}
	subID, err := uuid.Parse(payload.SubscriptionID)
	if err != nil {
		return fmt.Errorf("digest:send subscription id: %w", err)
	}

	sub, err := s.subs.GetSubscriptionByID(ctx, subID)
	if err != nil {
		return err
	}
	if sub == nil || !sub.Active {
		logger.Warn("Digest target missing or inactive, skipping", "subscription_id", payload.SubscriptionID)
		return nil
	}

	subscribers, err := s.subs.ListSubscribers(ctx, subID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	occurrences, appErr := s.events.QueryOccurrences(ctx, &eventdto.QueryEventsRequest{
		From: now.Format("2006-01-02"),
		To:   now.AddDate(0, 0, constants.DigestLookaheadDays).Format("2006-01-02"),
	})
	if appErr != nil {
		return appErr
	}

	if len(subscribers) > 0 && len(occurrences) > 0 {
		msg := renderDigest(sub.Title, occurrences, s.baseURL)
		for _, rcpt := range subscribers {
			msg.To = []mailer.Recipient{{Email: rcpt.UserEmail, Name: rcpt.UserName}}
			if err := s.mail.Send(msg); err != nil {
				logger.Error("DigestService:HandleSend: send", err, "recipient", rcpt.UserEmail)
			}
		}
		logger.Info("Digest sent", "subscription", sub.Slug, "recipients", len(subscribers), "occurrences", len(occurrences))
	} else {
		logger.Info("Digest skipped, nothing to send", "subscription", sub.Slug,
			"recipients", len(subscribers), "occurrences", len(occurrences))
	}

	next := now.AddDate(0, 0, sub.IntervalDays)
	return s.subs.AdvanceNextRun(ctx, subID, next)
}

// renderDigest builds the message body from the upcoming occurrences,
// grouped in date order as returned by the query.
func renderDigest(title string, occurrences []eventdto.OccurrenceResponse, baseURL string) mailer.Message {
	var text strings.Builder
	var html strings.Builder

	fmt.Fprintf(&text, "Upcoming events for the next %d days:\n\n", constants.DigestLookaheadDays)
	fmt.Fprintf(&html, "<h2>%s</h2><p>Upcoming events for the next %d days:</p><ul>", title, constants.DigestLookaheadDays)

	for _, occ := range occurrences {
		line := fmt.Sprintf("%s: %s (%s, %s)", occ.Date, occ.Event.Title, occ.Event.City, occ.Event.Country)
		fmt.Fprintf(&text, "- %s\n", line)
		if occ.Event.Link != "" {
			fmt.Fprintf(&text, "  %s\n", occ.Event.Link)
			fmt.Fprintf(&html, `<li>%s: <a href="%s">%s</a> (%s, %s)</li>`,
				occ.Date, occ.Event.Link, occ.Event.Title, occ.Event.City, occ.Event.Country)
		} else {
			fmt.Fprintf(&html, "<li>%s</li>", line)
		}
	}
	html.WriteString("</ul>")
	if baseURL != "" {
		fmt.Fprintf(&text, "\nSee the full calendar: %s\n", baseURL)
		fmt.Fprintf(&html, `<p><a href="%s">See the full calendar</a></p>`, baseURL)
	}

	return mailer.Message{
		Subject:  fmt.Sprintf("%s: %d upcoming events", title, len(occurrences)),
		TextPart: text.String(),
		HTMLPart: html.String(),
	}
}
