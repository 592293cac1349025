package mailer

import (
	"fmt"

	"tango-agenda/core/config"
	"tango-agenda/core/logger"

	mailjet "github.com/mailjet/mailjet-apiv3-go"
)

// Message is one outgoing transactional email.
type Message struct {
	To       []Recipient
	Subject  string
	TextPart string
	HTMLPart string
}

type Recipient struct {
	Email string
	Name  string
}

// Mailer sends transactional email through the MailJet API.
type Mailer struct {
	client     *mailjet.Client
	sender     string
	senderName string
}

// NewMailer builds a mailer from the mail-service credentials. With empty
// keys it returns a disabled mailer that logs instead of sending, which keeps
// local development working without credentials.
func NewMailer(cfg config.MailConfig) *Mailer {
	m := &Mailer{
		sender:     cfg.Sender,
		senderName: cfg.SenderName,
	}
	if cfg.PublicKey != "" && cfg.PrivateKey != "" {
		m.client = mailjet.NewMailjetClient(cfg.PublicKey, cfg.PrivateKey)
	}
	return m
}

// Send delivers one message to all recipients. Failures are returned to the
// caller; nothing is retried.
func (m *Mailer) Send(msg Message) error {
	if len(msg.To) == 0 {
		return nil
	}

	if m.client == nil {
		logger.Info("Mailer disabled, skipping send", "subject", msg.Subject, "recipients", len(msg.To))
		return nil
	}

	to := mailjet.RecipientsV31{}
	for _, r := range msg.To {
		to = append(to, mailjet.RecipientV31{Email: r.Email, Name: r.Name})
	}

	info := []mailjet.InfoMessagesV31{{
		From:     &mailjet.RecipientV31{Email: m.sender, Name: m.senderName},
		To:       &to,
		Subject:  msg.Subject,
		TextPart: msg.TextPart,
		HTMLPart: msg.HTMLPart,
	}}

	msgs := mailjet.MessagesV31{Info: info}
	if _, err := m.client.SendMailV31(&msgs); err != nil {
		return fmt.Errorf("could not send mail: %w", err)
	}
	return nil
}
