package service

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// TypeDigestSend is the queue task that renders and sends one digest.
const TypeDigestSend = "digest:send"

// SendPayload identifies the subscription to send.
type SendPayload struct {
	SubscriptionID string `json:"subscription_id"`
}

// NewSendTask builds a digest:send task for one subscription.
func NewSendTask(subscriptionID uuid.UUID) (*asynq.Task, error) {
	payload, err := json.Marshal(SendPayload{SubscriptionID: subscriptionID.String()})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeDigestSend, payload, asynq.MaxRetry(3)), nil
}
