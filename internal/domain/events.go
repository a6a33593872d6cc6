package domain

import "time"

// MerchantCreatedEvent is published to RabbitMQ after the ensurer inserts a
// new merchant row. Downstream services (notifications, analytics) consume
// it; publishing is best-effort and never blocks confirmation.
type MerchantCreatedEvent struct {
	EventID      string    `json:"event_id"`
	UserID       string    `json:"user_id"`
	Email        string    `json:"email,omitempty"`
	BusinessName string    `json:"business_name,omitempty"`
	Country      string    `json:"country,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// ComplianceCompletedEvent is published when the final onboarding step is
// marked complete.
type ComplianceCompletedEvent struct {
	EventID     string    `json:"event_id"`
	UserID      string    `json:"user_id"`
	CompletedAt time.Time `json:"completed_at"`
}
