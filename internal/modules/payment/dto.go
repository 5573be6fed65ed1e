package payment

import "mixlab/internal/domain"

// WebhookEvent is the invoice callback body sent by the gateway. Only the
// fields the state machine reads are decoded; amounts are left alone.
type WebhookEvent struct {
	ID         string `json:"id"`
	ExternalID string `json:"external_id"`
	Status     string `json:"status"`
	PaymentID  string `json:"payment_id"`
}

// Outcome reports what a webhook or verification did.
type Outcome struct {
	Booking *domain.Booking
	Applied bool
	Ignored bool
}
