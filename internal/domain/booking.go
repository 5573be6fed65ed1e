package domain

import "time"

type ServiceType string

const (
	ServiceMusicLesson ServiceType = "music_lesson"
	ServiceRecording   ServiceType = "recording"
	ServiceRehearsal   ServiceType = "rehearsal"
	ServiceDance       ServiceType = "dance"
	ServiceArrangement ServiceType = "arrangement"
	ServiceVoiceover   ServiceType = "voiceover"
)

type PaymentMethod string

const (
	PaymentCash       PaymentMethod = "cash"
	PaymentGCash      PaymentMethod = "gcash"
	PaymentCreditCard PaymentMethod = "credit_card"
)

// IsOnline reports whether the method settles through the payment gateway.
func (m PaymentMethod) IsOnline() bool {
	return m == PaymentGCash || m == PaymentCreditCard
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentCashDue PaymentStatus = "cash"
	PaymentExpired PaymentStatus = "expired"
	PaymentFailed  PaymentStatus = "failed"
)

type CheckInStatus string

const (
	CheckInPending   CheckInStatus = "pending"
	CheckInCheckedIn CheckInStatus = "checked_in"
	CheckInCancelled CheckInStatus = "cancelled"
)

// CountablePaymentStatuses are the payment states that hold a slot.
var CountablePaymentStatuses = []PaymentStatus{PaymentPending, PaymentPaid, PaymentCashDue}

type Booking struct {
	ID              int64         `json:"id"`
	BookingID       string        `json:"booking_id"`
	UserID          *int64        `json:"user_id,omitempty"`
	Name            string        `json:"name"`
	Birthday        string        `json:"birthday,omitempty"`
	Email           string        `json:"email"`
	Contact         string        `json:"contact"`
	HomeAddress     string        `json:"home_address,omitempty"`
	ServiceType     ServiceType   `json:"service_type"`
	BookingDate     string        `json:"booking_date"`
	BookingTime     string        `json:"booking_time"`
	Hours           int           `json:"hours"`
	Members         int           `json:"members"`
	PaymentMethod   PaymentMethod `json:"payment_method"`
	TotalPrice      int64         `json:"total_price"`
	PaymentStatus   PaymentStatus `json:"payment_status"`
	CheckInStatus   CheckInStatus `json:"check_in_status"`
	XenditInvoiceID *string       `json:"xendit_invoice_id,omitempty"`
	XenditPaymentID *string       `json:"xendit_payment_id,omitempty"`
	Notes           string        `json:"notes,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// IsCountable reports whether the booking occupies its time range.
func (b *Booking) IsCountable() bool {
	if b.CheckInStatus == CheckInCancelled {
		return false
	}
	for _, s := range CountablePaymentStatuses {
		if b.PaymentStatus == s {
			return true
		}
	}
	return false
}

// CanTransition guards the payment state machine. Only pending bookings move,
// and only into a terminal state.
func CanTransition(from, to PaymentStatus) bool {
	if from != PaymentPending {
		return false
	}
	switch to {
	case PaymentPaid, PaymentExpired, PaymentFailed:
		return true
	}
	return false
}

// ConflictCheck inspects the countable bookings already on a date and
// returns an error when the pending write must not proceed.
type ConflictCheck func(existing []Booking) error
