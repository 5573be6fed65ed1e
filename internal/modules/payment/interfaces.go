package payment

import (
	"context"

	"mixlab/internal/domain"
	"mixlab/internal/pkg/xendit"
)

type bookingStore interface {
	GetByBookingID(ctx context.Context, bookingID string) (*domain.Booking, error)
	TransitionPaymentStatus(ctx context.Context, bookingID string, to domain.PaymentStatus, paymentID *string) (*domain.Booking, bool, error)
}

type invoiceGetter interface {
	GetInvoice(ctx context.Context, invoiceID string) (*xendit.Invoice, error)
}

// StatusListener is told about every applied payment transition. It runs
// after commit; errors are logged and never undo the transition.
type StatusListener interface {
	PaymentStatusChanged(ctx context.Context, b *domain.Booking) error
}
