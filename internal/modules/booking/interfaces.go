package booking

import (
	"context"

	"mixlab/internal/domain"
	"mixlab/internal/pkg/xendit"
)

// BookingRepository is the storage used by the booking service.
type BookingRepository interface {
	CreateExclusive(ctx context.Context, b *domain.Booking, check domain.ConflictCheck) error
	SetInvoice(ctx context.Context, id int64, invoiceID string) error
	ListCountableByDate(ctx context.Context, date string) ([]domain.Booking, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error)
	GetByBookingID(ctx context.Context, bookingID string) (*domain.Booking, error)
}

// InvoiceCreator opens a hosted payment page for online methods.
type InvoiceCreator interface {
	CreateInvoice(ctx context.Context, in xendit.InvoiceRequest) (*xendit.Invoice, error)
}

type AdminNotifier interface {
	NotifyBookingCreated(ctx context.Context, b *domain.Booking) error
}
