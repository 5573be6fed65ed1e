package admin

import (
	"context"

	"mixlab/internal/domain"
	"mixlab/internal/repository"
)

type BookingRepository interface {
	List(ctx context.Context, f repository.BookingFilter) ([]domain.Booking, int64, error)
	UpdateExclusive(ctx context.Context, id int64, mutate func(b *domain.Booking) error, check domain.ConflictCheck) (*domain.Booking, error)
	Delete(ctx context.Context, id int64) error
	ListCountableByDate(ctx context.Context, date string) ([]domain.Booking, error)
}

// Reserver inserts a booking through the locked conflict-checked path.
type Reserver interface {
	Reserve(ctx context.Context, b *domain.Booking) error
}

type Notifier interface {
	NotifyBookingCreated(ctx context.Context, b *domain.Booking) error
}
