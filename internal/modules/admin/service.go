package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"mixlab/internal/domain"
	"mixlab/internal/modules/booking"
	"mixlab/internal/pkg/validator"
	"mixlab/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultPage  = 1
	defaultLimit = 20
	maxLimit     = 100
)

var ErrNothingToUpdate = errors.New("no fields to update")

type Service struct {
	bookings BookingRepository
	reserver Reserver
	notifier Notifier
	grid     booking.Grid
	log      *zap.Logger
}

func NewService(bookings BookingRepository, reserver Reserver, notifier Notifier, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		bookings: bookings,
		reserver: reserver,
		notifier: notifier,
		grid:     booking.DefaultGrid,
		log:      log,
	}
}

// ListBookings returns one page of bookings matching q.
func (s *Service) ListBookings(ctx context.Context, q ListBookingsQuery) (*BookingListResponse, error) {
	if q.Page <= 0 {
		q.Page = defaultPage
	}
	if q.Limit <= 0 || q.Limit > maxLimit {
		q.Limit = defaultLimit
	}

	items, total, err := s.bookings.List(ctx, repository.BookingFilter{
		Date:          q.Date,
		ServiceType:   q.ServiceType,
		PaymentStatus: q.PaymentStatus,
		CheckInStatus: q.CheckInStatus,
		Limit:         q.Limit,
		Offset:        (q.Page - 1) * q.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	if items == nil {
		items = []domain.Booking{}
	}

	return &BookingListResponse{
		Bookings: items,
		Pagination: Pagination{
			Page:  q.Page,
			Limit: q.Limit,
			Total: total,
			Pages: int((total + int64(q.Limit) - 1) / int64(q.Limit)),
		},
	}, nil
}

// CreateBooking records a cash booking on behalf of a customer.
func (s *Service) CreateBooking(ctx context.Context, req CreateBookingRequest) (*domain.Booking, error) {
	if fields := validator.Validate(req); fields != nil {
		return nil, booking.FieldErrors(fields)
	}
	if req.Hours == 0 {
		req.Hours = 1
	}
	if req.Members == 0 {
		req.Members = 1
	}
	st := domain.ServiceType(req.ServiceType)
	if st == "" {
		st = domain.ServiceRecording
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "Walk-in"
	}

	b := &domain.Booking{
		UserID:        req.UserID,
		Name:          name,
		Email:         strings.TrimSpace(req.Email),
		Contact:       strings.TrimSpace(req.Contact),
		ServiceType:   st,
		BookingDate:   req.BookingDate,
		BookingTime:   req.BookingTime,
		Hours:         req.Hours,
		Members:       req.Members,
		PaymentMethod: domain.PaymentCash,
		TotalPrice:    booking.TotalPrice(st, req.Hours),
		PaymentStatus: domain.PaymentCashDue,
		CheckInStatus: domain.CheckInPending,
		Notes:         req.Notes,
	}
	if err := s.reserver.Reserve(ctx, b); err != nil {
		return nil, err
	}

	s.log.Info("admin booking created",
		zap.String("booking_id", b.BookingID),
		zap.String("date", b.BookingDate),
		zap.String("time", b.BookingTime),
		zap.Int("hours", b.Hours),
	)
	if s.notifier != nil {
		if err := s.notifier.NotifyBookingCreated(ctx, b); err != nil {
			s.log.Warn("notify booking created failed", zap.String("booking_id", b.BookingID), zap.Error(err))
		}
	}
	return b, nil
}

// UpdateBooking applies a partial update. When the schedule moves the new
// range is checked against every other countable booking on the target
// date. The stored price is kept as charged.
func (s *Service) UpdateBooking(ctx context.Context, id int64, req UpdateBookingRequest) (*domain.Booking, error) {
	if req.empty() {
		return nil, ErrNothingToUpdate
	}
	if fields := validator.Validate(req); fields != nil {
		return nil, booking.FieldErrors(fields)
	}

	var (
		candidate booking.Interval
		self      string
		recheck   bool
	)
	mutate := func(b *domain.Booking) error {
		if req.BookingDate != nil {
			b.BookingDate = *req.BookingDate
		}
		if req.BookingTime != nil {
			b.BookingTime = *req.BookingTime
		}
		if req.Hours != nil {
			b.Hours = *req.Hours
		}
		if req.ServiceType != nil {
			b.ServiceType = domain.ServiceType(*req.ServiceType)
		}
		if req.CheckInStatus != nil {
			b.CheckInStatus = domain.CheckInStatus(*req.CheckInStatus)
		}
		if req.Notes != nil {
			b.Notes = *req.Notes
		}

		if !req.touchesSchedule() {
			return nil
		}
		start, err := booking.ParseClock(b.BookingTime)
		if err != nil {
			return booking.FieldErrors{"booking_time": "must be HH:MM"}
		}
		b.BookingTime = start.String()
		candidate = booking.NewInterval(start, b.Hours)
		if !s.grid.Contains(candidate) {
			return booking.ErrOutsideHours
		}
		self = b.BookingID
		recheck = b.IsCountable()
		return nil
	}

	var check domain.ConflictCheck
	if req.touchesSchedule() {
		// Runs after mutate inside the same transaction.
		check = func(existing []domain.Booking) error {
			if !recheck {
				return nil
			}
			return booking.ConflictCheckFor(candidate, self)(existing)
		}
	}

	b, err := s.bookings.UpdateExclusive(ctx, id, mutate, check)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, booking.ErrNotFound
		}
		return nil, err
	}
	s.log.Info("admin booking updated", zap.String("booking_id", b.BookingID), zap.Int64("id", id))
	return b, nil
}

func (s *Service) DeleteBooking(ctx context.Context, id int64) error {
	if err := s.bookings.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return booking.ErrNotFound
		}
		return fmt.Errorf("delete booking %d: %w", id, err)
	}
	s.log.Info("admin booking deleted", zap.Int64("id", id))
	return nil
}

// Slots lists the hourly start times still open on date.
func (s *Service) Slots(ctx context.Context, date string) (*SlotsResponse, error) {
	if fields := validator.Validate(struct {
		Date string `json:"date" validate:"required,datetime=2006-01-02"`
	}{date}); fields != nil {
		return nil, booking.FieldErrors(fields)
	}

	existing, err := s.bookings.ListCountableByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("load bookings for %s: %w", date, err)
	}
	available, booked := booking.HourlyListing(s.grid, existing)
	return &SlotsResponse{AvailableSlots: available, BookedTimes: booked}, nil
}
