package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"mixlab/internal/domain"
	"mixlab/internal/pkg/validator"
	"mixlab/internal/pkg/xendit"
	"mixlab/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxIDAttempts = 3

type Service struct {
	bookings BookingRepository
	invoices InvoiceCreator
	notifier AdminNotifier
	log      *zap.Logger
	grid     Grid
	now      func() time.Time
}

func NewService(bookings BookingRepository, invoices InvoiceCreator, notifier AdminNotifier, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		bookings: bookings,
		invoices: invoices,
		notifier: notifier,
		log:      log,
		grid:     DefaultGrid,
		now:      time.Now,
	}
}

// Create validates a public booking request, reserves the range and, for
// online payment methods, opens a gateway invoice.
func (s *Service) Create(ctx context.Context, req CreateBookingRequest, userID *int64) (*CreateResult, error) {
	if fields := validator.Validate(req); fields != nil {
		return nil, FieldErrors(fields)
	}
	if req.Hours == 0 {
		req.Hours = 1
	}
	if req.Members == 0 {
		req.Members = 1
	}

	st := domain.ServiceType(strings.TrimSpace(req.ServiceType))
	method := domain.PaymentMethod(req.PaymentMethod)
	if !IsKnownService(st) {
		s.log.Warn("unknown service type, using fallback rate",
			zap.String("service_type", string(st)),
			zap.String("fallback", string(FallbackService)),
		)
	}

	b := &domain.Booking{
		UserID:        userID,
		Name:          strings.TrimSpace(req.Name),
		Birthday:      req.Birthday,
		Email:         strings.TrimSpace(req.Email),
		Contact:       strings.TrimSpace(req.Contact),
		HomeAddress:   req.HomeAddress,
		ServiceType:   st,
		BookingDate:   req.BookingDate,
		BookingTime:   req.BookingTime,
		Hours:         req.Hours,
		Members:       req.Members,
		PaymentMethod: method,
		TotalPrice:    TotalPrice(st, req.Hours),
		PaymentStatus: domain.PaymentPending,
		CheckInStatus: domain.CheckInPending,
	}
	if err := s.Reserve(ctx, b); err != nil {
		return nil, err
	}

	s.log.Info("booking created",
		zap.String("booking_id", b.BookingID),
		zap.String("date", b.BookingDate),
		zap.String("time", b.BookingTime),
		zap.Int("hours", b.Hours),
		zap.String("payment_method", string(b.PaymentMethod)),
	)

	res := &CreateResult{Booking: b}
	if method.IsOnline() {
		url, err := s.openInvoice(ctx, b)
		if err != nil {
			return nil, err
		}
		res.PaymentURL = &url
	}

	s.notifyCreated(ctx, b)
	return res, nil
}

// Reserve normalizes b's start time, checks it against operating hours and
// inserts it through the locked conflict check. A fresh booking id is drawn
// for every attempt.
func (s *Service) Reserve(ctx context.Context, b *domain.Booking) error {
	start, err := ParseClock(b.BookingTime)
	if err != nil {
		return FieldErrors{"bookingTime": "must be HH:MM"}
	}
	if _, err := time.Parse("2006-01-02", b.BookingDate); err != nil {
		return FieldErrors{"bookingDate": "must match format 2006-01-02"}
	}
	iv := NewInterval(start, b.Hours)
	if !s.grid.Contains(iv) {
		return ErrOutsideHours
	}
	b.BookingTime = start.String()

	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id, err := NewBookingID(s.now())
		if err != nil {
			return fmt.Errorf("generate booking id: %w", err)
		}
		b.BookingID = id

		err = s.bookings.CreateExclusive(ctx, b, ConflictCheckFor(iv, ""))
		if err == nil {
			return nil
		}
		if errors.Is(err, repository.ErrDuplicateBookingID) {
			s.log.Warn("booking id collision, retrying", zap.String("booking_id", id), zap.Int("attempt", attempt+1))
			continue
		}
		if errors.Is(err, ErrConflict) {
			return err
		}
		s.log.Error("reserve booking failed",
			zap.String("date", b.BookingDate),
			zap.String("time", b.BookingTime),
			zap.Error(err),
		)
		return fmt.Errorf("reserve booking: %w", err)
	}
	return ErrIDExhausted
}

func (s *Service) openInvoice(ctx context.Context, b *domain.Booking) (string, error) {
	if s.invoices == nil {
		return "", fmt.Errorf("%w: no invoice client configured", ErrGateway)
	}
	inv, err := s.invoices.CreateInvoice(ctx, xendit.InvoiceRequest{
		ExternalID:  b.BookingID,
		Amount:      b.TotalPrice,
		PayerEmail:  b.Email,
		Description: fmt.Sprintf("MixLab Studio - %s Booking", DisplayName(b.ServiceType)),
		Metadata: map[string]string{
			"booking_id":    b.BookingID,
			"service_type":  string(b.ServiceType),
			"booking_date":  b.BookingDate,
			"booking_time":  b.BookingTime,
			"customer_name": b.Name,
		},
	})
	if err != nil {
		// The row stays pending without an invoice; reconcile lists it.
		s.log.Error("create invoice failed", zap.String("booking_id", b.BookingID), zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrGateway, err)
	}

	if err := s.bookings.SetInvoice(ctx, b.ID, inv.ID); err != nil {
		s.log.Error("store invoice id failed",
			zap.String("booking_id", b.BookingID),
			zap.String("invoice_id", inv.ID),
			zap.Error(err),
		)
		return "", fmt.Errorf("store invoice id: %w", err)
	}
	b.XenditInvoiceID = &inv.ID
	return inv.InvoiceURL, nil
}

func (s *Service) notifyCreated(ctx context.Context, b *domain.Booking) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyBookingCreated(ctx, b); err != nil {
		s.log.Warn("notify booking created failed", zap.String("booking_id", b.BookingID), zap.Error(err))
	}
}

// AvailableSlots runs the duration-aware availability calculation for date.
func (s *Service) AvailableSlots(ctx context.Context, date string, hours int) ([]string, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, FieldErrors{"date": "must match format 2006-01-02"}
	}
	if hours < 1 || hours > 12 {
		return nil, FieldErrors{"hours": "must be between 1 and 12"}
	}

	existing, err := s.bookings.ListCountableByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("load bookings for %s: %w", date, err)
	}
	return DurationAware(s.grid, existing, hours), nil
}

// InitialIntake validates the landing-page form. Nothing is stored.
func (s *Service) InitialIntake(req InitialBookingRequest) (*InitialBookingRequest, error) {
	if fields := validator.Validate(req); fields != nil {
		return nil, FieldErrors(fields)
	}
	req.Name = strings.TrimSpace(req.Name)
	return &req, nil
}

func (s *Service) MyBookings(ctx context.Context, userID int64) ([]domain.Booking, error) {
	return s.bookings.ListByUser(ctx, userID)
}

// Get returns a booking owned by userID.
func (s *Service) Get(ctx context.Context, bookingID string, userID int64) (*domain.Booking, error) {
	b, err := s.bookings.GetByBookingID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if b.UserID == nil || *b.UserID != userID {
		return nil, ErrNotFound
	}
	return b, nil
}
