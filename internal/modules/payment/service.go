package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"mixlab/internal/domain"
	"mixlab/internal/pkg/xendit"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrMissingExternalID = errors.New("webhook event has no external_id")
	ErrBookingNotFound   = errors.New("booking not found")
)

type Service struct {
	bookings  bookingStore
	gateway   invoiceGetter
	listeners []StatusListener
	log       *zap.Logger
}

func NewService(bookings bookingStore, gateway invoiceGetter, log *zap.Logger, listeners ...StatusListener) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		bookings:  bookings,
		gateway:   gateway,
		listeners: listeners,
		log:       log,
	}
}

// targetStatus maps a gateway invoice status onto the booking state machine.
func targetStatus(gatewayStatus string) (domain.PaymentStatus, bool) {
	switch strings.ToUpper(strings.TrimSpace(gatewayStatus)) {
	case xendit.StatusPaid, xendit.StatusSettled:
		return domain.PaymentPaid, true
	case xendit.StatusExpired:
		return domain.PaymentExpired, true
	case xendit.StatusFailed:
		return domain.PaymentFailed, true
	}
	return "", false
}

// HandleWebhook applies an invoice callback. Replays and late events for
// bookings that already left pending are no-ops.
func (s *Service) HandleWebhook(ctx context.Context, evt WebhookEvent) (*Outcome, error) {
	log := s.log.With(
		zap.String("external_id", evt.ExternalID),
		zap.String("status", evt.Status),
		zap.String("invoice_id", evt.ID),
	)
	log.Info("xendit webhook received")

	to, ok := targetStatus(evt.Status)
	if !ok {
		log.Info("unhandled webhook status")
		return &Outcome{Ignored: true}, nil
	}
	if evt.ExternalID == "" {
		return nil, ErrMissingExternalID
	}

	var paymentID *string
	if to == domain.PaymentPaid && evt.PaymentID != "" {
		paymentID = &evt.PaymentID
	}
	return s.apply(ctx, log, evt.ExternalID, to, paymentID)
}

// Verify reconciles one booking with the gateway. Gateway failures are
// logged and the stored booking is returned as is.
func (s *Service) Verify(ctx context.Context, bookingID string) (*Outcome, error) {
	b, err := s.bookings.GetByBookingID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("load booking %s: %w", bookingID, err)
	}

	if b.PaymentStatus != domain.PaymentPending || b.XenditInvoiceID == nil || *b.XenditInvoiceID == "" || s.gateway == nil {
		return &Outcome{Booking: b}, nil
	}

	log := s.log.With(zap.String("booking_id", bookingID), zap.String("invoice_id", *b.XenditInvoiceID))
	inv, err := s.gateway.GetInvoice(ctx, *b.XenditInvoiceID)
	if err != nil {
		log.Error("invoice lookup failed", zap.Error(err))
		return &Outcome{Booking: b}, nil
	}

	to, ok := targetStatus(inv.Status)
	if !ok {
		return &Outcome{Booking: b}, nil
	}
	// The invoice lookup carries no payment id; the webhook records it.
	out, err := s.apply(ctx, log, bookingID, to, nil)
	if err != nil {
		log.Error("apply reconciled status failed", zap.Error(err))
		return &Outcome{Booking: b}, nil
	}
	return out, nil
}

func (s *Service) apply(ctx context.Context, log *zap.Logger, bookingID string, to domain.PaymentStatus, paymentID *string) (*Outcome, error) {
	b, changed, err := s.bookings.TransitionPaymentStatus(ctx, bookingID, to, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrBookingNotFound, bookingID)
		}
		return nil, fmt.Errorf("transition %s to %s: %w", bookingID, to, err)
	}
	if !changed {
		log.Info("payment transition skipped", zap.String("current", string(b.PaymentStatus)), zap.String("target", string(to)))
		return &Outcome{Booking: b}, nil
	}

	log.Info("payment status updated", zap.String("payment_status", string(b.PaymentStatus)))
	s.notify(ctx, log, b)
	return &Outcome{Booking: b, Applied: true}, nil
}

func (s *Service) notify(ctx context.Context, log *zap.Logger, b *domain.Booking) {
	for _, l := range s.listeners {
		if err := l.PaymentStatusChanged(ctx, b); err != nil {
			log.Warn("payment status listener failed", zap.Error(err))
		}
	}
}
