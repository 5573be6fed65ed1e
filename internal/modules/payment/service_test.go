package payment

import (
	"context"
	"errors"
	"sync"
	"testing"

	"mixlab/internal/domain"
	"mixlab/internal/pkg/xendit"

	"gorm.io/gorm"
)

// memBookings applies the same status guard as the repository.
type memBookings struct {
	mu          sync.Mutex
	rows        map[string]*domain.Booking
	transitions int
	failWith    error
}

func newMemBookings(rows ...domain.Booking) *memBookings {
	m := &memBookings{rows: map[string]*domain.Booking{}}
	for i := range rows {
		b := rows[i]
		m.rows[b.BookingID] = &b
	}
	return m
}

func (m *memBookings) GetByBookingID(ctx context.Context, bookingID string) (*domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.rows[bookingID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *memBookings) TransitionPaymentStatus(ctx context.Context, bookingID string, to domain.PaymentStatus, paymentID *string) (*domain.Booking, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, false, m.failWith
	}
	b, ok := m.rows[bookingID]
	if !ok {
		return nil, false, gorm.ErrRecordNotFound
	}
	if !domain.CanTransition(b.PaymentStatus, to) {
		cp := *b
		return &cp, false, nil
	}
	b.PaymentStatus = to
	if paymentID != nil {
		b.XenditPaymentID = paymentID
	}
	m.transitions++
	cp := *b
	return &cp, true, nil
}

type fakeGateway struct {
	invoice *xendit.Invoice
	err     error
	calls   int
}

func (g *fakeGateway) GetInvoice(ctx context.Context, invoiceID string) (*xendit.Invoice, error) {
	g.calls++
	return g.invoice, g.err
}

type recordingListener struct {
	events []domain.PaymentStatus
	err    error
}

func (l *recordingListener) PaymentStatusChanged(ctx context.Context, b *domain.Booking) error {
	l.events = append(l.events, b.PaymentStatus)
	return l.err
}

func pendingBooking(id string, invoiceID *string) domain.Booking {
	return domain.Booking{
		BookingID:       id,
		PaymentMethod:   domain.PaymentGCash,
		PaymentStatus:   domain.PaymentPending,
		CheckInStatus:   domain.CheckInPending,
		XenditInvoiceID: invoiceID,
	}
}

func strPtr(s string) *string { return &s }

func TestHandleWebhook_PaidReplayIsIdempotent(t *testing.T) {
	store := newMemBookings(pendingBooking("MIX-1", strPtr("inv_1")))
	listener := &recordingListener{}
	svc := NewService(store, nil, nil, listener)

	evt := WebhookEvent{ID: "inv_1", ExternalID: "MIX-1", Status: "PAID", PaymentID: "pay_1"}
	first, err := svc.HandleWebhook(context.Background(), evt)
	if err != nil || !first.Applied {
		t.Fatalf("first delivery: applied=%v err=%v", first != nil && first.Applied, err)
	}
	second, err := svc.HandleWebhook(context.Background(), evt)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if second.Applied {
		t.Fatalf("replay must not transition again")
	}
	if store.transitions != 1 {
		t.Fatalf("expected exactly one transition, got %d", store.transitions)
	}
	if len(listener.events) != 1 || listener.events[0] != domain.PaymentPaid {
		t.Fatalf("side effects must run once, got %v", listener.events)
	}
	if got := store.rows["MIX-1"].XenditPaymentID; got == nil || *got != "pay_1" {
		t.Fatalf("payment id not stored: %v", got)
	}
}

func TestHandleWebhook_TerminalStateProtected(t *testing.T) {
	paid := pendingBooking("MIX-1", strPtr("inv_1"))
	paid.PaymentStatus = domain.PaymentPaid
	store := newMemBookings(paid)
	listener := &recordingListener{}
	svc := NewService(store, nil, nil, listener)

	for _, status := range []string{"EXPIRED", "FAILED"} {
		out, err := svc.HandleWebhook(context.Background(), WebhookEvent{ExternalID: "MIX-1", Status: status})
		if err != nil {
			t.Fatalf("%s: %v", status, err)
		}
		if out.Applied || out.Booking.PaymentStatus != domain.PaymentPaid {
			t.Fatalf("%s must not override paid, got %s", status, out.Booking.PaymentStatus)
		}
	}
	if len(listener.events) != 0 {
		t.Fatalf("no side effects expected, got %v", listener.events)
	}
}

func TestHandleWebhook_ExpiredAndFailed(t *testing.T) {
	store := newMemBookings(pendingBooking("MIX-E", nil), pendingBooking("MIX-F", nil))
	svc := NewService(store, nil, nil)

	if _, err := svc.HandleWebhook(context.Background(), WebhookEvent{ExternalID: "MIX-E", Status: "EXPIRED"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.HandleWebhook(context.Background(), WebhookEvent{ExternalID: "MIX-F", Status: "failed"}); err != nil {
		t.Fatal(err)
	}
	if s := store.rows["MIX-E"].PaymentStatus; s != domain.PaymentExpired {
		t.Fatalf("expected expired, got %s", s)
	}
	if s := store.rows["MIX-F"].PaymentStatus; s != domain.PaymentFailed {
		t.Fatalf("expected failed, got %s", s)
	}
}

func TestHandleWebhook_UnknownStatusIgnored(t *testing.T) {
	store := newMemBookings(pendingBooking("MIX-1", nil))
	svc := NewService(store, nil, nil)

	out, err := svc.HandleWebhook(context.Background(), WebhookEvent{ExternalID: "MIX-1", Status: "PENDING"})
	if err != nil || !out.Ignored {
		t.Fatalf("expected ignored, got %+v err=%v", out, err)
	}
	if store.transitions != 0 {
		t.Fatalf("unexpected transition")
	}
}

func TestHandleWebhook_Errors(t *testing.T) {
	svc := NewService(newMemBookings(), nil, nil)

	if _, err := svc.HandleWebhook(context.Background(), WebhookEvent{Status: "PAID"}); !errors.Is(err, ErrMissingExternalID) {
		t.Fatalf("expected ErrMissingExternalID, got %v", err)
	}
	if _, err := svc.HandleWebhook(context.Background(), WebhookEvent{ExternalID: "MIX-404", Status: "PAID"}); !errors.Is(err, ErrBookingNotFound) {
		t.Fatalf("expected ErrBookingNotFound, got %v", err)
	}
}

func TestHandleWebhook_ListenerFailureKeepsTransition(t *testing.T) {
	store := newMemBookings(pendingBooking("MIX-1", nil))
	svc := NewService(store, nil, nil, &recordingListener{err: errors.New("socket closed")})

	out, err := svc.HandleWebhook(context.Background(), WebhookEvent{ExternalID: "MIX-1", Status: "PAID"})
	if err != nil || !out.Applied {
		t.Fatalf("expected applied, got %+v err=%v", out, err)
	}
	if s := store.rows["MIX-1"].PaymentStatus; s != domain.PaymentPaid {
		t.Fatalf("expected paid, got %s", s)
	}
}

func TestVerify(t *testing.T) {
	t.Run("unknown booking", func(t *testing.T) {
		svc := NewService(newMemBookings(), &fakeGateway{}, nil)
		if _, err := svc.Verify(context.Background(), "MIX-404"); !errors.Is(err, ErrBookingNotFound) {
			t.Fatalf("expected ErrBookingNotFound, got %v", err)
		}
	})

	t.Run("paid at gateway", func(t *testing.T) {
		store := newMemBookings(pendingBooking("MIX-1", strPtr("inv_1")))
		gw := &fakeGateway{invoice: &xendit.Invoice{ID: "inv_1", Status: "PAID", Amount: 1500.5}}
		listener := &recordingListener{}
		svc := NewService(store, gw, nil, listener)

		out, err := svc.Verify(context.Background(), "MIX-1")
		if err != nil {
			t.Fatal(err)
		}
		if !out.Applied || out.Booking.PaymentStatus != domain.PaymentPaid {
			t.Fatalf("expected paid transition, got %+v", out.Booking)
		}
		if len(listener.events) != 1 {
			t.Fatalf("expected side effects once, got %v", listener.events)
		}
	})

	t.Run("gateway error returns current row", func(t *testing.T) {
		store := newMemBookings(pendingBooking("MIX-1", strPtr("inv_1")))
		svc := NewService(store, &fakeGateway{err: errors.New("timeout")}, nil)

		out, err := svc.Verify(context.Background(), "MIX-1")
		if err != nil {
			t.Fatal(err)
		}
		if out.Booking.PaymentStatus != domain.PaymentPending {
			t.Fatalf("expected pending, got %s", out.Booking.PaymentStatus)
		}
	})

	t.Run("no invoice skips gateway", func(t *testing.T) {
		store := newMemBookings(pendingBooking("MIX-1", nil))
		gw := &fakeGateway{}
		svc := NewService(store, gw, nil)

		if _, err := svc.Verify(context.Background(), "MIX-1"); err != nil {
			t.Fatal(err)
		}
		if gw.calls != 0 {
			t.Fatalf("gateway must not be called")
		}
	})

	t.Run("already paid skips gateway", func(t *testing.T) {
		b := pendingBooking("MIX-1", strPtr("inv_1"))
		b.PaymentStatus = domain.PaymentPaid
		gw := &fakeGateway{}
		svc := NewService(newMemBookings(b), gw, nil)

		out, err := svc.Verify(context.Background(), "MIX-1")
		if err != nil || out.Booking.PaymentStatus != domain.PaymentPaid {
			t.Fatalf("unexpected result %+v err=%v", out, err)
		}
		if gw.calls != 0 {
			t.Fatalf("gateway must not be called")
		}
	})

	t.Run("still pending at gateway", func(t *testing.T) {
		store := newMemBookings(pendingBooking("MIX-1", strPtr("inv_1")))
		svc := NewService(store, &fakeGateway{invoice: &xendit.Invoice{Status: "PENDING"}}, nil)

		out, err := svc.Verify(context.Background(), "MIX-1")
		if err != nil || out.Applied {
			t.Fatalf("unexpected result %+v err=%v", out, err)
		}
	})
}
