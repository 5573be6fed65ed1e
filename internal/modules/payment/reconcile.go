package payment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mixlab/internal/domain"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type reconcileSource interface {
	ListPendingWithInvoice(ctx context.Context, limit int) ([]domain.Booking, error)
	ListDanglingOnline(ctx context.Context, cutoff time.Time) ([]domain.Booking, error)
}

// ReconcileReport summarizes one reconciliation pass.
type ReconcileReport struct {
	Checked  int
	Applied  map[domain.PaymentStatus]int
	Failed   int
	Dangling []domain.Booking
}

type Reconciler struct {
	source      reconcileSource
	service     *Service
	log         *zap.Logger
	batch       int
	concurrency int
	now         func() time.Time
}

func NewReconciler(source reconcileSource, service *Service, log *zap.Logger) *Reconciler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reconciler{
		source:      source,
		service:     service,
		log:         log,
		batch:       200,
		concurrency: 4,
		now:         time.Now,
	}
}

// Run verifies pending bookings that have an invoice and lists online
// bookings older than danglingAfter that never got one.
func (r *Reconciler) Run(ctx context.Context, danglingAfter time.Duration) (*ReconcileReport, error) {
	pending, err := r.source.ListPendingWithInvoice(ctx, r.batch)
	if err != nil {
		return nil, fmt.Errorf("list pending bookings: %w", err)
	}

	report := &ReconcileReport{Applied: map[domain.PaymentStatus]int{}}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for _, b := range pending {
		bookingID := b.BookingID
		g.Go(func() error {
			out, err := r.service.Verify(gctx, bookingID)
			mu.Lock()
			defer mu.Unlock()
			report.Checked++
			if err != nil {
				report.Failed++
				r.log.Warn("verify failed", zap.String("booking_id", bookingID), zap.Error(err))
				return nil
			}
			if out.Applied {
				report.Applied[out.Booking.PaymentStatus]++
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report.Dangling, err = r.source.ListDanglingOnline(ctx, r.now().Add(-danglingAfter))
	if err != nil {
		return nil, fmt.Errorf("list dangling bookings: %w", err)
	}
	for _, b := range report.Dangling {
		r.log.Warn("online booking has no invoice",
			zap.String("booking_id", b.BookingID),
			zap.String("payment_method", string(b.PaymentMethod)),
			zap.Time("created_at", b.CreatedAt),
		)
	}

	r.log.Info("reconcile finished",
		zap.Int("checked", report.Checked),
		zap.Int("failed", report.Failed),
		zap.Int("dangling", len(report.Dangling)),
	)
	return report, nil
}
