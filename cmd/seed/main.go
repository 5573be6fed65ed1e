package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"mixlab/internal/config"
	"mixlab/internal/database"
	"mixlab/internal/domain"
	"mixlab/internal/middleware"
	"mixlab/internal/modules/booking"
	jwtsvc "mixlab/internal/pkg/jwt"
	"mixlab/internal/pkg/logger"
	"mixlab/internal/repository"

	"go.uber.org/zap"
)

type sample struct {
	dayOffset int
	start     string
	hours     int
	service   domain.ServiceType
	method    domain.PaymentMethod
	status    domain.PaymentStatus
	checkIn   domain.CheckInStatus
	name      string
}

var samples = []sample{
	{0, "09:00", 2, domain.ServiceRehearsal, domain.PaymentCash, domain.PaymentCashDue, domain.CheckInCheckedIn, "The Jeepney Kings"},
	{0, "13:00", 1, domain.ServiceMusicLesson, domain.PaymentGCash, domain.PaymentPaid, domain.CheckInPending, "Bea Santos"},
	{0, "16:00", 3, domain.ServiceRecording, domain.PaymentCreditCard, domain.PaymentPending, domain.CheckInPending, "Paolo Cruz"},
	{1, "10:00", 2, domain.ServiceDance, domain.PaymentCash, domain.PaymentCashDue, domain.CheckInPending, "Indak Crew"},
	{1, "14:00", 1, domain.ServiceVoiceover, domain.PaymentGCash, domain.PaymentExpired, domain.CheckInPending, "Mara Lim"},
	{1, "14:00", 2, domain.ServiceArrangement, domain.PaymentCash, domain.PaymentCashDue, domain.CheckInPending, "Rico Tan"},
	{2, "11:00", 1, domain.ServiceRehearsal, domain.PaymentCash, domain.PaymentCashDue, domain.CheckInCancelled, "Late Night Trio"},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("refusing to seed a production database")
	}

	zl, err := logger.New(false, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	db, err := database.Connect(cfg.DatabaseURL, zl)
	if err != nil {
		zl.Fatal("db connect failed", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		zl.Fatal("db migrate failed", zap.Error(err))
	}

	zl.Info("cleaning old bookings")
	db.Exec("DELETE FROM bookings")
	db.Exec("DELETE FROM booking_day_locks")

	repo := repository.NewBookingRepository(db)
	ctx := context.Background()
	today := time.Now().Truncate(24 * time.Hour)

	created := 0
	for i, s := range samples {
		date := today.AddDate(0, 0, s.dayOffset).Format("2006-01-02")
		start, err := booking.ParseClock(s.start)
		if err != nil {
			zl.Fatal("bad sample time", zap.String("time", s.start), zap.Error(err))
		}
		b := &domain.Booking{
			BookingID:     fmt.Sprintf("MIX-SEED-%02d", i+1),
			Name:          s.name,
			Email:         fmt.Sprintf("guest%02d@mixlab.test", i+1),
			Contact:       fmt.Sprintf("0917555%04d", i+1),
			ServiceType:   s.service,
			BookingDate:   date,
			BookingTime:   start.String(),
			Hours:         s.hours,
			Members:       1,
			PaymentMethod: s.method,
			TotalPrice:    booking.TotalPrice(s.service, s.hours),
			PaymentStatus: s.status,
			CheckInStatus: s.checkIn,
		}
		if s.method.IsOnline() {
			inv := "inv_seed_" + b.BookingID
			b.XenditInvoiceID = &inv
		}

		// Seeds go through the same conflict check as live traffic.
		if err := repo.CreateExclusive(ctx, b, booking.ConflictCheckFor(booking.NewInterval(start, s.hours), "")); err != nil {
			zl.Warn("sample skipped", zap.String("booking_id", b.BookingID), zap.Error(err))
			continue
		}
		created++
	}
	zl.Info("bookings seeded", zap.Int("created", created), zap.Int("samples", len(samples)))

	token, err := jwtsvc.New(cfg.JWTSecret, 30*24*time.Hour).GenerateToken(1, "admin@mixlab.test", middleware.RoleAdmin)
	if err != nil {
		zl.Fatal("issue admin token failed", zap.Error(err))
	}
	fmt.Printf("dev admin token (30 days):\n%s\n", token)
}
