package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"mixlab/internal/config"
	"mixlab/internal/database"
	"mixlab/internal/domain"
	"mixlab/internal/modules/payment"
	"mixlab/internal/pkg/logger"
	"mixlab/internal/pkg/xendit"
	"mixlab/internal/repository"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	danglingAfter := flag.Duration("dangling-after", cfg.ReconcileAfter, "report online bookings without an invoice older than this")
	flag.Parse()

	zl, err := logger.New(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	db, err := database.Connect(cfg.DatabaseURL, zl)
	if err != nil {
		zl.Fatal("db connect failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo := repository.NewBookingRepository(db)
	svc := payment.NewService(repo, xendit.NewClient(cfg.Xendit, nil), zl.Named("payment"))
	report, err := payment.NewReconciler(repo, svc, zl.Named("reconcile")).Run(ctx, *danglingAfter)
	if err != nil {
		zl.Fatal("reconcile failed", zap.Error(err))
	}

	zl.Info("reconcile completed",
		zap.Int("checked", report.Checked),
		zap.Int("paid", report.Applied[domain.PaymentPaid]),
		zap.Int("expired", report.Applied[domain.PaymentExpired]),
		zap.Int("failed_transitions", report.Applied[domain.PaymentFailed]),
		zap.Int("errors", report.Failed),
		zap.Int("dangling", len(report.Dangling)),
	)
}
