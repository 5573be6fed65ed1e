package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mixlab/internal/config"
	"mixlab/internal/database"
	"mixlab/internal/middleware"
	"mixlab/internal/modules/admin"
	"mixlab/internal/modules/booking"
	"mixlab/internal/modules/notification"
	"mixlab/internal/modules/payment"
	jwtsvc "mixlab/internal/pkg/jwt"
	"mixlab/internal/pkg/logger"
	"mixlab/internal/pkg/xendit"
	"mixlab/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl, err := logger.New(cfg.IsProduction(), cfg.LogLevel)
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

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	hub := notification.NewHub(zl.Named("ws"))
	defer hub.Close()

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           newRouter(cfg, zl, repository.NewBookingRepository(db), hub),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zl.Info("mixlab api listening", zap.String("addr", cfg.HTTPAddr), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	zl.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zl.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newRouter(cfg *config.Config, zl *zap.Logger, repo *repository.BookingRepository, hub *notification.Hub) *gin.Engine {
	tokens := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL)
	gateway := xendit.NewClient(cfg.Xendit, nil)
	if cfg.Xendit.SecretKey == "" {
		zl.Warn("XENDIT_SECRET_KEY not set; online payments will fail")
	}

	bookingService := booking.NewService(repo, gateway, hub, zl.Named("booking"))
	paymentService := payment.NewService(repo, gateway, zl.Named("payment"), hub)
	adminService := admin.NewService(repo, bookingService, hub, zl.Named("admin"))

	limiter := middleware.NewRateLimiter(cfg.BookingRateLimit, cfg.BookingRateBurst)

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.RequestLogger(zl.Named("http")),
		middleware.CORS(cfg.CORSAllowedOrigins),
	)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "clients": hub.Count()})
	})

	api := r.Group("/api")
	booking.NewHandler(bookingService).RegisterRoutes(api.Group("/bookings"),
		middleware.OptionalJWTAuth(tokens),
		middleware.JWTAuth(tokens),
		limiter.Limit(),
	)
	payment.NewHandler(paymentService, zl.Named("webhook")).RegisterRoutes(api.Group("/webhooks"),
		middleware.CallbackToken(gateway, zl.Named("webhook")),
	)
	admin.NewHandler(adminService).RegisterRoutes(api.Group("/admin",
		middleware.JWTAuth(tokens),
		middleware.AdminOnly(),
	))
	notification.NewHandler(hub, cfg.CORSAllowedOrigins, zl.Named("ws")).RegisterRoutes(api.Group("/ws"))

	return r
}
