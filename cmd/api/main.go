package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/alxtravel/travel-booking-api/internal/config"
	"github.com/alxtravel/travel-booking-api/internal/gateway"
	"github.com/alxtravel/travel-booking-api/internal/handler"
	"github.com/alxtravel/travel-booking-api/internal/logging"
	"github.com/alxtravel/travel-booking-api/internal/mailer"
	"github.com/alxtravel/travel-booking-api/internal/middleware"
	"github.com/alxtravel/travel-booking-api/internal/repository"
	"github.com/alxtravel/travel-booking-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("travel-api", cfg.LogLevel, cfg.AppEnv)

	db, err := connectDB(cfg)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	listingRepo := repository.NewListingRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	userRepo := repository.NewUserRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)

	chapa := gateway.NewClient(cfg.ChapaBaseURL, cfg.ChapaSecretKey, cfg.PaymentCallbackURL)
	paymentSvc := service.NewPaymentService(bookingRepo, paymentRepo, notificationRepo, chapa, db, cfg.PaymentCurrency)

	var mail mailer.Mailer = mailer.LogMailer{}
	if cfg.SMTPAddr != "" {
		mail = mailer.NewSMTPMailer(cfg.SMTPAddr, cfg.SMTPFrom)
	}
	notifier := service.NewNotifier(notificationRepo, mail, slog.Default(), time.Duration(cfg.NotifierIntervalS)*time.Second)
	reaper := service.NewReaper(bookingRepo, idempotencyRepo, slog.Default(),
		time.Duration(cfg.ReaperIntervalS)*time.Second,
		time.Duration(cfg.BookingReapAfterS)*time.Second,
	)

	listingHandler := handler.NewListingHandler(listingRepo)
	bookingHandler := handler.NewBookingHandler(bookingRepo)
	paymentHandler := handler.NewPaymentHandler(paymentSvc)
	authHandler := handler.NewAuthHandler(userRepo, cfg.JWTSecret)

	authed := middleware.Auth(cfg.JWTSecret)
	idempotent := middleware.Idempotency(idempotencyRepo)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handleHealth)

	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	mux.HandleFunc("GET /api/listings", listingHandler.List)
	mux.HandleFunc("GET /api/listings/{id}", listingHandler.Get)
	mux.Handle("POST /api/listings", authed(http.HandlerFunc(listingHandler.Create)))
	mux.Handle("PUT /api/listings/{id}", authed(http.HandlerFunc(listingHandler.Update)))
	mux.Handle("DELETE /api/listings/{id}", authed(http.HandlerFunc(listingHandler.Delete)))

	mux.HandleFunc("GET /api/bookings", bookingHandler.List)
	mux.HandleFunc("GET /api/bookings/{id}", bookingHandler.Get)
	mux.Handle("POST /api/bookings", authed(http.HandlerFunc(bookingHandler.Create)))
	mux.Handle("PUT /api/bookings/{id}", authed(http.HandlerFunc(bookingHandler.Update)))
	mux.Handle("DELETE /api/bookings/{id}", authed(http.HandlerFunc(bookingHandler.Delete)))

	mux.Handle("POST /booking/create-payment/{$}", idempotent(http.HandlerFunc(paymentHandler.CreateBookingPayment)))
	mux.Handle("POST /initiate-payment/{$}", idempotent(http.HandlerFunc(paymentHandler.Initiate)))
	mux.HandleFunc("GET /verify-payment/{tx_ref}/{$}", paymentHandler.Verify)
	mux.HandleFunc("POST /payment/callback/{$}", paymentHandler.Callback)

	root := middleware.Tracing(middleware.Logging(middleware.Recovery(mux)))

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	go notifier.Start(workerCtx)
	go reaper.Start(workerCtx)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           root,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	stopWorkers()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{"status": "ok"}); err != nil {
		slog.Error("failed to write health response", "error", err)
	}
}

func connectDB(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connectDB: %w", err)
	}

	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.DBConnMaxLifetimeS) * time.Second)
	db.SetConnMaxIdleTime(time.Duration(cfg.DBConnMaxIdleTimeS) * time.Second)

	for i := range 30 {
		if err = db.Ping(); err == nil {
			return db, nil
		}
		slog.Info("waiting for database", "attempt", i+1)
		time.Sleep(time.Second)
	}

	db.Close()
	return nil, fmt.Errorf("connectDB: gave up after 30 attempts: %w", err)
}
