package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	goredis "github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"eventsure/internal/auth"
	"eventsure/internal/booking"
	bookingapi "eventsure/internal/booking/api"
	bookingdb "eventsure/internal/booking/db"
	holdredis "eventsure/internal/booking/redis"
	"eventsure/internal/config"
	"eventsure/internal/events"
	eventsapi "eventsure/internal/events/api"
	eventsdb "eventsure/internal/events/db"
	"eventsure/internal/inventory"
	"eventsure/internal/kafka"
	"eventsure/internal/logger"
	"eventsure/internal/payment"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.NewLogger()
	defer log.Close()

	// --- Postgres ---
	connector := pgdriver.NewConnector(pgdriver.WithDSN(cfg.Database.DSN()))
	sqldb := sql.OpenDB(connector)
	defer sqldb.Close()

	if err := sqldb.Ping(); err != nil {
		log.Fatal("STARTUP", "Failed to connect to Postgres: "+err.Error())
	}
	bunDB := bun.NewDB(sqldb, pgdialect.New())

	if err := bookingdb.Migrate(bunDB); err != nil {
		log.Fatal("STARTUP", "Migration failed: "+err.Error())
	}

	// --- Redis ---
	redisClient := goredis.NewClient(&goredis.Options{Addr: cfg.Redis.Addr})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatal("STARTUP", "Failed to connect to Redis: "+err.Error())
	}
	holds := holdredis.NewHolds(redisClient, cfg.Booking.HoldTTL)

	// --- Kafka ---
	var publisher booking.Publisher
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.NotificationTopic)
		defer producer.Close()
		publisher = producer
	} else {
		log.Warn("STARTUP", "Kafka disabled, notifications will be dropped")
		publisher = kafka.NoopPublisher{}
	}

	// --- Services ---
	payment.InitStripe(cfg.Payment.StripeSecretKey)
	intents := payment.NewStripeIntents(cfg.Payment.Currency)

	ledger := inventory.NewLedger()
	bookingStore := bookingdb.New(bunDB, ledger)
	bookingService := booking.NewService(bookingStore, holds, intents, publisher, cfg.Payment.SharedSecret, cfg.Booking.HoldTTL, log)
	bookingHandler := &bookingapi.Handler{BookingService: bookingService}

	eventStore := eventsdb.New(bunDB)
	eventService := events.NewService(eventStore, publisher, log)
	eventHandler := &eventsapi.Handler{EventService: eventService}

	// --- Reaper for expired pending holds ---
	reaperCtx, stopReaper := context.WithCancel(context.Background())
	defer stopReaper()
	reaper := booking.NewReaper(bookingService, cfg.Booking.ReaperInterval, log)
	go reaper.Start(reaperCtx)

	// --- Router ---
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.Middleware())

		r.Post("/bookings", bookingHandler.CreateBooking)
		r.Get("/bookings", bookingHandler.GetMyBookings)
		r.Post("/bookings/{ticketId}/confirm", bookingHandler.ConfirmBooking)
		r.Post("/bookings/{ticketId}/payment-intent", bookingHandler.RequestPaymentIntent)
		r.Delete("/bookings/{ticketId}", bookingHandler.CancelBooking)

		r.Post("/events", eventHandler.CreateEvent)
		r.Get("/events", eventHandler.ListEvents)
		r.Get("/events/{eventId}", eventHandler.GetEvent)
		r.Patch("/events/{eventId}", eventHandler.UpdateEvent)
		r.Delete("/events/{eventId}", eventHandler.DeleteEvent)
		r.Post("/events/{eventId}/approve", eventHandler.ApproveEvent)
		r.Post("/events/{eventId}/reject", eventHandler.RejectEvent)

		r.Get("/notifications", eventHandler.GetMyNotifications)
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("STARTUP", "Booking service running on "+cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("SERVER", "HTTP server error: "+err.Error())
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("SHUTDOWN", "Shutdown signal received, cleaning up")

	stopReaper()
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatal("SHUTDOWN", "Server forced to shutdown: "+err.Error())
	}
	log.Info("SHUTDOWN", "Server exited gracefully")
}
