package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/flightbooking/config"
	"github.com/Domenick1991/flightbooking/internal/bootstrap"
	"github.com/Domenick1991/flightbooking/internal/cache"
	"github.com/Domenick1991/flightbooking/internal/kafka"
	"github.com/Domenick1991/flightbooking/internal/service/booking"
	"github.com/Domenick1991/flightbooking/internal/service/flights"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storage, err := bootstrap.OpenStorage(ctx, cfg)
	if err != nil {
		log.Fatalf("open storage: %v", err)
	}
	defer storage.Close()

	flightOpts := []flights.FlightServiceOption{}
	bookingOpts := []booking.BookingServiceOption{
		booking.WithRetry(cfg.Booking.MaxAttempts, time.Duration(cfg.Booking.RetryBackoffMS)*time.Millisecond),
	}

	if cfg.Redis.Enabled() {
		redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.FlightsCacheTTL)*time.Second)
		defer redisCache.Close()
		if err := redisCache.Ping(ctx); err != nil {
			log.Printf("WARNING: redis unavailable, flight list cache will miss: %v", err)
		}
		flightOpts = append(flightOpts, flights.WithCache(redisCache))
		bookingOpts = append(bookingOpts, booking.WithCache(redisCache))
	}

	if cfg.Kafka.Enabled() {
		producer := kafka.NewProducer(cfg.Kafka.Brokers)
		defer producer.Close()
		if err := producer.CheckConnection(ctx, cfg.Kafka.EventsTopic, cfg.Kafka.NotificationsTopic); err != nil {
			log.Printf("WARNING: kafka check failed, events may be dropped: %v", err)
		}
		flightOpts = append(flightOpts, flights.WithProducer(producer, cfg.Kafka.EventsTopic))
		bookingOpts = append(bookingOpts,
			booking.WithProducer(producer, cfg.Kafka.EventsTopic),
			booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		)
	}

	flightService := flights.NewFlightService(storage.Flights, storage.Passengers, flightOpts...)
	bookingService := booking.NewBookingService(storage.Passengers, bookingOpts...)

	if err := bootstrap.Run(ctx, cfg, flightService, bookingService, storage.Check); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
