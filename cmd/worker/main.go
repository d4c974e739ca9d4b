package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/flightbooking/config"
	"github.com/Domenick1991/flightbooking/internal/bootstrap"
	"github.com/Domenick1991/flightbooking/internal/email"
	"github.com/Domenick1991/flightbooking/internal/kafka"
	"github.com/Domenick1991/flightbooking/internal/repository"
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	storage, err := bootstrap.OpenStorage(ctx, cfg)
	if err != nil {
		log.Fatalf("open storage: %v", err)
	}
	defer storage.Close()

	if cfg.Storage.Driver == config.StorageDriverMemory {
		log.Printf("WARNING: worker audits its own in-memory store, not the API's")
	}

	if cfg.Kafka.Enabled() {
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
		defer consumer.Close()

		emailSender := email.NewSender()

		go func() {
			err := consumer.Consume(ctx, func(ctx context.Context, event kafka.Event) error {
				if err := emailSender.Send(ctx, event); err != nil {
					log.Printf("send notification for event %s: %v", event.EventID, err)
				}
				return nil
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("consumer stopped: %v", err)
			}
		}()
	} else {
		log.Printf("WARNING: kafka is not configured, notifications are disabled")
	}

	auditTicker := time.NewTicker(time.Duration(cfg.Worker.AuditIntervalMinutes) * time.Minute)
	defer auditTicker.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-auditTicker.C:
			auditCounters(ctx, storage.Flights)
		case s := <-sig:
			log.Printf("received signal %v, shutting down", s)
			return
		}
	}
}

func auditCounters(ctx context.Context, flights repository.FlightRepository) {
	drifts, err := flights.AuditCounters(ctx)
	if err != nil {
		log.Printf("audit counters error: %v", err)
		return
	}
	for _, d := range drifts {
		log.Printf("WARNING: flight %d booked_count=%d but has %d passengers", d.FlightID, d.BookedCount, d.Passengers)
	}
}
