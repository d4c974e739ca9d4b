package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/Domenick1991/flightbooking/api"
	"github.com/Domenick1991/flightbooking/config"
	"github.com/Domenick1991/flightbooking/internal/service/booking"
	"github.com/Domenick1991/flightbooking/internal/service/flights"
	"github.com/gin-gonic/gin"
	httpSwagger "github.com/swaggo/http-swagger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const (
	healthCheckInterval = 10 * time.Second
	shutdownTimeout     = 5 * time.Second
)

// HealthCheck reports whether a backing dependency is usable.
type HealthCheck func(ctx context.Context) error

type Servers struct {
	grpcServer   *grpc.Server
	healthServer *health.Server
	httpServer   *http.Server
	check        HealthCheck
}

// Run starts the HTTP server and, when configured, the gRPC health server,
// then blocks until ctx is canceled or a server fails.
func Run(ctx context.Context, cfg *config.Config, flightSvc flights.FlightUseCase, bookingSvc booking.BookingUseCase, check HealthCheck) error {
	s := newServers(cfg, flightSvc, bookingSvc, check)

	errCh := make(chan error, 2)

	if s.grpcServer != nil {
		lis, err := net.Listen("tcp", cfg.GRPC.Address)
		if err != nil {
			return fmt.Errorf("listen gRPC %s: %w", cfg.GRPC.Address, err)
		}
		go func() { errCh <- s.grpcServer.Serve(lis) }()
		go s.watchHealth(ctx)
		log.Printf("gRPC health server listening on %s", cfg.GRPC.Address)
	}

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	log.Printf("HTTP server listening on %s", cfg.HTTP.Address)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if s.grpcServer != nil {
			s.healthServer.Shutdown()
			s.grpcServer.GracefulStop()
		}
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func newServers(cfg *config.Config, flightSvc flights.FlightUseCase, bookingSvc booking.BookingUseCase, check HealthCheck) *Servers {
	s := &Servers{
		httpServer: &http.Server{
			Addr:              cfg.HTTP.Address,
			Handler:           NewRouter(cfg.HTTP, flightSvc, bookingSvc, check),
			ReadHeaderTimeout: 5 * time.Second,
		},
		check: check,
	}

	if cfg.GRPC.Address != "" {
		s.grpcServer = grpc.NewServer()
		s.healthServer = health.NewServer()
		healthpb.RegisterHealthServer(s.grpcServer, s.healthServer)
	}
	return s
}

// NewRouter wires the REST handlers, the health endpoint and the API docs.
func NewRouter(cfg config.HTTPConfig, flightSvc flights.FlightUseCase, bookingSvc booking.BookingUseCase, check HealthCheck) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	v1 := router.Group("/api/v1")
	api.NewFlightHandler(flightSvc).Register(v1.Group("/flights"))
	api.NewPassengerHandler(bookingSvc).Register(v1.Group("/passengers"))

	router.GET("/health", func(c *gin.Context) {
		if check != nil {
			if err := check(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if cfg.SwaggerDir != "" {
		router.StaticFile("/openapi.json", filepath.Join(cfg.SwaggerDir, "openapi.json"))
		router.GET("/docs/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL("/openapi.json"))))
	}
	return router
}

func (s *Servers) watchHealth(ctx context.Context) {
	update := func() {
		status := healthpb.HealthCheckResponse_SERVING
		if s.check != nil {
			if err := s.check(ctx); err != nil {
				log.Printf("health check failed: %v", err)
				status = healthpb.HealthCheckResponse_NOT_SERVING
			}
		}
		s.healthServer.SetServingStatus("", status)
	}

	update()
	ticker := time.NewTicker(healthCheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			update()
		}
	}
}
