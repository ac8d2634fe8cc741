package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.temporal.io/sdk/client"

	"github.com/farebridge/agency-booking/internal/config"
	"github.com/farebridge/agency-booking/internal/database"
	"github.com/farebridge/agency-booking/internal/gds"
	"github.com/farebridge/agency-booking/internal/handlers"
	"github.com/farebridge/agency-booking/internal/router"
	"github.com/farebridge/agency-booking/internal/service"
	"github.com/farebridge/agency-booking/internal/session"
	"github.com/farebridge/agency-booking/internal/websocket"
)

func main() {
	cfg := config.Load()
	log := cfg.NewLogger()

	temporalClient, err := client.Dial(client.Options{
		HostPort: cfg.TemporalHost,
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to Temporal")
	}
	defer temporalClient.Close()
	log.WithField("host", cfg.TemporalHost).Info("Connected to Temporal")

	store, err := session.NewRedisStore(cfg.RedisURL)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer store.Close()
	log.Info("Connected to Redis session store")

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer pool.Close()
	repo := database.NewRepository(pool)

	gdsClient := gds.NewClient(gds.Config{
		BaseURL:  cfg.GDSBaseURL,
		Token:    cfg.GDSToken,
		ClientID: cfg.GDSClientID,
		Timeout:  cfg.GDSTimeout,
	})

	hub := websocket.NewHub(log)
	go hub.Run()

	bookingService := service.NewBookingService(temporalClient, gdsClient, cfg.GDSClientID, store, repo, hub, log)
	handler := handlers.NewHandler(bookingService)
	r := router.NewRouter(handler, hub)

	srv := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.APIPort).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}
	log.Info("Server exited")
}
