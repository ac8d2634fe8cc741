package main

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/farebridge/agency-booking/internal/activities"
	"github.com/farebridge/agency-booking/internal/config"
	"github.com/farebridge/agency-booking/internal/database"
	"github.com/farebridge/agency-booking/internal/gds"
	"github.com/farebridge/agency-booking/internal/service"
	"github.com/farebridge/agency-booking/internal/session"
	"github.com/farebridge/agency-booking/internal/workflows"
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

	store, err := session.NewRedisStore(cfg.RedisURL)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer store.Close()

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

	acts := activities.NewActivities(gdsClient, cfg.GDSClientID, store, repo)

	w := worker.New(temporalClient, service.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.BookingWorkflow)
	w.RegisterActivityWithOptions(acts.ConfirmPrice, activity.RegisterOptions{Name: "ConfirmPrice"})
	w.RegisterActivityWithOptions(acts.FetchChecklist, activity.RegisterOptions{Name: "FetchChecklist"})
	w.RegisterActivityWithOptions(acts.FetchAncillaries, activity.RegisterOptions{Name: "FetchAncillaries"})
	w.RegisterActivityWithOptions(acts.CreateItinerary, activity.RegisterOptions{Name: "CreateItinerary"})
	w.RegisterActivityWithOptions(acts.StartPay, activity.RegisterOptions{Name: "StartPay"})
	w.RegisterActivityWithOptions(acts.SaveSession, activity.RegisterOptions{Name: "SaveSession"})
	w.RegisterActivityWithOptions(acts.ClearSession, activity.RegisterOptions{Name: "ClearSession"})
	w.RegisterActivityWithOptions(acts.RecordBooking, activity.RegisterOptions{Name: "RecordBooking"})

	log.WithField("queue", service.TaskQueue).Info("Starting booking worker")
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.WithError(err).Fatal("Worker failed")
	}
}
