package syncjob

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/busfleet/opsproxy/internal/telemetry/metrics"
	"github.com/busfleet/opsproxy/internal/workspace"
)

// DefaultInterval between scheduled sync runs.
const DefaultInterval = 24 * time.Hour

// Job re-reads the bookings and maintenance collections and pushes
// derived events to the calendar sink. A disabled job (feature flag off)
// stays disabled for the process lifetime.
//
// Run errors are the caller's to log, never to propagate: a failed run
// must not crash the process or block the next scheduled run.
type Job struct {
	enabled         bool
	gateway         workspace.Gateway
	calendar        CalendarSink
	bookingsDBID    string
	maintenanceDBID string
	metrics         *metrics.Manager
}

type NewJobParams struct {
	Enabled         bool
	Gateway         workspace.Gateway
	Calendar        CalendarSink
	BookingsDBID    string
	MaintenanceDBID string
	Metrics         *metrics.Manager
}

func NewJob(params NewJobParams) *Job {
	return &Job{
		enabled:         params.Enabled,
		gateway:         params.Gateway,
		calendar:        params.Calendar,
		bookingsDBID:    params.BookingsDBID,
		maintenanceDBID: params.MaintenanceDBID,
		metrics:         params.Metrics,
	}
}

func (j *Job) Enabled() bool {
	return j.enabled
}

// Run performs one sync pass. A disabled job is a successful no-op.
func (j *Job) Run(ctx context.Context) error {
	if !j.enabled {
		log.Debug("daily sync disabled, skipping run")
		return nil
	}

	log.Info("starting daily sync ...")
	j.metrics.CounterSyncRuns.Inc()

	if err := j.syncBookings(ctx); err != nil {
		j.metrics.CounterSyncFailures.Inc()
		return fmt.Errorf("sync bookings: %w", err)
	}
	if err := j.syncMaintenance(ctx); err != nil {
		j.metrics.CounterSyncFailures.Inc()
		return fmt.Errorf("sync maintenance: %w", err)
	}

	log.Info("daily sync completed")
	return nil
}

// RunAndLog swallows run errors, the scheduled path must never propagate.
func (j *Job) RunAndLog(ctx context.Context) {
	if err := j.Run(ctx); err != nil {
		log.Errorf("daily sync failed: %s", err)
	}
}

func (j *Job) syncBookings(ctx context.Context) error {
	queryResult, err := j.gateway.QueryDatabase(ctx, j.bookingsDBID, nil)
	if err != nil {
		return fmt.Errorf("query bookings: %w", err)
	}

	pages, err := parsePages(queryResult)
	if err != nil {
		return err
	}

	for _, bookingPage := range pages {
		event := bookingEventFromPage(bookingPage)
		if event.StartDate == "" {
			continue
		}
		if err := j.calendar.PushBooking(ctx, event); err != nil {
			return fmt.Errorf("push booking %s: %w", event.ID, err)
		}
	}

	log.Debugf("synced %d booking pages", len(pages))
	return nil
}

func (j *Job) syncMaintenance(ctx context.Context) error {
	queryResult, err := j.gateway.QueryDatabase(ctx, j.maintenanceDBID, nil)
	if err != nil {
		return fmt.Errorf("query maintenance: %w", err)
	}

	pages, err := parsePages(queryResult)
	if err != nil {
		return err
	}

	for _, maintenancePage := range pages {
		event := maintenanceEventFromPage(maintenancePage)
		if event.StartDate == "" {
			continue
		}
		if err := j.calendar.PushMaintenance(ctx, event); err != nil {
			return fmt.Errorf("push maintenance %s: %w", event.ID, err)
		}
	}

	log.Debugf("synced %d maintenance pages", len(pages))
	return nil
}
