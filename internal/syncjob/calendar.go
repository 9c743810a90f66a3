package syncjob

import (
	"context"

	log "github.com/sirupsen/logrus"
)

var _ CalendarSink = (*NoopCalendar)(nil)

// CalendarSink receives the normalized events produced by a sync run.
type CalendarSink interface {
	PushBooking(ctx context.Context, event BookingEvent) error
	PushMaintenance(ctx context.Context, event MaintenanceEvent) error
}

// NoopCalendar logs and drops events. The external calendar integration
// was retired in favor of the workspace's own calendar, the sink stays
// a stub until another integration shows up.
type NoopCalendar struct{}

func (NoopCalendar) PushBooking(_ context.Context, event BookingEvent) error {
	log.Tracef("calendar sync disabled, dropping booking event %s", event.ID)
	return nil
}

func (NoopCalendar) PushMaintenance(_ context.Context, event MaintenanceEvent) error {
	log.Tracef("calendar sync disabled, dropping maintenance event %s", event.ID)
	return nil
}
