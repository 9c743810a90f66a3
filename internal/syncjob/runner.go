package syncjob

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// Runner triggers the job on a fixed interval until the context is done.
// The interval is injectable so tests do not wait a day.
type Runner struct {
	job      *Job
	interval time.Duration
}

func NewRunner(job *Job, interval time.Duration) *Runner {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Runner{
		job:      job,
		interval: interval,
	}
}

// Start spawns the scheduling goroutine and returns immediately.
func (r *Runner) Start(ctx context.Context) {
	if !r.job.Enabled() {
		log.Debug("sync runner: job disabled, not scheduling")
		return
	}

	log.Infof("sync runner: scheduling sync every %s", r.interval)

	go func() {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Debug("sync runner: stopping")
				return
			case <-ticker.C:
				r.job.RunAndLog(ctx)
			}
		}
	}()
}
