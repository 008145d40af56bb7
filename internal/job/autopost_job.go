package job

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// ChannelPublisher runs one scheduled report cycle ending in a channel
// post.
type ChannelPublisher interface {
	PublishToChannel(ctx context.Context) error
}

// AutopostJob publishes the dashboard report once a day at a fixed hour
// in the report timezone. A negative hour disables the job.
type AutopostJob struct {
	tracer trace.Tracer
	runner ChannelPublisher
	hour   int
	loc    *time.Location
	now    func() time.Time
}

func NewAutopostJob(tracer trace.Tracer, runner ChannelPublisher, hour int, loc *time.Location) *AutopostJob {
	if loc == nil {
		loc = time.UTC
	}
	return &AutopostJob{tracer: tracer, runner: runner, hour: hour, loc: loc, now: time.Now}
}

// Start blocks until ctx is cancelled, firing one publish per day.
func (j *AutopostJob) Start(ctx context.Context) {
	if j.runner == nil || j.hour < 0 || j.hour > 23 {
		log.Println("Autopost job disabled")
		<-ctx.Done()
		return
	}
	log.Printf("Autopost job scheduled daily at %02d:00 %s", j.hour, j.loc)

	for {
		wait := time.Until(j.nextRun(j.now()))
		select {
		case <-ctx.Done():
			log.Println("Autopost job stopped")
			return
		case <-time.After(wait):
			j.runOnce(ctx)
		}
	}
}

// nextRun returns the next occurrence of the configured hour, strictly
// after now.
func (j *AutopostJob) nextRun(now time.Time) time.Time {
	local := now.In(j.loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), j.hour, 0, 0, 0, j.loc)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func (j *AutopostJob) runOnce(ctx context.Context) {
	ctx, span := j.tracer.Start(ctx, "autopost-job.run-once")
	defer span.End()

	log.Println("Autopost cycle starting...")
	if err := j.runner.PublishToChannel(ctx); err != nil {
		// The admin already got a side-channel warning; the
		// public channel is never notified about failures.
		log.Printf("Autopost cycle failed: %v", err)
		return
	}
	log.Println("Autopost cycle complete")
}
