package job

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quote-desk/internal/service"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

const DefaultIntelligenceSchedule = "@every 30m"

type IntelligenceRefresher interface {
	Refresh(ctx context.Context) error
}

// IntelligenceJob refreshes the trending feed on a cron schedule.
type IntelligenceJob struct {
	tracer    trace.Tracer
	refresher IntelligenceRefresher
	schedule  string
}

func NewIntelligenceJob(tracer trace.Tracer, refresher IntelligenceRefresher, schedule string) *IntelligenceJob {
	if schedule == "" {
		schedule = DefaultIntelligenceSchedule
	}
	return &IntelligenceJob{tracer: tracer, refresher: refresher, schedule: schedule}
}

// Start refreshes once, then on every tick until ctx is cancelled. It returns an error
// only when the schedule cannot be parsed.
func (j *IntelligenceJob) Start(ctx context.Context) error {
	if j.refresher == nil {
		log.Info().Msg("intelligence job disabled: no refresher")
		<-ctx.Done()
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(j.schedule, func() { j.runOnce(ctx) }); err != nil {
		return fmt.Errorf("register intelligence schedule %q: %w", j.schedule, err)
	}

	j.runOnce(ctx)
	c.Start()
	log.Info().Str("schedule", j.schedule).Msg("intelligence job started")

	<-ctx.Done()
	<-c.Stop().Done()
	log.Info().Msg("intelligence job stopped")
	return nil
}

func (j *IntelligenceJob) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	ctx, span := j.tracer.Start(ctx, "intelligence-job.run-once")
	defer span.End()

	err := j.refresher.Refresh(ctx)
	switch {
	case errors.Is(err, service.ErrRefreshInProgress):
		log.Debug().Msg("intelligence refresh skipped, previous run still in progress")
	case err != nil:
		log.Warn().Err(err).Msg("intelligence refresh failed")
	}
}

// ScheduleInterval estimates the gap between two runs of spec. Invalid specs fall back
// to the default interval.
func ScheduleInterval(spec string) time.Duration {
	if spec == "" {
		spec = DefaultIntelligenceSchedule
	}
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return service.DefaultIntelligenceInterval
	}
	first := sched.Next(time.Now())
	if d := sched.Next(first).Sub(first); d > 0 {
		return d
	}
	return service.DefaultIntelligenceInterval
}
