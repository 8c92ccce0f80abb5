package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/Spok95/school-admin-api/internal/observability"
)

type Job func(ctx context.Context) error

type Runner struct {
	ctx context.Context
	loc *time.Location
}

func New(ctx context.Context, loc *time.Location) *Runner {
	return &Runner{ctx: ctx, loc: loc}
}

// Every — периодическая джоба с метриками и защитой от паники.
func (r *Runner) Every(interval time.Duration, name string, fn Job) {
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-r.ctx.Done():
				return
			case <-t.C:
				r.run(name, fn)
			}
		}
	}()
}

// DailyAt — раз в сутки в hh:mm локального времени. Сама джоба дополнительно
// защищена ключом (job_name, target_date) в job_runs, так что поздний рестарт
// процесса в тот же день не приводит к повторному исполнению.
func (r *Runner) DailyAt(hour, minute int, name string, fn Job) {
	go func() {
		for {
			now := time.Now().In(r.loc)
			next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, r.loc)
			if !now.Before(next) {
				next = next.Add(24 * time.Hour)
			}
			select {
			case <-r.ctx.Done():
				return
			case <-time.After(next.Sub(now)):
				r.run(name, fn)
			}
		}
	}()
}

func (r *Runner) run(name string, fn Job) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			observability.CaptureErr(fmt.Errorf("panic in job %s: %v", name, rec))
			jobErrors.WithLabelValues(name).Inc()
		}
	}()
	if err := fn(r.ctx); err != nil {
		observability.CaptureErr(err)
		jobErrors.WithLabelValues(name).Inc()
	}
	jobRuns.WithLabelValues(name).Inc()
	jobDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
}
