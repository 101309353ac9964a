package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type Task func(ctx context.Context) error

// run invokes one pass of task behind the shared panic guard. A panicking
// task is logged and contained so the surrounding loop or cron keeps going.
func run(ctx context.Context, name string, log *zap.SugaredLogger, task Task) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Errorw("task panicked", "task", name, "panic", rec)
		}
	}()
	if err := task(ctx); err != nil && ctx.Err() == nil {
		log.Errorw("task failed", "task", name, "err", err)
	}
}

// Every runs task immediately and then repeatedly with a fixed delay between
// completions: the next wait starts only after the previous run finishes, so
// a slow pass never overlaps the next one. Blocks until ctx is cancelled.
func Every(ctx context.Context, interval time.Duration, name string, log *zap.SugaredLogger, task Task) {
	for {
		run(ctx, name, log, task)

		t := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
}

// Cron wraps the cron runner so registered tasks share the panic guard and
// logging of the interval tasks.
type Cron struct {
	c   *cron.Cron
	ctx context.Context
	log *zap.SugaredLogger
}

func NewCron(ctx context.Context, log *zap.SugaredLogger) *Cron {
	return &Cron{c: cron.New(), ctx: ctx, log: log}
}

// Register schedules task at spec (standard 5-field cron syntax).
func (cr *Cron) Register(spec, name string, task Task) error {
	_, err := cr.c.AddFunc(spec, func() {
		run(cr.ctx, name, cr.log, task)
	})
	return err
}

func (cr *Cron) Start() { cr.c.Start() }

// Stop halts scheduling and waits for any running task to return.
func (cr *Cron) Stop() {
	<-cr.c.Stop().Done()
}
