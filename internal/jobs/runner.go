package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/group-duty-bot/internal/ctxutil"
	"github.com/Spok95/group-duty-bot/internal/observability"
)

type Job func(ctx context.Context) error

type Runner struct {
	ctx context.Context
	log *zap.Logger
	wg  sync.WaitGroup
}

func New(ctx context.Context, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{ctx: ctx, log: log}
}

// Every запускает job сразу и дальше раз в interval, пока не отменён контекст.
func (r *Runner) Every(interval time.Duration, name string, fn Job) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			r.runOnce(name, fn)
			select {
			case <-r.ctx.Done():
				return
			case <-t.C:
			}
		}
	}()
}

// Wait дожидается остановки всех циклов после отмены контекста.
func (r *Runner) Wait() { r.wg.Wait() }

func (r *Runner) runOnce(name string, fn Job) {
	if r.ctx.Err() != nil {
		return
	}
	start := time.Now()
	ctx := ctxutil.WithOp(r.ctx, name)
	err := func() (err error) {
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("panic in job %s: %v", name, rec)
			}
		}()
		return fn(ctx)
	}()
	if err != nil {
		jobErrors.WithLabelValues(name).Inc()
		r.log.Error("job failed", zap.String("job", name), zap.Error(err))
		observability.CaptureCtx(ctx, err)
	}
	jobRuns.WithLabelValues(name).Inc()
	jobDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
}
