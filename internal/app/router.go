package app

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Spok95/group-duty-bot/internal/observability"
)

// Router выполняет задачи одного чата строго по очереди, а разные чаты параллельно.
// На каждый чат с непустой очередью работает одна горутина.
type Router struct {
	ctx    context.Context
	log    *zap.Logger
	mu     sync.Mutex
	queues map[int64][]func(context.Context)
	wg     sync.WaitGroup
}

func NewRouter(ctx context.Context, log *zap.Logger) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	return &Router{ctx: ctx, log: log, queues: make(map[int64][]func(context.Context))}
}

// Submit ставит задачу в очередь чата.
func (r *Router) Submit(chatID int64, job func(context.Context)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, running := r.queues[chatID]
	r.queues[chatID] = append(q, job)
	if !running {
		r.wg.Add(1)
		go r.drain(chatID)
	}
}

// Wait дожидается, пока опустеют все очереди.
func (r *Router) Wait() { r.wg.Wait() }

func (r *Router) drain(chatID int64) {
	defer r.wg.Done()
	for {
		r.mu.Lock()
		q := r.queues[chatID]
		if len(q) == 0 {
			delete(r.queues, chatID)
			r.mu.Unlock()
			return
		}
		job := q[0]
		r.queues[chatID] = q[1:]
		r.mu.Unlock()

		r.run(chatID, job)
	}
}

func (r *Router) run(chatID int64, job func(context.Context)) {
	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("panic in chat %d: %v", chatID, rec)
			r.log.Error("job panicked", zap.Int64("chat_id", chatID), zap.Error(err))
			observability.CaptureErr(err)
		}
	}()
	job(r.ctx)
}
