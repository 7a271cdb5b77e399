package work

import (
	"context"
	"time"
)

const defaultPoolSize = 100 // 默认协程池容量

// Store 任务池+定时器. Timer callbacks run on the pool.
type Store interface {
	Loop
	Scheduler
}

type workStore struct {
	loop  Loop
	timer Scheduler
}

// NewStore builds a pool of size workers (default when <= 0) with a timing
// wheel of the given tick feeding it. Start must be called before use.
func NewStore(size int, tick time.Duration) Store {
	if size <= 0 {
		size = defaultPoolSize
	}
	l := NewAntsLoop(size)
	return &workStore{
		loop:  l,
		timer: NewWheelScheduler(WithExecutor(l), WithTick(tick)),
	}
}

func (w *workStore) Start() error { return w.loop.Start() }

// Stop halts the timers before draining the pool.
func (w *workStore) Stop() {
	w.timer.Stop()
	w.loop.Stop()
}

func (w *workStore) Status() LoopStatus                      { return w.loop.Status() }
func (w *workStore) Post(job func())                         { w.loop.Post(job) }
func (w *workStore) PostCtx(ctx context.Context, job func()) { w.loop.PostCtx(ctx, job) }
func (w *workStore) PostAndWait(ctx context.Context, job func() (any, error)) (any, error) {
	return w.loop.PostAndWait(ctx, job)
}

func (w *workStore) Len() int       { return w.timer.Len() }
func (w *workStore) Running() int32 { return w.timer.Running() }
func (w *workStore) Once(d time.Duration, f func()) int64 {
	return w.timer.Once(d, f)
}
func (w *workStore) Forever(d time.Duration, f func()) int64 {
	return w.timer.Forever(d, f)
}
func (w *workStore) ForeverNow(d time.Duration, f func()) int64 {
	return w.timer.ForeverNow(d, f)
}
func (w *workStore) Cancel(taskID int64) { w.timer.Cancel(taskID) }
func (w *workStore) CancelAll()          { w.timer.CancelAll() }
