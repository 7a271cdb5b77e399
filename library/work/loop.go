package work

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/panjf2000/ants/v2"

	"github.com/yola1107/ludo/library/xgo"
)

var ErrLoopStopped = errors.New("loop not started or already stopped")

// LoopStatus 协程池状态
type LoopStatus struct {
	Capacity int
	Running  int
	Free     int
}

// Loop 协程池管理接口
type Loop interface {
	Start() error
	Stop()
	Status() LoopStatus
	Post(job func())
	PostCtx(ctx context.Context, job func())
	PostAndWait(ctx context.Context, job func() (any, error)) (any, error)
}

type LoopOption func(*antsLoop)

// WithFallback replaces the default "run in a bare goroutine" policy used
// when the pool rejects a job.
func WithFallback(fallback func(ctx context.Context, fn func())) LoopOption {
	return func(l *antsLoop) { l.fallback = fallback }
}

func WithPoolOptions(opts ...ants.Option) LoopOption {
	return func(l *antsLoop) { l.poolOptions = append(l.poolOptions, opts...) }
}

type antsLoop struct {
	mu          sync.RWMutex
	pool        *ants.Pool
	size        int
	fallback    func(context.Context, func())
	poolOptions []ants.Option
}

// NewAntsLoop 创建协程池实例
func NewAntsLoop(size int, opts ...LoopOption) Loop {
	l := &antsLoop{
		size: size,
		fallback: func(ctx context.Context, fn func()) {
			go safeRun(ctx, fn)
		},
		poolOptions: []ants.Option{
			ants.WithExpiryDuration(60 * time.Second), // 每60s清理一次闲置 worker
		},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *antsLoop) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pool != nil {
		return nil
	}
	pool, err := ants.NewPool(l.size, l.poolOptions...)
	if err != nil {
		return fmt.Errorf("pool init failed: %w", err)
	}
	l.pool = pool
	log.Infof("antsLoop start... [size:%d]", l.size)
	return nil
}

func (l *antsLoop) Stop() {
	l.mu.Lock()
	p := l.pool
	l.pool = nil
	l.mu.Unlock()

	if p != nil {
		log.Infof("antsLoop stopping [running:%d]", p.Running())
		_ = p.ReleaseTimeout(3 * time.Second)
	}
}

func (l *antsLoop) Status() LoopStatus {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.pool == nil {
		return LoopStatus{}
	}
	c, r := l.pool.Cap(), l.pool.Running()
	return LoopStatus{Capacity: c, Running: r, Free: max(c-r, 0)}
}

func (l *antsLoop) Post(job func()) {
	l.PostCtx(context.Background(), job)
}

func (l *antsLoop) PostCtx(ctx context.Context, job func()) {
	if ctx.Err() == nil {
		l.submit(ctx, job)
	}
}

// PostAndWait runs job on the pool and blocks until it returns or ctx ends.
// A panicking job is reported as an error.
func (l *antsLoop) PostAndWait(ctx context.Context, job func() (any, error)) (any, error) {
	type result struct {
		v   any
		err error
	}
	ch := make(chan result, 1)
	l.submit(ctx, func() {
		var v any
		err := xgo.Try(func() (err error) {
			v, err = job()
			return err
		})
		ch <- result{v: v, err: err}
	})

	select {
	case res := <-ch:
		return res.v, res.err
	case <-ctx.Done():
		return nil, fmt.Errorf("canceled: %w", ctx.Err())
	}
}

func (l *antsLoop) submit(ctx context.Context, fn func()) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.pool == nil || l.pool.IsClosed() {
		l.triggerFallback(ctx, fn, ErrLoopStopped.Error())
		return
	}
	if err := l.pool.Submit(func() { safeRun(ctx, fn) }); err != nil {
		l.triggerFallback(ctx, fn, err.Error())
	}
}

func (l *antsLoop) triggerFallback(ctx context.Context, fn func(), reason string) {
	log.Warnf("antsLoop fallback. reason=%s", reason)
	l.fallback(ctx, fn)
}

func safeRun(ctx context.Context, fn func()) {
	defer xgo.RecoverFromError(nil)
	if ctx.Err() == nil {
		fn()
	}
}
