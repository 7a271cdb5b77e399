package work

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/RussellLuo/timingwheel"
	"github.com/go-kratos/kratos/v2/log"
)

const (
	defaultWheelTick = 50 * time.Millisecond // 时间轮默认精度
	defaultWheelSize = 128                   // 时间轮默认槽位数
)

// everyScheduler keeps a periodic task aligned to its first fire time so
// that slow callbacks do not make it drift.
type everyScheduler struct {
	interval time.Duration
	last     atomic.Value // time.Time
}

func (p *everyScheduler) Next(t time.Time) time.Time {
	last, _ := p.last.Load().(time.Time)
	if last.IsZero() {
		last = t
	}
	next := last.Add(p.interval)
	for steps := 0; !next.After(t); steps++ {
		if steps > maxIntervalJumps {
			log.Warnf("[wheelScheduler] skipped too many intervals: %d", steps)
			next = t.Add(p.interval)
			break
		}
		next = next.Add(p.interval)
	}
	p.last.Store(next)
	return next
}

type WheelOption func(*wheelScheduler)

func WithTick(d time.Duration) WheelOption {
	return func(s *wheelScheduler) {
		if d > 0 {
			s.tick = d
		}
	}
}

func WithWheelSize(size int64) WheelOption {
	return func(s *wheelScheduler) {
		if size > 0 {
			s.wheelSize = size
		}
	}
}

func WithExecutor(exec Executor) WheelOption {
	return func(s *wheelScheduler) { s.executor = exec }
}

type wheelEntry struct {
	timer     *timingwheel.Timer
	cancelled atomic.Bool
	fired     atomic.Bool
}

// wheelScheduler 基于时间轮的定时任务调度器
type wheelScheduler struct {
	tick      time.Duration
	wheelSize int64
	executor  Executor
	tw        *timingwheel.TimingWheel

	mu       sync.Mutex
	tasks    map[int64]*wheelEntry
	nextID   atomic.Int64
	running  atomic.Int32
	shutdown atomic.Bool
	wg       sync.WaitGroup
	once     sync.Once
}

// NewWheelScheduler starts a timing wheel. Callbacks run on the executor when
// one is given, otherwise each on its own goroutine.
func NewWheelScheduler(opts ...WheelOption) Scheduler {
	s := &wheelScheduler{
		tick:      defaultWheelTick,
		wheelSize: defaultWheelSize,
		tasks:     make(map[int64]*wheelEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.tw = timingwheel.NewTimingWheel(s.tick, s.wheelSize)
	s.tw.Start()
	return s
}

func (s *wheelScheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

func (s *wheelScheduler) Running() int32 {
	return s.running.Load()
}

func (s *wheelScheduler) Once(delay time.Duration, f func()) int64 {
	return s.schedule(delay, false, f)
}

func (s *wheelScheduler) Forever(interval time.Duration, f func()) int64 {
	return s.schedule(interval, true, f)
}

func (s *wheelScheduler) ForeverNow(interval time.Duration, f func()) int64 {
	id := s.schedule(interval, true, f)
	if id > 0 {
		s.run(f)
	}
	return id
}

// Cancel 取消指定任务. Unknown or already fired ids are ignored.
func (s *wheelScheduler) Cancel(taskID int64) {
	s.mu.Lock()
	e, ok := s.tasks[taskID]
	delete(s.tasks, taskID)
	s.mu.Unlock()
	if ok {
		e.cancelled.Store(true)
		e.timer.Stop()
	}
}

func (s *wheelScheduler) CancelAll() {
	s.mu.Lock()
	tasks := s.tasks
	s.tasks = make(map[int64]*wheelEntry)
	s.mu.Unlock()
	for _, e := range tasks {
		e.cancelled.Store(true)
		e.timer.Stop()
	}
}

// Stop cancels every task, stops the wheel and waits for running callbacks.
func (s *wheelScheduler) Stop() {
	s.once.Do(func() {
		s.shutdown.Store(true)
		s.CancelAll()
		s.tw.Stop()

		done := make(chan struct{})
		go func() {
			s.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
			log.Info("[wheelScheduler] stopped gracefully")
		case <-time.After(3 * time.Second):
			log.Warn("[wheelScheduler] shutdown timed out, some tasks may still be running")
		}
	})
}

func (s *wheelScheduler) schedule(delay time.Duration, repeated bool, f func()) int64 {
	if s.shutdown.Load() {
		log.Warn("[wheelScheduler] shut down; task rejected")
		return -1
	}

	id := s.nextID.Add(1)
	e := &wheelEntry{}
	fire := func() {
		if e.cancelled.Load() {
			return
		}
		if !repeated {
			if !e.fired.CompareAndSwap(false, true) {
				return
			}
			s.mu.Lock()
			delete(s.tasks, id)
			s.mu.Unlock()
		}
		s.run(func() {
			if !e.cancelled.Load() {
				f()
			}
		})
	}

	// 先登记再启动, 防止回调先于登记触发
	s.mu.Lock()
	s.tasks[id] = e
	if repeated {
		e.timer = s.tw.ScheduleFunc(&everyScheduler{interval: delay}, fire)
	} else {
		e.timer = s.tw.AfterFunc(delay, fire)
	}
	s.mu.Unlock()
	return id
}

func (s *wheelScheduler) run(f func()) {
	s.wg.Add(1)
	s.running.Add(1)
	ExecuteAsync(s.executor, func() {
		defer func() {
			s.running.Add(-1)
			s.wg.Done()
		}()
		f()
	})
}
