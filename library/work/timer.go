package work

import (
	"time"

	"github.com/yola1107/ludo/library/xgo"
)

// Scheduler 定时任务调度器接口
type Scheduler interface {
	Len() int                                          // 当前注册任务数量
	Running() int32                                    // 当前正在执行的任务数量
	Once(delay time.Duration, f func()) int64          // 注册一次性任务
	Forever(interval time.Duration, f func()) int64    // 注册周期任务
	ForeverNow(interval time.Duration, f func()) int64 // 注册周期任务并立即执行一次
	Cancel(taskID int64)                               // 取消指定任务
	CancelAll()                                        // 取消所有任务
	Stop()                                             // 停止调度器
}

// Executor runs scheduled callbacks, typically a Loop.
type Executor interface {
	Post(job func())
}

const maxIntervalJumps = 10000

// ExecuteAsync runs f on executor, or on a fresh goroutine when executor is nil.
func ExecuteAsync(executor Executor, f func()) {
	run := func() {
		defer xgo.RecoverFromError(nil)
		f()
	}
	if executor != nil {
		executor.Post(run)
		return
	}
	go run()
}
