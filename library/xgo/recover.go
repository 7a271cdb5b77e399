package xgo

import (
	"fmt"
	"runtime/debug"

	"github.com/go-kratos/kratos/v2/log"
)

// PanicError carries a recovered value and the stack it was raised on.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// RecoverFromError must be deferred directly. It logs a panic with its stack
// and hands the value to cb.
func RecoverFromError(cb func(e any)) {
	if e := recover(); e != nil {
		log.Errorf("recovered: %v\n%s", e, debug.Stack())
		if cb != nil {
			cb(e)
		}
	}
}

// Go runs f on a new goroutine that survives panics.
func Go(f func()) {
	go func() {
		defer RecoverFromError(nil)
		f()
	}()
}

// Try runs f and turns a panic into a *PanicError.
func Try(f func() error) (err error) {
	defer func() {
		if e := recover(); e != nil {
			err = &PanicError{Value: e, Stack: debug.Stack()}
		}
	}()
	return f()
}
