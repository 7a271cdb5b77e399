package xgo

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTry(t *testing.T) {
	assert.NoError(t, Try(func() error { return nil }))

	want := errors.New("plain")
	assert.Same(t, want, Try(func() error { return want }))

	err := Try(func() error { panic("boom") })
	var pe *PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "boom", pe.Value)
	assert.NotEmpty(t, pe.Stack)
	assert.Equal(t, "panic: boom", err.Error())
}

func TestGoSurvivesPanic(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(1)
	Go(func() {
		defer wg.Done()
		panic("worker")
	})
	wg.Wait()
}

func TestRecoverCallback(t *testing.T) {
	var got any
	func() {
		defer RecoverFromError(func(e any) { got = e })
		panic(42)
	}()
	assert.Equal(t, 42, got)
}

func TestToJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, ToJSON(map[string]int{"a": 1}))
	assert.Equal(t, "", ToJSON(make(chan int)))
}
