package service

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimerRegistryFires(t *testing.T) {
	r := NewTimerRegistry()

	fired := make(chan struct{})
	ok := r.Register(1, 20*time.Millisecond, func() { close(fired) })
	require.True(t, ok)
	assert.Equal(t, 1, r.Outstanding())

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
	assert.Eventually(t, func() bool { return r.Outstanding() == 0 }, time.Second, 10*time.Millisecond)
}

func TestTimerRegistryCancelBeforeFire(t *testing.T) {
	r := NewTimerRegistry()

	var fired atomic.Bool
	require.True(t, r.Register(1, 100*time.Millisecond, func() { fired.Store(true) }))
	require.True(t, r.Cancel(1))

	time.Sleep(200 * time.Millisecond)
	assert.False(t, fired.Load())
	assert.Equal(t, 0, r.Outstanding())
}

func TestTimerRegistryCancelUnknown(t *testing.T) {
	r := NewTimerRegistry()
	assert.False(t, r.Cancel(42))
}

func TestTimerRegistryRejectsDuplicate(t *testing.T) {
	r := NewTimerRegistry()

	require.True(t, r.Register(7, time.Hour, func() {}))
	assert.False(t, r.Register(7, time.Hour, func() {}))
	assert.Equal(t, 1, r.Outstanding())

	r.Cancel(7)
}

// 并发注册同一个 alertID，恰好一个成功
func TestTimerRegistryConcurrentRegister(t *testing.T) {
	r := NewTimerRegistry()

	const workers = 16
	var wg sync.WaitGroup
	var wins atomic.Int32
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r.Register(99, time.Hour, func() {}) {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, 1, r.Outstanding())
	r.Cancel(99)
}
