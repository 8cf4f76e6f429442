package pulse

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsyncComputed(t *testing.T) {
	t.Run("commits the fetched value", func(t *testing.T) {
		a := NewAsyncComputed(func() (int, error) {
			return 42, nil
		}, AsyncOpts[int]{Initial: -1})

		require.Eventually(t, func() bool {
			return a.Value() == 42 && !a.Loading()
		}, time.Second, time.Millisecond)
		assert.NoError(t, a.Err())
	})

	t.Run("discards results from superseded fetches", func(t *testing.T) {
		gate := make(chan struct{})
		var slow atomic.Bool
		slow.Store(true)

		a := NewAsyncComputed(func() (int, error) {
			if slow.Load() {
				<-gate
				return 1, nil
			}
			return 2, nil
		})

		slow.Store(false)
		a.Refresh()

		require.Eventually(t, func() bool {
			return a.Value() == 2
		}, time.Second, time.Millisecond)

		close(gate)
		time.Sleep(50 * time.Millisecond)

		assert.Equal(t, 2, a.Value())
	})

	t.Run("retries until success", func(t *testing.T) {
		var calls atomic.Int32

		a := NewAsyncComputed(func() (int, error) {
			if calls.Add(1) < 3 {
				return 0, errors.New("flaky")
			}
			return 7, nil
		}, AsyncOpts[int]{
			RetryAttempts: 5,
			RetryDelay:    func(int) time.Duration { return time.Millisecond },
		})

		require.Eventually(t, func() bool {
			return a.Value() == 7 && !a.Loading()
		}, time.Second, time.Millisecond)

		assert.NoError(t, a.Err())
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("reports the final error after retries", func(t *testing.T) {
		var calls atomic.Int32
		failed := make(chan error, 1)

		a := NewAsyncComputed(func() (int, error) {
			calls.Add(1)
			return 0, errors.New("down")
		}, AsyncOpts[int]{
			RetryAttempts: 2,
			RetryDelay:    func(int) time.Duration { return time.Millisecond },
			OnError:       func(err error) { failed <- err },
		})

		select {
		case err := <-failed:
			assert.ErrorContains(t, err, "down")
		case <-time.After(time.Second):
			t.Fatal("OnError never fired")
		}

		require.Eventually(t, func() bool {
			return a.Err() != nil && !a.Loading()
		}, time.Second, time.Millisecond)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("debounces rapid refreshes", func(t *testing.T) {
		var calls atomic.Int32

		a := NewAsyncComputed(func() (int, error) {
			return int(calls.Add(1)), nil
		}, AsyncOpts[int]{Debounce: 30 * time.Millisecond})

		a.Refresh()
		a.Refresh()
		a.Refresh()

		require.Eventually(t, func() bool {
			return calls.Load() == 1
		}, time.Second, time.Millisecond)

		time.Sleep(60 * time.Millisecond)
		assert.Equal(t, int32(1), calls.Load())
		assert.Equal(t, 1, a.Value())
	})

	t.Run("watch re-fetches when dependencies change", func(t *testing.T) {
		source := NewSignal(1)

		a := NewAsyncComputed(func() (int, error) {
			return source.Peek() * 10, nil
		}, AsyncOpts[int]{
			Watch: func() { source.Get() },
		})

		require.Eventually(t, func() bool {
			return a.Value() == 10
		}, time.Second, time.Millisecond)

		source.Set(2)

		require.Eventually(t, func() bool {
			return a.Value() == 20
		}, time.Second, time.Millisecond)
	})

	t.Run("dispose discards in-flight results", func(t *testing.T) {
		gate := make(chan struct{})

		a := NewAsyncComputed(func() (int, error) {
			<-gate
			return 99, nil
		}, AsyncOpts[int]{Initial: -1})

		a.Dispose()
		close(gate)
		time.Sleep(50 * time.Millisecond)

		assert.Equal(t, -1, a.Value())
	})

	t.Run("read re-panics the fetch error", func(t *testing.T) {
		a := NewAsyncComputed(func() (int, error) {
			return 0, errors.New("down")
		})

		require.Eventually(t, func() bool {
			return a.Err() != nil
		}, time.Second, time.Millisecond)

		assert.Panics(t, func() { a.Read() })
	})
}
