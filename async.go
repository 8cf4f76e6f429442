package pulse

import (
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-pulse/pulse/internal"
)

// AsyncOpts configures an async computed.
type AsyncOpts[T any] struct {
	// Initial is the value reported before the first fetch commits.
	Initial T

	// Debounce delays fetch starts, coalescing rapid refreshes.
	Debounce time.Duration

	// RetryAttempts is the number of automatic retries after a failed
	// fetch. Zero disables retrying.
	RetryAttempts int

	// RetryDelay returns the wait before the given attempt (1-based).
	// Defaults to exponential backoff.
	RetryDelay func(attempt int) time.Duration

	// OnError is invoked when a fetch finally fails (after retries).
	OnError func(error)

	// Equals is the equality predicate for the value signal.
	Equals func(a, b T) bool

	// Watch, when set, is run with dependency tracking: the fetch is
	// re-invoked whenever a signal read inside Watch changes.
	Watch func()

	Name string
}

// AsyncComputed wraps a fetch function returning a value
// asynchronously, exposing value/loading/error as signals. Every fetch
// start bumps a version; only results carrying the current version may
// commit, so an outdated fetch can never be observed.
type AsyncComputed[T any] struct {
	value   *Signal[T]
	loading *Signal[bool]
	errSig  *Signal[error]

	fetch func() (T, error)
	opts  AsyncOpts[T]

	mu       sync.Mutex
	version  uint64
	attempts int
	debounce *time.Timer
	watch    *Effect
	disposed bool
}

// NewAsyncComputed creates an async computed and starts the first
// fetch (through the debounce window if one is configured).
func NewAsyncComputed[T any](fetch func() (T, error), opts ...AsyncOpts[T]) *AsyncComputed[T] {
	var cfg AsyncOpts[T]
	if len(opts) > 0 {
		cfg = opts[0]
	}

	retries, debounce := asyncDefaults()
	if cfg.RetryAttempts == 0 {
		cfg.RetryAttempts = retries
	}
	if cfg.Debounce == 0 {
		cfg.Debounce = debounce
	}

	valueOpts := []Option{}
	if cfg.Equals != nil {
		valueOpts = append(valueOpts, WithEquals(cfg.Equals))
	}
	if cfg.Name != "" {
		valueOpts = append(valueOpts, WithName(cfg.Name))
	}

	a := &AsyncComputed[T]{
		value:   NewSignal(cfg.Initial, valueOpts...),
		loading: NewSignal(false),
		errSig:  NewSignal[error](nil),
		fetch:   fetch,
		opts:    cfg,
	}

	OnCleanup(a.Dispose)

	if cfg.Watch != nil {
		a.watch = NewEffect(func() {
			cfg.Watch()
			a.request()
		})
	} else {
		a.request()
	}

	return a
}

// Value reads the last committed value, tracking the dependency.
func (a *AsyncComputed[T]) Value() T { return a.value.Get() }

// Loading reports whether a fetch is in flight.
func (a *AsyncComputed[T]) Loading() bool { return a.loading.Get() }

// Err reads the last fetch error, nil while loading or after success.
func (a *AsyncComputed[T]) Err() error { return a.errSig.Get() }

// Read is the suspense-style accessor: it re-panics the cached error
// instead of requiring an Err check.
func (a *AsyncComputed[T]) Read() T {
	if err := a.errSig.Get(); err != nil {
		panic(err)
	}
	return a.value.Get()
}

// Refresh resets the attempt counter and re-invokes the fetch, going
// through the debounce window.
func (a *AsyncComputed[T]) Refresh() {
	a.request()
}

// Retry re-invokes the fetch immediately, bypassing debounce.
func (a *AsyncComputed[T]) Retry() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.startLocked()
}

// Dispose cancels the debounce timer and detaches the reactive wiring.
// In-flight fetches are not cancelled; their results are discarded by
// the version guard.
func (a *AsyncComputed[T]) Dispose() {
	a.mu.Lock()
	a.disposed = true
	a.version++
	if a.debounce != nil {
		a.debounce.Stop()
		a.debounce = nil
	}
	watch := a.watch
	a.watch = nil
	a.mu.Unlock()

	if watch != nil {
		watch.Dispose()
	}
}

func (a *AsyncComputed[T]) request() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.disposed {
		return
	}

	if a.opts.Debounce > 0 {
		if a.debounce != nil {
			a.debounce.Stop()
		}
		a.debounce = time.AfterFunc(a.opts.Debounce, func() {
			a.mu.Lock()
			defer a.mu.Unlock()
			a.startLocked()
		})
		return
	}

	a.startLocked()
}

// startLocked begins a new fetch cycle: bumps the version (fencing off
// every older in-flight result), flips loading and launches the fetch.
func (a *AsyncComputed[T]) startLocked() {
	if a.disposed {
		return
	}

	a.version++
	version := a.version
	a.attempts = 0

	delay := a.opts.RetryDelay
	if delay == nil {
		delay = defaultRetryDelay()
	}

	NewBatch(func() {
		a.loading.Set(true)
		a.errSig.Set(nil)
	})

	go a.run(version, delay)
}

func (a *AsyncComputed[T]) run(version uint64, delay func(int) time.Duration) {
	result, err := a.fetch()

	a.mu.Lock()
	if version != a.version || a.disposed {
		a.mu.Unlock()
		internal.CountStaleResult()
		return
	}

	if err != nil {
		a.attempts++
		attempt := a.attempts
		if attempt <= a.opts.RetryAttempts {
			a.mu.Unlock()
			time.AfterFunc(delay(attempt), func() {
				a.mu.Lock()
				stale := version != a.version || a.disposed
				a.mu.Unlock()
				if !stale {
					a.run(version, delay)
				}
			})
			return
		}

		a.mu.Unlock()
		NewBatch(func() {
			a.errSig.Set(err)
			a.loading.Set(false)
		})
		if a.opts.OnError != nil {
			a.opts.OnError(err)
		}
		return
	}

	a.mu.Unlock()
	NewBatch(func() {
		a.value.Set(result)
		a.errSig.Set(nil)
		a.loading.Set(false)
	})
}

// Process-wide fallbacks for async computeds that configure neither a
// retry count nor a debounce window, settable via Config.Apply.
var (
	asyncDefaultsMu      sync.RWMutex
	asyncDefaultRetries  int
	asyncDefaultDebounce time.Duration
)

func setAsyncDefaults(retries int, debounce time.Duration) {
	asyncDefaultsMu.Lock()
	defer asyncDefaultsMu.Unlock()
	asyncDefaultRetries = retries
	asyncDefaultDebounce = debounce
}

func asyncDefaults() (int, time.Duration) {
	asyncDefaultsMu.RLock()
	defer asyncDefaultsMu.RUnlock()
	return asyncDefaultRetries, asyncDefaultDebounce
}

func defaultRetryDelay() func(int) time.Duration {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 0

	return func(int) time.Duration {
		return bo.NextBackOff()
	}
}
