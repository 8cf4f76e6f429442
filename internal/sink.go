package internal

import (
	"sync"

	"github.com/inconshreveable/log15"
)

// The error sink. Effect panics, swallowed cleanup panics and cycle
// recoveries are reported here instead of propagating.
var (
	sinkMu sync.RWMutex
	sink   log15.Logger = log15.New("lib", "pulse")
)

// SetLogger replaces the process-wide error sink.
func SetLogger(l log15.Logger) {
	sinkMu.Lock()
	defer sinkMu.Unlock()
	sink = l
}

// Logger returns the current error sink.
func Logger() log15.Logger {
	sinkMu.RLock()
	defer sinkMu.RUnlock()
	return sink
}

func sinkError(msg string, v any) {
	Logger().Error(msg, "err", v)
}

func sinkWarn(msg string, ctx ...any) {
	Logger().Warn(msg, ctx...)
}
