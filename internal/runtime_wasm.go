//go:build wasm

package internal

// wasm is single-threaded, one global runtime suffices.
var runtime = NewRuntime()

func GetRuntime() *Runtime {
	return runtime
}
