package pulse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOwner(t *testing.T) {
	t.Run("runs function and disposes", func(t *testing.T) {
		log := []string{}

		o := NewOwner()

		o.Run(func() error {
			NewEffect(func() {
				log = append(log, "effect")

				OnCleanup(func() { log = append(log, "cleanup") })
			})

			return nil
		})

		log = append(log, "ran")
		o.Dispose()
		log = append(log, "disposed")

		assert.Equal(t, []string{
			"effect",
			"ran",
			"cleanup",
			"disposed",
		}, log)
	})

	t.Run("children dispose before the parent", func(t *testing.T) {
		log := []string{}

		o := NewOwner()
		o.OnCleanup(func() {
			log = append(log, "parent")
		})

		o.Run(func() error {
			NewOwner().OnCleanup(func() {
				log = append(log, "child")
			})

			return nil
		})

		o.Dispose()

		assert.Equal(t, []string{
			"child",
			"parent",
		}, log)
	})

	t.Run("dispose is idempotent", func(t *testing.T) {
		cleanups := 0

		o := NewOwner()
		o.OnCleanup(func() { cleanups++ })

		o.Dispose()
		o.Dispose()

		assert.Equal(t, 1, cleanups)
	})

	t.Run("a panicking cleanup does not stop the rest", func(t *testing.T) {
		log := []string{}

		o := NewOwner()
		o.OnCleanup(func() { log = append(log, "first") })
		o.OnCleanup(func() { panic("boom") })
		o.OnCleanup(func() { log = append(log, "last") })

		assert.NotPanics(t, func() { o.Dispose() })

		assert.Equal(t, []string{
			"first",
			"last",
		}, log)
	})

	t.Run("catches effect panics", func(t *testing.T) {
		caught := []any{}

		count := NewSignal(0)

		o := NewOwner()
		o.OnError(func(v any) {
			caught = append(caught, v)
		})

		o.Run(func() error {
			NewEffect(func() {
				if count.Get() > 0 {
					panic("effect boom")
				}
			})

			return nil
		})

		count.Set(1)

		assert.Equal(t, []any{"effect boom"}, caught)
	})

	t.Run("catches panics from run", func(t *testing.T) {
		caught := []any{}

		o := NewOwner()
		o.OnError(func(v any) {
			caught = append(caught, v)
		})

		assert.NotPanics(t, func() {
			o.Run(func() error {
				panic("run boom")
			})
		})

		assert.Equal(t, []any{"run boom"}, caught)
	})

	t.Run("disposal detaches the whole subtree", func(t *testing.T) {
		runs := 0

		count := NewSignal(0)

		o := NewOwner()
		o.Run(func() error {
			NewEffect(func() {
				count.Get()
				runs++
			})

			return nil
		})

		o.Dispose()

		count.Set(1)
		count.Set(2)

		assert.Equal(t, 1, runs)
	})

	t.Run("create root returns the result and a dispose handle", func(t *testing.T) {
		runs := 0

		count := NewSignal(0)

		stop := CreateRoot(func(dispose func()) func() {
			NewEffect(func() {
				count.Get()
				runs++
			})

			return dispose
		})

		count.Set(1)
		assert.Equal(t, 2, runs)

		stop()
		count.Set(2)
		assert.Equal(t, 2, runs)
	})
}
