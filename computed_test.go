package pulse

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputed(t *testing.T) {
	t.Run("lazy until first read", func(t *testing.T) {
		computes := 0

		count := NewSignal(1)
		double := NewComputed(func() int {
			computes++
			return count.Get() * 2
		})

		assert.Equal(t, 0, computes)
		assert.Equal(t, 2, double.Get())
		assert.Equal(t, 1, computes)
	})

	t.Run("memoizes between changes", func(t *testing.T) {
		computes := 0

		count := NewSignal(1)
		double := NewComputed(func() int {
			computes++
			return count.Get() * 2
		})

		double.Get()
		double.Get()
		double.Get()

		assert.Equal(t, 1, computes)
	})

	t.Run("invalidation alone does not recompute", func(t *testing.T) {
		computes := 0

		count := NewSignal(1)
		double := NewComputed(func() int {
			computes++
			return count.Get() * 2
		})

		double.Get()
		count.Set(10)
		assert.Equal(t, 1, computes)

		assert.Equal(t, 20, double.Get())
		assert.Equal(t, 2, computes)
	})

	t.Run("unchanged value short-circuits dependents", func(t *testing.T) {
		runs := 0

		count := NewSignal(1)
		positive := NewComputed(func() bool {
			return count.Get() > 0
		})

		NewEffect(func() {
			positive.Get()
			runs++
		})
		assert.Equal(t, 1, runs)

		count.Set(5)
		assert.Equal(t, 1, runs)

		count.Set(-1)
		assert.Equal(t, 2, runs)
	})

	t.Run("diamond runs dependents once with consistent values", func(t *testing.T) {
		log := []string{}

		base := NewSignal(1)
		left := NewComputed(func() int { return base.Get() + 1 })
		right := NewComputed(func() int { return base.Get() * 10 })

		NewEffect(func() {
			log = append(log, fmt.Sprintf("%d+%d", left.Get(), right.Get()))
		})

		base.Set(2)

		assert.Equal(t, []string{
			"2+10",
			"3+20",
		}, log)
	})

	t.Run("caches a panic until a dependency changes", func(t *testing.T) {
		computes := 0

		count := NewSignal(-1)
		sqrt := NewComputed(func() int {
			computes++
			if count.Get() < 0 {
				panic("negative")
			}
			return count.Get()
		})

		assert.PanicsWithValue(t, "negative", func() { sqrt.Get() })
		assert.PanicsWithValue(t, "negative", func() { sqrt.Get() })
		assert.Equal(t, 1, computes)

		count.Set(9)
		assert.Equal(t, 9, sqrt.Get())
	})

	t.Run("dispose freezes the value", func(t *testing.T) {
		computes := 0

		count := NewSignal(1)
		double := NewComputed(func() int {
			computes++
			return count.Get() * 2
		})

		assert.Equal(t, 2, double.Get())

		double.Dispose()
		count.Set(10)

		assert.Equal(t, 2, double.Get())
		assert.Equal(t, 1, computes)
	})

	t.Run("subscribe delivers on change only", func(t *testing.T) {
		log := []string{}

		count := NewSignal(1)
		positive := NewComputed(func() bool {
			return count.Get() > 0
		})
		positive.Get()

		positive.Subscribe(func(v bool) {
			log = append(log, fmt.Sprintf("%t", v))
		})

		count.Set(5)
		count.Set(-1)

		assert.Equal(t, []string{"false"}, log)
	})
}
