package pulse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUntrack(t *testing.T) {
	t.Run("reads without creating a dependency", func(t *testing.T) {
		runs := 0

		count := NewSignal(0)

		NewEffect(func() {
			Untrack(func() int { return count.Get() })
			runs++
		})

		count.Set(10)

		assert.Equal(t, 1, runs)
	})

	t.Run("tracked reads outside the untracked section still count", func(t *testing.T) {
		sums := []int{}

		tracked := NewSignal(1)
		ignored := NewSignal(10)

		NewEffect(func() {
			sum := tracked.Get() + Untrack(func() int { return ignored.Get() })
			sums = append(sums, sum)
		})

		ignored.Set(20)
		tracked.Set(2)

		assert.Equal(t, []int{11, 22}, sums)
	})

	t.Run("works inside computeds", func(t *testing.T) {
		computes := 0

		count := NewSignal(1)
		snapshot := NewComputed(func() int {
			computes++
			return Untrack(func() int { return count.Get() })
		})

		assert.Equal(t, 1, snapshot.Get())
		count.Set(5)
		assert.Equal(t, 1, snapshot.Get())
		assert.Equal(t, 1, computes)
	})
}
