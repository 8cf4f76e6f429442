package pulse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBatch(t *testing.T) {
	t.Run("coalesces writes into one run", func(t *testing.T) {
		runs := 0

		first := NewSignal(1)
		second := NewSignal(2)

		NewEffect(func() {
			first.Get()
			second.Get()
			runs++
		})

		NewBatch(func() {
			first.Set(10)
			second.Set(20)
		})

		assert.Equal(t, 2, runs)
	})

	t.Run("writes land immediately inside the batch", func(t *testing.T) {
		runs := 0

		count := NewSignal(1)
		NewEffect(func() {
			count.Get()
			runs++
		})

		NewBatch(func() {
			count.Set(10)
			assert.Equal(t, 10, count.Peek())
			assert.Equal(t, 1, runs)
		})

		assert.Equal(t, 2, runs)
	})

	t.Run("nested batches flush once at the end", func(t *testing.T) {
		runs := 0

		count := NewSignal(1)
		NewEffect(func() {
			count.Get()
			runs++
		})

		NewBatch(func() {
			count.Set(2)
			NewBatch(func() {
				count.Set(3)
			})
			assert.Equal(t, 1, runs)
			count.Set(4)
		})

		assert.Equal(t, 2, runs)
	})

	t.Run("derived chain settles to final values", func(t *testing.T) {
		results := []int{}

		count := NewSignal(1)
		double := NewComputed(func() int {
			return count.Get() * 2
		})

		NewEffect(func() {
			results = append(results, double.Get())
		})

		NewBatch(func() {
			count.Set(2)
			count.Set(5)
		})

		assert.Equal(t, []int{2, 10}, results)
	})

	t.Run("a panic still flushes queued work", func(t *testing.T) {
		runs := 0

		count := NewSignal(1)
		NewEffect(func() {
			count.Get()
			runs++
		})

		assert.PanicsWithValue(t, "boom", func() {
			NewBatch(func() {
				count.Set(10)
				panic("boom")
			})
		})

		assert.Equal(t, 2, runs)
		assert.Equal(t, 10, count.Get())
	})

	t.Run("named batches behave like plain ones", func(t *testing.T) {
		count := NewSignal(1)

		NewBatchNamed(context.Background(), "bump", func() {
			count.Set(2)
		})

		assert.Equal(t, 2, count.Get())
	})
}
