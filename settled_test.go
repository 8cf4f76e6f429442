package pulse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOnSettled(t *testing.T) {
	t.Run("fires after cascaded effects quiesce", func(t *testing.T) {
		log := []string{}

		first := NewSignal(0)
		second := NewSignal(0)

		NewEffect(func() {
			second.Set(first.Get() * 2)
		})

		NewEffect(func() {
			second.Get()
			log = append(log, "second effect")
		})

		OnSettled(func() {
			log = append(log, "settled")
		})

		first.Set(1)

		assert.Equal(t, []string{
			"second effect",
			"second effect",
			"settled",
		}, log)
	})

	t.Run("fires once", func(t *testing.T) {
		settles := 0

		count := NewSignal(0)
		NewEffect(func() { count.Get() })

		OnSettled(func() { settles++ })

		count.Set(1)
		count.Set(2)

		assert.Equal(t, 1, settles)
	})

	t.Run("work scheduled by a settled callback flushes too", func(t *testing.T) {
		log := []string{}

		count := NewSignal(0)
		NewEffect(func() {
			log = append(log, "effect")
			count.Get()
		})

		OnSettled(func() {
			log = append(log, "settled")
			count.Set(100)
		})

		count.Set(1)

		assert.Equal(t, []string{
			"effect",
			"effect",
			"settled",
			"effect",
		}, log)
	})
}
