package pulse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := LoadConfig([]byte(""))

		require.NoError(t, err)
		assert.Equal(t, "panic", cfg.CyclePolicy)
		assert.False(t, cfg.Debug)
		assert.False(t, cfg.Metrics)
	})

	t.Run("parses yaml", func(t *testing.T) {
		cfg, err := LoadConfig([]byte(`
cycle_policy: last-value
debug: true
`))

		require.NoError(t, err)
		assert.Equal(t, "last-value", cfg.CyclePolicy)
		assert.True(t, cfg.Debug)
	})

	t.Run("rejects unknown policies", func(t *testing.T) {
		_, err := LoadConfig([]byte("cycle_policy: explode"))

		assert.ErrorContains(t, err, "cycle_policy")
	})

	t.Run("rejects malformed yaml", func(t *testing.T) {
		_, err := LoadConfig([]byte("cycle_policy: [broken"))

		assert.Error(t, err)
	})

	t.Run("last-value policy recovers cycles without panicking", func(t *testing.T) {
		require.NoError(t, Config{CyclePolicy: "last-value"}.Apply())
		defer func() {
			require.NoError(t, DefaultConfig().Apply())
		}()

		var counter *Computed[int]
		counter = NewComputed(func() int {
			return counter.Get() + 1
		})

		assert.NotPanics(t, func() {
			assert.Equal(t, 1, counter.Get())
		})
	})
}
