package pulse

import (
	"fmt"
	"time"

	"github.com/go-pulse/pulse/internal"
	"gopkg.in/yaml.v3"
)

// Config is the engine configuration, loadable from YAML.
type Config struct {
	// CyclePolicy selects what happens when a computed re-enters itself:
	// "panic" (default) raises a CircularDependencyError, "last-value"
	// logs and keeps the cached value.
	CyclePolicy string `yaml:"cycle_policy"`

	// Debug enables verbose logging on the error sink.
	Debug bool `yaml:"debug"`

	// Metrics registers the Prometheus collectors on the default
	// registerer.
	Metrics bool `yaml:"metrics"`

	// RetryAttempts is the default retry count for async computeds that
	// set none themselves.
	RetryAttempts int `yaml:"retry_attempts"`

	// DebounceMS is the default async debounce window in milliseconds.
	DebounceMS int `yaml:"debounce_ms"`
}

// DefaultConfig returns the configuration used when nothing is loaded.
func DefaultConfig() Config {
	return Config{CyclePolicy: "panic"}
}

// LoadConfig parses a YAML document into a Config, filling omitted
// fields with defaults.
func LoadConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	if _, err := cfg.cyclePolicy(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Apply installs the configuration on the current goroutine's runtime.
func (c Config) Apply() error {
	policy, err := c.cyclePolicy()
	if err != nil {
		return err
	}

	internal.GetRuntime().Configure(internal.Settings{
		CyclePolicy: policy,
		Debug:       c.Debug,
	})

	setAsyncDefaults(c.RetryAttempts, time.Duration(c.DebounceMS)*time.Millisecond)

	if c.Metrics {
		EnableMetrics(nil)
	}
	return nil
}

func (c Config) cyclePolicy() (internal.CyclePolicy, error) {
	switch c.CyclePolicy {
	case "", "panic":
		return internal.CyclePanic, nil
	case "last-value":
		return internal.CycleLastValue, nil
	default:
		return 0, fmt.Errorf("unknown cycle_policy %q", c.CyclePolicy)
	}
}
