// Package poolconfig loads pool construction parameters from a YAML file
// and builds the requested pool.Pool variant, mirroring
// nyasuto-chaos-kvs/internal/config's read-file -> unmarshal -> validate ->
// translate split. Unlike that package, a bad configuration value here (an
// unrecognized kind, a malformed duration, or bounds a constructor rejects)
// surfaces as pool.ErrInvalidConfiguration rather than a file-format error.
// A file that cannot be read or is not valid YAML is reported as a read or
// parse error, not as that sentinel.
package poolconfig

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/taskforge/taskforge/pkg/pool"
)

// Kind selects which pool variant a Config builds.
type Kind string

const (
	KindClassicFixed            Kind = "classic-fixed"
	KindElasticGlobal           Kind = "elastic-global"
	KindWorkStealing            Kind = "work-stealing"
	KindAdvancedElasticStealing Kind = "advanced-elastic-stealing"
)

// Config is the strongly typed, validated shape every variant's
// constructor needs. Not every field applies to every Kind; Build ignores
// the ones its selected Kind does not use.
type Config struct {
	Kind        Kind
	N           int
	Min         int
	Max         int
	IdleTimeout time.Duration
}

// fileConfig is the on-disk YAML shape. Durations are strings
// (time.ParseDuration syntax, e.g. "500ms") rather than Go's
// time.Duration, since YAML has no native duration type.
type fileConfig struct {
	Kind        string `yaml:"kind"`
	N           int    `yaml:"n"`
	Min         int    `yaml:"min"`
	Max         int    `yaml:"max"`
	IdleTimeout string `yaml:"idle_timeout"`
}

// LoadFile reads path, parses it as YAML, and translates it into a Config.
// It returns pool.ErrInvalidConfiguration (wrapped with detail) for any
// unrecognized kind or malformed duration string; read/parse failures are
// returned wrapped with the file path, not as that sentinel.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("poolconfig: read %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return Config{}, fmt.Errorf("poolconfig: parse %s: %w", path, err)
	}

	return fc.toConfig()
}

func (fc fileConfig) toConfig() (Config, error) {
	cfg := Config{
		Kind: Kind(fc.Kind),
		N:    fc.N,
		Min:  fc.Min,
		Max:  fc.Max,
	}

	switch cfg.Kind {
	case KindClassicFixed, KindElasticGlobal, KindWorkStealing, KindAdvancedElasticStealing:
	default:
		return Config{}, fmt.Errorf("poolconfig: unrecognized kind %q: %w", fc.Kind, pool.ErrInvalidConfiguration)
	}

	if fc.IdleTimeout != "" {
		d, err := time.ParseDuration(fc.IdleTimeout)
		if err != nil {
			return Config{}, fmt.Errorf("poolconfig: invalid idle_timeout %q: %w", fc.IdleTimeout, pool.ErrInvalidConfiguration)
		}
		cfg.IdleTimeout = d
	}

	return cfg, nil
}

// Build constructs the pool.Pool variant cfg.Kind names, using cfg's other
// fields as that variant's constructor arguments. Construction-time
// validation (bad bounds, negative timeouts) is each constructor's own
// responsibility; Build only decides which one to call.
func Build(cfg Config, opts ...pool.Option) (pool.Pool, error) {
	switch cfg.Kind {
	case KindClassicFixed:
		return pool.NewClassicFixed(cfg.N, opts...)
	case KindElasticGlobal:
		return pool.NewElasticGlobal(cfg.Min, cfg.Max, cfg.IdleTimeout, opts...)
	case KindWorkStealing:
		return pool.NewWorkStealing(cfg.N, opts...)
	case KindAdvancedElasticStealing:
		return pool.NewAdvancedElasticStealing(cfg.Min, cfg.Max, cfg.IdleTimeout, opts...)
	default:
		return nil, fmt.Errorf("poolconfig: unrecognized kind %q: %w", cfg.Kind, pool.ErrInvalidConfiguration)
	}
}
