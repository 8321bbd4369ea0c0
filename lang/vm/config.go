package vm

import (
	"os"

	"github.com/caarlos0/env/v6"
	"gopkg.in/yaml.v3"
)

// slotsPerFrame bounds the number of local-variable/operand-stack slots a
// single call frame may address with compiler.go's one-byte slot operands
// (GET_LOCAL et al.), per spec.md §4.4.
const slotsPerFrame = 256

// Config holds the VM's tunable knobs, loadable either from the environment
// (via caarlos0/env, see LoadConfigEnv) or from a YAML file (see
// LoadConfigFile). Neither loader reads the other's source.
type Config struct {
	// GCStress, when true, runs a full collection on every allocation
	// instead of only when the heap threshold is exceeded, per spec.md
	// §4.5's "optional stress mode".
	GCStress bool `env:"GLOX_GC_STRESS" yaml:"gc_stress"`
	// GCHeapGrowthFactor is the multiplier applied to the live heap size to
	// compute the next collection threshold (spec.md §4.5: "heuristic:
	// gc_threshold = heap_size * 2").
	GCHeapGrowthFactor int `env:"GLOX_GC_HEAP_GROWTH" envDefault:"2" yaml:"gc_heap_growth"`
	// MaxFrames bounds the call frame stack (spec.md §4.4: FRAMES_MAX = 64).
	MaxFrames int `env:"GLOX_MAX_STACK_FRAMES" envDefault:"64" yaml:"max_stack_frames"`
}

// DefaultConfig returns the spec.md-mandated defaults: no stress mode, a 2x
// heap growth factor, 64 call frames.
func DefaultConfig() Config {
	return Config{GCHeapGrowthFactor: 2, MaxFrames: 64}
}

// LoadConfigEnv returns DefaultConfig overridden by any GLOX_* environment
// variables that are set.
func LoadConfigEnv() (Config, error) {
	cfg := DefaultConfig()
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfigFile reads a YAML config file into cfg, leaving fields absent
// from the file untouched, so callers seed cfg with DefaultConfig first to
// keep the defaults for those fields. GLOX_* variables are not consulted.
func LoadConfigFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(b, cfg)
}
