package hwprove

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/yaml.v3"
)

// Options configures a proof session.
type Options struct {
	// Backend selects the decision procedure: BACKEND_Z3 or BACKEND_GINI.
	Backend string `yaml:"backend"`
	// DefaultTimeout applies to TryProve calls made with a zero timeout.
	// Zero means no deadline.
	DefaultTimeout time.Duration `yaml:"default_timeout"`
	// SolverTimeout is a session-wide hard limit handed to the solver's own
	// configuration, on top of the per-call deadline. Only z3 uses it.
	SolverTimeout time.Duration `yaml:"solver_timeout"`
	// ValidateWitness replays every counterexample through the concrete
	// evaluator before reporting it.
	ValidateWitness bool `yaml:"validate_witness"`

	Logger         *slog.Logger         `yaml:"-"`
	MeterProvider  metric.MeterProvider `yaml:"-"`
	TracerProvider trace.TracerProvider `yaml:"-"`
}

func DefaultOptions() Options {
	return Options{
		Backend:         BACKEND_Z3,
		DefaultTimeout:  10 * time.Second,
		ValidateWitness: true,
	}
}

// LoadOptions reads YAML options from path. Keys missing from the file keep
// their DefaultOptions value.
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()

	data, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("reading options: %w", err)
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("parsing options %s: %w", path, err)
	}
	if err := opts.Validate(); err != nil {
		return opts, fmt.Errorf("options %s: %w", path, err)
	}
	return opts, nil
}

func (o Options) Validate() error {
	switch o.Backend {
	case BACKEND_Z3, BACKEND_GINI:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, o.Backend)
	}
	if o.DefaultTimeout < 0 || o.SolverTimeout < 0 {
		return fmt.Errorf("negative timeout")
	}
	return nil
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}
