// Package strategy defines the Strategy interface for backtested trading
// strategies, the per-bar Context capability handed to them, and a Registry
// mapping strategy names to factories. Strategies are constructed fresh for
// every run through their factory; instances are never shared across runs.
package strategy

import (
	"fmt"
	"sort"
	"strconv"
)

// Strategy is the pluggable decision unit driven by the backtest runner.
// Errors returned from any hook abort the run; the kernel performs no
// recovery.
type Strategy interface {
	// Name returns the unique identifier for this strategy.
	Name() string

	// OnStart is called once before the first bar.
	OnStart() error

	// OnBar is called for every bar with a fresh Context. The strategy may
	// submit zero or more orders through the context.
	OnBar(c *Context) error

	// OnEnd is called once after the last bar.
	OnEnd() error
}

// Params is the flat parameter bag a factory receives, as produced by the
// optimizer's grid expansion or the run configuration. Factories must
// reject unknown keys.
type Params map[string]float64

// Int returns the parameter as an integer share/period count.
func (p Params) Int(key string, def int) int {
	if v, ok := p[key]; ok {
		return int(v)
	}
	return def
}

// Float returns the parameter as a float, or def when absent.
func (p Params) Float(key string, def float64) float64 {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

// Clone returns an independent copy, so one trial's params can never leak
// into another.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// String renders the params in sorted key order for logs and result rows.
func (p Params) String() string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	s := "{"
	for i, k := range keys {
		if i > 0 {
			s += " "
		}
		s += k + "=" + strconv.FormatFloat(p[k], 'g', -1, 64)
	}
	return s + "}"
}

// Factory constructs a fresh strategy instance from parameters. A factory
// returns an error for unknown parameter keys or invalid values; that is a
// configuration error surfaced before the run starts.
type Factory func(p Params) (Strategy, error)

// Registry holds named strategy factories for lookup and enumeration.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under the given name.
func (r *Registry) Register(name string, f Factory) {
	r.factories[name] = f
}

// Get retrieves a factory by name. The second return value indicates
// whether the factory was found.
func (r *Registry) Get(name string) (Factory, bool) {
	f, ok := r.factories[name]
	return f, ok
}

// New constructs a fresh strategy instance by name.
func (r *Registry) New(name string, p Params) (Strategy, error) {
	f, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q (available: %v)", name, r.List())
	}
	return f(p)
}

// List returns a sorted slice of all registered strategy names.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
