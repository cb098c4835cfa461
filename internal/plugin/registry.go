package plugin

import (
	"fmt"
	"sort"
	"sync"

	ferrors "git.home.luguber.info/inful/releaser/internal/foundation/errors"
)

// Factory builds a plugin instance from its configured options.
type Factory func(options map[string]any) (Plugin, error)

// Registry maps plugin names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates a new empty plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register adds a factory under name.
// Returns an error if the name is empty, the factory nil, or the name taken.
func (r *Registry) Register(name string, factory Factory) error {
	if name == "" {
		return fmt.Errorf("plugin name is required")
	}
	if factory == nil {
		return fmt.Errorf("cannot register nil factory for %s", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("plugin %s already registered", name)
	}
	r.factories[name] = factory
	return nil
}

// MustRegister is Register that panics; for init-time registration of built-ins.
func (r *Registry) MustRegister(name string, factory Factory) {
	if err := r.Register(name, factory); err != nil {
		panic(err)
	}
}

// New instantiates the named plugin. Unknown names are EMISSINGPLUGIN;
// factory failures and invalid metadata are EPLUGINCONFIG.
func (r *Registry) New(name string, options map[string]any) (Plugin, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, ferrors.MissingPlugin(name)
	}

	p, err := factory(options)
	if err != nil {
		if ce, ok := ferrors.AsClassified(err); ok && ce.Kind() == ferrors.KindPluginConfig {
			return nil, ferrors.ClassifyAs(ce, ferrors.KindPluginConfig, name)
		}
		return nil, ferrors.PluginConfig(name, "invalid plugin options: "+err.Error(), err)
	}
	if p == nil {
		return nil, ferrors.PluginConfig(name, "factory returned no plugin", nil)
	}
	if err := p.Metadata().Validate(); err != nil {
		return nil, ferrors.PluginConfig(name, "invalid plugin metadata: "+err.Error(), err)
	}
	return p, nil
}

// Resolve instantiates specs for stage in declared order. The first failure
// is returned; a plugin lacking the stage capability is EPLUGINCONFIG.
func (r *Registry) Resolve(stage Stage, specs []Spec) ([]Instance, error) {
	out := make([]Instance, 0, len(specs))
	for _, spec := range specs {
		p, err := r.New(spec.Name, spec.Options)
		if err != nil {
			return nil, err
		}
		if !Supports(p, stage) {
			return nil, ferrors.PluginConfig(spec.Name, fmt.Sprintf("plugin does not support stage %s", stage), nil)
		}
		out = append(out, Instance{Name: spec.Name, Stage: stage, Plugin: p})
	}
	return out, nil
}

// Names returns all registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has checks if a plugin with the given name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.factories[name]
	return ok
}

// Unregister removes a plugin from the registry.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.factories[name]; !ok {
		return fmt.Errorf("plugin %s not found", name)
	}
	delete(r.factories, name)
	return nil
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.factories)
}

// globalRegistry is the default plugin registry used throughout the application.
var globalRegistry = NewRegistry()

// DefaultRegistry returns the global plugin registry.
func DefaultRegistry() *Registry {
	return globalRegistry
}

// Register adds a factory to the global registry.
func Register(name string, factory Factory) error {
	return globalRegistry.Register(name, factory)
}
