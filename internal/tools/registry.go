package tools

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"radsim/internal/config"
	"radsim/internal/permission"
	"radsim/internal/provider"
)

// Registry manages the collection of available tools. It accepts
// registrations until Freeze and is read-only afterwards.
type Registry struct {
	tools  map[string]Definition
	frozen bool
	mu     sync.RWMutex

	permissions    *permission.Manager
	timeout        time.Duration
	maxResultChars int
}

// Option configures a Registry.
type Option func(*Registry)

// WithPermissions sets the policy consulted for tools that are not read-only.
func WithPermissions(m *permission.Manager) Option {
	return func(r *Registry) { r.permissions = m }
}

// WithTimeout sets the default per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Registry) { r.timeout = d }
}

// WithMaxResultChars caps the content returned to the model.
func WithMaxResultChars(n int) Option {
	return func(r *Registry) { r.maxResultChars = n }
}

// NewRegistry creates a new tool registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		tools:          make(map[string]Definition),
		permissions:    permission.NewManager(nil),
		timeout:        config.DefaultToolTimeout,
		maxResultChars: config.DefaultToolResultMaxChars,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a tool to the registry.
func (r *Registry) Register(def Definition) error {
	if def.Name == "" {
		return fmt.Errorf("tool definition has no name")
	}
	if def.Handler == nil {
		return fmt.Errorf("tool %s has no handler", def.Name)
	}
	if def.ReadOnly && def.Destructive {
		return fmt.Errorf("tool %s cannot be both read-only and destructive", def.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return fmt.Errorf("%w: cannot register %s", ErrRegistryFrozen, def.Name)
	}
	if _, exists := r.tools[def.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, def.Name)
	}
	r.tools[def.Name] = def
	return nil
}

// Freeze makes the registry read-only.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.tools[name]
	return def, ok
}

// IsDestructive reports whether name is a registered destructive tool.
func (r *Registry) IsDestructive(name string) bool {
	def, ok := r.Get(name)
	return ok && def.Destructive
}

// IsReadOnly reports whether name is a registered read-only tool.
func (r *Registry) IsReadOnly(name string) bool {
	def, ok := r.Get(name)
	return ok && def.ReadOnly
}

// Names returns the registered tool names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definitions returns the provider-facing tool specs, sorted by name so
// requests are stable across calls.
func (r *Registry) Definitions() []provider.ToolSpec {
	names := r.Names()

	r.mu.RLock()
	defer r.mu.RUnlock()
	specs := make([]provider.ToolSpec, 0, len(names))
	for _, name := range names {
		specs = append(specs, r.tools[name].Spec())
	}
	return specs
}

// Permissions returns the permission manager used by the gate.
func (r *Registry) Permissions() *permission.Manager {
	return r.permissions
}
