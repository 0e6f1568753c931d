package puzzle

import (
	"fmt"
	"sort"
	"sync"
)

// Constructor builds an uninitialized widget.
type Constructor func(surface Surface, cfg Config, opts Options) Widget

// Registry maps type tags to constructors.
type Registry struct {
	mu      sync.RWMutex
	ctors   map[Type]Constructor
	aliases map[string]Type
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		ctors:   make(map[Type]Constructor),
		aliases: make(map[string]Type),
	}
}

// Register adds a constructor. Registering the same type twice is an error.
func (r *Registry) Register(t Type, c Constructor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.ctors[t]; exists {
		return fmt.Errorf("puzzle type %q already registered", t)
	}
	r.ctors[t] = c
	return nil
}

// Alias makes key resolve to t. Used for stage-derived keys such as "safe_puzzle_3".
func (r *Registry) Alias(key string, t Type) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aliases[key] = t
}

// Resolve maps a key (a type tag or an alias) to a registered type.
func (r *Registry) Resolve(key string) (Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.ctors[Type(key)]; ok {
		return Type(key), true
	}
	t, ok := r.aliases[key]
	return t, ok
}

// Create builds the widget for cfg.Type. Aliases are resolved and cfg.Type is rewritten to the
// canonical tag.
func (r *Registry) Create(surface Surface, cfg Config, opts Options) (Widget, error) {
	t, ok := r.Resolve(string(cfg.Type))
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, cfg.Type)
	}
	r.mu.RLock()
	ctor := r.ctors[t]
	r.mu.RUnlock()
	cfg.Type = t
	return ctor(surface, cfg, opts), nil
}

// Types returns the registered type tags, sorted.
func (r *Registry) Types() []Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]Type, 0, len(r.ctors))
	for t := range r.ctors {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
