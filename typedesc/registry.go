package typedesc

import (
	"errors"
	"fmt"
	"sync"

	"fortio.org/safecast"
)

var (
	ErrEmptyName       = errors.New("empty type name")
	ErrBuiltinType     = errors.New("type name is reserved by a builtin type")
	ErrDuplicateType   = errors.New("custom type already registered")
	ErrRecursiveStruct = errors.New("struct layout refers to itself")
	// ErrStaleType is returned when a descriptor references a struct layout
	// dropped by [Registry.ClearCustomTypes].
	ErrStaleType = errors.New("stale type descriptor")
)

// RegistryConfig configures a [Registry].
type RegistryConfig struct {
	// RejectDuplicates makes RegisterCustomType fail with ErrDuplicateType when a custom type
	// of the same name is registered. By default the last registration wins.
	RejectDuplicates bool
}

// Registry maps type names to descriptors. It is split into a builtin table,
// written only during startup and read without synchronization, and a custom
// table guarded by a mutex since documents may register struct types while
// other goroutines resolve names.
//
// A Registry is meant to be created once per compilation session and passed
// to every reader and writer.
type Registry struct {
	cfg            RegistryConfig
	builtins       []TypeDesc
	builtinsByName map[string]TypeDesc

	mu            sync.RWMutex
	customs       []TypeDesc
	customsByName map[string]TypeDesc
	// cached holds names restored by ReadCustomTypes and not redeclared since.
	cached  map[string]bool
	layouts []*StructLayout
	// generation tags layout handles. Incremented on every clear.
	generation uint32
}

// NewDefaultRegistry returns a Registry holding the standard builtin types
// with last-write-wins custom type registration.
func NewDefaultRegistry() *Registry {
	return NewRegistry(RegistryConfig{})
}

// NewRegistry returns a Registry holding the standard builtin types.
func NewRegistry(cfg RegistryConfig) *Registry {
	r := &Registry{
		cfg:            cfg,
		builtinsByName: make(map[string]TypeDesc, len(standardTypes)),
		customsByName:  make(map[string]TypeDesc),
		cached:         make(map[string]bool),
		generation:     1,
	}
	for _, t := range standardTypes {
		r.RegisterBuiltinType(t)
	}
	return r
}

// RegisterBuiltinType adds t to the builtin table. It performs no synchronization:
// call it only during startup, before the Registry is shared between goroutines.
func (r *Registry) RegisterBuiltinType(t TypeDesc) {
	r.builtins = append(r.builtins, t)
	r.builtinsByName[t.name] = t
}

// RegisterCustomType registers a custom type and returns its descriptor. When members is
// not nil a struct layout is allocated for it, an empty non-nil slice declares a struct
// with no members. Members may be struct types themselves but may not refer back to the
// type being declared.
func (r *Registry) RegisterCustomType(name string, base BaseType, semantic Semantic, size uint16, members []StructMember) (TypeDesc, error) {
	return r.registerCustomType(name, base, semantic, size, members, false)
}

func (r *Registry) registerCustomType(name string, base BaseType, semantic Semantic, size uint16, members []StructMember, fromCache bool) (TypeDesc, error) {
	if name == "" {
		return None, ErrEmptyName
	} else if _, ok := r.builtinsByName[name]; ok {
		return None, fmt.Errorf("%w: %q", ErrBuiltinType, name)
	}
	t := New(name, base, semantic, size)

	r.mu.Lock()
	defer r.mu.Unlock()
	_, exists := r.customsByName[name]
	if exists && r.cfg.RejectDuplicates && (fromCache || !r.cached[name]) {
		return None, fmt.Errorf("%w: %q", ErrDuplicateType, name)
	}
	if members != nil {
		for _, m := range members {
			if r.refersTo(m.Type, name, 0) {
				return None, fmt.Errorf("%w: %q member %q", ErrRecursiveStruct, name, m.Name)
			}
		}
		idx, err := safecast.Conv[uint32](len(r.layouts))
		if err != nil {
			return None, fmt.Errorf("too many struct layouts: %w", err)
		}
		r.layouts = append(r.layouts, &StructLayout{
			Name:    name,
			Members: append([]StructMember{}, members...),
		})
		t.layout = LayoutHandle{index: idx, generation: r.generation}
	}
	r.customs = append(r.customs, t)
	r.customsByName[name] = t
	if fromCache {
		r.cached[name] = true
	} else {
		delete(r.cached, name)
	}
	return t, nil
}

// refersTo reports whether t is or transitively contains a member of the type named name.
// Caller must hold r.mu.
func (r *Registry) refersTo(t TypeDesc, name string, depth int) bool {
	if t.name == name || depth > MaxStructDepth {
		return true
	}
	layout := r.layoutLocked(t.layout)
	if layout == nil {
		return false
	}
	for _, m := range layout.Members {
		if r.refersTo(m.Type, name, depth+1) {
			return true
		}
	}
	return false
}

// ClearCustomTypes drops every custom type and struct layout.
//
// Descriptors of custom struct types obtained before the clear become stale:
// [Registry.StructMembers] fails with ErrStaleType for them. Clearing is not
// coordinated with readers. Callers must only clear between document loads
// and generation runs, never while generation is in progress.
func (r *Registry) ClearCustomTypes() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.customs = nil
	clear(r.customsByName)
	clear(r.cached)
	r.layouts = nil
	r.generation++
	if r.generation == 0 {
		r.generation = 1 // Zero is reserved for the zero LayoutHandle.
	}
}

// Get returns the type named name. Builtin types are resolved first and without locking.
// If no type is found the None descriptor is returned.
func (r *Registry) Get(name string) TypeDesc {
	if t, ok := r.builtinsByName[name]; ok {
		return t
	}
	return r.GetCustomType(name)
}

// GetBuiltinType returns the builtin type named name or None.
func (r *Registry) GetBuiltinType(name string) TypeDesc {
	t, ok := r.builtinsByName[name]
	if !ok {
		return None
	}
	return t
}

// GetCustomType returns the custom type named name or None.
func (r *Registry) GetCustomType(name string) TypeDesc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.customsByName[name]
	if !ok {
		return None
	}
	return t
}

// BuiltinTypes returns the builtin types in registration order.
func (r *Registry) BuiltinTypes() []TypeDesc {
	return append([]TypeDesc{}, r.builtins...)
}

// CustomTypes returns the custom types in registration order. A type registered
// more than once appears once per registration.
func (r *Registry) CustomTypes() []TypeDesc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]TypeDesc{}, r.customs...)
}

// StructLayout returns the layout referenced by t. It returns nil and no error
// for types without a layout and ErrStaleType if the layout has been cleared.
// The returned layout must not be modified.
func (r *Registry) StructLayout(t TypeDesc) (*StructLayout, error) {
	if !t.layout.Valid() {
		return nil, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	layout := r.layoutLocked(t.layout)
	if layout == nil {
		return nil, fmt.Errorf("%w: %q", ErrStaleType, t.name)
	}
	return layout, nil
}

// StructMembers returns the ordered members of struct type t. See [Registry.StructLayout].
func (r *Registry) StructMembers(t TypeDesc) ([]StructMember, error) {
	layout, err := r.StructLayout(t)
	if err != nil || layout == nil {
		return nil, err
	}
	return layout.Members, nil
}

// IsStale reports whether t references a struct layout that has been cleared.
func (r *Registry) IsStale(t TypeDesc) bool {
	if !t.layout.Valid() {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.layoutLocked(t.layout) == nil
}

func (r *Registry) layoutLocked(h LayoutHandle) *StructLayout {
	if !h.Valid() || h.generation != r.generation || int(h.index) >= len(r.layouts) {
		return nil
	}
	return r.layouts[h.index]
}
