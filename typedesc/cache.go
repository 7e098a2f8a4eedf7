package typedesc

import (
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

const cacheVersion = 1

var errCacheVersion = errors.New("unsupported type cache version")

type cachedMember struct {
	Name    string `msgpack:"name"`
	Type    string `msgpack:"type"`
	Default string `msgpack:"default,omitempty"`
}

type cachedType struct {
	Name     string         `msgpack:"name"`
	Base     BaseType       `msgpack:"base"`
	Semantic Semantic       `msgpack:"semantic"`
	Size     uint16         `msgpack:"size"`
	Struct   bool           `msgpack:"struct"`
	Members  []cachedMember `msgpack:"members,omitempty"`
}

type typeCache struct {
	Version int          `msgpack:"version"`
	Types   []cachedType `msgpack:"types"`
}

// WriteCustomTypes serializes the registry's custom types to w so they can be
// restored with [Registry.ReadCustomTypes]. Each name is written once with its
// current definition, after the custom types its members refer to and otherwise
// in first registration order. It returns the number of types written.
func (r *Registry) WriteCustomTypes(w io.Writer) (int, error) {
	r.mu.RLock()
	cache := typeCache{Version: cacheVersion, Types: make([]cachedType, 0, len(r.customsByName))}
	written := make(map[string]bool, len(r.customsByName))
	for _, t := range r.customs {
		cache.Types = r.appendCachedLocked(cache.Types, written, t.name, 0)
	}
	r.mu.RUnlock()
	err := msgpack.NewEncoder(w).Encode(&cache)
	if err != nil {
		return 0, err
	}
	return len(cache.Types), nil
}

// appendCachedLocked appends the current definition of the custom type named
// name to dst, preceded by the not yet written custom types of its members.
// Caller must hold r.mu.
func (r *Registry) appendCachedLocked(dst []cachedType, written map[string]bool, name string, depth int) []cachedType {
	t, ok := r.customsByName[name]
	if !ok || written[name] || depth > MaxStructDepth {
		return dst
	}
	written[name] = true
	ct := cachedType{Name: t.name, Base: t.base, Semantic: t.semantic, Size: t.size}
	if layout := r.layoutLocked(t.layout); layout != nil {
		ct.Struct = true
		ct.Members = make([]cachedMember, len(layout.Members))
		for i, m := range layout.Members {
			dst = r.appendCachedLocked(dst, written, m.Type.name, depth+1)
			ct.Members[i] = cachedMember{Name: m.Name, Type: m.Type.name, Default: m.DefaultValue}
		}
	}
	return append(dst, ct)
}

// ReadCustomTypes registers the custom types serialized by [Registry.WriteCustomTypes].
// Member types are resolved by name so members must refer to builtin types or to
// types registered earlier. It returns the number of types registered.
//
// Cached types yield to later declarations: a document may redeclare a cached
// type once even when the registry rejects duplicates.
func (r *Registry) ReadCustomTypes(rd io.Reader) (int, error) {
	var cache typeCache
	err := msgpack.NewDecoder(rd).Decode(&cache)
	if err != nil {
		return 0, fmt.Errorf("decoding type cache: %w", err)
	} else if cache.Version != cacheVersion {
		return 0, fmt.Errorf("%w: %d", errCacheVersion, cache.Version)
	}
	for n, ct := range cache.Types {
		var members []StructMember
		if ct.Struct {
			members = make([]StructMember, len(ct.Members))
			for i, m := range ct.Members {
				mt := r.Get(m.Type)
				if mt.IsNone() && m.Type != None.name {
					return n, fmt.Errorf("type cache: %s member %q has unknown type %q", ct.Name, m.Name, m.Type)
				}
				members[i] = StructMember{Name: m.Name, Type: mt, DefaultValue: m.Default}
			}
		}
		_, err = r.registerCustomType(ct.Name, ct.Base, ct.Semantic, ct.Size, members, true)
		if err != nil {
			return n, fmt.Errorf("type cache: %w", err)
		}
	}
	return len(cache.Types), nil
}
