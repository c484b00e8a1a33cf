package schema

import (
	"reflect"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Registry caches the mapping of each entity type, so that a type is
// introspected once no matter how many generators share it. A Registry is
// safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	types map[registryKey]*Type
	group singleflight.Group
}

// registryKey tells apart mappings of the same Go type under different
// table names.
type registryKey struct {
	rtype reflect.Type
	table string
}

// String returns the key used for the singleflight group.
func (k registryKey) String() string {
	return k.rtype.PkgPath() + "." + k.rtype.String() + ":" + k.table
}

// DefaultRegistry is the registry used by generators that are not given one.
var DefaultRegistry = NewRegistry()

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[registryKey]*Type)}
}

// Load returns the cached mapping of rt, introspecting it on first use.
// Mappings built with field overrides are not cached, since two callers may
// override the same type differently.
func (r *Registry) Load(rt reflect.Type, opts ...Option) (*Type, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if len(o.fields) > 0 {
		return Introspect(rt, opts...)
	}
	for rt != nil && rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	if rt == nil {
		return Introspect(rt, opts...)
	}
	key := registryKey{rtype: rt, table: o.table}
	r.mu.RLock()
	t, ok := r.types[key]
	r.mu.RUnlock()
	if ok {
		return t, nil
	}
	v, err, _ := r.group.Do(key.String(), func() (any, error) {
		t, err := Introspect(rt, opts...)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.types[key] = t
		r.mu.Unlock()
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Type), nil
}

// Len returns the number of cached mappings.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.types)
}

// Clear drops all cached mappings.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.types)
}
