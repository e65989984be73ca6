package registry

import (
	"sort"

	"github.com/specialistvlad/turntablepool/internal/pool"
)

// Registry maps pool names to their records.
type Registry struct {
	pools map[string]*pool.Record
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{pools: make(map[string]*pool.Record)}
}

// Insert stores rec under its name. It returns false without storing anything
// when rec is unnamed or when the name is taken; in the latter case existing
// is the record already registered.
func (r *Registry) Insert(rec *pool.Record) (existing *pool.Record, ok bool) {
	if !rec.Valid() {
		return nil, false
	}
	if prev, taken := r.pools[rec.Name]; taken {
		return prev, false
	}
	r.pools[rec.Name] = rec
	return nil, true
}

// Lookup returns the record registered under name.
func (r *Registry) Lookup(name string) (*pool.Record, bool) {
	rec, ok := r.pools[name]
	return rec, ok
}

// Turntable returns the turntable of the named pool, creating it on first
// use.
func (r *Registry) Turntable(name string) (*pool.Handle, bool, error) {
	rec, ok := r.pools[name]
	if !ok {
		return nil, false, nil
	}
	h, err := rec.Turntable()
	return h, true, err
}

// Len returns the number of registered pools.
func (r *Registry) Len() int {
	return len(r.pools)
}

// Names returns the registered pool names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.pools))
	for name := range r.pools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Pools returns a copy of the name to record mapping.
func (r *Registry) Pools() map[string]*pool.Record {
	out := make(map[string]*pool.Record, len(r.pools))
	for k, v := range r.pools {
		out[k] = v
	}
	return out
}
