package model

import (
	"sync"

	"github.com/storm-repo/storm-go/schema"
)

// Registry memoizes one Model per definition identity for the process
// lifetime. Reads after first construction are lock-free; construction is
// serialized so two concurrent builds of a previously-unseen type cannot
// produce divergent instances.
type Registry struct {
	models sync.Map // *schema.Definition -> *Model
	mu     sync.Mutex
}

// lookup returns the memoized model, or nil.
func (r *Registry) lookup(def *schema.Definition) *Model {
	if m, ok := r.models.Load(def); ok {
		return m.(*Model)
	}
	return nil
}

// Get returns the memoized model for def, building it on first use.
// Cyclic foreign-key graphs are permitted; construction is guarded by an
// in-progress set keyed by definition identity.
func (r *Registry) Get(def *schema.Definition) (*Model, error) {
	if m := r.lookup(def); m != nil {
		return m, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if m := r.lookup(def); m != nil {
		return m, nil
	}
	b := &builder{reg: r, inProgress: make(map[*schema.Definition]*Model)}
	m, err := b.build(def)
	if err != nil {
		return nil, err
	}
	// Publish the whole strongly-connected graph at once so foreign-key
	// links never escape half-built.
	for d, built := range b.inProgress {
		r.models.Store(d, built)
	}
	return m, nil
}

var global Registry

// Of returns the process-wide memoized model for def.
func Of(def *schema.Definition) (*Model, error) {
	return global.Get(def)
}

// MustOf is like Of but panics on a malformed definition. Intended for
// package-level metamodel variables.
func MustOf(def *schema.Definition) *Model {
	m, err := Of(def)
	if err != nil {
		panic(err)
	}
	return m
}
