package runner

import (
	"reflect"
	"sync"
)

// Registry holds exactly one instance per runner type.
type Registry struct {
	mu        sync.Mutex
	instances map[reflect.Type]any
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{instances: make(map[reflect.Type]any)}
}

// Provide returns the registered instance of T, building it with build on
// first use.
func Provide[T any](r *Registry, build func() T) T {
	key := reflect.TypeFor[T]()
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.instances[key]; ok {
		return existing.(T)
	}
	instance := build()
	r.instances[key] = instance
	return instance
}

// Lookup returns the registered instance of T, if any.
func Lookup[T any](r *Registry) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.instances[reflect.TypeFor[T]()]
	if !ok {
		var zero T
		return zero, false
	}
	return existing.(T), true
}

// Len reports the number of registered runner types.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.instances)
}
