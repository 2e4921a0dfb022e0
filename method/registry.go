package method

import (
	"sync"

	"github.com/jangala-dev/gmf/gmferr"
)

// Fn is the function a registered method dispatches to: it receives the
// descriptor it was registered with and the raw buffer invoke_method was
// called with. spec.md §4.5: "hands (descriptor, buffer, len) to fn".
type Fn func(d *Descriptor, buf []byte) error

type entry struct {
	descriptor *Descriptor
	fn         Fn
}

// Registry is the per-element method table: register_method/invoke_method
// from spec.md §4.5, guarded by a mutex like the teacher's builder
// registries in services/hal.
type Registry struct {
	mu      sync.RWMutex
	methods map[string]entry
}

// NewRegistry returns an empty method registry.
func NewRegistry() *Registry {
	return &Registry{methods: make(map[string]entry)}
}

// Register adds name with its descriptor and dispatch function. The
// descriptor is reference-copied (kept by pointer): per spec.md §4.5 call
// sites may free/reuse their original after this returns, since Registry
// never mutates it. Re-registering an existing name is rejected rather
// than silently shadowed.
func (r *Registry) Register(name string, d *Descriptor, fn Fn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.methods[name]; exists {
		return gmferr.New("method.Register", gmferr.InvalidArgument, "method "+name+" already registered", nil)
	}
	r.methods[name] = entry{descriptor: d, fn: fn}
	return nil
}

// Invoke looks up name and hands it (descriptor, buf) per spec.md §4.5.
func (r *Registry) Invoke(name string, buf []byte) error {
	r.mu.RLock()
	e, ok := r.methods[name]
	r.mu.RUnlock()
	if !ok {
		return gmferr.New("method.Invoke", gmferr.NotFound, "no such method "+name, nil)
	}
	return e.fn(e.descriptor, buf)
}

// Descriptor returns the descriptor a method was registered with, or
// (nil, false) if name is unknown.
func (r *Registry) Descriptor(name string) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.methods[name]
	if !ok {
		return nil, false
	}
	return e.descriptor, true
}

// Set is sugar for the common case of a setter method whose fn just
// stores the unmarshalled Values somewhere (see RegisterStore): it
// marshals v against name's descriptor and invokes it.
func (r *Registry) Set(name string, v Values) error {
	d, ok := r.Descriptor(name)
	if !ok {
		return gmferr.New("method.Set", gmferr.NotFound, "no such method "+name, nil)
	}
	buf, err := Marshal(d, v)
	if err != nil {
		return err
	}
	return r.Invoke(name, buf)
}

// Get invokes name expecting its fn to populate buf with the current
// state, then unmarshals buf against the descriptor. Pairs with
// RegisterStore-style getters for the set/get round trip spec.md §4.5
// requires ("a round-trip set(name, X) followed by get(name) yields X").
func (r *Registry) Get(name string) (Values, error) {
	d, ok := r.Descriptor(name)
	if !ok {
		return nil, gmferr.New("method.Get", gmferr.NotFound, "no such method "+name, nil)
	}
	buf := make([]byte, d.Size())
	if err := r.Invoke(name, buf); err != nil {
		return nil, err
	}
	return Unmarshal(d, buf)
}

// RegisterStore registers a matched pair of setter/getter methods (named
// "set"+name and "get"+name by convention at the call site, though names
// are entirely up to the caller) backed by a single in-memory buffer: the
// setter copies the invoke buffer into store, the getter copies store
// back out. This is the common case — an element parameter backed by
// plain memory rather than a side effect — and is what makes the set/get
// round-trip invariant mechanical to satisfy.
func RegisterStore(r *Registry, setName, getName string, d *Descriptor) error {
	store := make([]byte, d.Size())
	var mu sync.Mutex
	if err := r.Register(setName, d, func(_ *Descriptor, buf []byte) error {
		mu.Lock()
		defer mu.Unlock()
		if len(buf) < len(store) {
			return gmferr.New("method.Set", gmferr.InvalidArgument, "buffer shorter than descriptor size", nil)
		}
		copy(store, buf[:len(store)])
		return nil
	}); err != nil {
		return err
	}
	return r.Register(getName, d, func(_ *Descriptor, buf []byte) error {
		mu.Lock()
		defer mu.Unlock()
		if len(buf) < len(store) {
			return gmferr.New("method.Get", gmferr.InvalidArgument, "buffer shorter than descriptor size", nil)
		}
		copy(buf[:len(store)], store)
		return nil
	})
}
