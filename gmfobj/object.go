// Package gmfobj implements the base Object that elements (through
// element.Base) and pipelines hold. It carries a tag
// (a unique name within whatever registry holds it), an opaque config
// copied in once at construction, and creator/destructor callbacks.
//
// The source this is distilled from links objects together with an
// intrusive next pointer so heterogeneous collections can be walked
// without per-type containers. Go has no use for that trick — pools and
// pipelines hold ordinary slices/maps of Object — so the list link is
// dropped; the tag-addressable identity it existed to support is kept.
package gmfobj

import "sync"

// Cloner lets a config type control its own copy, for configs that hold
// slices/maps/pointers a shallow struct copy would alias.
type Cloner interface {
	Clone() any
}

// Destructor releases any resources a config or object holds.
type Destructor func()

// Object is the base every concrete GMF type embeds.
type Object struct {
	mu sync.RWMutex

	tag     string
	config  any
	sealed  bool // true once Process/Open has observed the config
	destroy Destructor
}

// New constructs an Object with a deep-enough copy of config: Cloner
// configs are cloned explicitly, everything else is copied by value
// (Go's assignment already copies structs/scalars; slices/maps/pointers
// embedded in a config are the caller's problem exactly as they would be
// in any other Go API — Clone exists for configs that need to break that
// aliasing).
func New(tag string, config any, destroy Destructor) *Object {
	if c, ok := config.(Cloner); ok {
		config = c.Clone()
	}
	return &Object{tag: tag, config: config, destroy: destroy}
}

// Tag returns the object's name, unique within its owning registry.
func (o *Object) Tag() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.tag
}

// Config returns the object's opaque, single-owned config.
func (o *Object) Config() any {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.config
}

// SetConfig replaces the config before the object has been sealed
// (opened/processed). Once sealed, SetConfig returns false: the source
// this is distilled from sometimes overwrites a config already in flight,
// which is a double-free hazard in C; here config is single-owned and a
// second write after sealing is simply rejected rather than allowed to
// race a reader.
func (o *Object) SetConfig(config any) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.sealed {
		return false
	}
	if c, ok := config.(Cloner); ok {
		config = c.Clone()
	}
	o.config = config
	return true
}

// Seal marks the config as immutable for the remaining lifetime of the
// object. Called by element.Base when the element transitions out of its
// initial state.
func (o *Object) Seal() {
	o.mu.Lock()
	o.sealed = true
	o.mu.Unlock()
}

// Destroy runs the destructor exactly once, best-effort; it never masks
// an earlier error, matching the close-is-best-effort policy elsewhere.
func (o *Object) Destroy() {
	o.mu.Lock()
	d := o.destroy
	o.destroy = nil
	o.mu.Unlock()
	if d != nil {
		d()
	}
}
