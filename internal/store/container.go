// Package store implements the Value & State Store from spec §3: top
// level state, per-character fields, and a node-keyed map of per-node
// persistent state, all with delta (against-initial) serialization
// support (spec §4.7.1).
//
// It is grounded on internal/interp's split between declared field
// defaults and live field values (DWScript's object instances likewise
// keep their class's declared field initializers separate from the
// instance's current values), generalized here into one small Container
// type reused for top-level state, each character's fields, and each
// node-state entry.
package store

import "github.com/jeremyfa/loreline-go/internal/values"

// Container holds one set of name -> value fields together with the
// declared initial values it was constructed from. Current may diverge
// from Declared as the session runs; Delta/ApplyDelta round-trip only the
// divergence (spec §4.7.1).
type Container struct {
	order    []string
	declared map[string]values.Value
	current  map[string]values.Value
}

// NewContainer builds a Container whose Current values start out equal to
// Declared. order fixes field iteration order (declaration order).
func NewContainer(order []string, declared map[string]values.Value) *Container {
	c := &Container{
		order:    append([]string(nil), order...),
		declared: make(map[string]values.Value, len(declared)),
		current:  make(map[string]values.Value, len(declared)),
	}
	for _, name := range order {
		v := declared[name]
		c.declared[name] = v
		c.current[name] = v
	}
	return c
}

// Names returns field names in declaration order.
func (c *Container) Names() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Has reports whether name is a declared field of this container.
func (c *Container) Has(name string) bool {
	_, ok := c.declared[name]
	return ok
}

// Get returns a field's current value.
func (c *Container) Get(name string) (values.Value, bool) {
	v, ok := c.current[name]
	return v, ok
}

// Set writes a field's current value. Writing an undeclared name extends
// the container (used by lax-mode top-level bindings created on first
// write, spec §4.6).
func (c *Container) Set(name string, v values.Value) {
	if _, exists := c.current[name]; !exists {
		if _, declaredExists := c.declared[name]; !declaredExists {
			c.order = append(c.order, name)
			c.declared[name] = values.Null{}
		}
	}
	c.current[name] = v
}

// Declared returns a field's declared initial value.
func (c *Container) Declared(name string) (values.Value, bool) {
	v, ok := c.declared[name]
	return v, ok
}

// Delta returns the subset of fields whose Current value differs from
// Declared (spec §4.7.1: "only fields whose current value differs from
// the initial declared value are emitted").
func (c *Container) Delta() map[string]values.Value {
	out := map[string]values.Value{}
	for _, name := range c.order {
		if !values.Equal(c.current[name], c.declared[name]) {
			out[name] = c.current[name]
		}
	}
	return out
}

// ApplyDelta overwrites Current for every name present both in delta and
// in this container's declared fields. Names in delta that are not
// declared here are ignored (spec §4.7.3: "state fields in the save
// absent from the script are ignored (silent)").
func (c *Container) ApplyDelta(delta map[string]values.Value) {
	for name, v := range delta {
		if _, ok := c.declared[name]; ok {
			c.current[name] = v
		}
	}
}

// Reset restores Current to Declared for every field, discarding any
// extension fields created by lax-mode writes.
func (c *Container) Reset() {
	c.order = nil
	for name, v := range c.declared {
		c.order = append(c.order, name)
		c.current[name] = v
	}
}

// Clone returns a deep-enough copy for scope-stack snapshotting: new
// backing maps, but Value entries are shared (Values are treated as
// immutable once constructed).
func (c *Container) Clone() *Container {
	clone := &Container{
		order:    append([]string(nil), c.order...),
		declared: make(map[string]values.Value, len(c.declared)),
		current:  make(map[string]values.Value, len(c.current)),
	}
	for k, v := range c.declared {
		clone.declared[k] = v
	}
	for k, v := range c.current {
		clone.current[k] = v
	}
	return clone
}
