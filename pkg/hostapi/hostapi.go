// Package hostapi defines the boundary to the host simulation's object graph.
// The extension never links against the host's types directly: everything it
// needs is expressed as an interface here, and concrete field access on the
// instances behind these interfaces happens via reflection in internal/attr.
package hostapi

// Object is any live instance inside the host's object graph.
type Object interface {
	// Name returns the host-assigned object name. Names are not guaranteed
	// unique or stable across host versions.
	Name() string

	// Instance returns the backing struct (or pointer to struct) that field
	// access operates on.
	Instance() any

	// Alive reports whether the host still considers this object valid.
	// A reload can invalidate an object at any time.
	Alive() bool
}

// Component is a named sub-object attached to an entity.
type Component interface {
	// TypeName returns the host's declared type name for this component,
	// e.g. "VehicleDrivetrain". Matching is by substring since hosts rename
	// types between versions.
	TypeName() string

	Instance() any
}

// Entity is an object carrying attached components.
type Entity interface {
	Object

	// Components enumerates the attached components. The returned slice is a
	// point-in-time view; callers must not retain it across ticks.
	Components() []Component
}

// Registry is the host's object-graph query surface.
type Registry interface {
	// FindByName performs a cheap exact-name lookup.
	FindByName(name string) (Entity, bool)

	// AllEntities returns every entity in the graph. This is the expensive
	// path; callers throttle it.
	AllEntities() []Entity

	// Now returns the simulation clock in seconds.
	Now() float64
}
