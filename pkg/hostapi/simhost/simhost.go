// Package simhost provides an in-process implementation of the hostapi
// boundary. It backs the standalone demo harness and the test suites: the
// structs here stand in for whatever shapes the real host exposes, so tests
// can exercise name-based field access against realistic layouts.
package simhost

import (
	"sync"

	"github.com/vtuner/extension/pkg/hostapi"
)

// Body carries the physical-body fields the locator filters on.
type Body struct {
	Mass         float64
	CenterOfMass [3]float64
	IceCoverage  float64
}

// Drivetrain mirrors a host drivetrain component.
type Drivetrain struct {
	MaxPower      float64
	MaxTorque     float64
	MaxRPM        float64
	RevLimiterRPM float64
	GearRatios    []float64
	FinalDrive    float64
	RPM           float64
	TorqueOutput  float64
}

// Wheel mirrors a single wheel sub-object on the axle set.
type Wheel struct {
	BrakeTorque            float64
	LongitudinalGripFactor float64
	LateralGripFactor      float64
	RPM                    float64
}

// AxleSet mirrors a host axle-set component. Wheels are ordered front to rear.
type AxleSet struct {
	Wheels []Wheel
}

// Dynamics mirrors a host vehicle-dynamics component.
type Dynamics struct {
	Speed     float64
	PositionX float64
	PositionY float64
	PositionZ float64
}

// Controller mirrors a host vehicle-controller component.
type Controller struct {
	Throttle float64
	Brake    float64
}

// Component is a named component attached to an Entity.
type Component struct {
	Type  string
	Value any
}

// TypeName returns the declared type name.
func (c Component) TypeName() string { return c.Type }

// Instance returns the backing struct pointer.
func (c Component) Instance() any { return c.Value }

// Entity is an entity in the fake object graph.
type Entity struct {
	ObjectName string
	Body       *Body
	Attached   []Component
	Dead       bool
}

// Name returns the entity name.
func (e *Entity) Name() string { return e.ObjectName }

// Instance returns the physical body backing struct.
func (e *Entity) Instance() any { return e.Body }

// Alive reports whether the entity is still valid.
func (e *Entity) Alive() bool { return !e.Dead }

// Components enumerates attached components.
func (e *Entity) Components() []hostapi.Component {
	out := make([]hostapi.Component, len(e.Attached))
	for i := range e.Attached {
		out[i] = e.Attached[i]
	}
	return out
}

// Registry is a mutable fake object graph with a settable simulation clock.
type Registry struct {
	mu       sync.Mutex
	entities []*Entity
	clock    float64
}

var _ hostapi.Registry = (*Registry)(nil)

// NewRegistry creates an empty registry at clock zero.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add inserts an entity into the graph.
func (r *Registry) Add(e *Entity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entities = append(r.entities, e)
}

// Remove deletes the named entity, simulating a host despawn.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.entities {
		if e.ObjectName == name {
			r.entities = append(r.entities[:i], r.entities[i+1:]...)
			return
		}
	}
}

// FindByName performs an exact-name lookup.
func (r *Registry) FindByName(name string) (hostapi.Entity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entities {
		if e.ObjectName == name {
			return e, true
		}
	}
	return nil, false
}

// AllEntities returns every entity in the graph.
func (r *Registry) AllEntities() []hostapi.Entity {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]hostapi.Entity, len(r.entities))
	for i, e := range r.entities {
		out[i] = e
	}
	return out
}

// Advance moves the simulation clock forward by dt seconds.
func (r *Registry) Advance(dt float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clock += dt
}

// Now returns the simulation clock in seconds.
func (r *Registry) Now() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clock
}

// NewStockCar builds an entity with the default demo tune: a light hatchback
// with 72 kW stock power and 130 Nm stock torque.
func NewStockCar(name string) *Entity {
	return &Entity{
		ObjectName: name,
		Body: &Body{
			Mass:         1240,
			CenterOfMass: [3]float64{0, -0.3, 0.05},
		},
		Attached: []Component{
			{Type: "VehicleDrivetrain", Value: &Drivetrain{
				MaxPower:      72,
				MaxTorque:     130,
				MaxRPM:        6800,
				RevLimiterRPM: 6800,
				GearRatios:    []float64{3.45, 1.94, 1.28, 0.97, 0.76},
				FinalDrive:    4.06,
			}},
			{Type: "VehicleAxleSet", Value: &AxleSet{
				Wheels: []Wheel{
					{BrakeTorque: 1600, LongitudinalGripFactor: 1, LateralGripFactor: 1},
					{BrakeTorque: 1600, LongitudinalGripFactor: 1, LateralGripFactor: 1},
					{BrakeTorque: 1600, LongitudinalGripFactor: 1, LateralGripFactor: 1},
					{BrakeTorque: 1600, LongitudinalGripFactor: 1, LateralGripFactor: 1},
				},
			}},
			{Type: "VehicleDynamics", Value: &Dynamics{}},
			{Type: "VehicleController", Value: &Controller{}},
		},
	}
}
