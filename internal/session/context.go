package session

import (
	"sync"
	"time"
)

// Info describes the active tuning session.
type Info struct {
	SessionName string
	WorldName   string
	StartedAt   time.Time
}

// Vehicle describes the currently bound vehicle.
type Vehicle struct {
	Name    string
	BoundAt float64 // sim seconds
}

// Context holds the current session and bound vehicle state
type Context struct {
	mu      sync.RWMutex
	Session *Info
	Vehicle *Vehicle
}

// NewContext creates a new Context with default values
func NewContext() *Context {
	return &Context{
		Session: &Info{SessionName: "No session loaded"},
		Vehicle: &Vehicle{Name: "No vehicle bound"},
	}
}

// GetSession returns the current session
func (sc *Context) GetSession() *Info {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.Session
}

// GetVehicle returns the currently bound vehicle
func (sc *Context) GetVehicle() *Vehicle {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.Vehicle
}

// SetSession sets the current session
func (sc *Context) SetSession(info *Info) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.Session = info
}

// SetVehicle records the vehicle bound by discovery
func (sc *Context) SetVehicle(name string, boundAt float64) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.Vehicle = &Vehicle{Name: name, BoundAt: boundAt}
}

// ClearVehicle resets the bound vehicle, e.g. after the entity went stale
func (sc *Context) ClearVehicle() {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.Vehicle = &Vehicle{Name: "No vehicle bound"}
}

// Duration returns the wall-clock age of the session.
func (sc *Context) Duration() time.Duration {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	if sc.Session == nil || sc.Session.StartedAt.IsZero() {
		return 0
	}
	return time.Since(sc.Session.StartedAt)
}
