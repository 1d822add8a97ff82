// Package locator finds the target vehicle and its sub-components inside the
// host's object graph. Discovery failure is an expected, recurring state: the
// vehicle may simply not exist yet. Full-graph scans are expensive and are
// throttled to one per cooldown window.
package locator

import (
	"io"
	"log/slog"
	"math"
	"strings"

	"github.com/vtuner/extension/internal/attr"
	"github.com/vtuner/extension/internal/model"
	"github.com/vtuner/extension/pkg/hostapi"
)

// Candidate name lists for the stock-value snapshot. Hosts rename fields
// between versions; every list carries the spellings seen in the wild.
var (
	massNames       = []string{"Mass", "mass", "m_mass", "BodyMass"}
	comNames        = []string{"CenterOfMass", "centerOfMass", "m_centerOfMass", "COM"}
	maxPowerNames   = []string{"MaxPower", "maxPower", "m_maxPower", "EnginePower"}
	maxTorqueNames  = []string{"MaxTorque", "maxTorque", "m_maxTorque", "EngineTorque"}
	maxRPMNames     = []string{"MaxRPM", "maxRPM", "m_maxRPM", "RevLimit"}
	gearRatioNames  = []string{"GearRatios", "gearRatios", "m_gearRatios", "Ratios"}
	finalDriveNames = []string{"FinalDrive", "finalDrive", "m_finalDriveRatio", "FinalDriveRatio"}
)

// Config tunes the discovery filter.
type Config struct {
	// TargetName is the exact object name tried before any graph scan.
	TargetName string

	// NameHint filters the full-graph scan by case-insensitive substring.
	NameHint string

	// MassThreshold excludes light debris from the physical-body scan.
	MassThreshold float64

	// ScanCooldown is the minimum simulation-time gap between full scans,
	// in seconds.
	ScanCooldown float64
}

// DefaultConfig returns the discovery defaults used when the config file has
// no overrides.
func DefaultConfig() Config {
	return Config{
		TargetName:    "PlayerVehicle",
		NameHint:      "vehicle",
		MassThreshold: 500,
		ScanCooldown:  1.0,
	}
}

// Locator owns the binding to the target entity. Tuners borrow component
// references per call and must never cache them across ticks.
type Locator struct {
	registry hostapi.Registry
	resolver *attr.Resolver
	cfg      Config
	log      *slog.Logger

	entity     hostapi.Entity
	drivetrain any
	axles      any
	dynamics   any
	controller any

	original           model.OriginalValues
	lastScan           float64
	drivetrainAnalyzed bool

	// generation counts successful binds. A dead vehicle can be replaced by a
	// same-name instance within a single TryLocate call, so consumers compare
	// generations rather than bound/unbound transitions to detect a new
	// instance.
	generation uint64
}

// New creates an unbound locator.
func New(registry hostapi.Registry, resolver *attr.Resolver, cfg Config, log *slog.Logger) *Locator {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.ScanCooldown <= 0 {
		cfg.ScanCooldown = DefaultConfig().ScanCooldown
	}
	return &Locator{
		registry: registry,
		resolver: resolver,
		cfg:      cfg,
		log:      log,
		lastScan: math.Inf(-1),
	}
}

// IsBound reports whether a live entity is currently bound.
func (l *Locator) IsBound() bool {
	return l.entity != nil && l.entity.Alive()
}

// TryLocate binds the target entity if it is not already bound. Returns
// whether a live binding exists afterwards. The full-graph scan runs at most
// once per cooldown window regardless of call frequency.
func (l *Locator) TryLocate() bool {
	if l.IsBound() {
		return true
	}
	if l.entity != nil {
		// Bound object went stale, drop everything before re-discovering.
		l.log.Info("bound vehicle no longer alive, clearing binding")
		l.clear()
	}

	// Cheap path first: exact-name lookup.
	if e, ok := l.registry.FindByName(l.cfg.TargetName); ok && e.Alive() {
		l.bind(e)
		return true
	}

	now := l.registry.Now()
	if now-l.lastScan < l.cfg.ScanCooldown {
		return false
	}
	l.lastScan = now

	hint := strings.ToLower(l.cfg.NameHint)
	for _, e := range l.registry.AllEntities() {
		if !e.Alive() {
			continue
		}
		if hint != "" && !strings.Contains(strings.ToLower(e.Name()), hint) {
			continue
		}
		if l.resolver.GetFloat(e.Instance(), massNames, 0) < l.cfg.MassThreshold {
			continue
		}
		l.bind(e)
		return true
	}
	return false
}

// Refresh drops every binding and the resolver cache, then re-attempts
// discovery. Called when the host reloads the vehicle: a reload can change
// type identity and layout, so cached handles are no longer trustworthy.
func (l *Locator) Refresh() bool {
	l.clear()
	l.resolver.Clear()
	l.lastScan = math.Inf(-1)
	return l.TryLocate()
}

func (l *Locator) clear() {
	l.entity = nil
	l.drivetrain = nil
	l.axles = nil
	l.dynamics = nil
	l.controller = nil
	l.original = model.OriginalValues{}
	l.drivetrainAnalyzed = false
}

// bind stores the entity, discovers sub-components in a single pass over the
// attached components, and captures the stock-value snapshot.
func (l *Locator) bind(e hostapi.Entity) {
	l.entity = e
	l.generation++
	for _, c := range e.Components() {
		name := strings.ToLower(c.TypeName())
		switch {
		case l.drivetrain == nil && strings.Contains(name, "drivetrain"):
			l.drivetrain = c.Instance()
		case l.axles == nil && strings.Contains(name, "axle"):
			l.axles = c.Instance()
		case l.dynamics == nil && strings.Contains(name, "dynamics"):
			l.dynamics = c.Instance()
		case l.controller == nil && strings.Contains(name, "controller"):
			l.controller = c.Instance()
		}
	}
	l.captureOriginal()
	l.log.Info("vehicle bound",
		"name", e.Name(),
		"drivetrain", l.drivetrain != nil,
		"axles", l.axles != nil,
		"dynamics", l.dynamics != nil,
		"controller", l.controller != nil)
}

// captureOriginal snapshots stock values once per bind. The drivetrain part
// may be deferred to PeriodicAnalysis when the component exposes no readable
// fields yet at bind time.
func (l *Locator) captureOriginal() {
	if l.original.Captured {
		return
	}
	body := l.entity.Instance()
	l.original.Mass = l.resolver.GetFloat(body, massNames, 0)
	if com := l.resolver.GetFloats(body, comNames); len(com) == 3 {
		copy(l.original.CenterOfMass[:], com)
	}
	l.original.Captured = true

	l.analyzeDrivetrain()
}

// analyzeDrivetrain reads the drivetrain stock values. Marked done only once
// it has produced usable numbers, so a deferred component gets retried by
// PeriodicAnalysis.
func (l *Locator) analyzeDrivetrain() {
	if l.drivetrainAnalyzed || l.drivetrain == nil {
		return
	}
	maxTorque := l.resolver.GetFloat(l.drivetrain, maxTorqueNames, 0)
	if maxTorque <= 0 {
		return
	}
	l.original.MaxTorque = maxTorque
	l.original.MaxPower = l.resolver.GetFloat(l.drivetrain, maxPowerNames, 0)
	l.original.MaxRPM = l.resolver.GetFloat(l.drivetrain, maxRPMNames, 0)
	l.original.GearRatios = l.resolver.GetFloats(l.drivetrain, gearRatioNames)
	l.original.FinalDrive = l.resolver.GetFloat(l.drivetrain, finalDriveNames, 0)
	l.drivetrainAnalyzed = true
	l.log.Debug("drivetrain analyzed",
		"maxPower", l.original.MaxPower,
		"maxTorque", l.original.MaxTorque,
		"gears", len(l.original.GearRatios))
}

// PeriodicAnalysis completes any sub-component analysis skipped at bind time.
// Idempotent; each analysis runs to completion exactly once per bind.
func (l *Locator) PeriodicAnalysis() {
	if !l.IsBound() {
		return
	}
	l.analyzeDrivetrain()
}

// Generation returns the bind counter. It increments on every successful
// bind, including a rebind to a different instance carrying the same name.
func (l *Locator) Generation() uint64 {
	return l.generation
}

// Original returns the stock snapshot for the current bind. Zero-valued with
// Captured false when unbound.
func (l *Locator) Original() model.OriginalValues {
	return l.original.Clone()
}

// Entity returns the bound entity, or nil.
func (l *Locator) Entity() hostapi.Entity {
	if !l.IsBound() {
		return nil
	}
	return l.entity
}

// Body returns the bound entity's physical-body instance, or nil.
func (l *Locator) Body() any {
	if !l.IsBound() {
		return nil
	}
	return l.entity.Instance()
}

// Drivetrain returns the drivetrain sub-component instance, or nil.
func (l *Locator) Drivetrain() any {
	if !l.IsBound() {
		return nil
	}
	return l.drivetrain
}

// Axles returns the axle-set sub-component instance, or nil.
func (l *Locator) Axles() any {
	if !l.IsBound() {
		return nil
	}
	return l.axles
}

// Dynamics returns the vehicle-dynamics sub-component instance, or nil.
func (l *Locator) Dynamics() any {
	if !l.IsBound() {
		return nil
	}
	return l.dynamics
}

// Controller returns the vehicle-controller sub-component instance, or nil.
func (l *Locator) Controller() any {
	if !l.IsBound() {
		return nil
	}
	return l.controller
}
