package tuner

import (
	"io"
	"log/slog"
	"math"

	"github.com/vtuner/extension/internal/attr"
	"github.com/vtuner/extension/internal/locator"
	"github.com/vtuner/extension/internal/model"
)

// NitrousState is the nitrous effect state. Transitions are time-driven only.
type NitrousState int

const (
	NitrousIdle NitrousState = iota
	NitrousActive
	NitrousCooldown
)

// String returns the state name for logs and the status report.
func (s NitrousState) String() string {
	switch s {
	case NitrousActive:
		return "active"
	case NitrousCooldown:
		return "cooldown"
	default:
		return "idle"
	}
}

// Engine tuning constants.
const (
	TurboCoefficient   = 0.05
	NitrousMultiplier  = 1.5
	NitrousDuration    = 5.0
	NitrousCooldownFor = 10.0

	DefaultNitrousCharges = 3
)

// EngineTuner owns power, torque, and boost parameters plus the nitrous
// state machine.
type EngineTuner struct {
	loc *locator.Locator
	res *attr.Resolver
	log *slog.Logger

	power  Param
	torque Param
	boost  Param

	charges      int
	nitrousState NitrousState
	nitrousEnd   float64

	// Change gating for host writes.
	lastPower  float64
	lastTorque float64
	hasLast    bool
}

// NewEngineTuner creates an engine tuner at factory defaults.
func NewEngineTuner(loc *locator.Locator, res *attr.Resolver, log *slog.Logger) *EngineTuner {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &EngineTuner{
		loc:     loc,
		res:     res,
		log:     log,
		power:   NewParam(1.0, 0.5, 2.0),
		torque:  NewParam(1.0, 0.5, 2.0),
		boost:   NewParam(0, 0, 15),
		charges: DefaultNitrousCharges,
	}
}

// SetPowerMultiplier sets the power multiplier, clamped to [0.5, 2.0].
func (t *EngineTuner) SetPowerMultiplier(v float64) { t.power.Set(v) }

// PowerMultiplier returns the current power multiplier.
func (t *EngineTuner) PowerMultiplier() float64 { return t.power.Value() }

// SetTorqueMultiplier sets the torque multiplier, clamped to [0.5, 2.0].
func (t *EngineTuner) SetTorqueMultiplier(v float64) { t.torque.Set(v) }

// TorqueMultiplier returns the current torque multiplier.
func (t *EngineTuner) TorqueMultiplier() float64 { return t.torque.Value() }

// SetBoostPressure sets turbo boost in psi, clamped to [0, 15].
func (t *EngineTuner) SetBoostPressure(v float64) { t.boost.Set(v) }

// BoostPressure returns the current boost pressure in psi.
func (t *EngineTuner) BoostPressure() float64 { return t.boost.Value() }

// NitrousCharges returns the remaining charge count.
func (t *EngineTuner) NitrousCharges() int { return t.charges }

// SetNitrousCharges sets the remaining charge count, floored at zero.
func (t *EngineTuner) SetNitrousCharges(n int) {
	if n < 0 {
		n = 0
	}
	t.charges = n
}

// Nitrous returns the current nitrous state.
func (t *EngineTuner) Nitrous() NitrousState { return t.nitrousState }

// NitrousActiveNow reports whether the nitrous multiplier currently applies.
func (t *EngineTuner) NitrousActiveNow() bool { return t.nitrousState == NitrousActive }

// EffectivePower computes the power value the tuner would write right now.
// Pure function of the current parameters and nitrous state.
func (t *EngineTuner) EffectivePower(basePower float64) float64 {
	p := basePower * t.power.Value() * (1 + t.boost.Value()*TurboCoefficient)
	if t.nitrousState == NitrousActive {
		p *= NitrousMultiplier
	}
	return p
}

// EffectiveTorque computes the torque value the tuner would write right now.
func (t *EngineTuner) EffectiveTorque(baseTorque float64) float64 {
	return baseTorque * t.torque.Value()
}

// ActivateNitrous consumes one charge and enters Active. Rejected (returns
// false, nothing changes) unless the state is Idle and a charge remains.
func (t *EngineTuner) ActivateNitrous(now float64) bool {
	if t.nitrousState != NitrousIdle || t.charges <= 0 {
		t.log.Warn("nitrous activation rejected",
			"state", t.nitrousState.String(), "charges", t.charges)
		return false
	}
	t.charges--
	t.nitrousState = NitrousActive
	t.nitrousEnd = now + NitrousDuration
	t.log.Info("nitrous activated", "charges", t.charges, "until", t.nitrousEnd)
	return true
}

// UpdateNitrous advances the state machine against the simulation clock.
// Returns true when the state changed this call, which is the caller's cue
// to re-apply engine tuning exactly once per transition.
func (t *EngineTuner) UpdateNitrous(now float64) bool {
	switch t.nitrousState {
	case NitrousActive:
		if now >= t.nitrousEnd {
			t.nitrousState = NitrousCooldown
			t.nitrousEnd = now + NitrousCooldownFor
			t.log.Info("nitrous expired, cooling down", "until", t.nitrousEnd)
			return true
		}
	case NitrousCooldown:
		if now >= t.nitrousEnd {
			t.nitrousState = NitrousIdle
			t.log.Debug("nitrous ready")
			return true
		}
	}
	return false
}

// Apply pushes the effective power and torque to the bound drivetrain.
// No-ops when the drivetrain is unavailable or stock values are unknown.
// Redundant writes within changeEpsilon of the last applied values are
// skipped.
func (t *EngineTuner) Apply() bool {
	dt := t.loc.Drivetrain()
	orig := t.loc.Original()
	if dt == nil || !orig.Captured || orig.MaxPower <= 0 {
		return false
	}

	newPower := t.EffectivePower(orig.MaxPower)
	newTorque := t.EffectiveTorque(orig.MaxTorque)
	if t.hasLast &&
		math.Abs(newPower-t.lastPower) < changeEpsilon &&
		math.Abs(newTorque-t.lastTorque) < changeEpsilon {
		return true
	}

	ok := t.res.Set(dt, maxPowerNames, newPower, true)
	ok = t.res.Set(dt, maxTorqueNames, newTorque, true) && ok
	if ok {
		t.lastPower = newPower
		t.lastTorque = newTorque
		t.hasLast = true
		t.log.Debug("engine tuning applied", "power", newPower, "torque", newTorque)
	}
	return ok
}

// InvalidateApplied forgets the last written values so the next Apply writes
// unconditionally. Called when the host reloads the vehicle and the written
// values no longer exist on the instance.
func (t *EngineTuner) InvalidateApplied() {
	t.hasLast = false
}

// ResetToStock restores factory defaults and immediately re-writes the stock
// power and torque to the bound drivetrain, bypassing the multiplier math.
func (t *EngineTuner) ResetToStock() {
	t.power = NewParam(1.0, 0.5, 2.0)
	t.torque = NewParam(1.0, 0.5, 2.0)
	t.boost = NewParam(0, 0, 15)
	t.charges = DefaultNitrousCharges
	t.nitrousState = NitrousIdle
	t.hasLast = false

	dt := t.loc.Drivetrain()
	orig := t.loc.Original()
	if dt == nil || !orig.Captured {
		return
	}
	t.res.Set(dt, maxPowerNames, orig.MaxPower, true)
	t.res.Set(dt, maxTorqueNames, orig.MaxTorque, true)
}

// WriteSnapshot records the engine parameters into s.
func (t *EngineTuner) WriteSnapshot(s *model.TuningSnapshot) {
	s.PowerMultiplier = t.power.Value()
	s.TorqueMultiplier = t.torque.Value()
	s.BoostPressure = t.boost.Value()
	s.NitrousCharges = t.charges
}

// ReadSnapshot restores the engine parameters from s. The nitrous state
// machine itself is runtime state and is not part of snapshots.
func (t *EngineTuner) ReadSnapshot(s model.TuningSnapshot) {
	t.power.Set(s.PowerMultiplier)
	t.torque.Set(s.TorqueMultiplier)
	t.boost.Set(s.BoostPressure)
	t.SetNitrousCharges(s.NitrousCharges)
}
