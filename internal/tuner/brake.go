package tuner

import (
	"io"
	"log/slog"

	"github.com/vtuner/extension/internal/attr"
	"github.com/vtuner/extension/internal/locator"
	"github.com/vtuner/extension/internal/model"
)

// BrakeTuner owns overall brake force and front/rear bias. The first wheel's
// stock brake torque, captured once, is the reference for every wheel.
type BrakeTuner struct {
	loc *locator.Locator
	res *attr.Resolver
	log *slog.Logger

	force Param
	bias  Param

	originalTorque    float64
	hasOriginalTorque bool
}

// NewBrakeTuner creates a brake tuner at factory defaults.
func NewBrakeTuner(loc *locator.Locator, res *attr.Resolver, log *slog.Logger) *BrakeTuner {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &BrakeTuner{
		loc:   loc,
		res:   res,
		log:   log,
		force: NewParam(1.0, 0.1, 3.0),
		bias:  NewParam(0.5, 0.3, 0.8),
	}
}

// SetBrakeForce sets the overall force multiplier, clamped to [0.1, 3.0].
func (t *BrakeTuner) SetBrakeForce(v float64) { t.force.Set(v) }

// BrakeForce returns the overall force multiplier.
func (t *BrakeTuner) BrakeForce() float64 { return t.force.Value() }

// SetBrakeBias sets the front bias, clamped to [0.3, 0.8]. 0.5 means even.
func (t *BrakeTuner) SetBrakeBias(v float64) { t.bias.Set(v) }

// BrakeBias returns the front bias.
func (t *BrakeTuner) BrakeBias() float64 { return t.bias.Value() }

// captureOriginal records the first wheel's stock brake torque once per
// process lifetime of the binding. Reset by InvalidateOriginal on rebind.
func (t *BrakeTuner) captureOriginal(wheels []any) {
	if t.hasOriginalTorque || len(wheels) == 0 {
		return
	}
	torque := t.res.GetFloat(wheels[0], brakeTorqueNames, 0)
	if torque <= 0 {
		return
	}
	t.originalTorque = torque
	t.hasOriginalTorque = true
}

// InvalidateOriginal drops the captured reference torque. Called on rebind,
// since a different vehicle has different stock brakes.
func (t *BrakeTuner) InvalidateOriginal() {
	t.hasOriginalTorque = false
	t.originalTorque = 0
}

// biasMultiplier normalizes the bias so that at 0.5 every wheel receives the
// unmodified force. Front wheels are the first half by index.
func (t *BrakeTuner) biasMultiplier(isFront bool) float64 {
	if isFront {
		return t.bias.Value() * 2
	}
	return (1 - t.bias.Value()) * 2
}

// Apply recomputes each wheel's brake torque from the captured reference,
// the force multiplier, and the bias split. No-ops when the axle set or the
// wheels are unavailable.
func (t *BrakeTuner) Apply() bool {
	axles := t.loc.Axles()
	if axles == nil {
		return false
	}
	wheels := t.res.Objects(axles, wheelsNames)
	if len(wheels) == 0 {
		return false
	}
	t.captureOriginal(wheels)
	if !t.hasOriginalTorque {
		return false
	}

	front := len(wheels) / 2
	ok := true
	for i, w := range wheels {
		torque := t.originalTorque * t.force.Value() * t.biasMultiplier(i < front)
		ok = t.res.Set(w, brakeTorqueNames, torque, true) && ok
	}
	return ok
}

// ResetToStock restores factory defaults and re-writes the reference torque
// to every wheel.
func (t *BrakeTuner) ResetToStock() {
	t.force = NewParam(1.0, 0.1, 3.0)
	t.bias = NewParam(0.5, 0.3, 0.8)

	axles := t.loc.Axles()
	if axles == nil || !t.hasOriginalTorque {
		return
	}
	for _, w := range t.res.Objects(axles, wheelsNames) {
		t.res.Set(w, brakeTorqueNames, t.originalTorque, true)
	}
}

// WriteSnapshot records the brake parameters into s.
func (t *BrakeTuner) WriteSnapshot(s *model.TuningSnapshot) {
	s.BrakeForce = t.force.Value()
	s.BrakeBias = t.bias.Value()
}

// ReadSnapshot restores the brake parameters from s.
func (t *BrakeTuner) ReadSnapshot(s model.TuningSnapshot) {
	t.force.Set(s.BrakeForce)
	t.bias.Set(s.BrakeBias)
}
