package tuner

import (
	"io"
	"log/slog"

	"github.com/vtuner/extension/internal/attr"
	"github.com/vtuner/extension/internal/locator"
	"github.com/vtuner/extension/internal/model"
)

// massFloor is the minimum absolute body mass weight reduction can reach.
const massFloor = 100.0

// comOffsetLimit bounds each axis of the center-of-mass offset in meters.
const comOffsetLimit = 0.5

// HandlingTuner owns weight reduction, grip, and the center-of-mass offset.
type HandlingTuner struct {
	loc *locator.Locator
	res *attr.Resolver
	log *slog.Logger

	reduction Param
	grip      Param
	comOffset [3]Param

	originalCOM    [3]float64
	hasOriginalCOM bool
}

// NewHandlingTuner creates a handling tuner at factory defaults.
func NewHandlingTuner(loc *locator.Locator, res *attr.Resolver, log *slog.Logger) *HandlingTuner {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	t := &HandlingTuner{
		loc:       loc,
		res:       res,
		log:       log,
		reduction: NewParam(0, 0, 50),
		grip:      NewParam(1.0, 0.5, 3.0),
	}
	for i := range t.comOffset {
		t.comOffset[i] = NewParam(0, -comOffsetLimit, comOffsetLimit)
	}
	return t
}

// SetWeightReduction sets the reduction percentage, clamped to [0, 50].
func (t *HandlingTuner) SetWeightReduction(v float64) { t.reduction.Set(v) }

// WeightReduction returns the reduction percentage.
func (t *HandlingTuner) WeightReduction() float64 { return t.reduction.Value() }

// SetGripMultiplier sets the tire grip multiplier, clamped to [0.5, 3.0].
func (t *HandlingTuner) SetGripMultiplier(v float64) { t.grip.Set(v) }

// GripMultiplier returns the tire grip multiplier.
func (t *HandlingTuner) GripMultiplier() float64 { return t.grip.Value() }

// SetCenterOfMassOffset sets the per-axis offset, each axis clamped to
// [-0.5, 0.5] meters.
func (t *HandlingTuner) SetCenterOfMassOffset(offset [3]float64) {
	for i := range t.comOffset {
		t.comOffset[i].Set(offset[i])
	}
}

// CenterOfMassOffset returns the per-axis offset.
func (t *HandlingTuner) CenterOfMassOffset() [3]float64 {
	var out [3]float64
	for i := range t.comOffset {
		out[i] = t.comOffset[i].Value()
	}
	return out
}

// captureOriginalCOM lazily snapshots the stock center of mass the first
// time it is needed.
func (t *HandlingTuner) captureOriginalCOM(body any) {
	if t.hasOriginalCOM {
		return
	}
	com := t.res.GetFloats(body, comNames)
	if len(com) != 3 {
		return
	}
	copy(t.originalCOM[:], com)
	t.hasOriginalCOM = true
}

// InvalidateOriginal drops the captured center of mass. Called on rebind.
func (t *HandlingTuner) InvalidateOriginal() {
	t.hasOriginalCOM = false
}

// Apply writes mass, center of mass, and per-wheel grip. Body and wheel
// writes degrade independently: a missing axle set still lets the mass
// change land.
func (t *HandlingTuner) Apply() bool {
	body := t.loc.Body()
	orig := t.loc.Original()
	if body == nil || !orig.Captured {
		return false
	}

	ok := true
	if orig.Mass > 0 {
		mass := orig.Mass * (1 - t.reduction.Value()/100)
		if mass < massFloor {
			mass = massFloor
		}
		ok = t.res.Set(body, massNames, mass, true)
	}

	t.captureOriginalCOM(body)
	if t.hasOriginalCOM {
		com := make([]float64, 3)
		for i := range com {
			com[i] = t.originalCOM[i] + t.comOffset[i].Value()
		}
		ok = t.res.Set(body, comNames, com, true) && ok
	}

	t.applyGrip()
	return ok
}

// applyGrip writes the grip multiplier identically to both grip factors of
// every discovered wheel. Missing wheels are not an error.
func (t *HandlingTuner) applyGrip() {
	axles := t.loc.Axles()
	if axles == nil {
		return
	}
	g := t.grip.Value()
	for _, w := range t.res.Objects(axles, wheelsNames) {
		t.res.Set(w, longGripNames, g, true)
		t.res.Set(w, latGripNames, g, true)
	}
}

// ResetToStock restores factory defaults and re-writes the stock mass,
// center of mass, and unit grip.
func (t *HandlingTuner) ResetToStock() {
	t.reduction = NewParam(0, 0, 50)
	t.grip = NewParam(1.0, 0.5, 3.0)
	for i := range t.comOffset {
		t.comOffset[i] = NewParam(0, -comOffsetLimit, comOffsetLimit)
	}

	body := t.loc.Body()
	orig := t.loc.Original()
	if body == nil || !orig.Captured {
		return
	}
	if orig.Mass > 0 {
		t.res.Set(body, massNames, orig.Mass, true)
	}
	if t.hasOriginalCOM {
		t.res.Set(body, comNames, append([]float64(nil), t.originalCOM[:]...), true)
	}
	t.applyGrip()
}

// WriteSnapshot records the handling parameters into s.
func (t *HandlingTuner) WriteSnapshot(s *model.TuningSnapshot) {
	s.WeightReduction = t.reduction.Value()
	s.GripMultiplier = t.grip.Value()
	s.CenterOfMassOffset = t.CenterOfMassOffset()
}

// ReadSnapshot restores the handling parameters from s.
func (t *HandlingTuner) ReadSnapshot(s model.TuningSnapshot) {
	t.reduction.Set(s.WeightReduction)
	t.grip.Set(s.GripMultiplier)
	t.SetCenterOfMassOffset(s.CenterOfMassOffset)
}
