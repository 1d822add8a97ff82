// Package tuner implements the per-subsystem parameter tuners: engine,
// transmission, brakes, and handling. Each owns a set of range-clamped
// parameters, applies them to the bound vehicle through the attribute
// resolver, and runs its own per-tick state machine where the subsystem has
// one (nitrous, launch control, traction control).
//
// No operation here ever fails hard: a missing sub-component turns the
// affected apply into a no-op for that subsystem only.
package tuner

// Param is a scalar tunable with an inclusive clamp range. Every assignment
// clamps silently to the nearest bound; the stored value is always inside
// [min, max].
type Param struct {
	value, min, max float64
}

// NewParam creates a parameter with the given default and bounds. The default
// itself is clamped.
func NewParam(def, min, max float64) Param {
	p := Param{min: min, max: max}
	p.Set(def)
	return p
}

// Set assigns v clamped to the parameter's range.
func (p *Param) Set(v float64) {
	p.value = clamp(v, p.min, p.max)
}

// Value returns the current value.
func (p Param) Value() float64 { return p.value }

// Min returns the lower bound.
func (p Param) Min() float64 { return p.min }

// Max returns the upper bound.
func (p Param) Max() float64 { return p.max }

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// changeEpsilon gates redundant host writes: power/torque values closer than
// this to the last applied value are not rewritten.
const changeEpsilon = 1e-3
