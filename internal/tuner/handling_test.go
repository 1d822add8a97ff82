package tuner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlingTuner_WeightReduction(t *testing.T) {
	rig := newTestRig(t)
	h := NewHandlingTuner(rig.loc, rig.res, nil)

	h.SetWeightReduction(25)
	require.True(t, h.Apply())
	assert.InDelta(t, 1240*0.75, rig.car.Body.Mass, 1e-9)

	// Clamped to 50 % at most.
	h.SetWeightReduction(90)
	assert.Equal(t, 50.0, h.WeightReduction())
}

func TestHandlingTuner_MassFloor(t *testing.T) {
	rig := newTestRig(t)
	// A vehicle light enough that 50 % reduction would undercut the floor.
	rig.car.Body.Mass = 180
	require.True(t, rig.loc.Refresh())

	h := NewHandlingTuner(rig.loc, rig.res, nil)
	h.SetWeightReduction(50)
	require.True(t, h.Apply())
	assert.Equal(t, 100.0, rig.car.Body.Mass)
}

func TestHandlingTuner_CenterOfMassOffset(t *testing.T) {
	rig := newTestRig(t)
	h := NewHandlingTuner(rig.loc, rig.res, nil)

	h.SetCenterOfMassOffset([3]float64{0.1, -0.2, 2.0})
	assert.Equal(t, [3]float64{0.1, -0.2, 0.5}, h.CenterOfMassOffset(), "each axis clamps")

	require.True(t, h.Apply())
	// Offset is added to the stock center of mass (0, -0.3, 0.05).
	assert.InDelta(t, 0.1, rig.car.Body.CenterOfMass[0], 1e-9)
	assert.InDelta(t, -0.5, rig.car.Body.CenterOfMass[1], 1e-9)
	assert.InDelta(t, 0.55, rig.car.Body.CenterOfMass[2], 1e-9)

	// The original is captured lazily, exactly once: a second apply offsets
	// from the same stock base, not from the already-offset value.
	require.True(t, h.Apply())
	assert.InDelta(t, -0.5, rig.car.Body.CenterOfMass[1], 1e-9)
}

func TestHandlingTuner_GripWrittenToBothFactors(t *testing.T) {
	rig := newTestRig(t)
	h := NewHandlingTuner(rig.loc, rig.res, nil)

	h.SetGripMultiplier(1.8)
	require.True(t, h.Apply())
	for i, w := range rig.axles().Wheels {
		assert.Equal(t, 1.8, w.LongitudinalGripFactor, "wheel %d", i)
		assert.Equal(t, 1.8, w.LateralGripFactor, "wheel %d", i)
	}
}

func TestHandlingTuner_ResetToStock(t *testing.T) {
	rig := newTestRig(t)
	h := NewHandlingTuner(rig.loc, rig.res, nil)

	h.SetWeightReduction(40)
	h.SetGripMultiplier(2.0)
	h.SetCenterOfMassOffset([3]float64{0.2, 0.2, 0.2})
	require.True(t, h.Apply())

	h.ResetToStock()
	assert.Equal(t, 0.0, h.WeightReduction())
	assert.Equal(t, 1.0, h.GripMultiplier())
	assert.Equal(t, 1240.0, rig.car.Body.Mass)
	assert.Equal(t, [3]float64{0, -0.3, 0.05}, rig.car.Body.CenterOfMass)
	assert.Equal(t, 1.0, rig.axles().Wheels[0].LongitudinalGripFactor)
}
