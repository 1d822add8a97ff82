package tuner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTransmissionRig(t *testing.T) (*testRig, *EngineTuner, *TransmissionTuner) {
	rig := newTestRig(t)
	engine := NewEngineTuner(rig.loc, rig.res, nil)
	tr := NewTransmissionTuner(rig.loc, rig.res, engine, nil)
	return rig, engine, tr
}

func TestTransmissionTuner_PerGearClamping(t *testing.T) {
	_, _, tr := newTransmissionRig(t)

	// Each gear clamps against its own range.
	tr.SetGearRatio(0, 10)
	assert.Equal(t, 5.0, tr.GearRatio(0))
	tr.SetGearRatio(0, 1.0)
	assert.Equal(t, 2.5, tr.GearRatio(0))
	tr.SetGearRatio(4, 10)
	assert.Equal(t, 1.2, tr.GearRatio(4))
	tr.SetGearRatio(4, 0.1)
	assert.Equal(t, 0.5, tr.GearRatio(4))

	// Invalid indexes are ignored.
	tr.SetGearRatio(-1, 3)
	tr.SetGearRatio(7, 3)
	assert.Equal(t, 0.0, tr.GearRatio(7))
}

func TestTransmissionTuner_ApplyWritesRatios(t *testing.T) {
	rig, _, tr := newTransmissionRig(t)

	tr.SetGearRatio(0, 4.2)
	tr.SetFinalDrive(3.2)
	require.True(t, tr.Apply())
	assert.Equal(t, 4.2, rig.drivetrain().GearRatios[0])
	assert.Equal(t, 3.2, rig.drivetrain().FinalDrive)
}

func TestTransmissionTuner_DrivetrainMode(t *testing.T) {
	_, _, tr := newTransmissionRig(t)

	tr.SetDrivetrainMode("awd")
	assert.Equal(t, "awd", tr.DrivetrainMode())
	tr.SetDrivetrainMode("hovercraft")
	assert.Equal(t, "awd", tr.DrivetrainMode(), "unknown modes are ignored")
}

func TestTransmissionTuner_LaunchControlHoldsAndRestores(t *testing.T) {
	rig, _, tr := newTransmissionRig(t)
	tr.SetLaunchControl(true)
	tr.SetLaunchRPM(3500)

	// Standing start: limiter clamps to launch RPM.
	rig.dynamics().Speed = 0
	tr.UpdateLaunchControl()
	assert.Equal(t, 3500.0, rig.drivetrain().RevLimiterRPM)

	// Past the speed threshold the normal limiter comes back.
	rig.dynamics().Speed = 20
	tr.UpdateLaunchControl()
	assert.Equal(t, 6800.0, rig.drivetrain().RevLimiterRPM)

	// Restoration happened exactly once; later ticks do not rewrite.
	rig.drivetrain().RevLimiterRPM = 1234
	tr.UpdateLaunchControl()
	assert.Equal(t, 1234.0, rig.drivetrain().RevLimiterRPM)
}

func TestTransmissionTuner_LaunchControlYieldsToNitrous(t *testing.T) {
	rig, engine, tr := newTransmissionRig(t)
	tr.SetLaunchControl(true)

	rig.dynamics().Speed = 0
	tr.UpdateLaunchControl()
	require.Equal(t, 3500.0, rig.drivetrain().RevLimiterRPM)

	require.True(t, engine.ActivateNitrous(0))
	tr.UpdateLaunchControl()
	assert.Equal(t, 6800.0, rig.drivetrain().RevLimiterRPM,
		"nitrous activation must restore the normal limiter")
}

func TestTransmissionTuner_DisableRestoresLimiterOnce(t *testing.T) {
	rig, _, tr := newTransmissionRig(t)
	tr.SetLaunchControl(true)
	rig.dynamics().Speed = 0
	tr.UpdateLaunchControl()
	require.Equal(t, 3500.0, rig.drivetrain().RevLimiterRPM)

	tr.SetLaunchControl(false)
	tr.UpdateLaunchControl()
	assert.Equal(t, 6800.0, rig.drivetrain().RevLimiterRPM)
}

func TestTransmissionTuner_TractionControlCutAndRestore(t *testing.T) {
	rig, engine, tr := newTransmissionRig(t)
	tr.SetTractionControl(true)

	// Wheel spin: high RPM at crawling speed.
	rig.drivetrain().RPM = 5000
	rig.dynamics().Speed = 1
	tr.UpdateTractionControl()
	require.True(t, tr.TractionReductionActive())
	assert.InDelta(t, 130*(1-tractionReduction), rig.drivetrain().TorqueOutput, 1e-9)

	// The condition clears; restoration uses the multiplier current at that
	// moment, not the one active when the cut began.
	engine.SetTorqueMultiplier(1.5)
	rig.dynamics().Speed = 15
	tr.UpdateTractionControl()
	assert.False(t, tr.TractionReductionActive())
	assert.InDelta(t, 130*1.5, rig.drivetrain().TorqueOutput, 1e-9)
}

func TestTransmissionTuner_TractionControlDisableRestores(t *testing.T) {
	rig, _, tr := newTransmissionRig(t)
	tr.SetTractionControl(true)
	rig.drivetrain().RPM = 5000
	rig.dynamics().Speed = 1
	tr.UpdateTractionControl()
	require.True(t, tr.TractionReductionActive())

	tr.SetTractionControl(false)
	tr.UpdateTractionControl()
	assert.False(t, tr.TractionReductionActive())
	assert.InDelta(t, 130.0, rig.drivetrain().TorqueOutput, 1e-9)
}

func TestTransmissionTuner_ResetToStock(t *testing.T) {
	rig, _, tr := newTransmissionRig(t)

	tr.SetGearRatio(0, 4.5)
	tr.SetFinalDrive(2.5)
	tr.SetLaunchControl(true)
	require.True(t, tr.Apply())

	tr.ResetToStock()
	assert.Equal(t, 3.45, tr.GearRatio(0))
	assert.False(t, tr.LaunchControlEnabled())
	assert.Equal(t, []float64{3.45, 1.94, 1.28, 0.97, 0.76}, rig.drivetrain().GearRatios)
	assert.Equal(t, 4.06, rig.drivetrain().FinalDrive)
	assert.Equal(t, 6800.0, rig.drivetrain().RevLimiterRPM)
}
