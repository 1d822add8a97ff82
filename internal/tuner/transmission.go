package tuner

import (
	"io"
	"log/slog"
	"math"

	"github.com/vtuner/extension/internal/attr"
	"github.com/vtuner/extension/internal/locator"
	"github.com/vtuner/extension/internal/model"
)

// Per-gear clamp ranges and factory defaults. First gear allows the widest
// spread; overdrive gears stay below 1:1 territory.
var (
	gearRanges   = [model.GearCount][2]float64{{2.5, 5.0}, {1.5, 3.0}, {1.0, 2.2}, {0.7, 1.6}, {0.5, 1.2}}
	gearDefaults = [model.GearCount]float64{3.45, 1.94, 1.28, 0.97, 0.76}
)

// Assist thresholds.
const (
	launchSpeedThreshold = 8.0 // below this speed the launch limiter holds

	tractionRPMThreshold   = 3000 // drivetrain RPM indicating wheel spin
	tractionSpeedThreshold = 5.0  // while actual speed stays below this
	tractionReduction      = 0.35 // fraction of torque removed during spin
)

// DrivetrainModes are the selectable torque-split modes.
var DrivetrainModes = []string{"stock", "fwd", "rwd", "awd"}

// TransmissionTuner owns gear ratios, final drive, drivetrain mode, and the
// launch-control and traction-control assist systems.
type TransmissionTuner struct {
	loc    *locator.Locator
	res    *attr.Resolver
	log    *slog.Logger
	engine *EngineTuner

	gears      [model.GearCount]Param
	finalDrive Param
	mode       string

	launchEnabled  bool
	launchRPM      Param
	launchApplied  bool
	lastLimiter    float64
	hasLastLimiter bool

	tractionEnabled bool
	tractionActive  bool
}

// NewTransmissionTuner creates a transmission tuner at factory defaults. The
// engine tuner is consulted read-only for the nitrous state and the current
// torque multiplier.
func NewTransmissionTuner(loc *locator.Locator, res *attr.Resolver, engine *EngineTuner, log *slog.Logger) *TransmissionTuner {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	t := &TransmissionTuner{
		loc:        loc,
		res:        res,
		log:        log,
		engine:     engine,
		finalDrive: NewParam(4.06, 2.0, 5.0),
		launchRPM:  NewParam(3500, 2000, 8000),
		mode:       "stock",
	}
	for i := range t.gears {
		t.gears[i] = NewParam(gearDefaults[i], gearRanges[i][0], gearRanges[i][1])
	}
	return t
}

// SetGearRatio sets gear g (0-based) clamped to that gear's own range.
// Out-of-range gear indexes are ignored.
func (t *TransmissionTuner) SetGearRatio(g int, v float64) {
	if g < 0 || g >= model.GearCount {
		return
	}
	t.gears[g].Set(v)
}

// GearRatio returns gear g's current ratio, or 0 for an invalid index.
func (t *TransmissionTuner) GearRatio(g int) float64 {
	if g < 0 || g >= model.GearCount {
		return 0
	}
	return t.gears[g].Value()
}

// GearRatios returns all current ratios.
func (t *TransmissionTuner) GearRatios() [model.GearCount]float64 {
	var out [model.GearCount]float64
	for i := range t.gears {
		out[i] = t.gears[i].Value()
	}
	return out
}

// SetFinalDrive sets the final drive ratio, clamped to [2.0, 5.0].
func (t *TransmissionTuner) SetFinalDrive(v float64) { t.finalDrive.Set(v) }

// FinalDrive returns the current final drive ratio.
func (t *TransmissionTuner) FinalDrive() float64 { return t.finalDrive.Value() }

// SetDrivetrainMode selects a torque-split mode. Unknown modes are ignored.
func (t *TransmissionTuner) SetDrivetrainMode(mode string) {
	for _, m := range DrivetrainModes {
		if m == mode {
			t.mode = mode
			return
		}
	}
}

// DrivetrainMode returns the selected torque-split mode.
func (t *TransmissionTuner) DrivetrainMode() string { return t.mode }

// SetLaunchControl enables or disables launch control.
func (t *TransmissionTuner) SetLaunchControl(enabled bool) { t.launchEnabled = enabled }

// LaunchControlEnabled reports whether launch control is on.
func (t *TransmissionTuner) LaunchControlEnabled() bool { return t.launchEnabled }

// SetLaunchRPM sets the launch rev ceiling, clamped to [2000, 8000].
func (t *TransmissionTuner) SetLaunchRPM(v float64) { t.launchRPM.Set(v) }

// LaunchRPM returns the launch rev ceiling.
func (t *TransmissionTuner) LaunchRPM() float64 { return t.launchRPM.Value() }

// SetTractionControl enables or disables traction control.
func (t *TransmissionTuner) SetTractionControl(enabled bool) { t.tractionEnabled = enabled }

// TractionControlEnabled reports whether traction control is on.
func (t *TransmissionTuner) TractionControlEnabled() bool { return t.tractionEnabled }

// TractionReductionActive reports whether a torque reduction is currently in
// force.
func (t *TransmissionTuner) TractionReductionActive() bool { return t.tractionActive }

// Apply writes the gear ratios and final drive to the bound drivetrain.
func (t *TransmissionTuner) Apply() bool {
	dt := t.loc.Drivetrain()
	if dt == nil {
		return false
	}
	ratios := make([]float64, model.GearCount)
	for i := range t.gears {
		ratios[i] = t.gears[i].Value()
	}
	ok := t.res.Set(dt, gearRatioNames, ratios, true)
	ok = t.res.Set(dt, finalDriveNames, t.finalDrive.Value(), true) && ok
	return ok
}

// ResetToStock restores factory defaults and re-writes the stock ratios to
// the bound drivetrain.
func (t *TransmissionTuner) ResetToStock() {
	for i := range t.gears {
		t.gears[i] = NewParam(gearDefaults[i], gearRanges[i][0], gearRanges[i][1])
	}
	t.finalDrive = NewParam(4.06, 2.0, 5.0)
	t.mode = "stock"
	t.launchEnabled = false
	t.tractionEnabled = false
	t.launchApplied = false
	t.tractionActive = false
	t.hasLastLimiter = false

	dt := t.loc.Drivetrain()
	orig := t.loc.Original()
	if dt == nil || !orig.Captured {
		return
	}
	if len(orig.GearRatios) > 0 {
		t.res.Set(dt, gearRatioNames, append([]float64(nil), orig.GearRatios...), true)
	}
	if orig.FinalDrive > 0 {
		t.res.Set(dt, finalDriveNames, orig.FinalDrive, true)
	}
	if orig.MaxRPM > 0 {
		t.res.Set(dt, revLimiterNames, orig.MaxRPM, true)
	}
	if orig.MaxTorque > 0 {
		t.res.Set(dt, torqueOutNames, orig.MaxTorque, true)
	}
}

// InvalidateApplied forgets the limiter cache and assist flags. Called when
// the host reloads the vehicle; the written values no longer exist there.
func (t *TransmissionTuner) InvalidateApplied() {
	t.hasLastLimiter = false
	t.launchApplied = false
	t.tractionActive = false
}

// UpdateLaunchControl runs every tick. While enabled, nitrous is inactive,
// and measured speed stays below the threshold, the rev ceiling is clamped
// to the launch RPM; otherwise the normal limiter is restored exactly once.
func (t *TransmissionTuner) UpdateLaunchControl() {
	dt := t.loc.Drivetrain()
	orig := t.loc.Original()
	if dt == nil || !orig.Captured || orig.MaxRPM <= 0 {
		return
	}

	if !t.launchEnabled || t.engine.NitrousActiveNow() {
		t.restoreLimiter(dt, orig.MaxRPM)
		return
	}

	speed := t.res.GetFloat(t.loc.Dynamics(), speedNames, math.Inf(1))
	if speed < launchSpeedThreshold {
		t.writeLimiter(dt, t.launchRPM.Value())
		t.launchApplied = true
	} else {
		t.restoreLimiter(dt, orig.MaxRPM)
	}
}

// restoreLimiter puts the normal rev limiter back if the launch value is
// currently applied. Does nothing otherwise, so restoration happens once.
func (t *TransmissionTuner) restoreLimiter(dt any, maxRPM float64) {
	if !t.launchApplied {
		return
	}
	t.writeLimiter(dt, maxRPM)
	t.launchApplied = false
	t.log.Debug("rev limiter restored", "rpm", maxRPM)
}

// writeLimiter writes the rev ceiling, gated by the minimum change delta.
func (t *TransmissionTuner) writeLimiter(dt any, rpm float64) {
	if t.hasLastLimiter && math.Abs(rpm-t.lastLimiter) < changeEpsilon {
		return
	}
	if t.res.Set(dt, revLimiterNames, rpm, true) {
		t.lastLimiter = rpm
		t.hasLastLimiter = true
	}
}

// UpdateTractionControl runs every tick. A wheel-spin condition (drivetrain
// RPM above threshold while actual speed is below threshold) cuts delivered
// torque by a fixed fraction; once the condition clears, torque is restored
// from the stock torque and the torque multiplier current at that moment.
func (t *TransmissionTuner) UpdateTractionControl() {
	dt := t.loc.Drivetrain()
	orig := t.loc.Original()
	if dt == nil || !orig.Captured || orig.MaxTorque <= 0 {
		return
	}

	if !t.tractionEnabled {
		t.restoreTorque(dt, orig.MaxTorque)
		return
	}

	rpm := t.res.GetFloat(dt, rpmNames, 0)
	speed := t.res.GetFloat(t.loc.Dynamics(), speedNames, math.Inf(1))

	spinning := rpm > tractionRPMThreshold && speed < tractionSpeedThreshold
	if spinning {
		if !t.tractionActive {
			reduced := orig.MaxTorque * t.engine.TorqueMultiplier() * (1 - tractionReduction)
			if t.res.Set(dt, torqueOutNames, reduced, true) {
				t.tractionActive = true
				t.log.Debug("traction control cut torque", "torque", reduced)
			}
		}
		return
	}
	t.restoreTorque(dt, orig.MaxTorque)
}

// restoreTorque ends an active reduction. Uses the multiplier at restore
// time, not the one active when the reduction began.
func (t *TransmissionTuner) restoreTorque(dt any, baseTorque float64) {
	if !t.tractionActive {
		return
	}
	restored := baseTorque * t.engine.TorqueMultiplier()
	if t.res.Set(dt, torqueOutNames, restored, true) {
		t.tractionActive = false
		t.log.Debug("traction control restored torque", "torque", restored)
	}
}

// WriteSnapshot records the transmission parameters into s.
func (t *TransmissionTuner) WriteSnapshot(s *model.TuningSnapshot) {
	s.GearRatios = t.GearRatios()
	s.FinalDrive = t.finalDrive.Value()
	s.DrivetrainMode = t.mode
	s.LaunchControlEnabled = t.launchEnabled
	s.LaunchRPM = t.launchRPM.Value()
	s.TractionControlEnabled = t.tractionEnabled
}

// ReadSnapshot restores the transmission parameters from s.
func (t *TransmissionTuner) ReadSnapshot(s model.TuningSnapshot) {
	for i := range t.gears {
		t.gears[i].Set(s.GearRatios[i])
	}
	t.finalDrive.Set(s.FinalDrive)
	t.SetDrivetrainMode(s.DrivetrainMode)
	t.launchEnabled = s.LaunchControlEnabled
	t.launchRPM.Set(s.LaunchRPM)
	t.tractionEnabled = s.TractionControlEnabled
}
