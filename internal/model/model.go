// Package model holds the value types shared between the tuners, the history
// stacks, persistence, and the journal.
package model

// GearCount is the number of tunable forward gears.
const GearCount = 5

// TuningSnapshot is the full cross-tuner parameter set at one instant. It is
// a pure value type: assignment deep-copies, which is what the history stacks
// and preset files rely on.
type TuningSnapshot struct {
	// Engine
	PowerMultiplier  float64 `json:"powerMultiplier"`
	TorqueMultiplier float64 `json:"torqueMultiplier"`
	BoostPressure    float64 `json:"boostPressure"`
	NitrousCharges   int     `json:"nitrousCharges"`

	// Transmission
	GearRatios             [GearCount]float64 `json:"gearRatios"`
	FinalDrive             float64            `json:"finalDrive"`
	DrivetrainMode         string             `json:"drivetrainMode"`
	LaunchControlEnabled   bool               `json:"launchControlEnabled"`
	LaunchRPM              float64            `json:"launchRPM"`
	TractionControlEnabled bool               `json:"tractionControlEnabled"`

	// Brakes
	BrakeForce float64 `json:"brakeForce"`
	BrakeBias  float64 `json:"brakeBias"`

	// Handling
	WeightReduction    float64    `json:"weightReduction"`
	GripMultiplier     float64    `json:"gripMultiplier"`
	CenterOfMassOffset [3]float64 `json:"centerOfMassOffset"`
}

// OriginalValues is the stock parameter snapshot captured once per successful
// bind. It is the multiplier base for every tuner and the reset target.
type OriginalValues struct {
	Mass         float64
	MaxPower     float64
	MaxTorque    float64
	MaxRPM       float64
	GearRatios   []float64
	FinalDrive   float64
	CenterOfMass [3]float64

	// Captured reports whether the snapshot has been taken for the current
	// bind. False means no entity is bound or capture has not run yet.
	Captured bool
}

// Clone deep-copies the snapshot, including the gear ratio slice.
func (o OriginalValues) Clone() OriginalValues {
	c := o
	c.GearRatios = append([]float64(nil), o.GearRatios...)
	return c
}

// TelemetrySample is one per-tick measurement pushed to the telemetry queue.
type TelemetrySample struct {
	SimTime        float64
	Speed          float64
	RPM            float64
	EffectivePower float64
	NitrousActive  bool
	Position       [3]float64
}

// Status is the monitor's point-in-time view of the extension.
type Status struct {
	Bound             bool
	VehicleName       string
	TelemetryQueueLen int
	JournalQueueLen   int
	UndoDepth         int
	RedoDepth         int
}
