package tuner

// Candidate name lists for host fields written or read by the tuners. Kept
// separate from the locator's discovery lists: these cover the mutable state
// the tuners touch every tick, with the spellings hosts have shipped so far.
var (
	maxPowerNames   = []string{"MaxPower", "maxPower", "m_maxPower", "EnginePower"}
	maxTorqueNames  = []string{"MaxTorque", "maxTorque", "m_maxTorque", "EngineTorque"}
	revLimiterNames = []string{"RevLimiterRPM", "revLimiterRPM", "m_revLimiter", "RevLimit"}
	rpmNames        = []string{"RPM", "rpm", "m_rpm", "EngineRPM"}
	torqueOutNames  = []string{"TorqueOutput", "torqueOutput", "m_torqueOutput", "DeliveredTorque"}
	gearRatioNames  = []string{"GearRatios", "gearRatios", "m_gearRatios", "Ratios"}
	finalDriveNames = []string{"FinalDrive", "finalDrive", "m_finalDriveRatio", "FinalDriveRatio"}

	speedNames = []string{"Speed", "speed", "m_speed", "VelocityMagnitude"}

	wheelsNames      = []string{"Wheels", "wheels", "m_wheels"}
	brakeTorqueNames = []string{"BrakeTorque", "brakeTorque", "m_brakeTorque"}
	longGripNames    = []string{"LongitudinalGripFactor", "longitudinalGripFactor", "m_longGrip"}
	latGripNames     = []string{"LateralGripFactor", "lateralGripFactor", "m_latGrip"}

	massNames = []string{"Mass", "mass", "m_mass", "BodyMass"}
	comNames  = []string{"CenterOfMass", "centerOfMass", "m_centerOfMass", "COM"}

	iceNames = []string{"IceCoverage", "iceCoverage", "m_iceAmount", "IceAmount"}
)
