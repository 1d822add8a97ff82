// Package settings persists the tuning parameters between sessions. The
// settings file is newline-delimited key=value pairs so the host-side script
// layer can read it without a JSON parser; presets are full JSON documents,
// one file per preset.
package settings

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vtuner/extension/internal/model"
)

// Settings file keys.
const (
	keyPowerMultiplier  = "powerMultiplier"
	keyTorqueMultiplier = "torqueMultiplier"
	keyBoostPressure    = "boostPressure"
	keyNitrousCharges   = "nitrousCharges"
	keyGearRatios       = "gearRatios"
	keyFinalDrive       = "finalDrive"
	keyDrivetrainMode   = "drivetrainMode"
	keyLaunchControl    = "launchControl"
	keyLaunchRPM        = "launchRPM"
	keyTractionControl  = "tractionControl"
	keyBrakeForce       = "brakeForce"
	keyBrakeBias        = "brakeBias"
	keyWeightReduction  = "weightReduction"
	keyGripMultiplier   = "gripMultiplier"
	keyCOMOffset        = "comOffset"
)

// Store reads and writes the settings file. Failure is never fatal: a broken
// or missing file means the caller proceeds with in-memory defaults.
type Store struct {
	path string
	log  *slog.Logger
}

// NewStore creates a store for the given settings file path.
func NewStore(path string, log *slog.Logger) *Store {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{path: path, log: log}
}

// formatFloat renders floats in an invariant decimal format, no exponent.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatBool renders booleans as True/False for the host-side script layer.
func formatBool(v bool) string {
	if v {
		return "True"
	}
	return "False"
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

// Save writes the snapshot to the settings file. Errors are reported to the
// caller but the session continues either way.
func (s *Store) Save(snap model.TuningSnapshot) error {
	var b strings.Builder
	writeKV := func(k, v string) { fmt.Fprintf(&b, "%s=%s\n", k, v) }

	writeKV(keyPowerMultiplier, formatFloat(snap.PowerMultiplier))
	writeKV(keyTorqueMultiplier, formatFloat(snap.TorqueMultiplier))
	writeKV(keyBoostPressure, formatFloat(snap.BoostPressure))
	writeKV(keyNitrousCharges, strconv.Itoa(snap.NitrousCharges))

	ratios := make([]string, len(snap.GearRatios))
	for i, r := range snap.GearRatios {
		ratios[i] = formatFloat(r)
	}
	writeKV(keyGearRatios, strings.Join(ratios, ","))
	writeKV(keyFinalDrive, formatFloat(snap.FinalDrive))
	writeKV(keyDrivetrainMode, snap.DrivetrainMode)
	writeKV(keyLaunchControl, formatBool(snap.LaunchControlEnabled))
	writeKV(keyLaunchRPM, formatFloat(snap.LaunchRPM))
	writeKV(keyTractionControl, formatBool(snap.TractionControlEnabled))
	writeKV(keyBrakeForce, formatFloat(snap.BrakeForce))
	writeKV(keyBrakeBias, formatFloat(snap.BrakeBias))
	writeKV(keyWeightReduction, formatFloat(snap.WeightReduction))
	writeKV(keyGripMultiplier, formatFloat(snap.GripMultiplier))

	com := make([]string, len(snap.CenterOfMassOffset))
	for i, v := range snap.CenterOfMassOffset {
		com[i] = formatFloat(v)
	}
	writeKV(keyCOMOffset, strings.Join(com, ","))

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating settings dir: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("writing settings file: %w", err)
	}
	return nil
}

// Load reads the settings file into snap, starting from the given defaults.
// Unknown keys and malformed values are skipped with a debug log; a missing
// file returns found=false and leaves the defaults untouched.
func (s *Store) Load(defaults model.TuningSnapshot) (snap model.TuningSnapshot, found bool, err error) {
	snap = defaults

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return snap, false, nil
		}
		return snap, false, fmt.Errorf("opening settings file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		s.applyLine(&snap, strings.TrimSpace(key), strings.TrimSpace(value))
	}
	if err := scanner.Err(); err != nil {
		return snap, true, fmt.Errorf("reading settings file: %w", err)
	}
	return snap, true, nil
}

func (s *Store) applyLine(snap *model.TuningSnapshot, key, value string) {
	setFloat := func(dst *float64) {
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			*dst = v
		} else {
			s.log.Debug("skipping malformed settings value", "key", key, "value", value)
		}
	}
	setBool := func(dst *bool) {
		if v, ok := parseBool(value); ok {
			*dst = v
		} else {
			s.log.Debug("skipping malformed settings value", "key", key, "value", value)
		}
	}

	switch key {
	case keyPowerMultiplier:
		setFloat(&snap.PowerMultiplier)
	case keyTorqueMultiplier:
		setFloat(&snap.TorqueMultiplier)
	case keyBoostPressure:
		setFloat(&snap.BoostPressure)
	case keyNitrousCharges:
		if v, err := strconv.Atoi(value); err == nil {
			snap.NitrousCharges = v
		}
	case keyGearRatios:
		parts := strings.Split(value, ",")
		if len(parts) != model.GearCount {
			s.log.Debug("skipping malformed gear ratio list", "value", value)
			return
		}
		var ratios [model.GearCount]float64
		for i, p := range parts {
			v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				s.log.Debug("skipping malformed gear ratio list", "value", value)
				return
			}
			ratios[i] = v
		}
		snap.GearRatios = ratios
	case keyFinalDrive:
		setFloat(&snap.FinalDrive)
	case keyDrivetrainMode:
		snap.DrivetrainMode = value
	case keyLaunchControl:
		setBool(&snap.LaunchControlEnabled)
	case keyLaunchRPM:
		setFloat(&snap.LaunchRPM)
	case keyTractionControl:
		setBool(&snap.TractionControlEnabled)
	case keyBrakeForce:
		setFloat(&snap.BrakeForce)
	case keyBrakeBias:
		setFloat(&snap.BrakeBias)
	case keyWeightReduction:
		setFloat(&snap.WeightReduction)
	case keyGripMultiplier:
		setFloat(&snap.GripMultiplier)
	case keyCOMOffset:
		parts := strings.Split(value, ",")
		if len(parts) != 3 {
			return
		}
		var com [3]float64
		for i, p := range parts {
			v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				return
			}
			com[i] = v
		}
		snap.CenterOfMassOffset = com
	default:
		s.log.Debug("unknown settings key", "key", key)
	}
}
