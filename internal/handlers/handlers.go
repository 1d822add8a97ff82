// Package handlers wires host bridge commands to the tuning manager.
package handlers

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/vtuner/extension/internal/dispatcher"
	"github.com/vtuner/extension/internal/manager"
	"github.com/vtuner/extension/internal/monitor"
)

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Manager *manager.Manager
	Monitor *monitor.Service
	Logger  *slog.Logger
}

// Service provides handler methods for processing bridge commands
type Service struct {
	deps Dependencies
	log  *slog.Logger
}

// NewService creates a new handler service
func NewService(deps Dependencies) *Service {
	log := deps.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{deps: deps, log: log}
}

// RegisterHandlers registers all command handlers with the dispatcher.
func (s *Service) RegisterHandlers(d *dispatcher.Dispatcher) {
	d.Register(":TICK:", s.handleTick)
	d.Register(":APPLY:", s.handleApply, dispatcher.Logged())
	d.Register(":RESET:", s.handleReset, dispatcher.Logged())
	d.Register(":UNDO:", s.handleUndo, dispatcher.Logged())
	d.Register(":REDO:", s.handleRedo, dispatcher.Logged())
	d.Register(":NITRO:", s.handleNitrous, dispatcher.Logged())
	d.Register(":REFRESH:", s.handleRefresh, dispatcher.Logged())
	d.Register(":PRESET:SAVE:", s.handlePresetSave, dispatcher.Logged())
	d.Register(":PRESET:LOAD:", s.handlePresetLoad, dispatcher.Logged())
	d.Register(":DEICE:", s.handleDeice, dispatcher.Logged())
	d.Register(":STATUS:", s.handleStatus)
}

func (s *Service) handleTick(e dispatcher.Event) (any, error) {
	s.deps.Manager.Tick()
	return "ok", nil
}

// handleApply sets any key=value parameters passed as args, then applies the
// pending set to the vehicle.
func (s *Service) handleApply(e dispatcher.Event) (any, error) {
	for _, arg := range e.Args {
		key, value, found := strings.Cut(arg, "=")
		if !found {
			return nil, fmt.Errorf("malformed parameter %q", arg)
		}
		if err := s.setParameter(strings.TrimSpace(key), strings.TrimSpace(value)); err != nil {
			return nil, err
		}
	}
	if !s.deps.Manager.ApplyTuning() {
		return nil, fmt.Errorf("no vehicle bound")
	}
	return "applied", nil
}

func (s *Service) handleReset(e dispatcher.Event) (any, error) {
	if !s.deps.Manager.ResetToStock() {
		return nil, fmt.Errorf("no vehicle bound")
	}
	return "reset", nil
}

func (s *Service) handleUndo(e dispatcher.Event) (any, error) {
	if !s.deps.Manager.Undo() {
		return nil, fmt.Errorf("nothing to undo")
	}
	return "undone", nil
}

func (s *Service) handleRedo(e dispatcher.Event) (any, error) {
	if !s.deps.Manager.Redo() {
		return nil, fmt.Errorf("nothing to redo")
	}
	return "redone", nil
}

func (s *Service) handleNitrous(e dispatcher.Event) (any, error) {
	if !s.deps.Manager.ActivateNitrous() {
		return nil, fmt.Errorf("nitrous unavailable")
	}
	return "nitrous", nil
}

func (s *Service) handleRefresh(e dispatcher.Event) (any, error) {
	if !s.deps.Manager.RefreshBinding() {
		return nil, fmt.Errorf("no vehicle found")
	}
	return "refreshed", nil
}

func (s *Service) handlePresetSave(e dispatcher.Event) (any, error) {
	if len(e.Args) < 1 {
		return nil, fmt.Errorf("preset name required")
	}
	if err := s.deps.Manager.SavePreset(e.Args[0]); err != nil {
		return nil, err
	}
	return "saved", nil
}

func (s *Service) handlePresetLoad(e dispatcher.Event) (any, error) {
	if len(e.Args) < 1 {
		return nil, fmt.Errorf("preset name required")
	}
	if err := s.deps.Manager.LoadPreset(e.Args[0]); err != nil {
		return nil, err
	}
	return "loaded", nil
}

func (s *Service) handleDeice(e dispatcher.Event) (any, error) {
	if !s.deps.Manager.RemoveCosmeticEffect() {
		return nil, fmt.Errorf("no vehicle bound")
	}
	return "deiced", nil
}

func (s *Service) handleStatus(e dispatcher.Event) (any, error) {
	raw := len(e.Args) > 0 && e.Args[0] == "raw"
	output, _ := s.deps.Monitor.GetProgramStatus(raw)
	return output, nil
}

// setParameter routes one key=value pair to its tuner. Keys match the
// settings file format.
func (s *Service) setParameter(key, value string) error {
	m := s.deps.Manager
	switch key {
	case "powerMultiplier":
		return setFloat(value, m.Engine().SetPowerMultiplier)
	case "torqueMultiplier":
		return setFloat(value, m.Engine().SetTorqueMultiplier)
	case "boostPressure":
		return setFloat(value, m.Engine().SetBoostPressure)
	case "nitrousCharges":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid %s: %q", key, value)
		}
		m.Engine().SetNitrousCharges(n)
	case "gearRatios":
		parts := strings.Split(value, ",")
		for i, part := range parts {
			f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
			if err != nil {
				return fmt.Errorf("invalid gear ratio %q", part)
			}
			m.Transmission().SetGearRatio(i, f)
		}
	case "finalDrive":
		return setFloat(value, m.Transmission().SetFinalDrive)
	case "drivetrainMode":
		m.Transmission().SetDrivetrainMode(value)
	case "launchControl":
		m.Transmission().SetLaunchControl(parseBool(value))
	case "launchRPM":
		return setFloat(value, m.Transmission().SetLaunchRPM)
	case "tractionControl":
		m.Transmission().SetTractionControl(parseBool(value))
	case "brakeForce":
		return setFloat(value, m.Brakes().SetBrakeForce)
	case "brakeBias":
		return setFloat(value, m.Brakes().SetBrakeBias)
	case "weightReduction":
		return setFloat(value, m.Handling().SetWeightReduction)
	case "gripMultiplier":
		return setFloat(value, m.Handling().SetGripMultiplier)
	case "comOffset":
		parts := strings.Split(value, ",")
		if len(parts) != 3 {
			return fmt.Errorf("comOffset needs 3 values, got %d", len(parts))
		}
		var offset [3]float64
		for i, part := range parts {
			f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
			if err != nil {
				return fmt.Errorf("invalid comOffset value %q", part)
			}
			offset[i] = f
		}
		m.Handling().SetCenterOfMassOffset(offset)
	default:
		return fmt.Errorf("unknown parameter %q", key)
	}
	return nil
}

func setFloat(value string, set func(float64)) error {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid value %q", value)
	}
	set(f)
	return nil
}

func parseBool(value string) bool {
	switch strings.ToLower(value) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}
