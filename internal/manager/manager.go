// Package manager owns the tuning core: it drives discovery, runs the
// per-tick state machines, and routes every user action through the tuners,
// the undo history, persistence, and the write queues. All methods run on the
// host's tick thread; nothing here blocks.
package manager

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/vtuner/extension/internal/attr"
	"github.com/vtuner/extension/internal/history"
	"github.com/vtuner/extension/internal/journal"
	"github.com/vtuner/extension/internal/locator"
	"github.com/vtuner/extension/internal/model"
	"github.com/vtuner/extension/internal/session"
	"github.com/vtuner/extension/internal/settings"
	"github.com/vtuner/extension/internal/tuner"
	"github.com/vtuner/extension/internal/worker"
	"github.com/vtuner/extension/pkg/hostapi"
)

// Candidate names read on the tick path for telemetry and cosmetic state.
var (
	speedNames = []string{"Speed", "speed", "m_speed", "Velocity"}
	rpmNames   = []string{"RPM", "rpm", "m_rpm", "EngineRPM"}
	posXNames  = []string{"PositionX", "positionX", "m_posX"}
	posYNames  = []string{"PositionY", "positionY", "m_posY"}
	posZNames  = []string{"PositionZ", "positionZ", "m_posZ"}
	iceNames   = []string{"IceCoverage", "iceCoverage", "m_iceAmount", "WindshieldIce"}
)

// Dependencies holds everything the tuning manager is built from.
type Dependencies struct {
	Registry hostapi.Registry
	Resolver *attr.Resolver
	Locator  *locator.Locator
	Settings *settings.Store
	Presets  *settings.PresetStore
	History  *history.History
	Session  *session.Context
	Queues   *worker.Queues
	Logger   *slog.Logger
}

// Manager is the tuning orchestrator.
type Manager struct {
	deps Dependencies
	log  *slog.Logger

	engine       *tuner.EngineTuner
	transmission *tuner.TransmissionTuner
	brakes       *tuner.BrakeTuner
	handling     *tuner.HandlingTuner

	wasBound        bool
	boundGeneration uint64
	lastApplied     model.TuningSnapshot
}

// New creates the manager and its tuners.
func New(deps Dependencies) *Manager {
	log := deps.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	m := &Manager{
		deps: deps,
		log:  log,
	}
	m.engine = tuner.NewEngineTuner(deps.Locator, deps.Resolver, log)
	m.transmission = tuner.NewTransmissionTuner(deps.Locator, deps.Resolver, m.engine, log)
	m.brakes = tuner.NewBrakeTuner(deps.Locator, deps.Resolver, log)
	m.handling = tuner.NewHandlingTuner(deps.Locator, deps.Resolver, log)
	m.lastApplied = m.Snapshot()
	return m
}

// Engine returns the engine tuner.
func (m *Manager) Engine() *tuner.EngineTuner { return m.engine }

// Transmission returns the transmission tuner.
func (m *Manager) Transmission() *tuner.TransmissionTuner { return m.transmission }

// Brakes returns the brake tuner.
func (m *Manager) Brakes() *tuner.BrakeTuner { return m.brakes }

// Handling returns the handling tuner.
func (m *Manager) Handling() *tuner.HandlingTuner { return m.handling }

// IsBound reports whether a live vehicle is bound.
func (m *Manager) IsBound() bool { return m.deps.Locator.IsBound() }

// Snapshot collects the current parameter set from all tuners.
func (m *Manager) Snapshot() model.TuningSnapshot {
	var s model.TuningSnapshot
	m.engine.WriteSnapshot(&s)
	m.transmission.WriteSnapshot(&s)
	m.brakes.WriteSnapshot(&s)
	m.handling.WriteSnapshot(&s)
	return s
}

// Restore pushes a snapshot into all tuners without touching the host.
func (m *Manager) Restore(s model.TuningSnapshot) {
	m.engine.ReadSnapshot(s)
	m.transmission.ReadSnapshot(s)
	m.brakes.ReadSnapshot(s)
	m.handling.ReadSnapshot(s)
}

// Tick runs one simulation step: discovery, deferred analysis, the nitrous
// and assist state machines, and a telemetry sample. Safe to call every host
// frame whether or not a vehicle exists.
func (m *Manager) Tick() {
	now := m.deps.Registry.Now()

	if !m.deps.Locator.TryLocate() {
		if m.wasBound {
			m.onUnbound()
		}
		return
	}
	// Compare bind generations, not bound/unbound transitions: a dead vehicle
	// can be replaced by a same-name instance inside a single TryLocate call,
	// and captures from the old instance must not leak onto the new one.
	if gen := m.deps.Locator.Generation(); gen != m.boundGeneration {
		if m.wasBound {
			m.invalidateCaptures()
		}
		m.boundGeneration = gen
		m.onBound(now)
	}

	m.deps.Locator.PeriodicAnalysis()

	// A nitrous transition changes the effective multiplier, so the whole
	// parameter set is pushed again exactly once per transition.
	if m.engine.UpdateNitrous(now) {
		m.applyAll()
	}
	m.transmission.UpdateLaunchControl()
	m.transmission.UpdateTractionControl()

	m.pushTelemetry(now)
}

// onBound runs once per fresh binding: session bookkeeping plus loading and
// applying the persisted settings.
func (m *Manager) onBound(now float64) {
	m.wasBound = true
	name := m.deps.Locator.Entity().Name()
	if m.deps.Session != nil {
		m.deps.Session.SetVehicle(name, now)
	}
	m.log.Info("vehicle acquired", "name", name)

	if m.deps.Settings != nil {
		snap, found, err := m.deps.Settings.Load(m.Snapshot())
		if err != nil {
			m.log.Warn("settings load failed", "error", err)
		}
		if found {
			m.Restore(snap)
			m.applyAll()
			m.lastApplied = snap
			m.log.Info("persisted settings applied")
			return
		}
	}
	m.lastApplied = m.Snapshot()
}

// onUnbound runs when the bound vehicle disappears. Stock captures held by
// the tuners belong to the old instance and must not leak into the next bind.
func (m *Manager) onUnbound() {
	m.wasBound = false
	m.invalidateCaptures()
	if m.deps.Session != nil {
		m.deps.Session.ClearVehicle()
	}
	m.log.Info("vehicle lost")
}

// invalidateCaptures drops every per-instance tuner state: change gates and
// stock captures are only valid for the instance they were read from.
func (m *Manager) invalidateCaptures() {
	m.engine.InvalidateApplied()
	m.transmission.InvalidateApplied()
	m.brakes.InvalidateOriginal()
	m.handling.InvalidateOriginal()
}

// applyAll writes every tuner to the host. Handling goes first so the mass
// and grip base is in place before drivetrain writes, brakes last.
func (m *Manager) applyAll() {
	m.handling.Apply()
	m.engine.Apply()
	m.transmission.Apply()
	m.brakes.Apply()
}

// ApplyTuning applies the pending parameter set, commits the previous applied
// state for undo, persists, and journals. Returns false when unbound.
func (m *Manager) ApplyTuning() bool {
	if !m.IsBound() {
		m.log.Warn("apply requested with no vehicle bound")
		return false
	}
	m.deps.History.Commit(m.lastApplied)
	m.applyAll()
	m.lastApplied = m.Snapshot()
	m.persistAndJournal(journal.ActionApply)
	return true
}

// ResetToStock restores every stock value on the host and resets parameters
// to their defaults. The pre-reset state is committed for undo.
func (m *Manager) ResetToStock() bool {
	if !m.IsBound() {
		return false
	}
	m.deps.History.Commit(m.lastApplied)
	m.handling.ResetToStock()
	m.engine.ResetToStock()
	m.transmission.ResetToStock()
	m.brakes.ResetToStock()
	m.lastApplied = m.Snapshot()
	m.persistAndJournal(journal.ActionReset)
	return true
}

// Undo steps back to the previous applied state. Never commits.
func (m *Manager) Undo() bool {
	s, ok := m.deps.History.Undo(m.lastApplied)
	if !ok {
		return false
	}
	m.Restore(s)
	if m.IsBound() {
		m.applyAll()
	}
	m.lastApplied = s
	m.persistAndJournal(journal.ActionUndo)
	return true
}

// Redo re-applies an undone state. Never commits.
func (m *Manager) Redo() bool {
	s, ok := m.deps.History.Redo(m.lastApplied)
	if !ok {
		return false
	}
	m.Restore(s)
	if m.IsBound() {
		m.applyAll()
	}
	m.lastApplied = s
	m.persistAndJournal(journal.ActionRedo)
	return true
}

// ActivateNitrous fires a nitrous charge if one is available.
func (m *Manager) ActivateNitrous() bool {
	if !m.IsBound() {
		return false
	}
	if !m.engine.ActivateNitrous(m.deps.Registry.Now()) {
		return false
	}
	m.engine.Apply()
	if m.deps.Queues != nil {
		m.deps.Queues.Journal.Push(worker.QueuedEvent{
			Action:   journal.ActionNitrous,
			SimTime:  m.deps.Registry.Now(),
			Snapshot: m.Snapshot(),
		})
	}
	return true
}

// RefreshBinding drops all cached reflection state and rebinds. The current
// parameter set is re-applied to the fresh instance when rebinding succeeds.
func (m *Manager) RefreshBinding() bool {
	m.invalidateCaptures()
	ok := m.deps.Locator.Refresh()
	if ok {
		if m.deps.Session != nil {
			m.deps.Session.SetVehicle(m.deps.Locator.Entity().Name(), m.deps.Registry.Now())
		}
		m.wasBound = true
		m.boundGeneration = m.deps.Locator.Generation()
		m.applyAll()
	} else {
		m.wasBound = false
	}
	return ok
}

// SavePreset stores the current parameter set under the given name.
func (m *Manager) SavePreset(name string) error {
	if m.deps.Presets == nil {
		return fmt.Errorf("presets not configured")
	}
	return m.deps.Presets.Save(name, m.Snapshot())
}

// LoadPreset loads a named preset and applies it. The replaced state is
// committed for undo.
func (m *Manager) LoadPreset(name string) error {
	if m.deps.Presets == nil {
		return fmt.Errorf("presets not configured")
	}
	snap, err := m.deps.Presets.Load(name)
	if err != nil {
		return err
	}
	m.deps.History.Commit(m.lastApplied)
	m.Restore(snap)
	if m.IsBound() {
		m.applyAll()
	}
	m.lastApplied = snap
	m.persistAndJournal(journal.ActionPresetLoad)
	return nil
}

// RemoveCosmeticEffect clears windshield ice on the bound vehicle.
func (m *Manager) RemoveCosmeticEffect() bool {
	body := m.deps.Locator.Body()
	if body == nil {
		return false
	}
	return m.deps.Resolver.Set(body, iceNames, 0.0, true)
}

func (m *Manager) persistAndJournal(action string) {
	snap := m.lastApplied
	if m.deps.Settings != nil {
		if err := m.deps.Settings.Save(snap); err != nil {
			m.log.Warn("settings save failed", "error", err)
		}
	}
	if m.deps.Queues != nil {
		m.deps.Queues.Journal.Push(worker.QueuedEvent{
			Action:   action,
			SimTime:  m.deps.Registry.Now(),
			Snapshot: snap,
		})
	}
}

// pushTelemetry queues one per-tick sample for the worker to flush.
func (m *Manager) pushTelemetry(now float64) {
	if m.deps.Queues == nil {
		return
	}
	res := m.deps.Resolver
	sample := model.TelemetrySample{
		SimTime:       now,
		NitrousActive: m.engine.NitrousActiveNow(),
	}
	if dyn := m.deps.Locator.Dynamics(); dyn != nil {
		sample.Speed = res.GetFloat(dyn, speedNames, 0)
		sample.Position = [3]float64{
			res.GetFloat(dyn, posXNames, 0),
			res.GetFloat(dyn, posYNames, 0),
			res.GetFloat(dyn, posZNames, 0),
		}
	}
	if dt := m.deps.Locator.Drivetrain(); dt != nil {
		sample.RPM = res.GetFloat(dt, rpmNames, 0)
	}
	sample.EffectivePower = m.engine.EffectivePower(m.deps.Locator.Original().MaxPower)
	m.deps.Queues.Telemetry.Push(sample)
}
