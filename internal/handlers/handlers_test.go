package handlers

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vtuner/extension/internal/attr"
	"github.com/vtuner/extension/internal/dispatcher"
	"github.com/vtuner/extension/internal/history"
	"github.com/vtuner/extension/internal/locator"
	"github.com/vtuner/extension/internal/manager"
	"github.com/vtuner/extension/internal/monitor"
	"github.com/vtuner/extension/internal/session"
	"github.com/vtuner/extension/internal/settings"
	"github.com/vtuner/extension/internal/worker"
	"github.com/vtuner/extension/pkg/hostapi/simhost"
)

type handlerRig struct {
	d   *dispatcher.Dispatcher
	car *simhost.Entity
	m   *manager.Manager
}

func newHandlerRig(t *testing.T) *handlerRig {
	t.Helper()
	reg := simhost.NewRegistry()
	car := simhost.NewStockCar("PlayerVehicle")
	reg.Add(car)

	dir := t.TempDir()
	res := attr.NewResolver(nil)
	loc := locator.New(reg, res, locator.DefaultConfig(), nil)
	sess := session.NewContext()
	queues := worker.NewQueues()
	hist := history.New(nil)

	m := manager.New(manager.Dependencies{
		Registry: reg,
		Resolver: res,
		Locator:  loc,
		Settings: settings.NewStore(filepath.Join(dir, "vtuner.settings.txt"), nil),
		Presets:  settings.NewPresetStore(dir, nil),
		History:  hist,
		Session:  sess,
		Queues:   queues,
	})

	mon := monitor.NewService(monitor.Dependencies{
		SessionContext: sess,
		Queues:         queues,
		History:        hist,
		IsBound:        m.IsBound,
	})

	d, err := dispatcher.New(nil)
	require.NoError(t, err)

	svc := NewService(Dependencies{Manager: m, Monitor: mon})
	svc.RegisterHandlers(d)

	// Bind the vehicle
	_, err = d.Dispatch(dispatcher.Event{Command: ":TICK:"})
	require.NoError(t, err)
	require.True(t, m.IsBound())

	return &handlerRig{d: d, car: car, m: m}
}

func (r *handlerRig) drivetrain() *simhost.Drivetrain {
	return r.car.Attached[0].Value.(*simhost.Drivetrain)
}

func TestHandleApply_SetsParametersAndApplies(t *testing.T) {
	rig := newHandlerRig(t)

	result, err := rig.d.Dispatch(dispatcher.Event{
		Command: ":APPLY:",
		Args:    []string{"powerMultiplier=1.5", "brakeBias=0.7"},
	})
	require.NoError(t, err)
	assert.Equal(t, "applied", result)

	assert.Equal(t, 72.0*1.5, rig.drivetrain().MaxPower)
	assert.Equal(t, 0.7, rig.m.Brakes().BrakeBias())
}

func TestHandleApply_MalformedArg(t *testing.T) {
	rig := newHandlerRig(t)

	_, err := rig.d.Dispatch(dispatcher.Event{Command: ":APPLY:", Args: []string{"powerMultiplier"}})
	assert.Error(t, err)

	_, err = rig.d.Dispatch(dispatcher.Event{Command: ":APPLY:", Args: []string{"bogusKey=1"}})
	assert.Error(t, err)
}

func TestHandleUndo_RoundTrip(t *testing.T) {
	rig := newHandlerRig(t)

	_, err := rig.d.Dispatch(dispatcher.Event{Command: ":APPLY:", Args: []string{"powerMultiplier=2"}})
	require.NoError(t, err)
	require.Equal(t, 144.0, rig.drivetrain().MaxPower)

	_, err = rig.d.Dispatch(dispatcher.Event{Command: ":UNDO:"})
	require.NoError(t, err)
	assert.Equal(t, 72.0, rig.drivetrain().MaxPower)

	_, err = rig.d.Dispatch(dispatcher.Event{Command: ":REDO:"})
	require.NoError(t, err)
	assert.Equal(t, 144.0, rig.drivetrain().MaxPower)
}

func TestHandleUndo_EmptyHistoryErrors(t *testing.T) {
	rig := newHandlerRig(t)
	_, err := rig.d.Dispatch(dispatcher.Event{Command: ":UNDO:"})
	assert.Error(t, err)
}

func TestHandleNitrous(t *testing.T) {
	rig := newHandlerRig(t)

	_, err := rig.d.Dispatch(dispatcher.Event{Command: ":NITRO:"})
	require.NoError(t, err)
	assert.Equal(t, 2, rig.m.Engine().NitrousCharges())

	// A second activation is rejected while the charge burns.
	_, err = rig.d.Dispatch(dispatcher.Event{Command: ":NITRO:"})
	assert.Error(t, err)
}

func TestHandlePreset_SaveAndLoad(t *testing.T) {
	rig := newHandlerRig(t)

	_, err := rig.d.Dispatch(dispatcher.Event{Command: ":APPLY:", Args: []string{"gripMultiplier=2"}})
	require.NoError(t, err)

	_, err = rig.d.Dispatch(dispatcher.Event{Command: ":PRESET:SAVE:", Args: []string{"track day"}})
	require.NoError(t, err)

	_, err = rig.d.Dispatch(dispatcher.Event{Command: ":RESET:"})
	require.NoError(t, err)
	require.Equal(t, 1.0, rig.m.Handling().GripMultiplier())

	_, err = rig.d.Dispatch(dispatcher.Event{Command: ":PRESET:LOAD:", Args: []string{"track day"}})
	require.NoError(t, err)
	assert.Equal(t, 2.0, rig.m.Handling().GripMultiplier())
}

func TestHandlePreset_NameRequired(t *testing.T) {
	rig := newHandlerRig(t)
	_, err := rig.d.Dispatch(dispatcher.Event{Command: ":PRESET:SAVE:"})
	assert.Error(t, err)
}

func TestHandleDeice(t *testing.T) {
	rig := newHandlerRig(t)
	rig.car.Body.IceCoverage = 0.5

	_, err := rig.d.Dispatch(dispatcher.Event{Command: ":DEICE:"})
	require.NoError(t, err)
	assert.Equal(t, 0.0, rig.car.Body.IceCoverage)
}

func TestHandleStatus(t *testing.T) {
	rig := newHandlerRig(t)

	result, err := rig.d.Dispatch(dispatcher.Event{Command: ":STATUS:"})
	require.NoError(t, err)

	output, ok := result.([]string)
	require.True(t, ok)
	require.Len(t, output, 1)
	assert.Contains(t, output[0], "bound=true")
	assert.Contains(t, output[0], "vehicle=PlayerVehicle")
}
