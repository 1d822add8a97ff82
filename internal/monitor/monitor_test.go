package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vtuner/extension/internal/history"
	"github.com/vtuner/extension/internal/model"
	"github.com/vtuner/extension/internal/session"
	"github.com/vtuner/extension/internal/worker"
)

func TestGetStatus_ReflectsDependencies(t *testing.T) {
	ctx := session.NewContext()
	ctx.SetVehicle("PlayerVehicle", 3.0)

	queues := worker.NewQueues()
	queues.Journal.Push(worker.QueuedEvent{Action: "apply"})
	queues.Telemetry.Push(model.TelemetrySample{}, model.TelemetrySample{})

	h := history.New(nil)
	h.Commit(model.TuningSnapshot{})

	s := NewService(Dependencies{
		SessionContext: ctx,
		Queues:         queues,
		History:        h,
		IsBound:        func() bool { return true },
	})

	status := s.GetStatus()
	assert.True(t, status.Bound)
	assert.Equal(t, "PlayerVehicle", status.VehicleName)
	assert.Equal(t, 1, status.JournalQueueLen)
	assert.Equal(t, 2, status.TelemetryQueueLen)
	assert.Equal(t, 1, status.UndoDepth)
	assert.Equal(t, 0, status.RedoDepth)
}

func TestGetProgramStatus_RawAppendsJSON(t *testing.T) {
	s := NewService(Dependencies{})

	output, status := s.GetProgramStatus(true)
	assert.False(t, status.Bound)
	assert.Len(t, output, 2)
	assert.Contains(t, output[0], "bound=false")
	assert.Contains(t, output[1], `"Bound": false`)
}
