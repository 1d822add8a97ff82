package worker

import (
	"io"
	"log/slog"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vtuner/extension/internal/geo"
	"github.com/vtuner/extension/internal/journal"
	"github.com/vtuner/extension/internal/model"
)

func testJournal(t *testing.T) *journal.Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	j := journal.NewService(db, zerolog.Nop())
	require.NoError(t, j.Setup())
	require.NoError(t, j.StartSession("street", "city_night", "PlayerVehicle"))
	return j
}

func TestFlush_DrainsJournalQueue(t *testing.T) {
	j := testJournal(t)
	queues := NewQueues()
	m := NewManager(Dependencies{
		Journal:         j,
		Logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		IsDatabaseValid: func() bool { return true },
	}, queues)

	queues.Journal.Push(
		QueuedEvent{Action: journal.ActionApply, SimTime: 1, Snapshot: model.TuningSnapshot{PowerMultiplier: 1.2}},
		QueuedEvent{Action: journal.ActionReset, SimTime: 2},
	)

	m.Flush()

	assert.Zero(t, queues.Journal.Len())
	events, err := j.Events(j.SessionID())
	require.NoError(t, err)
	assert.Len(t, events, 2)
	assert.NotZero(t, m.GetLastDBWriteDuration())
}

func TestFlush_RecordsTrackFromTelemetry(t *testing.T) {
	queues := NewQueues()
	track := geo.NewTrack()
	m := NewManager(Dependencies{
		Projector: geo.NewProjector(0, 0),
		Track:     track,
	}, queues)

	queues.Telemetry.Push(
		model.TelemetrySample{Position: [3]float64{0, 0, 0}},
		model.TelemetrySample{Position: [3]float64{5, 5, 0}},
	)
	m.Flush()

	assert.Zero(t, queues.Telemetry.Len())
	assert.Equal(t, 2, track.Len())
}

func TestFlush_SkipsJournalWhenDatabaseInvalid(t *testing.T) {
	j := testJournal(t)
	queues := NewQueues()
	m := NewManager(Dependencies{
		Journal:         j,
		IsDatabaseValid: func() bool { return false },
	}, queues)

	queues.Journal.Push(QueuedEvent{Action: journal.ActionApply, SimTime: 1})
	m.Flush()

	// Queue keeps its items so nothing is lost while the DB is down.
	assert.Equal(t, 1, queues.Journal.Len())
	events, err := j.Events(j.SessionID())
	require.NoError(t, err)
	assert.Empty(t, events)
}
