// Package worker drains the write queues. Tuning happens on the host's tick
// thread, so nothing there is allowed to block on the database or the
// telemetry server; actions land in queues and the worker flushes them.
package worker

import (
	"log/slog"
	"sync"
	"time"

	"github.com/vtuner/extension/internal/geo"
	"github.com/vtuner/extension/internal/journal"
	"github.com/vtuner/extension/internal/model"
	"github.com/vtuner/extension/internal/queue"
	"github.com/vtuner/extension/internal/telemetry"
)

// QueuedEvent is a journal write waiting to be flushed.
type QueuedEvent struct {
	Action   string
	SimTime  float64
	Snapshot model.TuningSnapshot
}

// Queues holds the write queues shared between the tick path and the worker.
type Queues struct {
	Journal   *queue.Queue[QueuedEvent]
	Telemetry *queue.Queue[model.TelemetrySample]
}

// NewQueues creates empty write queues.
func NewQueues() *Queues {
	return &Queues{
		Journal:   queue.New[QueuedEvent](),
		Telemetry: queue.New[model.TelemetrySample](),
	}
}

// Dependencies holds all dependencies for the worker manager
type Dependencies struct {
	Journal         *journal.Service
	Telemetry       *telemetry.Manager
	Projector       *geo.Projector
	Track           *geo.Track
	Logger          *slog.Logger
	IsDatabaseValid func() bool
	VehicleName     func() string
}

// Manager flushes the write queues to their backends.
type Manager struct {
	deps   Dependencies
	queues *Queues

	mu                sync.RWMutex
	lastWriteDuration time.Duration
}

// NewManager creates a new worker manager
func NewManager(deps Dependencies, queues *Queues) *Manager {
	return &Manager{
		deps:   deps,
		queues: queues,
	}
}

// Flush drains both queues. Journal events go to the database, telemetry
// samples to InfluxDB or its backup file.
func (m *Manager) Flush() {
	start := time.Now()

	if m.deps.Journal != nil && m.deps.IsDatabaseValid != nil && m.deps.IsDatabaseValid() {
		for _, ev := range m.queues.Journal.Drain() {
			if err := m.deps.Journal.Record(ev.Action, ev.SimTime, ev.Snapshot); err != nil {
				if m.deps.Logger != nil {
					m.deps.Logger.Error("journal write failed", "action", ev.Action, "error", err)
				}
			}
		}
	}

	if m.deps.Telemetry != nil || m.deps.Track != nil {
		name := ""
		if m.deps.VehicleName != nil {
			name = m.deps.VehicleName()
		}
		for _, sample := range m.queues.Telemetry.Drain() {
			if m.deps.Track != nil && m.deps.Projector != nil {
				m.deps.Track.Append(m.deps.Projector.Point(sample.Position))
			}
			if m.deps.Telemetry == nil {
				continue
			}
			if err := m.deps.Telemetry.WriteSample(name, sample); err != nil {
				if m.deps.Logger != nil {
					m.deps.Logger.Error("telemetry write failed", "error", err)
				}
			}
		}
	}

	m.mu.Lock()
	m.lastWriteDuration = time.Since(start)
	m.mu.Unlock()
}

// Run flushes on the given interval until the stop channel closes.
func (m *Manager) Run(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.Flush()
		case <-stop:
			m.Flush()
			return
		}
	}
}

// GetLastDBWriteDuration returns the duration of the last flush cycle.
func (m *Manager) GetLastDBWriteDuration() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastWriteDuration
}
