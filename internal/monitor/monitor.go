package monitor

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/vtuner/extension/internal/model"
	"github.com/vtuner/extension/internal/session"
	"github.com/vtuner/extension/internal/worker"
)

// Depths reports the undo and redo stack depths.
type Depths interface {
	UndoDepth() int
	RedoDepth() int
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	SessionContext  *session.Context
	Queues          *worker.Queues
	WorkerManager   *worker.Manager
	History         Depths
	IsBound         func() bool
	IsDatabaseValid func() bool
}

// Service reports point-in-time extension status
type Service struct {
	deps Dependencies
	mu   sync.RWMutex
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	return &Service{deps: deps}
}

// GetStatus returns the current extension status.
func (s *Service) GetStatus() model.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := model.Status{}
	if s.deps.IsBound != nil {
		status.Bound = s.deps.IsBound()
	}
	if s.deps.SessionContext != nil {
		status.VehicleName = s.deps.SessionContext.GetVehicle().Name
	}
	if s.deps.Queues != nil {
		status.TelemetryQueueLen = s.deps.Queues.Telemetry.Len()
		status.JournalQueueLen = s.deps.Queues.Journal.Len()
	}
	if s.deps.History != nil {
		status.UndoDepth = s.deps.History.UndoDepth()
		status.RedoDepth = s.deps.History.RedoDepth()
	}
	return status
}

// GetProgramStatus renders the status for the host console. With raw set it
// appends the JSON form for machine consumption.
func (s *Service) GetProgramStatus(raw bool) (output []string, status model.Status) {
	status = s.GetStatus()

	dbState := "invalid"
	if s.deps.IsDatabaseValid != nil && s.deps.IsDatabaseValid() {
		dbState = "ok"
	}

	output = append(output, fmt.Sprintf(
		"bound=%t vehicle=%s undo=%d redo=%d queues(journal=%d telemetry=%d) db=%s lastWrite=%s",
		status.Bound,
		status.VehicleName,
		status.UndoDepth,
		status.RedoDepth,
		status.JournalQueueLen,
		status.TelemetryQueueLen,
		dbState,
		s.lastWrite(),
	))

	if raw {
		rawStr, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			rawStr = []byte(fmt.Sprintf(`{"error": "%s"}`, err))
		}
		output = append(output, string(rawStr))
	}

	return output, status
}

func (s *Service) lastWrite() string {
	if s.deps.WorkerManager == nil {
		return "n/a"
	}
	return s.deps.WorkerManager.GetLastDBWriteDuration().String()
}
