// Package journal persists tuning activity to the database so a session can
// be reviewed after the fact: one row per session, one row per tuning action
// with the full parameter snapshot that action produced.
package journal

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/vtuner/extension/internal/model"
)

// Session is one run of the extension against one world.
type Session struct {
	ID          uint `gorm:"primarykey"`
	StartedAt   time.Time
	SessionName string
	WorldName   string
	VehicleName string
	DurationSec float64
	TrackWKB    []byte
}

// TuningEvent is one recorded tuning action and the snapshot it produced.
type TuningEvent struct {
	ID        uint `gorm:"primarykey"`
	SessionID uint `gorm:"index"`
	CreatedAt time.Time
	SimTime   float64
	Action    string
	Snapshot  datatypes.JSON
}

// Actions recorded in the journal.
const (
	ActionApply      = "apply"
	ActionReset      = "reset"
	ActionUndo       = "undo"
	ActionRedo       = "redo"
	ActionPresetLoad = "preset-load"
	ActionNitrous    = "nitrous"
)

// Service writes journal rows through a gorm connection.
type Service struct {
	db        *gorm.DB
	log       zerolog.Logger
	sessionID uint
}

// NewService creates a journal service on the given connection.
func NewService(db *gorm.DB, log zerolog.Logger) *Service {
	return &Service{db: db, log: log}
}

// Setup migrates the journal tables.
func (s *Service) Setup() error {
	if err := s.db.AutoMigrate(&Session{}, &TuningEvent{}); err != nil {
		return fmt.Errorf("failed to migrate journal schema: %s", err)
	}
	return nil
}

// StartSession creates the session row. Later records attach to it.
func (s *Service) StartSession(sessionName, worldName, vehicleName string) error {
	row := Session{
		StartedAt:   time.Now(),
		SessionName: sessionName,
		WorldName:   worldName,
		VehicleName: vehicleName,
	}
	if err := s.db.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to create session row: %s", err)
	}
	s.sessionID = row.ID
	s.log.Info().Uint("session", row.ID).Str("vehicle", vehicleName).Msg("Journal session started")
	return nil
}

// SessionID returns the active session row id, 0 if none.
func (s *Service) SessionID() uint {
	return s.sessionID
}

// Record writes one tuning action with its resulting snapshot.
func (s *Service) Record(action string, simTime float64, snap model.TuningSnapshot) error {
	if s.sessionID == 0 {
		return fmt.Errorf("no active journal session")
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %s", err)
	}
	row := TuningEvent{
		SessionID: s.sessionID,
		CreatedAt: time.Now(),
		SimTime:   simTime,
		Action:    action,
		Snapshot:  datatypes.JSON(payload),
	}
	if err := s.db.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to record %s event: %s", action, err)
	}
	return nil
}

// CloseSession stamps the session with its duration and driven track.
func (s *Service) CloseSession(durationSec float64, trackWKB []byte) error {
	if s.sessionID == 0 {
		return fmt.Errorf("no active journal session")
	}
	err := s.db.Model(&Session{}).Where("id = ?", s.sessionID).Updates(map[string]any{
		"duration_sec": durationSec,
		"track_wkb":    trackWKB,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to close session: %s", err)
	}
	return nil
}

// Events returns all recorded events for a session in insertion order.
func (s *Service) Events(sessionID uint) ([]TuningEvent, error) {
	var events []TuningEvent
	err := s.db.Where("session_id = ?", sessionID).Order("id asc").Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load events: %s", err)
	}
	return events, nil
}

// SessionExport is the on-disk export layout.
type SessionExport struct {
	Session Session       `json:"session"`
	Events  []TuningEvent `json:"events"`
}

// Export writes the session and its events to a gzipped JSON file.
func (s *Service) Export(sessionID uint, path string) error {
	var sess Session
	if err := s.db.First(&sess, sessionID).Error; err != nil {
		return fmt.Errorf("failed to load session %d: %s", sessionID, err)
	}
	events, err := s.Events(sessionID)
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %s", err)
	}
	defer file.Close()

	gz := gzip.NewWriter(file)
	if err := json.NewEncoder(gz).Encode(SessionExport{Session: sess, Events: events}); err != nil {
		gz.Close()
		return fmt.Errorf("failed to encode export: %s", err)
	}
	return gz.Close()
}
