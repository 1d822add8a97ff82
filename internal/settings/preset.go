package settings

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/vtuner/extension/internal/model"
)

// FallbackPresetName is used when a preset name sanitizes to nothing.
const FallbackPresetName = "preset"

// maxPresetNameLen caps sanitized preset names.
const maxPresetNameLen = 64

// invalidNameChars are stripped from preset names before they become file
// names. Covers both Windows and POSIX path separators and reserved chars.
const invalidNameChars = `/\:*?"<>|`

// SanitizePresetName strips path-hostile characters and control characters
// from name, caps its length, and falls back to FallbackPresetName when
// nothing survives.
func SanitizePresetName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if r < 0x20 || strings.ContainsRune(invalidNameChars, r) {
			continue
		}
		b.WriteRune(r)
	}
	s := strings.TrimSpace(b.String())
	if utf8.RuneCountInString(s) > maxPresetNameLen {
		// Truncate on a rune boundary; a byte slice could split a multi-byte
		// rune and leave an invalid UTF-8 file name.
		runes := []rune(s)
		s = string(runes[:maxPresetNameLen])
	}
	if s == "" {
		return FallbackPresetName
	}
	return s
}

// PresetStore reads and writes named preset documents, one JSON file per
// preset, under a single directory.
type PresetStore struct {
	dir string
	log *slog.Logger
}

// NewPresetStore creates a preset store rooted at dir.
func NewPresetStore(dir string, log *slog.Logger) *PresetStore {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &PresetStore{dir: dir, log: log}
}

// path maps a raw preset name to its file path.
func (p *PresetStore) path(name string) string {
	return filepath.Join(p.dir, SanitizePresetName(name)+".json")
}

// Save writes the snapshot as the named preset.
func (p *PresetStore) Save(name string, snap model.TuningSnapshot) error {
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return fmt.Errorf("creating preset dir: %w", err)
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding preset %q: %w", name, err)
	}
	if err := os.WriteFile(p.path(name), data, 0o644); err != nil {
		return fmt.Errorf("writing preset %q: %w", name, err)
	}
	p.log.Info("preset saved", "name", SanitizePresetName(name))
	return nil
}

// Load reads the named preset.
func (p *PresetStore) Load(name string) (model.TuningSnapshot, error) {
	data, err := os.ReadFile(p.path(name))
	if err != nil {
		return model.TuningSnapshot{}, fmt.Errorf("reading preset %q: %w", name, err)
	}
	var snap model.TuningSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return model.TuningSnapshot{}, fmt.Errorf("decoding preset %q: %w", name, err)
	}
	return snap, nil
}

// List returns the sanitized names of every stored preset.
func (p *PresetStore) List() []string {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	return names
}
