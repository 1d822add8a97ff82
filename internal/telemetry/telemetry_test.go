package telemetry

import (
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vtuner/extension/internal/model"
)

func TestSamplePoint_FieldsAndTags(t *testing.T) {
	sample := model.TelemetrySample{
		SimTime:        42.0,
		Speed:          33.4,
		RPM:            5200,
		EffectivePower: 243.0,
		NitrousActive:  true,
		Position:       [3]float64{10, 20, 1},
	}

	p := SamplePoint("PlayerVehicle", sample)
	line := influxdb2_write.PointToLineProtocol(p, 1)

	assert.Contains(t, line, "vehicle_state")
	assert.Contains(t, line, "vehicle=PlayerVehicle")
	assert.Contains(t, line, "speed=33.4")
	assert.Contains(t, line, "nitrousActive=true")
}

func TestWritePoint_FallsBackToBackupFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "telemetry.backup.gz")

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	require.NoError(t, err)

	m := NewManager(zerolog.Nop(), path)
	m.BackupWriter = gzip.NewWriter(file)

	sample := model.TelemetrySample{Speed: 12.5, Position: [3]float64{1, 2, 0}}
	require.NoError(t, m.WriteSample("PlayerVehicle", sample))
	require.NoError(t, m.Close())

	raw, err := os.Open(path)
	require.NoError(t, err)
	defer raw.Close()

	gz, err := gzip.NewReader(raw)
	require.NoError(t, err)
	data, err := io.ReadAll(gz)
	require.NoError(t, err)

	assert.True(t, strings.Contains(string(data), "speed=12.5"))
}

func TestWritePoint_NoBackupWriterErrors(t *testing.T) {
	m := NewManager(zerolog.Nop(), "")
	err := m.WriteSample("PlayerVehicle", model.TelemetrySample{})
	assert.Error(t, err)
}
