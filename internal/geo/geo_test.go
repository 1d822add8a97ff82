package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjector_OffsetsFromAnchor(t *testing.T) {
	p := NewProjector(0, 0)

	pt := p.Point([3]float64{100, 50, 12})
	xyz, ok := pt.Coordinates()
	require.True(t, ok)

	// Anchor 0,0 projects to mercator origin, so the point is the raw offset.
	assert.InDelta(t, 100, xyz.X, 1e-6)
	assert.InDelta(t, 50, xyz.Y, 1e-6)
	assert.Equal(t, 12.0, xyz.Z)
}

func TestProjector_InvalidPositionYieldsEmptyPoint(t *testing.T) {
	p := NewProjector(0, 0)
	tr := NewTrack()

	pt := p.Point([3]float64{math.NaN(), 0, 0})
	_, ok := pt.Coordinates()
	assert.False(t, ok)

	// An empty point never reaches the track.
	tr.Append(pt)
	assert.Equal(t, 0, tr.Len())
}

func TestTrack_LineStringAndWKB(t *testing.T) {
	p := NewProjector(13.4, 52.5)
	tr := NewTrack()

	_, err := tr.LineString()
	assert.ErrorIs(t, err, ErrTrackTooShort)

	tr.Append(p.Point([3]float64{0, 0, 0}))
	tr.Append(p.Point([3]float64{10, 0, 0}))
	tr.Append(p.Point([3]float64{10, 25, 1}))

	assert.Equal(t, 3, tr.Len())

	ls, err := tr.LineString()
	require.NoError(t, err)
	assert.Equal(t, 3, ls.Coordinates().Length())

	wkb, err := tr.WKB()
	require.NoError(t, err)
	assert.NotEmpty(t, wkb)
}

func TestTrack_Reset(t *testing.T) {
	p := NewProjector(0, 0)
	tr := NewTrack()
	tr.Append(p.Point([3]float64{1, 2, 3}))
	tr.Reset()
	assert.Equal(t, 0, tr.Len())
}
