package geo

import (
	"errors"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
)

// Track geometry is stored as EPSG:3857 (web mercator) so it can be rendered
// on standard map tiles. Positions reported by the host are local metric
// offsets from a configured world anchor; near the anchor a meter of local
// offset maps to a meter of mercator distance, which is accurate enough for
// per-session driving lines.

// ErrTrackTooShort is returned when a track has fewer than two points.
var ErrTrackTooShort = errors.New("track needs at least two points")

// Projector converts host-local positions to EPSG:3857 coordinates.
type Projector struct {
	originX float64
	originY float64
}

// NewProjector creates a projector anchored at the given WGS84 coordinate.
func NewProjector(anchorLongitude, anchorLatitude float64) *Projector {
	epsg := wgs84.EPSG()
	f := epsg.Transform(4326, 3857)
	x, y, _ := f(anchorLongitude, anchorLatitude, 0)
	return &Projector{originX: x, originY: y}
}

// Point projects a host-local position into a 3857 point. The host Z axis is
// elevation and carries through unchanged. A position that fails coordinate
// validation (NaN or infinite offsets) yields an empty point, which Append
// discards.
func (p *Projector) Point(pos [3]float64) geom.Point {
	pt, err := geom.NewPoint(
		geom.Coordinates{
			XY:   geom.XY{X: p.originX + pos[0], Y: p.originY + pos[1]},
			Z:    pos[2],
			Type: geom.DimXYZ,
		},
	)
	if err != nil {
		return geom.Point{}
	}
	return pt
}

// Track accumulates projected positions into a driving line.
type Track struct {
	coords []float64
}

// NewTrack creates an empty track.
func NewTrack() *Track {
	return &Track{}
}

// Append adds a projected point to the track.
func (t *Track) Append(pt geom.Point) {
	xyz, ok := pt.Coordinates()
	if !ok {
		return
	}
	t.coords = append(t.coords, xyz.X, xyz.Y, xyz.Z)
}

// Len returns the number of points recorded.
func (t *Track) Len() int {
	return len(t.coords) / 3
}

// LineString builds the track geometry.
func (t *Track) LineString() (geom.LineString, error) {
	if t.Len() < 2 {
		return geom.LineString{}, ErrTrackTooShort
	}
	seq := geom.NewSequence(t.coords, geom.DimXYZ)
	return geom.NewLineString(seq)
}

// WKB returns the track encoded as well-known binary.
func (t *Track) WKB() ([]byte, error) {
	ls, err := t.LineString()
	if err != nil {
		return nil, err
	}
	return ls.AsBinary(), nil
}

// Reset clears the track for a new session.
func (t *Track) Reset() {
	t.coords = t.coords[:0]
}
