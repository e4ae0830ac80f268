// pkg/core/marker.go
package core

import (
	"errors"
	"fmt"
)

// MarkerID identifies a marker for its whole lifetime. Zero is never valid.
type MarkerID uint32

// InvalidMarkerID is the reserved zero identity.
const InvalidMarkerID MarkerID = 0

// Valid reports whether the id can refer to a marker at all.
func (id MarkerID) Valid() bool {
	return id != InvalidMarkerID
}

// LngLat is a geographic coordinate in degrees
type LngLat struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

// Lerp interpolates between a and b; t=0 yields a, t=1 yields b.
func (a LngLat) Lerp(b LngLat, t float64) LngLat {
	if t >= 1 {
		return b
	}
	return LngLat{
		Lng: a.Lng + (b.Lng-a.Lng)*t,
		Lat: a.Lat + (b.Lat-a.Lat)*t,
	}
}

func (a LngLat) String() string {
	return fmt.Sprintf("%g,%g", a.Lng, a.Lat)
}

// GeometryKind tags the variant held by a Geometry.
type GeometryKind uint8

const (
	GeometryNone GeometryKind = iota
	GeometryPoint
	GeometryPolyline
	GeometryPolygon
)

func (k GeometryKind) String() string {
	switch k {
	case GeometryPoint:
		return "point"
	case GeometryPolyline:
		return "polyline"
	case GeometryPolygon:
		return "polygon"
	default:
		return "none"
	}
}

// ParseGeometryKind is the inverse of GeometryKind.String.
func ParseGeometryKind(s string) (GeometryKind, error) {
	switch s {
	case "none", "":
		return GeometryNone, nil
	case "point":
		return GeometryPoint, nil
	case "polyline":
		return GeometryPolyline, nil
	case "polygon":
		return GeometryPolygon, nil
	}
	return GeometryNone, fmt.Errorf("unknown geometry kind %q", s)
}

// Geometry is a tagged variant over point, polyline and polygon shapes.
// Polygons partition Points into rings using RingCounts.
type Geometry struct {
	Kind       GeometryKind
	Points     []LngLat
	RingCounts []int
}

// PointGeometry returns a point geometry at p.
func PointGeometry(p LngLat) Geometry {
	return Geometry{Kind: GeometryPoint, Points: []LngLat{p}}
}

// PolylineGeometry copies points into a polyline geometry.
func PolylineGeometry(points []LngLat) Geometry {
	return Geometry{Kind: GeometryPolyline, Points: append([]LngLat(nil), points...)}
}

// PolygonGeometry copies points and ring counts into a polygon geometry.
func PolygonGeometry(points []LngLat, ringCounts []int) Geometry {
	return Geometry{
		Kind:       GeometryPolygon,
		Points:     append([]LngLat(nil), points...),
		RingCounts: append([]int(nil), ringCounts...),
	}
}

// Point returns the coordinate of a point geometry.
func (g Geometry) Point() (LngLat, bool) {
	if g.Kind != GeometryPoint || len(g.Points) == 0 {
		return LngLat{}, false
	}
	return g.Points[0], true
}

// Rings splits a polygon's points by its ring counts.
func (g Geometry) Rings() [][]LngLat {
	if g.Kind != GeometryPolygon {
		return nil
	}
	rings := make([][]LngLat, 0, len(g.RingCounts))
	offset := 0
	for _, n := range g.RingCounts {
		rings = append(rings, g.Points[offset:offset+n])
		offset += n
	}
	return rings
}

// Clone returns a deep copy.
func (g Geometry) Clone() Geometry {
	return Geometry{
		Kind:       g.Kind,
		Points:     append([]LngLat(nil), g.Points...),
		RingCounts: append([]int(nil), g.RingCounts...),
	}
}

// ErrInvalidBitmap is returned for non-positive dimensions or short pixel buffers.
var ErrInvalidBitmap = errors.New("invalid bitmap")

// Bitmap is a packed 32-bit pixel buffer, row major.
type Bitmap struct {
	Width  int
	Height int
	Pixels []uint32
}

// NewBitmap validates the dimensions and copies pixels.
func NewBitmap(width, height int, pixels []uint32) (*Bitmap, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidBitmap, width, height)
	}
	if pixels == nil || len(pixels) < width*height {
		return nil, fmt.Errorf("%w: need %d pixels, got %d", ErrInvalidBitmap, width*height, len(pixels))
	}
	buf := make([]uint32, width*height)
	copy(buf, pixels)
	return &Bitmap{Width: width, Height: height, Pixels: buf}, nil
}
