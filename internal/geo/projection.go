package geo

import (
	"math"

	"github.com/OCAP2/markers/pkg/core"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"github.com/wroge/wgs84"
)

// Web Mercator constants (EPSG:3857).
const (
	EarthRadius   = 6378137.0
	MaxLatitude   = 85.05112878
	earthHalfCirc = math.Pi * EarthRadius

	// DefaultTileSize is the edge length of a map tile in pixels.
	DefaultTileSize = 256.0
)

// Meters is a planar coordinate in projected meters.
type Meters struct {
	X float64
	Y float64
}

// Projection transforms geographic coordinates into the planar space used
// for tessellation.
type Projection interface {
	LngLatToMeters(ll core.LngLat) Meters
	MetersPerPixel(zoom int) float64
}

// Mercator projects WGS84 coordinates to EPSG:3857 meters.
type Mercator struct {
	tileSize  float64
	transform func(a, b, c float64) (float64, float64, float64)
}

// NewMercator creates a Web Mercator projection with the given tile size.
// A non-positive tileSize selects DefaultTileSize.
func NewMercator(tileSize float64) *Mercator {
	if tileSize <= 0 {
		tileSize = DefaultTileSize
	}
	epsg := wgs84.EPSG()
	return &Mercator{
		tileSize:  tileSize,
		transform: epsg.Transform(4326, 3857),
	}
}

// LngLatToMeters projects ll, clamping latitude to the Mercator limit.
func (m *Mercator) LngLatToMeters(ll core.LngLat) Meters {
	lat := math.Max(-MaxLatitude, math.Min(MaxLatitude, ll.Lat))
	x, y, _ := m.transform(ll.Lng, lat, 0)
	return Meters{X: x, Y: y}
}

// MetersPerPixel returns the ground resolution at zoom.
func (m *Mercator) MetersPerPixel(zoom int) float64 {
	return 2 * earthHalfCirc / (m.tileSize * math.Exp2(float64(zoom)))
}

// TileSize returns the tile edge length in pixels.
func (m *Mercator) TileSize() float64 {
	return m.tileSize
}

// TileAt returns the map tile containing ll at zoom.
func TileAt(ll core.LngLat, zoom int) maptile.Tile {
	if zoom < 0 {
		zoom = 0
	}
	lat := math.Max(-MaxLatitude, math.Min(MaxLatitude, ll.Lat))
	return maptile.At(orb.Point{ll.Lng, lat}, maptile.Zoom(zoom))
}
