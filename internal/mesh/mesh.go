// Package mesh tessellates projected marker geometry into renderable meshes.
//
// Builders work in pixel space at a single zoom level: input points are
// relative to the marker origin, with y pointing north. A Mesh is only valid
// for the zoom it was built at.
package mesh

import (
	"errors"
	"fmt"

	"github.com/OCAP2/markers/internal/geo"
	"github.com/OCAP2/markers/internal/style"
	"github.com/OCAP2/markers/pkg/core"
	"github.com/gogpu/gg"
	"github.com/paulmach/orb/maptile"
)

var (
	ErrDegenerate          = errors.New("degenerate geometry")
	ErrUnsupportedGeometry = errors.New("unsupported geometry")
)

// Input is everything a builder needs to tessellate one marker.
type Input struct {
	Kind       core.GeometryKind
	Points     []gg.Point
	RingCounts []int

	Origin         geo.Meters
	Tile           maptile.Tile
	Rule           style.DrawRule
	Zoom           int
	MetersPerPixel float64
	Bitmap         *core.Bitmap
}

// Mesh is the renderable output of a builder.
type Mesh struct {
	Style string
	Base  style.Base
	Zoom  int

	Origin geo.Meters
	Tile   maptile.Tile

	// Vertices and Indices describe triangles in pixel space. Polygon meshes
	// leave Indices empty; their fill is described by Path.
	Vertices []gg.Point
	Indices  []uint32
	Path     *gg.Path
	Bounds   gg.Rect

	Color        gg.RGBA
	OutlineColor gg.RGBA
	OutlineWidth float64
	Bitmap       *core.Bitmap
}

// Builder tessellates one kind of style.
type Builder interface {
	Build(in Input) (*Mesh, error)
}

// NewBuilder returns the builder for a style base.
func NewBuilder(base style.Base) (Builder, error) {
	switch base {
	case style.BasePoints:
		return &PointBuilder{}, nil
	case style.BaseLines:
		return &PolylineBuilder{}, nil
	case style.BasePolygons:
		return &PolygonBuilder{}, nil
	}
	return nil, fmt.Errorf("no builder for style base %q", base)
}

func newMesh(in Input) *Mesh {
	return &Mesh{
		Style:        in.Rule.Style,
		Base:         in.Rule.Base,
		Zoom:         in.Zoom,
		Origin:       in.Origin,
		Tile:         in.Tile,
		Color:        in.Rule.Color,
		OutlineColor: in.Rule.OutlineColor,
		OutlineWidth: in.Rule.OutlineWidth.Pixels(in.MetersPerPixel),
	}
}

// appendQuad appends two triangles covering the quad a-b-c-d.
func (m *Mesh) appendQuad(a, b, c, d gg.Point) {
	base := uint32(len(m.Vertices))
	m.Vertices = append(m.Vertices, a, b, c, d)
	m.Indices = append(m.Indices, base, base+1, base+2, base+2, base+3, base)
}

// rings splits points by ring counts.
func rings(points []gg.Point, counts []int) [][]gg.Point {
	out := make([][]gg.Point, 0, len(counts))
	offset := 0
	for _, n := range counts {
		if offset+n > len(points) {
			break
		}
		out = append(out, points[offset:offset+n])
		offset += n
	}
	return out
}
