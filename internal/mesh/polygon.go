package mesh

import (
	"fmt"
	"math"

	"github.com/OCAP2/markers/pkg/core"
	"github.com/gogpu/gg"
)

// minRingArea is the smallest ring area, in square pixels, that is drawn.
const minRingArea = 1e-9

// PolygonBuilder produces a closed path per ring, filled with the non-zero rule.
type PolygonBuilder struct{}

func (b *PolygonBuilder) Build(in Input) (*Mesh, error) {
	if in.Kind != core.GeometryPolygon {
		return nil, fmt.Errorf("%w: polygons style cannot draw %s", ErrUnsupportedGeometry, in.Kind)
	}

	rs := rings(in.Points, in.RingCounts)
	if len(rs) == 0 {
		return nil, fmt.Errorf("%w: polygon has no rings", ErrDegenerate)
	}

	m := newMesh(in)
	m.Path = gg.NewPath()
	for i, ring := range rs {
		p := gg.NewPath()
		p.MoveTo(ring[0].X, ring[0].Y)
		m.Path.MoveTo(ring[0].X, ring[0].Y)
		for _, pt := range ring[1:] {
			p.LineTo(pt.X, pt.Y)
			m.Path.LineTo(pt.X, pt.Y)
		}
		p.Close()
		m.Path.Close()
		if math.Abs(p.Area()) < minRingArea {
			return nil, fmt.Errorf("%w: ring %d has no area", ErrDegenerate, i)
		}
		m.Vertices = append(m.Vertices, ring...)
	}
	m.Bounds = m.Path.BoundingBox()
	return m, nil
}
