package mesh

import (
	"fmt"
	"math"

	"github.com/OCAP2/markers/internal/geo"
	"github.com/OCAP2/markers/pkg/core"
	"github.com/gogpu/gg"
)

// PolylineBuilder extrudes each segment into a quad of the rule's width.
// Polygon geometry is stroked along its rings.
type PolylineBuilder struct{}

func (b *PolylineBuilder) Build(in Input) (*Mesh, error) {
	var lines [][]gg.Point
	switch in.Kind {
	case core.GeometryPolyline:
		lines = [][]gg.Point{in.Points}
	case core.GeometryPolygon:
		for _, ring := range rings(in.Points, in.RingCounts) {
			closed := append(append([]gg.Point(nil), ring...), ring[0])
			lines = append(lines, closed)
		}
	default:
		return nil, fmt.Errorf("%w: lines style cannot draw %s", ErrUnsupportedGeometry, in.Kind)
	}

	width := in.Rule.Width.Pixels(in.MetersPerPixel)
	if width <= 0 {
		return nil, fmt.Errorf("%w: line width %g", ErrDegenerate, width)
	}

	m := newMesh(in)
	m.Path = gg.NewPath()
	for _, line := range lines {
		if len(line) < 2 {
			return nil, fmt.Errorf("%w: line needs 2 points, got %d", ErrDegenerate, len(line))
		}
		length, err := lineLength(line)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDegenerate, err)
		}
		if length == 0 || math.IsNaN(length) || math.IsInf(length, 0) {
			return nil, fmt.Errorf("%w: line length %g", ErrDegenerate, length)
		}
		m.Path.MoveTo(line[0].X, line[0].Y)
		for i := 1; i < len(line); i++ {
			m.Path.LineTo(line[i].X, line[i].Y)
			extrude(m, line[i-1], line[i], width/2)
		}
	}

	bb := m.Path.BoundingBox()
	pad := gg.Pt(width/2, width/2)
	m.Bounds = gg.Rect{Min: bb.Min.Sub(pad), Max: bb.Max.Add(pad)}
	return m, nil
}

func extrude(m *Mesh, a, b gg.Point, half float64) {
	d := b.Sub(a)
	l := math.Hypot(d.X, d.Y)
	if l == 0 {
		return
	}
	n := gg.Pt(-d.Y/l*half, d.X/l*half)
	m.appendQuad(a.Add(n), b.Add(n), b.Sub(n), a.Sub(n))
}

func lineLength(points []gg.Point) (float64, error) {
	ms := make([]geo.Meters, len(points))
	for i, p := range points {
		ms[i] = geo.Meters{X: p.X, Y: p.Y}
	}
	ls, err := geo.LineString(ms)
	if err != nil {
		return 0, err
	}
	return ls.Length(), nil
}
