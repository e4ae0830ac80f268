package mesh

import (
	"fmt"

	"github.com/OCAP2/markers/internal/style"
	"github.com/OCAP2/markers/pkg/core"
	"github.com/gogpu/gg"
)

// PointBuilder draws a screen-aligned quad centred on the marker origin.
// Without an explicit size in the rule the quad takes the bitmap's size, or
// style.DefaultPointSize when there is no bitmap.
type PointBuilder struct{}

func (b *PointBuilder) Build(in Input) (*Mesh, error) {
	if in.Kind != core.GeometryPoint || len(in.Points) == 0 {
		return nil, fmt.Errorf("%w: points style cannot draw %s", ErrUnsupportedGeometry, in.Kind)
	}

	size := in.Rule.Size
	if size[0].IsZero() && size[1].IsZero() {
		size = [2]style.Dimension{style.DefaultPointSize, style.DefaultPointSize}
		if in.Bitmap != nil {
			size = [2]style.Dimension{style.Px(float64(in.Bitmap.Width)), style.Px(float64(in.Bitmap.Height))}
		}
	}
	w := size[0].Pixels(in.MetersPerPixel)
	h := size[1].Pixels(in.MetersPerPixel)
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: point size %gx%g", ErrDegenerate, w, h)
	}

	c := in.Points[0]
	hw, hh := w/2, h/2
	m := newMesh(in)
	m.Bitmap = in.Bitmap
	m.appendQuad(
		gg.Pt(c.X-hw, c.Y-hh),
		gg.Pt(c.X+hw, c.Y-hh),
		gg.Pt(c.X+hw, c.Y+hh),
		gg.Pt(c.X-hw, c.Y+hh),
	)
	m.Path = gg.NewPath()
	m.Path.Rectangle(c.X-hw, c.Y-hh, w, h)
	m.Bounds = gg.NewRect(m.Vertices[0], m.Vertices[2])
	return m, nil
}
