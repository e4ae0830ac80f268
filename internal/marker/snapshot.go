package marker

import (
	"github.com/OCAP2/markers/pkg/core"
)

// Snapshot is the user-set state of one marker, suitable for persisting.
// Build products and animation progress are not part of it.
type Snapshot struct {
	ID        core.MarkerID
	Styling   string
	Geometry  core.Geometry
	Bitmap    *core.Bitmap
	Visible   bool
	DrawOrder int
}

// Snapshot exports every marker in insertion order. Animating points are
// recorded at their destination.
func (m *Manager) Snapshot() []Snapshot {
	out := make([]Snapshot, 0, len(m.markers))
	for _, mk := range m.markers {
		g := mk.geometry.Clone()
		if mk.easing != nil {
			g.Points[0] = mk.easing.to
		}
		out = append(out, Snapshot{
			ID:        mk.id,
			Styling:   mk.styling,
			Geometry:  g,
			Bitmap:    mk.bitmap,
			Visible:   mk.visible,
			DrawOrder: mk.drawOrder,
		})
	}
	return out
}

// Restore adds one marker per snapshot and returns the IDs they were given,
// keyed by the snapshot IDs. IDs are never reused, so restored markers
// always get fresh ones. Geometry that fails validation is skipped, leaving
// that marker empty. Restoring stops early if Add runs out of selection
// colors.
func (m *Manager) Restore(snaps []Snapshot) map[core.MarkerID]core.MarkerID {
	ids := make(map[core.MarkerID]core.MarkerID, len(snaps))
	for _, s := range snaps {
		id := m.Add()
		if !id.Valid() {
			break
		}
		ids[s.ID] = id

		m.SetStyling(id, s.Styling)
		m.SetVisible(id, s.Visible)
		m.SetDrawOrder(id, s.DrawOrder)
		if s.Bitmap != nil {
			m.SetBitmap(id, s.Bitmap.Width, s.Bitmap.Height, s.Bitmap.Pixels)
		}

		g := s.Geometry
		switch g.Kind {
		case core.GeometryPoint:
			if p, ok := g.Point(); ok {
				m.SetPoint(id, p)
			}
		case core.GeometryPolyline:
			m.SetPolyline(id, g.Points, len(g.Points))
		case core.GeometryPolygon:
			m.SetPolygon(id, g.Points, g.RingCounts, len(g.RingCounts))
		}
	}
	return ids
}
