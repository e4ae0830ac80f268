// Package marker owns the set of user-placed map markers and keeps each
// marker's mesh in step with its styling, geometry, animation and the
// current zoom.
package marker

import (
	"github.com/OCAP2/markers/internal/mesh"
	"github.com/OCAP2/markers/internal/style"
	"github.com/OCAP2/markers/pkg/core"
)

// Marker is one marker's full state. Markers are owned by a Manager and are
// read-only to everyone else.
type Marker struct {
	id             core.MarkerID
	styling        string
	geometry       core.Geometry
	bitmap         *core.Bitmap
	visible        bool
	drawOrder      int
	selectionColor uint32

	mesh      *mesh.Mesh
	builtZoom int
	built     bool

	// rule is the resolved styling; nil until resolved or after a failure.
	rule       *style.DrawRule
	styleDirty bool
	meshDirty  bool

	easing *easing
}

func newMarker(id core.MarkerID, selectionColor uint32) *Marker {
	return &Marker{
		id:             id,
		visible:        true,
		selectionColor: selectionColor,
		styleDirty:     true,
		meshDirty:      true,
	}
}

func (m *Marker) ID() core.MarkerID               { return m.id }
func (m *Marker) Styling() string                 { return m.styling }
func (m *Marker) Bitmap() *core.Bitmap            { return m.bitmap }
func (m *Marker) Visible() bool                   { return m.visible }
func (m *Marker) DrawOrder() int                  { return m.drawOrder }
func (m *Marker) SelectionColor() uint32          { return m.selectionColor }
func (m *Marker) Mesh() *mesh.Mesh                { return m.mesh }
func (m *Marker) IsEasing() bool                  { return m.easing != nil }
func (m *Marker) Rule() *style.DrawRule           { return m.rule }
func (m *Marker) GeometryKind() core.GeometryKind { return m.geometry.Kind }

// Geometry returns a copy of the marker's geometry. For an animating point
// this is the current interpolated position.
func (m *Marker) Geometry() core.Geometry {
	return m.geometry.Clone()
}

// Point returns the effective coordinate of a point marker.
func (m *Marker) Point() (core.LngLat, bool) {
	return m.geometry.Point()
}

// BuiltZoom returns the zoom of the last build pass; ok is false before the
// first one.
func (m *Marker) BuiltZoom() (zoom int, ok bool) {
	return m.builtZoom, m.built
}

// current reports whether the mesh exists and reflects the latest state for zoom.
func (m *Marker) current(zoom int) bool {
	return m.mesh != nil && m.built && !m.meshDirty && !m.styleDirty && m.builtZoom == zoom
}

// stale reports whether the marker needs a build pass at zoom.
func (m *Marker) stale(zoom int) bool {
	return m.meshDirty || m.styleDirty || !m.built || m.builtZoom != zoom
}

// setGeometry replaces the geometry; a change of kind re-resolves styling
// because the default style depends on it.
func (m *Marker) setGeometry(g core.Geometry) {
	if g.Kind != m.geometry.Kind {
		m.styleDirty = true
	}
	m.geometry = g
	m.easing = nil
	m.invalidate()
}

func (m *Marker) invalidate() {
	m.meshDirty = true
}
