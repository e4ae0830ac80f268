package marker

import (
	"context"
	"fmt"

	"github.com/OCAP2/markers/internal/geo"
	"github.com/OCAP2/markers/internal/mesh"
	"github.com/OCAP2/markers/pkg/core"
	"github.com/gogpu/gg"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	reasonStyle    = metric.WithAttributes(attribute.String("reason", "style"))
	reasonGeometry = metric.WithAttributes(attribute.String("reason", "geometry"))
)

// rebuild brings one marker up to date for zoom and reports whether its
// mesh changed. Failures are contained to the marker: it is left meshless
// and the pass continues with the next one.
func (m *Manager) rebuild(mk *Marker, zoom int) bool {
	if mk.geometry.Kind == core.GeometryNone {
		return false
	}
	had := mk.mesh != nil

	if mk.styleDirty {
		m.buildStyling(mk)
	}

	var built bool
	if mk.rule != nil {
		built = m.buildGeometry(mk, zoom)
	} else {
		// unresolved styling is retried only when the styling changes or
		// on RebuildAll, not on every zoom change
		mk.mesh = nil
	}

	mk.builtZoom = zoom
	mk.built = true
	mk.meshDirty = false
	m.selection.sync(mk)

	return built || had
}

func (m *Manager) buildStyling(mk *Marker) {
	mk.styleDirty = false
	rule, err := m.bridge.Resolve(mk.styling, mk.geometry.Kind)
	if err != nil {
		mk.rule = nil
		m.buildFailures.Add(context.Background(), 1, reasonStyle)
		m.logger.Warn("Marker styling failed",
			"marker", mk.id,
			"styling", mk.styling,
			"error", err,
		)
		return
	}
	mk.rule = &rule
}

func (m *Manager) buildGeometry(mk *Marker, zoom int) bool {
	builder, err := m.builderFor(mk.rule.Style)
	if err == nil {
		var msh *mesh.Mesh
		msh, err = builder.Build(m.buildInput(mk, zoom))
		if err == nil {
			mk.mesh = msh
			m.builds.Add(context.Background(), 1)
			return true
		}
	}

	mk.mesh = nil
	m.buildFailures.Add(context.Background(), 1, reasonGeometry)
	m.logger.Warn("Marker build failed",
		"marker", mk.id,
		"style", mk.rule.Style,
		"geometry", mk.geometry.Kind.String(),
		"zoom", zoom,
		"error", err,
	)
	return false
}

// builderFor returns the cached builder for a style, creating it on first use.
func (m *Manager) builderFor(styleName string) (mesh.Builder, error) {
	if b, ok := m.builders[styleName]; ok {
		return b, nil
	}
	def, ok := m.bridge.Scene().Style(styleName)
	if !ok {
		return nil, fmt.Errorf("style %q is not in the scene", styleName)
	}
	b, err := mesh.NewBuilder(def.Base)
	if err != nil {
		return nil, err
	}
	m.builders[styleName] = b
	return b, nil
}

// buildInput projects the marker's geometry into pixel space at zoom,
// relative to its first coordinate.
func (m *Manager) buildInput(mk *Marker, zoom int) mesh.Input {
	g := mk.geometry
	mpp := m.projection.MetersPerPixel(zoom)
	origin := m.projection.LngLatToMeters(g.Points[0])

	points := make([]gg.Point, len(g.Points))
	for i, ll := range g.Points {
		p := m.projection.LngLatToMeters(ll)
		points[i] = gg.Pt((p.X-origin.X)/mpp, (p.Y-origin.Y)/mpp)
	}

	return mesh.Input{
		Kind:           g.Kind,
		Points:         points,
		RingCounts:     g.RingCounts,
		Origin:         origin,
		Tile:           geo.TileAt(g.Points[0], zoom),
		Rule:           *mk.rule,
		Zoom:           zoom,
		MetersPerPixel: mpp,
		Bitmap:         mk.bitmap,
	}
}
