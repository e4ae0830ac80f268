package marker

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/OCAP2/markers/internal/ease"
	"github.com/OCAP2/markers/internal/geo"
	"github.com/OCAP2/markers/internal/mesh"
	"github.com/OCAP2/markers/internal/style"
	"github.com/OCAP2/markers/pkg/core"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/OCAP2/markers/internal/marker"

// Manager owns all markers. It is not safe for concurrent use: every method
// must be called from the host's update/render loop.
type Manager struct {
	markers []*Marker // insertion order
	byID    map[core.MarkerID]*Marker

	idCounter uint32
	zoom      int

	colors    *colorAllocator
	selection selectionIndex

	bridge     *style.Bridge
	builders   map[string]mesh.Builder
	projection geo.Projection

	clock  func() time.Time
	logger *slog.Logger

	live          atomic.Int64
	liveGauge     metric.Int64ObservableGauge
	builds        metric.Int64Counter
	buildFailures metric.Int64Counter
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for per-marker build diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithClock replaces time.Now as the source of animation time.
func WithClock(clock func() time.Time) Option {
	return func(m *Manager) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// WithProjection sets the map projection used to place geometry.
func WithProjection(p geo.Projection) Option {
	return func(m *Manager) {
		if p != nil {
			m.projection = p
		}
	}
}

// WithScene installs the initial scene.
func WithScene(s *style.Scene) Option {
	return func(m *Manager) {
		m.bridge.SetScene(s)
	}
}

// New creates an empty Manager.
// Uses the global OTel meter for metrics (no-op if not configured).
func New(opts ...Option) (*Manager, error) {
	m := &Manager{
		byID:       make(map[core.MarkerID]*Marker),
		colors:     newColorAllocator(),
		selection:  make(selectionIndex),
		bridge:     style.NewBridge(nil),
		builders:   make(map[string]mesh.Builder),
		projection: geo.NewMercator(geo.DefaultTileSize),
		clock:      time.Now,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(m)
	}

	if err := m.initMetrics(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) initMetrics() error {
	mt := otel.Meter(instrumentationName)

	var err error
	m.liveGauge, err = mt.Int64ObservableGauge(
		"markers.live",
		metric.WithDescription("Current number of live markers"),
	)
	if err != nil {
		return fmt.Errorf("creating live markers gauge: %w", err)
	}

	_, err = mt.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			o.ObserveInt64(m.liveGauge, m.live.Load())
			return nil
		},
		m.liveGauge,
	)
	if err != nil {
		return fmt.Errorf("registering live markers callback: %w", err)
	}

	m.builds, err = mt.Int64Counter(
		"markers.builds",
		metric.WithDescription("Total marker meshes built"),
	)
	if err != nil {
		return fmt.Errorf("creating builds counter: %w", err)
	}

	m.buildFailures, err = mt.Int64Counter(
		"markers.build.failures",
		metric.WithDescription("Total marker builds that failed styling or tessellation"),
	)
	if err != nil {
		return fmt.Errorf("creating build failures counter: %w", err)
	}

	return nil
}

// SetScene installs the styling context used by later resolutions. Existing
// meshes are kept; call RebuildAll to apply the new scene to them.
func (m *Manager) SetScene(s *style.Scene) {
	m.bridge.SetScene(s)
	clear(m.builders)
}

// SetProjection replaces the map projection. Like SetScene it does not
// rebuild existing markers.
func (m *Manager) SetProjection(p geo.Projection) {
	if p != nil {
		m.projection = p
	}
}

// Add creates an empty marker and returns its ID. IDs come from a uint32
// counter; should it ever wrap, IDs still held by live markers are skipped.
// Add returns core.InvalidMarkerID only when every selection color is in use.
func (m *Manager) Add() core.MarkerID {
	color, ok := m.colors.acquire()
	if !ok {
		m.logger.Error("Selection colors exhausted", "markers", len(m.markers))
		return core.InvalidMarkerID
	}

	var id core.MarkerID
	for {
		m.idCounter++
		id = core.MarkerID(m.idCounter)
		if _, live := m.byID[id]; id.Valid() && !live {
			break
		}
	}

	mk := newMarker(id, color)
	m.markers = append(m.markers, mk)
	m.byID[id] = mk
	m.live.Add(1)
	return id
}

// Remove destroys the marker. It returns false for unknown IDs.
func (m *Manager) Remove(id core.MarkerID) bool {
	mk := m.Marker(id)
	if mk == nil {
		return false
	}
	m.selection.remove(mk)
	m.colors.release(mk.selectionColor)
	delete(m.byID, id)
	m.markers = slices.DeleteFunc(m.markers, func(other *Marker) bool { return other == mk })
	m.live.Add(-1)
	return true
}

// RemoveAll destroys every marker. IDs are not reissued afterwards.
func (m *Manager) RemoveAll() {
	m.markers = nil
	clear(m.byID)
	clear(m.selection)
	m.colors.reset()
	m.live.Store(0)
}

// Marker returns the live marker with the given ID, or nil.
func (m *Manager) Marker(id core.MarkerID) *Marker {
	if !id.Valid() {
		return nil
	}
	return m.byID[id]
}

// Markers returns all markers in insertion order. The slice must not be modified.
func (m *Manager) Markers() []*Marker {
	return m.markers
}

// Len returns the number of live markers.
func (m *Manager) Len() int {
	return len(m.markers)
}

// Zoom returns the zoom of the last Update.
func (m *Manager) Zoom() int {
	return m.zoom
}

// MarkerBySelectionColor returns the visible, built marker owning color, or nil.
func (m *Manager) MarkerBySelectionColor(color uint32) *Marker {
	return m.selection[color]
}

// DrawList returns the visible markers whose meshes are current for zoom,
// ordered by draw order and then insertion order.
func (m *Manager) DrawList(zoom int) []*Marker {
	list := make([]*Marker, 0, len(m.markers))
	for _, mk := range m.markers {
		if mk.visible && mk.current(zoom) {
			list = append(list, mk)
		}
	}
	slices.SortStableFunc(list, func(a, b *Marker) int {
		return cmp.Compare(a.drawOrder, b.drawOrder)
	})
	return list
}

// SetStyling stores new styling text; it is resolved on the next Update.
func (m *Manager) SetStyling(id core.MarkerID, styling string) bool {
	mk := m.Marker(id)
	if mk == nil {
		return false
	}
	mk.styling = styling
	mk.styleDirty = true
	mk.invalidate()
	return true
}

// SetBitmap stores a copy of the pixel buffer for the marker's icon.
func (m *Manager) SetBitmap(id core.MarkerID, width, height int, pixels []uint32) bool {
	mk := m.Marker(id)
	if mk == nil {
		return false
	}
	bmp, err := core.NewBitmap(width, height, pixels)
	if err != nil {
		return false
	}
	mk.bitmap = bmp
	mk.invalidate()
	return true
}

// SetVisible shows or hides the marker. Hidden markers keep their mesh but
// are left out of the draw list and selection lookups.
func (m *Manager) SetVisible(id core.MarkerID, visible bool) bool {
	mk := m.Marker(id)
	if mk == nil {
		return false
	}
	mk.visible = visible
	m.selection.sync(mk)
	return true
}

// SetDrawOrder sets the stacking order; higher values draw above lower ones.
func (m *Manager) SetDrawOrder(id core.MarkerID, order int) bool {
	mk := m.Marker(id)
	if mk == nil {
		return false
	}
	mk.drawOrder = order
	return true
}

// SetPoint makes the marker a point at ll, cancelling any animation.
func (m *Manager) SetPoint(id core.MarkerID, ll core.LngLat) bool {
	mk := m.Marker(id)
	if mk == nil || !geo.Valid(ll) {
		return false
	}
	mk.setGeometry(core.PointGeometry(ll))
	return true
}

// SetPointEased animates a point marker from its current position to ll.
// Markers that are not yet points, and non-positive durations, move
// immediately. Calling it mid-transition restarts from the position
// interpolated at the time of the call. Invalid coordinates are rejected.
func (m *Manager) SetPointEased(id core.MarkerID, ll core.LngLat, duration time.Duration, e ease.Type) bool {
	mk := m.Marker(id)
	if mk == nil || !geo.Valid(ll) {
		return false
	}
	from, isPoint := mk.geometry.Point()
	now := m.clock()
	if mk.easing != nil {
		from, _ = mk.easing.at(now)
	}
	if !isPoint || duration <= 0 {
		mk.setGeometry(core.PointGeometry(ll))
		return true
	}
	mk.easing = &easing{
		from:     from,
		to:       ll,
		start:    now,
		duration: duration,
		fn:       e.Func(),
	}
	return true
}

// SetPolyline makes the marker a polyline over the first count coordinates.
func (m *Manager) SetPolyline(id core.MarkerID, coords []core.LngLat, count int) bool {
	mk := m.Marker(id)
	if mk == nil || count < 0 || count > len(coords) {
		return false
	}
	points := coords[:count]
	if err := geo.ValidatePolyline(points); err != nil {
		return false
	}
	mk.setGeometry(core.PolylineGeometry(points))
	return true
}

// SetPolygon makes the marker a polygon; ringCounts[:rings] partitions coords
// into rings.
func (m *Manager) SetPolygon(id core.MarkerID, coords []core.LngLat, ringCounts []int, rings int) bool {
	mk := m.Marker(id)
	if mk == nil || rings < 1 || rings > len(ringCounts) {
		return false
	}
	counts := ringCounts[:rings]
	if err := geo.ValidatePolygon(coords, counts); err != nil {
		return false
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	mk.setGeometry(core.PolygonGeometry(coords[:total], counts))
	return true
}

// Update advances animations and rebuilds every marker that is invalidated
// or was built for a different zoom. It reports whether anything renderable
// changed.
func (m *Manager) Update(zoom int) bool {
	changed := m.advanceEasing(m.clock())
	m.zoom = zoom
	for _, mk := range m.markers {
		if mk.stale(zoom) && m.rebuild(mk, zoom) {
			changed = true
		}
	}
	return changed
}

// RebuildAll re-resolves styling and rebuilds every marker at the current
// zoom, e.g. after the scene was replaced.
func (m *Manager) RebuildAll() {
	for _, mk := range m.markers {
		mk.styleDirty = true
		mk.invalidate()
		m.rebuild(mk, m.zoom)
	}
}

func (m *Manager) advanceEasing(now time.Time) bool {
	changed := false
	for _, mk := range m.markers {
		if mk.easing == nil {
			continue
		}
		ll, done := mk.easing.at(now)
		if done {
			mk.easing = nil
		}
		if mk.geometry.Points[0] != ll {
			mk.geometry.Points[0] = ll
			mk.invalidate()
			changed = true
		}
	}
	return changed
}
