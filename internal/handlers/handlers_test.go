package handlers

import (
	"testing"
	"time"

	"github.com/OCAP2/markers/internal/dispatcher"
	"github.com/OCAP2/markers/internal/ease"
	"github.com/OCAP2/markers/internal/marker"
	"github.com/OCAP2/markers/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	mgr *marker.Manager
	d   *dispatcher.Dispatcher
	now time.Time
	svc *Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}

	mgr, err := marker.New(marker.WithClock(func() time.Time { return env.now }))
	require.NoError(t, err)
	d, err := dispatcher.New(nil)
	require.NoError(t, err)

	env.mgr = mgr
	env.d = d
	env.svc = NewService(Dependencies{
		Manager:      mgr,
		DefaultEase:  ease.Linear,
		EaseDuration: time.Second,
	})
	env.svc.RegisterHandlers(d)
	return env
}

func (env *testEnv) run(t *testing.T, command string, args ...string) (any, error) {
	t.Helper()
	return env.d.Dispatch(dispatcher.Event{Command: command, Args: args, Timestamp: env.now})
}

func (env *testEnv) mustRun(t *testing.T, command string, args ...string) any {
	t.Helper()
	result, err := env.run(t, command, args...)
	require.NoError(t, err, "%s %v", command, args)
	return result
}

func TestRegisterHandlers(t *testing.T) {
	env := newTestEnv(t)
	for _, c := range []string{"add", "styling", "bitmap", "point", "ease", "polyline", "polygon",
		"visible", "order", "remove", "update", "rebuild", "clear"} {
		assert.True(t, env.d.HasHandler(c), c)
	}
}

func TestAddAndPoint(t *testing.T) {
	env := newTestEnv(t)

	id := env.mustRun(t, "add")
	assert.Equal(t, core.MarkerID(1), id)

	env.mustRun(t, "point", "1", "[13.4,52.5]")
	p, ok := env.mgr.Marker(1).Point()
	require.True(t, ok)
	assert.Equal(t, core.LngLat{Lng: 13.4, Lat: 52.5}, p)

	assert.Equal(t, true, env.mustRun(t, "update", "5"))
	assert.Equal(t, false, env.mustRun(t, "update", "5"))
}

func TestStyling(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "add")

	env.mustRun(t, "styling", "1", `"{ style: points, color: ""#ff0000"" }"`)
	assert.Equal(t, `{ style: points, color: "#ff0000" }`, env.mgr.Marker(1).Styling())

	env.mustRun(t, "styling", "1")
	assert.Empty(t, env.mgr.Marker(1).Styling())
}

func TestEase_DefaultsAndOverrides(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "add")
	env.mustRun(t, "point", "1", "0,0")

	env.mustRun(t, "ease", "1", "[10,0]")
	env.now = env.now.Add(500 * time.Millisecond)
	env.mustRun(t, "update", "3")
	p, _ := env.mgr.Marker(1).Point()
	assert.InDelta(t, 5, p.Lng, 1e-9, "configured default duration and curve")

	env.mustRun(t, "ease", "1", "[0,0]", "2s", "linear")
	env.now = env.now.Add(time.Second)
	env.mustRun(t, "update", "3")
	p, _ = env.mgr.Marker(1).Point()
	assert.InDelta(t, 2.5, p.Lng, 1e-9)

	_, err := env.run(t, "ease", "1", "[0,0]", "soon")
	assert.ErrorIs(t, err, ErrBadArgs)
	_, err = env.run(t, "ease", "1", "[0,0]", "1s", "bouncy")
	assert.ErrorIs(t, err, ErrBadArgs)
}

func TestPolylineAndPolygon(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "add")
	env.mustRun(t, "add")

	env.mustRun(t, "polyline", "1", "[[0,0],[1,1],[2,0]]")
	assert.Equal(t, core.GeometryPolyline, env.mgr.Marker(1).GeometryKind())

	_, err := env.run(t, "polyline", "1", "[[0,0]]")
	assert.ErrorIs(t, err, ErrRejected)
	assert.Len(t, env.mgr.Marker(1).Geometry().Points, 3)

	env.mustRun(t, "polygon", "2", "[[0,0],[1,0],[1,1],[0,1]]")
	assert.Equal(t, []int{4}, env.mgr.Marker(2).Geometry().RingCounts)

	env.mustRun(t, "polygon", "2", "[[0,0],[4,0],[4,4],[0,4],[1,1],[2,1],[2,2]]", "[4,3]")
	assert.Equal(t, []int{4, 3}, env.mgr.Marker(2).Geometry().RingCounts)

	_, err = env.run(t, "polygon", "2", "[[0,0],[1,0],[1,1]]", "2")
	assert.ErrorIs(t, err, ErrRejected)
	_, err = env.run(t, "polygon", "2", "[[0,0],[1,0],[1,1]]", "x")
	assert.ErrorIs(t, err, ErrBadArgs)

	assert.Equal(t, true, env.mustRun(t, "update", "6"))
	assert.NotNil(t, env.mgr.Marker(1).Mesh())
	assert.NotNil(t, env.mgr.Marker(2).Mesh())
}

func TestBitmap(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "add")

	env.mustRun(t, "bitmap", "1", "2", "1", "[0xff0000ff,255]")
	assert.Equal(t, []uint32{0xff0000ff, 255}, env.mgr.Marker(1).Bitmap().Pixels)

	_, err := env.run(t, "bitmap", "1", "2", "2", "1,2")
	assert.ErrorIs(t, err, ErrRejected)
	_, err = env.run(t, "bitmap", "1", "2", "2", "red")
	assert.ErrorIs(t, err, ErrBadArgs)
}

func TestVisibleAndOrder(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "add")

	env.mustRun(t, "visible", "1", "false")
	assert.False(t, env.mgr.Marker(1).Visible())
	env.mustRun(t, "order", "1", "-3")
	assert.Equal(t, -3, env.mgr.Marker(1).DrawOrder())

	_, err := env.run(t, "visible", "1", "maybe")
	assert.ErrorIs(t, err, ErrBadArgs)
	_, err = env.run(t, "order", "1")
	assert.ErrorIs(t, err, ErrBadArgs)
}

func TestRemoveAndClear(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "add")
	env.mustRun(t, "add")

	env.mustRun(t, "remove", "1")
	_, err := env.run(t, "remove", "1")
	assert.ErrorIs(t, err, ErrRejected)
	_, err = env.run(t, "point", "1", "0,0")
	assert.ErrorIs(t, err, ErrRejected)

	env.mustRun(t, "clear")
	assert.Equal(t, 0, env.mgr.Len())
	assert.Equal(t, core.MarkerID(3), env.mustRun(t, "add"), "ids keep counting after clear")
}

func TestBadMarkerIDs(t *testing.T) {
	env := newTestEnv(t)

	for _, args := range [][]string{{}, {"abc", "0,0"}, {"-1", "0,0"}} {
		_, err := env.run(t, "point", args...)
		assert.ErrorIs(t, err, ErrBadArgs, "%v", args)
	}
	_, err := env.run(t, "update")
	assert.ErrorIs(t, err, ErrBadArgs)
	_, err = env.run(t, "update", "high")
	assert.ErrorIs(t, err, ErrBadArgs)
}

func TestRebuild(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "add")
	env.mustRun(t, "point", "1", "0,0")
	env.mustRun(t, "update", "2")
	before := env.mgr.Marker(1).Mesh()

	env.mustRun(t, "rebuild")
	assert.NotSame(t, before, env.mgr.Marker(1).Mesh())
}
