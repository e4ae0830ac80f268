package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/OCAP2/markers/internal/config"
	"github.com/OCAP2/markers/internal/dispatcher"
	"github.com/OCAP2/markers/internal/ease"
	"github.com/OCAP2/markers/internal/handlers"
	"github.com/OCAP2/markers/internal/marker"
	"github.com/OCAP2/markers/pkg/core"
	"github.com/gogpu/gg"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRunner(t *testing.T) (*runner, *marker.Manager, *bytes.Buffer) {
	t.Helper()
	clock := newScriptClock()
	m, err := marker.New(marker.WithClock(clock.Now))
	require.NoError(t, err)
	d, err := dispatcher.New(nil)
	require.NoError(t, err)
	handlers.NewService(handlers.Dependencies{
		Manager:      m,
		DefaultEase:  ease.Linear,
		EaseDuration: time.Second,
	}).RegisterHandlers(d)

	out := &bytes.Buffer{}
	return &runner{d: d, clock: clock, out: out, logger: slog.New(slog.DiscardHandler)}, m, out
}

func TestRunner_SkipsCommentsAndBlankLines(t *testing.T) {
	r, m, out := newTestRunner(t)

	failed, err := r.run(strings.NewReader("# header\n\n   \nadd\n"))
	require.NoError(t, err)
	assert.Zero(t, failed)
	assert.Equal(t, 1, m.Len())
	assert.Contains(t, out.String(), "4: add -> 1")
}

func TestRunner_ClockSteps(t *testing.T) {
	r, m, _ := newTestRunner(t)
	start := r.clock.Now()

	script := "add\npoint 1 0,0\nease 1 10,0 2s linear\n+1s\nupdate 3\n"
	failed, err := r.run(strings.NewReader(script))
	require.NoError(t, err)
	assert.Zero(t, failed)
	assert.Equal(t, start.Add(time.Second), r.clock.Now())

	p, ok := m.Marker(1).Point()
	require.True(t, ok)
	assert.InDelta(t, 5, p.Lng, 1e-9)
}

func TestRunner_CountsFailuresAndContinues(t *testing.T) {
	r, m, out := newTestRunner(t)

	script := strings.Join([]string{
		"add",
		"bogus 1",
		"point 99 0,0",
		"polyline 1 [[0,0]",
		"+soon",
		"visible 1 false",
	}, "\n")
	failed, err := r.run(strings.NewReader(script))
	require.NoError(t, err)
	assert.Equal(t, 4, failed)
	assert.False(t, m.Marker(1).Visible(), "commands after failures still run")
	assert.Contains(t, out.String(), "2: bogus: error:")
	assert.Contains(t, out.String(), "3: point: error:")
}

func TestPrintDrawList(t *testing.T) {
	r, m, out := newTestRunner(t)

	_, err := r.run(strings.NewReader("add\npoint 1 0,0\nadd\nvisible 2 false\nupdate 2\n"))
	require.NoError(t, err)
	out.Reset()

	printDrawList(out, m)
	text := out.String()
	assert.Contains(t, text, "zoom 2: 1 of 2 markers drawable")
	assert.Contains(t, text, "#1 order=0")
	assert.Contains(t, text, "point(0,0)")
	assert.NotContains(t, text, "#2 ")
}

func TestHexColor(t *testing.T) {
	assert.Equal(t, "#ff8000ff", hexColor(gg.RGBA{R: 1, G: 128.0 / 255, B: 0, A: 1}))
	assert.Equal(t, "#00000000", hexColor(gg.RGBA{R: -1, A: 0}))
}

func TestDescribeGeometry(t *testing.T) {
	m, err := marker.New()
	require.NoError(t, err)

	id := m.Add()
	require.True(t, m.SetPolygon(id, []core.LngLat{{0, 0}, {1, 0}, {1, 1}, {0, 0}}, []int{4}, 1))
	assert.Equal(t, "polygon(4 pts, 1 rings)", describeGeometry(m.Marker(id)))

	id = m.Add()
	require.True(t, m.SetPolyline(id, []core.LngLat{{0, 0}, {1, 1}}, 2))
	assert.Equal(t, "polyline(2 pts)", describeGeometry(m.Marker(id)))
}

func writeTestConfig(t *testing.T) string {
	t.Helper()
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	scene, err := filepath.Abs(filepath.Join("testdata", "scene.yaml"))
	require.NoError(t, err)
	body := `{
		"logLevel": "debug",
		"logsDir": "` + filepath.ToSlash(filepath.Join(dir, "logs")) + `",
		"scene": { "path": "` + filepath.ToSlash(scene) + `" },
		"markers": { "defaultEase": "linear", "easeDuration": "500ms" },
		"storage": {
			"type": "sqlite",
			"sqlite": { "path": "` + filepath.ToSlash(filepath.Join(dir, "markers.db")) + `" }
		}
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.FileName), []byte(body), 0644))
	return dir
}

func TestRun_ReplaysScript(t *testing.T) {
	dir := writeTestConfig(t)
	out := &bytes.Buffer{}

	err := run([]string{"-config", dir, "run", filepath.Join("testdata", "convoy.markers")}, out)
	require.NoError(t, err)

	text := out.String()
	assert.NotContains(t, text, "failed")
	assert.Contains(t, text, "zoom 6: 3 of 3 markers drawable")
	assert.Contains(t, text, "point(12,21)", "the eased marker ends at its destination")
	assert.Contains(t, text, "style=roads/lines")
	assert.Less(t, strings.Index(text, "#3 "), strings.Index(text, "#1 "), "negative order draws first")

	entries, err := os.ReadDir(filepath.Join(dir, "logs"))
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
}

func TestRun_SnapshotRestoreList(t *testing.T) {
	dir := writeTestConfig(t)
	script := filepath.Join("testdata", "convoy.markers")

	out := &bytes.Buffer{}
	require.NoError(t, run([]string{"-config", dir, "snapshot", script}, out))
	assert.Contains(t, out.String(), "saved snapshot 1 (3 markers)")
	viper.Reset()

	out.Reset()
	require.NoError(t, run([]string{"-config", dir, "-zoom", "6", "restore"}, out))
	assert.Contains(t, out.String(), "zoom 6: 3 of 3 markers drawable")
	assert.Contains(t, out.String(), "point(12,21)")
	viper.Reset()

	out.Reset()
	require.NoError(t, run([]string{"-config", dir, "list"}, out))
	assert.Contains(t, out.String(), "3 markers")

	viper.Reset()
	err := run([]string{"-config", dir, "restore", "42"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestRun_Usage(t *testing.T) {
	dir := writeTestConfig(t)

	assert.ErrorIs(t, run(nil, &bytes.Buffer{}), errUsage)
	assert.ErrorIs(t, run([]string{"-config", dir, "run"}, &bytes.Buffer{}), errUsage)
	assert.ErrorIs(t, run([]string{"-config", dir, "launch"}, &bytes.Buffer{}), errUsage)
}
