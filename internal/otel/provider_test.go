package otel

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/OCAP2/markers/internal/logging"
	"github.com/OCAP2/markers/internal/marker"
	"github.com/OCAP2/markers/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestNew_Disabled(t *testing.T) {
	p, err := New(Config{Enabled: false})
	require.NoError(t, err)

	assert.False(t, p.Enabled())
	assert.Nil(t, p.LoggerProvider())
	assert.Equal(t, noop.Meter{}, p.Meter("x"))
	assert.NoError(t, p.Flush(context.Background()))
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNew_EnabledWithoutOutputs(t *testing.T) {
	_, err := New(Config{Enabled: true, ServiceName: "markers"})
	assert.Error(t, err)
}

func TestNew_LogWriter(t *testing.T) {
	var buf bytes.Buffer
	p, err := New(Config{
		Enabled:      true,
		ServiceName:  "markers-test",
		BatchTimeout: time.Second,
		LogWriter:    &buf,
	})
	require.NoError(t, err)
	require.NotNil(t, p.LoggerProvider())

	lm := logging.NewSlogManager()
	lm.Setup(&bytes.Buffer{}, "info", p.LoggerProvider())
	lm.Logger().Warn("Marker build failed", slog.Int("zoom", 4))

	require.NoError(t, p.Flush(context.Background()))
	assert.Contains(t, buf.String(), "Marker build failed")

	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNew_MetricWriter(t *testing.T) {
	var logs, metrics bytes.Buffer
	p, err := New(Config{
		Enabled:      true,
		ServiceName:  "markers-test",
		BatchTimeout: time.Hour,
		LogWriter:    &logs,
		MetricWriter: &metrics,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	m, err := marker.New()
	require.NoError(t, err)
	id := m.Add()
	require.True(t, m.SetPoint(id, core.LngLat{Lng: 1, Lat: 2}))
	require.True(t, m.Update(3))

	require.NoError(t, p.Flush(context.Background()))
	assert.Contains(t, metrics.String(), "markers.builds")
	assert.Contains(t, metrics.String(), "markers.live")
}
