package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/OCAP2/markers/internal/config"
	"github.com/OCAP2/markers/internal/database"
	"github.com/OCAP2/markers/internal/marker"
	"github.com/OCAP2/markers/pkg/core"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(config.StorageConfig{
		Type:   config.StorageSQLite,
		SQLite: config.SQLiteConfig{Path: database.MemoryPath},
	}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleSnapshots() []marker.Snapshot {
	bmp, _ := core.NewBitmap(2, 1, []uint32{0xff0000ff, 0x80ffffff})
	return []marker.Snapshot{
		{
			ID:        3,
			Styling:   "{ style: points, color: red }",
			Geometry:  core.PointGeometry(core.LngLat{Lng: 13.405, Lat: 52.52}),
			Bitmap:    bmp,
			Visible:   true,
			DrawOrder: 2,
		},
		{
			ID:       7,
			Geometry: core.PolylineGeometry([]core.LngLat{{Lng: 0, Lat: 0}, {Lng: 1, Lat: 1}}),
			Visible:  false,
		},
		{
			ID:      8,
			Styling: "route",
			Geometry: core.PolygonGeometry(
				[]core.LngLat{{Lng: 0, Lat: 0}, {Lng: 4, Lat: 0}, {Lng: 4, Lat: 4}, {Lng: 1, Lat: 1}, {Lng: 2, Lat: 1}, {Lng: 2, Lat: 2}},
				[]int{3, 3},
			),
			Visible:   true,
			DrawOrder: -1,
		},
		{ID: 9, Visible: true},
	}
}

func TestSaveLoad(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	want := sampleSnapshots()
	id, err := s.Save(ctx, want)
	require.NoError(t, err)
	assert.NotZero(t, id)

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, len(want))

	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
		assert.Equal(t, want[i].Styling, got[i].Styling)
		assert.Equal(t, want[i].Visible, got[i].Visible)
		assert.Equal(t, want[i].DrawOrder, got[i].DrawOrder)
		assert.Equal(t, want[i].Geometry.Kind, got[i].Geometry.Kind)
		assert.Equal(t, len(want[i].Geometry.Points), len(got[i].Geometry.Points))
	}

	assert.Equal(t, want[0].Geometry.Points, got[0].Geometry.Points)
	require.NotNil(t, got[0].Bitmap)
	assert.Equal(t, want[0].Bitmap.Pixels, got[0].Bitmap.Pixels)
	assert.Equal(t, 2, got[0].Bitmap.Width)
	assert.Nil(t, got[1].Bitmap)
	assert.Equal(t, []int{3, 3}, got[2].Geometry.RingCounts)
	assert.Nil(t, got[1].Geometry.RingCounts)
}

func TestLoad_Empty(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Load(context.Background())
	assert.ErrorIs(t, err, ErrNoSnapshot)

	_, err = s.LoadID(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestLoad_LatestAndByID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.Save(ctx, sampleSnapshots()[:1])
	require.NoError(t, err)
	second, err := s.Save(ctx, sampleSnapshots())
	require.NoError(t, err)
	assert.Greater(t, second, first)

	latest, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, latest, 4)

	old, err := s.LoadID(ctx, first)
	require.NoError(t, err)
	assert.Len(t, old, 1)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second, list[0].ID)
	assert.Equal(t, 4, list[0].MarkerCount)
	assert.Empty(t, list[0].Markers)
}

func TestRoundTripThroughManager(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	src, err := marker.New()
	require.NoError(t, err)
	a := src.Add()
	require.True(t, src.SetPoint(a, core.LngLat{Lng: 2.35, Lat: 48.85}))
	require.True(t, src.SetStyling(a, "{ style: points, size: 8px }"))
	b := src.Add()
	require.True(t, src.SetPolyline(b, []core.LngLat{{Lng: 2, Lat: 48}, {Lng: 3, Lat: 49}}, 2))
	require.True(t, src.SetDrawOrder(b, 4))

	_, err = s.Save(ctx, src.Snapshot())
	require.NoError(t, err)

	snaps, err := s.Load(ctx)
	require.NoError(t, err)

	dst, err := marker.New()
	require.NoError(t, err)
	ids := dst.Restore(snaps)
	require.Len(t, ids, 2)

	ra := dst.Marker(ids[a])
	require.NotNil(t, ra)
	assert.Equal(t, "{ style: points, size: 8px }", ra.Styling())
	assert.Equal(t, 4, dst.Marker(ids[b]).DrawOrder())

	assert.True(t, dst.Update(7))
	assert.Len(t, dst.DrawList(7), 2)
}

func TestOpen_SQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots.db")
	cfg := config.StorageConfig{Type: config.StorageSQLite, SQLite: config.SQLiteConfig{Path: path}}

	s, err := Open(cfg, zerolog.Nop())
	require.NoError(t, err)
	_, err = s.Save(context.Background(), sampleSnapshots())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := Open(cfg, zerolog.Nop())
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 4)
}

func TestOpen_NoStorage(t *testing.T) {
	_, err := Open(config.StorageConfig{Type: config.StorageNone}, zerolog.Nop())
	assert.Error(t, err)
}

func TestPixelEncoding(t *testing.T) {
	pixels := []uint32{0, 1, 0xdeadbeef, 0xffffffff}
	buf := encodePixels(pixels)
	assert.Len(t, buf, 16)
	assert.Equal(t, []byte{0xef, 0xbe, 0xad, 0xde}, buf[8:12])
	assert.Equal(t, pixels, decodePixels(buf))
}
