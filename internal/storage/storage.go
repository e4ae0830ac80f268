// Package storage persists marker snapshots with GORM.
package storage

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/OCAP2/markers/internal/config"
	"github.com/OCAP2/markers/internal/database"
	"github.com/OCAP2/markers/internal/geo"
	"github.com/OCAP2/markers/internal/marker"
	"github.com/OCAP2/markers/pkg/core"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrNoSnapshot is returned by Load when nothing has been saved yet.
var ErrNoSnapshot = errors.New("no snapshot stored")

// SnapshotRecord is one saved manager state.
type SnapshotRecord struct {
	ID          uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	CreatedAt   time.Time `json:"createdAt"`
	MarkerCount int       `json:"markerCount"`

	Markers []MarkerRecord `json:"markers" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignKey:SnapshotID;"`
}

func (*SnapshotRecord) TableName() string {
	return "snapshots"
}

// MarkerRecord is the user-set state of one marker within a snapshot.
type MarkerRecord struct {
	ID         uint `json:"id" gorm:"primarykey;autoIncrement;"`
	SnapshotID uint `json:"snapshotId" gorm:"index:idx_marker_snapshot_id"`
	Position   int  `json:"position"` // insertion order within the snapshot

	MarkerID   uint32         `json:"markerId"`
	Styling    string         `json:"styling"`
	Kind       string         `json:"kind" gorm:"size:16"`
	Points     datatypes.JSON `json:"points"`     // [[lng,lat],...]
	RingCounts datatypes.JSON `json:"ringCounts"` // polygon rings
	Visible    bool           `json:"visible"`
	DrawOrder  int            `json:"drawOrder"`

	BitmapWidth  int    `json:"bitmapWidth"`
	BitmapHeight int    `json:"bitmapHeight"`
	Bitmap       []byte `json:"-"` // little-endian uint32 pixels
}

func (*MarkerRecord) TableName() string {
	return "snapshot_markers"
}

// Models lists every table the store migrates.
var Models = []any{&SnapshotRecord{}, &MarkerRecord{}}

// Store saves and loads marker snapshots.
type Store struct {
	db  *gorm.DB
	log zerolog.Logger
	mgr *database.Manager
}

// New wraps an open database. The caller owns the connection.
func New(db *gorm.DB, log zerolog.Logger) *Store {
	return &Store{db: db, log: log}
}

// Open connects to the database selected by cfg and migrates the schema.
func Open(cfg config.StorageConfig, log zerolog.Logger) (*Store, error) {
	mgr := database.NewManager(log)
	if err := mgr.Connect(cfg); err != nil {
		return nil, fmt.Errorf("failed to connect snapshot store: %w", err)
	}

	s := New(mgr.DB, log)
	s.mgr = mgr
	if err := s.Migrate(context.Background()); err != nil {
		_ = mgr.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the connection if the store opened it.
func (s *Store) Close() error {
	if s.mgr == nil {
		return nil
	}
	return s.mgr.Close()
}

// Migrate creates or updates the snapshot tables.
func (s *Store) Migrate(ctx context.Context) error {
	s.log.Info().Msg("Migrating schema")
	if err := s.db.WithContext(ctx).AutoMigrate(Models...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Save writes one snapshot and returns its ID.
func (s *Store) Save(ctx context.Context, snaps []marker.Snapshot) (uint, error) {
	rec := SnapshotRecord{
		MarkerCount: len(snaps),
		Markers:     make([]MarkerRecord, 0, len(snaps)),
	}
	for i, snap := range snaps {
		mr, err := toRecord(snap)
		if err != nil {
			return 0, fmt.Errorf("marker %d: %w", snap.ID, err)
		}
		mr.Position = i
		rec.Markers = append(rec.Markers, mr)
	}

	start := time.Now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&rec).Error
	})
	if err != nil {
		return 0, fmt.Errorf("failed to save snapshot: %w", err)
	}

	s.log.Info().Uint("snapshot", rec.ID).Int("markers", len(snaps)).
		Dur("duration", time.Since(start)).Msg("Saved snapshot")
	return rec.ID, nil
}

// Load returns the most recently saved snapshot.
func (s *Store) Load(ctx context.Context) ([]marker.Snapshot, error) {
	return s.load(ctx, s.db.WithContext(ctx).Order("id desc"))
}

// LoadID returns the snapshot with the given ID.
func (s *Store) LoadID(ctx context.Context, id uint) ([]marker.Snapshot, error) {
	return s.load(ctx, s.db.WithContext(ctx).Where("id = ?", id))
}

// List returns snapshot headers, newest first, without their markers.
func (s *Store) List(ctx context.Context) ([]SnapshotRecord, error) {
	var recs []SnapshotRecord
	if err := s.db.WithContext(ctx).Order("id desc").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	return recs, nil
}

func (s *Store) load(ctx context.Context, q *gorm.DB) ([]marker.Snapshot, error) {
	var rec SnapshotRecord
	err := q.Preload("Markers", func(db *gorm.DB) *gorm.DB {
		return db.Order("position")
	}).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	snaps := make([]marker.Snapshot, 0, len(rec.Markers))
	for _, mr := range rec.Markers {
		snap, err := fromRecord(mr)
		if err != nil {
			return nil, fmt.Errorf("snapshot %d marker %d: %w", rec.ID, mr.MarkerID, err)
		}
		snaps = append(snaps, snap)
	}

	s.log.Debug().Uint("snapshot", rec.ID).Int("markers", len(snaps)).Msg("Loaded snapshot")
	return snaps, nil
}

func toRecord(snap marker.Snapshot) (MarkerRecord, error) {
	coords := make([][2]float64, len(snap.Geometry.Points))
	for i, p := range snap.Geometry.Points {
		coords[i] = [2]float64{p.Lng, p.Lat}
	}
	points, err := json.Marshal(coords)
	if err != nil {
		return MarkerRecord{}, err
	}
	rings := datatypes.JSON("[]")
	if len(snap.Geometry.RingCounts) > 0 {
		if rings, err = json.Marshal(snap.Geometry.RingCounts); err != nil {
			return MarkerRecord{}, err
		}
	}

	mr := MarkerRecord{
		MarkerID:   uint32(snap.ID),
		Styling:    snap.Styling,
		Kind:       snap.Geometry.Kind.String(),
		Points:     datatypes.JSON(points),
		RingCounts: rings,
		Visible:    snap.Visible,
		DrawOrder:  snap.DrawOrder,
	}
	if snap.Bitmap != nil {
		mr.BitmapWidth = snap.Bitmap.Width
		mr.BitmapHeight = snap.Bitmap.Height
		mr.Bitmap = encodePixels(snap.Bitmap.Pixels)
	}
	return mr, nil
}

func fromRecord(mr MarkerRecord) (marker.Snapshot, error) {
	kind, err := core.ParseGeometryKind(mr.Kind)
	if err != nil {
		return marker.Snapshot{}, err
	}

	var points []core.LngLat
	if len(mr.Points) > 0 {
		if points, err = geo.ParseCoordinates(string(mr.Points)); err != nil {
			return marker.Snapshot{}, err
		}
	}
	var rings []int
	if len(mr.RingCounts) > 0 {
		if err := json.Unmarshal(mr.RingCounts, &rings); err != nil {
			return marker.Snapshot{}, fmt.Errorf("failed to parse ring counts: %w", err)
		}
	}

	snap := marker.Snapshot{
		ID:        core.MarkerID(mr.MarkerID),
		Styling:   mr.Styling,
		Geometry:  core.Geometry{Kind: kind, Points: points},
		Visible:   mr.Visible,
		DrawOrder: mr.DrawOrder,
	}
	if kind == core.GeometryPolygon {
		snap.Geometry.RingCounts = rings
	}
	if mr.Bitmap != nil {
		bmp, err := core.NewBitmap(mr.BitmapWidth, mr.BitmapHeight, decodePixels(mr.Bitmap))
		if err != nil {
			return marker.Snapshot{}, err
		}
		snap.Bitmap = bmp
	}
	return snap, nil
}

func encodePixels(pixels []uint32) []byte {
	buf := make([]byte, 0, len(pixels)*4)
	for _, p := range pixels {
		buf = binary.LittleEndian.AppendUint32(buf, p)
	}
	return buf
}

func decodePixels(buf []byte) []uint32 {
	pixels := make([]uint32, len(buf)/4)
	for i := range pixels {
		pixels[i] = binary.LittleEndian.Uint32(buf[i*4:])
	}
	return pixels
}
