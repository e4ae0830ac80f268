package geo

import (
	"encoding/json"
	"fmt"

	"github.com/OCAP2/markers/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

// ParseCoordinates parses a JSON array of coordinates into lng/lat pairs.
// Input format: "[[lng1,lat1],[lng2,lat2],...]"
func ParseCoordinates(input string) ([]core.LngLat, error) {
	var coords [][]float64
	if err := json.Unmarshal([]byte(input), &coords); err != nil {
		return nil, fmt.Errorf("failed to parse coordinates JSON: %w", err)
	}

	points := make([]core.LngLat, len(coords))
	for i, coord := range coords {
		if len(coord) < 2 {
			return nil, fmt.Errorf("coordinate %d has insufficient values", i)
		}
		points[i] = core.LngLat{Lng: coord[0], Lat: coord[1]}
		if !Valid(points[i]) {
			return nil, fmt.Errorf("coordinate %d: %w", i, ErrInvalidCoordinates)
		}
	}

	return points, nil
}

// LineString builds a planar line string from projected points, for length
// and emptiness checks on tessellation input. Non-finite coordinates and
// lines with a single distinct point are rejected.
func LineString(points []Meters) (geom.LineString, error) {
	flatCoords := make([]float64, 0, len(points)*2)
	for _, p := range points {
		flatCoords = append(flatCoords, p.X, p.Y)
	}
	seq := geom.NewSequence(flatCoords, geom.DimXY)
	ls, err := geom.NewLineString(seq)
	if err != nil {
		return geom.LineString{}, fmt.Errorf("invalid line string: %w", err)
	}
	return ls, nil
}

// ValidatePolyline checks that points describe a polyline of at least 2 coordinates.
func ValidatePolyline(points []core.LngLat) error {
	if len(points) < 2 {
		return fmt.Errorf("polyline must have at least 2 points, got %d", len(points))
	}
	for i, p := range points {
		if !Valid(p) {
			return fmt.Errorf("coordinate %d: %w", i, ErrInvalidCoordinates)
		}
	}
	return nil
}

// ValidatePolygon checks that ringCounts partition points into rings of at
// least 3 coordinates each.
func ValidatePolygon(points []core.LngLat, ringCounts []int) error {
	if len(ringCounts) == 0 {
		return fmt.Errorf("polygon must have at least 1 ring")
	}
	total := 0
	for i, n := range ringCounts {
		if n < 3 {
			return fmt.Errorf("polygon ring %d must have at least 3 points, got %d", i, n)
		}
		total += n
	}
	if total > len(points) {
		return fmt.Errorf("polygon rings need %d points, got %d", total, len(points))
	}
	for i, p := range points[:total] {
		if !Valid(p) {
			return fmt.Errorf("coordinate %d: %w", i, ErrInvalidCoordinates)
		}
	}
	return nil
}
