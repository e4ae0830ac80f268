package geo

import (
	"errors"
	"math"
	"testing"

	"github.com/OCAP2/markers/pkg/core"
)

func TestParseCoordinates_Valid(t *testing.T) {
	points, err := ParseCoordinates("[[1,2],[3,4],[5,6]]")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}
	if points[2] != (core.LngLat{Lng: 5, Lat: 6}) {
		t.Errorf("unexpected last point %v", points[2])
	}
}

func TestParseCoordinates_Errors(t *testing.T) {
	inputs := []string{
		"not json",
		"[[1]]",
		"[[1,200]]",
	}
	for _, in := range inputs {
		if _, err := ParseCoordinates(in); err == nil {
			t.Errorf("%q: expected error", in)
		}
	}
}

func TestLineString_Length(t *testing.T) {
	ls, err := LineString([]Meters{{0, 0}, {3, 4}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ls.Length() != 5 {
		t.Errorf("expected length 5, got %f", ls.Length())
	}
	flat, err := LineString([]Meters{{1, 1}, {1, 1}})
	if err == nil && flat.Length() != 0 {
		t.Errorf("expected an error or zero length, got %f", flat.Length())
	}
}

func TestLineString_RejectsNonFinite(t *testing.T) {
	if _, err := LineString([]Meters{{0, 0}, {math.NaN(), 4}}); err == nil {
		t.Error("expected error for NaN coordinate")
	}
	if _, err := LineString([]Meters{{0, 0}, {math.Inf(1), 4}}); err == nil {
		t.Error("expected error for infinite coordinate")
	}
}

func TestValidatePolyline(t *testing.T) {
	if err := ValidatePolyline([]core.LngLat{{Lng: 0, Lat: 0}, {Lng: 1, Lat: 1}}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidatePolyline([]core.LngLat{{Lng: 0, Lat: 0}}); err == nil {
		t.Error("expected error for single point")
	}
	err := ValidatePolyline([]core.LngLat{{Lng: 0, Lat: 0}, {Lng: 1, Lat: 91}})
	if !errors.Is(err, ErrInvalidCoordinates) {
		t.Errorf("expected ErrInvalidCoordinates, got %v", err)
	}
}

func TestValidatePolygon(t *testing.T) {
	square := []core.LngLat{{Lng: 0, Lat: 0}, {Lng: 1, Lat: 0}, {Lng: 1, Lat: 1}, {Lng: 0, Lat: 1}}

	tests := []struct {
		name    string
		points  []core.LngLat
		rings   []int
		wantErr bool
	}{
		{"single ring", square, []int{4}, false},
		{"no rings", square, nil, true},
		{"ring too small", square, []int{2}, true},
		{"ring counts exceed points", square, []int{3, 3}, true},
		{"trailing points ignored", square, []int{3}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePolygon(tt.points, tt.rings)
			if tt.wantErr && err == nil {
				t.Error("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
