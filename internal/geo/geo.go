package geo

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/OCAP2/markers/pkg/core"
)

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// LngLatFromString parses a string in the format "lng,lat" into a coordinate.
// Surrounding brackets are tolerated.
func LngLatFromString(coords string) (core.LngLat, error) {
	coords = strings.TrimSpace(coords)
	coords = strings.TrimPrefix(coords, "[")
	coords = strings.TrimSuffix(coords, "]")

	coordsSplit := strings.Split(coords, ",")
	if len(coordsSplit) != 2 {
		return core.LngLat{}, ErrInvalidCoordinates
	}
	// parse the longitude
	lng, err := strconv.ParseFloat(strings.TrimSpace(coordsSplit[0]), 64)
	if err != nil {
		return core.LngLat{}, ErrInvalidCoordinates
	}
	// parse the latitude
	lat, err := strconv.ParseFloat(strings.TrimSpace(coordsSplit[1]), 64)
	if err != nil {
		return core.LngLat{}, ErrInvalidCoordinates
	}
	ll := core.LngLat{Lng: lng, Lat: lat}
	if !Valid(ll) {
		return core.LngLat{}, ErrInvalidCoordinates
	}
	return ll, nil
}

// Valid reports whether ll is finite and its latitude lies within [-90, 90].
func Valid(ll core.LngLat) bool {
	if math.IsNaN(ll.Lng) || math.IsInf(ll.Lng, 0) || math.IsNaN(ll.Lat) || math.IsInf(ll.Lat, 0) {
		return false
	}
	return ll.Lat >= -90 && ll.Lat <= 90
}
