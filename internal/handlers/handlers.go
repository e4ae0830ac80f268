// Package handlers turns host commands into marker manager calls.
package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/OCAP2/markers/internal/dispatcher"
	"github.com/OCAP2/markers/internal/ease"
	"github.com/OCAP2/markers/internal/geo"
	"github.com/OCAP2/markers/internal/marker"
	"github.com/OCAP2/markers/internal/util"
	"github.com/OCAP2/markers/pkg/core"
)

var (
	// ErrBadArgs is returned when a command's arguments cannot be parsed.
	ErrBadArgs = errors.New("bad arguments")
	// ErrRejected is returned when the manager refuses a call: unknown
	// marker or invalid geometry/bitmap.
	ErrRejected = errors.New("rejected")
)

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Manager      *marker.Manager
	Logger       *slog.Logger
	DefaultEase  ease.Type
	EaseDuration time.Duration
}

// Service provides handler methods for marker commands
type Service struct {
	deps Dependencies
}

// NewService creates a new handler service
func NewService(deps Dependencies) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	return &Service{deps: deps}
}

// RegisterHandlers registers every marker command with the dispatcher.
func (s *Service) RegisterHandlers(d *dispatcher.Dispatcher) {
	// Lifecycle
	d.Register("add", s.handleAdd, dispatcher.Logged())
	d.Register("remove", s.handleRemove, dispatcher.Logged())
	d.Register("clear", s.handleClear, dispatcher.Logged())

	// Appearance
	d.Register("styling", s.handleStyling, dispatcher.Logged())
	d.Register("bitmap", s.handleBitmap, dispatcher.Logged())
	d.Register("visible", s.handleVisible, dispatcher.Logged())
	d.Register("order", s.handleOrder, dispatcher.Logged())

	// Geometry
	d.Register("point", s.handlePoint, dispatcher.Logged())
	d.Register("ease", s.handleEase, dispatcher.Logged())
	d.Register("polyline", s.handlePolyline, dispatcher.Logged())
	d.Register("polygon", s.handlePolygon, dispatcher.Logged())

	// Frame
	d.Register("update", s.handleUpdate, dispatcher.Logged())
	d.Register("rebuild", s.handleRebuild, dispatcher.Logged())
}

func (s *Service) handleAdd(e dispatcher.Event) (any, error) {
	id := s.deps.Manager.Add()
	if !id.Valid() {
		return nil, fmt.Errorf("%w: add: selection colors exhausted", ErrRejected)
	}
	return id, nil
}

func (s *Service) handleRemove(e dispatcher.Event) (any, error) {
	id, err := markerArg(e.Args, 1)
	if err != nil {
		return nil, err
	}
	return nil, rejected(s.deps.Manager.Remove(id), "remove", id)
}

func (s *Service) handleClear(e dispatcher.Event) (any, error) {
	n := s.deps.Manager.Len()
	s.deps.Manager.RemoveAll()
	s.deps.Logger.Info("Removed all markers", "count", n)
	return nil, nil
}

// handleStyling: id [styling]. Missing styling resets to the default style.
func (s *Service) handleStyling(e dispatcher.Event) (any, error) {
	args := util.CleanArgs(e.Args)
	id, err := markerArg(args, 1)
	if err != nil {
		return nil, err
	}
	styling := strings.Join(args[1:], " ")
	return nil, rejected(s.deps.Manager.SetStyling(id, styling), "styling", id)
}

// handleBitmap: id width height [pixel,...]
func (s *Service) handleBitmap(e dispatcher.Event) (any, error) {
	id, err := markerArg(e.Args, 4)
	if err != nil {
		return nil, err
	}
	w, err := strconv.Atoi(e.Args[1])
	if err != nil {
		return nil, fmt.Errorf("%w: width: %v", ErrBadArgs, err)
	}
	h, err := strconv.Atoi(e.Args[2])
	if err != nil {
		return nil, fmt.Errorf("%w: height: %v", ErrBadArgs, err)
	}
	pixels, err := parsePixels(e.Args[3])
	if err != nil {
		return nil, err
	}
	return nil, rejected(s.deps.Manager.SetBitmap(id, w, h, pixels), "bitmap", id)
}

func (s *Service) handleVisible(e dispatcher.Event) (any, error) {
	id, err := markerArg(e.Args, 2)
	if err != nil {
		return nil, err
	}
	visible, err := strconv.ParseBool(e.Args[1])
	if err != nil {
		return nil, fmt.Errorf("%w: visible: %v", ErrBadArgs, err)
	}
	return nil, rejected(s.deps.Manager.SetVisible(id, visible), "visible", id)
}

func (s *Service) handleOrder(e dispatcher.Event) (any, error) {
	id, err := markerArg(e.Args, 2)
	if err != nil {
		return nil, err
	}
	order, err := strconv.Atoi(e.Args[1])
	if err != nil {
		return nil, fmt.Errorf("%w: order: %v", ErrBadArgs, err)
	}
	return nil, rejected(s.deps.Manager.SetDrawOrder(id, order), "order", id)
}

// handlePoint: id [lng,lat]
func (s *Service) handlePoint(e dispatcher.Event) (any, error) {
	id, err := markerArg(e.Args, 2)
	if err != nil {
		return nil, err
	}
	ll, err := geo.LngLatFromString(e.Args[1])
	if err != nil {
		return nil, fmt.Errorf("%w: position: %v", ErrBadArgs, err)
	}
	return nil, rejected(s.deps.Manager.SetPoint(id, ll), "point", id)
}

// handleEase: id [lng,lat] [duration] [curve]. Omitted values come from
// the configured defaults.
func (s *Service) handleEase(e dispatcher.Event) (any, error) {
	id, err := markerArg(e.Args, 2)
	if err != nil {
		return nil, err
	}
	ll, err := geo.LngLatFromString(e.Args[1])
	if err != nil {
		return nil, fmt.Errorf("%w: position: %v", ErrBadArgs, err)
	}

	duration := s.deps.EaseDuration
	if len(e.Args) > 2 {
		if duration, err = time.ParseDuration(e.Args[2]); err != nil {
			return nil, fmt.Errorf("%w: duration: %v", ErrBadArgs, err)
		}
	}
	curve := s.deps.DefaultEase
	if len(e.Args) > 3 {
		if curve, err = ease.ParseType(e.Args[3]); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadArgs, err)
		}
	}

	return nil, rejected(s.deps.Manager.SetPointEased(id, ll, duration, curve), "ease", id)
}

// handlePolyline: id [[lng,lat],...]
func (s *Service) handlePolyline(e dispatcher.Event) (any, error) {
	id, err := markerArg(e.Args, 2)
	if err != nil {
		return nil, err
	}
	coords, err := geo.ParseCoordinates(e.Args[1])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadArgs, err)
	}
	return nil, rejected(s.deps.Manager.SetPolyline(id, coords, len(coords)), "polyline", id)
}

// handlePolygon: id [[lng,lat],...] [n1,n2,...]. Without ring counts all
// coordinates form one ring.
func (s *Service) handlePolygon(e dispatcher.Event) (any, error) {
	id, err := markerArg(e.Args, 2)
	if err != nil {
		return nil, err
	}
	coords, err := geo.ParseCoordinates(e.Args[1])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadArgs, err)
	}
	rings := []int{len(coords)}
	if len(e.Args) > 2 {
		if rings, err = parseInts(e.Args[2]); err != nil {
			return nil, err
		}
	}
	return nil, rejected(s.deps.Manager.SetPolygon(id, coords, rings, len(rings)), "polygon", id)
}

// handleUpdate: zoom. Returns whether anything renderable changed.
func (s *Service) handleUpdate(e dispatcher.Event) (any, error) {
	if len(e.Args) < 1 {
		return nil, fmt.Errorf("%w: update needs a zoom", ErrBadArgs)
	}
	zoom, err := strconv.Atoi(e.Args[0])
	if err != nil {
		return nil, fmt.Errorf("%w: zoom: %v", ErrBadArgs, err)
	}
	return s.deps.Manager.Update(zoom), nil
}

func (s *Service) handleRebuild(e dispatcher.Event) (any, error) {
	s.deps.Manager.RebuildAll()
	s.deps.Logger.Debug("Rebuilt all markers", "count", s.deps.Manager.Len(), "zoom", s.deps.Manager.Zoom())
	return nil, nil
}

// markerArg checks that at least n arguments are present and parses the
// first as a marker ID.
func markerArg(args []string, n int) (core.MarkerID, error) {
	if len(args) < n {
		return core.InvalidMarkerID, fmt.Errorf("%w: need %d arguments, got %d", ErrBadArgs, n, len(args))
	}
	id, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return core.InvalidMarkerID, fmt.Errorf("%w: marker id %q", ErrBadArgs, args[0])
	}
	return core.MarkerID(id), nil
}

func rejected(ok bool, command string, id core.MarkerID) error {
	if ok {
		return nil
	}
	return fmt.Errorf("%w: %s on marker %d", ErrRejected, command, id)
}

// parseInts accepts "4,3" or "[4,3]".
func parseInts(s string) ([]int, error) {
	s = strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(s), "["), "]")
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("%w: ring count %q", ErrBadArgs, p)
		}
		out = append(out, n)
	}
	return out, nil
}

// parsePixels accepts comma separated pixels in decimal or 0x hex,
// optionally bracketed.
func parsePixels(s string) ([]uint32, error) {
	s = strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(s), "["), "]")
	parts := strings.Split(s, ",")
	out := make([]uint32, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 0, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: pixel %q", ErrBadArgs, p)
		}
		out = append(out, uint32(v))
	}
	return out, nil
}
