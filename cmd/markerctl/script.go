package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/OCAP2/markers/internal/dispatcher"
	"github.com/OCAP2/markers/internal/marker"
	"github.com/OCAP2/markers/internal/util"
	"github.com/OCAP2/markers/pkg/core"
	"github.com/gogpu/gg"
)

// scriptClock is the animation clock for a replay. It only moves when the
// script says so, which makes eased transitions reproducible.
type scriptClock struct {
	now time.Time
}

func newScriptClock() *scriptClock {
	return &scriptClock{now: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *scriptClock) Now() time.Time { return c.now }

// runner replays a command script through the dispatcher.
//
// Script lines are "command arg...". Blank lines and lines starting with #
// are ignored; a line "+<duration>" advances the clock.
type runner struct {
	d      *dispatcher.Dispatcher
	clock  *scriptClock
	out    io.Writer
	logger *slog.Logger
}

// run executes every line and returns how many commands failed. Failing
// commands are reported and skipped; only read errors abort the replay.
func (r *runner) run(src io.Reader) (int, error) {
	failed := 0
	scanner := bufio.NewScanner(src)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasPrefix(line, "+") {
			d, err := time.ParseDuration(line[1:])
			if err != nil || d < 0 {
				r.logger.Warn("Bad clock step", "line", lineNo, "text", line)
				failed++
				continue
			}
			r.clock.now = r.clock.now.Add(d)
			continue
		}

		fields, err := util.SplitArgs(line)
		if err != nil {
			r.logger.Warn("Bad script line", "line", lineNo, "error", err)
			failed++
			continue
		}

		result, err := r.d.Dispatch(dispatcher.Event{
			Command:   fields[0],
			Args:      fields[1:],
			Timestamp: r.clock.now,
		})
		if err != nil {
			fmt.Fprintf(r.out, "%d: %s: error: %v\n", lineNo, fields[0], err)
			failed++
			continue
		}
		if result != nil {
			fmt.Fprintf(r.out, "%d: %s -> %v\n", lineNo, fields[0], result)
		}
	}
	if err := scanner.Err(); err != nil {
		return failed, fmt.Errorf("reading script: %w", err)
	}
	return failed, nil
}

// printDrawList writes one line per drawable marker in draw order.
func printDrawList(w io.Writer, m *marker.Manager) {
	list := m.DrawList(m.Zoom())
	fmt.Fprintf(w, "zoom %d: %d of %d markers drawable\n", m.Zoom(), len(list), m.Len())
	for _, mk := range list {
		msh := mk.Mesh()
		fmt.Fprintf(w, "  #%d order=%d pick=%06x style=%s/%s %s verts=%d tris=%d color=%s bounds=[%.1f,%.1f %.1f,%.1f] tile=%d/%d/%d\n",
			mk.ID(), mk.DrawOrder(), mk.SelectionColor()&0xffffff,
			msh.Style, msh.Base, describeGeometry(mk),
			len(msh.Vertices), len(msh.Indices)/3, hexColor(msh.Color),
			msh.Bounds.Min.X, msh.Bounds.Min.Y, msh.Bounds.Max.X, msh.Bounds.Max.Y,
			msh.Tile.Z, msh.Tile.X, msh.Tile.Y,
		)
	}
}

func describeGeometry(mk *marker.Marker) string {
	g := mk.Geometry()
	switch g.Kind {
	case core.GeometryPoint:
		return "point(" + g.Points[0].String() + ")"
	case core.GeometryPolygon:
		return fmt.Sprintf("polygon(%d pts, %d rings)", len(g.Points), len(g.RingCounts))
	default:
		return fmt.Sprintf("%s(%d pts)", g.Kind, len(g.Points))
	}
}

func hexColor(c gg.RGBA) string {
	to8 := func(v float64) uint8 {
		return uint8(min(max(v, 0), 1)*255 + 0.5)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", to8(c.R), to8(c.G), to8(c.B), to8(c.A))
}
