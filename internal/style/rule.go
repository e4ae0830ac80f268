package style

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gogpu/gg"
)

// Unit is the unit a Dimension is expressed in.
type Unit uint8

const (
	Pixels Unit = iota
	Meters
)

// Dimension is a length in pixels or in ground meters. Meter lengths scale
// with zoom, which is one reason meshes are rebuilt per zoom level.
type Dimension struct {
	Value float64
	Unit  Unit
}

// Px returns a pixel dimension.
func Px(v float64) Dimension { return Dimension{Value: v, Unit: Pixels} }

// Pixels converts the dimension to pixels at the given ground resolution.
func (d Dimension) Pixels(metersPerPixel float64) float64 {
	if d.Unit == Meters {
		if metersPerPixel <= 0 {
			return 0
		}
		return d.Value / metersPerPixel
	}
	return d.Value
}

// IsZero reports whether the dimension is unset.
func (d Dimension) IsZero() bool { return d.Value == 0 }

// ParseDimension accepts numbers (pixels) and strings with a "px" or "m" suffix.
func ParseDimension(v any) (Dimension, error) {
	switch t := v.(type) {
	case int:
		return Px(float64(t)), nil
	case float64:
		return Px(t), nil
	case string:
		s := strings.TrimSpace(t)
		unit := Pixels
		switch {
		case strings.HasSuffix(s, "px"):
			s = strings.TrimSuffix(s, "px")
		case strings.HasSuffix(s, "m"):
			s = strings.TrimSuffix(s, "m")
			unit = Meters
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return Dimension{}, fmt.Errorf("%w: bad dimension %q", ErrInvalidStyling, t)
		}
		return Dimension{Value: f, Unit: unit}, nil
	}
	return Dimension{}, fmt.Errorf("%w: bad dimension %v", ErrInvalidStyling, v)
}

// DrawRule holds the resolved build parameters for one marker.
type DrawRule struct {
	Style        string
	Base         Base
	Color        gg.RGBA
	Size         [2]Dimension
	Width        Dimension
	OutlineColor gg.RGBA
	OutlineWidth Dimension
}

var namedColors = map[string]gg.RGBA{
	"black":       gg.Black,
	"white":       gg.White,
	"red":         gg.Red,
	"green":       gg.Green,
	"blue":        gg.Blue,
	"yellow":      gg.Yellow,
	"cyan":        gg.Cyan,
	"magenta":     gg.Magenta,
	"transparent": gg.Transparent,
}

// ParseColor accepts "#rgb"-style hex strings, color names, and [r, g, b(, a)]
// sequences with components in [0, 1].
func ParseColor(v any) (gg.RGBA, error) {
	switch t := v.(type) {
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		if c, ok := namedColors[s]; ok {
			return c, nil
		}
		if strings.HasPrefix(s, "#") && isHex(s[1:]) {
			switch len(s) - 1 {
			case 3, 4, 6, 8:
				return gg.Hex(s), nil
			}
		}
	case []any:
		if len(t) != 3 && len(t) != 4 {
			break
		}
		comp := [4]float64{0, 0, 0, 1}
		for i, c := range t {
			f, ok := toFloat(c)
			if !ok {
				return gg.RGBA{}, fmt.Errorf("%w: bad color component %v", ErrInvalidStyling, c)
			}
			comp[i] = f
		}
		return gg.RGBA2(comp[0], comp[1], comp[2], comp[3]), nil
	}
	return gg.RGBA{}, fmt.Errorf("%w: bad color %v", ErrInvalidStyling, v)
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f') {
			return false
		}
	}
	return s != ""
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case float64:
		return t, true
	}
	return 0, false
}
