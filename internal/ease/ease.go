// Package ease provides the interpolation curves used to animate marker positions.
package ease

import (
	"fmt"
	"math"
	"strings"
)

// Type names an ease curve.
type Type int

const (
	Linear Type = iota
	Cubic
	Quint
	Sine
)

// Func maps normalized time in [0, 1] to normalized progress in [0, 1].
type Func func(t float64) float64

// Func returns the curve for the type. Unknown types ease linearly.
func (e Type) Func() Func {
	switch e {
	case Cubic:
		return cubic
	case Quint:
		return quint
	case Sine:
		return sine
	default:
		return linear
	}
}

func (e Type) String() string {
	switch e {
	case Linear:
		return "linear"
	case Cubic:
		return "cubic"
	case Quint:
		return "quint"
	case Sine:
		return "sine"
	default:
		return fmt.Sprintf("ease(%d)", int(e))
	}
}

// ParseType parses a curve name, case-insensitively.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "linear", "":
		return Linear, nil
	case "cubic":
		return Cubic, nil
	case "quint":
		return Quint, nil
	case "sine":
		return Sine, nil
	}
	return Linear, fmt.Errorf("unknown ease type %q", s)
}

// Progress clamps t to [0, 1] before applying f.
func Progress(f Func, t float64) float64 {
	switch {
	case t <= 0:
		return 0
	case t >= 1:
		return 1
	}
	return f(t)
}

func linear(t float64) float64 { return t }

func cubic(t float64) float64 { return t * t * (3 - 2*t) }

func quint(t float64) float64 { return t * t * t * (t*(t*6-15) + 10) }

func sine(t float64) float64 { return 0.5 - 0.5*math.Cos(math.Pi*t) }
