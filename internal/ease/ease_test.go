package ease

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurves_Endpoints(t *testing.T) {
	for _, typ := range []Type{Linear, Cubic, Quint, Sine} {
		t.Run(typ.String(), func(t *testing.T) {
			f := typ.Func()
			assert.InDelta(t, 0.0, f(0), 1e-12)
			assert.InDelta(t, 1.0, f(1), 1e-12)
			assert.InDelta(t, 0.5, f(0.5), 1e-12, "symmetric curves pass through the midpoint")
		})
	}
}

func TestCurves_Monotonic(t *testing.T) {
	for _, typ := range []Type{Linear, Cubic, Quint, Sine} {
		f := typ.Func()
		prev := f(0)
		for i := 1; i <= 100; i++ {
			v := f(float64(i) / 100)
			assert.GreaterOrEqual(t, v, prev, "%s not monotonic at step %d", typ, i)
			prev = v
		}
	}
}

func TestProgress_Clamps(t *testing.T) {
	f := Cubic.Func()
	assert.Equal(t, 0.0, Progress(f, -3))
	assert.Equal(t, 1.0, Progress(f, 7))
	assert.Equal(t, 0.25, Progress(Linear.Func(), 0.25))
}

func TestParseType(t *testing.T) {
	tests := []struct {
		in   string
		want Type
	}{
		{"linear", Linear},
		{"", Linear},
		{"Cubic", Cubic},
		{" quint ", Quint},
		{"SINE", Sine},
	}
	for _, tt := range tests {
		got, err := ParseType(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseType("bounce")
	assert.Error(t, err)
}

func TestUnknownTypeIsLinear(t *testing.T) {
	f := Type(42).Func()
	assert.Equal(t, 0.3, f(0.3))
	assert.Equal(t, "ease(42)", Type(42).String())
}
