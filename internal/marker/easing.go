package marker

import (
	"time"

	"github.com/OCAP2/markers/internal/ease"
	"github.com/OCAP2/markers/pkg/core"
)

// easing animates a point marker between two coordinates.
type easing struct {
	from     core.LngLat
	to       core.LngLat
	start    time.Time
	duration time.Duration
	fn       ease.Func
}

// at returns the interpolated coordinate at now and whether the transition
// has finished. A finished transition yields exactly the target.
func (e *easing) at(now time.Time) (core.LngLat, bool) {
	elapsed := now.Sub(e.start)
	if elapsed >= e.duration {
		return e.to, true
	}
	t := float64(elapsed) / float64(e.duration)
	return e.from.Lerp(e.to, ease.Progress(e.fn, t)), false
}
