package marker

// selectionColorSpace bounds colors to 24-bit RGB; alpha is always opaque so
// a color survives a round trip through an RGBA8 pick buffer.
const (
	selectionColorSpace = 1 << 24
	selectionAlpha      = 0xff000000
)

// colorAllocator hands out selection colors that are unique among live
// markers. Colors are issued from a wrapping counter, so a released color is
// only reissued after the rest of the space has been cycled through. At most
// size-1 markers can hold a color at once.
type colorAllocator struct {
	next uint32
	size uint32
	live map[uint32]struct{}
}

func newColorAllocator() *colorAllocator {
	return &colorAllocator{size: selectionColorSpace, live: make(map[uint32]struct{})}
}

// acquire returns a color no live marker holds, or false when every color in
// the space is taken.
func (a *colorAllocator) acquire() (uint32, bool) {
	for range a.size - 1 {
		a.next++
		if a.next >= a.size {
			a.next = 1
		}
		c := a.next | selectionAlpha
		if _, used := a.live[c]; !used {
			a.live[c] = struct{}{}
			return c, true
		}
	}
	return 0, false
}

func (a *colorAllocator) release(c uint32) {
	delete(a.live, c)
}

func (a *colorAllocator) reset() {
	clear(a.live)
}

// selectionIndex maps selection colors to built, visible markers.
type selectionIndex map[uint32]*Marker

// sync inserts or removes the marker's entry so that only visible markers
// with a mesh are present.
func (s selectionIndex) sync(m *Marker) {
	if m.visible && m.mesh != nil {
		s[m.selectionColor] = m
		return
	}
	delete(s, m.selectionColor)
}

func (s selectionIndex) remove(m *Marker) {
	delete(s, m.selectionColor)
}
