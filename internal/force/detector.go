// Package force turns FSR402 readings into a click state.
package force

import "sync"

// DefaultThreshold is the raw force value above which the glove counts
// as pressed.
const DefaultThreshold = 20000

// Click is the pressed state published on the click topic.
type Click bool

const (
	Released Click = false
	Pressed  Click = true
)

// String returns the wire value, "TRUE" or "FALSE".
func (c Click) String() string {
	if c {
		return "TRUE"
	}
	return "FALSE"
}

// ParseClick accepts the wire value; anything but "TRUE" is released.
func ParseClick(s string) Click {
	return Click(s == "TRUE")
}

// Detector classifies force readings and tracks edges.
type Detector struct {
	Threshold int

	mu    sync.Mutex
	last  Click
	known bool
}

func NewDetector(threshold int) *Detector {
	return &Detector{Threshold: threshold}
}

// Classify returns Pressed when v is strictly above the threshold.
func (d *Detector) Classify(v int) Click {
	return Click(v > d.Threshold)
}

// Update classifies v and reports whether the state changed since the
// previous reading. The first reading only seeds the state.
func (d *Detector) Update(v int) (Click, bool) {
	c := d.Classify(v)

	d.mu.Lock()
	defer d.mu.Unlock()
	changed := d.known && c != d.last
	d.last = c
	d.known = true
	return c, changed
}
