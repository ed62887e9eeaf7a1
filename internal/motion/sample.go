package motion

// Sample is one accelerometer reading in g-units.
// Timestamp is in seconds, monotonic within a session.
type Sample struct {
	AccelX    float64
	AccelY    float64
	AccelZ    float64
	Timestamp float64
}

// history is a fixed-capacity FIFO of samples.
// The oldest sample is overwritten once the buffer is full.
type history struct {
	buf  []Sample
	next int
	full bool
}

func newHistory(capacity int) *history {
	return &history{buf: make([]Sample, capacity)}
}

func (h *history) push(s Sample) {
	h.buf[h.next] = s
	h.next++
	if h.next == len(h.buf) {
		h.next = 0
		h.full = true
	}
}

func (h *history) len() int {
	if h.full {
		return len(h.buf)
	}
	return h.next
}

// meanZ is only valid when len() > 0.
func (h *history) meanZ() float64 {
	n := h.len()
	var sum float64
	for i := 0; i < n; i++ {
		sum += h.buf[i].AccelZ
	}
	return sum / float64(n)
}

// latest returns the most recently pushed sample.
func (h *history) latest() (Sample, bool) {
	if h.len() == 0 {
		return Sample{}, false
	}
	i := h.next - 1
	if i < 0 {
		i = len(h.buf) - 1
	}
	return h.buf[i], true
}

func (h *history) reset() {
	h.next = 0
	h.full = false
}
