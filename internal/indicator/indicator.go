// Package indicator provides stateful, incrementally updated technical
// indicators. Every indicator consumes samples one at a time and exposes an
// output series aligned 1:1 with its inputs, where output i depends only on
// inputs 0..i. Until an indicator has seen its minimum window of samples it
// reports "not ready" via the ok return; indicators never fail otherwise.
package indicator

// window is a fixed-capacity ring buffer over the trailing period samples.
// Once full, each push overwrites the oldest sample.
type window struct {
	buf  []float64
	head int // next write index
	n    int // samples currently held, n <= len(buf)
}

func newWindow(capacity int) *window {
	return &window{buf: make([]float64, capacity)}
}

func (w *window) push(v float64) {
	w.buf[w.head] = v
	w.head = (w.head + 1) % len(w.buf)
	if w.n < len(w.buf) {
		w.n++
	}
}

func (w *window) full() bool {
	return w.n == len(w.buf)
}

func (w *window) sum() float64 {
	var s float64
	for i := 0; i < w.n; i++ {
		s += w.buf[i]
	}
	return s
}

func (w *window) max() float64 {
	m := w.buf[0]
	for i := 1; i < w.n; i++ {
		if w.buf[i] > m {
			m = w.buf[i]
		}
	}
	return m
}

func (w *window) min() float64 {
	m := w.buf[0]
	for i := 1; i < w.n; i++ {
		if w.buf[i] < m {
			m = w.buf[i]
		}
	}
	return m
}

// series is the append-only output of an indicator. vals[i] is meaningful
// only when ok[i] is true.
type series struct {
	vals []float64
	ok   []bool
}

func (s *series) append(v float64, ok bool) {
	s.vals = append(s.vals, v)
	s.ok = append(s.ok, ok)
}

// value returns the output lag entries back from the most recent one.
// value(0) is the latest output.
func (s *series) value(lag int) (float64, bool) {
	i := len(s.vals) - 1 - lag
	if lag < 0 || i < 0 {
		return 0, false
	}
	if !s.ok[i] {
		return 0, false
	}
	return s.vals[i], true
}

func (s *series) len() int {
	return len(s.vals)
}
