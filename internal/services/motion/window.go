package motion

// ratioWindow is a fixed-capacity FIFO of recent ratios
type ratioWindow struct {
	values []float64
	next   int
	filled bool
}

func newRatioWindow(size int) *ratioWindow {
	if size < 1 {
		size = 1
	}
	return &ratioWindow{values: make([]float64, size)}
}

// push appends v, evicting the oldest entry once full
func (w *ratioWindow) push(v float64) {
	w.values[w.next] = v
	w.next++
	if w.next == len(w.values) {
		w.next = 0
		w.filled = true
	}
}

func (w *ratioWindow) len() int {
	if w.filled {
		return len(w.values)
	}
	return w.next
}

// mean over the entries currently held, 0 when empty
func (w *ratioWindow) mean() float64 {
	n := w.len()
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += w.values[i]
	}
	return sum / float64(n)
}

func (w *ratioWindow) reset() {
	for i := range w.values {
		w.values[i] = 0
	}
	w.next = 0
	w.filled = false
}
