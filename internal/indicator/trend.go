package indicator

// SMA is the arithmetic mean of the trailing period samples.
type SMA struct {
	period int
	win    *window
	out    series
}

// NewSMA creates a simple moving average over the given period.
func NewSMA(period int) *SMA {
	return &SMA{period: period, win: newWindow(period)}
}

// Update consumes one sample.
func (s *SMA) Update(v float64) {
	s.win.push(v)
	if !s.win.full() {
		s.out.append(0, false)
		return
	}
	s.out.append(s.win.sum()/float64(s.period), true)
}

// Value returns the latest output. ok is false until period samples have
// been observed.
func (s *SMA) Value() (float64, bool) { return s.out.value(0) }

// ValueAt returns the output lag updates back; ValueAt(0) == Value().
func (s *SMA) ValueAt(lag int) (float64, bool) { return s.out.value(lag) }

// Len returns the number of updates consumed so far.
func (s *SMA) Len() int { return s.out.len() }

// EMA is an exponential moving average. It seeds itself with the SMA of the
// first period samples, then recurses ema = α·x + (1-α)·ema with
// α = 2/(period+1).
type EMA struct {
	period int
	alpha  float64
	ema    float64
	seeded bool
	win    *window
	out    series
}

// NewEMA creates an exponential moving average over the given period.
func NewEMA(period int) *EMA {
	return &EMA{
		period: period,
		alpha:  2.0 / float64(period+1),
		win:    newWindow(period),
	}
}

// Update consumes one sample.
func (e *EMA) Update(v float64) {
	if !e.seeded {
		e.win.push(v)
		if !e.win.full() {
			e.out.append(0, false)
			return
		}
		e.ema = e.win.sum() / float64(e.period)
		e.seeded = true
		e.out.append(e.ema, true)
		return
	}
	e.ema = e.alpha*v + (1-e.alpha)*e.ema
	e.out.append(e.ema, true)
}

// Value returns the latest output. ok is false until period samples have
// been observed.
func (e *EMA) Value() (float64, bool) { return e.out.value(0) }

// ValueAt returns the output lag updates back.
func (e *EMA) ValueAt(lag int) (float64, bool) { return e.out.value(lag) }

// Len returns the number of updates consumed so far.
func (e *EMA) Len() int { return e.out.len() }

// MACD is the moving average convergence divergence oscillator: the spread
// between a fast and a slow EMA, with a signal EMA over that spread.
type MACD struct {
	fast   *EMA
	slow   *EMA
	signal *EMA

	macd series
	sig  series
	hist series
}

// NewMACD creates a MACD with the given fast, slow, and signal periods
// (commonly 12, 26, 9).
func NewMACD(fast, slow, signal int) *MACD {
	return &MACD{
		fast:   NewEMA(fast),
		slow:   NewEMA(slow),
		signal: NewEMA(signal),
	}
}

// Update consumes one sample.
func (m *MACD) Update(v float64) {
	m.fast.Update(v)
	m.slow.Update(v)

	f, fok := m.fast.Value()
	s, sok := m.slow.Value()
	if !fok || !sok {
		m.macd.append(0, false)
		m.sig.append(0, false)
		m.hist.append(0, false)
		return
	}

	line := f - s
	m.macd.append(line, true)

	m.signal.Update(line)
	sig, ok := m.signal.Value()
	m.sig.append(sig, ok)
	if ok {
		m.hist.append(line-sig, true)
	} else {
		m.hist.append(0, false)
	}
}

// Value returns the latest MACD line value.
func (m *MACD) Value() (float64, bool) { return m.macd.value(0) }

// ValueAt returns the MACD line lag updates back.
func (m *MACD) ValueAt(lag int) (float64, bool) { return m.macd.value(lag) }

// Signal returns the latest signal line value.
func (m *MACD) Signal() (float64, bool) { return m.sig.value(0) }

// Histogram returns the latest MACD-minus-signal value.
func (m *MACD) Histogram() (float64, bool) { return m.hist.value(0) }

// Len returns the number of updates consumed so far.
func (m *MACD) Len() int { return m.macd.len() }
