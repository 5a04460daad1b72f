package indicator

import "math"

// ATR is the average true range: the trailing arithmetic mean of per-bar
// true ranges over the period. The first bar's true range is high-low only,
// since no previous close exists.
type ATR struct {
	period    int
	ranges    *window
	prevClose float64
	hasPrev   bool
	out       series
}

// NewATR creates an average true range over the given period.
func NewATR(period int) *ATR {
	return &ATR{period: period, ranges: newWindow(period)}
}

// Update consumes one bar's high, low, and close.
func (a *ATR) Update(high, low, close float64) {
	tr := high - low
	if a.hasPrev {
		tr = math.Max(tr, math.Max(
			math.Abs(high-a.prevClose),
			math.Abs(low-a.prevClose),
		))
	}
	a.prevClose = close
	a.hasPrev = true

	a.ranges.push(tr)
	if !a.ranges.full() {
		a.out.append(0, false)
		return
	}
	a.out.append(a.ranges.sum()/float64(a.period), true)
}

// Value returns the latest output. ok is false until period bars have been
// observed.
func (a *ATR) Value() (float64, bool) { return a.out.value(0) }

// ValueAt returns the output lag updates back.
func (a *ATR) ValueAt(lag int) (float64, bool) { return a.out.value(lag) }

// Len returns the number of updates consumed so far.
func (a *ATR) Len() int { return a.out.len() }

// RollingHigh is the maximum over the trailing period samples.
type RollingHigh struct {
	win *window
	out series
}

// NewRollingHigh creates a rolling maximum over the given period.
func NewRollingHigh(period int) *RollingHigh {
	return &RollingHigh{win: newWindow(period)}
}

// Update consumes one sample.
func (r *RollingHigh) Update(v float64) {
	r.win.push(v)
	if !r.win.full() {
		r.out.append(0, false)
		return
	}
	r.out.append(r.win.max(), true)
}

// Value returns the latest output.
func (r *RollingHigh) Value() (float64, bool) { return r.out.value(0) }

// ValueAt returns the output lag updates back.
func (r *RollingHigh) ValueAt(lag int) (float64, bool) { return r.out.value(lag) }

// Len returns the number of updates consumed so far.
func (r *RollingHigh) Len() int { return r.out.len() }

// RollingLow is the minimum over the trailing period samples.
type RollingLow struct {
	win *window
	out series
}

// NewRollingLow creates a rolling minimum over the given period.
func NewRollingLow(period int) *RollingLow {
	return &RollingLow{win: newWindow(period)}
}

// Update consumes one sample.
func (r *RollingLow) Update(v float64) {
	r.win.push(v)
	if !r.win.full() {
		r.out.append(0, false)
		return
	}
	r.out.append(r.win.min(), true)
}

// Value returns the latest output.
func (r *RollingLow) Value() (float64, bool) { return r.out.value(0) }

// ValueAt returns the output lag updates back.
func (r *RollingLow) ValueAt(lag int) (float64, bool) { return r.out.value(lag) }

// Len returns the number of updates consumed so far.
func (r *RollingLow) Len() int { return r.out.len() }
