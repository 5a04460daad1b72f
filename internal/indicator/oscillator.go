package indicator

// RSI is the Wilder-style relative strength index over the trailing period
// price deltas. When the average loss is exactly zero the RSI is defined as
// 100.
type RSI struct {
	period    int
	gains     *window
	losses    *window
	prevClose float64
	hasPrev   bool
	out       series
}

// NewRSI creates a relative strength index over the given period.
func NewRSI(period int) *RSI {
	return &RSI{
		period: period,
		gains:  newWindow(period),
		losses: newWindow(period),
	}
}

// Update consumes one closing price.
func (r *RSI) Update(close float64) {
	if !r.hasPrev {
		r.prevClose = close
		r.hasPrev = true
		r.out.append(0, false)
		return
	}

	change := close - r.prevClose
	r.prevClose = close

	gain, loss := 0.0, 0.0
	if change > 0 {
		gain = change
	} else {
		loss = -change
	}
	r.gains.push(gain)
	r.losses.push(loss)

	if !r.gains.full() {
		r.out.append(0, false)
		return
	}

	avgGain := r.gains.sum() / float64(r.period)
	avgLoss := r.losses.sum() / float64(r.period)
	if avgLoss == 0 {
		r.out.append(100, true)
		return
	}
	rs := avgGain / avgLoss
	r.out.append(100-100/(1+rs), true)
}

// Value returns the latest output. The RSI needs period deltas, so it is
// not ready until period+1 closes have been observed.
func (r *RSI) Value() (float64, bool) { return r.out.value(0) }

// ValueAt returns the output lag updates back.
func (r *RSI) ValueAt(lag int) (float64, bool) { return r.out.value(lag) }

// Len returns the number of updates consumed so far.
func (r *RSI) Len() int { return r.out.len() }
