package indicator

// Alpha returns the EMA smoothing constant 2/(period+1).
func Alpha(period int) float64 {
	return 2.0 / float64(period+1)
}

// Step advances an EMA by one close price.
func Step(prev, close, alpha float64) float64 {
	return close*alpha + prev*(1-alpha)
}

// EMA computes the full series over closes, seeded at closes[0].
// Returns one value per input close.
func EMA(closes []float64, period int) []float64 {
	if len(closes) == 0 {
		return nil
	}

	alpha := Alpha(period)
	result := make([]float64, len(closes))
	result[0] = closes[0]
	for i := 1; i < len(closes); i++ {
		result[i] = Step(result[i-1], closes[i], alpha)
	}
	return result
}

// Tracker holds the incremental fast/slow EMA pair for one parameter
// combination. Update must be called once per candle in timestamp order;
// the recurrence carries state bar to bar and cannot be reordered.
type Tracker struct {
	fastAlpha float64
	slowAlpha float64
	seeded    bool

	PrevFast float64
	CurrFast float64
	PrevSlow float64
	CurrSlow float64
}

// NewTracker creates a tracker for the given periods. Periods must be
// positive; validation happens at parameter construction, not here.
func NewTracker(fastPeriod, slowPeriod int) Tracker {
	return Tracker{
		fastAlpha: Alpha(fastPeriod),
		slowAlpha: Alpha(slowPeriod),
	}
}

// Update advances both EMAs by one close and returns the new pair.
// The first call seeds fast and slow with the close itself, so the seed
// bar can never register a crossover (prev equals curr there).
func (t *Tracker) Update(close float64) (fast, slow float64) {
	if !t.seeded {
		t.seeded = true
		t.PrevFast, t.CurrFast = close, close
		t.PrevSlow, t.CurrSlow = close, close
		return close, close
	}

	t.PrevFast, t.PrevSlow = t.CurrFast, t.CurrSlow
	t.CurrFast = Step(t.CurrFast, close, t.fastAlpha)
	t.CurrSlow = Step(t.CurrSlow, close, t.slowAlpha)
	return t.CurrFast, t.CurrSlow
}
