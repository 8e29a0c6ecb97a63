package translate

import "math"

const (
	// ScrollQuantum is the smallest accumulated amount that produces a
	// wheel event.
	ScrollQuantum = 0.0084
	// WheelUnit converts a quantum to OS wheel units.
	WheelUnit = 120

	scrollEpsilon = 1e-12
)

// ScrollAccumulator turns a continuous per-tick scroll rate into discrete
// wheel ticks, carrying the sub-quantum remainder between calls.
type ScrollAccumulator struct {
	accumulated float64
}

// Accumulate adds rate and reports the wheel ticks to emit, if any. At most
// one quantum is consumed per call.
func (a *ScrollAccumulator) Accumulate(rate float64) (int, bool) {
	a.accumulated += rate
	if math.Abs(a.accumulated) < ScrollQuantum-scrollEpsilon {
		return 0, false
	}

	quantum := math.Copysign(ScrollQuantum, a.accumulated)
	a.accumulated -= quantum
	if math.Abs(a.accumulated) < scrollEpsilon {
		a.accumulated = 0
	}
	return int(quantum * WheelUnit), true
}

// Pending returns the carried remainder.
func (a *ScrollAccumulator) Pending() float64 {
	return a.accumulated
}
