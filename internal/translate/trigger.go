package translate

// TriggerThreshold is the normalised trigger value above which a trigger
// counts as pulled (128 on the 0..255 hardware scale).
const TriggerThreshold = 128.0 / 255.0

// Edge is the transition of a thresholded analog input between two ticks.
type Edge uint8

const (
	NoEdge Edge = iota
	Rising
	Falling
)

// TriggerEdge compares current and previous against a single symmetric
// threshold. There is no hysteresis band.
func TriggerEdge(current, previous, threshold float64) Edge {
	switch {
	case current > threshold && previous <= threshold:
		return Rising
	case current <= threshold && previous > threshold:
		return Falling
	}
	return NoEdge
}
