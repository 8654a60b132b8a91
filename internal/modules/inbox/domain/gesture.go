package domain

const (
	// SwipeDistanceThreshold is the horizontal drag distance, in points, past which a banner is dismissed.
	SwipeDistanceThreshold = 80.0
	// SwipeVelocityThreshold is the horizontal fling velocity, in points per second.
	SwipeVelocityThreshold = 800.0
)

// SwipeDecision is the outcome of a finished horizontal drag.
type SwipeDecision struct {
	Dismiss   bool
	Direction int // 1 right, -1 left
}

// DecideSwipe compares a drag's final offset and velocity with the thresholds.
// Either one crossing in either direction dismisses; the direction follows the offset.
func DecideSwipe(offset, velocity float64) SwipeDecision {
	if abs(offset) > SwipeDistanceThreshold || abs(velocity) > SwipeVelocityThreshold {
		dir := 1
		if offset < 0 {
			dir = -1
		}
		return SwipeDecision{Dismiss: true, Direction: dir}
	}
	return SwipeDecision{}
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
