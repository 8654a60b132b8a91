package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecideSwipe(t *testing.T) {
	tests := []struct {
		name     string
		offset   float64
		velocity float64
		want     SwipeDecision
	}{
		{"short slow drag stays", 40, 100, SwipeDecision{}},
		{"exactly at thresholds stays", 80, 800, SwipeDecision{}},
		{"far right", 81, 0, SwipeDecision{Dismiss: true, Direction: 1}},
		{"far left", -120, 0, SwipeDecision{Dismiss: true, Direction: -1}},
		{"fast fling right", 10, 900, SwipeDecision{Dismiss: true, Direction: 1}},
		{"fast fling left", -5, -1200, SwipeDecision{Dismiss: true, Direction: -1}},
		{"zero offset fling", 0, -900, SwipeDecision{Dismiss: true, Direction: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecideSwipe(tt.offset, tt.velocity))
		})
	}
}

func TestPhaseAndStatusStrings(t *testing.T) {
	assert.Equal(t, "idle", PhaseIdle.String())
	assert.Equal(t, "showing", PhaseShowing.String())
	assert.Equal(t, "dismissing", PhaseDismissing.String())

	assert.Equal(t, "SUBSCRIBED", StatusSubscribed.String())
	assert.False(t, StatusSubscribed.Terminal())
	assert.True(t, StatusTimedOut.Terminal())
	assert.True(t, StatusChannelError.Terminal())
	assert.True(t, StatusClosed.Terminal())
	assert.False(t, StatusNone.Terminal())
}
