package dispatch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfirmGuard(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		second time.Duration
		want   Decision
	}{
		{"second press inside window commits", 200 * time.Millisecond, DecisionCommit},
		{"second press at window edge commits", 250 * time.Millisecond, DecisionCommit},
		{"second press after window re-arms", 400 * time.Millisecond, DecisionWarn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewConfirmGuard(0, nil)
			assert.Equal(t, DecisionWarn, g.ActivateAt("p1", base))
			assert.Equal(t, tt.want, g.ActivateAt("p1", base.Add(tt.second)))
		})
	}
}

func TestConfirmGuard_ReArmAfterLapse(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	g := NewConfirmGuard(250*time.Millisecond, nil)

	assert.Equal(t, DecisionWarn, g.ActivateAt("p1", base))
	assert.Equal(t, DecisionWarn, g.ActivateAt("p1", base.Add(400*time.Millisecond)))
	assert.Equal(t, DecisionCommit, g.ActivateAt("p1", base.Add(500*time.Millisecond)))
	// Committing disarms.
	assert.Equal(t, DecisionWarn, g.ActivateAt("p1", base.Add(600*time.Millisecond)))
}

func TestConfirmGuard_ControlsAreIndependent(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	g := NewConfirmGuard(0, nil)

	assert.Equal(t, DecisionWarn, g.ActivateAt("p1", base))
	assert.Equal(t, DecisionWarn, g.ActivateAt("p2", base.Add(10*time.Millisecond)))
	assert.Equal(t, DecisionCommit, g.ActivateAt("p1", base.Add(20*time.Millisecond)))
}

func TestConfirmGuard_Disarm(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	g := NewConfirmGuard(0, func() time.Time { return now })
	assert.Equal(t, DefaultConfirmWindow, g.Window())

	assert.Equal(t, DecisionWarn, g.Activate("p1"))
	g.Disarm("p1")
	assert.Equal(t, DecisionWarn, g.Activate("p1"), "disarmed control starts over")
	assert.Equal(t, DecisionCommit, g.Activate("p1"))
}
