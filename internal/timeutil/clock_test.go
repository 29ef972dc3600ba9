package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRealClock(t *testing.T) {
	var c Clock = RealClock{}
	before := time.Now()
	now := c.Now()
	assert.False(t, now.Before(before))
}

func TestMockClock_SetAndAdvance(t *testing.T) {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewMockClock(start)

	assert.Equal(t, start, c.Now())
	assert.Equal(t, start, c.Now(), "zero step leaves the clock still")

	c.Advance(90 * time.Second)
	assert.Equal(t, start.Add(90*time.Second), c.Now())

	later := start.Add(time.Hour)
	c.Set(later)
	assert.Equal(t, later, c.Now())
}

func TestMockClock_Step(t *testing.T) {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewMockClock(start)
	c.Step = time.Millisecond

	first := c.Now()
	second := c.Now()
	assert.Equal(t, start, first)
	assert.Equal(t, time.Millisecond, second.Sub(first))
	assert.Equal(t, start.Add(2*time.Millisecond), c.Now())
}
