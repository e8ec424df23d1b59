package app

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStepFloor(t *testing.T) {
	p := NewPrecision(1, CurrentMinStep)
	assert.InDelta(t, 0.1, p.Step(), 1e-6)
	p.CursorRight()
	assert.InDelta(t, 0.05, p.Step(), 1e-6, "10^-2 is below the floor")
	p.CursorLeft()
	p.CursorLeft()
	p.CursorLeft()
	assert.Equal(t, MaxExponent, p.Exponent)
	assert.InDelta(t, 10, p.Step(), 1e-6)
}

func TestIncrementStaysOnGrid(t *testing.T) {
	p := NewPrecision(3.3, VoltageMinStep).WithRange(0.2, 20)
	for i := 0; i < 7; i++ {
		p.Increment()
	}
	assert.Equal(t, float32(4.0), p.Value)
	p.CursorRight()
	p.Decrement()
	assert.Equal(t, float32(3.99), p.Value)
}

func TestWithRangeClampsInitialValue(t *testing.T) {
	p := NewPrecision(25, VoltageMinStep).WithRange(0.2, 20)
	assert.Equal(t, float32(20), p.Value)
}

func TestPrecisionInvariantsUnderRandomOps(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for run := 0; run < 200; run++ {
		lo, hi := float32(0.2), float32(20)
		p := NewPrecision(lo+rng.Float32()*(hi-lo), VoltageMinStep).WithRange(lo, hi)
		for i := 0; i < 200; i++ {
			switch rng.Intn(4) {
			case 0:
				p.Increment()
			case 1:
				p.Decrement()
			case 2:
				p.CursorLeft()
			case 3:
				p.CursorRight()
			}
			assert.GreaterOrEqual(t, p.Exponent, MinExponent)
			assert.LessOrEqual(t, p.Exponent, MaxExponent)
			assert.GreaterOrEqual(t, p.Value, lo)
			assert.LessOrEqual(t, p.Value, hi)
		}
	}
}
