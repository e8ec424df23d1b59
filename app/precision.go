package app

import (
	"math"

	"benchpsu-go/x/mathx"
)

// Cursor bounds: 10^1 down to 10^-2.
const (
	MinExponent int8 = -2
	MaxExponent int8 = 1
)

// PrecisionValue is a number edited one decimal digit at a time. Exponent
// selects the digit; the effective step never drops below MinStep.
type PrecisionValue struct {
	Value    float32
	Exponent int8
	MinStep  float32

	Lo, Hi   float32
	HasRange bool
}

// NewPrecision starts with the cursor on the tenths digit.
func NewPrecision(v, minStep float32) PrecisionValue {
	return PrecisionValue{Value: v, Exponent: -1, MinStep: minStep}
}

// WithRange returns p with a clamp range applied to its current value.
func (p PrecisionValue) WithRange(lo, hi float32) PrecisionValue {
	p.Lo, p.Hi, p.HasRange = lo, hi, true
	p.Value = p.clamp(p.Value)
	return p
}

// Step is max(10^Exponent, MinStep).
func (p PrecisionValue) Step() float32 {
	return float32(math.Max(float64(mathx.Pow10(p.Exponent)), float64(p.MinStep)))
}

func (p *PrecisionValue) Increment() { p.Value = p.clamp(mathx.RoundTo(p.Value+p.Step(), -2)) }
func (p *PrecisionValue) Decrement() { p.Value = p.clamp(mathx.RoundTo(p.Value-p.Step(), -2)) }

// CursorLeft moves to the next more significant digit.
func (p *PrecisionValue) CursorLeft() {
	p.Exponent = mathx.Clamp(p.Exponent+1, MinExponent, MaxExponent)
}

// CursorRight moves to the next less significant digit.
func (p *PrecisionValue) CursorRight() {
	p.Exponent = mathx.Clamp(p.Exponent-1, MinExponent, MaxExponent)
}

func (p PrecisionValue) clamp(v float32) float32 {
	if !p.HasRange {
		return v
	}
	return mathx.Clamp(v, p.Lo, p.Hi)
}
