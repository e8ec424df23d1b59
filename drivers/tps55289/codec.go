package tps55289

import "time"

// Output voltage window in millivolts.
const (
	MinMilliVolts = 200
	MaxMilliVolts = 20000
)

// CurrentStepMilliAmps is the IOUT_LIMIT LSB; the field is 7 bits wide.
const (
	CurrentStepMilliAmps = 50
	MaxMilliAmps         = 0x7F * CurrentStepMilliAmps
)

var divisors = [4]uint32{625, 1250, 1875, 2500}

// FeedbackRange picks the VOUT_FS code and divisor for a target. ok is false
// outside [MinMilliVolts, MaxMilliVolts].
func FeedbackRange(mV uint16) (divisor uint32, code uint8, ok bool) {
	switch {
	case mV < MinMilliVolts || mV > MaxMilliVolts:
		return 0, 0, false
	case mV <= 5000:
		return 625, 0, true
	case mV <= 10000:
		return 1250, 1, true
	case mV <= 15000:
		return 1875, 2, true
	default:
		return 2500, 3, true
	}
}

// Divisor maps a VOUT_FS register value to its divisor.
func Divisor(fs byte) uint32 { return divisors[fs&3] }

// EncodeRef converts a target to the 16-bit reference code for divisor.
// Callers must have range-checked mV with FeedbackRange.
func EncodeRef(mV uint16, divisor uint32) uint16 {
	vref := uint64(mV)*1000*141/uint64(divisor) - 45000
	return uint16(vref * 2 / 1129)
}

// DecodeMilliVolts is the inverse of EncodeRef.
func DecodeMilliVolts(ref uint16, divisor uint32) uint16 {
	vref := uint64(ref) * 1129 / 2
	return uint16((vref + 45000) * uint64(divisor) / 141000)
}

// DischargeTime is how long the ~590 µF output bank needs to bleed from vi
// to vf (both mV), plus a fixed 20 ms margin. Zero when not lowering.
func DischargeTime(vi, vf uint16) time.Duration {
	if vi <= vf {
		return 0
	}
	us := 590*uint64(vi-vf)/100 + 20000
	return time.Duration(us) * time.Microsecond
}

// CurrentCode builds the IOUT_LIMIT register value. ok is false when the
// limit does not fit in the 7-bit field.
func CurrentCode(mA uint16) (reg byte, ok bool) {
	steps := mA / CurrentStepMilliAmps
	if steps > 0x7F {
		return 0, false
	}
	return ioutLimitEnable | byte(steps), true
}
