package sim

import (
	"math"
	"sync"
)

const (
	inaConfig  = 0x00
	inaShunt   = 0x01
	inaBus     = 0x02
	inaPower   = 0x03
	inaCurrent = 0x04
	inaCal     = 0x05
	inaManuf   = 0xFE
	inaDie     = 0xFF
)

// Source supplies the instantaneous voltage and current seen by a sense chip.
type Source func() (volts, amps float64)

// INA226 models the current/power monitor. Measurement registers are
// derived from Source on every read using the programmed calibration.
type INA226 struct {
	mu    sync.Mutex
	regs  map[byte]uint16
	ptr   byte
	shunt float64
	src   Source
}

func NewINA226(shuntOhms float64, src Source) *INA226 {
	return &INA226{
		shunt: shuntOhms,
		src:   src,
		regs: map[byte]uint16{
			inaConfig: 0x4127,
			inaManuf:  0x5449,
			inaDie:    0x2260,
		},
	}
}

// SetManufacturer overrides the ID register, for bring-up failure tests.
func (c *INA226) SetManufacturer(id uint16) {
	c.mu.Lock()
	c.regs[inaManuf] = id
	c.mu.Unlock()
}

// Calibration returns the last value written to the calibration register.
func (c *INA226) Calibration() uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.regs[inaCal]
}

func (c *INA226) Tx(w, r []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(w) > 0 {
		c.ptr = w[0]
	}
	if len(w) >= 3 {
		switch c.ptr {
		case inaConfig, inaCal, 0x06, 0x07:
			c.regs[c.ptr] = uint16(w[1])<<8 | uint16(w[2])
		}
	}
	if len(r) >= 2 {
		v := c.value(c.ptr)
		r[0], r[1] = byte(v>>8), byte(v)
	}
	return nil
}

func (c *INA226) value(reg byte) uint16 {
	var volts, amps float64
	if c.src != nil {
		volts, amps = c.src()
	}
	cal := c.regs[inaCal]
	lsb := 0.0
	if cal != 0 && c.shunt > 0 {
		lsb = 0.00512 / (float64(cal) * c.shunt)
	}
	switch reg {
	case inaShunt:
		return uint16(int16(sat(amps*c.shunt/2.5e-6, math.MinInt16, math.MaxInt16)))
	case inaBus:
		return uint16(sat(volts/1.25e-3, 0, 0x7FFF))
	case inaCurrent:
		if lsb == 0 {
			return 0
		}
		return uint16(int16(sat(amps/lsb, math.MinInt16, math.MaxInt16)))
	case inaPower:
		if lsb == 0 {
			return 0
		}
		return uint16(sat(volts*math.Abs(amps)/(lsb*25), 0, math.MaxUint16))
	}
	return c.regs[reg]
}

func sat(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, math.Round(v)))
}
