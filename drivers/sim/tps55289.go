package sim

import "sync"

// TPS55289 register map as seen by the model.
const (
	tpsRefLSB    = 0x00
	tpsRefMSB    = 0x01
	tpsIoutLimit = 0x02
	tpsVoutFS    = 0x04
	tpsMode      = 0x06
	tpsStatus    = 0x07
)

// TPS55289 models the buck-boost converter's register file. When an enable
// pin is attached the chip NACKs while the pin is low.
type TPS55289 struct {
	mu   sync.Mutex
	regs [8]byte
	ptr  byte
	en   *Pin

	loadOhms float64
}

func NewTPS55289(en *Pin) *TPS55289 {
	return &TPS55289{
		en:   en,
		regs: [8]byte{0xD2, 0x00, 0xE4, 0x01, 0x03, 0xE0, 0x20, 0x01},
	}
}

// SetLoad attaches a resistive load. Zero or negative means open circuit.
func (t *TPS55289) SetLoad(ohms float64) {
	t.mu.Lock()
	t.loadOhms = ohms
	t.mu.Unlock()
}

// Poke overwrites a register, including read-only STATUS.
func (t *TPS55289) Poke(reg, v byte) {
	t.mu.Lock()
	t.regs[reg&7] = v
	t.mu.Unlock()
}

func (t *TPS55289) Peek(reg byte) byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.regs[reg&7]
}

func (t *TPS55289) Tx(w, r []byte) error {
	if t.en != nil && !t.en.Get() {
		return ErrNack
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(w) > 0 {
		t.ptr = w[0] & 7
		p := t.ptr
		for _, b := range w[1:] {
			if p != tpsStatus {
				t.regs[p] = b
			}
			p = (p + 1) & 7
		}
	}
	p := t.ptr
	for i := range r {
		r[i] = t.regs[p]
		p = (p + 1) & 7
	}
	return nil
}

// Enabled reports the output-enable bit.
func (t *TPS55289) Enabled() bool {
	return t.Peek(tpsMode)&0x80 != 0
}

// SetpointMilliVolts decodes the programmed reference the same way the
// chip's feedback network would.
func (t *TPS55289) SetpointMilliVolts() uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	div := [4]uint32{625, 1250, 1875, 2500}[t.regs[tpsVoutFS]&3]
	ref := uint32(t.regs[tpsRefLSB]) | uint32(t.regs[tpsRefMSB])<<8
	return ((ref*1129/2)+45000)*div/141000
}

// CurrentLimit returns the programmed limit in amps, or 6.35 A when the
// limit is disabled.
func (t *TPS55289) CurrentLimit() float64 {
	reg := t.Peek(tpsIoutLimit)
	if reg&0x80 == 0 {
		return 6.35
	}
	return float64(reg&0x7F) * 0.05
}

// Output returns terminal voltage and current. With a load attached the
// converter drops into constant-current once the limit is reached.
func (t *TPS55289) Output() (volts, amps float64) {
	if !t.Enabled() || (t.en != nil && !t.en.Get()) {
		return 0, 0
	}
	v := float64(t.SetpointMilliVolts()) / 1000
	t.mu.Lock()
	load := t.loadOhms
	t.mu.Unlock()
	if load <= 0 {
		return v, 0
	}
	i := v / load
	if lim := t.CurrentLimit(); i > lim {
		i = lim
		v = i * load
	}
	return v, i
}
