package sim

import (
	"encoding/binary"
	"sync"
)

const (
	stDPMPDONumb  = 0x70
	stPDOBase     = 0x85
	stRDOStatus   = 0x91
	stPasswordReg = 0x95
	stCtrl0       = 0x96
	stCtrl1       = 0x97
	stRWBuffer    = 0x53

	stPassword = 0x47
	stReq      = 0x10
	stPwrRst   = 0xC0
)

// FactorySectors is the NVM image the chip ships with.
var FactorySectors = [5][8]byte{
	{0x00, 0x00, 0xB0, 0xAA, 0x00, 0x45, 0x00, 0x00},
	{0x10, 0x40, 0x9C, 0x1C, 0xFF, 0x01, 0x3C, 0xDF},
	{0x02, 0x40, 0x0F, 0x00, 0x32, 0x00, 0xFC, 0xF1},
	{0x00, 0x19, 0x56, 0xAF, 0xF5, 0x35, 0x5F, 0x00},
	{0x00, 0x4B, 0x90, 0x21, 0x43, 0x00, 0x40, 0xFB},
}

// STUSB4500 models the USB-PD sink controller: a flat byte register file,
// three live PDO words and the password-gated FTP engine that reads,
// erases and programs the five NVM sectors.
type STUSB4500 struct {
	mu   sync.Mutex
	regs [256]byte
	ptr  byte
	nvm  [5][8]byte
	pl   [8]byte
	ser  byte

	pending int

	// BusyReads is how many CTRL0 reads keep REQ set after a request.
	BusyReads int
	// Stuck keeps REQ set forever.
	Stuck bool

	erases, programs int
}

func NewSTUSB4500() *STUSB4500 {
	s := &STUSB4500{nvm: FactorySectors}
	s.regs[stDPMPDONumb] = 3
	s.setPDO(1, 5, 1.5)
	s.setPDO(2, 15, 1.5)
	s.setPDO(3, 20, 1.0)
	return s
}

func (s *STUSB4500) setPDO(n int, volts, amps float64) {
	w := uint32(volts*20+0.5)<<10 | uint32(amps*100+0.5)&0x3FF
	binary.LittleEndian.PutUint32(s.regs[stPDOBase+(n-1)*4:], w)
}

// Negotiate sets the RDO status as if a contract on PDO position pos had
// been agreed. Position 0 means no PD contract.
func (s *STUSB4500) Negotiate(pos uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rdo := uint32(pos&7) << 28
	if pos >= 1 && pos <= 3 {
		pdo := binary.LittleEndian.Uint32(s.regs[stPDOBase+int(pos-1)*4:])
		rdo |= pdo & 0x3FF
		rdo |= (pdo & 0x3FF) << 10
	}
	binary.LittleEndian.PutUint32(s.regs[stRDOStatus:], rdo)
}

// Sectors returns a copy of the NVM contents.
func (s *STUSB4500) Sectors() [5][8]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nvm
}

// SetSectors replaces the NVM contents directly.
func (s *STUSB4500) SetSectors(v [5][8]byte) {
	s.mu.Lock()
	s.nvm = v
	s.mu.Unlock()
}

// Counts returns how many erase and program operations ran.
func (s *STUSB4500) Counts() (erases, programs int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.erases, s.programs
}

// Reg reads one raw register.
func (s *STUSB4500) Reg(addr byte) byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.regs[addr]
}

func (s *STUSB4500) Tx(w, r []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(w) > 0 {
		s.ptr = w[0]
		p := s.ptr
		for _, b := range w[1:] {
			s.store(p, b)
			p++
		}
	}
	p := s.ptr
	for i := range r {
		r[i] = s.load(p)
		p++
	}
	return nil
}

func (s *STUSB4500) load(addr byte) byte {
	if addr != stCtrl0 || s.regs[stCtrl0]&stReq == 0 {
		return s.regs[addr]
	}
	switch {
	case s.Stuck:
	case s.pending > 0:
		s.pending--
	default:
		s.regs[stCtrl0] &^= stReq
	}
	return s.regs[addr]
}

func (s *STUSB4500) store(addr, v byte) {
	s.regs[addr] = v
	if addr != stCtrl0 || v&stReq == 0 {
		return
	}
	if s.regs[stPasswordReg] != stPassword || v&stPwrRst != stPwrRst {
		// Engine locked: the request never completes.
		s.pending = 1 << 30
		return
	}
	s.pending = s.BusyReads
	sector := int(v & 0x07)
	switch s.regs[stCtrl1] & 0x07 {
	case 0x00: // read
		if sector < 5 {
			copy(s.regs[stRWBuffer:stRWBuffer+8], s.nvm[sector][:])
		}
	case 0x01: // write load
		copy(s.pl[:], s.regs[stRWBuffer:stRWBuffer+8])
	case 0x02: // write sector erase register
		s.ser = s.regs[stCtrl1] >> 3
	case 0x05: // erase
		for i := range s.nvm {
			if s.ser&(1<<i) != 0 {
				s.nvm[i] = [8]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
			}
		}
		s.erases++
	case 0x06: // program: bits can only be cleared
		if sector < 5 {
			for i := range s.nvm[sector] {
				s.nvm[sector][i] &= s.pl[i]
			}
			s.programs++
		}
	}
}
