// Package drvshim adapts buses to the tinygo driver Tx shape.
package drvshim

import (
	"sync"

	"tinygo.org/x/drivers"
)

// Shared serialises Tx calls so several drivers can sit on one bus from
// different goroutines. Each Tx is one write/repeated-start/read transaction.
type Shared struct {
	mu  sync.Mutex
	bus drivers.I2C
}

func NewShared(bus drivers.I2C) *Shared {
	return &Shared{bus: bus}
}

func (s *Shared) Tx(addr uint16, w, r []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bus.Tx(addr, w, r)
}

// Func lets a plain function act as a bus, mostly for periph adapters.
type Func func(addr uint16, w, r []byte) error

func (f Func) Tx(addr uint16, w, r []byte) error { return f(addr, w, r) }
