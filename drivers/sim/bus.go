// Package sim provides an in-memory register bus with chip models for the
// converter, sense and USB-PD devices. The host build and the driver tests
// run against it; nothing here tries to be electrically accurate.
package sim

import (
	"errors"
	"fmt"
	"sync"
)

// ErrNack is returned for transactions to an address with no attached chip
// or a chip that is powered down.
var ErrNack = errors.New("sim: nack")

// Chip is one device on the bus. Tx has the same write-then-read shape as
// drivers.I2C without the address.
type Chip interface {
	Tx(w, r []byte) error
}

// Op records one completed transaction.
type Op struct {
	Addr uint16
	W    []byte
	R    []byte
	Err  error
}

func (o Op) String() string {
	return fmt.Sprintf("%#02x w=% x r=% x", o.Addr, o.W, o.R)
}

// Bus dispatches transactions by address. It implements drivers.I2C.
type Bus struct {
	mu    sync.Mutex
	chips map[uint16]Chip
	fail  map[uint16]error
	log   []Op
	keep  bool

	// OnTx, when set, observes every transaction after it completes.
	OnTx func(Op)
}

func NewBus() *Bus {
	return &Bus{chips: map[uint16]Chip{}, fail: map[uint16]error{}}
}

// Attach places c at addr, replacing any previous chip there.
func (b *Bus) Attach(addr uint16, c Chip) {
	b.mu.Lock()
	b.chips[addr] = c
	b.mu.Unlock()
}

// Fail makes every transaction to addr return err. A nil err clears it.
func (b *Bus) Fail(addr uint16, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		delete(b.fail, addr)
		return
	}
	b.fail[addr] = err
}

// Record turns the transaction log on or off. It is off by default so a
// long-running simulator does not grow without bound.
func (b *Bus) Record(on bool) {
	b.mu.Lock()
	b.keep = on
	if !on {
		b.log = nil
	}
	b.mu.Unlock()
}

// Log returns the recorded transactions.
func (b *Bus) Log() []Op {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Op(nil), b.log...)
}

func (b *Bus) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	c, ok := b.chips[addr]
	err := b.fail[addr]
	b.mu.Unlock()

	if err == nil && !ok {
		err = ErrNack
	}
	if err == nil {
		err = c.Tx(w, r)
	}

	op := Op{Addr: addr, W: append([]byte(nil), w...), R: append([]byte(nil), r...), Err: err}
	b.mu.Lock()
	if b.keep {
		b.log = append(b.log, op)
	}
	hook := b.OnTx
	b.mu.Unlock()
	if hook != nil {
		hook(op)
	}
	return err
}
