package sim

import "sync/atomic"

// Pin is a push-pull output. It satisfies the enable-pin shape the
// converter driver expects (High/Low).
type Pin struct {
	level atomic.Bool
	edges atomic.Int32
}

func (p *Pin) High() {
	if !p.level.Swap(true) {
		p.edges.Add(1)
	}
}

func (p *Pin) Low() {
	if p.level.Swap(false) {
		p.edges.Add(1)
	}
}

func (p *Pin) Get() bool { return p.level.Load() }

// Edges counts level changes since creation.
func (p *Pin) Edges() int { return int(p.edges.Load()) }
