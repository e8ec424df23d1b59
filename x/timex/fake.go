package timex

import (
	"context"
	"sync"
	"time"
)

// Fake records requested sleeps without blocking. OnSleep, when set, is
// called for each sleep before it is recorded.
type Fake struct {
	mu      sync.Mutex
	sleeps  []time.Duration
	OnSleep func(d time.Duration)
}

func (f *Fake) Sleep(ctx context.Context, d time.Duration) error {
	if f.OnSleep != nil {
		f.OnSleep(d)
	}
	f.mu.Lock()
	f.sleeps = append(f.sleeps, d)
	f.mu.Unlock()
	return ctx.Err()
}

// Sleeps returns a copy of every recorded duration in order.
func (f *Fake) Sleeps() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Duration(nil), f.sleeps...)
}

// Total is the sum of all recorded sleeps.
func (f *Fake) Total() time.Duration {
	var sum time.Duration
	for _, d := range f.Sleeps() {
		sum += d
	}
	return sum
}
