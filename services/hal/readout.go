package hal

import (
	"context"
	"time"

	"benchpsu-go/bus"
	"benchpsu-go/types"
	"benchpsu-go/x/timex"
)

// readoutLoop samples both channels every period until ctx ends. A channel
// whose read fails is skipped for that cycle; partial readouts are never
// emitted. When the queue is full the readout is dropped, the next cycle
// supersedes it anyway.
func (h *HAL) readoutLoop(ctx context.Context) {
	period := timex.PeriodFromHz(h.cfg.ReadoutHz)
	tick := time.NewTicker(period)
	defer tick.Stop()
	h.log.Info().Dur("period", period).Msg("readout loop started")

	for {
		select {
		case <-ctx.Done():
			h.log.Info().Msg("readout loop stopped")
			return
		case <-tick.C:
			h.sample()
		}
	}
}

func (h *HAL) sample() {
	for _, ch := range types.Channels {
		s := h.cfg.Senses[ch.Index()]
		if s == nil {
			continue
		}
		r, err := s.Read()
		if err != nil {
			h.log.Warn().Err(err).Stringer("ch", ch).Msg("readout failed")
			continue
		}
		h.publish(bus.T("readout", ch.String()), r)
		if !h.tryEmit(types.ReadoutAcquired(ch, r)) {
			h.log.Debug().Stringer("ch", ch).Msg("event queue full, readout dropped")
		}
	}
}
