// Package psu assembles the running supply: HAL executor, panel poller and
// dispatcher, plus the optional metrics exporter and heartbeat, all sharing
// one context.
package psu

import (
	"context"
	"sync"

	"benchpsu-go/app"
	"benchpsu-go/bus"
	"benchpsu-go/services/config"
	"benchpsu-go/services/dispatch"
	"benchpsu-go/services/display"
	"benchpsu-go/services/hal"
	"benchpsu-go/services/heartbeat"
	"benchpsu-go/services/metrics"
	"benchpsu-go/services/panel"
	"benchpsu-go/types"
	"benchpsu-go/x/timex"

	"github.com/rs/zerolog"
)

type Options struct {
	Config  config.Config
	HAL     hal.Config
	Panel   panel.Source
	Display display.Display
	// Gauger enables metrics export when set.
	Gauger  metrics.Gauger
	Sleeper timex.Sleeper
	Logger  zerolog.Logger
}

// System is a wired supply. Start it with Run.
type System struct {
	Bus        *bus.Bus
	App        *app.App
	HAL        *hal.HAL
	Poller     *panel.Poller
	Dispatcher *dispatch.Dispatcher

	exporter  *metrics.Exporter
	heartbeat *heartbeat.Service
	log       zerolog.Logger
}

func New(o Options) *System {
	cfg := o.Config
	b := bus.NewBus(cfg.Queues.Events)

	hc := o.HAL
	hc.Conn = b.NewConnection("hal")
	hc.Sleeper = o.Sleeper
	hc.Logger = o.Logger
	h := hal.New(hc)

	a := app.New(app.Config{
		Targets:    cfg.Targets(),
		StartDelay: cfg.StartDelay(),
		Logger:     o.Logger,
	})
	p := panel.NewPoller(o.Panel, panel.Config{
		Interval: cfg.PanelPoll(),
		QueueLen: cfg.Queues.Events,
		Logger:   o.Logger,
	})
	s := &System{
		Bus:    b,
		App:    a,
		HAL:    h,
		Poller: p,
		Dispatcher: dispatch.New(dispatch.Config{
			App:      a,
			Hardware: h,
			Display:  o.Display,
			HwEvents: h.Events(),
			UIEvents: p.Events(),
			Conn:     b.NewConnection("dispatch"),
			Logger:   o.Logger,
		}),
		log: o.Logger.With().Str("component", "psu").Logger(),
	}
	if o.Gauger != nil {
		s.exporter = metrics.New(o.Gauger, o.Logger)
	}
	if cfg.Heartbeat.IntervalMs > 0 {
		s.heartbeat = heartbeat.New(cfg.Heartbeat.Interval(), o.Logger)
	}
	cfg.Publish(b.NewConnection("config"))
	return s
}

// Run posts PowerOn and runs every context until ctx is cancelled. It
// returns after all goroutines have stopped.
func (s *System) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	start := func(f func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f()
		}()
	}
	start(func() { s.Poller.Run(ctx) })
	if s.exporter != nil {
		conn := s.Bus.NewConnection("metrics")
		start(func() { s.exporter.Run(ctx, conn) })
	}
	if s.heartbeat != nil {
		conn := s.Bus.NewConnection("heartbeat")
		start(func() { s.heartbeat.Run(ctx, conn) })
	}

	s.log.Info().Msg("power on")
	if err := s.HAL.Post(ctx, types.PowerOn()); err != nil {
		return err
	}
	err := s.Dispatcher.Run(ctx)
	wg.Wait()
	s.HAL.Wait()
	return err
}
