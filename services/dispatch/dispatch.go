// Package dispatch is the main execution context: it feeds events from the
// hardware and panel queues into the application and executes the tasks it
// returns, in order, before taking the next event.
package dispatch

import (
	"context"

	"benchpsu-go/app"
	"benchpsu-go/bus"
	"benchpsu-go/services/display"
	"benchpsu-go/types"

	"github.com/rs/zerolog"
)

// Executor runs hardware tasks. *hal.HAL satisfies it.
type Executor interface {
	Execute(ctx context.Context, t types.HardwareTask) error
}

type Config struct {
	App      *app.App
	Hardware Executor
	Display  display.Display
	HwEvents <-chan types.HardwareEvent
	UIEvents <-chan types.InterfaceEvent
	Conn     *bus.Connection // optional state telemetry
	Logger   zerolog.Logger
}

type Dispatcher struct {
	cfg  Config
	log  zerolog.Logger
	last app.HardwareState
}

func New(cfg Config) *Dispatcher {
	return &Dispatcher{
		cfg:  cfg,
		log:  cfg.Logger.With().Str("component", "dispatch").Logger(),
		last: cfg.App.State(),
	}
}

// Run processes events until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.log.Info().Msg("dispatcher started")
	for d.Step(ctx) {
	}
	d.log.Info().Msg("dispatcher stopped")
	return ctx.Err()
}

// Step waits for one event and handles it. A pending hardware event is
// always taken before a button event. It returns false once ctx is done.
func (d *Dispatcher) Step(ctx context.Context) bool {
	select {
	case ev := <-d.cfg.HwEvents:
		d.hardware(ctx, ev)
		return true
	default:
	}
	select {
	case <-ctx.Done():
		return false
	case ev := <-d.cfg.HwEvents:
		d.hardware(ctx, ev)
	case ev := <-d.cfg.UIEvents:
		d.Execute(ctx, d.cfg.App.HandleInterface(ev))
	}
	return true
}

func (d *Dispatcher) hardware(ctx context.Context, ev types.HardwareEvent) {
	d.Execute(ctx, d.cfg.App.HandleHardware(ev))
	if s := d.cfg.App.State(); s != d.last {
		d.last = s
		d.log.Info().Stringer("state", s).Msg("hardware state")
		if d.cfg.Conn != nil {
			d.cfg.Conn.Publish(d.cfg.Conn.NewMessage(bus.T("state", "hardware"), s.String(), true))
		}
	}
}

// Execute runs every task in emission order. A failing task is logged and
// does not stop the rest; there is no retry.
func (d *Dispatcher) Execute(ctx context.Context, at *types.AppTask) {
	if at.Empty() {
		return
	}
	for _, t := range at.Tasks() {
		switch t := t.(type) {
		case types.HardwareTask:
			if err := d.cfg.Hardware.Execute(ctx, t); err != nil {
				d.log.Error().Err(err).Stringer("task", t.Op).Stringer("ch", t.Channel).Msg("hardware task failed")
			}
		case types.DisplayTask:
			if d.cfg.Display == nil {
				continue
			}
			if err := d.cfg.Display.Render(t); err != nil {
				d.log.Warn().Err(err).Stringer("task", t.Op).Msg("render failed")
			}
		}
	}
}
