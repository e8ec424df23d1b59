// Package hal executes the application's hardware tasks against the channel
// drivers and turns their completions into hardware events.
//
// Execute runs on the dispatcher goroutine and calls drivers synchronously.
// The readout loop and delayed events run on their own goroutines and feed
// the same bounded event queue.
package hal

import (
	"context"
	"math"
	"sync"

	"benchpsu-go/bus"
	"benchpsu-go/drivers/tps55289"
	"benchpsu-go/errcode"
	"benchpsu-go/types"
	"benchpsu-go/x/mathx"
	"benchpsu-go/x/timex"

	"github.com/rs/zerolog"
)

// Converter is one output stage. *tps55289.Device satisfies it.
type Converter interface {
	Init(ctx context.Context) error
	Enable() error
	Disable() error
	SetVoltage(ctx context.Context, mV uint16) error
	SetCurrent(mA uint16) error
}

// Sense is one channel's measurement chip. *ina226.Device satisfies it.
type Sense interface {
	Init() error
	Read() (types.Readout, error)
}

// PowerSource reports the negotiated input contract. *stusb4500.Device
// satisfies it.
type PowerSource interface {
	ActiveContract() (types.PowerType, error)
}

// FallbackPower is reported when the contract cannot be read: the USB
// default of 5 V at 500 mA.
var FallbackPower = types.Standard(types.Limits{Voltage: 5, Current: 0.5})

const defaultQueueLen = 32

type Config struct {
	Converters [2]Converter
	Senses     [2]Sense
	Source     PowerSource

	// ReadoutHz is the readout loop rate. Default 5.
	ReadoutHz uint32
	// QueueLen bounds the event queue. Default 32.
	QueueLen int
	// Sleeper times delayed events. Defaults to the wall clock.
	Sleeper timex.Sleeper
	// Conn, when set, receives readouts and converter state as retained
	// telemetry.
	Conn   *bus.Connection
	Logger zerolog.Logger
}

type HAL struct {
	cfg    Config
	events chan types.HardwareEvent
	log    zerolog.Logger

	readoutOnce sync.Once
	wg          sync.WaitGroup
}

func New(cfg Config) *HAL {
	if cfg.ReadoutHz == 0 {
		cfg.ReadoutHz = 5
	}
	if cfg.QueueLen <= 0 {
		cfg.QueueLen = defaultQueueLen
	}
	if cfg.Sleeper == nil {
		cfg.Sleeper = timex.Real{}
	}
	return &HAL{
		cfg:    cfg,
		events: make(chan types.HardwareEvent, cfg.QueueLen),
		log:    cfg.Logger.With().Str("component", "hal").Logger(),
	}
}

// Events is the hardware event queue consumed by the dispatcher.
func (h *HAL) Events() <-chan types.HardwareEvent { return h.events }

// Wait blocks until the readout loop and pending delayed events have
// returned. Callers cancel the context passed to Execute first.
func (h *HAL) Wait() { h.wg.Wait() }

// Post queues an event from outside the HAL, such as the initial PowerOn.
func (h *HAL) Post(ctx context.Context, ev types.HardwareEvent) error {
	return h.emit(ctx, ev)
}

// Execute runs one hardware task. Errors from converter updates are
// returned; bring-up failures are reported through the *Ready events, and
// a *Ready that does not fit in the queue fails with errcode.Busy.
func (h *HAL) Execute(ctx context.Context, t types.HardwareTask) error {
	switch t.Op {
	case types.OpEnablePowerDelivery:
		return h.reply(types.PowerDeliveryReady(h.contract()))

	case types.OpEnableSense:
		return h.reply(types.SenseReady(h.initSense()))

	case types.OpEnableConverter:
		return h.reply(types.ConverterReady(h.initConverters(ctx)))

	case types.OpEnableReadoutLoop:
		h.readoutOnce.Do(func() {
			h.wg.Add(1)
			go func() {
				defer h.wg.Done()
				h.readoutLoop(ctx)
			}()
		})
		return nil

	case types.OpUpdateConverterVoltage:
		c, err := h.converter(t.Channel)
		if err != nil {
			return err
		}
		mV := uint16(math.Round(float64(mathx.Clamp(t.Value, 0, 65.535)) * 1000))
		h.log.Debug().Stringer("ch", t.Channel).Uint16("mv", mV).Msg("set voltage")
		return c.SetVoltage(ctx, mV)

	case types.OpUpdateConverterCurrent:
		c, err := h.converter(t.Channel)
		if err != nil {
			return err
		}
		mA := uint16(math.Round(float64(mathx.Clamp(t.Value, 0, 65.535)) * 1000))
		mA = mathx.Clamp(mA, 0, tps55289.MaxMilliAmps)
		h.log.Debug().Stringer("ch", t.Channel).Uint16("ma", mA).Msg("set current")
		return c.SetCurrent(mA)

	case types.OpUpdateConverterState:
		c, err := h.converter(t.Channel)
		if err != nil {
			return err
		}
		if t.On {
			err = c.Enable()
		} else {
			err = c.Disable()
		}
		if err == nil {
			h.publish(bus.T("converter", t.Channel.String(), "enabled"), t.On)
		}
		return err

	case types.OpDelayedHardwareEvent:
		h.wg.Add(1)
		go func(d timex.Sleeper, ev types.HardwareEvent) {
			defer h.wg.Done()
			if err := d.Sleep(ctx, t.Delay); err != nil {
				return
			}
			if err := h.emit(ctx, ev); err != nil {
				h.log.Debug().Stringer("event", ev.Kind).Msg("delayed event dropped on shutdown")
			}
		}(h.cfg.Sleeper, t.Event)
		return nil
	}
	return errcode.New(errcode.Error, "hal.execute", "unknown task "+t.Op.String())
}

// ---------------- Bring-up ----------------

func (h *HAL) contract() types.PowerType {
	if h.cfg.Source == nil {
		h.log.Warn().Msg("no power source, assuming usb default")
		return FallbackPower
	}
	p, err := h.cfg.Source.ActiveContract()
	if err != nil {
		h.log.Warn().Err(err).Msg("contract read failed, assuming usb default")
		return FallbackPower
	}
	h.log.Info().Str("kind", p.String()).Float32("v", p.Limits.Voltage).Float32("a", p.Limits.Current).Msg("input contract")
	h.publish(bus.T("power", "contract"), p)
	return p
}

// initSense initialises both channels and returns the first failure.
func (h *HAL) initSense() error {
	var first error
	for _, ch := range types.Channels {
		s := h.cfg.Senses[ch.Index()]
		if s == nil {
			continue
		}
		if err := s.Init(); err != nil {
			h.log.Error().Err(err).Stringer("ch", ch).Msg("sense init failed")
			if first == nil {
				first = err
			}
		}
	}
	return first
}

func (h *HAL) initConverters(ctx context.Context) error {
	var first error
	for _, ch := range types.Channels {
		c := h.cfg.Converters[ch.Index()]
		if c == nil {
			continue
		}
		if err := c.Init(ctx); err != nil {
			h.log.Error().Err(err).Stringer("ch", ch).Msg("converter init failed")
			if first == nil {
				first = err
			}
		}
	}
	return first
}

func (h *HAL) converter(ch types.Channel) (Converter, error) {
	c := h.cfg.Converters[ch.Index()]
	if c == nil {
		return nil, errcode.New(errcode.Error, "hal.converter", "no converter for channel "+ch.String())
	}
	return c, nil
}

// ---------------- Events ----------------

// emit blocks until the event is queued or ctx ends.
func (h *HAL) emit(ctx context.Context, ev types.HardwareEvent) error {
	select {
	case h.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// reply queues the completion of a task run by Execute. Execute runs on the
// goroutine that drains the queue, so it must never block on it.
func (h *HAL) reply(ev types.HardwareEvent) error {
	if !h.tryEmit(ev) {
		h.log.Error().Stringer("event", ev.Kind).Msg("hardware event queue full")
		return errcode.New(errcode.Busy, "hal.execute", "hardware event queue full")
	}
	return nil
}

// tryEmit queues ev only if there is room.
func (h *HAL) tryEmit(ev types.HardwareEvent) bool {
	select {
	case h.events <- ev:
		return true
	default:
		return false
	}
}

func (h *HAL) publish(t bus.Topic, v any) {
	if h.cfg.Conn == nil {
		return
	}
	h.cfg.Conn.Publish(h.cfg.Conn.NewMessage(t, v, true))
}
