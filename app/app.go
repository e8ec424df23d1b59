// Package app is the bench supply's application state machine. It owns the
// per-channel setpoints, the front panel state and the hardware bring-up
// sequence, and turns each incoming event into an ordered list of tasks.
//
// App does no I/O beyond logging. It is not safe for concurrent use; the
// dispatcher owns it.
package app

import (
	"time"

	"benchpsu-go/types"

	"github.com/rs/zerolog"
)

type HardwareState uint8

const (
	PowerOn HardwareState = iota
	WaitingForPowerDelivery
	WaitingForSense
	WaitingForConverter
	WaitingMainUi
	Standby
)

var hwStateNames = [...]string{
	PowerOn:                 "power_on",
	WaitingForPowerDelivery: "waiting_for_power_delivery",
	WaitingForSense:         "waiting_for_sense",
	WaitingForConverter:     "waiting_for_converter",
	WaitingMainUi:           "waiting_main_ui",
	Standby:                 "standby",
}

func (s HardwareState) String() string {
	if int(s) < len(hwStateNames) {
		return hwStateNames[s]
	}
	return "unknown"
}

type Screen uint8

const (
	ScreenBoot Screen = iota
	ScreenMain
)

// ArrowsFunction is what the arrow keys currently do.
type ArrowsFunction uint8

const (
	Navigation ArrowsFunction = iota
	SetpointEdit
)

// InterfaceState is the front panel state. SetpointEdit is only reachable
// with a channel selected.
type InterfaceState struct {
	Screen      Screen
	Selected    types.Channel
	HasSelected bool
	Arrows      ArrowsFunction
	SetState    types.SetState
	Highlight   types.FunctionButton
}

// Ranges for targets and protection limits. The voltage limit shares the
// converter's 0.2 V floor so a clamped target is always programmable.
var (
	TargetVoltageRange = [2]float32{0.2, 20}
	TargetCurrentRange = [2]float32{0, 5}
	LimitVoltageRange  = [2]float32{0.2, 20}
	LimitCurrentRange  = [2]float32{0, 5}
)

// Minimum edit steps follow the converter resolution.
const (
	VoltageMinStep = 0.01
	CurrentMinStep = 0.05
)

// ChannelState is one output's setpoints and last measurement.
type ChannelState struct {
	Enabled bool
	Select  types.SetSelect

	TargetV, TargetI PrecisionValue
	LimitV, LimitI   PrecisionValue

	Readout    types.Readout
	HasReadout bool
}

func newChannel(target, limit types.Limits) ChannelState {
	return ChannelState{
		Select:  types.SelectVoltage,
		TargetV: NewPrecision(target.Voltage, VoltageMinStep).WithRange(TargetVoltageRange[0], TargetVoltageRange[1]),
		TargetI: NewPrecision(target.Current, CurrentMinStep).WithRange(TargetCurrentRange[0], TargetCurrentRange[1]),
		LimitV:  NewPrecision(limit.Voltage, VoltageMinStep).WithRange(LimitVoltageRange[0], LimitVoltageRange[1]),
		LimitI:  NewPrecision(limit.Current, CurrentMinStep).WithRange(LimitCurrentRange[0], LimitCurrentRange[1]),
	}
}

func (c *ChannelState) Target() types.Limits {
	return types.Limits{Voltage: c.TargetV.Value, Current: c.TargetI.Value}
}

func (c *ChannelState) Limits() types.Limits {
	return types.Limits{Voltage: c.LimitV.Value, Current: c.LimitI.Value}
}

// LiveTarget is what the converter is programmed with: the target held
// under the protection limit.
func (c *ChannelState) LiveTarget() types.Limits {
	t, l := c.Target(), c.Limits()
	if t.Voltage > l.Voltage {
		t.Voltage = l.Voltage
	}
	if t.Current > l.Current {
		t.Current = l.Current
	}
	return t
}

// Shown returns the values displayed for a set state.
func (c *ChannelState) Shown(s types.SetState) types.Limits {
	if s == types.SetLimit {
		return c.Limits()
	}
	return c.Target()
}

// field is the value the arrows edit for set state s.
func (c *ChannelState) field(s types.SetState) *PrecisionValue {
	switch {
	case s == types.SetLimit && c.Select == types.SelectCurrent:
		return &c.LimitI
	case s == types.SetLimit:
		return &c.LimitV
	case c.Select == types.SelectCurrent:
		return &c.TargetI
	default:
		return &c.TargetV
	}
}

type Config struct {
	// Targets are the power-on setpoints for channel A and B.
	Targets [2]types.Limits
	// Limits are the power-on protection ceilings. Zero means 20 V / 5 A.
	Limits [2]types.Limits
	// StartDelay between ConverterReady and the main screen. Default 500 ms.
	StartDelay time.Duration
	Logger     zerolog.Logger
}

// DefaultTargets are the setpoints used when none are configured.
var DefaultTargets = [2]types.Limits{
	{Voltage: 5.0, Current: 1.0},
	{Voltage: 3.3, Current: 1.0},
}

type App struct {
	ch    [2]ChannelState
	ui    InterfaceState
	hw    HardwareState
	power types.PowerType

	startDelay time.Duration
	log        zerolog.Logger
}

func New(cfg Config) *App {
	if cfg.StartDelay <= 0 {
		cfg.StartDelay = 500 * time.Millisecond
	}
	a := &App{
		startDelay: cfg.StartDelay,
		log:        cfg.Logger.With().Str("component", "app").Logger(),
	}
	for i := range a.ch {
		t := cfg.Targets[i]
		if t == (types.Limits{}) {
			t = DefaultTargets[i]
		}
		l := cfg.Limits[i]
		if l == (types.Limits{}) {
			l = types.Limits{Voltage: LimitVoltageRange[1], Current: LimitCurrentRange[1]}
		}
		a.ch[i] = newChannel(t, l)
	}
	return a
}

func (a *App) State() HardwareState      { return a.hw }
func (a *App) Interface() InterfaceState { return a.ui }
func (a *App) Power() types.PowerType    { return a.power }
func (a *App) Channel(ch types.Channel) ChannelState {
	return a.ch[ch.Index()]
}

func (a *App) chState(ch types.Channel) *ChannelState { return &a.ch[ch.Index()] }

// finish logs any tasks dropped for exceeding the per-event bound.
func (a *App) finish(t *types.AppTask, cause string) *types.AppTask {
	for _, d := range t.Dropped() {
		a.log.Warn().Str("event", cause).Interface("task", d).Msg("task list full, dropped")
	}
	return t
}
