package types

import "time"

// Task is one unit of work emitted by the application. It is either a
// HardwareTask or a DisplayTask.
type Task interface{ isTask() }

// MaxTasks bounds the number of tasks a single event may produce.
const MaxTasks = 8

// AppTask is the ordered list of tasks produced by one event. Tasks are
// executed in emission order.
type AppTask struct {
	tasks   []Task
	dropped []Task
}

// Push appends t. When the list already holds MaxTasks entries the task is
// dropped and false is returned.
func (a *AppTask) Push(t Task) bool {
	if len(a.tasks) >= MaxTasks {
		a.dropped = append(a.dropped, t)
		return false
	}
	a.tasks = append(a.tasks, t)
	return true
}

func (a *AppTask) Tasks() []Task   { return a.tasks }
func (a *AppTask) Dropped() []Task { return a.dropped }
func (a *AppTask) Len() int        { return len(a.tasks) }
func (a *AppTask) Empty() bool     { return a == nil || len(a.tasks) == 0 }

// ---- Hardware tasks ----

type HardwareOp uint8

const (
	OpEnablePowerDelivery HardwareOp = iota
	OpEnableSense
	OpEnableConverter
	OpEnableReadoutLoop
	OpUpdateConverterVoltage
	OpUpdateConverterCurrent
	OpUpdateConverterState
	OpDelayedHardwareEvent
)

var hwOpNames = [...]string{
	OpEnablePowerDelivery:    "enable_power_delivery",
	OpEnableSense:            "enable_sense",
	OpEnableConverter:        "enable_converter",
	OpEnableReadoutLoop:      "enable_readout_loop",
	OpUpdateConverterVoltage: "update_converter_voltage",
	OpUpdateConverterCurrent: "update_converter_current",
	OpUpdateConverterState:   "update_converter_state",
	OpDelayedHardwareEvent:   "delayed_hardware_event",
}

func (o HardwareOp) String() string {
	if int(o) < len(hwOpNames) {
		return hwOpNames[o]
	}
	return "unknown"
}

// HardwareTask asks the hardware layer to do something. Value carries volts
// or amps for the Update*Voltage/Current ops, On the requested output state,
// Delay and Event the deferred event for OpDelayedHardwareEvent.
type HardwareTask struct {
	Op      HardwareOp
	Channel Channel
	Value   float32
	On      bool
	Delay   time.Duration
	Event   HardwareEvent
}

func (HardwareTask) isTask() {}

func EnablePowerDelivery() HardwareTask { return HardwareTask{Op: OpEnablePowerDelivery} }
func EnableSense() HardwareTask         { return HardwareTask{Op: OpEnableSense} }
func EnableConverter() HardwareTask     { return HardwareTask{Op: OpEnableConverter} }
func EnableReadoutLoop() HardwareTask   { return HardwareTask{Op: OpEnableReadoutLoop} }

func UpdateConverterVoltage(ch Channel, v float32) HardwareTask {
	return HardwareTask{Op: OpUpdateConverterVoltage, Channel: ch, Value: v}
}

func UpdateConverterCurrent(ch Channel, a float32) HardwareTask {
	return HardwareTask{Op: OpUpdateConverterCurrent, Channel: ch, Value: a}
}

func UpdateConverterState(ch Channel, on bool) HardwareTask {
	return HardwareTask{Op: OpUpdateConverterState, Channel: ch, On: on}
}

func DelayedHardwareEvent(d time.Duration, ev HardwareEvent) HardwareTask {
	return HardwareTask{Op: OpDelayedHardwareEvent, Delay: d, Event: ev}
}

// ---- Display tasks ----

type DisplayOp uint8

const (
	DispSetupSplash DisplayOp = iota
	DispConfirmPowerDelivery
	DispConfirmSense
	DispConfirmConverter
	DispSetupMain
	DispUpdateReadout
	DispUpdateSetpoint
	DispUpdateChannelFocus
	DispUpdateButton
	DispUpdateSetState
)

var dispOpNames = [...]string{
	DispSetupSplash:          "setup_splash",
	DispConfirmPowerDelivery: "confirm_power_delivery",
	DispConfirmSense:         "confirm_sense",
	DispConfirmConverter:     "confirm_converter",
	DispSetupMain:            "setup_main",
	DispUpdateReadout:        "update_readout",
	DispUpdateSetpoint:       "update_setpoint",
	DispUpdateChannelFocus:   "update_channel_focus",
	DispUpdateButton:         "update_button",
	DispUpdateSetState:       "update_set_state",
}

func (o DisplayOp) String() string {
	if int(o) < len(dispOpNames) {
		return dispOpNames[o]
	}
	return "unknown"
}

// DisplayTask is a render request. Fields not used by Op are zero.
type DisplayTask struct {
	Op DisplayOp

	Power   PowerType
	Err     error
	Channel Channel
	Readout Readout

	// Setpoints shown per channel (SetupMain) or for Channel (UpdateSetpoint).
	Setpoints [2]Limits
	Setpoint  Limits
	Select    SetSelect
	Editing   bool
	Cursor    int8 // decimal exponent of the edited digit when Editing

	Focus    [2]ChannelFocus
	Confirm  ConfirmState
	Button   FunctionButton
	SetState SetState
}

func (DisplayTask) isTask() {}

func SetupSplash() DisplayTask { return DisplayTask{Op: DispSetupSplash} }

func ConfirmPowerDelivery(p PowerType) DisplayTask {
	return DisplayTask{Op: DispConfirmPowerDelivery, Power: p}
}

func ConfirmSense(err error) DisplayTask { return DisplayTask{Op: DispConfirmSense, Err: err} }

func ConfirmConverter(err error) DisplayTask {
	return DisplayTask{Op: DispConfirmConverter, Err: err}
}

func SetupMain(p PowerType, a, b Limits) DisplayTask {
	return DisplayTask{Op: DispSetupMain, Power: p, Setpoints: [2]Limits{a, b}}
}

func UpdateReadout(ch Channel, r Readout) DisplayTask {
	return DisplayTask{Op: DispUpdateReadout, Channel: ch, Readout: r}
}

// UpdateSetpoint redraws one channel's setpoint row. Cursor is only
// meaningful while editing.
func UpdateSetpoint(ch Channel, v Limits, sel SetSelect, editing bool, cursor int8) DisplayTask {
	return DisplayTask{Op: DispUpdateSetpoint, Channel: ch, Setpoint: v, Select: sel, Editing: editing, Cursor: cursor}
}

func UpdateChannelFocus(a, b ChannelFocus) DisplayTask {
	return DisplayTask{Op: DispUpdateChannelFocus, Focus: [2]ChannelFocus{a, b}}
}

func UpdateButton(c ConfirmState, fb FunctionButton) DisplayTask {
	return DisplayTask{Op: DispUpdateButton, Confirm: c, Button: fb}
}

func UpdateSetState(ch Channel, s SetState, sel SetSelect) DisplayTask {
	return DisplayTask{Op: DispUpdateSetState, Channel: ch, SetState: s, Select: sel}
}
