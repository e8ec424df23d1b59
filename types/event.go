package types

// ---- Hardware events (driver completions, timers) ----

type HardwareEventKind uint8

const (
	EvPowerOn HardwareEventKind = iota
	EvPowerDeliveryReady
	EvSenseReady
	EvConverterReady
	EvStartMainInterface
	EvReadoutAcquired
)

var hwEventNames = [...]string{
	EvPowerOn:            "power_on",
	EvPowerDeliveryReady: "power_delivery_ready",
	EvSenseReady:         "sense_ready",
	EvConverterReady:     "converter_ready",
	EvStartMainInterface: "start_main_interface",
	EvReadoutAcquired:    "readout_acquired",
}

func (k HardwareEventKind) String() string {
	if int(k) < len(hwEventNames) {
		return hwEventNames[k]
	}
	return "unknown"
}

// HardwareEvent is a tagged union. Only the fields relevant to Kind are set:
// Power for EvPowerDeliveryReady, Err for EvSenseReady/EvConverterReady,
// Channel and Readout for EvReadoutAcquired.
type HardwareEvent struct {
	Kind    HardwareEventKind
	Power   PowerType
	Err     error
	Channel Channel
	Readout Readout
}

func PowerOn() HardwareEvent { return HardwareEvent{Kind: EvPowerOn} }

func PowerDeliveryReady(p PowerType) HardwareEvent {
	return HardwareEvent{Kind: EvPowerDeliveryReady, Power: p}
}

func SenseReady(err error) HardwareEvent { return HardwareEvent{Kind: EvSenseReady, Err: err} }

func ConverterReady(err error) HardwareEvent {
	return HardwareEvent{Kind: EvConverterReady, Err: err}
}

func StartMainInterface() HardwareEvent { return HardwareEvent{Kind: EvStartMainInterface} }

func ReadoutAcquired(ch Channel, r Readout) HardwareEvent {
	return HardwareEvent{Kind: EvReadoutAcquired, Channel: ch, Readout: r}
}

// ---- Interface events (front panel) ----

type InterfaceEventKind uint8

const (
	BtnUp InterfaceEventKind = iota
	BtnDown
	BtnLeft
	BtnRight
	BtnEnter
	BtnSwitch
	BtnSettings
	BtnChannel
)

var uiEventNames = [...]string{
	BtnUp:       "up",
	BtnDown:     "down",
	BtnLeft:     "left",
	BtnRight:    "right",
	BtnEnter:    "enter",
	BtnSwitch:   "switch",
	BtnSettings: "settings",
	BtnChannel:  "channel",
}

func (k InterfaceEventKind) String() string {
	if int(k) < len(uiEventNames) {
		return uiEventNames[k]
	}
	return "unknown"
}

// InterfaceEvent is one discrete button event. Change is meaningful for
// Enter, Switch and Settings; Channel for BtnChannel.
type InterfaceEvent struct {
	Kind    InterfaceEventKind
	Change  Change
	Channel Channel
}

func ButtonUp() InterfaceEvent    { return InterfaceEvent{Kind: BtnUp} }
func ButtonDown() InterfaceEvent  { return InterfaceEvent{Kind: BtnDown} }
func ButtonLeft() InterfaceEvent  { return InterfaceEvent{Kind: BtnLeft} }
func ButtonRight() InterfaceEvent { return InterfaceEvent{Kind: BtnRight} }

func ButtonEnter(c Change) InterfaceEvent    { return InterfaceEvent{Kind: BtnEnter, Change: c} }
func ButtonSwitch(c Change) InterfaceEvent   { return InterfaceEvent{Kind: BtnSwitch, Change: c} }
func ButtonSettings(c Change) InterfaceEvent { return InterfaceEvent{Kind: BtnSettings, Change: c} }

func ButtonChannel(ch Channel) InterfaceEvent {
	return InterfaceEvent{Kind: BtnChannel, Channel: ch}
}
