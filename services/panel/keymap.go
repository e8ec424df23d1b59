package panel

import "benchpsu-go/types"

// Key is a position in the 3x3 button matrix, row*3+col.
type Key uint8

const (
	KeySettings Key = iota
	KeySwitch
	KeyEnter
	KeyRight
	KeyUp
	KeyDown
	KeyLeft
	KeyChannelB
	KeyChannelA

	NumKeys = 9
)

// EventFor maps a key edge to an interface event. The function buttons
// report both edges; arrows and channel keys only report presses.
func EventFor(k Key, c types.Change) (types.InterfaceEvent, bool) {
	switch k {
	case KeySettings:
		return types.ButtonSettings(c), true
	case KeySwitch:
		return types.ButtonSwitch(c), true
	case KeyEnter:
		return types.ButtonEnter(c), true
	}
	if c != types.Pressed {
		return types.InterfaceEvent{}, false
	}
	switch k {
	case KeyRight:
		return types.ButtonRight(), true
	case KeyUp:
		return types.ButtonUp(), true
	case KeyDown:
		return types.ButtonDown(), true
	case KeyLeft:
		return types.ButtonLeft(), true
	case KeyChannelB:
		return types.ButtonChannel(types.ChannelB), true
	case KeyChannelA:
		return types.ButtonChannel(types.ChannelA), true
	}
	return types.InterfaceEvent{}, false
}
