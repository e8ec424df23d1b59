package types

// ---- Front panel presentation state ----

// SetSelect names the field of a channel the arrows act on. SelectNone is
// only used in display tasks for channels without focus.
type SetSelect uint8

const (
	SelectNone SetSelect = iota
	SelectVoltage
	SelectCurrent
)

func (s SetSelect) String() string {
	switch s {
	case SelectVoltage:
		return "voltage"
	case SelectCurrent:
		return "current"
	}
	return "none"
}

// SetState selects whether edits apply to targets or protection limits.
type SetState uint8

const (
	SetTarget SetState = iota
	SetLimit
)

func (s SetState) String() string {
	if s == SetLimit {
		return "limit"
	}
	return "set"
}

type ChannelFocus uint8

const (
	FocusUnselectedInactive ChannelFocus = iota
	FocusUnselectedActive
	FocusSelectedInactive
	FocusSelectedActive
)

// FocusOf combines selection and output state.
func FocusOf(selected, enabled bool) ChannelFocus {
	switch {
	case selected && enabled:
		return FocusSelectedActive
	case selected:
		return FocusSelectedInactive
	case enabled:
		return FocusUnselectedActive
	}
	return FocusUnselectedInactive
}

// ConfirmState drives the icon shown on the Enter button.
type ConfirmState uint8

const (
	AwaitModify ConfirmState = iota
	AwaitConfirmModify
)

// FunctionButton is the highlighted function key, if any.
type FunctionButton uint8

const (
	FnNone FunctionButton = iota
	FnEnter
	FnSwitch
	FnSettings
)

func (f FunctionButton) String() string {
	switch f {
	case FnEnter:
		return "enter"
	case FnSwitch:
		return "switch"
	case FnSettings:
		return "settings"
	}
	return "none"
}
