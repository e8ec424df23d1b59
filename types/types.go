package types

// ---- Output channels ----

// Channel identifies one of the two independent output stages.
type Channel uint8

const (
	ChannelA Channel = iota
	ChannelB
)

// Channels lists both outputs in display order.
var Channels = [2]Channel{ChannelA, ChannelB}

func (c Channel) String() string {
	if c == ChannelB {
		return "b"
	}
	return "a"
}

// Other returns the opposite channel.
func (c Channel) Other() Channel {
	if c == ChannelA {
		return ChannelB
	}
	return ChannelA
}

// Index is the slot of the channel in two-element per-channel arrays.
func (c Channel) Index() int { return int(c & 1) }

// ---- Button edges ----

type Change uint8

const (
	Pressed Change = iota
	Released
)

func (c Change) String() string {
	if c == Released {
		return "released"
	}
	return "pressed"
}
