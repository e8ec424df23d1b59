package types

// ------------------------
// Electrical values
// ------------------------

// Limits is a voltage/current pair. It is used for setpoints, protection
// ceilings and negotiated input capability alike.
type Limits struct {
	Voltage float32 `json:"voltage" yaml:"voltage"` // V
	Current float32 `json:"current" yaml:"current"` // A
}

// Readout is one complete measurement of an output channel.
type Readout struct {
	Voltage float32 `json:"voltage"` // V
	Current float32 `json:"current"` // A
	Power   float32 `json:"power"`   // W
}

// ------------------------
// Input power (negotiated once at bring-up)
// ------------------------

type PowerKind uint8

const (
	PowerStandard PowerKind = iota // plain USB, no explicit PD contract
	PowerDelivery                  // explicit USB-PD contract
)

// PowerType describes the input supply negotiated during bring-up.
type PowerType struct {
	Kind   PowerKind
	Limits Limits
}

func Standard(l Limits) PowerType { return PowerType{Kind: PowerStandard, Limits: l} }

func PD(l Limits) PowerType { return PowerType{Kind: PowerDelivery, Limits: l} }

func (p PowerType) IsPD() bool { return p.Kind == PowerDelivery }

func (p PowerType) String() string {
	if p.IsPD() {
		return "pd"
	}
	return "std"
}
