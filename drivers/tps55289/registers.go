package tps55289

// 7-bit addresses. Channel A sits one above the base.
const (
	AddressBase = 0x74
	AddressA    = AddressBase + 1
	AddressB    = AddressBase
)

// Register map.
const (
	regRefLSB    = 0x00
	regRefMSB    = 0x01
	regIoutLimit = 0x02
	regVoutSR    = 0x03
	regVoutFS    = 0x04
	regCDC       = 0x05
	regMode      = 0x06
	regStatus    = 0x07
)

// MODE values written by Enable/Disable; bit 7 is OE.
const (
	modeEnable  = 0b1011_0000
	modeDisable = 0b0011_0000
	modeOE      = 1 << 7
)

// Bring-up verification masks and expected values for MODE and STATUS.
const (
	modeVerifyMask   = 0b1110_0010
	modeVerifyWant   = 0b0010_0000
	statusVerifyMask = 0b1110_0011
	statusVerifyWant = 0b0000_0001
)

const ioutLimitEnable = 1 << 7
