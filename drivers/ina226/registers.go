package ina226

// A0/A1 strapped to GND gives the base address; channel B straps A0 high.
const (
	AddressA = 0x40
	AddressB = 0x41
)

const (
	regConfig     = 0x00
	regShunt      = 0x01
	regBus        = 0x02
	regPower      = 0x03
	regCurrent    = 0x04
	regCal        = 0x05
	regMaskEnable = 0x06
	regAlertLimit = 0x07
	regManufID    = 0xFE
	regDieID      = 0xFF
)

const manufacturerTI = 0x5449

// Fixed LSBs from the datasheet.
const (
	busLSB   = 1.25e-3 // V
	shuntLSB = 2.5e-6  // V
	calScale = 0.00512
)
