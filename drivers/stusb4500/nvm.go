package stusb4500

import "benchpsu-go/x/mathx"

// Sectors is the five-sector NVM image.
type Sectors [5][8]byte

// DefaultSectors is the factory image programmed by WriteDefaults.
var DefaultSectors = Sectors{
	{0x00, 0x00, 0xB0, 0xAA, 0x00, 0x45, 0x00, 0x00},
	{0x10, 0x40, 0x9C, 0x1C, 0xFF, 0x01, 0x3C, 0xDF},
	{0x02, 0x40, 0x0F, 0x00, 0x32, 0x00, 0xFC, 0xF1},
	{0x00, 0x19, 0x56, 0xAF, 0xF5, 0x35, 0x5F, 0x00},
	{0x00, 0x4B, 0x90, 0x21, 0x43, 0x00, 0x40, 0xFB},
}

// Profile is one sink PDO: volts and amps.
type Profile struct {
	Voltage float32
	Current float32
}

// DecodeCurrent maps a 4-bit NVM current code to amps.
func DecodeCurrent(code uint8) float32 {
	switch {
	case code == 0:
		return 0
	case code < 11:
		return float32(code)*0.25 + 0.25
	default:
		return float32(code)*0.50 - 2.50
	}
}

// EncodeCurrent is the inverse of DecodeCurrent, clamped to 5 A.
func EncodeCurrent(amps float32) uint8 {
	amps = mathx.Clamp(amps, 0, 5)
	switch {
	case amps < 0.5:
		return 0
	case amps <= 3.0:
		return uint8(4*amps - 1)
	default:
		return uint8(2*amps + 5)
	}
}

// PDONumber is the number of sink PDOs stored in the image.
func (s *Sectors) PDONumber() uint8 { return (s[3][2] & 0x06) >> 1 }

// Profiles decodes the three stored PDOs. PDO1 is always 5 V.
func (s *Sectors) Profiles() [3]Profile {
	v2 := uint16(s[4][1])<<2 + uint16(s[4][0])>>6
	v3 := uint16(s[4][3]&0x03)<<8 + uint16(s[4][2])
	return [3]Profile{
		{Voltage: 5, Current: DecodeCurrent((s[3][2] & 0xF0) >> 4)},
		{Voltage: float32(v2) / 20, Current: DecodeCurrent(s[3][4] & 0x0F)},
		{Voltage: float32(v3) / 20, Current: DecodeCurrent((s[3][5] & 0xF0) >> 4)},
	}
}

// SetProfiles writes p and the PDO count back into the image. Voltages are
// clamped to 5-20 V; the PDO1 voltage field does not exist and is skipped.
func (s *Sectors) SetProfiles(p [3]Profile, pdoNumber uint8) {
	s[3][2] = (s[3][2] & 0x0F) | EncodeCurrent(p[0].Current)<<4
	s[3][4] = (s[3][4] & 0xF0) | EncodeCurrent(p[1].Current)
	s[3][5] = (s[3][5] & 0x0F) | EncodeCurrent(p[2].Current)<<4

	v2 := voltageCode(p[1].Voltage)
	s[4][0] = (s[4][0] & 0x3F) | byte(v2&0x03)<<6
	s[4][1] = byte(v2 >> 2)

	v3 := voltageCode(p[2].Voltage)
	s[4][2] = byte(v3)
	s[4][3] = (s[4][3] & 0xFC) | byte(v3>>8)&0x03

	s[3][2] = (s[3][2] & 0xF9) | (pdoNumber<<1)&0x06
}

func voltageCode(v float32) uint16 {
	return uint16(mathx.Clamp(v, 5, 20)*20 + 0.5)
}

// LowerVoltageLimit returns the under-voltage lockout percentage for a PDO.
// PDO1 has none and reports 0.
func (s *Sectors) LowerVoltageLimit(pdo uint8) (uint8, bool) {
	switch pdo {
	case 1:
		return 0, true
	case 2:
		return (s[3][4] >> 4) + 5, true
	case 3:
		return (s[3][6] & 0x0F) + 5, true
	}
	return 0, false
}

// UpperVoltageLimit returns the over-voltage lockout percentage for a PDO.
func (s *Sectors) UpperVoltageLimit(pdo uint8) (uint8, bool) {
	switch pdo {
	case 1:
		return (s[3][3] >> 4) + 5, true
	case 2:
		return (s[3][5] & 0x0F) + 5, true
	case 3:
		return (s[3][6] >> 4) + 5, true
	}
	return 0, false
}

// FlexCurrent is the global flexible current in amps.
func (s *Sectors) FlexCurrent() float32 {
	v := uint16(s[4][4]&0x0F)<<6 + uint16(s[4][3]&0xFC)>>2
	return float32(v) / 100
}

func (s *Sectors) ExternalPower() uint8    { return (s[3][2] & 0x08) >> 3 }
func (s *Sectors) USBCommCapable() uint8   { return s[3][2] & 0x01 }
func (s *Sectors) ConfigOKGPIO() uint8     { return (s[4][4] & 0x60) >> 5 }
func (s *Sectors) GPIOCtrl() uint8         { return (s[1][0] & 0x30) >> 4 }
func (s *Sectors) PowerAbove5VOnly() uint8 { return (s[4][6] & 0x08) >> 3 }
func (s *Sectors) ReqSrcCurrent() uint8    { return (s[4][6] & 0x10) >> 4 }
