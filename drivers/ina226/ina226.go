// Package ina226 drives the TI INA226 bus voltage/current/power monitor.
// Calibration is computed from Config at construction; there is no
// package-level state.
package ina226

import (
	"benchpsu-go/errcode"
	"benchpsu-go/types"

	"github.com/rs/zerolog"
	"tinygo.org/x/drivers"
)

type Config struct {
	// Address defaults to AddressA.
	Address uint16
	// ShuntOhms defaults to 0.010.
	ShuntOhms float32
	// MaxCurrent is the full-scale current in amps. Default 5.
	MaxCurrent float32
	Logger     zerolog.Logger
}

type Device struct {
	i2c  drivers.I2C
	addr uint16
	log  zerolog.Logger

	currentLSB float32
	cal        uint16

	w [3]byte
	r [2]byte
}

func New(i2c drivers.I2C, cfg Config) *Device {
	if cfg.Address == 0 {
		cfg.Address = AddressA
	}
	if cfg.ShuntOhms <= 0 {
		cfg.ShuntOhms = 0.010
	}
	if cfg.MaxCurrent <= 0 {
		cfg.MaxCurrent = 5
	}
	lsb, cal := Calibrate(cfg.MaxCurrent, cfg.ShuntOhms)
	return &Device{
		i2c:        i2c,
		addr:       cfg.Address,
		log:        cfg.Logger.With().Str("drv", "ina226").Uint16("addr", cfg.Address).Logger(),
		currentLSB: lsb,
		cal:        cal,
	}
}

// Calibrate returns the current LSB (amps) and the CAL register value for a
// full-scale current and shunt. The register value is truncated.
func Calibrate(maxCurrent, shuntOhms float32) (currentLSB float32, cal uint16) {
	lsb := float64(maxCurrent) / 32768
	return float32(lsb), uint16(calScale / (lsb * float64(shuntOhms)))
}

func (d *Device) Calibration() uint16 { return d.cal }
func (d *Device) CurrentLSB() float32 { return d.currentLSB }
func (d *Device) PowerLSB() float32   { return d.currentLSB * 25 }
func (d *Device) Address() uint16     { return d.addr }

// Init checks the manufacturer ID and writes the calibration register.
func (d *Device) Init() error {
	id, err := d.readWord("ina226.init", regManufID)
	if err != nil {
		return err
	}
	if id != manufacturerTI {
		d.log.Error().Uint16("id", id).Msg("manufacturer id mismatch")
		return errcode.New(errcode.VerifyFailed, "ina226.init", "manufacturer id mismatch")
	}
	die, err := d.DieID()
	if err != nil {
		return err
	}
	d.log.Info().Uint16("die", die).Uint16("cal", d.cal).Msg("verified")
	return d.writeWord("ina226.init", regCal, d.cal)
}

// DieID returns the die identification register.
func (d *Device) DieID() (uint16, error) {
	return d.readWord("ina226.die_id", regDieID)
}

// BusVoltage in volts.
func (d *Device) BusVoltage() (float32, error) {
	v, err := d.readWord("ina226.bus_voltage", regBus)
	return float32(v) * busLSB, err
}

// Current in amps; negative for reverse flow.
func (d *Device) Current() (float32, error) {
	v, err := d.readWord("ina226.current", regCurrent)
	return float32(int16(v)) * d.currentLSB, err
}

// Power in watts.
func (d *Device) Power() (float32, error) {
	v, err := d.readWord("ina226.power", regPower)
	return float32(v) * d.PowerLSB(), err
}

// ShuntVoltage in volts.
func (d *Device) ShuntVoltage() (float32, error) {
	v, err := d.readWord("ina226.shunt_voltage", regShunt)
	return float32(int16(v)) * shuntLSB, err
}

// Read samples voltage, current and power. Any failed register fails the
// whole readout.
func (d *Device) Read() (types.Readout, error) {
	var r types.Readout
	var err error
	if r.Voltage, err = d.BusVoltage(); err != nil {
		return types.Readout{}, err
	}
	if r.Current, err = d.Current(); err != nil {
		return types.Readout{}, err
	}
	if r.Power, err = d.Power(); err != nil {
		return types.Readout{}, err
	}
	return r, nil
}

// Registers are big-endian on this part.

func (d *Device) readWord(op string, reg byte) (uint16, error) {
	d.w[0] = reg
	if err := d.i2c.Tx(d.addr, d.w[:1], d.r[:2]); err != nil {
		return 0, errcode.Wrap(errcode.Bus, op, err)
	}
	return uint16(d.r[0])<<8 | uint16(d.r[1]), nil
}

func (d *Device) writeWord(op string, reg byte, val uint16) error {
	d.w[0], d.w[1], d.w[2] = reg, byte(val>>8), byte(val)
	if err := d.i2c.Tx(d.addr, d.w[:3], nil); err != nil {
		return errcode.Wrap(errcode.Bus, op, err)
	}
	return nil
}
