// Package tps55289 drives the TI TPS55289 I2C-programmable buck-boost
// converter used for each output channel.
//
// The driver keeps no shadow state: every decision that depends on the
// chip (enabled, present output voltage) is taken from a fresh register
// read. Voltages are in millivolts, currents in milliamps.
package tps55289

import (
	"context"
	"time"

	"benchpsu-go/errcode"
	"benchpsu-go/x/timex"

	"github.com/rs/zerolog"
	"tinygo.org/x/drivers"
)

// Pin is the converter's EN line. machine.Pin satisfies it.
type Pin interface {
	High()
	Low()
}

type Config struct {
	// Address defaults to AddressB when zero.
	Address uint16
	// StartupDelay is the settle time after raising EN. Default 100 ms.
	StartupDelay time.Duration
	// Sleeper defaults to the wall clock.
	Sleeper timex.Sleeper
	Logger  zerolog.Logger
}

type Device struct {
	i2c     drivers.I2C
	addr    uint16
	en      Pin
	sleep   timex.Sleeper
	startup time.Duration
	log     zerolog.Logger

	w [3]byte
	r [8]byte
}

func New(i2c drivers.I2C, en Pin, cfg Config) *Device {
	if cfg.Address == 0 {
		cfg.Address = AddressB
	}
	if cfg.StartupDelay == 0 {
		cfg.StartupDelay = 100 * time.Millisecond
	}
	if cfg.Sleeper == nil {
		cfg.Sleeper = timex.Real{}
	}
	if en != nil {
		en.Low()
	}
	return &Device{
		i2c:     i2c,
		addr:    cfg.Address,
		en:      en,
		sleep:   cfg.Sleeper,
		startup: cfg.StartupDelay,
		log:     cfg.Logger.With().Str("drv", "tps55289").Uint16("addr", cfg.Address).Logger(),
	}
}

// ---------------- Bring-up ----------------

// Init raises EN, waits for the controller to start, checks the MODE and
// STATUS pattern and leaves the output disabled.
func (d *Device) Init(ctx context.Context) error {
	if d.en != nil {
		d.en.High()
	}
	if err := d.sleep.Sleep(ctx, d.startup); err != nil {
		return err
	}
	d.w[0] = regRefLSB
	if err := d.i2c.Tx(d.addr, d.w[:1], d.r[:8]); err != nil {
		d.log.Warn().Err(err).Msg("status block read failed")
		return errcode.Wrap(errcode.Bus, "tps55289.init", err)
	}
	mode := d.r[regMode] & modeVerifyMask
	status := d.r[regStatus] & statusVerifyMask
	if mode != modeVerifyWant || status != statusVerifyWant {
		d.log.Warn().Hex("mode", []byte{mode}).Hex("status", []byte{status}).Msg("unexpected mode/status")
		return errcode.New(errcode.VerifyFailed, "tps55289.init", "mode/status mismatch")
	}
	d.log.Info().Hex("mode", []byte{mode}).Hex("status", []byte{status}).Msg("verified")
	return d.Disable()
}

// ---------------- Output control ----------------

func (d *Device) Enable() error {
	return d.writeReg("tps55289.enable", regMode, modeEnable)
}

func (d *Device) Disable() error {
	return d.writeReg("tps55289.disable", regMode, modeDisable)
}

// Enabled reads the OE bit.
func (d *Device) Enabled() (bool, error) {
	v, err := d.readReg("tps55289.enabled", regMode)
	return v&modeOE != 0, err
}

// Voltage returns the programmed output voltage in mV.
func (d *Device) Voltage() (uint16, error) {
	fs, err := d.readReg("tps55289.voltage", regVoutFS)
	if err != nil {
		return 0, err
	}
	d.w[0] = regRefLSB
	if err := d.i2c.Tx(d.addr, d.w[:1], d.r[:2]); err != nil {
		return 0, errcode.Wrap(errcode.Bus, "tps55289.voltage", err)
	}
	ref := uint16(d.r[0]) | uint16(d.r[1])<<8
	return DecodeMilliVolts(ref, Divisor(fs)), nil
}

// SetVoltage programs a new target. An enabled output is switched off for
// the reprogram and back on afterwards; when lowering it is held off for
// DischargeTime first.
func (d *Device) SetVoltage(ctx context.Context, mV uint16) error {
	div, code, ok := FeedbackRange(mV)
	if !ok {
		return errcode.New(errcode.OutOfRange, "tps55289.set_voltage", "target outside 200-20000 mV")
	}
	ref := EncodeRef(mV, div)

	wasEnabled, err := d.Enabled()
	if err != nil {
		return err
	}
	prev, err := d.Voltage()
	if err != nil {
		return err
	}

	if wasEnabled {
		if err := d.Disable(); err != nil {
			return err
		}
		if wait := DischargeTime(prev, mV); wait > 0 {
			d.log.Debug().Uint16("from_mv", prev).Uint16("to_mv", mV).Dur("wait", wait).Msg("discharging")
			if err := d.sleep.Sleep(ctx, wait); err != nil {
				return err
			}
		}
	}

	if err := d.writeReg("tps55289.set_voltage", regVoutFS, code); err != nil {
		return err
	}
	d.w[0], d.w[1], d.w[2] = regRefLSB, byte(ref), byte(ref>>8)
	if err := d.i2c.Tx(d.addr, d.w[:3], nil); err != nil {
		return errcode.Wrap(errcode.Bus, "tps55289.set_voltage", err)
	}
	d.log.Debug().Uint16("mv", mV).Uint16("ref", ref).Uint8("fs", code).Msg("voltage set")

	if wasEnabled {
		return d.Enable()
	}
	return nil
}

// SetCurrent programs the output current limit.
func (d *Device) SetCurrent(mA uint16) error {
	reg, ok := CurrentCode(mA)
	if !ok {
		return errcode.New(errcode.OutOfRange, "tps55289.set_current", "limit above 6350 mA")
	}
	if err := d.writeReg("tps55289.set_current", regIoutLimit, reg); err != nil {
		return err
	}
	d.log.Debug().Uint16("ma", mA).Hex("reg", []byte{reg}).Msg("current limit set")
	return nil
}

// ---------------- Register access ----------------

func (d *Device) readReg(op string, reg byte) (byte, error) {
	d.w[0] = reg
	if err := d.i2c.Tx(d.addr, d.w[:1], d.r[:1]); err != nil {
		return 0, errcode.Wrap(errcode.Bus, op, err)
	}
	return d.r[0], nil
}

func (d *Device) writeReg(op string, reg, val byte) error {
	d.w[0], d.w[1] = reg, val
	if err := d.i2c.Tx(d.addr, d.w[:2], nil); err != nil {
		return errcode.Wrap(errcode.Bus, op, err)
	}
	return nil
}
