// Package stusb4500 drives the ST STUSB4500 USB-PD sink controller.
//
// Two paths are exposed:
//   - live PDO registers, which the chip uses for the next negotiation;
//   - the NVM sector image, read and reprogrammed through the password
//     gated FTP engine. This is a factory operation.
//
// Every FTP request is followed by a poll of the REQ bit. The poll is
// bounded by Config.MaxPolls and returns errcode.Timeout when exceeded.
package stusb4500

import (
	"context"
	"encoding/binary"
	"math"
	"time"

	"benchpsu-go/errcode"
	"benchpsu-go/types"
	"benchpsu-go/x/mathx"
	"benchpsu-go/x/timex"

	"github.com/rs/zerolog"
	"tinygo.org/x/drivers"
)

type Config struct {
	// Address defaults to 0x28.
	Address uint16
	// PollInterval between REQ polls. Default 25 ms.
	PollInterval time.Duration
	// MaxPolls bounds each REQ wait. Default 40.
	MaxPolls int
	// WriteSettle follows every register write. Default 1 ms.
	WriteSettle time.Duration
	Sleeper     timex.Sleeper
	Logger      zerolog.Logger
}

type Device struct {
	i2c  drivers.I2C
	addr uint16
	cfg  Config
	log  zerolog.Logger

	sectors Sectors
	loaded  bool

	w [9]byte
	r [8]byte
}

func New(i2c drivers.I2C, cfg Config) *Device {
	if cfg.Address == 0 {
		cfg.Address = Address
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 25 * time.Millisecond
	}
	if cfg.MaxPolls <= 0 {
		cfg.MaxPolls = 40
	}
	if cfg.WriteSettle < 0 {
		cfg.WriteSettle = 0
	} else if cfg.WriteSettle == 0 {
		cfg.WriteSettle = time.Millisecond
	}
	if cfg.Sleeper == nil {
		cfg.Sleeper = timex.Real{}
	}
	return &Device{
		i2c:  i2c,
		addr: cfg.Address,
		cfg:  cfg,
		log:  cfg.Logger.With().Str("drv", "stusb4500").Logger(),
	}
}

// ---------------- Live PDO registers ----------------

func validPDO(op string, n uint8) error {
	if n < 1 || n > 3 {
		return errcode.New(errcode.InvalidPDO, op, "pdo must be 1-3")
	}
	return nil
}

// Voltage returns the voltage of PDO n in volts.
func (d *Device) Voltage(n uint8) (float32, error) {
	w, err := d.readPDO("stusb4500.voltage", n)
	return float32((w&pdoVoltageMask)>>10) / 20, err
}

// Current returns the current of PDO n in amps.
func (d *Device) Current(n uint8) (float32, error) {
	w, err := d.readPDO("stusb4500.current", n)
	return float32(w&pdoCurrentMask) / 100, err
}

// SetVoltage updates PDO n. The value is clamped to 5-20 V and PDO1 is
// always 5 V.
func (d *Device) SetVoltage(ctx context.Context, n uint8, volts float32) error {
	const op = "stusb4500.set_voltage"
	if err := validPDO(op, n); err != nil {
		return err
	}
	volts = mathx.Clamp(volts, 5, 20)
	if n == 1 {
		volts = 5
	}
	w, err := d.readPDO(op, n)
	if err != nil {
		return err
	}
	code := uint32(math.Round(float64(volts) * 20))
	w = w&^pdoVoltageMask | code<<10
	return d.writePDO(ctx, op, n, w)
}

// SetCurrent updates PDO n, clamped to 0-5 A.
func (d *Device) SetCurrent(ctx context.Context, n uint8, amps float32) error {
	const op = "stusb4500.set_current"
	if err := validPDO(op, n); err != nil {
		return err
	}
	amps = mathx.Clamp(amps, 0, 5)
	w, err := d.readPDO(op, n)
	if err != nil {
		return err
	}
	code := uint32(math.Round(float64(amps)*100)) & pdoCurrentMask
	w = w&^pdoCurrentMask | code
	return d.writePDO(ctx, op, n, w)
}

// PDONumber returns how many PDOs the sink advertises.
func (d *Device) PDONumber() (uint8, error) {
	if err := d.read("stusb4500.pdo_number", regDPMPDONumb, d.r[:1]); err != nil {
		return 0, err
	}
	return d.r[0] & 0x07, nil
}

// SetPDONumber sets the advertised PDO count, clamped to 3.
func (d *Device) SetPDONumber(ctx context.Context, n uint8) error {
	if n > 3 {
		n = 3
	}
	return d.write(ctx, "stusb4500.set_pdo_number", regDPMPDONumb, n)
}

// Profiles reads all three live PDOs.
func (d *Device) Profiles() ([3]Profile, error) {
	var p [3]Profile
	for i := range p {
		w, err := d.readPDO("stusb4500.profiles", uint8(i+1))
		if err != nil {
			return p, err
		}
		p[i] = Profile{
			Voltage: float32((w&pdoVoltageMask)>>10) / 20,
			Current: mathx.Clamp(float32(w&pdoCurrentMask)/100, 0, 5),
		}
	}
	return p, nil
}

// ActiveContract reports the negotiated supply. Object position 0 in the
// RDO status means no PD contract, which is reported as a standard 5 V
// source limited to the PDO1 current.
func (d *Device) ActiveContract() (types.PowerType, error) {
	const op = "stusb4500.active_contract"
	if err := d.read(op, regRDOStatus, d.r[:4]); err != nil {
		return types.PowerType{}, err
	}
	pos := uint8(binary.LittleEndian.Uint32(d.r[:4])>>28) & 0x07
	if pos == 0 {
		c, err := d.Current(1)
		if err != nil {
			return types.PowerType{}, err
		}
		return types.Standard(types.Limits{Voltage: 5, Current: c}), nil
	}
	if err := validPDO(op, pos); err != nil {
		return types.PowerType{}, err
	}
	v, err := d.Voltage(pos)
	if err != nil {
		return types.PowerType{}, err
	}
	c, err := d.Current(pos)
	if err != nil {
		return types.PowerType{}, err
	}
	return types.PD(types.Limits{Voltage: v, Current: c}), nil
}

func (d *Device) readPDO(op string, n uint8) (uint32, error) {
	if err := validPDO(op, n); err != nil {
		return 0, err
	}
	if err := d.read(op, regPDOBase+(n-1)*4, d.r[:4]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(d.r[:4]), nil
}

func (d *Device) writePDO(ctx context.Context, op string, n uint8, w uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], w)
	return d.write(ctx, op, regPDOBase+(n-1)*4, b[:]...)
}

// ---------------- NVM image ----------------

// Sectors returns the image loaded by the last Read.
func (d *Device) Sectors() (Sectors, error) {
	if !d.loaded {
		return Sectors{}, errcode.New(errcode.NotLoaded, "stusb4500.sectors", "nvm not read")
	}
	return d.sectors, nil
}

// Read copies the five NVM sectors into the mirror and loads the decoded
// PDOs into the live registers.
func (d *Device) Read(ctx context.Context) error {
	if err := d.enterReadMode(ctx); err != nil {
		return d.abort(ctx, err)
	}
	for i := range d.sectors {
		if err := d.readSector(ctx, uint8(i), &d.sectors[i]); err != nil {
			return d.abort(ctx, err)
		}
	}
	if err := d.exitTestMode(ctx); err != nil {
		return err
	}
	d.loaded = true
	d.log.Debug().Hex("s3", d.sectors[3][:]).Hex("s4", d.sectors[4][:]).Msg("nvm read")

	if err := d.SetPDONumber(ctx, d.sectors.PDONumber()); err != nil {
		return err
	}
	for i, p := range d.sectors.Profiles() {
		n := uint8(i + 1)
		if err := d.SetVoltage(ctx, n, p.Voltage); err != nil {
			return err
		}
		if err := d.SetCurrent(ctx, n, p.Current); err != nil {
			return err
		}
	}
	return nil
}

// Write encodes the live PDO registers into the mirror and programs all
// five sectors. A prior Read is required so the other configuration bits
// in the image are preserved.
func (d *Device) Write(ctx context.Context) error {
	const op = "stusb4500.write"
	if !d.loaded {
		return errcode.New(errcode.NotLoaded, op, "read nvm before writing")
	}
	p, err := d.Profiles()
	if err != nil {
		return err
	}
	n, err := d.PDONumber()
	if err != nil {
		return err
	}
	img := d.sectors
	img.SetProfiles(p, n)
	if err := d.program(ctx, &img); err != nil {
		return err
	}
	d.sectors = img
	return nil
}

// WriteDefaults programs the factory image.
func (d *Device) WriteDefaults(ctx context.Context) error {
	img := DefaultSectors
	if err := d.program(ctx, &img); err != nil {
		return err
	}
	d.sectors, d.loaded = img, true
	return nil
}

func (d *Device) program(ctx context.Context, img *Sectors) error {
	if err := d.enterWriteMode(ctx, allSectors); err != nil {
		return d.abort(ctx, err)
	}
	for i := range img {
		if err := d.writeSector(ctx, uint8(i), img[i][:]); err != nil {
			return d.abort(ctx, err)
		}
	}
	d.log.Info().Msg("nvm programmed")
	return d.exitTestMode(ctx)
}
