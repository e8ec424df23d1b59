package stusb4500

import (
	"context"

	"benchpsu-go/errcode"
)

// ---------------- FTP engine (test mode) ----------------

func (d *Device) enterReadMode(ctx context.Context) error {
	const op = "stusb4500.enter_read"
	if err := d.write(ctx, op, regPassword, password); err != nil {
		return err
	}
	if err := d.write(ctx, op, regCtrl0, 0); err != nil {
		return err
	}
	return d.write(ctx, op, regCtrl0, ctrl0PWR|ctrl0RSTN)
}

func (d *Device) readSector(ctx context.Context, n uint8, dst *[8]byte) error {
	const op = "stusb4500.read_sector"
	if err := d.write(ctx, op, regCtrl0, ctrl0PWR|ctrl0RSTN); err != nil {
		return err
	}
	if err := d.request(ctx, op, opRead, n); err != nil {
		return err
	}
	if err := d.read(op, regRWBuffer, d.r[:8]); err != nil {
		return err
	}
	copy(dst[:], d.r[:8])
	return nil
}

func (d *Device) enterWriteMode(ctx context.Context, sectors byte) error {
	const op = "stusb4500.enter_write"
	steps := []struct {
		reg, val byte
	}{
		{regPassword, password},
		{regRWBuffer, 0},
		{regCtrl0, 0},
		{regCtrl0, ctrl0PWR | ctrl0RSTN},
	}
	for _, s := range steps {
		if err := d.write(ctx, op, s.reg, s.val); err != nil {
			return err
		}
	}
	// Sector erase register carries the mask in CTRL1[7:3].
	if err := d.request(ctx, op, (sectors<<3)&ctrl1SER|opWriteSER, 0); err != nil {
		return err
	}
	if err := d.request(ctx, op, opSoftProgSector, 0); err != nil {
		return err
	}
	return d.request(ctx, op, opEraseSector, 0)
}

func (d *Device) writeSector(ctx context.Context, n uint8, data []byte) error {
	const op = "stusb4500.write_sector"
	if err := d.write(ctx, op, regRWBuffer, data...); err != nil {
		return err
	}
	if err := d.write(ctx, op, regCtrl0, ctrl0PWR|ctrl0RSTN); err != nil {
		return err
	}
	if err := d.request(ctx, op, opWritePL, 0); err != nil {
		return err
	}
	return d.request(ctx, op, opProgSector, n)
}

func (d *Device) exitTestMode(ctx context.Context) error {
	const op = "stusb4500.exit_test"
	if err := d.write(ctx, op, regCtrl0, ctrl0RSTN); err != nil {
		return err
	}
	return d.write(ctx, op, regPassword, 0)
}

// abort makes a best-effort exit from test mode and returns the original
// error.
func (d *Device) abort(ctx context.Context, err error) error {
	d.log.Warn().Err(err).Msg("ftp aborted")
	_ = d.exitTestMode(context.WithoutCancel(ctx))
	return err
}

// request loads CTRL1, raises REQ for sector and waits for completion.
func (d *Device) request(ctx context.Context, op string, ctrl1, sector byte) error {
	if err := d.write(ctx, op, regCtrl1, ctrl1); err != nil {
		return err
	}
	if err := d.write(ctx, op, regCtrl0, sector&ctrl0Sect|ctrl0PWR|ctrl0RSTN|ctrl0REQ); err != nil {
		return err
	}
	return d.waitReady(ctx, op)
}

func (d *Device) waitReady(ctx context.Context, op string) error {
	for i := 0; i < d.cfg.MaxPolls; i++ {
		if err := d.read(op, regCtrl0, d.r[:1]); err != nil {
			return err
		}
		if d.r[0]&ctrl0REQ == 0 {
			return nil
		}
		if err := d.cfg.Sleeper.Sleep(ctx, d.cfg.PollInterval); err != nil {
			return err
		}
	}
	return errcode.New(errcode.Timeout, op, "ftp request did not complete")
}

// ---------------- Register access ----------------

func (d *Device) read(op string, reg byte, dst []byte) error {
	d.w[0] = reg
	if err := d.i2c.Tx(d.addr, d.w[:1], dst); err != nil {
		return errcode.Wrap(errcode.Bus, op, err)
	}
	return nil
}

// write stores data at reg and waits the settle time.
func (d *Device) write(ctx context.Context, op string, reg byte, data ...byte) error {
	n := copy(d.w[1:], data)
	d.w[0] = reg
	if err := d.i2c.Tx(d.addr, d.w[:1+n], nil); err != nil {
		return errcode.Wrap(errcode.Bus, op, err)
	}
	return d.cfg.Sleeper.Sleep(ctx, d.cfg.WriteSettle)
}
