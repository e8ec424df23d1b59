// Package board wires the channel drivers for one physical (or simulated)
// supply from its configuration.
package board

import (
	"benchpsu-go/drivers/drvshim"
	"benchpsu-go/drivers/ina226"
	"benchpsu-go/drivers/stusb4500"
	"benchpsu-go/drivers/tps55289"
	"benchpsu-go/services/config"
	"benchpsu-go/services/hal"
	"benchpsu-go/x/timex"

	"github.com/rs/zerolog"
	"tinygo.org/x/drivers"
)

// Channel addresses. Converters and sense chips sit at base+1 for A and
// base+0 for B.
var (
	ConverterAddr = [2]uint16{tps55289.AddressA, tps55289.AddressB}
	SenseAddr     = [2]uint16{ina226.AddressA, ina226.AddressB}
)

// Drivers is the full driver set of one supply.
type Drivers struct {
	Shared     *drvshim.Shared
	Converters [2]*tps55289.Device
	Senses     [2]*ina226.Device
	Source     *stusb4500.Device
}

// Build creates every driver on one shared bus. en holds the converter EN
// pins for channel A and B.
func Build(i2c drivers.I2C, en [2]tps55289.Pin, cfg config.Config, sl timex.Sleeper, log zerolog.Logger) *Drivers {
	if sl == nil {
		sl = timex.Real{}
	}
	shared := drvshim.NewShared(i2c)
	d := &Drivers{Shared: shared}
	for i := range d.Converters {
		d.Converters[i] = tps55289.New(shared, en[i], tps55289.Config{
			Address:      ConverterAddr[i],
			StartupDelay: cfg.ConverterStartup(),
			Sleeper:      sl,
			Logger:       log,
		})
		d.Senses[i] = ina226.New(shared, ina226.Config{
			Address:    SenseAddr[i],
			ShuntOhms:  cfg.Sense.ShuntOhms,
			MaxCurrent: cfg.Sense.MaxCurrentA,
			Logger:     log,
		})
	}
	settle := cfg.WriteSettle()
	if settle == 0 {
		settle = -1
	}
	d.Source = stusb4500.New(shared, stusb4500.Config{
		PollInterval: cfg.PollInterval(),
		MaxPolls:     cfg.PowerSource.MaxPolls,
		WriteSettle:  settle,
		Sleeper:      sl,
		Logger:       log,
	})
	return d
}

// HAL returns the executor configuration for these drivers.
func (d *Drivers) HAL(cfg config.Config) hal.Config {
	return hal.Config{
		Converters: [2]hal.Converter{d.Converters[0], d.Converters[1]},
		Senses:     [2]hal.Sense{d.Senses[0], d.Senses[1]},
		Source:     d.Source,
		ReadoutHz:  cfg.Readout.Hz,
		QueueLen:   cfg.Queues.Events,
	}
}
