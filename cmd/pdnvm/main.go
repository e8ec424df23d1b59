// Command pdnvm reads and reprograms the STUSB4500 NVM from a Linux host.
//
//	pdnvm [flags] read                 dump sectors and decoded PDOs
//	pdnvm [flags] live                 show live PDOs and the active contract
//	pdnvm [flags] set N VOLTS AMPS     set live PDO N (1-3)
//	pdnvm [flags] count N              set the number of advertised PDOs
//	pdnvm [flags] write                read, apply set/count, then program
//	pdnvm [flags] defaults             program the factory image
//
// Changes made with set and count are lost on reset unless followed by
// write in the same invocation, e.g. "pdnvm set 2 12 3 write".
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"benchpsu-go/drivers/sim"
	"benchpsu-go/drivers/stusb4500"
	"benchpsu-go/services/config"
	"benchpsu-go/x/logx"

	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
	"tinygo.org/x/drivers"
)

func main() {
	busName := flag.String("bus", "", "I2C bus name or number (first available if empty)")
	useSim := flag.Bool("sim", false, "use the simulated chip instead of hardware")
	level := flag.String("log-level", "warn", "log level (debug|info|warn|error)")
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), "usage: pdnvm [flags] read|live|set N V A|count N|write|defaults ...")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	log := logx.Init(logx.ParseLevel(*level), zerolog.ConsoleWriter{Out: os.Stderr})

	bus, closeBus, err := openBus(*busName, *useSim)
	if err != nil {
		log.Fatal().Err(err).Msg("open bus")
	}
	defer closeBus()

	cfg := config.Default()
	dev := stusb4500.New(bus, stusb4500.Config{
		PollInterval: cfg.PollInterval(),
		MaxPolls:     cfg.PowerSource.MaxPolls,
		WriteSettle:  cfg.WriteSettle(),
		Logger:       log,
	})
	if err := run(context.Background(), dev, flag.Args(), os.Stdout); err != nil {
		log.Error().Err(err).Msg("pdnvm")
		os.Exit(1)
	}
}

func openBus(name string, useSim bool) (drivers.I2C, func(), error) {
	if useSim {
		b := sim.NewBus()
		b.Attach(stusb4500.Address, sim.NewSTUSB4500())
		return b, func() {}, nil
	}
	if _, err := host.Init(); err != nil {
		return nil, nil, err
	}
	b, err := i2creg.Open(name)
	if err != nil {
		return nil, nil, err
	}
	return b, func() { _ = b.Close() }, nil
}

// run executes the command words in order.
func run(ctx context.Context, dev *stusb4500.Device, args []string, out io.Writer) error {
	for len(args) > 0 {
		cmd := args[0]
		args = args[1:]
		switch cmd {
		case "read":
			if err := dev.Read(ctx); err != nil {
				return err
			}
			s, _ := dev.Sectors()
			for i, sec := range s {
				fmt.Fprintf(out, "sector %d: % X\n", i, sec[:])
			}
			printProfiles(out, "nvm", s.PDONumber(), s.Profiles())
			fmt.Fprintf(out, "flex current %v, external power %d, usb comm %d, 5V only %d\n",
				amps(s.FlexCurrent()), s.ExternalPower(), s.USBCommCapable(), s.PowerAbove5VOnly())

		case "live":
			n, err := dev.PDONumber()
			if err != nil {
				return err
			}
			p, err := dev.Profiles()
			if err != nil {
				return err
			}
			printProfiles(out, "live", n, p)
			c, err := dev.ActiveContract()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "contract: %s %v %v\n", c, volts(c.Limits.Voltage), amps(c.Limits.Current))

		case "set":
			if len(args) < 3 {
				return errors.New("set needs N VOLTS AMPS")
			}
			n, err := strconv.ParseUint(args[0], 10, 8)
			if err != nil {
				return fmt.Errorf("pdo: %w", err)
			}
			v, err := strconv.ParseFloat(args[1], 32)
			if err != nil {
				return fmt.Errorf("volts: %w", err)
			}
			a, err := strconv.ParseFloat(args[2], 32)
			if err != nil {
				return fmt.Errorf("amps: %w", err)
			}
			args = args[3:]
			if err := dev.SetVoltage(ctx, uint8(n), float32(v)); err != nil {
				return err
			}
			if err := dev.SetCurrent(ctx, uint8(n), float32(a)); err != nil {
				return err
			}

		case "count":
			if len(args) < 1 {
				return errors.New("count needs N")
			}
			n, err := strconv.ParseUint(args[0], 10, 8)
			if err != nil {
				return fmt.Errorf("count: %w", err)
			}
			args = args[1:]
			if err := dev.SetPDONumber(ctx, uint8(n)); err != nil {
				return err
			}

		case "write":
			if _, err := dev.Sectors(); err != nil {
				// Load the image without disturbing pending live edits.
				n, nerr := dev.PDONumber()
				p, perr := dev.Profiles()
				if err := dev.Read(ctx); err != nil {
					return err
				}
				if nerr == nil && perr == nil {
					if err := restore(ctx, dev, n, p); err != nil {
						return err
					}
				}
			}
			if err := dev.Write(ctx); err != nil {
				return err
			}
			fmt.Fprintln(out, "nvm written")

		case "defaults":
			if err := dev.WriteDefaults(ctx); err != nil {
				return err
			}
			fmt.Fprintln(out, "factory image written")

		default:
			return fmt.Errorf("unknown command %q", cmd)
		}
	}
	return nil
}

func restore(ctx context.Context, dev *stusb4500.Device, n uint8, p [3]stusb4500.Profile) error {
	if err := dev.SetPDONumber(ctx, n); err != nil {
		return err
	}
	for i, pr := range p {
		if err := dev.SetVoltage(ctx, uint8(i+1), pr.Voltage); err != nil {
			return err
		}
		if err := dev.SetCurrent(ctx, uint8(i+1), pr.Current); err != nil {
			return err
		}
	}
	return nil
}

func printProfiles(out io.Writer, label string, n uint8, p [3]stusb4500.Profile) {
	fmt.Fprintf(out, "%s pdos (%d advertised):\n", label, n)
	for i, pr := range p {
		fmt.Fprintf(out, "  PDO%d %v %v\n", i+1, volts(pr.Voltage), amps(pr.Current))
	}
}

func volts(v float32) physic.ElectricPotential {
	return physic.ElectricPotential(math.Round(float64(v)*1000)) * physic.MilliVolt
}

func amps(a float32) physic.ElectricCurrent {
	return physic.ElectricCurrent(math.Round(float64(a)*1000)) * physic.MilliAmpere
}
