package board

import (
	"benchpsu-go/drivers/sim"
	"benchpsu-go/drivers/stusb4500"
	"benchpsu-go/drivers/tps55289"
	"benchpsu-go/services/config"
	"benchpsu-go/x/timex"

	"github.com/rs/zerolog"
)

// Default resistive loads on the simulated outputs.
var SimLoads = [2]float64{10, 22}

// Sim is a complete supply on the simulated bus.
type Sim struct {
	*Drivers

	Bus *sim.Bus
	EN  [2]*sim.Pin
	TPS [2]*sim.TPS55289
	INA [2]*sim.INA226
	PD  *sim.STUSB4500
}

// NewSim attaches chip models for both channels and the PD controller and
// builds the drivers on top. The sense chips measure their converter's
// output into SimLoads.
func NewSim(cfg config.Config, sl timex.Sleeper, log zerolog.Logger) *Sim {
	s := &Sim{Bus: sim.NewBus(), PD: sim.NewSTUSB4500()}
	var pins [2]tps55289.Pin
	for i := range s.TPS {
		s.EN[i] = &sim.Pin{}
		s.TPS[i] = sim.NewTPS55289(s.EN[i])
		s.TPS[i].SetLoad(SimLoads[i])
		s.INA[i] = sim.NewINA226(float64(cfg.Sense.ShuntOhms), s.TPS[i].Output)
		s.Bus.Attach(ConverterAddr[i], s.TPS[i])
		s.Bus.Attach(SenseAddr[i], s.INA[i])
		pins[i] = s.EN[i]
	}
	s.Bus.Attach(stusb4500.Address, s.PD)
	s.Drivers = Build(s.Bus, pins, cfg, sl, log)
	return s
}
