//go:build rp2040 || rp2350

// Command firmware is the supply's RP2040 entry point. Logs and the text
// display share UART0.
package main

import (
	"context"
	"machine"
	"time"

	"benchpsu-go/drivers/tps55289"
	"benchpsu-go/internal/board"
	"benchpsu-go/internal/psu"
	"benchpsu-go/services/config"
	"benchpsu-go/services/display"
	"benchpsu-go/services/panel"
	"benchpsu-go/x/logx"
	"benchpsu-go/x/timex"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
)

const (
	pinSDA   = machine.GP4
	pinSCL   = machine.GP5
	pinENA   = machine.GP6
	pinENB   = machine.GP7
	i2cHz    = 400_000
	uartBaud = 115200
)

var (
	matrixRows = [3]machine.Pin{machine.GP10, machine.GP11, machine.GP12}
	matrixCols = [3]machine.Pin{machine.GP13, machine.GP14, machine.GP15}
)

func main() {
	// Give the host time to attach to the console.
	time.Sleep(2 * time.Second)

	u := uartx.UART0
	_ = u.Configure(uartx.UARTConfig{BaudRate: uartBaud, TX: machine.GP0, RX: machine.GP1})

	cfg, err := config.Embedded(config.DefaultBoard)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		cfg = config.Default()
	}
	log := logx.Init(logx.ParseLevel(cfg.LogLevel), u)
	if err != nil {
		log.Warn().Err(err).Msg("embedded config rejected, using defaults")
	}

	pinSDA.Configure(machine.PinConfig{Mode: machine.PinI2C})
	pinSCL.Configure(machine.PinConfig{Mode: machine.PinI2C})
	i2c := machine.I2C0
	if err := i2c.Configure(machine.I2CConfig{SDA: pinSDA, SCL: pinSCL, Frequency: i2cHz}); err != nil {
		log.Error().Err(err).Msg("i2c configure failed")
	}

	var en [2]tps55289.Pin
	for i, p := range [2]machine.Pin{pinENA, pinENB} {
		p.Configure(machine.PinConfig{Mode: machine.PinOutput})
		en[i] = p
	}

	var rows [3]panel.OutPin
	var cols [3]panel.InPin
	for i := range matrixRows {
		matrixRows[i].Configure(machine.PinConfig{Mode: machine.PinOutput})
		matrixCols[i].Configure(machine.PinConfig{Mode: machine.PinInputPulldown})
		rows[i], cols[i] = matrixRows[i], matrixCols[i]
	}

	drv := board.Build(i2c, en, cfg, timex.Real{}, log)
	sys := psu.New(psu.Options{
		Config:  cfg,
		HAL:     drv.HAL(cfg),
		Panel:   panel.NewMatrix(rows, cols, panel.DefaultDebounce),
		Display: display.NewConsole(u),
		Logger:  log,
	})
	_ = sys.Run(context.Background())
}
