// Command benchpsu runs the complete supply against simulated chips. Buttons
// are read from stdin, one or more key characters per line (see
// panel.KeySource); the display is printed to stdout and logs go to stderr.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"benchpsu-go/internal/board"
	"benchpsu-go/internal/psu"
	"benchpsu-go/services/config"
	"benchpsu-go/services/display"
	"benchpsu-go/services/metrics"
	"benchpsu-go/services/panel"
	"benchpsu-go/x/logx"

	"github.com/rs/zerolog"
)

const help = `keys: w/s/a/d arrows, e enter, x set/limit, q settings, 1/2 channel A/B`

func main() {
	cfgPath := flag.String("config", "", "YAML configuration file")
	boardID := flag.String("board", "sim", "embedded board configuration")
	level := flag.String("log-level", "", "log level override (debug|info|warn|error)")
	flag.Parse()

	cfg, err := loadConfig(*cfgPath, *boardID)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if *level != "" {
		cfg.LogLevel = *level
	}
	log := logx.Init(logx.ParseLevel(cfg.LogLevel), zerolog.ConsoleWriter{Out: os.Stderr})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rig := board.NewSim(cfg, nil, log)
	opts := psu.Options{
		Config:  cfg,
		HAL:     rig.HAL(cfg),
		Panel:   panel.NewKeySource(ctx, os.Stdin),
		Display: display.NewConsole(os.Stdout),
		Logger:  log,
	}
	if cfg.Metrics.Addr != "" {
		c, err := metrics.Dial(cfg.Metrics.Addr, cfg.Metrics.Namespace, cfg.Metrics.Tags, log)
		if err != nil {
			log.Warn().Err(err).Msg("metrics disabled")
		} else {
			defer c.Close()
			opts.Gauger = c
		}
	}

	fmt.Println(help)
	if err := psu.New(opts).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("stopped")
		os.Exit(1)
	}
}

func loadConfig(path, boardID string) (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.Embedded(boardID)
	}
	if err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}
