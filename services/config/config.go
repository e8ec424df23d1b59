// Package config loads the supply's YAML configuration. A file may override
// any subset of fields; everything else keeps its default. Each board also
// carries an embedded default so the firmware needs no filesystem.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"benchpsu-go/bus"
	"benchpsu-go/types"

	"gopkg.in/yaml.v3"
)

const configPrefix = "config"

// DefaultBoard is used when no board is named.
const DefaultBoard = "bench-rev1"

type Config struct {
	LogLevel    string      `yaml:"log_level"`
	Sense       Sense       `yaml:"sense"`
	Converter   Converter   `yaml:"converter"`
	PowerSource PowerSource `yaml:"power_source"`
	Readout     Readout     `yaml:"readout"`
	Queues      Queues      `yaml:"queues"`
	UI          UI          `yaml:"ui"`
	Panel       Panel       `yaml:"panel"`
	Channels    Channels    `yaml:"channels"`
	Metrics     Metrics     `yaml:"metrics"`
	Heartbeat   Heartbeat   `yaml:"heartbeat"`
}

type Sense struct {
	ShuntOhms   float32 `yaml:"shunt_ohms"`
	MaxCurrentA float32 `yaml:"max_current_a"`
}

type Converter struct {
	StartupMs uint32 `yaml:"startup_ms"`
}

type PowerSource struct {
	PollIntervalMs uint32 `yaml:"poll_interval_ms"`
	MaxPolls       int    `yaml:"max_polls"`
	WriteSettleMs  uint32 `yaml:"write_settle_ms"`
}

type Readout struct {
	Hz uint32 `yaml:"hz"`
}

type Queues struct {
	Events int `yaml:"events"`
}

type UI struct {
	StartDelayMs uint32 `yaml:"start_delay_ms"`
}

type Panel struct {
	PollMs uint32 `yaml:"poll_ms"`
}

type Channels struct {
	A types.Limits `yaml:"a"`
	B types.Limits `yaml:"b"`
}

// Metrics is disabled when Addr is empty.
type Metrics struct {
	Addr      string   `yaml:"addr"`
	Namespace string   `yaml:"namespace"`
	Tags      []string `yaml:"tags"`
}

// Heartbeat is disabled when IntervalMs is 0.
type Heartbeat struct {
	IntervalMs uint32 `yaml:"interval_ms"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel:    "info",
		Sense:       Sense{ShuntOhms: 0.010, MaxCurrentA: 5.0},
		Converter:   Converter{StartupMs: 100},
		PowerSource: PowerSource{PollIntervalMs: 25, MaxPolls: 40, WriteSettleMs: 1},
		Readout:     Readout{Hz: 5},
		Queues:      Queues{Events: 32},
		UI:          UI{StartDelayMs: 500},
		Panel:       Panel{PollMs: 10},
		Channels: Channels{
			A: types.Limits{Voltage: 5.0, Current: 1.0},
			B: types.Limits{Voltage: 3.3, Current: 1.0},
		},
		Metrics:   Metrics{Namespace: "benchpsu."},
		Heartbeat: Heartbeat{IntervalMs: 10000},
	}
}

func (c Config) ConverterStartup() time.Duration { return ms(c.Converter.StartupMs) }
func (c Config) PollInterval() time.Duration     { return ms(c.PowerSource.PollIntervalMs) }
func (c Config) WriteSettle() time.Duration      { return ms(c.PowerSource.WriteSettleMs) }
func (c Config) StartDelay() time.Duration       { return ms(c.UI.StartDelayMs) }
func (c Config) PanelPoll() time.Duration        { return ms(c.Panel.PollMs) }
func (h Heartbeat) Interval() time.Duration      { return ms(h.IntervalMs) }

// Targets returns the power-on setpoints indexed by channel.
func (c Config) Targets() [2]types.Limits { return [2]types.Limits{c.Channels.A, c.Channels.B} }

func ms(v uint32) time.Duration { return time.Duration(v) * time.Millisecond }

// -----------------------------------------------------------------------------
// Loading
// -----------------------------------------------------------------------------

// Parse decodes YAML over the defaults. Unknown keys are an error.
func Parse(raw []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Load reads and parses a YAML file.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return Parse(raw)
}

// EmbeddedConfigLookup allows overriding how board configs are resolved.
var EmbeddedConfigLookup = func(board string) ([]byte, bool) {
	b, ok := embeddedConfigs[board]
	return b, ok
}

// Embedded returns the built-in configuration for board.
func Embedded(board string) (Config, error) {
	if board == "" {
		board = DefaultBoard
	}
	raw, ok := EmbeddedConfigLookup(board)
	if !ok {
		return Config{}, fmt.Errorf("config: no embedded config for board %q", board)
	}
	return Parse(raw)
}

// -----------------------------------------------------------------------------
// Validation
// -----------------------------------------------------------------------------

// Validate checks ranges. It never modifies c.
func (c Config) Validate() error {
	switch {
	case c.Sense.ShuntOhms <= 0:
		return fmt.Errorf("sense.shunt_ohms must be positive, got %v", c.Sense.ShuntOhms)
	case c.Sense.MaxCurrentA <= 0 || c.Sense.MaxCurrentA > 20:
		return fmt.Errorf("sense.max_current_a must be in (0, 20], got %v", c.Sense.MaxCurrentA)
	case c.Readout.Hz == 0 || c.Readout.Hz > 100:
		return fmt.Errorf("readout.hz must be in [1, 100], got %d", c.Readout.Hz)
	case c.Queues.Events <= 0 || c.Queues.Events > 1024:
		return fmt.Errorf("queues.events must be in [1, 1024], got %d", c.Queues.Events)
	case c.PowerSource.PollIntervalMs == 0:
		return errors.New("power_source.poll_interval_ms must be positive")
	case c.PowerSource.MaxPolls <= 0:
		return fmt.Errorf("power_source.max_polls must be positive, got %d", c.PowerSource.MaxPolls)
	case c.Panel.PollMs == 0:
		return errors.New("panel.poll_ms must be positive")
	}
	for name, l := range map[string]types.Limits{"a": c.Channels.A, "b": c.Channels.B} {
		if l.Voltage < 0.2 || l.Voltage > 20 {
			return fmt.Errorf("channels.%s.voltage must be in [0.2, 20], got %v", name, l.Voltage)
		}
		if l.Current < 0 || l.Current > 5 {
			return fmt.Errorf("channels.%s.current must be in [0, 5], got %v", name, l.Current)
		}
	}
	return nil
}

// Publish puts each section on the bus as a retained config/<section>
// message.
func (c Config) Publish(conn *bus.Connection) {
	sections := map[string]any{
		"sense":        c.Sense,
		"converter":    c.Converter,
		"power_source": c.PowerSource,
		"readout":      c.Readout,
		"channels":     c.Channels,
		"metrics":      c.Metrics,
		"heartbeat":    c.Heartbeat,
	}
	for k, v := range sections {
		conn.Publish(conn.NewMessage(bus.T(configPrefix, k), v, true))
	}
}
