// Package metrics exports telemetry from the bus as DogStatsD gauges.
package metrics

import (
	"context"

	"benchpsu-go/bus"
	"benchpsu-go/types"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/rs/zerolog"
)

// Gauger is the subset of *statsd.Client the exporter uses.
type Gauger interface {
	Gauge(name string, value float64, tags []string, rate float64) error
}

// Dial creates a DogStatsD client. Namespace and tags apply to every metric.
func Dial(addr, namespace string, tags []string, log zerolog.Logger) (*statsd.Client, error) {
	c, err := statsd.New(addr)
	if err != nil {
		return nil, err
	}
	c.Namespace = namespace
	c.Tags = tags
	log.Info().Str("addr", addr).Str("namespace", namespace).Strs("tags", tags).Msg("dogstatsd client ready")
	return c, nil
}

type Exporter struct {
	g   Gauger
	log zerolog.Logger
}

func New(g Gauger, log zerolog.Logger) *Exporter {
	return &Exporter{g: g, log: log.With().Str("component", "metrics").Logger()}
}

var hwStates = map[string]float64{
	"power_on":                   0,
	"waiting_for_power_delivery": 1,
	"waiting_for_sense":          2,
	"waiting_for_converter":      3,
	"waiting_main_ui":            4,
	"standby":                    5,
}

// Run forwards readouts, output state and the hardware state until ctx is
// cancelled.
func (e *Exporter) Run(ctx context.Context, conn *bus.Connection) {
	readouts := conn.Subscribe(bus.T("readout", bus.Single))
	outputs := conn.Subscribe(bus.T("converter", bus.Single, "enabled"))
	state := conn.Subscribe(bus.T("state", "hardware"))
	power := conn.Subscribe(bus.T("power", "contract"))
	defer conn.Disconnect()

	for {
		select {
		case <-ctx.Done():
			return
		case m := <-readouts.Channel():
			if r, ok := m.Payload.(types.Readout); ok {
				tags := []string{"channel:" + m.Topic[1]}
				e.gauge("output.voltage", float64(r.Voltage), tags)
				e.gauge("output.current", float64(r.Current), tags)
				e.gauge("output.power", float64(r.Power), tags)
			}
		case m := <-outputs.Channel():
			if on, ok := m.Payload.(bool); ok {
				v := 0.0
				if on {
					v = 1
				}
				e.gauge("output.enabled", v, []string{"channel:" + m.Topic[1]})
			}
		case m := <-state.Channel():
			if s, ok := m.Payload.(string); ok {
				if v, ok := hwStates[s]; ok {
					e.gauge("hardware.state", v, nil)
				}
			}
		case m := <-power.Channel():
			if p, ok := m.Payload.(types.PowerType); ok {
				tags := []string{"kind:" + p.String()}
				e.gauge("input.voltage", float64(p.Limits.Voltage), tags)
				e.gauge("input.current", float64(p.Limits.Current), tags)
			}
		}
	}
}

func (e *Exporter) gauge(name string, v float64, tags []string) {
	if err := e.g.Gauge(name, v, tags, 1); err != nil {
		e.log.Warn().Err(err).Str("metric", name).Msg("failed to emit gauge")
	}
}
