// Package heartbeat logs a periodic one-line status of the supply from the
// telemetry bus: hardware state and the latest readout of each channel.
package heartbeat

import (
	"context"
	"time"

	"benchpsu-go/bus"
	"benchpsu-go/services/config"
	"benchpsu-go/types"

	"github.com/rs/zerolog"
)

var topicConfigHeartbeat = bus.T("config", "heartbeat")

type Service struct {
	interval time.Duration
	log      zerolog.Logger

	state    string
	readouts [2]types.Readout
	enabled  [2]bool
	beats    int
}

// New returns a heartbeat that logs every interval. A later retained
// config/heartbeat message with a non-zero interval replaces it.
func New(interval time.Duration, log zerolog.Logger) *Service {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Service{
		interval: interval,
		log:      log.With().Str("component", "heartbeat").Logger(),
		state:    "unknown",
	}
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfigHeartbeat)
	telemetry := conn.Subscribe(bus.T(bus.Multi))
	defer conn.Disconnect()

	tick := time.NewTicker(s.interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("heartbeat service stopping")
			return
		case <-tick.C:
			s.beat()
		case msg := <-cfgSub.Channel():
			if c, ok := msg.Payload.(config.Heartbeat); ok && c.Interval() > 0 && c.Interval() != s.interval {
				s.interval = c.Interval()
				tick.Reset(s.interval)
				s.log.Info().Dur("interval", s.interval).Msg("heartbeat interval changed")
			}
		case msg := <-telemetry.Channel():
			s.observe(msg)
		}
	}
}

// observe records the telemetry the heartbeat reports on.
func (s *Service) observe(m *bus.Message) {
	switch {
	case bus.T("state", "hardware").Match(m.Topic):
		if v, ok := m.Payload.(string); ok {
			s.state = v
		}
	case bus.T("readout", bus.Single).Match(m.Topic):
		if r, ok := m.Payload.(types.Readout); ok {
			s.readouts[channelOf(m.Topic[1]).Index()] = r
		}
	case bus.T("converter", bus.Single, "enabled").Match(m.Topic):
		if on, ok := m.Payload.(bool); ok {
			s.enabled[channelOf(m.Topic[1]).Index()] = on
		}
	}
}

func (s *Service) beat() {
	s.beats++
	s.log.Info().
		Int("beat", s.beats).
		Str("state", s.state).
		Bool("a_on", s.enabled[0]).
		Float32("a_v", s.readouts[0].Voltage).
		Float32("a_i", s.readouts[0].Current).
		Bool("b_on", s.enabled[1]).
		Float32("b_v", s.readouts[1].Voltage).
		Float32("b_i", s.readouts[1].Current).
		Msg("heartbeat")
}

func channelOf(name string) types.Channel {
	if name == types.ChannelB.String() {
		return types.ChannelB
	}
	return types.ChannelA
}

// Run logs until ctx is cancelled, then releases conn.
func (s *Service) Run(ctx context.Context, conn *bus.Connection) {
	s.serviceLoop(ctx, conn)
}
