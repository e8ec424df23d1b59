package heartbeat

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"benchpsu-go/bus"
	"benchpsu-go/services/config"
	"benchpsu-go/types"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func TestObserveTracksTelemetry(t *testing.T) {
	s := New(0, zerolog.Nop())
	s.observe(&bus.Message{Topic: bus.T("state", "hardware"), Payload: "standby"})
	s.observe(&bus.Message{Topic: bus.T("readout", "b"), Payload: types.Readout{Voltage: 3.3}})
	s.observe(&bus.Message{Topic: bus.T("converter", "a", "enabled"), Payload: true})
	s.observe(&bus.Message{Topic: bus.T("readout", "a", "extra"), Payload: types.Readout{Voltage: 9}})

	assert.Equal(t, "standby", s.state)
	assert.Equal(t, float32(3.3), s.readouts[1].Voltage)
	assert.Zero(t, s.readouts[0].Voltage)
	assert.Equal(t, [2]bool{true, false}, s.enabled)
	assert.Equal(t, 10*time.Second, s.interval)
}

func TestServiceBeatsAndStops(t *testing.T) {
	var out syncBuffer
	b := bus.NewBus(8)
	pub := b.NewConnection("app")
	pub.Publish(pub.NewMessage(bus.T("state", "hardware"), "standby", true))

	s := New(5*time.Millisecond, zerolog.New(&out))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx, b.NewConnection("heartbeat"))
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), `"state":"standby"`)
	}, time.Second, time.Millisecond)

	pub.Publish(pub.NewMessage(topicConfigHeartbeat, config.Heartbeat{IntervalMs: 1}, true))
	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "heartbeat interval changed")
	}, time.Second, time.Millisecond)

	cancel()
	<-done
	assert.Contains(t, out.String(), "heartbeat service stopping")
}
