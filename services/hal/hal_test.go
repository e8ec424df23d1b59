package hal

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"benchpsu-go/bus"
	"benchpsu-go/drivers/ina226"
	"benchpsu-go/drivers/sim"
	"benchpsu-go/drivers/tps55289"
	"benchpsu-go/errcode"
	"benchpsu-go/types"
	"benchpsu-go/x/timex"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- fakes ----

type fakeConverter struct {
	mu      sync.Mutex
	initErr error
	on      bool
	mV, mA  uint16
	calls   []string
}

func (f *fakeConverter) record(s string) {
	f.mu.Lock()
	f.calls = append(f.calls, s)
	f.mu.Unlock()
}

func (f *fakeConverter) Init(context.Context) error { f.record("init"); return f.initErr }
func (f *fakeConverter) Enable() error              { f.record("enable"); f.on = true; return nil }
func (f *fakeConverter) Disable() error             { f.record("disable"); f.on = false; return nil }
func (f *fakeConverter) SetCurrent(mA uint16) error { f.record("current"); f.mA = mA; return nil }
func (f *fakeConverter) SetVoltage(_ context.Context, mV uint16) error {
	f.record("voltage")
	f.mV = mV
	return nil
}

type fakeSense struct {
	initErr error
	readErr error
	r       types.Readout
}

func (f *fakeSense) Init() error                  { return f.initErr }
func (f *fakeSense) Read() (types.Readout, error) { return f.r, f.readErr }

type fakeSource struct {
	p   types.PowerType
	err error
}

func (f fakeSource) ActiveContract() (types.PowerType, error) { return f.p, f.err }

func newTestHAL(cfg Config) (*HAL, [2]*fakeConverter, [2]*fakeSense) {
	conv := [2]*fakeConverter{{}, {}}
	sense := [2]*fakeSense{{}, {}}
	cfg.Converters = [2]Converter{conv[0], conv[1]}
	cfg.Senses = [2]Sense{sense[0], sense[1]}
	if cfg.Sleeper == nil {
		cfg.Sleeper = &timex.Fake{}
	}
	return New(cfg), conv, sense
}

func next(t *testing.T, h *HAL) types.HardwareEvent {
	t.Helper()
	select {
	case ev := <-h.Events():
		return ev
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for hardware event")
	}
	return types.HardwareEvent{}
}

// ---- bring-up ----

func TestEnablePowerDeliveryReportsContract(t *testing.T) {
	pd := types.PD(types.Limits{Voltage: 15, Current: 1.5})
	h, _, _ := newTestHAL(Config{Source: fakeSource{p: pd}})

	require.NoError(t, h.Execute(context.Background(), types.EnablePowerDelivery()))
	assert.Equal(t, types.PowerDeliveryReady(pd), next(t, h))
}

func TestEnablePowerDeliveryFallsBack(t *testing.T) {
	h, _, _ := newTestHAL(Config{Source: fakeSource{err: errcode.Bus}})

	require.NoError(t, h.Execute(context.Background(), types.EnablePowerDelivery()))
	assert.Equal(t, types.PowerDeliveryReady(FallbackPower), next(t, h))
}

func TestEnableSenseCarriesFirstError(t *testing.T) {
	h, _, sense := newTestHAL(Config{})
	sense[1].initErr = errcode.VerifyFailed

	require.NoError(t, h.Execute(context.Background(), types.EnableSense()))
	ev := next(t, h)
	assert.Equal(t, types.EvSenseReady, ev.Kind)
	assert.ErrorIs(t, ev.Err, errcode.VerifyFailed)
}

func TestExecuteNeverBlocksOnFullQueue(t *testing.T) {
	h, _, _ := newTestHAL(Config{QueueLen: 1})
	require.NoError(t, h.Post(context.Background(), types.PowerOn()))

	done := make(chan error, 1)
	go func() { done <- h.Execute(context.Background(), types.EnableSense()) }()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, errcode.Busy)
	case <-time.After(time.Second):
		t.Fatal("Execute blocked on its own queue")
	}
	assert.Equal(t, types.PowerOn(), next(t, h))
}

func TestEnableConverterInitsBoth(t *testing.T) {
	h, conv, _ := newTestHAL(Config{})

	require.NoError(t, h.Execute(context.Background(), types.EnableConverter()))
	assert.Equal(t, types.ConverterReady(nil), next(t, h))
	assert.Equal(t, []string{"init"}, conv[0].calls)
	assert.Equal(t, []string{"init"}, conv[1].calls)
}

// ---- converter updates ----

func TestConverterUpdatesConvertUnits(t *testing.T) {
	h, conv, _ := newTestHAL(Config{})
	ctx := context.Background()

	require.NoError(t, h.Execute(ctx, types.UpdateConverterVoltage(types.ChannelB, 3.3)))
	require.NoError(t, h.Execute(ctx, types.UpdateConverterCurrent(types.ChannelB, 1.25)))
	require.NoError(t, h.Execute(ctx, types.UpdateConverterState(types.ChannelB, true)))

	assert.Equal(t, uint16(3300), conv[1].mV)
	assert.Equal(t, uint16(1250), conv[1].mA)
	assert.True(t, conv[1].on)
	assert.Empty(t, conv[0].calls)

	require.NoError(t, h.Execute(ctx, types.UpdateConverterState(types.ChannelB, false)))
	assert.False(t, conv[1].on)
}

func TestConverterCurrentClampedToConverterMax(t *testing.T) {
	h, conv, _ := newTestHAL(Config{})

	require.NoError(t, h.Execute(context.Background(), types.UpdateConverterCurrent(types.ChannelA, 9)))
	assert.Equal(t, uint16(tps55289.MaxMilliAmps), conv[0].mA)
}

func TestMissingConverterIsError(t *testing.T) {
	h := New(Config{})
	err := h.Execute(context.Background(), types.UpdateConverterState(types.ChannelA, true))
	require.Error(t, err)
}

func TestStatePublishedRetained(t *testing.T) {
	b := bus.NewBus(4)
	conn := b.NewConnection("test")
	h, _, _ := newTestHAL(Config{Conn: conn})

	require.NoError(t, h.Execute(context.Background(), types.UpdateConverterState(types.ChannelA, true)))

	sub := conn.Subscribe(bus.T("converter", "a", "enabled"))
	select {
	case m := <-sub.Channel():
		assert.Equal(t, true, m.Payload)
	case <-time.After(time.Second):
		t.Fatal("no retained state")
	}
}

// ---- asynchronous ----

func TestDelayedEventFires(t *testing.T) {
	fake := &timex.Fake{}
	h, _, _ := newTestHAL(Config{Sleeper: fake})

	task := types.DelayedHardwareEvent(500*time.Millisecond, types.StartMainInterface())
	require.NoError(t, h.Execute(context.Background(), task))

	assert.Equal(t, types.StartMainInterface(), next(t, h))
	h.Wait()
	assert.Equal(t, []time.Duration{500 * time.Millisecond}, fake.Sleeps())
}

func TestDelayedEventStopsOnCancel(t *testing.T) {
	h, _, _ := newTestHAL(Config{Sleeper: timex.Real{}})
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, h.Execute(ctx, types.DelayedHardwareEvent(time.Hour, types.StartMainInterface())))
	cancel()
	h.Wait()
	assert.Len(t, h.Events(), 0)
}

func TestReadoutLoopEmitsOnlyCompleteReadouts(t *testing.T) {
	b := bus.NewBus(8)
	conn := b.NewConnection("test")
	h, _, sense := newTestHAL(Config{ReadoutHz: 100, Conn: conn})
	sense[0].r = types.Readout{Voltage: 5, Current: 0.5, Power: 2.5}
	sense[1].readErr = errcode.Bus

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, h.Execute(ctx, types.EnableReadoutLoop()))
	// A second enable must not start another loop.
	require.NoError(t, h.Execute(ctx, types.EnableReadoutLoop()))

	for i := 0; i < 3; i++ {
		ev := next(t, h)
		assert.Equal(t, types.ReadoutAcquired(types.ChannelA, sense[0].r), ev)
	}
	cancel()
	h.Wait()

	sub := conn.Subscribe(bus.T("readout", "+"))
	m := <-sub.Channel()
	assert.Equal(t, bus.T("readout", "a"), m.Topic)
	assert.Len(t, sub.Channel(), 0)
}

func TestReadoutDropsWhenQueueFull(t *testing.T) {
	h, _, _ := newTestHAL(Config{QueueLen: 1})
	h.sample()
	h.sample()
	assert.Len(t, h.Events(), 1)
}

func TestPostBlocksUntilCancelled(t *testing.T) {
	h, _, _ := newTestHAL(Config{QueueLen: 1})
	require.NoError(t, h.Post(context.Background(), types.PowerOn()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.True(t, errors.Is(h.Post(ctx, types.PowerOn()), context.DeadlineExceeded))
}

// ---- against the chip models ----

func TestBringUpOnSimulatedChannel(t *testing.T) {
	b := sim.NewBus()
	en := &sim.Pin{}
	tps := sim.NewTPS55289(en)
	tps.SetLoad(10)
	ina := sim.NewINA226(0.010, tps.Output)
	b.Attach(tps55289.AddressA, tps)
	b.Attach(ina226.AddressA, ina)

	conv := tps55289.New(b, en, tps55289.Config{Address: tps55289.AddressA, Sleeper: &timex.Fake{}})
	sense := ina226.New(b, ina226.Config{Address: ina226.AddressA})
	h := New(Config{
		Converters: [2]Converter{conv},
		Senses:     [2]Sense{sense},
		Sleeper:    &timex.Fake{},
	})
	ctx := context.Background()

	require.NoError(t, h.Execute(ctx, types.EnableSense()))
	require.NoError(t, next(t, h).Err)
	require.NoError(t, h.Execute(ctx, types.EnableConverter()))
	require.NoError(t, next(t, h).Err)

	for _, task := range []types.HardwareTask{
		types.UpdateConverterVoltage(types.ChannelA, 5),
		types.UpdateConverterCurrent(types.ChannelA, 1),
		types.UpdateConverterState(types.ChannelA, true),
	} {
		require.NoError(t, h.Execute(ctx, task))
	}

	h.sample()
	ev := next(t, h)
	require.Equal(t, types.EvReadoutAcquired, ev.Kind)
	assert.InDelta(t, 5.0, ev.Readout.Voltage, 0.01)
	assert.InDelta(t, 0.5, ev.Readout.Current, 0.01)
	assert.InDelta(t, 2.5, ev.Readout.Power, 0.05)
}
