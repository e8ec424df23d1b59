package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"benchpsu-go/app"
	"benchpsu-go/bus"
	"benchpsu-go/types"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	hw      []types.HardwareTask
	disp    []types.DisplayTask
	failOps map[types.HardwareOp]bool
}

func (r *recorder) Execute(_ context.Context, t types.HardwareTask) error {
	r.hw = append(r.hw, t)
	if r.failOps[t.Op] {
		return errors.New("boom")
	}
	return nil
}

func (r *recorder) Render(t types.DisplayTask) error {
	r.disp = append(r.disp, t)
	return nil
}

func newDispatcher(hwQ chan types.HardwareEvent, uiQ chan types.InterfaceEvent) (*Dispatcher, *recorder, *app.App) {
	a := app.New(app.Config{Logger: zerolog.Nop()})
	rec := &recorder{}
	d := New(Config{App: a, Hardware: rec, Display: rec, HwEvents: hwQ, UIEvents: uiQ})
	return d, rec, a
}

func TestStepPrefersHardwareEvents(t *testing.T) {
	hwQ := make(chan types.HardwareEvent, 4)
	uiQ := make(chan types.InterfaceEvent, 4)
	d, rec, a := newDispatcher(hwQ, uiQ)

	uiQ <- types.ButtonChannel(types.ChannelA)
	hwQ <- types.PowerOn()

	require.True(t, d.Step(context.Background()))
	assert.Equal(t, app.WaitingForPowerDelivery, a.State())
	assert.Equal(t, []types.HardwareTask{types.EnablePowerDelivery()}, rec.hw)
	assert.Equal(t, []types.DisplayTask{types.SetupSplash()}, rec.disp)
	assert.Len(t, uiQ, 1, "button event still queued")

	require.True(t, d.Step(context.Background()))
	assert.Empty(t, uiQ)
	assert.False(t, a.Interface().HasSelected, "buttons are inert before the main screen")
}

func TestExecuteKeepsGoingAfterFailure(t *testing.T) {
	d, rec, _ := newDispatcher(nil, nil)
	rec.failOps = map[types.HardwareOp]bool{types.OpUpdateConverterVoltage: true}

	var at types.AppTask
	at.Push(types.UpdateConverterVoltage(types.ChannelA, 5))
	at.Push(types.UpdateConverterCurrent(types.ChannelA, 1))
	at.Push(types.SetupSplash())
	d.Execute(context.Background(), &at)

	assert.Len(t, rec.hw, 2)
	assert.Len(t, rec.disp, 1)
	d.Execute(context.Background(), nil)
}

func TestRunStopsOnCancel(t *testing.T) {
	d, _, _ := newDispatcher(make(chan types.HardwareEvent), make(chan types.InterfaceEvent))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
}

func TestBringUpPublishesState(t *testing.T) {
	hwQ := make(chan types.HardwareEvent, 8)
	b := bus.NewBus(8)
	conn := b.NewConnection("test")
	a := app.New(app.Config{Logger: zerolog.Nop()})
	rec := &recorder{}
	d := New(Config{App: a, Hardware: rec, Display: rec, HwEvents: hwQ, Conn: conn})

	for _, ev := range []types.HardwareEvent{
		types.PowerOn(),
		types.PowerDeliveryReady(types.Standard(types.Limits{Voltage: 12, Current: 2})),
		types.SenseReady(nil),
		types.ConverterReady(nil),
		types.StartMainInterface(),
	} {
		hwQ <- ev
		require.True(t, d.Step(context.Background()))
	}
	require.Equal(t, app.Standby, a.State())

	sub := conn.Subscribe(bus.T("state", "hardware"))
	m := <-sub.Channel()
	assert.Equal(t, "standby", m.Payload)

	// StartMainInterface pushes both converters and starts the readout loop.
	ops := make([]types.HardwareOp, 0, len(rec.hw))
	for _, h := range rec.hw {
		ops = append(ops, h.Op)
	}
	assert.Equal(t, []types.HardwareOp{
		types.OpEnablePowerDelivery,
		types.OpEnableSense,
		types.OpEnableConverter,
		types.OpDelayedHardwareEvent,
		types.OpUpdateConverterVoltage,
		types.OpUpdateConverterCurrent,
		types.OpUpdateConverterVoltage,
		types.OpUpdateConverterCurrent,
		types.OpEnableReadoutLoop,
	}, ops)
}
