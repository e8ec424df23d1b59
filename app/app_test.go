package app

import (
	"errors"
	"testing"
	"time"

	"benchpsu-go/types"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp() *App { return New(Config{Logger: zerolog.Nop()}) }

func hardwareTasks(at *types.AppTask) []types.HardwareTask {
	var out []types.HardwareTask
	for _, t := range at.Tasks() {
		if h, ok := t.(types.HardwareTask); ok {
			out = append(out, h)
		}
	}
	return out
}

func displayOps(at *types.AppTask) []types.DisplayOp {
	var out []types.DisplayOp
	for _, t := range at.Tasks() {
		if d, ok := t.(types.DisplayTask); ok {
			out = append(out, d.Op)
		}
	}
	return out
}

// standby drives a fresh App through bring-up.
func standby(t *testing.T) *App {
	t.Helper()
	a := newApp()
	for _, ev := range []types.HardwareEvent{
		types.PowerOn(),
		types.PowerDeliveryReady(types.Standard(types.Limits{Voltage: 12, Current: 2})),
		types.SenseReady(nil),
		types.ConverterReady(nil),
		types.StartMainInterface(),
	} {
		require.NotNil(t, a.HandleHardware(ev), "event %s", ev.Kind)
	}
	require.Equal(t, Standby, a.State())
	return a
}

func TestBringUpSequence(t *testing.T) {
	a := newApp()
	assert.Equal(t, PowerOn, a.State())

	at := a.HandleHardware(types.PowerOn())
	assert.Equal(t, WaitingForPowerDelivery, a.State())
	assert.Equal(t, []types.Task{types.EnablePowerDelivery(), types.SetupSplash()}, at.Tasks())

	pt := types.Standard(types.Limits{Voltage: 12, Current: 2})
	at = a.HandleHardware(types.PowerDeliveryReady(pt))
	assert.Equal(t, WaitingForSense, a.State())
	assert.Equal(t, []types.Task{types.EnableSense(), types.ConfirmPowerDelivery(pt)}, at.Tasks())
	assert.Equal(t, pt, a.Power())

	at = a.HandleHardware(types.SenseReady(nil))
	assert.Equal(t, WaitingForConverter, a.State())
	assert.Equal(t, []types.Task{types.EnableConverter(), types.ConfirmSense(nil)}, at.Tasks())

	at = a.HandleHardware(types.ConverterReady(nil))
	assert.Equal(t, WaitingMainUi, a.State())
	require.Len(t, hardwareTasks(at), 1)
	delayed := hardwareTasks(at)[0]
	assert.Equal(t, types.OpDelayedHardwareEvent, delayed.Op)
	assert.Equal(t, 500*time.Millisecond, delayed.Delay)
	assert.Equal(t, types.EvStartMainInterface, delayed.Event.Kind)

	at = a.HandleHardware(delayed.Event)
	assert.Equal(t, Standby, a.State())
	assert.Equal(t, ScreenMain, a.Interface().Screen)
	assert.Equal(t, []types.HardwareTask{
		types.UpdateConverterVoltage(types.ChannelA, 5.0),
		types.UpdateConverterCurrent(types.ChannelA, 1.0),
		types.UpdateConverterVoltage(types.ChannelB, 3.3),
		types.UpdateConverterCurrent(types.ChannelB, 1.0),
		types.EnableReadoutLoop(),
	}, hardwareTasks(at))
	assert.Equal(t, []types.DisplayOp{types.DispSetupMain}, displayOps(at))
}

func TestOutOfOrderEventsAreIgnored(t *testing.T) {
	a := newApp()
	for _, ev := range []types.HardwareEvent{
		types.SenseReady(nil),
		types.ConverterReady(nil),
		types.StartMainInterface(),
		types.ReadoutAcquired(types.ChannelA, types.Readout{Voltage: 1}),
		types.PowerDeliveryReady(types.PD(types.Limits{Voltage: 20, Current: 3})),
	} {
		assert.Nil(t, a.HandleHardware(ev), "event %s", ev.Kind)
		assert.Equal(t, PowerOn, a.State())
	}
	assert.Equal(t, types.PowerType{}, a.Power())

	require.NotNil(t, a.HandleHardware(types.PowerOn()))
	assert.Nil(t, a.HandleHardware(types.PowerOn()), "duplicate")
	assert.Equal(t, WaitingForPowerDelivery, a.State())
}

func TestFailedInitStillAdvances(t *testing.T) {
	a := newApp()
	a.HandleHardware(types.PowerOn())
	a.HandleHardware(types.PowerDeliveryReady(types.Standard(types.Limits{Voltage: 5, Current: 1.5})))
	boom := errors.New("verify_failed")

	at := a.HandleHardware(types.SenseReady(boom))
	assert.Equal(t, WaitingForConverter, a.State())
	assert.Contains(t, at.Tasks(), types.Task(types.ConfirmSense(boom)))

	at = a.HandleHardware(types.ConverterReady(boom))
	assert.Equal(t, WaitingMainUi, a.State())
	assert.Contains(t, at.Tasks(), types.Task(types.ConfirmConverter(boom)))
}

func TestReadoutStored(t *testing.T) {
	a := standby(t)
	r := types.Readout{Voltage: 4.99, Current: 0.12, Power: 0.6}
	at := a.HandleHardware(types.ReadoutAcquired(types.ChannelB, r))
	assert.Equal(t, []types.Task{types.UpdateReadout(types.ChannelB, r)}, at.Tasks())
	cs := a.Channel(types.ChannelB)
	assert.True(t, cs.HasReadout)
	assert.Equal(t, r, cs.Readout)
	assert.False(t, a.Channel(types.ChannelA).HasReadout)
}

func TestButtonsBeforeMainScreenDoNothing(t *testing.T) {
	a := newApp()
	a.HandleHardware(types.PowerOn())
	for _, ev := range []types.InterfaceEvent{
		types.ButtonChannel(types.ChannelA),
		types.ButtonEnter(types.Pressed),
		types.ButtonUp(),
		types.ButtonSwitch(types.Pressed),
	} {
		assert.Nil(t, a.HandleInterface(ev))
	}
	assert.False(t, a.Interface().HasSelected)
	assert.Equal(t, types.SetTarget, a.Interface().SetState)
}

func TestChannelSelectThenToggle(t *testing.T) {
	a := standby(t)

	at := a.HandleInterface(types.ButtonChannel(types.ChannelA))
	ui := a.Interface()
	assert.True(t, ui.HasSelected)
	assert.Equal(t, types.ChannelA, ui.Selected)
	assert.Equal(t, Navigation, ui.Arrows)
	assert.Empty(t, hardwareTasks(at))
	assert.Equal(t, types.DispUpdateChannelFocus, displayOps(at)[0])
	focus := at.Tasks()[0].(types.DisplayTask).Focus
	assert.Equal(t, [2]types.ChannelFocus{types.FocusSelectedInactive, types.FocusUnselectedInactive}, focus)

	at = a.HandleInterface(types.ButtonChannel(types.ChannelA))
	assert.True(t, a.Channel(types.ChannelA).Enabled)
	assert.Equal(t, []types.HardwareTask{types.UpdateConverterState(types.ChannelA, true)}, hardwareTasks(at))

	at = a.HandleInterface(types.ButtonChannel(types.ChannelA))
	assert.False(t, a.Channel(types.ChannelA).Enabled)
	assert.Equal(t, []types.HardwareTask{types.UpdateConverterState(types.ChannelA, false)}, hardwareTasks(at))
}

func TestEditCommitsOnlyOnExit(t *testing.T) {
	a := standby(t)
	a.HandleInterface(types.ButtonChannel(types.ChannelA))
	require.Equal(t, types.SelectVoltage, a.Channel(types.ChannelA).Select)

	at := a.HandleInterface(types.ButtonEnter(types.Pressed))
	assert.Equal(t, SetpointEdit, a.Interface().Arrows)
	assert.Empty(t, hardwareTasks(at))
	last := at.Tasks()[at.Len()-1].(types.DisplayTask)
	assert.Equal(t, types.AwaitConfirmModify, last.Confirm)
	assert.Equal(t, types.FnEnter, last.Button)
	a.HandleInterface(types.ButtonEnter(types.Released))

	at = a.HandleInterface(types.ButtonUp())
	assert.Empty(t, hardwareTasks(at), "edits are not applied live")
	assert.Equal(t, float32(5.1), a.Channel(types.ChannelA).TargetV.Value)

	at = a.HandleInterface(types.ButtonEnter(types.Pressed))
	assert.Equal(t, Navigation, a.Interface().Arrows)
	assert.Equal(t, []types.HardwareTask{
		types.UpdateConverterVoltage(types.ChannelA, 5.1),
		types.UpdateConverterCurrent(types.ChannelA, 1.0),
	}, hardwareTasks(at))
}

func TestEnterWithoutSelectionOnlyHighlights(t *testing.T) {
	a := standby(t)
	at := a.HandleInterface(types.ButtonEnter(types.Pressed))
	assert.Equal(t, []types.Task{types.UpdateButton(types.AwaitModify, types.FnEnter)}, at.Tasks())
	assert.Equal(t, Navigation, a.Interface().Arrows)

	at = a.HandleInterface(types.ButtonEnter(types.Released))
	assert.Equal(t, []types.Task{types.UpdateButton(types.AwaitModify, types.FnNone)}, at.Tasks())
}

func TestUpDownSelectFieldInNavigation(t *testing.T) {
	a := standby(t)
	assert.Nil(t, a.HandleInterface(types.ButtonDown()), "no channel selected")

	a.HandleInterface(types.ButtonChannel(types.ChannelB))
	require.NotNil(t, a.HandleInterface(types.ButtonDown()))
	assert.Equal(t, types.SelectCurrent, a.Channel(types.ChannelB).Select)
	assert.Nil(t, a.HandleInterface(types.ButtonDown()), "already on current")
	require.NotNil(t, a.HandleInterface(types.ButtonUp()))
	assert.Equal(t, types.SelectVoltage, a.Channel(types.ChannelB).Select)
}

func TestLeftRightMoveFocusAndShareSelect(t *testing.T) {
	a := standby(t)
	a.HandleInterface(types.ButtonChannel(types.ChannelA))
	a.HandleInterface(types.ButtonDown())

	assert.Nil(t, a.HandleInterface(types.ButtonLeft()), "already on A")

	at := a.HandleInterface(types.ButtonRight())
	require.NotNil(t, at)
	assert.Equal(t, types.ChannelB, a.Interface().Selected)
	assert.Equal(t, a.Channel(types.ChannelB).Select, a.Channel(types.ChannelA).Select)
	assert.Equal(t, types.DispUpdateChannelFocus, displayOps(at)[0])
}

func TestCursorMovesInEdit(t *testing.T) {
	a := standby(t)
	a.HandleInterface(types.ButtonChannel(types.ChannelA))
	a.HandleInterface(types.ButtonEnter(types.Pressed))

	a.HandleInterface(types.ButtonLeft())
	assert.Equal(t, int8(0), a.Channel(types.ChannelA).TargetV.Exponent)
	a.HandleInterface(types.ButtonUp())
	assert.Equal(t, float32(6), a.Channel(types.ChannelA).TargetV.Value)

	for i := 0; i < 5; i++ {
		a.HandleInterface(types.ButtonRight())
	}
	assert.Equal(t, MinExponent, a.Channel(types.ChannelA).TargetV.Exponent)
	at := a.HandleInterface(types.ButtonDown())
	assert.Equal(t, float32(5.99), a.Channel(types.ChannelA).TargetV.Value)

	var row types.DisplayTask
	for _, tk := range at.Tasks() {
		if d, ok := tk.(types.DisplayTask); ok && d.Op == types.DispUpdateSetpoint && d.Channel == types.ChannelA {
			row = d
		}
	}
	assert.True(t, row.Editing)
	assert.Equal(t, MinExponent, row.Cursor)
	assert.Equal(t, float32(5.99), row.Setpoint.Voltage)
}

func TestSwitchEditsLimitsAndLiveTargetIsClamped(t *testing.T) {
	a := standby(t)
	a.HandleInterface(types.ButtonChannel(types.ChannelA))

	at := a.HandleInterface(types.ButtonSwitch(types.Pressed))
	assert.Equal(t, types.SetLimit, a.Interface().SetState)
	assert.Equal(t, types.FnSwitch, a.Interface().Highlight)
	// Both channels' rows are redrawn with their limits.
	var rows int
	for _, tk := range at.Tasks() {
		if d, ok := tk.(types.DisplayTask); ok && d.Op == types.DispUpdateSetpoint {
			rows++
			assert.Equal(t, types.Limits{Voltage: 20, Current: 5}, d.Setpoint)
		}
	}
	assert.Equal(t, 2, rows)
	a.HandleInterface(types.ButtonSwitch(types.Released))
	assert.Equal(t, types.SetLimit, a.Interface().SetState, "release keeps the mode")

	// Drop the voltage limit to 4 V: cursor on units, 16 decrements.
	a.HandleInterface(types.ButtonEnter(types.Pressed))
	a.HandleInterface(types.ButtonLeft())
	for i := 0; i < 16; i++ {
		a.HandleInterface(types.ButtonDown())
	}
	assert.Equal(t, float32(4), a.Channel(types.ChannelA).LimitV.Value)
	assert.Equal(t, float32(5), a.Channel(types.ChannelA).TargetV.Value, "target untouched")

	at = a.HandleInterface(types.ButtonEnter(types.Pressed))
	assert.Equal(t, []types.HardwareTask{
		types.UpdateConverterVoltage(types.ChannelA, 4),
		types.UpdateConverterCurrent(types.ChannelA, 1),
	}, hardwareTasks(at))
}

func TestVoltageLimitStopsAtConverterFloor(t *testing.T) {
	a := standby(t)
	a.HandleInterface(types.ButtonChannel(types.ChannelA))
	a.HandleInterface(types.ButtonSwitch(types.Pressed))
	a.HandleInterface(types.ButtonSwitch(types.Released))

	a.HandleInterface(types.ButtonEnter(types.Pressed))
	a.HandleInterface(types.ButtonLeft())
	for i := 0; i < 25; i++ {
		a.HandleInterface(types.ButtonDown())
	}
	c := a.Channel(types.ChannelA)
	assert.Equal(t, LimitVoltageRange[0], c.LimitV.Value)
	assert.Equal(t, float32(0.2), c.LiveTarget().Voltage)

	at := a.HandleInterface(types.ButtonEnter(types.Pressed))
	assert.Equal(t, []types.HardwareTask{
		types.UpdateConverterVoltage(types.ChannelA, 0.2),
		types.UpdateConverterCurrent(types.ChannelA, 1),
	}, hardwareTasks(at))
}

func TestSwitchingChannelWhileEditingCommits(t *testing.T) {
	a := standby(t)
	a.HandleInterface(types.ButtonChannel(types.ChannelA))
	a.HandleInterface(types.ButtonEnter(types.Pressed))
	a.HandleInterface(types.ButtonUp())

	at := a.HandleInterface(types.ButtonChannel(types.ChannelB))
	assert.Equal(t, types.MaxTasks, at.Len())
	assert.Empty(t, at.Dropped())
	assert.Equal(t, []types.HardwareTask{
		types.UpdateConverterVoltage(types.ChannelA, 5.1),
		types.UpdateConverterCurrent(types.ChannelA, 1),
	}, hardwareTasks(at))
	assert.Equal(t, Navigation, a.Interface().Arrows)
	assert.Equal(t, types.ChannelB, a.Interface().Selected)
}

func TestSettingsHighlightsOnly(t *testing.T) {
	a := standby(t)
	at := a.HandleInterface(types.ButtonSettings(types.Pressed))
	assert.Equal(t, []types.Task{types.UpdateButton(types.AwaitModify, types.FnSettings)}, at.Tasks())
	at = a.HandleInterface(types.ButtonSettings(types.Released))
	assert.Equal(t, []types.Task{types.UpdateButton(types.AwaitModify, types.FnNone)}, at.Tasks())
}
