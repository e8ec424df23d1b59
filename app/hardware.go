package app

import "benchpsu-go/types"

// HandleHardware advances the bring-up sequence. An event that does not
// match the current state is ignored: nil is returned and nothing changes.
func (a *App) HandleHardware(ev types.HardwareEvent) *types.AppTask {
	var t types.AppTask

	switch {
	case a.hw == PowerOn && ev.Kind == types.EvPowerOn:
		a.hw = WaitingForPowerDelivery
		t.Push(types.EnablePowerDelivery())
		t.Push(types.SetupSplash())

	case a.hw == WaitingForPowerDelivery && ev.Kind == types.EvPowerDeliveryReady:
		a.hw = WaitingForSense
		a.power = ev.Power
		t.Push(types.EnableSense())
		t.Push(types.ConfirmPowerDelivery(ev.Power))

	case a.hw == WaitingForSense && ev.Kind == types.EvSenseReady:
		// A failed sense bring-up is shown but does not stop the sequence.
		if ev.Err != nil {
			a.log.Warn().Err(ev.Err).Msg("sense init failed")
		}
		a.hw = WaitingForConverter
		t.Push(types.EnableConverter())
		t.Push(types.ConfirmSense(ev.Err))

	case a.hw == WaitingForConverter && ev.Kind == types.EvConverterReady:
		if ev.Err != nil {
			a.log.Warn().Err(ev.Err).Msg("converter init failed")
		}
		a.hw = WaitingMainUi
		t.Push(types.DelayedHardwareEvent(a.startDelay, types.StartMainInterface()))
		t.Push(types.ConfirmConverter(ev.Err))

	case a.hw == WaitingMainUi && ev.Kind == types.EvStartMainInterface:
		a.hw = Standby
		a.ui.Screen = ScreenMain
		for _, ch := range types.Channels {
			live := a.chState(ch).LiveTarget()
			t.Push(types.UpdateConverterVoltage(ch, live.Voltage))
			t.Push(types.UpdateConverterCurrent(ch, live.Current))
		}
		t.Push(types.EnableReadoutLoop())
		t.Push(types.SetupMain(a.power, a.ch[0].Target(), a.ch[1].Target()))

	case a.hw == Standby && ev.Kind == types.EvReadoutAcquired:
		c := a.chState(ev.Channel)
		c.Readout, c.HasReadout = ev.Readout, true
		t.Push(types.UpdateReadout(ev.Channel, ev.Readout))

	default:
		a.log.Debug().Stringer("state", a.hw).Stringer("event", ev.Kind).Msg("event ignored")
		return nil
	}

	a.log.Debug().Stringer("state", a.hw).Stringer("event", ev.Kind).Int("tasks", t.Len()).Msg("hardware event")
	return a.finish(&t, ev.Kind.String())
}
