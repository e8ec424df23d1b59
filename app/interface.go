package app

import "benchpsu-go/types"

// HandleInterface applies one front panel event. Buttons do nothing until
// the main screen is up.
func (a *App) HandleInterface(ev types.InterfaceEvent) *types.AppTask {
	if a.ui.Screen != ScreenMain {
		return nil
	}
	var t types.AppTask

	switch ev.Kind {
	case types.BtnSettings:
		a.highlight(types.FnSettings, ev.Change)
		t.Push(a.buttonTask())

	case types.BtnSwitch:
		a.highlight(types.FnSwitch, ev.Change)
		if ev.Change == types.Released {
			t.Push(a.buttonTask())
			break
		}
		if a.ui.SetState == types.SetTarget {
			a.ui.SetState = types.SetLimit
		} else {
			a.ui.SetState = types.SetTarget
		}
		a.setpoints(&t)

	case types.BtnEnter:
		a.highlight(types.FnEnter, ev.Change)
		if ev.Change == types.Released || !a.ui.HasSelected {
			t.Push(a.buttonTask())
			break
		}
		if a.ui.Arrows == SetpointEdit {
			a.ui.Arrows = Navigation
			a.commit(&t, a.ui.Selected)
		} else {
			a.ui.Arrows = SetpointEdit
		}
		a.setpoints(&t)

	case types.BtnUp, types.BtnDown:
		if !a.ui.HasSelected {
			return nil
		}
		c := a.chState(a.ui.Selected)
		if a.ui.Arrows == SetpointEdit {
			if ev.Kind == types.BtnUp {
				c.field(a.ui.SetState).Increment()
			} else {
				c.field(a.ui.SetState).Decrement()
			}
		} else {
			sel := types.SelectVoltage
			if ev.Kind == types.BtnDown {
				sel = types.SelectCurrent
			}
			if c.Select == sel {
				return nil
			}
			c.Select = sel
		}
		a.setpoints(&t)

	case types.BtnLeft, types.BtnRight:
		if a.ui.Arrows == SetpointEdit {
			f := a.chState(a.ui.Selected).field(a.ui.SetState)
			if ev.Kind == types.BtnLeft {
				f.CursorLeft()
			} else {
				f.CursorRight()
			}
			a.setpoints(&t)
			break
		}
		target := types.ChannelA
		if ev.Kind == types.BtnRight {
			target = types.ChannelB
		}
		if a.ui.HasSelected && a.ui.Selected == target {
			return nil
		}
		a.selectChannel(target)
		a.chState(target.Other()).Select = a.chState(target).Select
		t.Push(a.focusTask())
		a.setpoints(&t)

	case types.BtnChannel:
		if a.ui.HasSelected && a.ui.Selected == ev.Channel {
			c := a.chState(ev.Channel)
			c.Enabled = !c.Enabled
			t.Push(types.UpdateConverterState(ev.Channel, c.Enabled))
		} else {
			if a.ui.HasSelected && a.ui.Arrows == SetpointEdit {
				a.commit(&t, a.ui.Selected)
			}
			a.selectChannel(ev.Channel)
		}
		t.Push(a.focusTask())
		a.setpoints(&t)

	default:
		return nil
	}

	return a.finish(&t, ev.Kind.String())
}

func (a *App) highlight(fb types.FunctionButton, c types.Change) {
	if c == types.Pressed {
		a.ui.Highlight = fb
	} else {
		a.ui.Highlight = types.FnNone
	}
}

func (a *App) selectChannel(ch types.Channel) {
	a.ui.Selected, a.ui.HasSelected = ch, true
	a.ui.Arrows = Navigation
}

// commit pushes the channel's live target to its converter. Leaving
// SetpointEdit is the only place edits reach the hardware.
func (a *App) commit(t *types.AppTask, ch types.Channel) {
	live := a.chState(ch).LiveTarget()
	t.Push(types.UpdateConverterVoltage(ch, live.Voltage))
	t.Push(types.UpdateConverterCurrent(ch, live.Current))
}

func (a *App) confirm() types.ConfirmState {
	if a.ui.Arrows == SetpointEdit {
		return types.AwaitConfirmModify
	}
	return types.AwaitModify
}

func (a *App) buttonTask() types.DisplayTask {
	return types.UpdateButton(a.confirm(), a.ui.Highlight)
}

func (a *App) focusTask() types.DisplayTask {
	var f [2]types.ChannelFocus
	for _, ch := range types.Channels {
		selected := a.ui.HasSelected && a.ui.Selected == ch
		f[ch.Index()] = types.FocusOf(selected, a.chState(ch).Enabled)
	}
	return types.UpdateChannelFocus(f[0], f[1])
}

// setpoints re-renders both channels' mode tag and setpoint row, then the
// confirm button, so the panel is consistent after any single edit.
func (a *App) setpoints(t *types.AppTask) {
	for _, ch := range types.Channels {
		c := a.chState(ch)
		selected := a.ui.HasSelected && a.ui.Selected == ch
		sel := types.SelectNone
		if selected {
			sel = c.Select
		}
		editing := selected && a.ui.Arrows == SetpointEdit
		var cursor int8
		if editing {
			cursor = c.field(a.ui.SetState).Exponent
		}
		t.Push(types.UpdateSetState(ch, a.ui.SetState, sel))
		t.Push(types.UpdateSetpoint(ch, c.Shown(a.ui.SetState), sel, editing, cursor))
	}
	t.Push(a.buttonTask())
}
