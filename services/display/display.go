// Package display defines the render surface the dispatcher drives and a
// text renderer for terminals and serial consoles.
package display

import "benchpsu-go/types"

// Display renders one task. Implementations are only called from the
// dispatcher goroutine.
type Display interface {
	Render(t types.DisplayTask) error
}

// Row is what one channel's area of the main screen shows.
type Row struct {
	Setpoint types.Limits
	Select   types.SetSelect
	Editing  bool
	Cursor   int8
	SetState types.SetState
	Focus    types.ChannelFocus
	Readout  types.Readout
}

// Model is the screen content after the tasks rendered so far.
type Model struct {
	Main      bool
	Power     types.PowerType
	Boot      []string
	Rows      [2]Row
	Confirm   types.ConfirmState
	Highlight types.FunctionButton
}

// Apply folds t into the model.
func (m *Model) Apply(t types.DisplayTask) {
	switch t.Op {
	case types.DispSetupSplash:
		*m = Model{}
	case types.DispConfirmPowerDelivery:
		m.Power = t.Power
		m.Boot = append(m.Boot, "power "+t.Power.String())
	case types.DispConfirmSense:
		m.Boot = append(m.Boot, "sense "+status(t.Err))
	case types.DispConfirmConverter:
		m.Boot = append(m.Boot, "converter "+status(t.Err))
	case types.DispSetupMain:
		m.Main = true
		m.Power = t.Power
		for i := range m.Rows {
			m.Rows[i].Setpoint = t.Setpoints[i]
		}
	case types.DispUpdateReadout:
		m.Rows[t.Channel.Index()].Readout = t.Readout
	case types.DispUpdateSetpoint:
		r := &m.Rows[t.Channel.Index()]
		r.Setpoint, r.Select, r.Editing, r.Cursor = t.Setpoint, t.Select, t.Editing, t.Cursor
	case types.DispUpdateChannelFocus:
		m.Rows[0].Focus, m.Rows[1].Focus = t.Focus[0], t.Focus[1]
	case types.DispUpdateButton:
		m.Confirm, m.Highlight = t.Confirm, t.Button
	case types.DispUpdateSetState:
		r := &m.Rows[t.Channel.Index()]
		r.SetState, r.Select = t.SetState, t.Select
	}
}

func status(err error) string {
	if err != nil {
		return "fail"
	}
	return "ok"
}
