package display

import (
	"io"

	"benchpsu-go/errcode"
	"benchpsu-go/types"
	"benchpsu-go/x/fmtx"
)

// Console renders tasks as one text line each.
type Console struct {
	w   io.Writer
	m   Model
	buf []byte
}

func NewConsole(w io.Writer) *Console {
	return &Console{w: w, buf: make([]byte, 0, 96)}
}

// Model returns the screen content rendered so far.
func (c *Console) Model() Model { return c.m }

func (c *Console) Render(t types.DisplayTask) error {
	c.m.Apply(t)
	b := c.buf[:0]
	switch t.Op {
	case types.DispSetupSplash:
		b = append(b, "== bench psu =="...)
	case types.DispConfirmPowerDelivery:
		b = append(b, "input   "...)
		b = appendPower(b, t.Power)
	case types.DispConfirmSense:
		b = append(b, "sense   "...)
		b = appendResult(b, t.Err)
	case types.DispConfirmConverter:
		b = append(b, "convert "...)
		b = appendResult(b, t.Err)
	case types.DispSetupMain:
		b = append(b, "main    "...)
		b = appendPower(b, t.Power)
		for _, ch := range types.Channels {
			b = append(b, "\n"...)
			b = c.appendRow(b, ch)
		}
	case types.DispUpdateReadout:
		b = append(b, channelName(t.Channel)...)
		b = append(b, " out "...)
		b = fmtx.AppendFixed(b, t.Readout.Voltage, 3)
		b = append(b, "V "...)
		b = fmtx.AppendFixed(b, t.Readout.Current, 3)
		b = append(b, "A "...)
		b = fmtx.AppendFixed(b, t.Readout.Power, 2)
		b = append(b, 'W')
	case types.DispUpdateSetpoint, types.DispUpdateSetState:
		b = c.appendRow(b, t.Channel)
	case types.DispUpdateChannelFocus:
		b = append(b, "focus   A:"...)
		b = append(b, focusName(t.Focus[0])...)
		b = append(b, " B:"...)
		b = append(b, focusName(t.Focus[1])...)
	case types.DispUpdateButton:
		b = append(b, "enter   "...)
		if t.Confirm == types.AwaitConfirmModify {
			b = append(b, "confirm"...)
		} else {
			b = append(b, "modify"...)
		}
		if t.Button != types.FnNone {
			b = append(b, " ["...)
			b = append(b, t.Button.String()...)
			b = append(b, ']')
		}
	default:
		return nil
	}
	b = append(b, '\n')
	c.buf = b
	_, err := c.w.Write(b)
	return err
}

// appendRow renders a channel's setpoint row from the model. The edited
// digit is bracketed.
func (c *Console) appendRow(b []byte, ch types.Channel) []byte {
	r := c.m.Rows[ch.Index()]
	b = append(b, channelName(ch)...)
	b = append(b, ' ')
	b = append(b, r.SetState.String()...)
	for _, f := range [...]types.SetSelect{types.SelectVoltage, types.SelectCurrent} {
		v, unit := r.Setpoint.Voltage, byte('V')
		if f == types.SelectCurrent {
			v, unit = r.Setpoint.Current, 'A'
		}
		b = append(b, ' ')
		if r.Select == f {
			b = append(b, '>')
		} else {
			b = append(b, ' ')
		}
		s := fmtx.Fixed(v, 2)
		if r.Select == f && r.Editing {
			s = MarkDigit(s, r.Cursor)
		}
		b = append(b, s...)
		b = append(b, unit)
	}
	return b
}

// MarkDigit brackets the digit of s worth 10^exp. s is returned unchanged
// when it has no such digit.
func MarkDigit(s string, exp int8) string {
	dot := len(s)
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			dot = i
			break
		}
	}
	i := dot - 1 - int(exp)
	if exp < 0 {
		i = dot - int(exp)
	}
	if i < 0 || i >= len(s) || s[i] < '0' || s[i] > '9' {
		return s
	}
	return s[:i] + "[" + s[i:i+1] + "]" + s[i+1:]
}

func appendPower(b []byte, p types.PowerType) []byte {
	b = append(b, p.String()...)
	b = append(b, ' ')
	b = fmtx.AppendFixed(b, p.Limits.Voltage, 2)
	b = append(b, "V "...)
	b = fmtx.AppendFixed(b, p.Limits.Current, 2)
	return append(b, 'A')
}

func appendResult(b []byte, err error) []byte {
	if err == nil {
		return append(b, "ok"...)
	}
	b = append(b, "FAIL "...)
	return append(b, string(errcode.Of(err))...)
}

func channelName(ch types.Channel) string {
	if ch == types.ChannelB {
		return "B"
	}
	return "A"
}

func focusName(f types.ChannelFocus) string {
	switch f {
	case types.FocusSelectedActive:
		return "sel,on"
	case types.FocusSelectedInactive:
		return "sel,off"
	case types.FocusUnselectedActive:
		return "on"
	}
	return "off"
}
