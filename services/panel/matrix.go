package panel

import "benchpsu-go/types"

// OutPin drives a matrix row. machine.Pin satisfies it.
type OutPin interface {
	High()
	Low()
}

// InPin senses a matrix column. machine.Pin satisfies it.
type InPin interface {
	Get() bool
}

// DefaultDebounce is the number of consecutive agreeing scans needed before
// a key changes state.
const DefaultDebounce = 3

// Matrix scans a 3x3 key matrix. Rows are driven high one at a time and a
// high column means the key at that crossing is down.
type Matrix struct {
	rows [3]OutPin
	cols [3]InPin

	threshold uint8
	stable    [NumKeys]bool
	count     [NumKeys]uint8
}

// NewMatrix returns a scanner. debounce <= 0 selects DefaultDebounce.
func NewMatrix(rows [3]OutPin, cols [3]InPin, debounce int) *Matrix {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	m := &Matrix{rows: rows, cols: cols, threshold: uint8(debounce)}
	for _, r := range rows {
		r.Low()
	}
	return m
}

// Poll scans once and appends the events of keys whose debounced state
// changed.
func (m *Matrix) Poll(dst []types.InterfaceEvent) []types.InterfaceEvent {
	for r, row := range m.rows {
		row.High()
		for c, col := range m.cols {
			k := Key(r*3 + c)
			if m.update(k, col.Get()) {
				ch := types.Released
				if m.stable[k] {
					ch = types.Pressed
				}
				if ev, ok := EventFor(k, ch); ok {
					dst = append(dst, ev)
				}
			}
		}
		row.Low()
	}
	return dst
}

// Down reports the debounced state of k.
func (m *Matrix) Down(k Key) bool { return m.stable[k] }

// update feeds one raw sample and reports a debounced transition.
func (m *Matrix) update(k Key, raw bool) bool {
	if raw == m.stable[k] {
		m.count[k] = 0
		return false
	}
	m.count[k]++
	if m.count[k] < m.threshold {
		return false
	}
	m.count[k] = 0
	m.stable[k] = raw
	return true
}
